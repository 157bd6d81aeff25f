package vault

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"fitcal/internal/fitcal"
)

// vaultImplementations lets the contract tests run against every local
// implementation. The S3 vault needs live credentials and is exercised
// manually.
func vaultImplementations(t *testing.T) map[string]fitcal.Vault {
	t.Helper()

	fsVault, err := NewFileSystemVault("local", filepath.Join(t.TempDir(), "vault"))
	if err != nil {
		t.Fatalf("NewFileSystemVault() error = %v", err)
	}

	return map[string]fitcal.Vault{
		"memory":     NewMemoryVault("test"),
		"filesystem": fsVault,
	}
}

func putString(t *testing.T, v fitcal.Vault, name, content string) {
	t.Helper()
	if err := v.PutBackup(name, strings.NewReader(content), int64(len(content))); err != nil {
		t.Fatalf("PutBackup(%s) error = %v", name, err)
	}
}

func TestVault_PutGetRoundTrip(t *testing.T) {
	for impl, v := range vaultImplementations(t) {
		t.Run(impl, func(t *testing.T) {
			content := `{"version":1,"activities":[]}`
			putString(t, v, "fitcal-20240315T103000Z.json", content)

			var buf bytes.Buffer
			if err := v.GetBackup("fitcal-20240315T103000Z.json", &buf); err != nil {
				t.Fatalf("GetBackup() error = %v", err)
			}
			if buf.String() != content {
				t.Errorf("GetBackup() = %q, want %q", buf.String(), content)
			}
		})
	}
}

func TestVault_GetMissingBackup(t *testing.T) {
	for impl, v := range vaultImplementations(t) {
		t.Run(impl, func(t *testing.T) {
			var buf bytes.Buffer
			if err := v.GetBackup("no-such-backup.json", &buf); err == nil {
				t.Error("GetBackup(missing) succeeded, want error")
			}
		})
	}
}

func TestVault_PutRejectsSizeMismatch(t *testing.T) {
	for impl, v := range vaultImplementations(t) {
		t.Run(impl, func(t *testing.T) {
			err := v.PutBackup("bad.json", strings.NewReader("short"), 999)
			if err == nil {
				t.Error("PutBackup() with wrong size succeeded, want error")
			}

			// A failed put must not leave a visible backup behind.
			names, err := v.ListBackups()
			if err != nil {
				t.Fatalf("ListBackups() error = %v", err)
			}
			if len(names) != 0 {
				t.Errorf("ListBackups() = %v after failed put, want empty", names)
			}
		})
	}
}

func TestVault_ListBackupsSorted(t *testing.T) {
	for impl, v := range vaultImplementations(t) {
		t.Run(impl, func(t *testing.T) {
			putString(t, v, "fitcal-20240315T103000Z.json", "{}")
			putString(t, v, "fitcal-20240101T000000Z.json", "{}")
			putString(t, v, "fitcal-20240220T120000Z.json.age", "{}")

			names, err := v.ListBackups()
			if err != nil {
				t.Fatalf("ListBackups() error = %v", err)
			}
			want := []string{
				"fitcal-20240101T000000Z.json",
				"fitcal-20240220T120000Z.json.age",
				"fitcal-20240315T103000Z.json",
			}
			if len(names) != len(want) {
				t.Fatalf("ListBackups() = %v, want %v", names, want)
			}
			for i := range want {
				if names[i] != want[i] {
					t.Errorf("ListBackups()[%d] = %q, want %q", i, names[i], want[i])
				}
			}
		})
	}
}

func TestVault_PutOverwritesSameName(t *testing.T) {
	for impl, v := range vaultImplementations(t) {
		t.Run(impl, func(t *testing.T) {
			putString(t, v, "backup.json", "first")
			putString(t, v, "backup.json", "second")

			var buf bytes.Buffer
			if err := v.GetBackup("backup.json", &buf); err != nil {
				t.Fatalf("GetBackup() error = %v", err)
			}
			if buf.String() != "second" {
				t.Errorf("GetBackup() = %q, want the overwriting content", buf.String())
			}
		})
	}
}

func TestVault_ValidateSetup(t *testing.T) {
	for impl, v := range vaultImplementations(t) {
		t.Run(impl, func(t *testing.T) {
			if err := v.ValidateSetup(); err != nil {
				t.Errorf("ValidateSetup() error = %v", err)
			}
		})
	}
}

func TestFileSystemVault_ListIgnoresDirectories(t *testing.T) {
	root := filepath.Join(t.TempDir(), "vault")
	v, err := NewFileSystemVault("local", root)
	if err != nil {
		t.Fatalf("NewFileSystemVault() error = %v", err)
	}
	putString(t, v, "backup.json", "{}")

	// A stray subdirectory must not show up as a backup.
	if err := os.Mkdir(filepath.Join(root, "backups", "nested"), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	names, err := v.ListBackups()
	if err != nil {
		t.Fatalf("ListBackups() error = %v", err)
	}
	if len(names) != 1 || names[0] != "backup.json" {
		t.Errorf("ListBackups() = %v, want [backup.json]", names)
	}
}
