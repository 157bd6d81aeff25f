package vault

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"fitcal/internal/fitcal"
)

// FileSystemVault is a filesystem-based implementation of the Vault
// interface. Backup documents are stored as files:
//
//	<root>/
//	  backups/
//	    <name>     (one file per backup document)
type FileSystemVault struct {
	name       string
	root       string
	backupsDir string
}

// NewFileSystemVault creates a new filesystem vault rooted at the given path.
func NewFileSystemVault(name, root string) (*FileSystemVault, error) {
	backupsDir := filepath.Join(root, "backups")

	if err := os.MkdirAll(backupsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create backups directory: %w", err)
	}

	return &FileSystemVault{
		name:       name,
		root:       root,
		backupsDir: backupsDir,
	}, nil
}

// PutBackup stores a backup document under the given name. The write is
// atomic (temp file + rename), so a crash never leaves a truncated backup
// under the final name.
func (v *FileSystemVault) PutBackup(name string, r io.Reader, size int64) error {
	destPath := filepath.Join(v.backupsDir, name)

	tmpFile, err := os.CreateTemp(v.backupsDir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	written, err := io.Copy(tmpFile, r)
	if err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write backup: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if written != size {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", size, written)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return nil
}

// GetBackup retrieves a backup document by name and writes it to w.
func (v *FileSystemVault) GetBackup(name string, w io.Writer) error {
	f, err := os.Open(filepath.Join(v.backupsDir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("backup not found: %s", name)
		}
		return fmt.Errorf("failed to open backup: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("failed to read backup: %w", err)
	}

	return nil
}

// ListBackups returns the names of all stored backups, sorted ascending.
func (v *FileSystemVault) ListBackups() ([]string, error) {
	entries, err := os.ReadDir(v.backupsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read backups directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// ValidateSetup verifies that the vault directories are accessible.
func (v *FileSystemVault) ValidateSetup() error {
	info, err := os.Stat(v.root)
	if err != nil {
		return fmt.Errorf("vault root not accessible: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("vault root is not a directory: %s", v.root)
	}

	info, err = os.Stat(v.backupsDir)
	if err != nil {
		return fmt.Errorf("vault directory not accessible: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("vault path is not a directory: %s", v.backupsDir)
	}

	return nil
}

// Compile-time check that FileSystemVault implements fitcal.Vault.
var _ fitcal.Vault = (*FileSystemVault)(nil)
