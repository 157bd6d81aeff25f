package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestConfigRoundTrip(t *testing.T) {
	cfg := NewConfig("/home/user/.local/share/fitcal")
	cfg.Vaults = append(cfg.Vaults, VaultConfig{
		Type:     "s3",
		Name:     "offsite",
		S3Bucket: "fitcal-backups",
		S3Region: "us-east-1",
		S3Prefix: "prod",
	})
	cfg.Calendar.WeekStart = "monday"

	var buf bytes.Buffer
	m := &Manager{}
	if err := m.Write(&buf, cfg); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	got, err := m.Read(&buf)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	if got.BaseDir != cfg.BaseDir {
		t.Errorf("BaseDir = %q, want %q", got.BaseDir, cfg.BaseDir)
	}
	if got.Database.Type != "sqlite" || got.Database.DataDir != cfg.Database.DataDir {
		t.Errorf("Database = %+v, want %+v", got.Database, cfg.Database)
	}
	if len(got.Vaults) != 2 {
		t.Fatalf("got %d vaults, want 2", len(got.Vaults))
	}
	if got.Vaults[0].Type != "filesystem" || got.Vaults[0].Name != "local" {
		t.Errorf("Vaults[0] = %+v, want the default filesystem vault", got.Vaults[0])
	}
	if got.Vaults[1].S3Bucket != "fitcal-backups" || got.Vaults[1].S3Region != "us-east-1" {
		t.Errorf("Vaults[1] = %+v, want the s3 vault", got.Vaults[1])
	}
	if got.Encryption.PublicKeyPath != cfg.Encryption.PublicKeyPath {
		t.Errorf("Encryption.PublicKeyPath = %q, want %q", got.Encryption.PublicKeyPath, cfg.Encryption.PublicKeyPath)
	}
	if got.Calendar.WeekStart != "monday" {
		t.Errorf("Calendar.WeekStart = %q, want %q", got.Calendar.WeekStart, "monday")
	}
}

func TestReadRejectsMalformedTOML(t *testing.T) {
	m := &Manager{}
	if _, err := m.Read(strings.NewReader("base_dir = [unclosed")); err == nil {
		t.Error("Read() succeeded on malformed TOML, want error")
	}
}

func TestWeekStartDay(t *testing.T) {
	cases := []struct {
		in      string
		want    time.Weekday
		wantErr bool
	}{
		{"", time.Sunday, false},
		{"sunday", time.Sunday, false},
		{"monday", time.Monday, false},
		{"saturday", time.Sunday, true},
		{"Monday", time.Sunday, true},
	}
	for _, tc := range cases {
		got, err := CalendarConfig{WeekStart: tc.in}.WeekStartDay()
		if tc.wantErr {
			if err == nil {
				t.Errorf("WeekStartDay(%q) succeeded, want error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("WeekStartDay(%q) error = %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("WeekStartDay(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestInit(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "fitcal.toml")
	cfg := NewConfig(filepath.Join(dir, "data"))

	if err := Init(path, cfg); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file missing after Init: %v", err)
	}

	// A second Init must not clobber the existing file.
	if err := Init(path, cfg); err == nil {
		t.Error("Init() on an existing file succeeded, want error")
	}

	got, err := ReadFromFile(path)
	if err != nil {
		t.Fatalf("ReadFromFile() error = %v", err)
	}
	if got.Database.Type != "sqlite" {
		t.Errorf("Database.Type = %q, want %q", got.Database.Type, "sqlite")
	}
}
