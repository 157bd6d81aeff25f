package fitcal

import "io"

// Vault provides an interface for backup document storage backends.
// Operations use io.Reader/io.Writer for streaming so large backups never
// need to be held in memory by the vault itself.
type Vault interface {
	// PutBackup stores a backup document under the given name.
	// size is the number of bytes that will be read from r. Storing the same
	// name twice replaces the previous document.
	PutBackup(name string, r io.Reader, size int64) error

	// GetBackup retrieves a backup document by name and writes it to w.
	GetBackup(name string, w io.Writer) error

	// ListBackups returns the names of all stored backups, sorted ascending.
	// Names embed a UTC timestamp, so ascending order is chronological.
	ListBackups() ([]string, error)

	// ValidateSetup verifies that the vault is accessible and properly
	// configured.
	ValidateSetup() error
}
