package fitcal

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"fitcal/internal/model"
)

// ExportSnapshot reads both collections fully and wraps them with the
// current format version and an export timestamp.
func (s *Service) ExportSnapshot() (*model.BackupDocument, error) {
	activities, err := s.store.AllActivities()
	if err != nil {
		return nil, err
	}
	logs, err := s.store.AllBodyLogs()
	if err != nil {
		return nil, err
	}

	doc := &model.BackupDocument{
		Version:    model.BackupVersion,
		ExportedAt: s.clock.Now().UTC(),
		Activities: make([]model.Activity, len(activities)),
		BodyLogs:   make([]model.BodyLogEntry, len(logs)),
	}
	for i, a := range activities {
		doc.Activities[i] = *a
	}
	for i, e := range logs {
		doc.BodyLogs[i] = *e
	}
	return doc, nil
}

// backupEnvelope is the raw wire shape of a backup document, used to check
// the minimal contract before committing to the typed form.
type backupEnvelope struct {
	Version    *int            `json:"version"`
	ExportedAt time.Time       `json:"exportedAt"`
	Activities json.RawMessage `json:"activities"`
	BodyLogs   json.RawMessage `json:"bodyLogs"`
}

// DecodeBackup reads and minimally validates a backup document: version must
// be present and activities must be an array. A missing bodyLogs field is
// treated as an empty list for documents predating body logs. Any other
// shape problem is a *ValidationError, reported before any mutation.
func (s *Service) DecodeBackup(r io.Reader) (*model.BackupDocument, error) {
	var env backupEnvelope
	if err := json.NewDecoder(r).Decode(&env); err != nil {
		return nil, &ValidationError{Reason: fmt.Sprintf("not a valid backup document: %v", err)}
	}
	if env.Version == nil {
		return nil, &ValidationError{Reason: "backup document has no version"}
	}
	// A literal null is present but is still not an array; accepting it
	// would restore an empty document and wipe the store.
	if env.Activities == nil || jsonNull(env.Activities) {
		return nil, &ValidationError{Reason: "backup document has no activities array"}
	}

	doc := &model.BackupDocument{
		Version:    *env.Version,
		ExportedAt: env.ExportedAt,
	}
	if err := json.Unmarshal(env.Activities, &doc.Activities); err != nil {
		return nil, &ValidationError{Reason: fmt.Sprintf("activities is not an activity array: %v", err)}
	}
	if env.BodyLogs != nil && !jsonNull(env.BodyLogs) {
		if err := json.Unmarshal(env.BodyLogs, &doc.BodyLogs); err != nil {
			return nil, &ValidationError{Reason: fmt.Sprintf("bodyLogs is not a body log array: %v", err)}
		}
	}
	if doc.BodyLogs == nil {
		doc.BodyLogs = []model.BodyLogEntry{}
	}
	return doc, nil
}

// jsonNull reports whether raw is the JSON literal null.
func jsonNull(raw json.RawMessage) bool {
	return string(bytes.TrimSpace(raw)) == "null"
}

// RestoreSnapshot replaces the entire store with the document's contents in
// one transaction: all-or-nothing.
func (s *Service) RestoreSnapshot(doc *model.BackupDocument) error {
	activities := make([]*model.Activity, len(doc.Activities))
	for i := range doc.Activities {
		activities[i] = &doc.Activities[i]
	}
	logs := make([]*model.BodyLogEntry, len(doc.BodyLogs))
	for i := range doc.BodyLogs {
		logs[i] = &doc.BodyLogs[i]
	}

	if err := s.store.ReplaceAll(activities, logs); err != nil {
		return err
	}
	s.logger.Info("snapshot restored", "activities", len(activities), "bodyLogs", len(logs))
	return nil
}

// BackupToVault exports a snapshot, optionally encrypts it, and stores it in
// the configured vault. Returns the stored backup's name.
func (s *Service) BackupToVault(encrypt bool) (string, error) {
	if s.vault == nil {
		return "", fmt.Errorf("no vault configured")
	}

	doc, err := s.ExportSnapshot()
	if err != nil {
		return "", fmt.Errorf("exporting snapshot: %w", err)
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("encoding snapshot: %w", err)
	}

	name := "fitcal-" + s.clock.Now().UTC().Format("20060102T150405Z") + ".json"
	if encrypt {
		if s.encryptor == nil || !s.encryptor.IsConfigured() {
			return "", fmt.Errorf("encryption requested but no keys are configured")
		}
		var buf bytes.Buffer
		if err := s.encryptor.Encrypt(bytes.NewReader(data), &buf); err != nil {
			return "", fmt.Errorf("encrypting snapshot: %w", err)
		}
		data = buf.Bytes()
		name += ".age"
	}

	if err := s.vault.PutBackup(name, bytes.NewReader(data), int64(len(data))); err != nil {
		return "", fmt.Errorf("storing backup: %w", err)
	}

	s.logger.Info("backup stored", "name", name, "activities", len(doc.Activities), "bodyLogs", len(doc.BodyLogs))
	return name, nil
}

// FetchBackup retrieves and decodes a backup document from the vault without
// touching the store. Encrypted backups (".age" suffix) require an unlocked
// decryption context. The caller inspects the document (record counts) and
// then applies it with RestoreSnapshot after explicit confirmation.
func (s *Service) FetchBackup(name string, decrypt DecryptionContext) (*model.BackupDocument, error) {
	if s.vault == nil {
		return nil, fmt.Errorf("no vault configured")
	}

	var buf bytes.Buffer
	if err := s.vault.GetBackup(name, &buf); err != nil {
		return nil, fmt.Errorf("fetching backup: %w", err)
	}

	data := buf.Bytes()
	if strings.HasSuffix(name, ".age") {
		if decrypt == nil {
			return nil, fmt.Errorf("backup %s is encrypted: unlock the private key first", name)
		}
		var plain bytes.Buffer
		if err := decrypt.Decrypt(bytes.NewReader(data), &plain); err != nil {
			return nil, fmt.Errorf("decrypting backup: %w", err)
		}
		data = plain.Bytes()
	}

	return s.DecodeBackup(bytes.NewReader(data))
}

// ListBackups returns the names of all backups in the vault.
func (s *Service) ListBackups() ([]string, error) {
	if s.vault == nil {
		return nil, fmt.Errorf("no vault configured")
	}
	return s.vault.ListBackups()
}
