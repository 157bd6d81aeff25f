package database

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"fitcal/internal/database/migrations"
	"fitcal/internal/fitcal"
	"fitcal/internal/model"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteStore implements the fitcal.Store interface using SQLite.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore opens (or creates) a SQLite store at path and brings its
// schema to the latest version. path can be ":memory:" for an in-memory
// store.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}

	if err := migrations.MigrateUp(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating database: %w", err)
	}

	return &SQLiteStore{db: db, path: path}, nil
}

// NewSQLiteStoreFromDB wraps an existing database connection. The caller is
// responsible for ensuring the schema is applied and for closing the
// connection's owner.
func NewSQLiteStoreFromDB(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db, path: ""}
}

// OpenConnection opens and configures a SQLite connection with appropriate
// PRAGMAs. Exported for tools and tests that need a properly configured
// connection.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Each pooled connection to ":memory:" would get its own empty
	// database, so in-memory stores must stay on a single connection.
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	// SQLite ships with foreign keys OFF for backward compatibility.
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// storageErr wraps a driver-level fault into the surfaced error taxonomy.
func storageErr(op string, err error) error {
	return &fitcal.StorageError{Op: op, Err: err}
}

const activityColumns = "id, type, title, date, start_time, duration_minutes, distance_km, calories, avg_heart_rate, max_heart_rate, notes, source, raw_import_fields"

const upsertActivitySQL = `INSERT INTO activities (` + activityColumns + `)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    type = excluded.type,
    title = excluded.title,
    date = excluded.date,
    start_time = excluded.start_time,
    duration_minutes = excluded.duration_minutes,
    distance_km = excluded.distance_km,
    calories = excluded.calories,
    avg_heart_rate = excluded.avg_heart_rate,
    max_heart_rate = excluded.max_heart_rate,
    notes = excluded.notes,
    source = excluded.source,
    raw_import_fields = excluded.raw_import_fields`

// Activity operations

func (s *SQLiteStore) PutActivity(a *model.Activity) error {
	args, err := activityArgs(a)
	if err != nil {
		return storageErr("put activity", err)
	}
	if _, err := s.db.Exec(upsertActivitySQL, args...); err != nil {
		return storageErr("put activity", err)
	}
	return nil
}

func (s *SQLiteStore) PutActivities(as []*model.Activity) error {
	if len(as) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return storageErr("put activities", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(upsertActivitySQL)
	if err != nil {
		return storageErr("put activities", err)
	}
	defer stmt.Close()

	for _, a := range as {
		args, err := activityArgs(a)
		if err != nil {
			return storageErr("put activities", err)
		}
		if _, err := stmt.Exec(args...); err != nil {
			return storageErr("put activities", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return storageErr("put activities", err)
	}
	return nil
}

func (s *SQLiteStore) ActivitiesByDateRange(start, end string) ([]*model.Activity, error) {
	rows, err := s.db.Query("SELECT "+activityColumns+" FROM activities WHERE date >= ? AND date <= ?", start, end)
	if err != nil {
		return nil, storageErr("query activities by date range", err)
	}
	defer rows.Close()
	return scanActivities(rows, "query activities by date range")
}

func (s *SQLiteStore) AllActivities() ([]*model.Activity, error) {
	rows, err := s.db.Query("SELECT " + activityColumns + " FROM activities")
	if err != nil {
		return nil, storageErr("query all activities", err)
	}
	defer rows.Close()
	return scanActivities(rows, "query all activities")
}

func (s *SQLiteStore) DeleteActivity(id string) error {
	// Deleting an absent id is a no-op, not an error.
	if _, err := s.db.Exec("DELETE FROM activities WHERE id = ?", id); err != nil {
		return storageErr("delete activity", err)
	}
	return nil
}

func (s *SQLiteStore) CountActivities() (int64, error) {
	var n int64
	if err := s.db.QueryRow("SELECT COUNT(*) FROM activities").Scan(&n); err != nil {
		return 0, storageErr("count activities", err)
	}
	return n, nil
}

// Body log operations

const bodyLogColumns = "id, date, category, severity, notes, created_at"

const upsertBodyLogSQL = `INSERT INTO body_logs (` + bodyLogColumns + `)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    date = excluded.date,
    category = excluded.category,
    severity = excluded.severity,
    notes = excluded.notes,
    created_at = excluded.created_at`

func (s *SQLiteStore) PutBodyLog(e *model.BodyLogEntry) error {
	_, err := s.db.Exec(upsertBodyLogSQL, e.ID, e.Date, string(e.Category), e.Severity, e.Notes, e.CreatedAt)
	if err != nil {
		return storageErr("put body log", err)
	}
	return nil
}

func (s *SQLiteStore) BodyLogsByDateRange(start, end string) ([]*model.BodyLogEntry, error) {
	rows, err := s.db.Query("SELECT "+bodyLogColumns+" FROM body_logs WHERE date >= ? AND date <= ?", start, end)
	if err != nil {
		return nil, storageErr("query body logs by date range", err)
	}
	defer rows.Close()
	return scanBodyLogs(rows, "query body logs by date range")
}

func (s *SQLiteStore) AllBodyLogs() ([]*model.BodyLogEntry, error) {
	rows, err := s.db.Query("SELECT " + bodyLogColumns + " FROM body_logs")
	if err != nil {
		return nil, storageErr("query all body logs", err)
	}
	defer rows.Close()
	return scanBodyLogs(rows, "query all body logs")
}

func (s *SQLiteStore) DeleteBodyLog(id string) error {
	if _, err := s.db.Exec("DELETE FROM body_logs WHERE id = ?", id); err != nil {
		return storageErr("delete body log", err)
	}
	return nil
}

func (s *SQLiteStore) CountBodyLogs() (int64, error) {
	var n int64
	if err := s.db.QueryRow("SELECT COUNT(*) FROM body_logs").Scan(&n); err != nil {
		return 0, storageErr("count body logs", err)
	}
	return n, nil
}

// ReplaceAll clears both collections and bulk-inserts the given records in
// one transaction. Any failure rolls the whole replacement back, so the
// store is never left with only one collection cleared.
func (s *SQLiteStore) ReplaceAll(activities []*model.Activity, logs []*model.BodyLogEntry) error {
	tx, err := s.db.Begin()
	if err != nil {
		return storageErr("replace all", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM activities"); err != nil {
		return storageErr("replace all: clear activities", err)
	}
	if _, err := tx.Exec("DELETE FROM body_logs"); err != nil {
		return storageErr("replace all: clear body logs", err)
	}

	for _, a := range activities {
		args, err := activityArgs(a)
		if err != nil {
			return storageErr("replace all: insert activity", err)
		}
		if _, err := tx.Exec(upsertActivitySQL, args...); err != nil {
			return storageErr("replace all: insert activity", err)
		}
	}
	for _, e := range logs {
		_, err := tx.Exec(upsertBodyLogSQL, e.ID, e.Date, string(e.Category), e.Severity, e.Notes, e.CreatedAt)
		if err != nil {
			return storageErr("replace all: insert body log", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return storageErr("replace all", err)
	}
	return nil
}

// Path returns the database file path (or ":memory:").
func (s *SQLiteStore) Path() string {
	return s.path
}

// CheckMigrations verifies the database schema is up-to-date.
func (s *SQLiteStore) CheckMigrations() error {
	return migrations.CheckDBMigrationStatus(s.db)
}

// BackupTo creates a complete copy of the database at destPath using VACUUM INTO.
func (s *SQLiteStore) BackupTo(destPath string) error {
	if _, err := s.db.Exec("VACUUM INTO ?", destPath); err != nil {
		return storageErr("backing up database", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// activityArgs flattens an activity into upsert arguments. Optional metrics
// map to NULL when absent; the opaque raw import fields are serialized as
// JSON without interpretation.
func activityArgs(a *model.Activity) ([]any, error) {
	var raw any
	if a.RawImportFields != nil {
		data, err := json.Marshal(a.RawImportFields)
		if err != nil {
			return nil, fmt.Errorf("encoding raw import fields: %w", err)
		}
		raw = string(data)
	}
	return []any{
		a.ID,
		string(a.Type),
		a.Title,
		a.Date,
		a.StartTime,
		a.DurationMinutes,
		optFloat(a.DistanceKm),
		optFloat(a.Calories),
		optFloat(a.AvgHeartRate),
		optFloat(a.MaxHeartRate),
		a.Notes,
		string(a.Source),
		raw,
	}, nil
}

func optFloat(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

func scanActivities(rows *sql.Rows, op string) ([]*model.Activity, error) {
	var result []*model.Activity
	for rows.Next() {
		var (
			a                                model.Activity
			typ, source                      string
			distance, calories, avgHR, maxHR sql.NullFloat64
			raw                              sql.NullString
		)
		err := rows.Scan(&a.ID, &typ, &a.Title, &a.Date, &a.StartTime, &a.DurationMinutes,
			&distance, &calories, &avgHR, &maxHR, &a.Notes, &source, &raw)
		if err != nil {
			return nil, storageErr(op, err)
		}
		a.Type = model.ActivityType(typ)
		a.Source = model.Source(source)
		a.DistanceKm = nullFloat(distance)
		a.Calories = nullFloat(calories)
		a.AvgHeartRate = nullFloat(avgHR)
		a.MaxHeartRate = nullFloat(maxHR)
		if raw.Valid {
			if err := json.Unmarshal([]byte(raw.String), &a.RawImportFields); err != nil {
				return nil, storageErr(op, fmt.Errorf("decoding raw import fields for %s: %w", a.ID, err))
			}
		}
		result = append(result, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(op, err)
	}
	return result, nil
}

func scanBodyLogs(rows *sql.Rows, op string) ([]*model.BodyLogEntry, error) {
	var result []*model.BodyLogEntry
	for rows.Next() {
		var (
			e        model.BodyLogEntry
			category string
		)
		if err := rows.Scan(&e.ID, &e.Date, &category, &e.Severity, &e.Notes, &e.CreatedAt); err != nil {
			return nil, storageErr(op, err)
		}
		e.Category = model.PainCategory(category)
		result = append(result, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(op, err)
	}
	return result, nil
}

func nullFloat(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}

// Compile-time check that SQLiteStore implements fitcal.Store.
var _ fitcal.Store = (*SQLiteStore)(nil)
