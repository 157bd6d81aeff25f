package database_test

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"fitcal/internal/database"
	"fitcal/internal/fitcal"
	"fitcal/internal/model"
)

func newStore(t *testing.T) *database.SQLiteStore {
	t.Helper()
	store, err := database.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func testActivity(id, dateKey string) *model.Activity {
	return &model.Activity{
		ID:              id,
		Type:            model.TypeRunning,
		Title:           "Morning Run",
		Date:            dateKey,
		DurationMinutes: 30,
		Source:          model.SourceManual,
	}
}

func testBodyLog(id, dateKey string) *model.BodyLogEntry {
	return &model.BodyLogEntry{
		ID:        id,
		Date:      dateKey,
		Category:  model.PainBack,
		Severity:  3,
		CreatedAt: time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC),
	}
}

func TestSQLiteStore_PutActivity(t *testing.T) {
	t.Run("stores and reads back all fields", func(t *testing.T) {
		store := newStore(t)

		distance := 5.2
		calories := 312.0
		avgHR := 148.0
		a := &model.Activity{
			ID:              "full",
			Type:            model.TypeCycling,
			Title:           "Evening Ride",
			Date:            "2024-03-05",
			StartTime:       "18:30:00",
			DurationMinutes: 62.5,
			DistanceKm:      &distance,
			Calories:        &calories,
			AvgHeartRate:    &avgHR,
			Notes:           "windy",
			Source:          model.SourceImported,
			RawImportFields: map[string]string{"Activity Type": "Road Cycling", "Time": "01:02:30"},
		}
		if err := store.PutActivity(a); err != nil {
			t.Fatalf("PutActivity() error = %v", err)
		}

		got, err := store.ActivitiesByDateRange("2024-03-05", "2024-03-05")
		if err != nil {
			t.Fatalf("ActivitiesByDateRange() error = %v", err)
		}
		if len(got) != 1 {
			t.Fatalf("got %d activities, want 1", len(got))
		}
		round := got[0]
		if round.ID != a.ID || round.Type != a.Type || round.Title != a.Title ||
			round.StartTime != a.StartTime || round.DurationMinutes != a.DurationMinutes ||
			round.Notes != a.Notes || round.Source != a.Source {
			t.Errorf("round trip = %+v, want %+v", round, a)
		}
		if round.DistanceKm == nil || *round.DistanceKm != distance {
			t.Errorf("DistanceKm = %v, want %v", round.DistanceKm, distance)
		}
		if round.MaxHeartRate != nil {
			t.Errorf("MaxHeartRate = %v, want nil", round.MaxHeartRate)
		}
		if round.RawImportFields["Activity Type"] != "Road Cycling" {
			t.Errorf("RawImportFields = %v, want the original row", round.RawImportFields)
		}
	})

	t.Run("same id overwrites", func(t *testing.T) {
		store := newStore(t)

		if err := store.PutActivity(testActivity("dup", "2024-03-01")); err != nil {
			t.Fatalf("PutActivity() error = %v", err)
		}
		updated := testActivity("dup", "2024-03-02")
		updated.Title = "Rescheduled Run"
		if err := store.PutActivity(updated); err != nil {
			t.Fatalf("PutActivity() error = %v", err)
		}

		count, _ := store.CountActivities()
		if count != 1 {
			t.Fatalf("count = %d, want 1", count)
		}
		got, _ := store.ActivitiesByDateRange("2024-03-02", "2024-03-02")
		if len(got) != 1 || got[0].Title != "Rescheduled Run" {
			t.Errorf("got %+v, want the overwriting record", got)
		}
	})

	t.Run("schema rejects invalid records", func(t *testing.T) {
		store := newStore(t)

		bad := testActivity("bad", "2024-03-01")
		bad.DurationMinutes = 0
		err := store.PutActivity(bad)
		var serr *fitcal.StorageError
		if !errors.As(err, &serr) {
			t.Errorf("PutActivity(zero duration) error = %v, want *StorageError", err)
		}

		bad = testActivity("bad2", "not-a-date")
		if err := store.PutActivity(bad); err == nil {
			t.Error("PutActivity(malformed date) succeeded, want error")
		}
	})
}

func TestSQLiteStore_ActivitiesByDateRange(t *testing.T) {
	store := newStore(t)

	for _, key := range []string{"2024-02-28", "2024-03-01", "2024-03-15", "2024-03-31", "2024-04-01"} {
		if err := store.PutActivity(testActivity("a-"+key, key)); err != nil {
			t.Fatalf("PutActivity() error = %v", err)
		}
	}

	got, err := store.ActivitiesByDateRange("2024-03-01", "2024-03-31")
	if err != nil {
		t.Fatalf("ActivitiesByDateRange() error = %v", err)
	}
	if len(got) != 3 {
		t.Errorf("got %d activities, want 3 (bounds inclusive)", len(got))
	}
	for _, a := range got {
		if a.Date < "2024-03-01" || a.Date > "2024-03-31" {
			t.Errorf("activity %s with date %s is outside the window", a.ID, a.Date)
		}
	}

	empty, err := store.ActivitiesByDateRange("2025-01-01", "2025-12-31")
	if err != nil {
		t.Fatalf("ActivitiesByDateRange() error = %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("got %d activities in an empty window, want 0", len(empty))
	}
}

func TestSQLiteStore_DeleteActivity(t *testing.T) {
	store := newStore(t)

	if err := store.PutActivity(testActivity("del", "2024-03-01")); err != nil {
		t.Fatalf("PutActivity() error = %v", err)
	}
	if err := store.DeleteActivity("del"); err != nil {
		t.Fatalf("DeleteActivity() error = %v", err)
	}
	if err := store.DeleteActivity("del"); err != nil {
		t.Errorf("DeleteActivity(absent) error = %v, want nil", err)
	}
	count, _ := store.CountActivities()
	if count != 0 {
		t.Errorf("count = %d, want 0", count)
	}
}

func TestSQLiteStore_BodyLogs(t *testing.T) {
	store := newStore(t)

	for _, key := range []string{"2024-03-01", "2024-03-10", "2024-03-20"} {
		if err := store.PutBodyLog(testBodyLog("b-"+key, key)); err != nil {
			t.Fatalf("PutBodyLog() error = %v", err)
		}
	}

	got, err := store.BodyLogsByDateRange("2024-03-01", "2024-03-10")
	if err != nil {
		t.Fatalf("BodyLogsByDateRange() error = %v", err)
	}
	if len(got) != 2 {
		t.Errorf("got %d body logs, want 2", len(got))
	}
	for _, e := range got {
		if e.Category != model.PainBack || e.Severity != 3 {
			t.Errorf("round trip = %+v", e)
		}
		if !e.CreatedAt.Equal(time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)) {
			t.Errorf("CreatedAt = %v, want the stored timestamp", e.CreatedAt)
		}
	}

	bad := testBodyLog("bad", "2024-03-01")
	bad.Severity = 6
	if err := store.PutBodyLog(bad); err == nil {
		t.Error("PutBodyLog(severity 6) succeeded, want error")
	}

	if err := store.DeleteBodyLog("b-2024-03-01"); err != nil {
		t.Fatalf("DeleteBodyLog() error = %v", err)
	}
	count, _ := store.CountBodyLogs()
	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}
}

func TestSQLiteStore_ReplaceAll(t *testing.T) {
	t.Run("replaces both collections", func(t *testing.T) {
		store := newStore(t)

		if err := store.PutActivity(testActivity("old-a", "2024-01-01")); err != nil {
			t.Fatalf("PutActivity() error = %v", err)
		}
		if err := store.PutBodyLog(testBodyLog("old-b", "2024-01-01")); err != nil {
			t.Fatalf("PutBodyLog() error = %v", err)
		}

		err := store.ReplaceAll(
			[]*model.Activity{testActivity("new-a1", "2024-03-01"), testActivity("new-a2", "2024-03-02")},
			[]*model.BodyLogEntry{testBodyLog("new-b1", "2024-03-01")},
		)
		if err != nil {
			t.Fatalf("ReplaceAll() error = %v", err)
		}

		actCount, _ := store.CountActivities()
		logCount, _ := store.CountBodyLogs()
		if actCount != 2 || logCount != 1 {
			t.Errorf("counts = (%d, %d), want (2, 1)", actCount, logCount)
		}
		old, _ := store.ActivitiesByDateRange("2024-01-01", "2024-01-01")
		if len(old) != 0 {
			t.Errorf("old activity survived the replacement: %+v", old)
		}
	})

	t.Run("rolls back entirely on failure", func(t *testing.T) {
		store := newStore(t)

		if err := store.PutActivity(testActivity("keep-a", "2024-01-01")); err != nil {
			t.Fatalf("PutActivity() error = %v", err)
		}
		if err := store.PutBodyLog(testBodyLog("keep-b", "2024-01-01")); err != nil {
			t.Fatalf("PutBodyLog() error = %v", err)
		}

		bad := testBodyLog("bad", "2024-03-01")
		bad.Severity = 0
		err := store.ReplaceAll(
			[]*model.Activity{testActivity("lost", "2024-03-01")},
			[]*model.BodyLogEntry{bad},
		)
		if err == nil {
			t.Fatal("ReplaceAll() succeeded, want error")
		}

		actCount, _ := store.CountActivities()
		logCount, _ := store.CountBodyLogs()
		if actCount != 1 || logCount != 1 {
			t.Errorf("counts after rollback = (%d, %d), want (1, 1)", actCount, logCount)
		}
		kept, _ := store.ActivitiesByDateRange("2024-01-01", "2024-01-01")
		if len(kept) != 1 || kept[0].ID != "keep-a" {
			t.Errorf("pre-restore activity missing after rollback: %+v", kept)
		}
	})

	t.Run("empty input clears the store", func(t *testing.T) {
		store := newStore(t)

		if err := store.PutActivity(testActivity("gone", "2024-01-01")); err != nil {
			t.Fatalf("PutActivity() error = %v", err)
		}
		if err := store.ReplaceAll(nil, nil); err != nil {
			t.Fatalf("ReplaceAll() error = %v", err)
		}
		count, _ := store.CountActivities()
		if count != 0 {
			t.Errorf("count = %d, want 0", count)
		}
	})
}

func TestSQLiteStore_FileBacked(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fitcal.db")

	store, err := database.NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	if err := store.PutActivity(testActivity("persist", "2024-03-01")); err != nil {
		t.Fatalf("PutActivity() error = %v", err)
	}
	if store.Path() != path {
		t.Errorf("Path() = %q, want %q", store.Path(), path)
	}
	if err := store.CheckMigrations(); err != nil {
		t.Errorf("CheckMigrations() error = %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	// Reopen and confirm the record survived.
	reopened, err := database.NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("NewSQLiteStore(reopen) error = %v", err)
	}
	defer reopened.Close()

	count, err := reopened.CountActivities()
	if err != nil {
		t.Fatalf("CountActivities() error = %v", err)
	}
	if count != 1 {
		t.Errorf("count after reopen = %d, want 1", count)
	}
}
