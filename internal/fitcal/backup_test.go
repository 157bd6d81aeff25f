package fitcal_test

import (
	"errors"
	"sort"
	"strings"
	"testing"
	"time"

	"fitcal/internal/encryption"
	"fitcal/internal/fitcal"
	"fitcal/internal/model"
	"fitcal/internal/testutil"
	"fitcal/internal/vault"
)

func seedStore(t *testing.T, svc *fitcal.Service) {
	t.Helper()
	for _, a := range []*model.Activity{
		activity("a1", "2024-03-01", model.TypeRunning, 32.17, "07:15:00"),
		activity("a2", "2024-03-02", model.TypeYoga, 45, ""),
		activity("a3", "2024-03-05", model.TypeCycling, 90.5, "18:30:00"),
	} {
		if err := svc.AddActivity(a); err != nil {
			t.Fatalf("AddActivity() error = %v", err)
		}
	}
	for _, e := range []*model.BodyLogEntry{
		{ID: "b1", Date: "2024-03-02", Category: model.PainKnee, Severity: 2},
		{ID: "b2", Date: "2024-03-04", Category: model.PainBack, Severity: 4, Notes: "after deadlifts"},
	} {
		if err := svc.AddBodyLog(e); err != nil {
			t.Fatalf("AddBodyLog() error = %v", err)
		}
	}
}

func activityIDs(activities []model.Activity) []string {
	ids := make([]string, len(activities))
	for i, a := range activities {
		ids[i] = a.ID
	}
	sort.Strings(ids)
	return ids
}

func TestService_ExportSnapshot(t *testing.T) {
	svc, _ := newTestService(t)
	seedStore(t, svc)

	doc, err := svc.ExportSnapshot()
	if err != nil {
		t.Fatalf("ExportSnapshot() error = %v", err)
	}
	if doc.Version != model.BackupVersion {
		t.Errorf("Version = %d, want %d", doc.Version, model.BackupVersion)
	}
	if doc.ExportedAt.IsZero() {
		t.Error("ExportedAt is zero")
	}
	if len(doc.Activities) != 3 || len(doc.BodyLogs) != 2 {
		t.Errorf("snapshot has %d activities and %d body logs, want 3 and 2",
			len(doc.Activities), len(doc.BodyLogs))
	}
}

func TestService_RestoreSnapshot(t *testing.T) {
	t.Run("round trip restores the exact record set", func(t *testing.T) {
		svc, store := newTestService(t)
		seedStore(t, svc)

		doc, err := svc.ExportSnapshot()
		if err != nil {
			t.Fatalf("ExportSnapshot() error = %v", err)
		}
		wantIDs := activityIDs(doc.Activities)

		// Diverge from the snapshot before restoring.
		if err := svc.DeleteActivity("a2"); err != nil {
			t.Fatalf("DeleteActivity() error = %v", err)
		}
		if err := svc.AddActivity(activity("drift", "2024-04-01", model.TypeOther, 15, "")); err != nil {
			t.Fatalf("AddActivity() error = %v", err)
		}

		if err := svc.RestoreSnapshot(doc); err != nil {
			t.Fatalf("RestoreSnapshot() error = %v", err)
		}

		all, err := store.AllActivities()
		if err != nil {
			t.Fatalf("AllActivities() error = %v", err)
		}
		gotIDs := make([]string, len(all))
		for i, a := range all {
			gotIDs[i] = a.ID
		}
		sort.Strings(gotIDs)
		if strings.Join(gotIDs, ",") != strings.Join(wantIDs, ",") {
			t.Errorf("restored ids = %v, want %v", gotIDs, wantIDs)
		}

		logCount, _ := store.CountBodyLogs()
		if logCount != 2 {
			t.Errorf("body log count = %d, want 2", logCount)
		}
	})

	t.Run("failed restore leaves the store unchanged", func(t *testing.T) {
		svc, store := newTestService(t)
		seedStore(t, svc)

		doc := &model.BackupDocument{
			Version:    model.BackupVersion,
			ExportedAt: time.Now().UTC(),
			Activities: []model.Activity{
				*activity("new-1", "2024-05-01", model.TypeRunning, 30, ""),
			},
			BodyLogs: []model.BodyLogEntry{
				// Severity out of range; the insert fails mid-transaction.
				{ID: "bad", Date: "2024-05-01", Category: model.PainBack, Severity: 9, CreatedAt: time.Now()},
			},
		}
		if err := svc.RestoreSnapshot(doc); err == nil {
			t.Fatal("RestoreSnapshot() succeeded, want error")
		}

		actCount, _ := store.CountActivities()
		logCount, _ := store.CountBodyLogs()
		if actCount != 3 || logCount != 2 {
			t.Errorf("store has %d activities and %d body logs after failed restore, want 3 and 2",
				actCount, logCount)
		}
	})
}

func TestService_DecodeBackup(t *testing.T) {
	svc, _ := newTestService(t)

	t.Run("missing bodyLogs becomes an empty list", func(t *testing.T) {
		doc, err := svc.DecodeBackup(strings.NewReader(`{
			"version": 1,
			"exportedAt": "2024-03-15T10:30:00Z",
			"activities": [
				{"id":"a1","type":"running","title":"Run","date":"2024-03-01","durationMinutes":30,"source":"imported"},
				{"id":"a2","type":"yoga","title":"Yoga","date":"2024-03-02","durationMinutes":45,"source":"manual"},
				{"id":"a3","type":"cycling","title":"Ride","date":"2024-03-05","durationMinutes":90.5,"source":"imported"}
			]
		}`))
		if err != nil {
			t.Fatalf("DecodeBackup() error = %v", err)
		}
		if len(doc.Activities) != 3 {
			t.Errorf("got %d activities, want 3", len(doc.Activities))
		}
		if doc.BodyLogs == nil || len(doc.BodyLogs) != 0 {
			t.Errorf("BodyLogs = %v, want empty non-nil slice", doc.BodyLogs)
		}

		// The decoded document restores cleanly.
		restoreSvc, store := newTestService(t)
		seedStore(t, restoreSvc)
		if err := restoreSvc.RestoreSnapshot(doc); err != nil {
			t.Fatalf("RestoreSnapshot() error = %v", err)
		}
		actCount, _ := store.CountActivities()
		logCount, _ := store.CountBodyLogs()
		if actCount != 3 || logCount != 0 {
			t.Errorf("counts after restore = (%d, %d), want (3, 0)", actCount, logCount)
		}
	})

	t.Run("null bodyLogs becomes an empty list", func(t *testing.T) {
		doc, err := svc.DecodeBackup(strings.NewReader(`{"version": 1, "activities": [], "bodyLogs": null}`))
		if err != nil {
			t.Fatalf("DecodeBackup() error = %v", err)
		}
		if doc.BodyLogs == nil || len(doc.BodyLogs) != 0 {
			t.Errorf("BodyLogs = %v, want empty non-nil slice", doc.BodyLogs)
		}
	})

	t.Run("rejects malformed documents", func(t *testing.T) {
		cases := []struct {
			name string
			in   string
		}{
			{"not json", `this is not json`},
			{"no version", `{"activities": []}`},
			{"no activities", `{"version": 1, "bodyLogs": []}`},
			{"null activities", `{"version": 1, "activities": null}`},
			{"activities not an array", `{"version": 1, "activities": {"oops": true}}`},
			{"bodyLogs not an array", `{"version": 1, "activities": [], "bodyLogs": 42}`},
		}
		for _, tc := range cases {
			_, err := svc.DecodeBackup(strings.NewReader(tc.in))
			var verr *fitcal.ValidationError
			if !errors.As(err, &verr) {
				t.Errorf("%s: DecodeBackup() error = %v, want *ValidationError", tc.name, err)
			}
		}
	})
}

func TestService_BackupToVault(t *testing.T) {
	t.Run("plaintext backup round trip", func(t *testing.T) {
		store := testutil.NewTestStore(t)
		v := vault.NewMemoryVault("test")
		svc := fitcal.NewService(store, v, nil, fitcal.NewNopLogger(), testutil.FixedClock(), testutil.NewStubIDGenerator())
		seedStore(t, svc)

		name, err := svc.BackupToVault(false)
		if err != nil {
			t.Fatalf("BackupToVault() error = %v", err)
		}
		if !strings.HasPrefix(name, "fitcal-") || !strings.HasSuffix(name, ".json") {
			t.Errorf("name = %q, want fitcal-<timestamp>.json", name)
		}

		names, err := svc.ListBackups()
		if err != nil {
			t.Fatalf("ListBackups() error = %v", err)
		}
		if len(names) != 1 || names[0] != name {
			t.Errorf("ListBackups() = %v, want [%s]", names, name)
		}

		doc, err := svc.FetchBackup(name, nil)
		if err != nil {
			t.Fatalf("FetchBackup() error = %v", err)
		}
		if len(doc.Activities) != 3 || len(doc.BodyLogs) != 2 {
			t.Errorf("fetched %d activities and %d body logs, want 3 and 2",
				len(doc.Activities), len(doc.BodyLogs))
		}
	})

	t.Run("encrypted backup requires an unlocked context", func(t *testing.T) {
		store := testutil.NewTestStore(t)
		v := vault.NewMemoryVault("test")
		enc := encryption.NewTestEncryptor()
		svc := fitcal.NewService(store, v, enc, fitcal.NewNopLogger(), testutil.FixedClock(), testutil.NewStubIDGenerator())
		seedStore(t, svc)

		name, err := svc.BackupToVault(true)
		if err != nil {
			t.Fatalf("BackupToVault() error = %v", err)
		}
		if !strings.HasSuffix(name, ".json.age") {
			t.Errorf("name = %q, want a .json.age suffix", name)
		}

		if _, err := svc.FetchBackup(name, nil); err == nil {
			t.Fatal("FetchBackup() without a decryption context succeeded, want error")
		}

		ctx, err := enc.Unlock("")
		if err != nil {
			t.Fatalf("Unlock() error = %v", err)
		}
		doc, err := svc.FetchBackup(name, ctx)
		if err != nil {
			t.Fatalf("FetchBackup() error = %v", err)
		}
		if len(doc.Activities) != 3 {
			t.Errorf("fetched %d activities, want 3", len(doc.Activities))
		}
	})

	t.Run("no vault configured is an error", func(t *testing.T) {
		svc, _ := newTestService(t)
		if _, err := svc.BackupToVault(false); err == nil {
			t.Error("BackupToVault() without a vault succeeded, want error")
		}
	})
}
