package health_test

import (
	"path/filepath"
	"testing"
	"time"

	"inlet/internal/database"
	"inlet/internal/health"
	"inlet/internal/ledger"
	"inlet/internal/model"
)

var base = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func newInitializedStore(t *testing.T) *database.SQLiteStore {
	t.Helper()

	store, err := database.NewSQLiteStore(filepath.Join(t.TempDir(), "ledger.db"), database.DefaultBusyTimeout)
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })

	if err := store.Initialize(base); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	return store
}

func insertWithStatus(t *testing.T, store *database.SQLiteStore, id, status string) {
	t.Helper()
	c := &model.Capture{
		ID:              id,
		Source:          "voice",
		Status:          status,
		Channel:         "icloud_voice",
		ChannelNativeID: "native-" + id,
		MetaJSON:        "{}",
		CreatedAt:       base,
		UpdatedAt:       base,
	}
	if err := store.InsertCapture(c); err != nil {
		t.Fatalf("InsertCapture(%s) error = %v", id, err)
	}
}

func TestCheck(t *testing.T) {
	t.Parallel()

	t.Run("healthy on a fresh store", func(t *testing.T) {
		t.Parallel()
		store := newInitializedStore(t)

		report, err := health.Check(store, database.DefaultBusyTimeout, 24*time.Hour, base)
		if err != nil {
			t.Fatalf("Check() error = %v", err)
		}
		if !report.Healthy() {
			t.Errorf("report not healthy: %+v", report)
		}
		if report.PendingCount != 0 || report.ExportedCount != 0 {
			t.Errorf("counts on empty store: %+v", report)
		}
	})

	t.Run("aggregates capture and error counts", func(t *testing.T) {
		t.Parallel()
		store := newInitializedStore(t)

		insertWithStatus(t, store, "c1", "staged")
		insertWithStatus(t, store, "c2", "transcribed")
		insertWithStatus(t, store, "c3", "exported")
		insertWithStatus(t, store, "c4", "exported_placeholder")

		if err := store.InsertErrorLog(nil, ledger.StageExport, "recent", base.Add(-time.Hour)); err != nil {
			t.Fatalf("InsertErrorLog() error = %v", err)
		}
		if err := store.InsertErrorLog(nil, ledger.StageExport, "ancient", base.Add(-48*time.Hour)); err != nil {
			t.Fatalf("InsertErrorLog() error = %v", err)
		}

		report, err := health.Check(store, database.DefaultBusyTimeout, 24*time.Hour, base)
		if err != nil {
			t.Fatalf("Check() error = %v", err)
		}

		if report.PendingCount != 2 {
			t.Errorf("PendingCount = %d, want 2", report.PendingCount)
		}
		if report.ExportedCount != 2 {
			t.Errorf("ExportedCount = %d, want 2", report.ExportedCount)
		}
		if report.PlaceholderRatio != 0.5 {
			t.Errorf("PlaceholderRatio = %v, want 0.5", report.PlaceholderRatio)
		}
		if report.RecentErrors != 1 {
			t.Errorf("RecentErrors = %d, want 1 (old entries excluded)", report.RecentErrors)
		}
		if report.StatusCounts[ledger.StatusStaged] != 1 {
			t.Errorf("StatusCounts = %+v", report.StatusCounts)
		}
	})
}
