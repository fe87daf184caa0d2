package database

import (
	"path/filepath"
	"testing"
	"time"
)

func TestInitialize(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	t.Run("creates schema and records version", func(t *testing.T) {
		t.Parallel()
		store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "ledger.db"), DefaultBusyTimeout)
		if err != nil {
			t.Fatalf("NewSQLiteStore() error = %v", err)
		}
		t.Cleanup(func() { store.Close() })

		if err := store.Initialize(now); err != nil {
			t.Fatalf("Initialize() error = %v", err)
		}

		version, found, err := store.GetSyncState(SchemaVersionKey)
		if err != nil {
			t.Fatalf("GetSyncState() error = %v", err)
		}
		if !found || version == "" {
			t.Errorf("schema version marker = %q, %v", version, found)
		}

		// schema is usable
		if err := store.InsertCapture(testCapture("c1")); err != nil {
			t.Errorf("InsertCapture() after Initialize error = %v", err)
		}

		if err := store.CheckMigrations(); err != nil {
			t.Errorf("CheckMigrations() error = %v", err)
		}
	})

	t.Run("idempotent on an initialized store", func(t *testing.T) {
		t.Parallel()
		store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "ledger.db"), DefaultBusyTimeout)
		if err != nil {
			t.Fatalf("NewSQLiteStore() error = %v", err)
		}
		t.Cleanup(func() { store.Close() })

		if err := store.Initialize(now); err != nil {
			t.Fatalf("first Initialize() error = %v", err)
		}
		if err := store.Initialize(now.Add(time.Hour)); err != nil {
			t.Fatalf("second Initialize() error = %v", err)
		}
	})
}

func TestBackupTo(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store, err := NewSQLiteStore(filepath.Join(dir, "ledger.db"), DefaultBusyTimeout)
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })

	if err := store.Initialize(time.Now()); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	if err := store.InsertCapture(testCapture("c1")); err != nil {
		t.Fatalf("InsertCapture() error = %v", err)
	}

	dest := filepath.Join(dir, "snapshot.db")
	if err := store.BackupTo(dest); err != nil {
		t.Fatalf("BackupTo() error = %v", err)
	}

	snap, err := NewSQLiteStore(dest, DefaultBusyTimeout)
	if err != nil {
		t.Fatalf("opening snapshot: %v", err)
	}
	t.Cleanup(func() { snap.Close() })

	got, err := snap.GetCapture("c1")
	if err != nil {
		t.Fatalf("GetCapture() on snapshot error = %v", err)
	}
	if got == nil {
		t.Error("snapshot is missing capture c1")
	}
}
