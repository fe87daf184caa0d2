package database

import (
	"path/filepath"
	"testing"
	"time"
)

func TestOpenConnectionHonorsPragmaContract(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "ledger.db")
	db, err := OpenConnection(path, DefaultBusyTimeout)
	if err != nil {
		t.Fatalf("OpenConnection() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	mismatches, err := VerifyPragmas(db, DefaultBusyTimeout)
	if err != nil {
		t.Fatalf("VerifyPragmas() error = %v", err)
	}
	if len(mismatches) != 0 {
		t.Errorf("pragma mismatches on a fresh connection: %v", mismatches)
	}
}

func TestVerifyPragmasDetectsDrift(t *testing.T) {
	t.Parallel()

	db, err := OpenConnection(":memory:", DefaultBusyTimeout)
	if err != nil {
		t.Fatalf("OpenConnection() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, err := db.Exec("PRAGMA foreign_keys = OFF"); err != nil {
		t.Fatalf("disabling foreign_keys: %v", err)
	}

	mismatches, err := VerifyPragmas(db, DefaultBusyTimeout)
	if err != nil {
		t.Fatalf("VerifyPragmas() error = %v", err)
	}

	found := false
	for _, m := range mismatches {
		if m.Name == "foreign_keys" {
			found = true
		}
	}
	if !found {
		t.Errorf("mismatches = %v, want foreign_keys drift reported", mismatches)
	}
}

func TestCustomBusyTimeout(t *testing.T) {
	t.Parallel()

	db, err := OpenConnection(":memory:", 1500*time.Millisecond)
	if err != nil {
		t.Fatalf("OpenConnection() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	var got int
	if err := db.QueryRow("PRAGMA busy_timeout").Scan(&got); err != nil {
		t.Fatalf("reading busy_timeout: %v", err)
	}
	if got != 1500 {
		t.Errorf("busy_timeout = %d, want 1500", got)
	}
}
