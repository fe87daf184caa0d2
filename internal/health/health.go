// Package health implements read-only diagnostics over the staging
// ledger: schema version verification, pragma contract verification,
// and capture/error aggregates. Nothing here mutates the store, so
// checks can run alongside an active writer.
package health

import (
	"fmt"
	"time"

	"inlet/internal/database"
	"inlet/internal/ledger"
)

// Report is the result of a full health check.
type Report struct {
	SchemaOK     bool
	SchemaDetail string // mismatch description when SchemaOK is false

	PragmasOK        bool
	PragmaMismatches []database.PragmaMismatch

	StatusCounts     map[ledger.Status]int64
	PendingCount     int64 // captures awaiting recovery/processing
	ExportedCount    int64 // all terminal captures
	PlaceholderRatio float64
	RecentErrors     int64
}

// Check runs every diagnostic against the store. busyTimeout is the
// configured lock-wait timeout the pragma contract is verified against;
// errorWindow bounds the recent-error count.
func Check(store *database.SQLiteStore, busyTimeout time.Duration, errorWindow time.Duration, now time.Time) (*Report, error) {
	r := &Report{SchemaOK: true, PragmasOK: true}

	if err := store.CheckMigrations(); err != nil {
		r.SchemaOK = false
		r.SchemaDetail = err.Error()
	}

	mismatches, err := database.VerifyPragmas(store.DB(), busyTimeout)
	if err != nil {
		return nil, fmt.Errorf("verifying pragmas: %w", err)
	}
	if len(mismatches) > 0 {
		r.PragmasOK = false
		r.PragmaMismatches = mismatches
	}

	counts, err := store.CountCapturesByStatus()
	if err != nil {
		return nil, fmt.Errorf("counting captures: %w", err)
	}
	r.StatusCounts = counts

	for status, n := range counts {
		if ledger.IsTerminal(status) {
			r.ExportedCount += n
		} else {
			r.PendingCount += n
		}
	}
	if r.ExportedCount > 0 {
		r.PlaceholderRatio = float64(counts[ledger.StatusExportedPlaceholder]) / float64(r.ExportedCount)
	}

	errs, err := store.CountErrorsSince(now.Add(-errorWindow))
	if err != nil {
		return nil, fmt.Errorf("counting recent errors: %w", err)
	}
	r.RecentErrors = errs

	return r, nil
}

// Healthy reports whether the ledger passed schema and pragma checks.
func (r *Report) Healthy() bool {
	return r.SchemaOK && r.PragmasOK
}
