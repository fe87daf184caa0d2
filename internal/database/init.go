package database

import (
	"fmt"
	"strconv"
	"time"

	"inlet/internal/database/migrations"
)

// SchemaVersionKey is the sync_state key that mirrors the applied
// migration version, so external tooling can read it without linking
// the migration machinery.
const SchemaVersionKey = "schema_version"

// Initialize brings the schema to the latest version and records the
// version marker in sync_state. Safe to call on an already-initialized
// store.
func (s *SQLiteStore) Initialize(now time.Time) error {
	if err := migrations.MigrateUp(s.db); err != nil {
		return fmt.Errorf("migrating schema: %w", err)
	}

	version, err := migrations.LatestVersion()
	if err != nil {
		return fmt.Errorf("reading latest schema version: %w", err)
	}

	if err := s.SetSyncState(SchemaVersionKey, strconv.FormatUint(uint64(version), 10), now); err != nil {
		return fmt.Errorf("recording schema version: %w", err)
	}
	return nil
}
