package database

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"inlet/internal/config"
)

// NewStoreFromConfig creates a SQLiteStore based on the database config type.
func NewStoreFromConfig(cfg config.DatabaseConfig) (*SQLiteStore, error) {
	busyTimeout := time.Duration(cfg.BusyTimeoutMS) * time.Millisecond

	switch cfg.Type {
	case "sqlite":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("data_dir required for sqlite database")
		}
		if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		return NewSQLiteStore(filepath.Join(cfg.DataDir, "ledger.db"), busyTimeout)
	case "memory":
		return NewSQLiteStore(":memory:", busyTimeout)
	default:
		return nil, fmt.Errorf("unknown database type: %s", cfg.Type)
	}
}
