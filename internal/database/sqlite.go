package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"inlet/internal/database/migrations"
	"inlet/internal/ledger"
	"inlet/internal/model"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// DefaultBusyTimeout is the lock-wait timeout applied when the config
// does not override it. A writer hitting a transient lock retries
// internally for up to this long before failing.
const DefaultBusyTimeout = 5000 * time.Millisecond

// SQLiteStore implements the ledger.Store interface using SQLite.
type SQLiteStore struct {
	db   *sql.DB
	path string

	// afterAuditInsert runs inside the RecordExport transaction, between
	// the audit insert and the status update. Nil outside tests; fault
	// injection for atomicity tests sets it.
	afterAuditInsert func() error
}

// NewSQLiteStore creates a new SQLite-backed ledger store.
// path can be a file path or ":memory:" for an in-memory database.
func NewSQLiteStore(path string, busyTimeout time.Duration) (*SQLiteStore, error) {
	db, err := OpenConnection(path, busyTimeout)
	if err != nil {
		return nil, err
	}
	return &SQLiteStore{db: db, path: path}, nil
}

// NewSQLiteStoreFromDB wraps an existing database connection.
// The caller is responsible for ensuring the connection is properly configured.
func NewSQLiteStoreFromDB(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db, path: ""}
}

// OpenConnection opens and configures a SQLite connection with the
// durability pragmas the ledger contract requires: WAL journaling for
// crash-safety with concurrent readers, NORMAL synchronous level as the
// chosen safety/latency trade-off, foreign key enforcement, a lock-wait
// timeout, and a bounded WAL autocheckpoint threshold.
//
// The pool is capped at a single connection: the ledger is a
// single-process, single-writer store, and one connection keeps
// ":memory:" databases coherent across calls.
func OpenConnection(path string, busyTimeout time.Duration) (*sql.DB, error) {
	if busyTimeout <= 0 {
		busyTimeout = DefaultBusyTimeout
	}

	dsn := fmt.Sprintf("%s?_loc=UTC", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, p := range PragmaContract(busyTimeout) {
		if _, err := db.Exec(p.Statement()); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma %s: %w", p.Name, err)
		}
	}

	return db, nil
}

// Capture operations

func (s *SQLiteStore) InsertCapture(c *model.Capture) error {
	_, err := s.db.ExecContext(context.Background(), `
		INSERT INTO captures (id, source, raw_content, content_hash, status,
			channel, channel_native_id, meta_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Source, c.RawContent, c.ContentHash, c.Status,
		c.Channel, c.ChannelNativeID, c.MetaJSON,
		c.CreatedAt.UTC(), c.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("inserting capture: %w", err)
	}
	return nil
}

const captureColumns = `id, source, raw_content, content_hash, status,
	channel, channel_native_id, meta_json, created_at, updated_at`

func scanCapture(row *sql.Row) (*model.Capture, error) {
	var c model.Capture
	err := row.Scan(&c.ID, &c.Source, &c.RawContent, &c.ContentHash, &c.Status,
		&c.Channel, &c.ChannelNativeID, &c.MetaJSON, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, err
	}
	return &c, nil
}

func (s *SQLiteStore) GetCapture(id string) (*model.Capture, error) {
	row := s.db.QueryRowContext(context.Background(),
		`SELECT `+captureColumns+` FROM captures WHERE id = ?`, id)
	c, err := scanCapture(row)
	if err != nil {
		return nil, fmt.Errorf("finding capture by id: %w", err)
	}
	return c, nil
}

func (s *SQLiteStore) FindCaptureByNativeID(channel, nativeID string) (*model.Capture, error) {
	row := s.db.QueryRowContext(context.Background(),
		`SELECT `+captureColumns+` FROM captures WHERE channel = ? AND channel_native_id = ?`,
		channel, nativeID)
	c, err := scanCapture(row)
	if err != nil {
		return nil, fmt.Errorf("finding capture by native id: %w", err)
	}
	return c, nil
}

func (s *SQLiteStore) SetCaptureContent(id, rawContent, contentHash string, updatedAt time.Time) error {
	hash := sql.NullString{}
	if contentHash != "" {
		hash = sql.NullString{String: contentHash, Valid: true}
	}
	res, err := s.db.ExecContext(context.Background(), `
		UPDATE captures SET raw_content = ?, content_hash = ?, updated_at = ?
		WHERE id = ?`,
		rawContent, hash, updatedAt.UTC(), id)
	if err != nil {
		return fmt.Errorf("updating capture content: %w", err)
	}
	return requireOneRow(res, id)
}

func (s *SQLiteStore) UpdateCaptureStatus(id string, status ledger.Status, updatedAt time.Time) error {
	res, err := s.db.ExecContext(context.Background(), `
		UPDATE captures SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), updatedAt.UTC(), id)
	if err != nil {
		return fmt.Errorf("updating capture status: %w", err)
	}
	return requireOneRow(res, id)
}

// requireOneRow maps a zero-row UPDATE to ErrCaptureNotFound.
func requireOneRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("capture %s: %w", id, ledger.ErrCaptureNotFound)
	}
	return nil
}

// FindEarliestExportedByHash returns the earliest capture with the
// given content hash that has actually been committed to the vault.
// In-flight staged rows with a matching hash do not count.
func (s *SQLiteStore) FindEarliestExportedByHash(hash string) (*ledger.DuplicateMatch, error) {
	row := s.db.QueryRowContext(context.Background(), `
		SELECT c.id,
		       COALESCE((SELECT a.vault_path FROM export_audits a
		                 WHERE a.capture_id = c.id
		                 ORDER BY a.exported_at ASC LIMIT 1), '')
		FROM captures c
		WHERE c.content_hash = ?
		  AND c.status IN ('exported', 'exported_duplicate')
		ORDER BY c.created_at ASC, c.id ASC
		LIMIT 1`, hash)

	var match ledger.DuplicateMatch
	err := row.Scan(&match.CaptureID, &match.VaultPath)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("finding exported capture by hash: %w", err)
	}
	match.IsDuplicate = true
	return &match, nil
}

// RecordExport atomically records one export decision:
//  1. Load the capture's current status (inside the transaction, so the
//     check cannot race a concurrent writer).
//  2. Validate the transition through ledger.AssertTransition.
//  3. Insert the export audit row.
//  4. Move the capture to the target status and bump updated_at.
//
// Either all effects land or none do.
func (s *SQLiteStore) RecordExport(audit model.ExportAudit, target ledger.Status) error {
	ctx := context.Background()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	var current string
	err = tx.QueryRowContext(ctx, `SELECT status FROM captures WHERE id = ?`, audit.CaptureID).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("capture %s: %w", audit.CaptureID, ledger.ErrCaptureNotFound)
	}
	if err != nil {
		return fmt.Errorf("loading capture status: %w", err)
	}

	if err := ledger.AssertTransition(ledger.Status(current), target); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO export_audits (id, capture_id, vault_path, hash_at_export, mode, error_flag, exported_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		audit.ID, audit.CaptureID, audit.VaultPath, audit.HashAtExport,
		audit.Mode, audit.ErrorFlag, audit.ExportedAt.UTC())
	if err != nil {
		return fmt.Errorf("inserting export audit: %w", err)
	}

	if s.afterAuditInsert != nil {
		if err := s.afterAuditInsert(); err != nil {
			return err
		}
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE captures SET status = ?, updated_at = ? WHERE id = ?`,
		string(target), audit.ExportedAt.UTC(), audit.CaptureID)
	if err != nil {
		return fmt.Errorf("updating capture status: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Recovery

func (s *SQLiteStore) RecoverableCaptures() ([]ledger.RecoverableCapture, error) {
	rows, err := s.db.QueryContext(context.Background(), `
		SELECT id, status, created_at
		FROM captures
		WHERE status IN ('staged', 'transcribed', 'failed_transcription')
		ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("querying recoverable captures: %w", err)
	}
	defer rows.Close()

	var pending []ledger.RecoverableCapture
	for rows.Next() {
		var rc ledger.RecoverableCapture
		var status string
		if err := rows.Scan(&rc.ID, &status, &rc.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning recoverable capture: %w", err)
		}
		rc.Status = ledger.Status(status)
		pending = append(pending, rc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading recoverable captures: %w", err)
	}
	return pending, nil
}

// Error log

func (s *SQLiteStore) InsertErrorLog(captureID *string, stage ledger.Stage, message string, createdAt time.Time) error {
	cid := sql.NullString{}
	if captureID != nil {
		cid = sql.NullString{String: *captureID, Valid: true}
	}
	_, err := s.db.ExecContext(context.Background(), `
		INSERT INTO error_logs (capture_id, stage, message, created_at)
		VALUES (?, ?, ?, ?)`,
		cid, string(stage), message, createdAt.UTC())
	if err != nil {
		return fmt.Errorf("inserting error log: %w", err)
	}
	return nil
}

// TrimErrorLog will prune old diagnostic entries once a retention
// policy is decided. Until then it reports zero rows deleted.
func (s *SQLiteStore) TrimErrorLog(before time.Time) (int64, error) {
	return 0, nil
}

// Sync state

func (s *SQLiteStore) GetSyncState(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(context.Background(),
		`SELECT value FROM sync_state WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading sync state: %w", err)
	}
	return value, true, nil
}

func (s *SQLiteStore) SetSyncState(key, value string, updatedAt time.Time) error {
	_, err := s.db.ExecContext(context.Background(), `
		INSERT INTO sync_state (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, updatedAt.UTC())
	if err != nil {
		return fmt.Errorf("upserting sync state: %w", err)
	}
	return nil
}

// Aggregates

func (s *SQLiteStore) CountCapturesByStatus() (map[ledger.Status]int64, error) {
	rows, err := s.db.QueryContext(context.Background(),
		`SELECT status, COUNT(*) FROM captures GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("counting captures: %w", err)
	}
	defer rows.Close()

	counts := make(map[ledger.Status]int64)
	for rows.Next() {
		var status string
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scanning capture count: %w", err)
		}
		counts[ledger.Status(status)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading capture counts: %w", err)
	}
	return counts, nil
}

func (s *SQLiteStore) CountErrorsSince(since time.Time) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(context.Background(),
		`SELECT COUNT(*) FROM error_logs WHERE created_at >= ?`, since.UTC()).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting error logs: %w", err)
	}
	return n, nil
}

// Path returns the database file path (or ":memory:" for in-memory databases).
func (s *SQLiteStore) Path() string {
	return s.path
}

// DB exposes the underlying connection for read-only health tooling.
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

// CheckMigrations verifies the database schema is up-to-date.
func (s *SQLiteStore) CheckMigrations() error {
	return migrations.CheckDBMigrationStatus(s.db)
}

// BackupTo creates a complete copy of the database at destPath using VACUUM INTO.
func (s *SQLiteStore) BackupTo(destPath string) error {
	_, err := s.db.Exec("VACUUM INTO ?", destPath)
	if err != nil {
		return fmt.Errorf("backing up database: %w", err)
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

// Compile-time check that SQLiteStore implements ledger.Store
var _ ledger.Store = (*SQLiteStore)(nil)
