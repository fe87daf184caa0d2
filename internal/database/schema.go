package database

// Schema is the flattened form of all migrations, kept for tests that
// apply the schema in one shot without the migration machinery.
// Regenerate with 'go generate ./internal/database' after editing
// migration files.
const Schema = `
CREATE TABLE captures (
    id TEXT PRIMARY KEY,
    source TEXT NOT NULL CHECK (source IN ('voice', 'email')),
    raw_content TEXT NOT NULL DEFAULT '',
    content_hash TEXT,
    status TEXT NOT NULL DEFAULT 'staged' CHECK (status IN (
        'staged',
        'transcribed',
        'failed_transcription',
        'exported',
        'exported_duplicate',
        'exported_placeholder'
    )),
    channel TEXT NOT NULL,
    channel_native_id TEXT NOT NULL,
    meta_json TEXT NOT NULL DEFAULT '{}',
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE UNIQUE INDEX idx_captures_content_hash
    ON captures (content_hash) WHERE content_hash IS NOT NULL;

CREATE UNIQUE INDEX idx_captures_channel_native
    ON captures (channel, channel_native_id);

CREATE INDEX idx_captures_status ON captures (status);
CREATE INDEX idx_captures_created_at ON captures (created_at);

CREATE TABLE export_audits (
    id TEXT PRIMARY KEY,
    capture_id TEXT NOT NULL REFERENCES captures (id) ON DELETE CASCADE,
    vault_path TEXT NOT NULL,
    hash_at_export TEXT,
    mode TEXT NOT NULL CHECK (mode IN ('initial', 'duplicate_skip', 'placeholder')),
    error_flag INTEGER NOT NULL DEFAULT 0 CHECK (error_flag IN (0, 1)),
    exported_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX idx_export_audits_capture_id ON export_audits (capture_id);

CREATE TABLE error_logs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    capture_id TEXT REFERENCES captures (id) ON DELETE SET NULL,
    stage TEXT NOT NULL CHECK (stage IN ('poll', 'transcribe', 'export', 'backup', 'integrity')),
    message TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX idx_error_logs_created_at ON error_logs (created_at);

CREATE TABLE sync_state (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`
