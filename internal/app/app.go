package app

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"inlet/internal/backup"
	"inlet/internal/config"
	"inlet/internal/database"
	"inlet/internal/encryption"
	"inlet/internal/health"
	"inlet/internal/ledger"
	"inlet/internal/metrics"
	"inlet/internal/pipeline"
	"inlet/internal/vault"
)

// App is the application layer between the CLI and the ledger service.
// It constructs all dependencies from config, exposes the high-level
// operations the commands need, and manages lifecycles on Close.
type App struct {
	cfg     *config.Config
	store   *database.SQLiteStore
	svc     *ledger.Service
	vault   ledger.VaultWriter
	pipe    *pipeline.Pipeline
	sink    *metrics.Sink
	logger  ledger.Logger
	clock   ledger.Clock
	logFile *os.File
}

// NewApp creates a fully wired App from the given config. operation
// identifies the CLI command being run (e.g. "Ingest", "Process").
// The caller must call Close when done.
func NewApp(cfg *config.Config, operation string) (*App, error) {
	store, err := database.NewStoreFromConfig(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("creating database: %w", err)
	}

	if err := store.CheckMigrations(); err != nil {
		store.Close()
		return nil, fmt.Errorf("ledger schema out of date (run 'inlet init'): %w", err)
	}

	v, err := vault.NewVaultFromConfig(cfg.Vault)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("creating vault writer: %w", err)
	}

	opID := time.Now().UTC().Format("20060102T150405Z")
	slogger, logFile, err := newLogger(cfg.LogDir, opID)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	logger := &slogAdapter{l: slogger}

	clock := ledger.RealClock{}
	sink := metrics.NewSink(cfg.MetricsDir, clock)
	if err := sink.Start(); err != nil {
		logFile.Close()
		store.Close()
		return nil, fmt.Errorf("starting metrics sink: %w", err)
	}

	svc := ledger.NewService(store, logger, clock, ledger.UUIDv7Generator{}, sink)
	pipe := pipeline.New(svc, store, v, pipeline.PassthroughTranscriber{}, logger)

	return &App{
		cfg:     cfg,
		store:   store,
		svc:     svc,
		vault:   v,
		pipe:    pipe,
		sink:    sink,
		logger:  logger,
		clock:   clock,
		logFile: logFile,
	}, nil
}

// InitStore opens (or creates) the ledger database and brings its
// schema to the latest version. Used by 'inlet init'; every other
// command refuses to run against an out-of-date schema.
func InitStore(cfg *config.Config) error {
	store, err := database.NewStoreFromConfig(cfg.Database)
	if err != nil {
		return fmt.Errorf("creating database: %w", err)
	}
	defer store.Close()

	if err := store.Initialize(time.Now()); err != nil {
		return fmt.Errorf("initializing schema: %w", err)
	}
	return nil
}

// IngestResult reports what Ingest did with one item.
type IngestResult struct {
	CaptureID string
	Created   bool // false when the source-native key already existed
}

// Ingest stages one inbound item. Email content is normalized
// immediately (hash computed at ingestion); voice payloads stay
// unnormalized until the transcription pass.
func (a *App) Ingest(source ledger.Source, channel, nativeID string, content []byte, meta map[string]string) (*IngestResult, error) {
	req := ledger.IngestRequest{
		Source:          source,
		Channel:         channel,
		ChannelNativeID: nativeID,
		RawContent:      string(content),
	}

	if source == ledger.SourceEmail {
		req.ContentHash = pipeline.HashContent(string(content))
	}

	if len(meta) > 0 {
		metaJSON, err := json.Marshal(meta)
		if err != nil {
			return nil, fmt.Errorf("encoding metadata: %w", err)
		}
		req.MetaJSON = string(metaJSON)
	}

	c, created, err := a.svc.Ingest(req)
	if err != nil {
		a.svc.LogError(nil, ledger.StagePoll, err.Error())
		return nil, err
	}
	return &IngestResult{CaptureID: c.ID, Created: created}, nil
}

// Process resumes every recoverable capture through the export pipeline.
func (a *App) Process() (pipeline.Result, error) {
	return a.pipe.Run()
}

// Recoverable returns all non-terminal captures in resumption order.
func (a *App) Recoverable() ([]ledger.RecoverableCapture, error) {
	return a.svc.RecoverableCaptures()
}

// MarkTranscribed applies an externally produced transcript to a staged
// capture and transitions it.
func (a *App) MarkTranscribed(captureID, transcript string) error {
	hash := pipeline.HashContent(transcript)
	if err := a.svc.SetNormalizedContent(captureID, transcript, hash); err != nil {
		return err
	}
	return a.svc.MarkTranscribed(captureID)
}

// Doctor runs the full read-only health check.
func (a *App) Doctor() (*health.Report, error) {
	busyTimeout := time.Duration(a.cfg.Database.BusyTimeoutMS) * time.Millisecond
	if busyTimeout <= 0 {
		busyTimeout = database.DefaultBusyTimeout
	}
	return health.Check(a.store, busyTimeout, 24*time.Hour, a.clock.Now())
}

// Backup snapshots the ledger and ships it to the configured target.
// Returns the stored snapshot name.
func (a *App) Backup() (string, error) {
	target, err := backup.NewTargetFromConfig(a.cfg.Backup)
	if err != nil {
		return "", fmt.Errorf("creating backup target: %w", err)
	}

	var enc backup.Encryptor
	if a.cfg.Backup.Encrypt {
		e, err := encryption.NewEncryptorFromConfig(a.cfg.Encryption)
		if err != nil {
			return "", fmt.Errorf("creating encryptor: %w", err)
		}
		if !e.IsConfigured() {
			return "", fmt.Errorf("backup encryption enabled but keys are missing (run 'inlet backup setup-keys')")
		}
		enc = e
	}

	runner := backup.NewRunner(a.store, target, enc, a.svc, a.logger, a.clock)
	return runner.Run()
}

// SetupBackupKeys generates the age key pair used for encrypted backups.
func (a *App) SetupBackupKeys(passphrase string) error {
	enc, err := encryption.NewEncryptorFromConfig(a.cfg.Encryption)
	if err != nil {
		return fmt.Errorf("creating encryptor: %w", err)
	}
	return enc.Setup(passphrase)
}

// Close stops the metrics sink and releases all resources.
func (a *App) Close() error {
	a.sink.Stop()

	var firstErr error
	if err := a.store.Close(); err != nil {
		firstErr = fmt.Errorf("closing database: %w", err)
	}
	if a.logFile != nil {
		a.logFile.Close()
	}
	return firstErr
}
