package backup

import (
	"fmt"
	"os"

	"inlet/internal/ledger"
)

// LastBackupKey is the sync_state cursor recording the most recent
// successful backup time.
const LastBackupKey = "last_backup_at"

// Runner snapshots the ledger and ships the snapshot to the target.
type Runner struct {
	store     ledger.Store
	target    Target
	encryptor Encryptor // nil when encryption is disabled
	errlog    *ledger.Service
	logger    ledger.Logger
	clock     ledger.Clock
}

// NewRunner creates a backup runner. encryptor may be nil to ship
// snapshots unencrypted; errlog receives backup-stage error entries.
func NewRunner(store ledger.Store, target Target, encryptor Encryptor, errlog *ledger.Service, logger ledger.Logger, clock ledger.Clock) *Runner {
	return &Runner{
		store:     store,
		target:    target,
		encryptor: encryptor,
		errlog:    errlog,
		logger:    logger,
		clock:     clock,
	}
}

// Run takes a consistent snapshot, optionally encrypts it, uploads it,
// and records the backup cursor. Returns the stored snapshot name.
// Failures are recorded as system-level backup errors before returning.
func (r *Runner) Run() (string, error) {
	name, err := r.run()
	if err != nil {
		r.errlog.LogError(nil, ledger.StageBackup, err.Error())
		return "", err
	}
	return name, nil
}

func (r *Runner) run() (string, error) {
	now := r.clock.Now().UTC()
	name := "ledger-" + now.Format("20060102T150405Z") + ".db"

	tmp, err := os.CreateTemp("", "inlet-backup-*.db")
	if err != nil {
		return "", fmt.Errorf("creating temp snapshot: %w", err)
	}
	tmpPath := tmp.Name()
	tmp.Close()
	os.Remove(tmpPath) // VACUUM INTO refuses to overwrite an existing file
	defer os.Remove(tmpPath)

	if err := r.store.BackupTo(tmpPath); err != nil {
		return "", fmt.Errorf("snapshotting ledger: %w", err)
	}

	uploadPath := tmpPath
	if r.encryptor != nil {
		name += ".age"
		encPath := tmpPath + ".age"
		if err := r.encryptSnapshot(tmpPath, encPath); err != nil {
			return "", err
		}
		defer os.Remove(encPath)
		uploadPath = encPath
	}

	f, err := os.Open(uploadPath)
	if err != nil {
		return "", fmt.Errorf("opening snapshot for upload: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("stat snapshot: %w", err)
	}

	if err := r.target.Put(name, f, info.Size()); err != nil {
		return "", fmt.Errorf("storing snapshot: %w", err)
	}

	if err := r.store.SetSyncState(LastBackupKey, now.Format("2006-01-02T15:04:05Z"), now); err != nil {
		return "", fmt.Errorf("recording backup cursor: %w", err)
	}

	r.logger.Info("ledger backed up", "name", name, "bytes", info.Size())
	return name, nil
}

func (r *Runner) encryptSnapshot(srcPath, destPath string) error {
	src, err := os.Open(srcPath)
	if err != nil {
		return fmt.Errorf("opening snapshot for encryption: %w", err)
	}
	defer src.Close()

	dest, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("creating encrypted snapshot: %w", err)
	}
	defer dest.Close()

	if err := r.encryptor.Encrypt(src, dest); err != nil {
		return fmt.Errorf("encrypting snapshot: %w", err)
	}
	return nil
}
