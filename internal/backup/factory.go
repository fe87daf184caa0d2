package backup

import (
	"fmt"

	"inlet/internal/config"
)

// NewTargetFromConfig creates a backup Target based on the config type.
func NewTargetFromConfig(cfg config.BackupConfig) (Target, error) {
	switch cfg.Type {
	case "filesystem":
		if cfg.Dir == "" {
			return nil, fmt.Errorf("dir required for filesystem backup target")
		}
		return NewFileSystemTarget(cfg.Dir)
	case "s3":
		return NewS3Target(cfg)
	default:
		return nil, fmt.Errorf("unknown backup target type: %s", cfg.Type)
	}
}
