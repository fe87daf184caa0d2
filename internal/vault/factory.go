package vault

import (
	"fmt"

	"inlet/internal/config"
	"inlet/internal/ledger"
)

// NewVaultFromConfig creates a vault writer based on the vault config type.
func NewVaultFromConfig(cfg config.VaultConfig) (ledger.VaultWriter, error) {
	switch cfg.Type {
	case "filesystem":
		if cfg.Root == "" {
			return nil, fmt.Errorf("root required for filesystem vault")
		}
		return NewFileSystemVault(cfg.Root, cfg.Inbox)
	case "memory":
		return NewMemoryVault(), nil
	default:
		return nil, fmt.Errorf("unknown vault type: %s", cfg.Type)
	}
}
