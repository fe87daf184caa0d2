package main

import (
	"fmt"
	"io"
	"os"
	"syscall"

	"inlet/internal/app"
	"inlet/internal/config"
	"inlet/internal/ledger"
	"inlet/internal/pipeline"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newApp reads the config and creates an App. The caller must defer app.Close().
// operation identifies the CLI command being run (e.g. "Ingest", "Process").
func newApp(operation string) (*app.App, error) {
	cfg, err := readConfig()
	if err != nil {
		return nil, err
	}

	a, err := app.NewApp(cfg, operation)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}
	return a, nil
}

func readConfig() (*config.Config, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return cfg, nil
}

var rootCmd = &cobra.Command{
	Use:   "inlet",
	Short: "Personal capture pipeline: voice memos and email into your note vault",
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		hostID := uuid.New().String()
		cfg := config.NewConfig(hostID, defaults["base_dir"])

		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Host ID: %s\n", hostID)
		fmt.Printf("Base Dir: %s\n", defaults["base_dir"])
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults["config_path"])
		fmt.Printf("Host ID:     %s\n", cfg.HostID)
		fmt.Printf("Base Dir:    %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:     %s\n", cfg.LogDir)
		fmt.Printf("Metrics Dir: %s\n", cfg.MetricsDir)
		fmt.Printf("Vault Root:  %s\n", cfg.Vault.Root)
		return nil
	},
}

// init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create or migrate the staging ledger database",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := readConfig()
		if err != nil {
			return err
		}

		if err := app.InitStore(cfg); err != nil {
			return err
		}

		fmt.Println("Staging ledger initialized.")
		return nil
	},
}

// ingest command
var ingestCmd = &cobra.Command{
	Use:   "ingest [FILE]",
	Short: "Stage one captured item (reads stdin when FILE is omitted)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		source, _ := cmd.Flags().GetString("source")
		channel, _ := cmd.Flags().GetString("channel")
		nativeID, _ := cmd.Flags().GetString("native-id")

		if source != string(ledger.SourceVoice) && source != string(ledger.SourceEmail) {
			return fmt.Errorf("--source must be voice or email")
		}
		if channel == "" {
			return fmt.Errorf("--channel is required")
		}

		content, meta, err := readIngestInput(args)
		if err != nil {
			return err
		}
		if nativeID == "" {
			// Without a source-native id, fall back to the content digest
			// so re-running the same command stays idempotent.
			nativeID = pipeline.HashContent(string(content))
		}

		a, err := newApp("Ingest")
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := a.Ingest(ledger.Source(source), channel, nativeID, content, meta)
		if err != nil {
			return fmt.Errorf("ingesting: %w", err)
		}

		if res.Created {
			fmt.Printf("Staged capture %s\n", res.CaptureID)
		} else {
			fmt.Printf("Already staged as capture %s (source-native duplicate)\n", res.CaptureID)
		}
		return nil
	},
}

func readIngestInput(args []string) ([]byte, map[string]string, error) {
	if len(args) == 0 || args[0] == "-" {
		content, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, nil, fmt.Errorf("reading stdin: %w", err)
		}
		return content, nil, nil
	}

	content, err := os.ReadFile(args[0])
	if err != nil {
		return nil, nil, fmt.Errorf("reading %s: %w", args[0], err)
	}
	return content, map[string]string{"filename": args[0]}, nil
}

// process command
var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Resume and export all pending captures",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Process")
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := a.Process()
		if err != nil {
			return fmt.Errorf("processing: %w", err)
		}

		fmt.Printf("Processed %d capture(s): %d exported, %d duplicates, %d placeholders, %d failed\n",
			res.Processed, res.Exported, res.Duplicates, res.Placeholders, res.Failed)
		return nil
	},
}

// status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "List pending (non-terminal) captures in resumption order",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Status")
		if err != nil {
			return err
		}
		defer a.Close()

		pending, err := a.Recoverable()
		if err != nil {
			return err
		}

		if len(pending) == 0 {
			fmt.Println("No pending captures.")
			return nil
		}

		for _, rc := range pending {
			fmt.Printf("%s  %-22s %s\n",
				rc.CreatedAt.UTC().Format("2006-01-02 15:04:05"), rc.Status, rc.ID)
		}
		return nil
	},
}

// doctor command
var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Verify ledger schema, pragmas, and aggregates",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Doctor")
		if err != nil {
			return err
		}
		defer a.Close()

		report, err := a.Doctor()
		if err != nil {
			return err
		}

		if report.SchemaOK {
			fmt.Println("schema:   ok")
		} else {
			fmt.Printf("schema:   MISMATCH (%s)\n", report.SchemaDetail)
		}

		if report.PragmasOK {
			fmt.Println("pragmas:  ok")
		} else {
			for _, m := range report.PragmaMismatches {
				fmt.Printf("pragmas:  MISMATCH %s\n", m)
			}
		}

		fmt.Printf("pending:  %d\n", report.PendingCount)
		fmt.Printf("exported: %d (placeholder ratio %.2f)\n", report.ExportedCount, report.PlaceholderRatio)
		fmt.Printf("errors:   %d in the last 24h\n", report.RecentErrors)

		if !report.Healthy() {
			return fmt.Errorf("ledger health check failed")
		}
		return nil
	},
}

// backup command
var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Snapshot the ledger database to the backup target",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Backup")
		if err != nil {
			return err
		}
		defer a.Close()

		name, err := a.Backup()
		if err != nil {
			return fmt.Errorf("backup failed: %w", err)
		}

		fmt.Printf("Backed up ledger as %s\n", name)
		return nil
	},
}

var backupSetupKeysCmd = &cobra.Command{
	Use:   "setup-keys",
	Short: "Generate the age key pair for encrypted backups",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("SetupBackupKeys")
		if err != nil {
			return err
		}
		defer a.Close()

		passphrase, err := readPassphrase()
		if err != nil {
			return err
		}

		if err := a.SetupBackupKeys(passphrase); err != nil {
			return fmt.Errorf("generating keys: %w", err)
		}

		fmt.Println("Backup keys generated.")
		return nil
	},
}

// readPassphrase prompts twice without echo and verifies both entries match.
func readPassphrase() (string, error) {
	fmt.Fprint(os.Stderr, "Passphrase: ")
	first, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading passphrase: %w", err)
	}

	fmt.Fprint(os.Stderr, "Confirm passphrase: ")
	second, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading passphrase: %w", err)
	}

	if string(first) != string(second) {
		return "", fmt.Errorf("passphrases do not match")
	}
	if len(first) == 0 {
		return "", fmt.Errorf("passphrase must not be empty")
	}
	return string(first), nil
}

func init() {
	ingestCmd.Flags().String("source", "", "capture source: voice or email")
	ingestCmd.Flags().String("channel", "", "source channel, e.g. icloud_voice or imap")
	ingestCmd.Flags().String("native-id", "", "source-native item id (defaults to content digest)")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)
	backupCmd.AddCommand(backupSetupKeysCmd)

	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(processCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(backupCmd)
}
