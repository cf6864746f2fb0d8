package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/zaynchat/zaynchat-cli/internal"
)

var (
	verbose     bool
	storagePath string
	endpoint    string
	timeoutSecs int
	version     string = "dev"
	commit      string = "unknown"
	date        string = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "zaynchat",
	Short: "Chat with the zaynchat assistant from your terminal",
	Long: `A terminal client for the zaynchat assistant.

Conversations and messages are stored locally in a small SQLite database;
nothing but your prompts ever leaves the machine. Each account on the same
machine keeps its own isolated history.

Quick Start:
  zaynchat login --email you@example.com   # Start a session
  zaynchat chat                            # Interactive chat
  zaynchat list                            # List your conversations
  zaynchat show <conversation-id>          # Review a conversation
  zaynchat export <conversation-id> --format md`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		internal.SetVerbose(verbose)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&storagePath, "storage", "", "Custom storage location (path to the local database file)")
	rootCmd.PersistentFlags().StringVar(&endpoint, "endpoint", "", "Override the response endpoint URL")
	rootCmd.PersistentFlags().IntVar(&timeoutSecs, "timeout", -1, "Request timeout in seconds (0 disables the timeout)")

	// Set version template to ensure --version flag works
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}

// loadConfig merges the config file with command-line overrides.
func loadConfig() (internal.Config, error) {
	configPath, err := internal.ConfigPath()
	if err != nil {
		return internal.DefaultConfig(), err
	}

	cfg, err := internal.LoadConfig(configPath)
	if err != nil {
		return cfg, err
	}

	if storagePath != "" {
		cfg.StoragePath = storagePath
	}
	if endpoint != "" {
		cfg.Endpoint = endpoint
	}
	if timeoutSecs >= 0 {
		cfg.TimeoutSeconds = timeoutSecs
	}

	if cfg.StoragePath == "" {
		cfg.StoragePath, err = internal.DefaultStorePath()
		if err != nil {
			return cfg, err
		}
	}

	return cfg, nil
}

// openStore opens the local store per the effective config.
func openStore() (*internal.KVStore, internal.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, cfg, err
	}

	store, err := internal.OpenStore(cfg.StoragePath)
	if err != nil {
		return nil, cfg, fmt.Errorf("failed to open local storage: %w", err)
	}

	return store, cfg, nil
}

// requireUser returns the logged-in user or an actionable error. No session
// means no access to any conversation state.
func requireUser(store internal.Store) (*internal.User, error) {
	user, err := internal.NewAuth(store).CurrentUser()
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("not logged in (run `zaynchat login` first)")
	}
	return user, nil
}

func newClient(cfg internal.Config) *internal.ResponseClient {
	return internal.NewResponseClient(cfg.Endpoint, time.Duration(cfg.TimeoutSeconds)*time.Second)
}
