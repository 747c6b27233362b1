// Package root contains the root command for the application
package root

import (
	"context"
	"fmt"

	"fjacquet/expense-import/internal/config"
	"fjacquet/expense-import/internal/container"
	"fjacquet/expense-import/internal/logging"
	"fjacquet/expense-import/internal/models"

	"github.com/spf13/cobra"
)

// GlobalFlags represents the flags shared by every command
type GlobalFlags struct {
	ConfigFile string
	Owner      int64
	Database   string
	LogLevel   string
	LogFormat  string
}

var (
	// Cmd is the root command
	Cmd = &cobra.Command{
		Use:   "expense-import",
		Short: "A CLI tool to import bank statement CSV files and categorize expenses.",
		Long: `expense-import reads bank statement CSV exports of any layout, previews
the rows it found, and categorizes each transaction through transfer
detection, learned rules, keyword tables and an optional AI fallback.
Corrections made while importing are learned as rules for the next import.`,
		SilenceUsage:      true,
		Run:               func(cmd *cobra.Command, args []string) { _ = cmd.Help() },
		PersistentPreRunE: setup,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if appContainer == nil {
				return
			}
			if err := appContainer.Close(); err != nil {
				appContainer.GetLogger().WithError(err).Warn("Failed to close resources")
			}
			appContainer = nil
		},
	}

	// Flags holds the parsed persistent flags
	Flags = GlobalFlags{}

	appContainer *container.Container
)

func init() {
	Cmd.PersistentFlags().StringVarP(&Flags.ConfigFile, "config", "c", "", "Config file (default: $HOME/.expense-import/config.yaml)")
	Cmd.PersistentFlags().Int64VarP(&Flags.Owner, "owner", "u", 1, "Owner whose categories, rules and transactions are used")
	Cmd.PersistentFlags().StringVar(&Flags.Database, "db", "", "SQLite database path (overrides storage.path)")
	Cmd.PersistentFlags().StringVar(&Flags.LogLevel, "log-level", "", "Log level: trace, debug, info, warn, error")
	Cmd.PersistentFlags().StringVar(&Flags.LogFormat, "log-format", "", "Log format: text or json")
}

func setup(cmd *cobra.Command, args []string) error {
	if Flags.Owner <= 0 {
		return fmt.Errorf("owner must be positive, got %d", Flags.Owner)
	}

	config.LoadEnv(logging.Discard())
	cfg, err := config.Load(Flags.ConfigFile)
	if err != nil {
		return err
	}
	applyFlagOverrides(cfg, Flags)

	c, err := container.NewContainer(Context(cmd), cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	if err := c.EnsureOwner(Context(cmd), Owner()); err != nil {
		_ = c.Close()
		return fmt.Errorf("failed to seed categories: %w", err)
	}
	appContainer = c
	return nil
}

func applyFlagOverrides(cfg *config.Config, flags GlobalFlags) {
	if flags.Database != "" {
		cfg.Storage.Driver = config.StorageSQLite
		cfg.Storage.Path = flags.Database
	}
	if flags.LogLevel != "" {
		cfg.Log.Level = flags.LogLevel
	}
	if flags.LogFormat != "" {
		cfg.Log.Format = flags.LogFormat
	}
}

// GetContainer returns the container built for the running command.
func GetContainer() *container.Container {
	return appContainer
}

// Owner returns the owner selected with --owner.
func Owner() models.OwnerID {
	return models.OwnerID(Flags.Owner)
}

// Context returns the command's context, or a background context when the
// command was executed without one.
func Context(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
