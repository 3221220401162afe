// Package cli implements the kban command line: serving the board over
// HTTP and working with the stored board from a terminal.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/gmllt/kban/internal/config"
	"github.com/gmllt/kban/internal/logger"
	"github.com/gmllt/kban/internal/persist"
	"github.com/gmllt/kban/internal/storage"
)

var (
	Version = "dev"
	Commit  = "none"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
}

func NewRootCommand() *cobra.Command {
	flags := &globalFlags{}
	rootCmd := &cobra.Command{
		Use:   "kban",
		Short: "Kanban board server",
		Long: `kban serves a kanban board of lanes and cards over HTTP and keeps it
in durable storage (local file, Redis, S3 or SQLite).`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       fmt.Sprintf("%s (commit: %s)", Version, Commit),
	}
	rootCmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", config.DefaultPath, "path to the config file")

	rootCmd.AddCommand(newServeCommand(flags))
	rootCmd.AddCommand(newExportCommand(flags))
	rootCmd.AddCommand(newImportCommand(flags))
	rootCmd.AddCommand(newValidateCommand())
	rootCmd.AddCommand(newShowCommand(flags))
	return rootCmd
}

// Execute runs the root command and exits non-zero on error.
func Execute(rootCmd *cobra.Command) {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// env is what every command that touches the stored board needs.
type env struct {
	cfg    *config.Config
	log    *slog.Logger
	store  storage.Store
	bridge *persist.Bridge
}

// setup loads the config, installs the logger (writing to logOut) and opens
// the configured store.
func setup(ctx context.Context, flags *globalFlags, logOut io.Writer) (*env, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	log := logger.Setup(cfg.Log.Level, cfg.Log.Format, logOut)
	store, err := storage.Open(ctx, cfg.Storage, log)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s storage: %w", cfg.Storage.Backend, err)
	}
	bridge := persist.NewBridge(store, cfg.Storage.Key, cfg.Persistence.QuietPeriod, log)
	return &env{cfg: cfg, log: log, store: store, bridge: bridge}, nil
}

func (e *env) Close() error {
	return e.store.Close()
}
