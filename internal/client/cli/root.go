// Package cli implements the opsync client commands.
package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/iudanet/opsync/internal/buildinfo"
	"github.com/iudanet/opsync/internal/client/storage/boltdb"
	"github.com/iudanet/opsync/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Build      buildinfo.Info
	ConfigPath string
	LogLevel   string
	DBPath     string
	ServerURL  string
	// Config итоговая конфигурация: defaults, файл, env, затем флаги
	Config config.Config
}

// NewRootCommand creates the root command of the client.
func NewRootCommand(build buildinfo.Info) *cobra.Command {
	opts := &RootOptions{Build: build}

	cmd := &cobra.Command{
		Use:   "opsync",
		Short: "Offline-first entity sync client",
		Long: `opsync keeps a local replica of server-owned entities, applies changes
optimistically and replays them after the connection comes back.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load(cmd)
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "path to YAML config file")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "log level (debug|info|warn|error)")
	cmd.PersistentFlags().StringVar(&opts.DBPath, "db", "", "path to local database")
	cmd.PersistentFlags().StringVar(&opts.ServerURL, "server", "", "WebSocket URL of the sync server")

	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewProfileCommand(opts))
	cmd.AddCommand(NewQueueCommand(opts))
	cmd.AddCommand(NewHealthCommand(opts))
	cmd.AddCommand(NewVersionCommand(opts))

	return cmd
}

// load resolves the configuration. Flags set on the command line win.
func (o *RootOptions) load(cmd *cobra.Command) error {
	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.LogLevel = o.LogLevel
	}
	if flags.Changed("db") {
		cfg.Client.DBPath = o.DBPath
	}
	if flags.Changed("server") {
		cfg.Client.ServerURL = o.ServerURL
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	o.Config = cfg
	return nil
}

func (o *RootOptions) logger(cmd *cobra.Command) *slog.Logger {
	return o.Config.NewLogger(cmd.ErrOrStderr())
}

// withStorage opens the local database for the duration of fn.
func (o *RootOptions) withStorage(ctx context.Context, logger *slog.Logger, fn func(*boltdb.Storage) error) error {
	store, err := boltdb.New(ctx, o.Config.Client.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open database %s: %w", o.Config.Client.DBPath, err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("Failed to close database", "error", err)
		}
	}()
	return fn(store)
}
