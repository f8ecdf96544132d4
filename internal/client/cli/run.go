package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	gosync "sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/iudanet/opsync/internal/client/iocli"
	"github.com/iudanet/opsync/internal/client/profile"
	"github.com/iudanet/opsync/internal/client/reconnect"
	"github.com/iudanet/opsync/internal/client/signals"
	"github.com/iudanet/opsync/internal/client/storage/boltdb"
	"github.com/iudanet/opsync/internal/client/sync"
	"github.com/iudanet/opsync/internal/client/transport/wstransport"
	"github.com/iudanet/opsync/internal/clock"
	"github.com/iudanet/opsync/internal/models"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Resolver    string
	EntityTypes []string
}

// resolvers maps --resolver values to conflict policies.
var resolvers = map[string]sync.ConflictResolver{
	"remote": sync.RemoteWins,
	"local":  sync.LocalWins,
	"lww":    sync.LastWriteWins,
}

// NewRunCommand creates the run command: an interactive session connected
// to the sync server.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start an interactive sync session",
		Long: `Connect to the sync server, keep the configured entity types in sync and
read commands from standard input.

Example:
  opsync run --server ws://localhost:8080/ws --types cases,tasks`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSession(cmd, opts)
		},
	}

	cmd.Flags().StringSliceVar(&opts.EntityTypes, "types", nil, "entity types to sync (overrides config)")
	cmd.Flags().StringVar(&opts.Resolver, "resolver", "remote", "conflict policy for unconfirmed local changes (remote|local|lww)")

	return cmd
}

// session holds everything a running client owns.
type session struct {
	store      *boltdb.Storage
	transport  *wstransport.Client
	controller *reconnect.Controller
	engine     *sync.Engine
	probe      *signals.TCPProbe
	network    *signals.Network
	visibility *signals.Visibility
	activity   *signals.Activity
}

func runSession(cmd *cobra.Command, opts *RunOptions) error {
	logger := opts.logger(cmd)
	cfg := opts.Config
	types := cfg.Client.EntityTypes
	if len(opts.EntityTypes) > 0 {
		types = opts.EntityTypes
	}
	if len(types) == 0 {
		return fmt.Errorf("no entity types configured")
	}
	resolver, ok := resolvers[opts.Resolver]
	if !ok {
		return fmt.Errorf("unknown resolver %q", opts.Resolver)
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("Received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	console := iocli.New(cmd.InOrStdin(), cmd.OutOrStdout())

	s, err := openSession(ctx, opts.RootOptions, logger)
	if err != nil {
		return err
	}
	defer s.close(logger)

	for _, entityType := range types {
		if err := s.engine.InitializeEntity(ctx, entityType, nil, cfg.Client.SyncInterval); err != nil {
			return fmt.Errorf("failed to initialize %s: %w", entityType, err)
		}
		s.engine.SetConflictResolver(entityType, resolver)
		unsub := s.engine.SubscribeToEntity(entityType, func(op *models.SyncOperation) {
			console.Printf("\n<- %s %s %s (by %s)\n", op.Operation, op.Entity.Type, op.Entity.ID, op.Entity.ModifiedBy)
		})
		defer unsub()
	}

	if s.probe != nil {
		s.probe.Start()
	}
	s.controller.Start()

	logger.Info("Session started",
		"server_url", cfg.Client.ServerURL,
		"entity_types", types,
		"queued", s.engine.QueueLen())

	shell := NewShell(console, s.engine, s.controller).
		WithSignals(s.network, s.visibility, s.activity)

	done := make(chan error, 1)
	go func() {
		done <- shell.Run(ctx)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return nil
	}
}

// openSession wires storage, transport, signals, the controller and the engine.
func openSession(ctx context.Context, opts *RootOptions, logger *slog.Logger) (*session, error) {
	cfg := opts.Config
	clk := clock.New()

	store, err := boltdb.New(ctx, cfg.Client.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", cfg.Client.DBPath, err)
	}

	s := &session{
		store:      store,
		transport:  wstransport.New(cfg.Client.ServerURL, logger),
		visibility: signals.NewVisibility(true),
	}

	var network reconnect.NetworkSignal
	if cfg.Client.ProbeAddr != "" {
		s.probe = signals.NewTCPProbe(cfg.Client.ProbeAddr, cfg.Client.ProbeInterval, cfg.Client.ProbeInterval/2, clk, logger)
		network = s.probe
	} else {
		s.network = signals.NewNetwork(true)
		network = s.network
	}

	ctrlOpts := reconnect.Options{
		Clock:      clk,
		Network:    network,
		Visibility: s.visibility,
	}
	if cfg.Reconnect.InactivityTimeout > 0 {
		s.activity = signals.NewActivity(clk)
		ctrlOpts.Activity = s.activity
	}

	s.controller, err = reconnect.New(s.transport, cfg.Reconnect, logger, ctrlOpts)
	if err != nil {
		s.close(logger)
		return nil, fmt.Errorf("failed to create reconnect controller: %w", err)
	}
	s.controller.OnStateChange(logPhaseChanges(logger))

	s.engine, err = sync.New(ctx, s.transport, profile.NewService(store, logger), logger, sync.Options{
		Clock:         clk,
		Metadata:      store,
		Queue:         store,
		Network:       network,
		QueueCapacity: cfg.Client.QueueCapacity,
		DrainDelay:    cfg.Client.DrainDelay,
	})
	if err != nil {
		s.close(logger)
		return nil, fmt.Errorf("failed to create sync engine: %w", err)
	}

	return s, nil
}

// close stops the session in reverse order of wiring. The controller goes
// first so the final disconnect does not schedule a retry.
func (s *session) close(logger *slog.Logger) {
	if s.engine != nil {
		s.engine.Close()
	}
	if s.controller != nil {
		s.controller.Close()
	}
	if s.probe != nil {
		s.probe.Stop()
	}
	s.transport.Disconnect()
	if err := s.store.Close(); err != nil {
		logger.Error("Failed to close database", "error", err)
	}
}

// logPhaseChanges logs phase transitions only; countdown ticks are skipped.
func logPhaseChanges(logger *slog.Logger) reconnect.StateHandler {
	var mu gosync.Mutex
	last := reconnect.PhaseIdle
	return func(st reconnect.State) {
		mu.Lock()
		changed := st.Phase != last
		last = st.Phase
		mu.Unlock()
		if !changed {
			return
		}
		logger.Info("Connection state changed",
			"phase", st.Phase.String(),
			"attempt", st.AttemptCount,
			"next_retry_ms", st.NextRetryIn.Milliseconds(),
			"reason", st.Reason)
	}
}
