package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/iudanet/opsync/internal/client/iocli"
	"github.com/iudanet/opsync/internal/client/reconnect"
	"github.com/iudanet/opsync/internal/client/signals"
	"github.com/iudanet/opsync/internal/client/sync"
	"github.com/iudanet/opsync/internal/models"
)

const prompt = "opsync> "

// Engine is the part of the sync engine driven from the shell.
type Engine interface {
	CreateEntity(ctx context.Context, entityType string, data map[string]any, optimistic bool) (*models.Entity, error)
	UpdateEntity(ctx context.Context, entityType, id string, partial map[string]any, optimistic bool) (*models.Entity, error)
	DeleteEntity(ctx context.Context, entityType, id string, optimistic bool) error
	RequestFullSync(entityType string)
	State(entityType string) (sync.SyncState, bool)
	Types() []string
	QueuedOperations() []*models.SyncOperation
	Dropped() int
}

//go:generate moq -out connection_mock.go . Connection

// Connection is the reconnection controller as seen from the shell.
type Connection interface {
	State() reconnect.State
	Pause(reason string)
	Resume()
	ForceReconnect()
	ResetAttempts()
}

var errUsage = errors.New("usage")

// Shell is a line-oriented console over a running engine.
type Shell struct {
	io         iocli.IO
	engine     Engine
	conn       Connection
	network    *signals.Network    // nil при TCP-пробе
	visibility *signals.Visibility // nil если не управляется вручную
	activity   *signals.Activity   // nil без inactivity timeout
	optimistic bool
}

// NewShell creates a shell. Mutations are applied optimistically.
func NewShell(console iocli.IO, engine Engine, conn Connection) *Shell {
	return &Shell{
		io:         console,
		engine:     engine,
		conn:       conn,
		optimistic: true,
	}
}

// WithSignals lets the shell toggle manual signals and report activity.
// Any of them may be nil.
func (s *Shell) WithSignals(network *signals.Network, visibility *signals.Visibility, activity *signals.Activity) *Shell {
	s.network = network
	s.visibility = visibility
	s.activity = activity
	return s
}

// Run reads commands until EOF, quit or ctx is done.
func (s *Shell) Run(ctx context.Context) error {
	s.io.Println("Type 'help' for the list of commands.")
	for {
		if ctx.Err() != nil {
			return nil
		}
		line, err := s.io.ReadInput(prompt)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("failed to read command: %w", err)
		}

		quit, err := s.Execute(ctx, line)
		if err != nil {
			s.io.Printf("Error: %v\n", err)
		}
		if quit {
			return nil
		}
	}
}

// Execute runs a single command line. It reports whether the shell should stop.
func (s *Shell) Execute(ctx context.Context, line string) (bool, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return false, nil
	}
	if s.activity != nil {
		s.activity.Touch()
	}

	name, rest, _ := strings.Cut(line, " ")
	name = strings.ToLower(name)
	rest = strings.TrimSpace(rest)

	switch name {
	case "help":
		s.help()
	case "quit", "exit":
		return true, nil
	case "create":
		return false, s.create(ctx, rest)
	case "update":
		return false, s.update(ctx, rest)
	case "delete":
		return false, s.delete(ctx, rest)
	case "get":
		return false, s.get(rest)
	case "list":
		return false, s.list(rest)
	case "sync":
		return false, s.sync(rest)
	case "status":
		s.status()
	case "queue":
		s.queue()
	case "pause":
		reason := rest
		if reason == "" {
			reason = reconnect.ReasonPaused
		}
		s.conn.Pause(reason)
	case "resume":
		s.conn.Resume()
	case "reconnect":
		s.conn.ForceReconnect()
	case "reset":
		s.conn.ResetAttempts()
	case "online", "offline":
		if s.network == nil {
			return false, errors.New("network state is probed and cannot be set manually")
		}
		s.network.Set(name == "online")
	case "show", "hide":
		if s.visibility == nil {
			return false, errors.New("visibility is not controlled by this session")
		}
		s.visibility.Set(name == "show")
	default:
		return false, fmt.Errorf("unknown command %q, type 'help'", name)
	}
	return false, nil
}

func (s *Shell) help() {
	s.io.Println(`Commands:
  create <type> <json>        create an entity
  update <type> <id> <json>   merge fields into an entity
  delete <type> <id>          delete an entity
  get <type> <id>             show one cached entity
  list <type>                 list cached entities
  sync <type>                 request a full sync
  status                      connection and cache summary
  queue                       show the offline queue
  pause [reason] | resume     stop or restart reconnection
  reconnect                   reconnect now
  reset                       reset the attempt counter
  online | offline            set the network signal
  show | hide                 set the visibility signal
  quit                        leave the shell`)
}

func (s *Shell) create(ctx context.Context, args string) error {
	entityType, raw, ok := strings.Cut(args, " ")
	if !ok || entityType == "" {
		return fmt.Errorf("%w: create <type> <json>", errUsage)
	}
	data, err := parseData(raw)
	if err != nil {
		return err
	}

	ent, err := s.engine.CreateEntity(ctx, entityType, data, s.optimistic)
	if err != nil {
		return fmt.Errorf("failed to create entity: %w", err)
	}
	s.io.Printf("Created %s %s\n", entityType, ent.ID)
	return nil
}

func (s *Shell) update(ctx context.Context, args string) error {
	parts := strings.SplitN(args, " ", 3)
	if len(parts) < 3 || parts[0] == "" || parts[1] == "" {
		return fmt.Errorf("%w: update <type> <id> <json>", errUsage)
	}
	data, err := parseData(parts[2])
	if err != nil {
		return err
	}

	ent, err := s.engine.UpdateEntity(ctx, parts[0], parts[1], data, s.optimistic)
	if err != nil {
		return fmt.Errorf("failed to update entity: %w", err)
	}
	s.io.Printf("Updated %s %s (v%d)\n", parts[0], ent.ID, ent.Version)
	return nil
}

func (s *Shell) delete(ctx context.Context, args string) error {
	fields := strings.Fields(args)
	if len(fields) != 2 {
		return fmt.Errorf("%w: delete <type> <id>", errUsage)
	}
	if err := s.engine.DeleteEntity(ctx, fields[0], fields[1], s.optimistic); err != nil {
		return fmt.Errorf("failed to delete entity: %w", err)
	}
	s.io.Printf("Deleted %s %s\n", fields[0], fields[1])
	return nil
}

func (s *Shell) get(args string) error {
	fields := strings.Fields(args)
	if len(fields) != 2 {
		return fmt.Errorf("%w: get <type> <id>", errUsage)
	}
	st, err := s.state(fields[0])
	if err != nil {
		return err
	}
	ent, ok := st.Data[fields[1]]
	if !ok {
		return fmt.Errorf("%s %s is not cached", fields[0], fields[1])
	}

	out, err := json.MarshalIndent(ent, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode entity: %w", err)
	}
	s.io.Println(string(out))
	return nil
}

func (s *Shell) list(args string) error {
	fields := strings.Fields(args)
	if len(fields) != 1 {
		return fmt.Errorf("%w: list <type>", errUsage)
	}
	st, err := s.state(fields[0])
	if err != nil {
		return err
	}
	if len(st.Data) == 0 {
		s.io.Println("No entities cached")
		return nil
	}

	ids := make([]string, 0, len(st.Data))
	for id := range st.Data {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	w := tabwriter.NewWriter(s.io, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tVERSION\tMODIFIED BY\tDATA")
	for _, id := range ids {
		ent := st.Data[id]
		data, err := json.Marshal(ent.Data)
		if err != nil {
			return fmt.Errorf("failed to encode entity %s: %w", id, err)
		}
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", ent.ID, ent.Version, ent.ModifiedBy, data)
	}
	return w.Flush()
}

func (s *Shell) sync(args string) error {
	fields := strings.Fields(args)
	if len(fields) != 1 {
		return fmt.Errorf("%w: sync <type>", errUsage)
	}
	if _, err := s.state(fields[0]); err != nil {
		return err
	}
	s.engine.RequestFullSync(fields[0])
	s.io.Printf("Full sync of %s requested\n", fields[0])
	return nil
}

func (s *Shell) status() {
	cs := s.conn.State()
	s.io.Printf("Connection: %s\n", cs.Phase)
	if cs.Reason != "" {
		s.io.Printf("Reason:     %s\n", cs.Reason)
	}
	if cs.Phase == reconnect.PhaseReconnecting {
		s.io.Printf("Attempt:    %d, next in %s\n", cs.AttemptCount, cs.NextRetryIn.Round(time.Second))
	}
	if cs.TotalDowntime > 0 {
		s.io.Printf("Downtime:   %s\n", cs.TotalDowntime.Round(time.Millisecond))
	}

	w := tabwriter.NewWriter(s.io, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TYPE\tENTITIES\tPENDING\tLAST SYNC\tERROR")
	for _, entityType := range s.engine.Types() {
		st, ok := s.engine.State(entityType)
		if !ok {
			continue
		}
		last := "never"
		if st.LastSync != nil {
			last = st.LastSync.Format(time.RFC3339)
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%s\t%s\n", entityType, len(st.Data), len(st.PendingOperations), last, st.Error)
	}
	_ = w.Flush()

	s.io.Printf("Queued:     %d (dropped %d)\n", len(s.engine.QueuedOperations()), s.engine.Dropped())
}

func (s *Shell) queue() {
	ops := s.engine.QueuedOperations()
	if len(ops) == 0 {
		s.io.Println("Offline queue is empty")
		return
	}
	_ = printOperations(s.io, ops)
}

func (s *Shell) state(entityType string) (sync.SyncState, error) {
	st, ok := s.engine.State(entityType)
	if !ok {
		return sync.SyncState{}, fmt.Errorf("entity type %q is not synced", entityType)
	}
	return st, nil
}

func parseData(raw string) (map[string]any, error) {
	var data map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &data); err != nil {
		return nil, fmt.Errorf("invalid JSON object: %w", err)
	}
	return data, nil
}

// printOperations writes ops as a table in queue order.
func printOperations(out io.Writer, ops []*models.SyncOperation) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "#\tOPERATION\tTYPE\tID\tQUEUED AT")
	for i, op := range ops {
		var entityType, id string
		if op.Entity != nil {
			entityType, id = op.Entity.Type, op.Entity.ID
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", i+1, op.Operation, entityType, id, op.Timestamp.Format(time.RFC3339))
	}
	return w.Flush()
}
