package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iudanet/opsync/internal/client/storage/boltdb"
)

// NewQueueCommand creates the queue command. It shows operations persisted
// while the client was offline, in the order they will be replayed.
func NewQueueCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "queue",
		Short: "Show the persisted offline queue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return opts.withStorage(ctx, opts.logger(cmd), func(store *boltdb.Storage) error {
				ops, err := store.LoadQueue(ctx)
				if err != nil {
					return fmt.Errorf("failed to load queue: %w", err)
				}
				if len(ops) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Offline queue is empty")
					return nil
				}
				return printOperations(cmd.OutOrStdout(), ops)
			})
		},
	}
}
