package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iudanet/opsync/internal/client/api"
)

// NewHealthCommand creates the health command: it asks the server behind the
// configured WebSocket URL for its health status.
func NewHealthCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check the sync server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			baseURL, err := api.BaseURLFromWebSocket(opts.Config.Client.ServerURL)
			if err != nil {
				return err
			}

			resp, err := api.NewClient(baseURL).Health(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Server:   %s\n", baseURL)
			fmt.Fprintf(out, "Status:   %s\n", resp.Status)
			fmt.Fprintf(out, "Version:  %s\n", resp.Version)
			if resp.Database != "" {
				fmt.Fprintf(out, "Database: %s\n", resp.Database)
			}
			fmt.Fprintf(out, "Clients:  %d\n", resp.Clients)
			return nil
		},
	}
}
