package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/iudanet/opsync/internal/client/profile"
	"github.com/iudanet/opsync/internal/client/storage"
	"github.com/iudanet/opsync/internal/client/storage/boltdb"
)

// ProfileOptions holds flags for profile set.
type ProfileOptions struct {
	*RootOptions
	UserID      string
	Username    string
	DisplayName string
}

// NewProfileCommand creates the profile command group.
func NewProfileCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Manage the identity recorded on local operations",
	}

	cmd.AddCommand(newProfileSetCommand(&ProfileOptions{RootOptions: rootOpts}))
	cmd.AddCommand(newProfileShowCommand(rootOpts))
	cmd.AddCommand(newProfileClearCommand(rootOpts))

	return cmd
}

func newProfileSetCommand(opts *ProfileOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Store the operator profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := opts.logger(cmd)
			return opts.withStorage(ctx, logger, func(store *boltdb.Storage) error {
				svc := profile.NewService(store, logger)
				if err := svc.SetProfile(ctx, opts.UserID, opts.Username, opts.DisplayName); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Profile saved for %s\n", opts.Username)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&opts.UserID, "user", "", "user id recorded as modified_by (required)")
	cmd.Flags().StringVar(&opts.Username, "username", "", "login name (required)")
	cmd.Flags().StringVar(&opts.DisplayName, "name", "", "display name")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("username")

	return cmd
}

func newProfileShowCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the stored profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := opts.logger(cmd)
			out := cmd.OutOrStdout()
			return opts.withStorage(ctx, logger, func(store *boltdb.Storage) error {
				p, err := profile.NewService(store, logger).Profile(ctx)
				if errors.Is(err, storage.ErrProfileNotFound) {
					fmt.Fprintf(out, "No profile set, operations are recorded as %q\n", profile.AnonymousUserID)
					return nil
				}
				if err != nil {
					return fmt.Errorf("failed to read profile: %w", err)
				}

				fmt.Fprintf(out, "User ID:      %s\n", p.UserID)
				fmt.Fprintf(out, "Username:     %s\n", p.Username)
				if p.DisplayName != "" {
					fmt.Fprintf(out, "Display name: %s\n", p.DisplayName)
				}
				fmt.Fprintf(out, "Updated:      %s\n", p.UpdatedAt.Format(time.RFC3339))
				return nil
			})
		},
	}
}

func newProfileClearCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove the stored profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := opts.logger(cmd)
			return opts.withStorage(ctx, logger, func(store *boltdb.Storage) error {
				if err := profile.NewService(store, logger).Clear(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Profile cleared")
				return nil
			})
		},
	}
}
