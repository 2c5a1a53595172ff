package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newHistoryCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect or clear the saved search query",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the saved search query",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, opts, false)
			if err != nil {
				return err
			}
			defer a.Close()

			store, err := a.queryStore()
			if err != nil {
				return err
			}
			if q := store.Get(cmd.Context()); q != "" {
				fmt.Fprintln(cmd.OutOrStdout(), q)
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "(no saved search)")
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Forget the saved search query",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, opts, false)
			if err != nil {
				return err
			}
			defer a.Close()

			store, err := a.queryStore()
			if err != nil {
				return err
			}
			store.Clear(cmd.Context())
			a.log.Info().Str("backend", a.cfg.Storage.Backend).Msg("saved search cleared")
			return nil
		},
	})

	return cmd
}
