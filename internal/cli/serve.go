package cli

import (
	"github.com/spf13/cobra"

	"postexplorer/internal/config"
	"postexplorer/internal/server"
)

func newServeCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the explorer state over HTTP and websocket",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, opts, false)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			bus := a.bus()
			hub, err := a.hub(bus)
			if err != nil {
				return err
			}

			// Listen right away; clients see LOADING until the first load ends
			go func() {
				if err := hub.Start(ctx); err != nil {
					a.log.Warn().Err(err).Msg("initial load failed")
				}
			}()

			return server.New(hub, bus, a.log).Run(ctx, a.cfg.Server.Addr)
		},
	}
	cmd.Flags().StringVar(&opts.overrides.Addr, config.FlagAddr, "", "listen address (default :8080)")
	return cmd
}
