// Package cmd - serve command
package cmd

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"invoice-advisor/internal/app"
	"invoice-advisor/internal/logging"
)

func newServeCmd(opts *options) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Long: `Load models and rules, then serve the HTTP API until SIGINT or SIGTERM.
Refuses to start when any model artifact fails to load.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				opts.cfg.Server.Addr = addr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := app.New(ctx, opts.cfg, logging.Named("advisor"))
			if err != nil {
				return err
			}
			return a.Serve(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	return cmd
}
