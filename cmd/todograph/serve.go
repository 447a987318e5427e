package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aristath/todograph/internal/api"
	"github.com/aristath/todograph/internal/logging"
)

func newServeCmd(flags *rootFlags) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Create signal-aware context for graceful shutdown
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := openApp(ctx, flags, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			if addr != "" {
				a.cfg.Server.Addr = addr
			}
			if !a.images.Enabled() {
				logging.Warn("Images", "no API key configured; tasks will be created without images")
			}

			logging.Info("HTTP", "listening on %s (database %s)", a.cfg.Server.Addr, a.cfg.Database.Path)
			return serve(ctx, a)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides config)")
	return cmd
}

func serve(ctx context.Context, a *app) error {
	return api.NewServer(a.svc, a.cfg.Server).ListenAndServe(ctx)
}
