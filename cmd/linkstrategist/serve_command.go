package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"LinkStrategist/internal/app"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx.stdoutLogs = true
			if addr != "" {
				cfg := ctx.config()
				cfg.Server.Address = addr
				ctx.cfg = &cfg
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return ctx.withApp(runCtx, func(application *app.Application) error {
				return application.Serve(runCtx)
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides config)")
	return cmd
}
