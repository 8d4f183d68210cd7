package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/yeisme/photoarchive/pkg/app"
	"github.com/yeisme/photoarchive/pkg/configs"
	"github.com/yeisme/photoarchive/pkg/log"
	"github.com/yeisme/photoarchive/pkg/tracing"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "start the HTTP server and background jobs",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		cfg := configs.GetConfig()

		if err := tracing.InitTracer(cfg.Tracing); err != nil {
			return err
		}

		defer func() { _ = tracing.ShutdownTracer(context.Background()) }()

		a, err := app.New(ctx, cfg)
		if err != nil {
			return err
		}

		defer func() {
			if err := a.Close(); err != nil {
				log.Logger().Error().Err(err).Msg("shutdown finished with errors")
			}
		}()

		return a.Run(ctx)
	},
}

func registerServeCommands() {
	rootCmd.AddCommand(serveCmd)
}
