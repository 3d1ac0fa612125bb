package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sarchlab/dmsched/server"
)

func newServeCmd() *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the simulator over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true

			cfg, logger, err := setup(cmd)
			if err != nil {
				return err
			}

			if cfg.Record != "" {
				logger.Warn("trace recording is not available while serving")
				cfg.Record = ""
			}

			builder, closeAll, err := simulatorBuilder(cmd, cfg, logger)
			defer closeAll()

			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(),
				os.Interrupt, syscall.SIGTERM)
			defer stop()

			return server.New(builder.Build(), logger).Serve(ctx, cfg.Addr)
		},
	}

	serveCmd.Flags().String("addr", "", "listen address (default :8080)")
	serveCmd.Flags().Bool("metrics", false, "print OpenTelemetry metrics to stderr")

	return serveCmd
}
