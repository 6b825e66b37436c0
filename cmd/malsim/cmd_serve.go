package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/psidex/malsim/internal/health"
	"github.com/psidex/malsim/internal/metrics"
	"github.com/psidex/malsim/internal/webserver"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the browser frontend",
		Long: `Serve the browser frontend. Every websocket connection gets its own session;
CSV exports, ECharts reports and Prometheus metrics are served over HTTP and
an optional gRPC health service reports readiness.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := applySessionFlags(cmd, &cfg.Session); err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("address") {
				cfg.Server.Address, _ = flags.GetString("address")
			}
			if flags.Changed("health-address") {
				cfg.Server.HealthAddress, _ = flags.GetString("health-address")
			}
			if flags.Changed("dark") {
				cfg.Server.Dark, _ = flags.GetBool("dark")
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger, err := newLogger(cmd, cfg)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv := webserver.NewServer(webserver.Config{
				Address:         cfg.Server.Address,
				Dark:            cfg.Server.Dark,
				MaxSessions:     cfg.Server.MaxSessions,
				ShutdownTimeout: cfg.Server.ShutdownTimeout.Duration,
				Defaults:        cfg.Session,
			}, logger, metrics.DefaultRegistry())

			var healthDone chan error
			var hs *health.Server
			if cfg.Server.HealthAddress != "" {
				hs = health.NewServer(logger)
				hs.SetServing(true)
				healthDone = make(chan error, 1)
				go func() { healthDone <- hs.ListenAndServe(ctx, cfg.Server.HealthAddress) }()
			}

			err = srv.ListenAndServe(ctx)
			if hs != nil {
				hs.SetServing(false)
				// The health server only stops once ctx is done.
				stop()
				if herr := <-healthDone; herr != nil && err == nil {
					err = herr
				}
			}
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			return nil
		},
	}

	addSessionFlags(cmd)
	cmd.Flags().String("address", "", "Address to bind the webserver to")
	cmd.Flags().String("health-address", "", "Address to bind the gRPC health service to")
	cmd.Flags().Bool("dark", false, "Use the dark palette")
	return cmd
}
