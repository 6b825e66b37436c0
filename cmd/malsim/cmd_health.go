package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/psidex/malsim/internal/health"
)

func newHealthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "health [address]",
		Short: "Check the gRPC health service of a running server",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			address := cfg.Server.HealthAddress
			if len(args) == 1 {
				address = args[0]
			}
			if address == "" {
				return fmt.Errorf("no health address given or configured")
			}

			timeout, _ := cmd.Flags().GetDuration("timeout")
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			if err := health.Check(ctx, address, health.Service); err != nil {
				return fmt.Errorf("%s: %w", address, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: SERVING\n", address)
			return nil
		},
	}

	cmd.Flags().Duration("timeout", 5*time.Second, "How long to wait for an answer")
	return cmd
}
