package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/psidex/malsim/internal/snapshot"
)

func newSnapshotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Run headless and save the ECharts report as a PNG",
		Long: `Run a simulation headless, render the ECharts report and capture it with
headless Chrome. Chrome or Chromium must be installed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := applySessionFlags(cmd, &cfg.Session); err != nil {
				return err
			}
			applyOutputFlags(cmd, &cfg.Output)

			logger, err := newLogger(cmd, cfg)
			if err != nil {
				return err
			}

			result, err := runHeadless(cfg, []string{"echarts"})
			if err != nil {
				return err
			}

			opts := snapshot.DefaultOptions()
			if cmd.Flags().Changed("settle") {
				opts.Settle, _ = cmd.Flags().GetDuration("settle")
			}
			if cmd.Flags().Changed("width") {
				opts.Width, _ = cmd.Flags().GetInt64("width")
			}
			if cmd.Flags().Changed("height") {
				opts.Height, _ = cmd.Flags().GetInt64("height")
			}

			report := result.Files[0]
			png := filepath.Join(cfg.Output.Dir, cfg.Output.Name+".png")
			if err := snapshot.CaptureFile(cmd.Context(), logger, report, png, opts); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", png)
			return nil
		},
	}

	addSessionFlags(cmd)
	addOutputFlags(cmd)
	cmd.Flags().Duration("settle", 0, "Time to let charts animate before capturing")
	cmd.Flags().Int64("width", 0, "Viewport width in pixels")
	cmd.Flags().Int64("height", 0, "Viewport height in pixels")
	return cmd
}
