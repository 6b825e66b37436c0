package main

import (
	"github.com/spf13/cobra"

	"github.com/psidex/malsim/internal/session"
	"github.com/psidex/malsim/internal/tui"
)

func newTUICmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Watch a simulation live in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := applySessionFlags(cmd, &cfg.Session); err != nil {
				return err
			}
			applyOutputFlags(cmd, &cfg.Output)

			// The terminal belongs to the UI, so nothing is logged.
			sess := session.New(cfg.Session)
			defer sess.Close()

			return tui.Run(sess, cfg.Output.Dir, cfg.Output.Dark)
		},
	}

	addSessionFlags(cmd)
	addOutputFlags(cmd)
	return cmd
}
