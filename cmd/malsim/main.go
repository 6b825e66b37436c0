package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/psidex/malsim/internal/config"
	"github.com/psidex/malsim/internal/lib"
	"github.com/psidex/malsim/internal/session"
	"github.com/psidex/malsim/internal/sim"
)

var version = "0.1.0-dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "malsim",
		Short: "Educational malware propagation simulator",
		Long: `malsim simulates viruses, worms and trojans spreading over a random contact
network. No real malware is involved; infection is a coin flip per edge per tick.

Run it headless to render reports, serve the browser frontend, or watch it live
in the terminal.`,
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "Config file (default ~/.malsim/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error")

	rootCmd.AddCommand(
		newVersionCmd(),
		newRunCmd(),
		newServeCmd(),
		newTUICmd(),
		newSnapshotCmd(),
		newHealthCmd(),
		newConfigCmd(),
	)

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				_ = json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]string{"version": version})
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "malsim version %s\n", version)
			}
		},
	}
	cmd.Flags().Bool("json", false, "Output as JSON")
	return cmd
}

// loadConfig reads the config file named by --config and applies --log-level.
func loadConfig(cmd *cobra.Command) (*config.MalsimConfig, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Logging.Level = level
	}
	return cfg, nil
}

func newLogger(cmd *cobra.Command, cfg *config.MalsimConfig) (*slog.Logger, error) {
	level, err := lib.ParseSLogLevel(cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	return lib.NiceLogger(cmd.ErrOrStderr(), level), nil
}

// addSessionFlags registers the flags that override session configuration.
func addSessionFlags(cmd *cobra.Command) {
	cmd.Flags().String("strain", "", "Malware type: virus, worm or trojan")
	cmd.Flags().Float64("probability", 0, "Base infection probability (0.1 to 1.0, step 0.1)")
	cmd.Flags().Int("size", 0, "Network size (10 to 50, step 5)")
	cmd.Flags().Duration("tick", 0, "Tick interval")
	cmd.Flags().Uint64("seed", 0, "Random seed, 0 seeds from the clock")
}

// applySessionFlags copies explicitly set session flags onto cfg and validates it.
func applySessionFlags(cmd *cobra.Command, cfg *session.Config) error {
	flags := cmd.Flags()
	if flags.Changed("strain") {
		v, _ := flags.GetString("strain")
		strain, err := sim.ParseStrain(v)
		if err != nil {
			return err
		}
		cfg.Strain = strain
	}
	if flags.Changed("probability") {
		cfg.Probability, _ = flags.GetFloat64("probability")
	}
	if flags.Changed("size") {
		cfg.NetworkSize, _ = flags.GetInt("size")
	}
	if flags.Changed("tick") {
		d, _ := flags.GetDuration("tick")
		cfg.TickInterval = lib.DurationFrom(d)
	}
	if flags.Changed("seed") {
		cfg.Seed, _ = flags.GetUint64("seed")
	}
	return cfg.Validate()
}
