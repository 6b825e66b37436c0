package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/psidex/malsim/internal/config"
	"github.com/psidex/malsim/internal/graphs"
	"github.com/psidex/malsim/internal/graphs/graphology"
	"github.com/psidex/malsim/internal/graphs/vis"
	"github.com/psidex/malsim/internal/session"
	"github.com/psidex/malsim/internal/sim"
)

// outputs lists the renderers "run" knows, in the order they are written.
var outputs = []string{"echarts", "vis", "graphology", "exposure"}

func newGraphProvider(name string, dark bool) (graphs.CliGraphProvider, error) {
	switch name {
	case "echarts":
		return graphs.NewECharts(dark), nil
	case "vis":
		return vis.NewVis(dark), nil
	case "graphology":
		return graphology.NewGraphology(dark), nil
	case "exposure":
		return graphs.NewExposureGraph(), nil
	default:
		return nil, fmt.Errorf("unknown graph provider: %s", name)
	}
}

// parseOutputs expands "all" and splits a comma separated list of renderer names.
func parseOutputs(list string) ([]string, error) {
	if list == "all" {
		return outputs, nil
	}
	var names []string
	for _, name := range strings.Split(list, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, err := newGraphProvider(name, false); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, nil
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a simulation headless and render the results",
		Long: `Run a simulation until every node is infected or --max-steps ticks have run,
then write the selected renderers and the CSV time series to --dir.`,
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

			list, _ := cmd.Flags().GetString("output")
			names, err := parseOutputs(list)
			if err != nil {
				return err
			}

			result, err := runHeadless(cfg, names, session.WithLogger(logger))
			if err != nil {
				return err
			}

			snap := result.Snapshot
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: %d / %d infected after %d steps\n",
				snap.Config.Strain, snap.Infected(), len(snap.Graph.Nodes), snap.Step)
			for _, f := range result.Files {
				fmt.Fprintf(out, "wrote %s\n", f)
			}
			return nil
		},
	}

	addSessionFlags(cmd)
	addOutputFlags(cmd)
	cmd.Flags().String("output", "all", "Comma separated renderers: echarts, vis, graphology, exposure, or all")
	return cmd
}

func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().String("dir", "", "Output directory")
	cmd.Flags().String("name", "", "Output file name without extension")
	cmd.Flags().Int("max-steps", 0, "Stop after this many ticks (0 uses the config value)")
	cmd.Flags().Bool("dark", false, "Render with the dark palette")
}

func applyOutputFlags(cmd *cobra.Command, out *config.OutputConfig) {
	flags := cmd.Flags()
	if flags.Changed("dir") {
		out.Dir, _ = flags.GetString("dir")
	}
	if flags.Changed("name") {
		out.Name, _ = flags.GetString("name")
	}
	if flags.Changed("max-steps") {
		out.MaxSteps, _ = flags.GetInt("max-steps")
	}
	if flags.Changed("dark") {
		out.Dark, _ = flags.GetBool("dark")
	}
}

type runResult struct {
	Snapshot session.Snapshot
	Files    []string
}

// runHeadless runs one session to completion with the named renderers attached and
// writes every output file.
func runHeadless(cfg *config.MalsimConfig, names []string, opts ...session.Option) (runResult, error) {
	if err := cfg.Validate(); err != nil {
		return runResult{}, err
	}
	if err := os.MkdirAll(cfg.Output.Dir, 0o755); err != nil {
		return runResult{}, fmt.Errorf("creating output dir: %w", err)
	}

	providers := make([]graphs.CliGraphProvider, 0, len(names))
	for _, name := range names {
		p, err := newGraphProvider(name, cfg.Output.Dark)
		if err != nil {
			return runResult{}, err
		}
		providers = append(providers, p)
		opts = append(opts, session.WithProviders(p))
	}

	sess := session.New(cfg.Session, opts...)
	defer sess.Close()

	if _, err := sess.RunToCompletion(cfg.Output.MaxSteps); err != nil {
		return runResult{}, err
	}

	result := runResult{Snapshot: sess.Snapshot()}
	for i, p := range providers {
		// Every renderer adds its own extension, so they need distinct base names.
		base := filepath.Join(cfg.Output.Dir, cfg.Output.Name+"-"+names[i])
		if err := p.RenderToFile(base); err != nil {
			return runResult{}, fmt.Errorf("rendering %s: %w", names[i], err)
		}
		result.Files = append(result.Files, base+extension(names[i]))
	}

	csvPath := filepath.Join(cfg.Output.Dir, sim.CSVFilename)
	if err := os.WriteFile(csvPath, []byte(result.Snapshot.Series.CSV()), 0o644); err != nil {
		return runResult{}, fmt.Errorf("writing csv: %w", err)
	}
	result.Files = append(result.Files, csvPath)

	return result, nil
}

func extension(name string) string {
	switch name {
	case "echarts", "vis":
		return ".html"
	default:
		return ".json"
	}
}
