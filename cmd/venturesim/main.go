package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nvandessel/venturesim/internal/config"
	"github.com/nvandessel/venturesim/internal/logging"
	"github.com/nvandessel/venturesim/internal/scenario"
	"github.com/nvandessel/venturesim/internal/store"
)

var version = "0.1.0-dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "venturesim",
		Short: "Agent-based simulation of startup funding under policy levers",
		Long: `venturesim simulates a population of startup agents month by month:
revenue from a shared growing market, burn and compliance costs,
taxation, product-market-fit drift, exogenous shocks, and at most one
funding round per startup.

Batches of independent runs aggregate into failure, funding and
valuation statistics. Sweeps and scenario comparisons quantify how
those statistics respond to policy parameters such as the tax rate,
compliance cost and subsidies.`,
	}

	// Global flags
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON (for script consumption)")
	rootCmd.PersistentFlags().String("db", "venturesim.db", "Path to the batch database")
	rootCmd.PersistentFlags().String("log-level", "warn", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "text", "Log format: text or json")

	// Add subcommands
	rootCmd.AddCommand(
		newVersionCmd(),
		newInitCmd(),
		newValidateCmd(),
		newRunCmd(),
		newSweepCmd(),
		newCompareCmd(),
		// Stored batch commands
		newReportCmd(),
		newExportCmd(),
	)

	ctx, cancel := signalContext(context.Background())
	err := rootCmd.ExecuteContext(ctx)
	cancel()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// signalContext returns a context cancelled on the first shutdown signal.
// The handler is released after firing, so a second signal terminates the
// process the usual way.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	ch := make(chan os.Signal, 1)
	notifySignals(ch)
	go func() {
		select {
		case <-ch:
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(ch)
	}()
	return ctx, cancel
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]string{"version": version})
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "venturesim version %s\n", version)
			}
		},
	}
}

// addConfigFlags registers the flags that pick the starting configuration.
func addConfigFlags(cmd *cobra.Command) {
	cmd.Flags().String("config", "", "Path to a YAML configuration file")
	cmd.Flags().String("preset", "", "Start from a preset: "+strings.Join(scenario.Names(), ", "))
}

// addSimFlags registers overrides for the simulation block. Only flags the
// user actually set are applied, so a config file keeps its own values.
func addSimFlags(cmd *cobra.Command) {
	cmd.Flags().Int("startups", 1000, "Startups per run")
	cmd.Flags().Int("horizon", 60, "Months per run")
	cmd.Flags().Int("runs", 30, "Independent runs per batch")
	cmd.Flags().Uint64("seed", 42, "Base seed; run i uses a stream derived from it")
	cmd.Flags().Int("workers", 0, "Parallel runs (0 = all CPUs)")
}

// baseConfig resolves the starting configuration: a preset, a YAML file,
// or the calibrated defaults.
func baseConfig(cmd *cobra.Command) (*config.Config, error) {
	preset, _ := cmd.Flags().GetString("preset")
	file, _ := cmd.Flags().GetString("config")
	if preset != "" && file != "" {
		return nil, fmt.Errorf("cannot specify both --preset and --config")
	}
	if preset != "" {
		return scenario.Load(preset)
	}
	if file != "" {
		return config.LoadFromFile(file)
	}
	return config.Default(), nil
}

func applySimFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("startups") {
		v, _ := flags.GetInt("startups")
		cfg.Simulation.NumStartups = v
	}
	if flags.Changed("horizon") {
		v, _ := flags.GetInt("horizon")
		cfg.Simulation.TimeHorizon = v
	}
	if flags.Changed("runs") {
		v, _ := flags.GetInt("runs")
		cfg.Simulation.NumRuns = v
	}
	if flags.Changed("seed") {
		v, _ := flags.GetUint64("seed")
		cfg.Simulation.Seed = v
	}
	if flags.Changed("workers") {
		v, _ := flags.GetInt("workers")
		cfg.Simulation.Workers = v
	}
}

func newLogger(cmd *cobra.Command) *slog.Logger {
	level, _ := cmd.Flags().GetString("log-level")
	format, _ := cmd.Flags().GetString("log-format")
	return logging.NewLogger(level, format, os.Stderr)
}

func openStore(cmd *cobra.Command) (*store.Store, error) {
	path, _ := cmd.Flags().GetString("db")
	st, err := store.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open batch database: %w", err)
	}
	return st, nil
}
