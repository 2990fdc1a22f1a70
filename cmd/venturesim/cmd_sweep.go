package main

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/nvandessel/venturesim/internal/sweep"
)

func newSweepCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep <parameter> <value>...",
		Short: "Sweep one parameter across values",
		Long: `Run one batch per value of a single parameter, everything else held
fixed, and fit each response metric linearly against the swept value.
All points share the base seed, so they differ only through the
parameter.

Parameters use flat dotted names; list them with --list-params.

Examples:
  venturesim sweep policy.tau 0.0 0.1 0.2 0.3 0.4
  venturesim sweep policy.c_reg 1e4 5e4 1e5 --runs 20
  venturesim sweep --list-params`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := baseConfig(cmd)
			if err != nil {
				return err
			}
			applySimFlags(cmd, cfg)

			jsonOut, _ := cmd.Flags().GetBool("json")
			out := cmd.OutOrStdout()

			listParams, _ := cmd.Flags().GetBool("list-params")
			if listParams {
				flat := cfg.Flat()
				if jsonOut {
					json.NewEncoder(out).Encode(map[string]interface{}{"parameters": flat})
					return nil
				}
				fmt.Fprintf(out, "Sweepable parameters (current values):\n\n")
				for _, name := range cfg.ParamNames() {
					fmt.Fprintf(out, "  %-32s %v\n", name, flat[name])
				}
				return nil
			}

			if len(args) < 2 {
				return fmt.Errorf("need a parameter and at least one value (see --list-params)")
			}
			field := args[0]
			values := make([]float64, 0, len(args)-1)
			for _, arg := range args[1:] {
				v, err := strconv.ParseFloat(arg, 64)
				if err != nil {
					return fmt.Errorf("invalid value %q: %w", arg, err)
				}
				values = append(values, v)
			}

			res, err := sweep.New(cfg, newLogger(cmd)).Run(cmd.Context(), field, values)
			if err != nil {
				return err
			}

			if jsonOut {
				json.NewEncoder(out).Encode(res)
				return nil
			}

			fmt.Fprintf(out, "Parameter Sweep: %s\n", res.Field)
			fmt.Fprintln(out, repeatChar('=', len("Parameter Sweep: ")+len(res.Field)))
			fmt.Fprintln(out)

			fmt.Fprintf(out, "%12s %9s %9s %9s %15s %15s\n",
				"Value", "Failure", "Success", "Funded", "Mean valuation", "Top valuation")
			fmt.Fprintln(out, repeatChar('-', 74))
			for _, p := range res.Points {
				fmt.Fprintf(out, "%12.4g %9.4f %9.4f %9.4f %15.4g %15.4g\n",
					p.Value,
					p.Aggregate.FailureRate.Mean,
					p.Aggregate.SuccessRate.Mean,
					p.Aggregate.FundedRate.Mean,
					p.Aggregate.MeanFinalValuation.Mean,
					p.Aggregate.TopValuation.Mean)
			}

			if len(res.Fits) > 0 {
				fmt.Fprintln(out)
				fmt.Fprintf(out, "Linear fits (response ~ %s):\n\n", res.Field)
				fmt.Fprintf(out, "%-24s %13s %13s %8s\n", "Metric", "Slope", "Intercept", "R2")
				fmt.Fprintln(out, repeatChar('-', 61))
				for _, f := range res.Fits {
					fmt.Fprintf(out, "%-24s %13.4g %13.4g %8.4f\n", f.Metric, f.Slope, f.Intercept, f.R2)
				}
			}

			return nil
		},
	}

	addConfigFlags(cmd)
	addSimFlags(cmd)
	cmd.Flags().Bool("list-params", false, "List sweepable parameter names and exit")

	return cmd
}
