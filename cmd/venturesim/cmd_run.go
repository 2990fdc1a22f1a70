package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nvandessel/venturesim/internal/logging"
	"github.com/nvandessel/venturesim/internal/montecarlo"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a Monte Carlo batch",
		Long: `Run a batch of independent simulation runs and print the cross-run
aggregate. The batch is saved to the database unless --save=false.

Examples:
  venturesim run
  venturesim run --preset crisis --runs 50
  venturesim run --config my.yaml --seed 7 --workers 4`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := baseConfig(cmd)
			if err != nil {
				return err
			}
			applySimFlags(cmd, cfg)

			save, _ := cmd.Flags().GetBool("save")
			runLogPath, _ := cmd.Flags().GetString("run-log")

			runLog := logging.NewRunLogger(runLogPath)
			defer runLog.Close()

			batch, err := montecarlo.NewRunner(cfg, newLogger(cmd), runLog).Run(cmd.Context())
			if err != nil {
				return err
			}

			saved := ""
			if save {
				st, err := openStore(cmd)
				if err != nil {
					return err
				}
				defer st.Close()
				if err := st.SaveBatch(cmd.Context(), batch); err != nil {
					return fmt.Errorf("failed to save batch: %w", err)
				}
				saved, _ = cmd.Flags().GetString("db")
			}

			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]interface{}{
					"batch_id":   batch.BatchID,
					"runs":       len(batch.Runs),
					"elapsed_ns": batch.Elapsed,
					"saved":      save,
					"aggregate":  batch.Aggregate,
				})
				return nil
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Batch Summary\n")
			fmt.Fprintf(out, "=============\n\n")
			fmt.Fprintf(out, "Batch:   %s\n", batch.BatchID)
			fmt.Fprintf(out, "Runs:    %d (%d failed)\n", len(batch.Runs), batch.Aggregate.FailedRuns)
			fmt.Fprintf(out, "Elapsed: %v\n", batch.Elapsed)
			if saved != "" {
				fmt.Fprintf(out, "Saved:   %s\n", saved)
			}
			fmt.Fprintln(out)

			printAggregate(out, batch.Aggregate)

			monthly := batch.Aggregate.Monthly
			if n := len(monthly.Active); n > 0 {
				last := n - 1
				fmt.Fprintln(out)
				fmt.Fprintf(out, "Final month: %.1f active, %.1f failed, %.1f exited, %.1f funded\n",
					monthly.Active[last], monthly.Failed[last], monthly.Exited[last], monthly.FundedTotal[last])
			}

			return nil
		},
	}

	addConfigFlags(cmd)
	addSimFlags(cmd)
	cmd.Flags().Bool("save", true, "Persist the batch to the database")
	cmd.Flags().String("run-log", "", "Append per-run JSONL events to this file")

	return cmd
}
