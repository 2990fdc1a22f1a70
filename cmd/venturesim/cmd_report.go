package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report [batch-id]",
		Short: "Report on a stored batch",
		Long: `Show a stored batch: the cross-run aggregate, per-run outcomes and
the tail of the monthly series. Without a batch ID the most recent
batch is reported.

Examples:
  venturesim report
  venturesim report 9f3c...  # a batch ID from 'report --list'
  venturesim report --list`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer st.Close()

			jsonOut, _ := cmd.Flags().GetBool("json")
			out := cmd.OutOrStdout()
			ctx := cmd.Context()

			list, _ := cmd.Flags().GetBool("list")
			if list {
				infos, err := st.ListBatches(ctx)
				if err != nil {
					return err
				}
				if jsonOut {
					json.NewEncoder(out).Encode(map[string]interface{}{
						"batches": infos,
						"count":   len(infos),
					})
					return nil
				}
				if len(infos) == 0 {
					fmt.Fprintln(out, "No batches stored.")
					return nil
				}
				fmt.Fprintf(out, "Stored batches (%d):\n\n", len(infos))
				fmt.Fprintf(out, "%-36s %-20s %6s %7s %12s\n", "ID", "Created", "Runs", "Failed", "Elapsed")
				fmt.Fprintln(out, repeatChar('-', 86))
				for _, info := range infos {
					fmt.Fprintf(out, "%-36s %-20s %6d %7d %12v\n",
						info.ID, info.CreatedAt.UTC().Format(time.RFC3339), info.NumRuns, info.FailedRuns, info.Elapsed)
				}
				return nil
			}

			var id string
			if len(args) == 1 {
				id = args[0]
			} else {
				id, err = st.LatestBatchID(ctx)
				if err != nil {
					return err
				}
			}

			batch, err := st.GetBatch(ctx, id)
			if err != nil {
				return err
			}

			if jsonOut {
				json.NewEncoder(out).Encode(batch)
				return nil
			}

			fmt.Fprintf(out, "Batch Report\n")
			fmt.Fprintf(out, "============\n\n")
			fmt.Fprintf(out, "Batch:   %s\n", batch.Info.ID)
			fmt.Fprintf(out, "Created: %s\n", batch.Info.CreatedAt.UTC().Format(time.RFC3339))
			fmt.Fprintf(out, "Runs:    %d (%d failed)\n", batch.Info.NumRuns, batch.Info.FailedRuns)
			fmt.Fprintf(out, "Elapsed: %v\n\n", batch.Info.Elapsed)

			printAggregate(out, batch.Aggregate)
			fmt.Fprintln(out)

			fmt.Fprintf(out, "Runs:\n\n")
			fmt.Fprintf(out, "%4s %21s %7s %9s %9s %9s %13s\n",
				"Run", "Seed", "Months", "Failure", "Success", "Funded", "Top valuation")
			fmt.Fprintln(out, repeatChar('-', 78))
			for _, r := range batch.Runs {
				s := r.Summary
				fmt.Fprintf(out, "%4d %21s %7d %9.4f %9.4f %9.4f %13.4g\n",
					s.Run, strconv.FormatUint(s.Seed, 10), s.MonthsSimulated,
					s.FailureRate, s.SuccessRate, s.FundedRate, s.TopValuation)
				if r.Error != "" {
					fmt.Fprintf(out, "     error: %s\n", r.Error)
				}
			}

			if len(batch.Aggregate.Monthly.Active) > 0 {
				fmt.Fprintln(out)
				printMonthlyTail(out, batch.Aggregate.Monthly, 12)
			}

			return nil
		},
	}

	cmd.Flags().Bool("list", false, "List stored batches instead of detailing one")

	return cmd
}
