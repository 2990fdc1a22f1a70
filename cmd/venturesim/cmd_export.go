package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export [batch-id]",
		Short: "Export a batch's final agent records",
		Long: `Export the final per-agent outcomes of a stored batch, one record per
agent per run, for external analysis. Without a batch ID the most
recent batch is exported.

Examples:
  venturesim export --format csv --out agents.csv
  venturesim export 9f3c... --format jsonl > agents.jsonl`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")
			outPath, _ := cmd.Flags().GetString("out")

			if format != "jsonl" && format != "csv" {
				return fmt.Errorf("unsupported format %q (use jsonl or csv)", format)
			}

			st, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer st.Close()

			ctx := cmd.Context()
			var id string
			if len(args) == 1 {
				id = args[0]
			} else {
				id, err = st.LatestBatchID(ctx)
				if err != nil {
					return err
				}
			}

			var w io.Writer = cmd.OutOrStdout()
			if outPath != "" {
				f, err := os.Create(outPath)
				if err != nil {
					return fmt.Errorf("failed to create output file: %w", err)
				}
				defer f.Close()
				w = f
			}

			switch format {
			case "jsonl":
				err = st.ExportJSONL(ctx, id, w)
			case "csv":
				err = st.ExportCSV(ctx, id, w)
			}
			if err != nil {
				return err
			}

			// Writing to stdout leaves the stream as pure data.
			if outPath == "" {
				return nil
			}

			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]string{
					"status":   "exported",
					"batch_id": id,
					"format":   format,
					"path":     outPath,
				})
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Exported batch %s to %s (%s)\n", id, outPath, format)
			}

			return nil
		},
	}

	cmd.Flags().String("format", "jsonl", "Export format: jsonl or csv")
	cmd.Flags().String("out", "", "Output file (default stdout)")

	return cmd
}
