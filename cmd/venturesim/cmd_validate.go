package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nvandessel/venturesim/internal/config"
)

func newValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a configuration file",
		Long: `Load a YAML configuration file and check every parameter bound,
reporting all violations at once.

In --json mode the result carries a "valid" field and the command
exits zero either way; without it an invalid configuration exits
non-zero.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("config")
			jsonOut, _ := cmd.Flags().GetBool("json")
			out := cmd.OutOrStdout()

			cfg, err := config.LoadFromFile(path)
			if err != nil {
				return err
			}

			if err := cfg.Validate(); err != nil {
				problems := strings.Split(err.Error(), "\n")
				if jsonOut {
					json.NewEncoder(out).Encode(map[string]interface{}{
						"valid":  false,
						"path":   path,
						"errors": problems,
					})
					return nil
				}
				fmt.Fprintf(out, "Configuration invalid: %s\n\n", path)
				for _, p := range problems {
					fmt.Fprintf(out, "  - %s\n", p)
				}
				return fmt.Errorf("%d problem(s) found", len(problems))
			}

			if jsonOut {
				json.NewEncoder(out).Encode(map[string]interface{}{
					"valid": true,
					"path":  path,
				})
				return nil
			}
			fmt.Fprintf(out, "Configuration valid: %s\n\n", path)
			fmt.Fprintf(out, "  Startups: %d\n", cfg.Simulation.NumStartups)
			fmt.Fprintf(out, "  Horizon:  %d months\n", cfg.Simulation.TimeHorizon)
			fmt.Fprintf(out, "  Runs:     %d\n", cfg.Simulation.NumRuns)
			return nil
		},
	}

	cmd.Flags().String("config", "", "Path to the YAML configuration file (required)")
	cmd.MarkFlagRequired("config")

	return cmd
}
