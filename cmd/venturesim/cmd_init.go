package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/nvandessel/venturesim/internal/scenario"
)

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter configuration file",
		Long: `Write a fully populated configuration file to edit and feed back in
with --config. The file starts from a preset; any field removed from
it later falls back to the default.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			outPath, _ := cmd.Flags().GetString("out")
			preset, _ := cmd.Flags().GetString("preset")
			force, _ := cmd.Flags().GetBool("force")

			if _, err := os.Stat(outPath); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", outPath)
			}

			cfg, err := scenario.Load(preset)
			if err != nil {
				return err
			}

			data, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("failed to encode config: %w", err)
			}
			header := fmt.Sprintf(`# venturesim configuration (preset: %s)
# Generated %s
#
# Any field removed from this file falls back to its default.
# Run 'venturesim validate --config %s' after editing.

`, preset, time.Now().Format(time.RFC3339), outPath)

			if err := os.WriteFile(outPath, append([]byte(header), data...), 0644); err != nil {
				return fmt.Errorf("failed to write config file: %w", err)
			}

			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]string{
					"status": "initialized",
					"path":   outPath,
					"preset": preset,
				})
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (preset: %s)\n", outPath, preset)
				fmt.Fprintf(cmd.OutOrStdout(), "Run 'venturesim run --config %s' to simulate it.\n", outPath)
			}

			return nil
		},
	}

	cmd.Flags().String("out", "venturesim.yaml", "Output path for the configuration file")
	cmd.Flags().String("preset", "baseline", "Preset to start from")
	cmd.Flags().Bool("force", false, "Overwrite an existing file")

	return cmd
}
