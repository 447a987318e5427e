package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newConfigCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, globalPath, projectPath, err := loadConfig(flags)
			if err != nil {
				return err
			}

			if cfg.Images.APIKey != "" {
				cfg.Images.APIKey = "********"
			}

			data, err := json.MarshalIndent(cfg, "", "  ")
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "# global:  %s\n# project: %s\n", globalPath, projectPath)
			fmt.Fprintln(out, string(data))
			return nil
		},
	}
}
