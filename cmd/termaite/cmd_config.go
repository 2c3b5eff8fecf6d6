package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Daxiongmao87/termaite-go/internal/config"
)

func newConfigCommand(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the resolved configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the fully resolved configuration (secrets redacted)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(loadOverrides(flags))
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			out, err := config.Show(cfg)
			if err != nil {
				return fmt.Errorf("render configuration: %w", err)
			}
			fmt.Print(out)
			return nil
		},
	})

	return cmd
}
