package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/Daxiongmao87/termaite-go/internal/config"
)

func newAllowlistCommand(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "allowlist",
		Short: "Inspect or seed the command allowlist without the LLM description flow",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List allowlisted command heads and their descriptions",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(loadOverrides(flags))
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			allow := config.NewAllowlistRepository(cfg)
			snapshot := allow.Snapshot()
			if len(snapshot) == 0 {
				fmt.Println(gray("the allowlist is empty"))
				return nil
			}

			names := make([]string, 0, len(snapshot))
			for name := range snapshot {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				fmt.Printf("%s: %s\n", bold(name), snapshot[name])
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "add <command> <description>",
		Short: "Pre-approve a command head with an operator-supplied description",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(loadOverrides(flags))
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			allow := config.NewAllowlistRepository(cfg)
			if err := allow.AddAllowed(args[0], args[1]); err != nil {
				return fmt.Errorf("add allowlist entry: %w", err)
			}
			fmt.Printf("%s allowlisted %s\n", green("added"), bold(args[0]))
			return nil
		},
	})

	return cmd
}

func loadOverrides(flags *globalFlags) config.Overrides {
	return config.Overrides{
		Endpoint:      flags.endpoint,
		Model:         flags.model,
		OperationMode: flags.mode,
		Timeout:       flags.timeout,
		ConfigPath:    flags.configPath,
	}
}
