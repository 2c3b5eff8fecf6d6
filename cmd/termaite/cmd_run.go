package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Daxiongmao87/termaite-go/internal/engine"
)

func newRunCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "run <prompt>",
		Short: "Drive a multi-step task through the Plan/Action/Evaluate engine",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			comps, err := buildComponents(flags)
			if err != nil {
				return err
			}
			io := newReadlineIO()
			defer io.Close()

			e := engine.New(comps.cfg, comps.builder, comps.llm, comps.safety, comps.perm, comps.exec, comps.store, comps.confirmer, io, comps.cwd).WithMetrics(comps.metrics)

			result, err := e.Run(context.Background(), strings.Join(args, " "))
			if err != nil {
				return err
			}

			switch result.Status {
			case engine.StatusCompleted:
				fmt.Println(green("task completed"))
				return nil
			case engine.StatusCancelled:
				fmt.Println(yellow("task cancelled"))
				return fmt.Errorf("cancelled")
			default:
				fmt.Println(red("task failed: " + result.Summary))
				return fmt.Errorf("task failed: %s", result.Summary)
			}
		},
	}
}
