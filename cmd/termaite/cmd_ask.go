package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Daxiongmao87/termaite-go/internal/simple"
)

func newAskCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "ask <prompt>",
		Short: "Answer a single prompt, optionally running one suggested command",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			comps, err := buildComponents(flags)
			if err != nil {
				return err
			}
			io := newReadlineIO()
			defer io.Close()

			h := simple.New(comps.cfg, comps.builder, comps.llm, comps.safety, comps.perm, comps.exec, comps.store, comps.confirmer, io, comps.cwd).WithMetrics(comps.metrics)

			ok, err := h.Handle(context.Background(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("command did not succeed")
			}
			return nil
		},
	}
}
