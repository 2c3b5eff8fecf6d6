package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"

	"github.com/Daxiongmao87/termaite-go/internal/engine"
)

// runREPL drives one task per entered line through the Task Engine
// until the user exits via Ctrl-D or Ctrl-C at the prompt
// (SPEC_FULL.md §4.11, spec.md §5 "Cancellation").
func runREPL(flags *globalFlags) error {
	comps, err := buildComponents(flags)
	if err != nil {
		return err
	}

	rio := newReadlineIO()
	defer rio.Close()

	e := engine.New(comps.cfg, comps.builder, comps.llm, comps.safety, comps.perm, comps.exec, comps.store, comps.confirmer, rio, comps.cwd).WithMetrics(comps.metrics)

	fmt.Println(bold("termaite") + " interactive mode. Type a task, or Ctrl-D to exit.")

	for {
		line, err := rio.ReadLine("")
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				return nil
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		prompt := strings.TrimSpace(line)
		if prompt == "" {
			continue
		}

		result, err := e.Run(context.Background(), prompt)
		if err != nil {
			fmt.Println(red(fmt.Sprintf("error: %v", err)))
			continue
		}

		switch result.Status {
		case engine.StatusCompleted:
			fmt.Println(green("task completed"))
		case engine.StatusCancelled:
			fmt.Println(yellow("task cancelled"))
		default:
			fmt.Println(red("task failed: " + result.Summary))
		}
	}
}
