// Command termaite is the interactive shell assistant's entry point: a
// cobra command tree wiring the Config Loader, Safety Checker,
// Permission Manager, Command Executor, Payload Builder, LLM Client,
// Context Store, Task Engine, and Simple Handler (SPEC_FULL.md §4.11).
package main

import (
	"context"
	"fmt"
	"os"
)

func main() {
	shutdown := initTracing()
	defer shutdown(context.Background())

	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", red("Error:"), err)
		os.Exit(1)
	}
}
