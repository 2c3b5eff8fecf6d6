package main

import (
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// Color helpers for terminal output, matching the teacher's
// cmd/cobra_cli.go palette.
var (
	blue   = color.New(color.FgBlue).SprintFunc()
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	gray   = color.New(color.FgHiBlack).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

// globalFlags carries the root command's persistent flags through to
// every subcommand's component wiring.
type globalFlags struct {
	configPath  string
	mode        string
	model       string
	endpoint    string
	timeout     time.Duration
	verbose     bool
	metricsAddr string
}

func isTTY() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// NewRootCommand builds the termaite cobra command tree.
func NewRootCommand() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:   "termaite",
		Short: "An interactive shell assistant driven by an LLM",
		Long: bold("termaite") + ` drives natural-language tasks to completion by
alternating calls to an LLM with the execution of shell commands on the
local host, arbitrated by a safety checker and a permission manager.

With no subcommand and a terminal attached, termaite starts an
interactive REPL. Otherwise use "run" for a single multi-step task or
"ask" for a single-turn question.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !isTTY() {
				return cmd.Help()
			}
			return runREPL(flags)
		},
	}

	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "path to a config file (json/yaml/toml)")
	root.PersistentFlags().StringVar(&flags.mode, "mode", "", "operation mode: restricted|semi-permissive|unrestricted")
	root.PersistentFlags().StringVar(&flags.model, "model", "", "override the configured model name")
	root.PersistentFlags().StringVar(&flags.endpoint, "endpoint", "", "override the configured LLM endpoint")
	root.PersistentFlags().DurationVar(&flags.timeout, "timeout", 0, "override the command execution timeout")
	root.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "verbose logging")
	root.PersistentFlags().StringVar(&flags.metricsAddr, "metrics-addr", "", "expose Prometheus metrics on this address (e.g. :9090); disabled if empty")

	root.AddCommand(newRunCommand(flags))
	root.AddCommand(newAskCommand(flags))
	root.AddCommand(newAllowlistCommand(flags))
	root.AddCommand(newConfigCommand(flags))

	return root
}
