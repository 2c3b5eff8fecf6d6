// Package executor runs shell commands with a bounded timeout and
// captures their exit code, stdout, and stderr, the way the teacher's
// internal/infra/coding.shellCommandRunner runs verification commands.
package executor

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"time"
)

// Result is the outcome of running one command.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Output   string
	Success  bool
	Err      error
}

// Executor runs shell commands via the system shell.
type Executor struct {
	Shell     string
	ShellFlag string
}

// New returns an Executor that hands commands to "bash -lc", matching
// the teacher's shellCommandRunner.
func New() *Executor {
	return &Executor{Shell: "bash", ShellFlag: "-lc"}
}

// Run executes command with the given timeout (0 means no timeout).
// On timeout, ExitCode is 124. On any other launch failure, ExitCode
// is -1. Output is Stdout and Stderr joined by a newline, skipping
// whichever is empty. Success is true iff ExitCode == 0 and Err == nil.
func (e *Executor) Run(ctx context.Context, command string, timeout time.Duration) Result {
	runCtx := ctx
	var cancel context.CancelFunc
	if timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, e.Shell, e.ShellFlag, command)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	result := Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	switch {
	case runCtx.Err() == context.DeadlineExceeded:
		result.ExitCode = 124
		result.Err = context.DeadlineExceeded
	case err != nil:
		if exitErr, ok := err.(*exec.ExitError); ok {
			result.ExitCode = exitErr.ExitCode()
		} else {
			result.ExitCode = -1
			result.Err = err
		}
	default:
		result.ExitCode = 0
	}

	result.Output = joinNonEmpty(result.Stdout, result.Stderr)
	result.Success = result.ExitCode == 0 && result.Err == nil
	return result
}

func joinNonEmpty(parts ...string) string {
	var nonEmpty []string
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, "\n")
}
