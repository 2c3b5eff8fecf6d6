package permission

import (
	"context"
	"fmt"
	"time"

	"github.com/Daxiongmao87/termaite-go/internal/shared/jsonx"
)

// maxHelpTextLen bounds how much of a command's --help/-h output is
// forwarded to the description request (spec.md §4.5: "truncate to a
// bounded length").
const maxHelpTextLen = 2000

// helpTimeout bounds the --help/-h capture independent of
// CommandTimeout, since a misbehaving binary's --help should never
// stall the approval flow.
const helpTimeout = 3 * time.Second

// CommandRunner is the minimal surface always-allow needs from the
// Command Executor to capture help output.
type CommandRunner interface {
	Run(ctx context.Context, command string, timeout time.Duration) (output string, success bool)
}

// DescriptionRequester asks the LLM for a one-sentence description of
// a command, constrained to a JSON object with a "description" field.
type DescriptionRequester interface {
	DescribeCommand(ctx context.Context, head, helpText string) (string, error)
}

// WithDescriptionFlow wires the runner and requester the "always" flow
// needs. Must be called before any Authorize() call reaches
// semi-permissive "always" handling, or extendAllowlist fails closed.
func (m *Manager) WithDescriptionFlow(runner CommandRunner, requester DescriptionRequester) *Manager {
	m.runner = runner
	m.requester = requester
	return m
}

// extendAllowlist captures help output for head, asks the LLM for a
// description, and persists the new allowlist entry. Any failure in
// this flow falls back to deny for the current invocation (spec.md
// §4.5, §7): the allowlist is left untouched and the error is
// propagated to the caller, which denies execution.
func (m *Manager) extendAllowlist(head, command string) error {
	if m.runner == nil || m.requester == nil {
		return fmt.Errorf("always-allow flow is not configured")
	}

	ctx, cancel := context.WithTimeout(context.Background(), helpTimeout)
	defer cancel()

	helpText, ok := m.runner.Run(ctx, head+" --help", helpTimeout)
	if !ok || helpText == "" {
		helpText, ok = m.runner.Run(ctx, head+" -h", helpTimeout)
	}
	if len(helpText) > maxHelpTextLen {
		helpText = helpText[:maxHelpTextLen]
	}

	description, err := m.requester.DescribeCommand(ctx, head, helpText)
	if err != nil {
		return fmt.Errorf("describe command: %w", err)
	}

	description, err = parseDescription(description)
	if err != nil {
		return fmt.Errorf("parse description: %w", err)
	}
	if description == "" {
		return fmt.Errorf("empty description returned")
	}

	return m.allow.AddAllowed(head, description)
}

func parseDescription(raw string) (string, error) {
	var payload struct {
		Description string `json:"description"`
	}
	if err := jsonx.UnmarshalLenient([]byte(raw), &payload); err != nil {
		return "", err
	}
	return payload.Description, nil
}
