// Package simple implements the single-turn response mode (spec.md
// §4.9), sharing the Parser, Payload Builder, LLM Client, Safety,
// Permission, and Command Executor with the Task Engine.
package simple

import (
	"context"
	"fmt"
	"time"

	"github.com/Daxiongmao87/termaite-go/internal/config"
	"github.com/Daxiongmao87/termaite-go/internal/contextstore"
	"github.com/Daxiongmao87/termaite-go/internal/executor"
	"github.com/Daxiongmao87/termaite-go/internal/logging"
	"github.com/Daxiongmao87/termaite-go/internal/metrics"
	"github.com/Daxiongmao87/termaite-go/internal/parser"
	"github.com/Daxiongmao87/termaite-go/internal/payload"
	"github.com/Daxiongmao87/termaite-go/internal/permission"
	"github.com/Daxiongmao87/termaite-go/internal/safety"
)

// PayloadBuilder is the narrow Payload Builder surface Handle needs.
type PayloadBuilder interface {
	Build(phase payload.Phase, userPrompt string) ([]byte, error)
}

// LLMSender is the narrow LLM Client surface Handle needs.
type LLMSender interface {
	Send(ctx context.Context, jsonBody []byte) (string, error)
}

// CommandRunner is the narrow Command Executor surface Handle needs.
type CommandRunner interface {
	Run(ctx context.Context, command string, timeout time.Duration) executor.Result
}

// UserIO prints the cleaned response text to the user.
type UserIO interface {
	Println(line string)
}

// Handler implements the single-shot response mode.
type Handler struct {
	cfg       *config.Config
	builder   PayloadBuilder
	llm       LLMSender
	safety    *safety.Checker
	perm      *permission.Manager
	exec      CommandRunner
	store     *contextstore.Store
	confirmer permission.Confirmer
	io        UserIO
	logger    logging.Logger
	cwd       string
	metrics   *metrics.Metrics
}

// WithMetrics attaches a Prometheus recorder. Unset, classification and
// duration recording is a no-op.
func (h *Handler) WithMetrics(m *metrics.Metrics) *Handler {
	h.metrics = m
	return h
}

// New wires a Handler from its collaborators.
func New(
	cfg *config.Config,
	builder PayloadBuilder,
	llm LLMSender,
	checker *safety.Checker,
	perm *permission.Manager,
	exec CommandRunner,
	store *contextstore.Store,
	confirmer permission.Confirmer,
	io UserIO,
	cwd string,
) *Handler {
	return &Handler{
		cfg:       cfg,
		builder:   builder,
		llm:       llm,
		safety:    checker,
		perm:      perm,
		exec:      exec,
		store:     store,
		confirmer: confirmer,
		io:        io,
		logger:    logging.NewComponentLogger("simple"),
		cwd:       cwd,
	}
}

// Handle builds a simple payload for prompt, displays the response,
// and — if the LLM suggested a command — authorizes and runs it. It
// returns the executed command's success (true if no command was
// suggested at all).
func (h *Handler) Handle(ctx context.Context, prompt string) (bool, error) {
	resp, raw, err := h.call(ctx, prompt)
	if err != nil {
		return false, err
	}

	h.io.Println(parser.CleanText(raw))

	if resp.Command == "" {
		return true, nil
	}
	if parser.IsCompletionSentinel(resp.Command) {
		return true, nil
	}

	classification, notes := h.safety.Check(resp.Command)
	h.metrics.RecordClassification(string(classification))
	if classification == safety.Dangerous {
		h.io.Println(fmt.Sprintf("command %q rejected: %s", resp.Command, joinNotes(notes)))
		return false, nil
	}

	decision, reason := h.perm.Authorize(resp.Command, h.cfg.OperationMode)
	switch decision {
	case permission.Deny:
		h.io.Println(fmt.Sprintf("command %q denied: %s", resp.Command, reason))
		return false, nil
	case permission.CancelTask:
		h.io.Println("cancelled")
		return false, nil
	}

	if h.cfg.OperationMode == config.Restricted && h.confirmer != nil {
		ok, err := h.confirmer.Confirm(resp.Command)
		if err != nil || !ok {
			return false, nil
		}
	}

	execStart := time.Now()
	result := h.exec.Run(ctx, resp.Command, h.cfg.CommandTimeout)
	h.metrics.RecordExecutorDuration(time.Since(execStart))
	if result.Success {
		return true, nil
	}

	h.explainFailure(ctx, resp.Command, result)
	return false, nil
}

// explainFailure sends a second simple prompt describing the failing
// command, its exit code, and its output, asking the LLM for a
// human-readable explanation, then prints it.
func (h *Handler) explainFailure(ctx context.Context, command string, result executor.Result) {
	followUp := fmt.Sprintf(
		"The command `%s` failed with exit code %d. Output:\n%s\n\nExplain in plain language what went wrong.",
		command, result.ExitCode, result.Output,
	)

	_, raw, err := h.call(ctx, followUp)
	if err != nil {
		h.logger.Warn("failure explanation request failed: %v", err)
		return
	}
	h.io.Println(parser.CleanText(raw))
}

// call builds the simple payload, sends it, appends the round trip to
// the context store, and parses the response.
func (h *Handler) call(ctx context.Context, prompt string) (parser.Response, string, error) {
	start := time.Now()
	defer func() { h.metrics.RecordPhase(string(payload.PhaseSimple), time.Since(start)) }()

	body, err := h.builder.Build(payload.PhaseSimple, prompt)
	if err != nil {
		return parser.Response{}, "", fmt.Errorf("build simple payload: %w", err)
	}

	raw, err := h.llm.Send(ctx, body)
	if appendErr := h.store.Append(h.cwd, prompt, raw); appendErr != nil {
		h.logger.Warn("context store append failed: %v", appendErr)
	}
	if err != nil {
		return parser.Response{}, "", fmt.Errorf("simple phase: %w", err)
	}

	return parser.Parse(raw), raw, nil
}

func joinNotes(notes []string) string {
	if len(notes) == 0 {
		return "matched a dangerous pattern"
	}
	return notes[0]
}
