package engine

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
	"github.com/Daxiongmao87/termaite-go/internal/tokenbudget"
)

// completionSummaryTokenBudget bounds the session history handed to the
// completion_summary phase, so a long-running task's transcript never
// grows the request beyond a reasonable size.
const completionSummaryTokenBudget = 4000

// hardIterationCap bounds the state machine against a misbehaving LLM
// that never reaches a terminal decision. It is an operational
// safeguard, not a user-visible setting, mirroring the teacher's
// kernel.MaxIterations guard.
const hardIterationCap = 150

// PayloadBuilder is the narrow surface runAction/runPlan/runEvaluate
// need from the Payload Builder, satisfied by *payload.Builder.
type PayloadBuilder interface {
	Build(phase payload.Phase, userPrompt string) ([]byte, error)
}

// LLMSender is the narrow surface the engine needs from the LLM
// Client, satisfied by *llmclient.Client.
type LLMSender interface {
	Send(ctx context.Context, jsonBody []byte) (string, error)
}

// CommandRunner is the narrow surface the engine needs from the
// Command Executor, satisfied by *executor.Executor.
type CommandRunner interface {
	Run(ctx context.Context, command string, timeout time.Duration) executor.Result
}

// Engine coordinates one task's Plan/Action/Evaluate loop.
type Engine struct {
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

// WithMetrics attaches a Prometheus recorder. Unset, phase and
// classification recording is a no-op.
func (e *Engine) WithMetrics(m *metrics.Metrics) *Engine {
	e.metrics = m
	return e
}

// New wires an Engine from its already-constructed collaborators.
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
) *Engine {
	return &Engine{
		cfg:       cfg,
		builder:   builder,
		llm:       llm,
		safety:    checker,
		perm:      perm,
		exec:      exec,
		store:     store,
		confirmer: confirmer,
		io:        io,
		logger:    logging.NewComponentLogger("engine"),
		cwd:       cwd,
	}
}

// Result is what Run returns once a task reaches a terminal state.
type Result struct {
	Status  Status
	Summary string
}

// callLLM builds the phase payload, sends it, appends the round trip
// to the context store, and parses the response. The context store
// append happens before any further state mutation, per spec.md §3's
// invariant ordering. It returns both the parsed fields and the clean
// (tag-stripped) text, since the Action phase needs the latter to
// detect a free-text question.
func (e *Engine) callLLM(ctx context.Context, phase payload.Phase, userPrompt string) (_ parser.Response, _ string, err error) {
	start := time.Now()
	defer func() { e.metrics.RecordPhase(string(phase), time.Since(start)) }()

	spanCtx, span := startPhaseSpan(ctx, string(phase))
	defer func() {
		markSpanResult(span, err)
		span.End()
	}()
	ctx = spanCtx

	body, err := e.builder.Build(phase, userPrompt)
	if err != nil {
		return parser.Response{}, "", fmt.Errorf("build %s payload: %w", phase, err)
	}

	raw, sendErr := e.llm.Send(ctx, body)
	if appendErr := e.store.Append(e.cwd, userPrompt, raw); appendErr != nil {
		e.logger.Warn("context store append failed: %v", appendErr)
	}
	if sendErr != nil {
		err = fmt.Errorf("%s phase: %w", phase, sendErr)
		return parser.Response{}, "", err
	}

	resp := parser.Parse(raw)
	if resp.Thought != "" {
		e.logger.Debug("%s thought: %s", phase, resp.Thought)
	}
	return resp, parser.CleanText(raw), nil
}

// Run drives prompt from Plan to a terminal state.
func (e *Engine) Run(ctx context.Context, prompt string) (Result, error) {
	state := NewState(prompt)

	for state.Iteration < hardIterationCap {
		state.Iteration++

		if state.NeedsNewPlan() {
			cancelled, err := e.runPlan(ctx, state)
			if err != nil {
				return Result{Status: StatusFailed}, err
			}
			if cancelled {
				return Result{Status: StatusCancelled}, nil
			}
			if state.NeedsNewPlan() {
				// Clarification loop: PLAN re-entered without a plan.
				continue
			}
		}

		decision, err := e.runAction(ctx, state)
		if err != nil {
			return Result{Status: StatusFailed}, err
		}
		if decision == permission.CancelTask {
			return Result{Status: StatusCancelled}, nil
		}

		outcome, err := e.runEvaluate(ctx, state)
		if err != nil {
			return Result{Status: StatusFailed}, err
		}

		switch outcome.status {
		case outcomeContinue:
			continue
		case outcomeVerifyAction:
			continue
		case outcomeCompleted:
			summary := e.runCompletionSummary(ctx, state)
			return Result{Status: StatusCompleted, Summary: summary}, nil
		case outcomeFailed:
			return Result{Status: StatusFailed, Summary: outcome.message}, nil
		case outcomeCancelled:
			return Result{Status: StatusCancelled, Summary: outcome.message}, nil
		}
	}

	return Result{Status: StatusFailed, Summary: "task exceeded the maximum number of iterations"}, nil
}

// runCompletionSummary sends the session's textual history through the
// completion_summary phase and returns the printed <summary> text
// (spec.md §4.8, TASK_COMPLETE branch).
func (e *Engine) runCompletionSummary(ctx context.Context, state *State) string {
	history := fmt.Sprintf(
		"original task: %s\nlast plan: %s\nlast instruction: %s\nlast action: %s\nlast result: %s\nfinal decision: %s",
		state.OriginalPrompt, state.CurrentPlan, state.CurrentInstruction,
		state.LastActionTaken, state.LastActionResult, state.LastEvalDecision,
	)
	history = tokenbudget.Truncate(history, completionSummaryTokenBudget)

	resp, _, err := e.callLLM(ctx, payload.PhaseCompletionSummary, history)
	if err != nil {
		e.logger.Warn("completion summary failed: %v", err)
		return ""
	}
	if resp.Summary != "" {
		e.io.Println(resp.Summary)
	}
	return resp.Summary
}

// authorizeAndRun runs command through Safety then Permission, honoring
// the restricted-mode confirmation requirement even for allowlisted
// commands, then executes it if allowed. It returns a human-readable
// description of what happened (for threading into the next phase's
// context) and the resulting Decision.
func (e *Engine) authorizeAndRun(ctx context.Context, command string) (string, permission.Decision, executor.Result) {
	classification, notes := e.safety.Check(command)
	e.metrics.RecordClassification(string(classification))
	if classification == safety.Dangerous {
		return fmt.Sprintf("command %q rejected: %s", command, joinNotes(notes)), permission.Deny, executor.Result{}
	}

	decision, reason := e.perm.Authorize(command, e.cfg.OperationMode)
	switch decision {
	case permission.Deny:
		return fmt.Sprintf("command %q denied: %s", command, reason), decision, executor.Result{}
	case permission.CancelTask:
		return "user cancelled the task at the approval prompt", decision, executor.Result{}
	}

	if e.cfg.OperationMode == config.Restricted && e.confirmer != nil {
		ok, err := e.confirmer.Confirm(command)
		if err != nil || !ok {
			return fmt.Sprintf("command %q declined by user confirmation", command), permission.Deny, executor.Result{}
		}
	}

	execStart := time.Now()
	result := e.exec.Run(ctx, command, e.cfg.CommandTimeout)
	e.metrics.RecordExecutorDuration(time.Since(execStart))
	summary := fmt.Sprintf("command %q exited %d: %s", command, result.ExitCode, result.Output)
	return summary, permission.Allow, result
}

func joinNotes(notes []string) string {
	if len(notes) == 0 {
		return "matched a dangerous pattern"
	}
	return notes[0]
}
