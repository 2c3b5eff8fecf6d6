package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/Daxiongmao87/termaite-go/internal/parser"
	"github.com/Daxiongmao87/termaite-go/internal/payload"
)

// outcomeStatus is the internal result of one Evaluate-phase round
// trip, mapped from the Evaluator's decision tag (spec.md §4.8).
type outcomeStatus int

const (
	outcomeContinue outcomeStatus = iota
	outcomeVerifyAction
	outcomeCompleted
	outcomeFailed
	outcomeCancelled
)

type evalOutcome struct {
	status  outcomeStatus
	message string
}

// runEvaluate drives one Evaluate-phase round trip and maps the
// decision tag onto the next transition.
func (e *Engine) runEvaluate(ctx context.Context, state *State) (evalOutcome, error) {
	evalContext := e.evaluateContext(state)

	resp, _, err := e.callLLM(ctx, payload.PhaseEvaluate, evalContext)
	if err != nil {
		return evalOutcome{}, err
	}
	if resp.Summary != "" {
		state.Summaries.Evaluator = resp.Summary
	}

	tag, message := parser.SplitDecision(resp.Decision)
	state.LastEvalDecision = tag

	switch tag {
	case "TASK_COMPLETE":
		return evalOutcome{status: outcomeCompleted, message: message}, nil

	case "TASK_FAILED":
		return evalOutcome{status: outcomeFailed, message: message}, nil

	case "CONTINUE_PLAN":
		state.nextPlanContextHint = buildNextContextMessage(message)
		state.CurrentPlan = ""
		state.CurrentInstruction = ""
		return evalOutcome{status: outcomeContinue}, nil

	case "REVISE_PLAN":
		state.nextPlanContextHint = "the evaluator asked for a revised plan; produce a complete checklist and a single next instruction"
		state.CurrentPlan = ""
		state.CurrentInstruction = ""
		return evalOutcome{status: outcomeContinue}, nil

	case "CLARIFY_USER":
		if !e.cfg.AllowClarifyingQuestion {
			return evalOutcome{status: outcomeFailed, message: "evaluator requested clarification but clarifying questions are disabled"}, nil
		}
		answer, err := e.io.ReadLine(strings.TrimSpace(message))
		if err != nil {
			return evalOutcome{}, fmt.Errorf("read evaluator clarification: %w", err)
		}
		state.SetClarification(answer)
		state.CurrentPlan = ""
		state.CurrentInstruction = ""
		return evalOutcome{status: outcomeContinue}, nil

	case "VERIFY_ACTION":
		state.CurrentInstruction = strings.TrimSpace(message)
		return evalOutcome{status: outcomeVerifyAction}, nil

	default:
		// Unknown or empty decision tag defaults to CONTINUE_PLAN to
		// tolerate model noise (spec.md §7).
		state.LastEvalDecision = "CONTINUE_PLAN"
		state.nextPlanContextHint = "the previous evaluator response was unrecognized; continue toward the original task"
		state.CurrentPlan = ""
		state.CurrentInstruction = ""
		return evalOutcome{status: outcomeContinue}, nil
	}
}

func buildNextContextMessage(message string) string {
	if message == "" {
		return "issue the next step of the plan, or the report_task_completion sentinel if the task is done"
	}
	return message
}

// evaluateContext assembles the original prompt, current plan,
// attempted instruction, action taken/result, and any agent summaries.
func (e *Engine) evaluateContext(state *State) string {
	var sb strings.Builder
	sb.WriteString("Original task: ")
	sb.WriteString(state.OriginalPrompt)
	sb.WriteString("\n\nCurrent plan: ")
	sb.WriteString(state.CurrentPlan)
	sb.WriteString("\n\nAttempted instruction: ")
	sb.WriteString(state.CurrentInstruction)
	sb.WriteString("\n\nAction taken: ")
	sb.WriteString(state.LastActionTaken)
	sb.WriteString("\n\nAction result: ")
	sb.WriteString(state.LastActionResult)

	if state.Summaries.Planner != "" {
		sb.WriteString("\n\nPlanner summary: ")
		sb.WriteString(state.Summaries.Planner)
	}
	if state.Summaries.Actor != "" {
		sb.WriteString("\n\nActor summary: ")
		sb.WriteString(state.Summaries.Actor)
	}

	return sb.String()
}
