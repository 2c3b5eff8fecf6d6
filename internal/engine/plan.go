package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/Daxiongmao87/termaite-go/internal/parser"
	"github.com/Daxiongmao87/termaite-go/internal/payload"
)

// runPlan drives one Plan-phase round trip (spec.md §4.8). The
// cancelled result is always false: nothing in the Plan phase cancels
// a task, and the result exists for symmetry with runAction.
func (e *Engine) runPlan(ctx context.Context, state *State) (cancelled bool, err error) {
	planContext := e.planContext(state)

	resp, _, err := e.callLLM(ctx, payload.PhasePlan, planContext)
	if err != nil {
		return false, err
	}

	if resp.Summary != "" {
		state.Summaries.Planner = resp.Summary
	}

	tag, message := parser.SplitDecision(resp.Decision)
	if tag == "CLARIFY_USER" {
		if e.cfg.AllowClarifyingQuestion {
			answer, err := e.io.ReadLine(strings.TrimSpace(message))
			if err != nil {
				return false, fmt.Errorf("read clarification: %w", err)
			}
			state.SetClarification(answer)
			state.LastEvalDecision = "PLANNER_CLARIFY"
			state.nextPlanContextHint = ""
			state.CurrentPlan = ""
			return false, nil
		}
		// Questions disabled: reshape the context to insist on a plan
		// and loop without user interaction (spec.md §4.8, scenario 4).
		state.LastEvalDecision = "PLANNER_CLARIFY"
		state.nextPlanContextHint = "clarifying questions are disabled; make a reasonable assumption and produce a complete plan and first instruction"
		state.CurrentPlan = ""
		return false, nil
	}

	if resp.Checklist == "" || resp.Instruction == "" {
		// Treat as REVISE_PLAN: stay in the Plan phase next iteration.
		state.LastEvalDecision = "REVISE_PLAN"
		state.nextPlanContextHint = "the previous plan was incomplete or malformed; produce a complete checklist and a single next instruction"
		state.CurrentPlan = ""
		return false, nil
	}

	state.CurrentPlan = resp.Checklist
	state.CurrentInstruction = resp.Instruction
	return false, nil
}

// planContext assembles the "next context" text carried into the Plan
// phase: the original prompt, plus any reshaped feedback hint left by
// the previous phase, plus the Evaluator summary if any, plus any
// pending user clarification (consumed here).
func (e *Engine) planContext(state *State) string {
	var sb strings.Builder
	sb.WriteString("Original task: ")
	sb.WriteString(state.OriginalPrompt)

	if state.nextPlanContextHint != "" {
		sb.WriteString("\n\n")
		sb.WriteString(state.nextPlanContextHint)
		state.nextPlanContextHint = ""
	}

	if state.Summaries.Evaluator != "" {
		sb.WriteString("\n\nEvaluator summary: ")
		sb.WriteString(state.Summaries.Evaluator)
	}

	if state.HasClarification() {
		sb.WriteString("\n\nUser clarification: ")
		sb.WriteString(state.TakeClarification())
	}

	return sb.String()
}
