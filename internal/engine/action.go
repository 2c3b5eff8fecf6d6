package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/Daxiongmao87/termaite-go/internal/parser"
	"github.com/Daxiongmao87/termaite-go/internal/payload"
	"github.com/Daxiongmao87/termaite-go/internal/permission"
)

// runAction drives one Action-phase round trip (spec.md §4.8). It
// returns permission.CancelTask only when the user cancels at a
// semi-permissive approval prompt.
func (e *Engine) runAction(ctx context.Context, state *State) (permission.Decision, error) {
	actionContext := e.actionContext(state)

	resp, cleanText, err := e.callLLM(ctx, payload.PhaseAction, actionContext)
	if err != nil {
		return permission.Deny, err
	}
	if resp.Summary != "" {
		state.Summaries.Actor = resp.Summary
	}

	if resp.Command != "" {
		if parser.IsCompletionSentinel(resp.Command) {
			state.LastActionTaken = "actor signaled task completion"
			state.LastActionResult = "no command executed"
			return permission.Allow, nil
		}

		summary, decision, _ := e.authorizeAndRun(ctx, resp.Command)
		state.LastActionTaken = resp.Command
		state.LastActionResult = summary
		return decision, nil
	}

	if question := strings.TrimSpace(cleanText); question != "" && e.cfg.AllowClarifyingQuestion {
		answer, err := e.io.ReadLine(question)
		if err != nil {
			return permission.Deny, fmt.Errorf("read actor question answer: %w", err)
		}
		state.SetClarification(answer)
		state.LastActionTaken = "actor asked a question"
		state.LastActionResult = "user answered: " + answer
		return permission.Allow, nil
	}

	state.LastActionTaken = "none"
	state.LastActionResult = "actor produced no command and no question"
	return permission.Allow, nil
}

// actionContext assembles the original prompt, current instruction,
// Planner summary, and any pending user clarification (consumed here).
func (e *Engine) actionContext(state *State) string {
	var sb strings.Builder
	sb.WriteString("Original task: ")
	sb.WriteString(state.OriginalPrompt)
	sb.WriteString("\n\nCurrent instruction: ")
	sb.WriteString(state.CurrentInstruction)

	if state.Summaries.Planner != "" {
		sb.WriteString("\n\nPlanner summary: ")
		sb.WriteString(state.Summaries.Planner)
	}
	if state.HasClarification() {
		sb.WriteString("\n\nUser clarification: ")
		sb.WriteString(state.TakeClarification())
	}

	return sb.String()
}
