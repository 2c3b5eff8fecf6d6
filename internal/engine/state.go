// Package engine drives a single task from an initial user prompt to
// a terminal state by alternating Plan, Action, and Evaluate phases
// against the LLM, arbitrating shell command execution through the
// Safety Checker and Permission Manager (spec.md §4.8).
package engine

// Status is the terminal state a task ends in.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Summaries carries the optional cross-agent <summary> text each phase
// may emit, threaded into later phases' contexts: the Planner summary
// into Action and Evaluate, the Actor summary into Evaluate, and the
// Evaluator summary into Plan (spec.md §9: "Cross-agent coupling via
// textual summaries" — modeled here as an explicit record rather than
// an implicit global).
type Summaries struct {
	Planner   string
	Actor     string
	Evaluator string
}

// State is the mutable state of one in-flight task (spec.md §3 "Task
// State"). It lives for exactly one task and is discarded on
// termination.
type State struct {
	OriginalPrompt string

	CurrentPlan        string
	CurrentInstruction string

	LastActionTaken  string
	LastActionResult string
	LastEvalDecision string

	// nextPlanContextHint carries the reshaped feedback text the Plan
	// phase should see on its next call (e.g. "produce a plan anyway",
	// an Evaluator's CONTINUE_PLAN message). It is not part of spec.md's
	// Task State fields — LastEvalDecision stays the bare decision tag —
	// but the state machine needs somewhere to carry this text between
	// phases.
	nextPlanContextHint string

	userClarification string

	Iteration int

	Summaries Summaries
}

// NewState begins a task for the given user prompt.
func NewState(prompt string) *State {
	return &State{OriginalPrompt: prompt}
}

// SetClarification records a user's answer to an agent's question.
// The value is single-use: TakeClarification clears it on read.
func (s *State) SetClarification(answer string) {
	s.userClarification = answer
}

// TakeClarification reads and clears the clarification slot, enforcing
// the single-use contract spec.md §9 requires ("explicitly taken,
// read-and-clear").
func (s *State) TakeClarification() string {
	c := s.userClarification
	s.userClarification = ""
	return c
}

// HasClarification reports whether a clarification is pending, without
// consuming it.
func (s *State) HasClarification() bool {
	return s.userClarification != ""
}

// NeedsNewPlan reports whether the state machine should re-enter the
// Plan phase before Action can proceed (spec.md §3 invariant: "current_plan
// is empty ⇒ next iteration enters the Plan phase").
func (s *State) NeedsNewPlan() bool {
	return s.CurrentPlan == ""
}
