// Package config resolves the runtime Configuration (spec.md §3) from
// layered sources: built-in defaults, a JSON/YAML/TOML document,
// environment variables, and CLI flag overrides, matching the teacher's
// viper-backed cmd/cobra_cli.go pattern.
package config

import "time"

// OperationMode governs how aggressively the Permission Manager
// arbitrates command execution.
type OperationMode string

const (
	Restricted      OperationMode = "restricted"
	SemiPermissive  OperationMode = "semi-permissive"
	Unrestricted    OperationMode = "unrestricted"
)

// Valid reports whether m is one of the three defined modes.
func (m OperationMode) Valid() bool {
	switch m {
	case Restricted, SemiPermissive, Unrestricted:
		return true
	default:
		return false
	}
}

// Prompts holds the five phase system prompts (spec.md §3).
type Prompts struct {
	Plan               string `json:"plan_prompt" yaml:"plan_prompt" toml:"plan_prompt"`
	Action             string `json:"action_prompt" yaml:"action_prompt" toml:"action_prompt"`
	Evaluate           string `json:"evaluate_prompt" yaml:"evaluate_prompt" toml:"evaluate_prompt"`
	Simple             string `json:"simple_prompt" yaml:"simple_prompt" toml:"simple_prompt"`
	CompletionSummary  string `json:"completion_summary_prompt" yaml:"completion_summary_prompt" toml:"completion_summary_prompt"`
	Describe           string `json:"describe_prompt" yaml:"describe_prompt" toml:"describe_prompt"`
}

// Config is the fully resolved, read-only-at-runtime configuration.
// Reloaded (specifically, the Allowed map and its backing file) on
// allowlist mutation per spec.md §3.
type Config struct {
	Endpoint                string            `json:"endpoint" yaml:"endpoint" toml:"endpoint"`
	APIKey                  string            `json:"api_key" yaml:"api_key" toml:"api_key"`
	Model                   string            `json:"model" yaml:"model" toml:"model"`
	OperationMode           OperationMode     `json:"operation_mode" yaml:"operation_mode" toml:"operation_mode"`
	CommandTimeout          time.Duration     `json:"command_timeout" yaml:"command_timeout" toml:"command_timeout"`
	AllowClarifyingQuestion bool              `json:"allow_clarifying_questions" yaml:"allow_clarifying_questions" toml:"allow_clarifying_questions"`
	Allowed                 map[string]string `json:"allowed_commands" yaml:"allowed_commands" toml:"allowed_commands"`
	Blacklisted             map[string]string `json:"blacklisted_commands" yaml:"blacklisted_commands" toml:"blacklisted_commands"`
	ResponsePath            string            `json:"response_path" yaml:"response_path" toml:"response_path"`
	Prompts                 Prompts           `json:"prompts" yaml:"prompts" toml:"prompts"`

	// path and format record the resolved on-disk location and
	// encoding this Config was loaded from, so the allowlist
	// repository can rewrite it atomically in its original format.
	// Neither is part of the serialized document.
	path   string
	format string
}

// Path returns the file this Config was loaded from, or "" if it was
// built purely from defaults/env/flags.
func (c *Config) Path() string { return c.path }

// Format returns the detected document encoding ("json", "yaml", or
// "toml") this Config was loaded from.
func (c *Config) Format() string { return c.format }

// BlacklistedHeads returns the set of blacklisted command-head tokens,
// regardless of whether the document supplied a set (values ignored)
// or a map.
func (c *Config) BlacklistedHeads() map[string]struct{} {
	heads := make(map[string]struct{}, len(c.Blacklisted))
	for head := range c.Blacklisted {
		heads[head] = struct{}{}
	}
	return heads
}

// Defaults returns the built-in configuration defaults.
func Defaults() Config {
	return Config{
		Endpoint:                "http://localhost:11434/api/generate",
		Model:                   "llama3",
		OperationMode:           SemiPermissive,
		CommandTimeout:          30 * time.Second,
		AllowClarifyingQuestion: true,
		Allowed:                 map[string]string{},
		Blacklisted:             map[string]string{},
		ResponsePath:            ".response",
		Prompts: Prompts{
			Plan:              defaultPlanPrompt,
			Action:            defaultActionPrompt,
			Evaluate:          defaultEvaluatePrompt,
			Simple:            defaultSimplePrompt,
			CompletionSummary: defaultCompletionSummaryPrompt,
			Describe:          defaultDescribePrompt,
		},
	}
}

const defaultPlanPrompt = `You are the Planner. Produce a <checklist> of steps and the single next <instruction>.
{{if ALLOW_CLARIFYING_QUESTIONS}}If the task is ambiguous, emit <decision>CLARIFY_USER: your question</decision> instead.{{else}}Assume reasonable defaults and always produce a plan; do not ask questions.{{end}}`

const defaultActionPrompt = `You are the Actor. Emit a single shell command in a fenced block labeled agent_command, or ask a clarifying question as free text.
{{if ALLOW_CLARIFYING_QUESTIONS}}Clarifying questions are permitted.{{else}}Do not ask questions; make a reasonable assumption and act.{{end}}`

const defaultEvaluatePrompt = `You are the Evaluator. Emit <decision>TAG: message</decision> where TAG is one of CONTINUE_PLAN, REVISE_PLAN, TASK_COMPLETE, TASK_FAILED, CLARIFY_USER, VERIFY_ACTION.`

const defaultSimplePrompt = `Answer directly. If a shell command would help, emit it in a fenced block labeled agent_command.`

const defaultCompletionSummaryPrompt = `Summarize what was accomplished in a single <summary>...</summary> block.`

const defaultDescribePrompt = `You are asked to describe a shell command the user has chosen to always allow. Given the command's head token and its --help/-h output, respond with exactly one JSON object of the form {"description": "..."} containing a single, human-readable sentence describing what the command does. Do not include anything besides the JSON object.`
