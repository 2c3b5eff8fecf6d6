// Package payload assembles the JSON request body sent to the LLM for
// each agent phase (spec.md §4.2): it merges a JSON request template,
// the phase's system prompt (with conditional-block expansion and
// context-variable substitution), and the caller's user prompt.
package payload

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/Daxiongmao87/termaite-go/internal/config"
	"github.com/Daxiongmao87/termaite-go/internal/shared/jsonx"
)

// Phase identifies which phase a payload is built for: one of the five
// agent phases, or the describe request of the "always allow" flow.
type Phase string

const (
	PhasePlan               Phase = "plan"
	PhaseAction              Phase = "action"
	PhaseEvaluate            Phase = "evaluate"
	PhaseSimple              Phase = "simple"
	PhaseCompletionSummary   Phase = "completion_summary"
	PhaseDescribe            Phase = "describe"
)

// BuildError is returned for every failure mode §4.2 names: a missing
// template, invalid JSON after substitution, or an unknown phase.
type BuildError struct {
	Phase  Phase
	Reason string
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("payload build failed for phase %q: %s", e.Phase, e.Reason)
}

// requestTemplate is the built-in JSON request envelope sent to the
// configured endpoint. <system_prompt>, <user_prompt>, and
// <model_name> are replaced with JSON-string-escaped values before the
// whole document is reparsed to confirm validity.
const requestTemplate = `{
  "model": <model_name>,
  "system": <system_prompt>,
  "prompt": <user_prompt>,
  "stream": false
}`

var conditionalRe = regexp.MustCompile(`(?s)\{\{if ALLOW_CLARIFYING_QUESTIONS\}\}(.*?)\{\{else\}\}(.*?)\{\{end\}\}`)

// Builder assembles payloads from a resolved Config.
type Builder struct {
	cfg      *config.Config
	allow    *config.AllowlistRepository
	hostname func() (string, error)
	now      func() time.Time
}

// New returns a Builder bound to cfg. allow is consulted to render the
// tool-instructions addendum for action/simple phases; it may be nil,
// in which case the restricted and semi-permissive addenda list no
// commands.
func New(cfg *config.Config, allow *config.AllowlistRepository) *Builder {
	return &Builder{cfg: cfg, allow: allow, hostname: os.Hostname, now: time.Now}
}

func (b *Builder) systemPromptFor(phase Phase) (string, error) {
	switch phase {
	case PhasePlan:
		return b.cfg.Prompts.Plan, nil
	case PhaseAction:
		return b.cfg.Prompts.Action, nil
	case PhaseEvaluate:
		return b.cfg.Prompts.Evaluate, nil
	case PhaseSimple:
		return b.cfg.Prompts.Simple, nil
	case PhaseCompletionSummary:
		return b.cfg.Prompts.CompletionSummary, nil
	case PhaseDescribe:
		return b.cfg.Prompts.Describe, nil
	default:
		return "", fmt.Errorf("unknown phase %q", phase)
	}
}

// expandConditionals resolves {{if ALLOW_CLARIFYING_QUESTIONS}}A{{else}}B{{end}}
// blocks and strips any residual markers left by malformed templates.
func expandConditionals(prompt string, allowClarify bool) string {
	expanded := conditionalRe.ReplaceAllStringFunc(prompt, func(block string) string {
		m := conditionalRe.FindStringSubmatch(block)
		if m == nil {
			return block
		}
		if allowClarify {
			return m[1]
		}
		return m[2]
	})

	for _, marker := range []string{"{{if ALLOW_CLARIFYING_QUESTIONS}}", "{{else}}", "{{end}}"} {
		expanded = strings.ReplaceAll(expanded, marker, "")
	}
	return expanded
}

// toolInstructions renders the phase/mode-dependent addendum described
// in spec.md §4.2 step 3.
func (b *Builder) toolInstructions(phase Phase) string {
	if phase != PhaseAction && phase != PhaseSimple {
		return ""
	}

	switch b.cfg.OperationMode {
	case config.Restricted:
		var sb strings.Builder
		sb.WriteString("<allowed_commands>\n")
		sb.WriteString("Only the following commands may be used; any other command will be refused:\n")
		for _, line := range sortedAllowlistLines(b.allow) {
			sb.WriteString(line)
			sb.WriteString("\n")
		}
		sb.WriteString("</allowed_commands>")
		return sb.String()

	case config.SemiPermissive:
		var sb strings.Builder
		sb.WriteString("<preapproved_commands>\n")
		sb.WriteString("The following commands run without prompting the user:\n")
		for _, line := range sortedAllowlistLines(b.allow) {
			sb.WriteString(line)
			sb.WriteString("\n")
		}
		sb.WriteString("Any other command will prompt the user for approval before running.\n")
		sb.WriteString("</preapproved_commands>")
		return sb.String()

	case config.Unrestricted:
		return "<unrestricted_commands>\nAny command will run immediately without approval.\n</unrestricted_commands>"

	default:
		return ""
	}
}

func sortedAllowlistLines(allow *config.AllowlistRepository) []string {
	if allow == nil {
		return nil
	}
	snapshot := allow.Snapshot()
	names := make([]string, 0, len(snapshot))
	for name := range snapshot {
		names = append(names, name)
	}
	sort.Strings(names)

	lines := make([]string, 0, len(names))
	for _, name := range names {
		lines = append(lines, fmt.Sprintf("- %s: %s", name, snapshot[name]))
	}
	return lines
}

// Build assembles the JSON request body for phase given userPrompt.
func (b *Builder) Build(phase Phase, userPrompt string) ([]byte, error) {
	systemPrompt, err := b.systemPromptFor(phase)
	if err != nil {
		return nil, &BuildError{Phase: phase, Reason: err.Error()}
	}
	if systemPrompt == "" {
		return nil, &BuildError{Phase: phase, Reason: "system prompt template is missing"}
	}

	systemPrompt = expandConditionals(systemPrompt, b.cfg.AllowClarifyingQuestion)

	host, err := b.hostname()
	if err != nil {
		host = "unknown-host"
	}

	var addendumSb strings.Builder
	addendumSb.WriteString(systemPrompt)
	if addendum := b.toolInstructions(phase); addendum != "" {
		addendumSb.WriteString("\n\n")
		addendumSb.WriteString(addendum)
	}

	context := fmt.Sprintf(
		"\n\n<context>\ntimestamp: %s\ncwd: %s\nhostname: %s\n</context>",
		b.now().UTC().Format(time.RFC3339),
		cwdOrUnknown(),
		host,
	)
	addendumSb.WriteString(context)

	finalSystemPrompt := addendumSb.String()

	systemJSON, err := jsonx.Marshal(finalSystemPrompt)
	if err != nil {
		return nil, &BuildError{Phase: phase, Reason: "could not encode system prompt: " + err.Error()}
	}
	userJSON, err := jsonx.Marshal(userPrompt)
	if err != nil {
		return nil, &BuildError{Phase: phase, Reason: "could not encode user prompt: " + err.Error()}
	}
	modelJSON, err := jsonx.Marshal(b.cfg.Model)
	if err != nil {
		return nil, &BuildError{Phase: phase, Reason: "could not encode model name: " + err.Error()}
	}

	substituted := requestTemplate
	substituted = strings.ReplaceAll(substituted, "<system_prompt>", string(systemJSON))
	substituted = strings.ReplaceAll(substituted, "<user_prompt>", string(userJSON))
	substituted = strings.ReplaceAll(substituted, "<model_name>", string(modelJSON))

	if !jsonx.Valid([]byte(substituted)) {
		return nil, &BuildError{Phase: phase, Reason: "substituted template is not valid JSON"}
	}

	var normalized any
	if err := jsonx.Unmarshal([]byte(substituted), &normalized); err != nil {
		return nil, &BuildError{Phase: phase, Reason: "reparse failed: " + err.Error()}
	}

	out, err := jsonx.Marshal(normalized)
	if err != nil {
		return nil, &BuildError{Phase: phase, Reason: "re-encode failed: " + err.Error()}
	}
	return out, nil
}

func cwdOrUnknown() string {
	wd, err := os.Getwd()
	if err != nil {
		return "unknown"
	}
	return wd
}
