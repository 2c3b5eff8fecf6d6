// Package parser extracts semantic fields from free-form LLM text using
// named tag delimiters. Every extractor is tolerant of absence: a
// missing tag yields the zero value rather than an error, because the
// LLM is free to omit or malform any of them.
package parser

import (
	"regexp"
	"strings"
)

// Response holds every field the engine might need from one LLM reply.
type Response struct {
	Thought     string
	Checklist   string
	Instruction string
	Decision    string
	Summary     string
	Command     string
}

var (
	thinkRe      = regexp.MustCompile(`(?s)<think>(.*?)</think>`)
	checklistRe  = regexp.MustCompile(`(?s)<checklist>(.*?)</checklist>`)
	instrRe      = regexp.MustCompile(`(?s)<instruction>(.*?)</instruction>`)
	decisionRe   = regexp.MustCompile(`(?s)<decision>(.*?)</decision>`)
	summaryRe    = regexp.MustCompile(`(?s)<summary>(.*?)</summary>`)
	commandFence = regexp.MustCompile("(?s)```agent_command\\s*\\n?(.*?)```")
	blankRunsRe  = regexp.MustCompile(`\n{3,}`)
)

// Parse extracts every known tag from text. Parsing is idempotent:
// calling Parse twice on the same text yields identical fields.
func Parse(text string) Response {
	return Response{
		Thought:     firstMatch(thinkRe, text),
		Checklist:   firstMatch(checklistRe, text),
		Instruction: firstMatch(instrRe, text),
		Decision:    firstMatch(decisionRe, text),
		Summary:     firstMatch(summaryRe, text),
		Command:     firstMatch(commandFence, text),
	}
}

func firstMatch(re *regexp.Regexp, text string) string {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// SplitDecision splits a decision string at the first ':' into a tag
// and a message. A decision with no ':' is treated as the whole string
// being the tag with an empty message.
func SplitDecision(decision string) (tag string, message string) {
	decision = strings.TrimSpace(decision)
	idx := strings.Index(decision, ":")
	if idx < 0 {
		return decision, ""
	}
	return strings.TrimSpace(decision[:idx]), strings.TrimSpace(decision[idx+1:])
}

// CleanText strips <think> regions and the agent_command fence from
// text for simple-mode display, then collapses runs of blank lines.
func CleanText(text string) string {
	cleaned := thinkRe.ReplaceAllString(text, "")
	cleaned = commandFence.ReplaceAllString(cleaned, "")
	cleaned = blankRunsRe.ReplaceAllString(cleaned, "\n\n")
	return strings.TrimSpace(cleaned)
}

// IsCompletionSentinel reports whether a command string is the literal
// sentinel the Actor uses to signal completion without execution.
func IsCompletionSentinel(command string) bool {
	return strings.TrimSpace(command) == "report_task_completion"
}
