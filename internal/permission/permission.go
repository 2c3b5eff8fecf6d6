// Package permission decides, given a command and the current
// operation mode, whether execution is allowed (spec.md §4.5).
package permission

import (
	"strings"

	"github.com/Daxiongmao87/termaite-go/internal/config"
)

// Decision is the outcome of an authorization check.
type Decision string

const (
	Allow      Decision = "allow"
	Deny       Decision = "deny"
	CancelTask Decision = "cancel_task"
)

// Manager authorizes commands against the blacklist, allowlist, and
// operation mode.
type Manager struct {
	cfg       *config.Config
	allow     *config.AllowlistRepository
	prompt    Prompter
	runner    CommandRunner
	requester DescriptionRequester
}

// New returns a Manager bound to cfg's blacklist/allowlist.
func New(cfg *config.Config, allow *config.AllowlistRepository, prompt Prompter) *Manager {
	return &Manager{cfg: cfg, allow: allow, prompt: prompt}
}

// HeadToken returns the first whitespace-separated word of command,
// after stripping a single leading "sudo" or "env" (and, after "env",
// any NAME=value assignments).
func HeadToken(command string) string {
	fields := strings.Fields(strings.TrimSpace(command))
	if len(fields) == 0 {
		return ""
	}
	if fields[0] == "sudo" || fields[0] == "env" {
		isEnv := fields[0] == "env"
		fields = fields[1:]
		for isEnv && len(fields) > 0 && strings.Contains(fields[0], "=") {
			fields = fields[1:]
		}
	}
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// CommandParts splits command on the shell operators &&, ||, ;, and |,
// returning the head token of each part. spec.md §9 requires that every
// part of a compound command, at minimum, is checked against the
// blacklist even though head-token authorization only considers the
// first part for allow/deny decisions.
func CommandParts(command string) []string {
	replacer := strings.NewReplacer("&&", "\x00", "||", "\x00", ";", "\x00", "|", "\x00")
	segments := strings.Split(replacer.Replace(command), "\x00")
	heads := make([]string, 0, len(segments))
	for _, seg := range segments {
		if h := HeadToken(seg); h != "" {
			heads = append(heads, h)
		}
	}
	return heads
}

// Authorize decides whether command may run under mode. Rules are
// evaluated in the order spec.md §4.5 lists:
//  1. blacklist (of any part of a compound command) => deny
//  2. restricted: allowlist-only
//  3. unrestricted: always allow
//  4. semi-permissive: allowlist or prompt
func (m *Manager) Authorize(command string, mode config.OperationMode) (Decision, string) {
	blacklist := m.cfg.BlacklistedHeads()
	for _, head := range CommandParts(command) {
		if _, blocked := blacklist[head]; blocked {
			return Deny, "command head \"" + head + "\" is blacklisted"
		}
	}

	head := HeadToken(command)
	allowed := m.allow.Snapshot()

	switch mode {
	case config.Restricted:
		if _, ok := allowed[head]; ok {
			return Allow, "allowlisted in restricted mode"
		}
		return Deny, "command head \"" + head + "\" is not in the allowlist (restricted mode)"

	case config.Unrestricted:
		return Allow, "unrestricted mode"

	case config.SemiPermissive:
		if _, ok := allowed[head]; ok {
			return Allow, "allowlisted in semi-permissive mode"
		}
		return m.promptSemiPermissive(command, head)

	default:
		return Deny, "unknown operation mode"
	}
}

// promptSemiPermissive asks the user yes/no/always/cancel for a
// command whose head is not yet allowlisted.
func (m *Manager) promptSemiPermissive(command, head string) (Decision, string) {
	choice, err := m.prompt.Ask(command)
	if err != nil {
		return Deny, "failed to read user response: " + err.Error()
	}

	switch choice {
	case ChoiceYes:
		return Allow, "approved once by user"
	case ChoiceNo:
		return Deny, "rejected once by user"
	case ChoiceCancel:
		return CancelTask, "user cancelled the task"
	case ChoiceAlways:
		if err := m.extendAllowlist(head, command); err != nil {
			return Deny, "could not extend allowlist, denying: " + err.Error()
		}
		return Allow, "approved and allowlisted by user"
	default:
		return Deny, "unrecognized user response"
	}
}
