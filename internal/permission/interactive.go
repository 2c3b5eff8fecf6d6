package permission

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/manifoldco/promptui"
)

// InteractivePrompter asks the terminal user yes/no/always/cancel via
// a promptui select, matching the four-option flow of spec.md §4.5.
type InteractivePrompter struct {
	colorEnabled bool
}

// NewInteractivePrompter returns a Prompter that renders a promptui
// select menu.
func NewInteractivePrompter(colorEnabled bool) *InteractivePrompter {
	return &InteractivePrompter{colorEnabled: colorEnabled}
}

func (p *InteractivePrompter) Ask(command string) (Choice, error) {
	label := fmt.Sprintf("Run %q?", command)
	if p.colorEnabled {
		label = color.New(color.FgYellow, color.Bold).Sprint(label)
	}

	sel := promptui.Select{
		Label: label,
		Items: []string{
			"Yes, run once",
			"No, skip",
			"Always, trust this command from now on",
			"Cancel the task",
		},
	}

	idx, _, err := sel.Run()
	if err != nil {
		return ChoiceCancel, err
	}

	switch idx {
	case 0:
		return ChoiceYes, nil
	case 1:
		return ChoiceNo, nil
	case 2:
		return ChoiceAlways, nil
	default:
		return ChoiceCancel, nil
	}
}

// RestrictedConfirmer implements the plain [y/N] confirmation required
// in restricted mode even for allowlisted commands.
type RestrictedConfirmer struct {
	in           io.Reader
	colorEnabled bool
}

// NewRestrictedConfirmer reads confirmations from in (typically stdin).
func NewRestrictedConfirmer(in io.Reader, colorEnabled bool) *RestrictedConfirmer {
	return &RestrictedConfirmer{in: in, colorEnabled: colorEnabled}
}

func (c *RestrictedConfirmer) Confirm(command string) (bool, error) {
	prompt := fmt.Sprintf("Run %q? [y/N] ", command)
	if c.colorEnabled {
		prompt = color.New(color.FgCyan).Sprint(prompt)
	}
	fmt.Print(prompt)

	reader := bufio.NewReader(c.in)
	line, err := reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}
