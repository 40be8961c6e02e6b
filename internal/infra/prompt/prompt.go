package prompt

import (
	"errors"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
)

// ErrInterrupted is returned when the user aborts a prompt with Ctrl+C.
var ErrInterrupted = errors.New("prompt interrupted")

// Terminal asks on the controlling terminal.
type Terminal struct{}

func (Terminal) Ask(label, defaultValue string) (string, error) {
	var answer string
	err := survey.AskOne(&survey.Input{Message: label, Default: defaultValue}, &answer)
	if err != nil {
		return "", translate(err)
	}
	return strings.TrimSpace(answer), nil
}

func (Terminal) Confirm(question string, defaultValue bool) (bool, error) {
	answer := defaultValue
	err := survey.AskOne(&survey.Confirm{Message: question, Default: defaultValue}, &answer)
	if err != nil {
		return false, translate(err)
	}
	return answer, nil
}

func translate(err error) error {
	if errors.Is(err, terminal.InterruptErr) {
		return ErrInterrupted
	}
	return err
}

// NonInteractive never asks and answers with the default, except that
// confirmations are always declined.
type NonInteractive struct{}

func (NonInteractive) Ask(label, defaultValue string) (string, error) {
	return defaultValue, nil
}

func (NonInteractive) Confirm(question string, defaultValue bool) (bool, error) {
	return false, nil
}

// Fixed gives an answer collected elsewhere, such as in the TUI.
type Fixed struct {
	Answer bool
}

func (f Fixed) Ask(label, defaultValue string) (string, error) {
	return defaultValue, nil
}

func (f Fixed) Confirm(question string, defaultValue bool) (bool, error) {
	return f.Answer, nil
}
