package cli

import (
	"github.com/charmbracelet/huh"
)

// Prompter asks the user for input on the terminal.
type Prompter interface {
	Confirm(title string) (bool, error)
	Input(title string) (string, error)
	Password(title string) (string, error)
}

type HuhPrompter struct{}

func (HuhPrompter) Confirm(title string) (bool, error) {
	var ok bool
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Affirmative("Yes").
				Negative("No").
				Value(&ok),
		),
	).Run()
	return ok, err
}

func (HuhPrompter) Input(title string) (string, error) {
	var s string
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title(title).
				Value(&s),
		),
	).Run()
	return s, err
}

func (HuhPrompter) Password(title string) (string, error) {
	var s string
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title(title).
				EchoMode(huh.EchoModePassword).
				Value(&s),
		),
	).Run()
	return s, err
}
