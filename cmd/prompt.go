package main

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/desertthunder/tracklist/internal/shared"
)

// prompter asks the user for input the flags did not supply.
type prompter interface {
	Password(title string) (string, error)
	Confirm(title string) (bool, error)
}

// huhPrompter prompts on the terminal with huh fields.
type huhPrompter struct{}

func (huhPrompter) Password(title string) (string, error) {
	var password string
	err := huh.NewInput().
		Title(title).
		EchoMode(huh.EchoModePassword).
		Value(&password).
		Run()
	if errors.Is(err, huh.ErrUserAborted) {
		return "", fmt.Errorf("%w: password prompt aborted", shared.ErrMissingArgument)
	}
	return password, err
}

func (huhPrompter) Confirm(title string) (bool, error) {
	var ok bool
	err := huh.NewConfirm().
		Title(title).
		Affirmative("Yes").
		Negative("No").
		Value(&ok).
		Run()
	if errors.Is(err, huh.ErrUserAborted) {
		return false, nil
	}
	return ok, err
}

// password returns the --password flag, prompting when it is empty.
func (r *Runner) password(flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	return r.prompt.Password("Password")
}
