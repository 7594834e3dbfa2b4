package ui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
)

// ErrNoInput is returned when a prompt needs an answer but the UI is not
// allowed to ask for one.
var ErrNoInput = errors.New("input required but running non-interactively")

// ErrInterrupted is returned when the operator aborts a prompt with Ctrl+C
var ErrInterrupted = errors.New("prompt interrupted")

func askOne(p survey.Prompt, response interface{}, opts ...survey.AskOpt) error {
	err := survey.AskOne(p, response, opts...)
	if errors.Is(err, terminal.InterruptErr) {
		return ErrInterrupted
	}
	return err
}

// validator adapts a string check to survey's validator signature
func validator(check func(string) error) survey.Validator {
	return func(ans interface{}) error {
		s, ok := ans.(string)
		if !ok {
			return fmt.Errorf("unexpected answer type %T", ans)
		}
		return check(strings.TrimSpace(s))
	}
}

// PromptYesNo prompts the user for a yes/no answer
func (u *UI) PromptYesNo(prompt string, defaultYes bool) (bool, error) {
	if u.nonInteractive {
		return defaultYes, nil
	}

	var result bool
	p := &survey.Confirm{
		Message: prompt,
		Default: defaultYes,
	}

	err := askOne(p, &result)
	return result, err
}

// PromptInputWithValidation prompts with custom validation. Empty input
// yields defaultValue; invalid input is asked again.
func (u *UI) PromptInputWithValidation(prompt, defaultValue string, check func(string) error) (string, error) {
	if u.nonInteractive {
		if defaultValue == "" {
			return "", fmt.Errorf("%s: %w", prompt, ErrNoInput)
		}
		return defaultValue, nil
	}

	var result string
	p := &survey.Input{
		Message: prompt,
		Default: defaultValue,
	}

	opts := []survey.AskOpt{}
	if check != nil {
		opts = append(opts, survey.WithValidator(validator(check)))
	}

	err := askOne(p, &result, opts...)
	return strings.TrimSpace(result), err
}

// PromptSecret prompts for hidden input that must not be empty
func (u *UI) PromptSecret(prompt string, check func(string) error) (string, error) {
	if u.nonInteractive {
		return "", fmt.Errorf("%s: %w", prompt, ErrNoInput)
	}

	var result string
	p := &survey.Password{
		Message: prompt,
	}

	opts := []survey.AskOpt{survey.WithValidator(survey.Required)}
	if check != nil {
		opts = append(opts, survey.WithValidator(validator(check)))
	}

	err := askOne(p, &result, opts...)
	return strings.TrimSpace(result), err
}
