package tui

import (
	"errors"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/mattn/go-isatty"
)

var (
	// ErrInteractiveDisabled is returned when prompts are disabled via PATCHSTACK_TEST_NO_INTERACTIVE
	ErrInteractiveDisabled = errors.New("interactive prompts are disabled (PATCHSTACK_TEST_NO_INTERACTIVE is set)")
	// ErrCanceled is returned when the user backs out of a prompt
	ErrCanceled = errors.New("canceled")
)

func checkInteractiveAllowed() error {
	if os.Getenv("PATCHSTACK_TEST_NO_INTERACTIVE") != "" {
		return ErrInteractiveDisabled
	}
	return nil
}

// IsTTY returns true if we can use a TTY for interactive prompts
func IsTTY() bool {
	if os.Getenv("PATCHSTACK_TEST_NO_INTERACTIVE") != "" {
		return false
	}
	if !((isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())) &&
		(isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()))) {
		return false
	}
	f, err := os.OpenFile("/dev/tty", os.O_RDWR, 0)
	if err != nil {
		return false
	}
	f.Close()
	return true
}

func askOne(p survey.Prompt, response any, opts ...survey.AskOpt) error {
	if err := checkInteractiveAllowed(); err != nil {
		return err
	}
	if err := survey.AskOne(p, response, opts...); err != nil {
		if errors.Is(err, terminal.InterruptErr) {
			return ErrCanceled
		}
		return err
	}
	return nil
}

// PromptConfirm prompts the user for yes/no confirmation
func PromptConfirm(message string, defaultValue bool) (bool, error) {
	confirmed := defaultValue
	err := askOne(&survey.Confirm{Message: message, Default: defaultValue}, &confirmed)
	return confirmed, err
}

// PromptPatchName asks for a patch name, checking it with validate
func PromptPatchName(message, defaultValue string, validate func(string) error) (string, error) {
	var name string
	prompt := &survey.Input{Message: message, Default: defaultValue}
	opts := []survey.AskOpt{survey.WithValidator(survey.Required)}
	if validate != nil {
		opts = append(opts, survey.WithValidator(func(ans any) error {
			s, _ := ans.(string)
			return validate(s)
		}))
	}
	if err := askOne(prompt, &name, opts...); err != nil {
		return "", err
	}
	return name, nil
}

// PromptPatches lets the user pick any number of patches from options
func PromptPatches(message string, options []string) ([]string, error) {
	var picked []string
	if err := askOne(&survey.MultiSelect{Message: message, Options: options}, &picked); err != nil {
		return nil, err
	}
	return picked, nil
}
