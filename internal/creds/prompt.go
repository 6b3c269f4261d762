package creds

import (
	"errors"
	"fmt"
	"os"

	"github.com/manifoldco/promptui"
)

// Prompt asks interactively for whatever is still missing.  It only runs when
// stdin is a terminal, so piped or scripted invocations fall through to the
// validation error instead of hanging on a hidden prompt.
type Prompt struct {
	// SkipSpace leaves the space key alone, for commands that don't need one.
	SkipSpace bool
}

func (p Prompt) Fill(c *Credentials) error {
	if !stdinIsTerminal() {
		return nil
	}
	return p.fill(c, ask, askOptional)
}

// fill solicits each missing field independently: a half-configured pair
// (username from the environment, say, but no token) still gets asked for the
// half that's absent.
func (p Prompt) fill(c *Credentials, ask askFunc, askOptional optionalFunc) error {
	var err error
	if c.BaseURL == "" {
		c.BaseURL, err = ask("Confluence base URL (e.g. https://example.atlassian.net)", 0)
		if err != nil {
			return err
		}
	}
	if c.SpaceKey == "" && !p.SkipSpace {
		c.SpaceKey, err = ask("Space key", 0)
		if err != nil {
			return err
		}
	}
	if c.Username == "" && c.APIToken == "" {
		c.Username, err = askOptional("Username (empty for anonymous access)")
		if err != nil {
			return err
		}
	}
	if c.Username == "" && c.APIToken != "" {
		c.Username, err = ask("Username", 0)
		if err != nil {
			return err
		}
	}
	if c.Username != "" && c.APIToken == "" {
		c.APIToken, err = ask("API token", '*')
		if err != nil {
			return err
		}
	}
	return nil
}

type (
	askFunc      func(label string, mask rune) (string, error)
	optionalFunc func(label string) (string, error)
)

func stdinIsTerminal() bool {
	info, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

func ask(label string, mask rune) (string, error) {
	prompt := promptui.Prompt{
		Label: label,
		Mask:  mask,
		Validate: func(input string) error {
			if len(input) == 0 {
				return errors.New("a value is required")
			}
			return nil
		},
	}
	result, err := prompt.Run()
	if err != nil {
		return "", fmt.Errorf("creds: prompt failed: %w", err)
	}
	return result, nil
}

func askOptional(label string) (string, error) {
	prompt := promptui.Prompt{Label: label}
	result, err := prompt.Run()
	if err != nil {
		return "", fmt.Errorf("creds: prompt failed: %w", err)
	}
	return result, nil
}
