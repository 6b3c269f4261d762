// Package creds resolves the Confluence connection settings from an ordered
// chain of sources: explicit flags first, then the environment, then (when a
// terminal is available) interactive prompts.
package creds

import (
	"errors"
	"fmt"
	"os"
)

// Environment variables consulted by the Env source.
const (
	EnvBaseURL  = "CONFLUENCE_URL"
	EnvUsername = "CONFLUENCE_USERNAME"
	EnvAPIToken = "CONFLUENCE_API_TOKEN"
	EnvSpaceKey = "CONFLUENCE_SPACE_KEY"
)

// ErrMissingConfiguration is returned when the chain is exhausted and a
// required field is still empty.
var ErrMissingConfiguration = errors.New("creds: missing configuration")

// Credentials holds everything needed to talk to one Confluence instance.
// Username and APIToken may legitimately stay empty for anonymous access to
// public spaces.
type Credentials struct {
	BaseURL  string
	Username string
	APIToken string
	SpaceKey string
}

// A Source fills in whichever fields it knows about, leaving already-populated
// fields alone.
type Source interface {
	Fill(c *Credentials) error
}

// Static supplies values known up front (command-line flags, config file).
type Static Credentials

func (s Static) Fill(c *Credentials) error {
	if c.BaseURL == "" {
		c.BaseURL = s.BaseURL
	}
	if c.Username == "" {
		c.Username = s.Username
	}
	if c.APIToken == "" {
		c.APIToken = s.APIToken
	}
	if c.SpaceKey == "" {
		c.SpaceKey = s.SpaceKey
	}
	return nil
}

// Env reads the CONFLUENCE_* environment variables.
type Env struct{}

func (Env) Fill(c *Credentials) error {
	if c.BaseURL == "" {
		c.BaseURL = os.Getenv(EnvBaseURL)
	}
	if c.Username == "" {
		c.Username = os.Getenv(EnvUsername)
	}
	if c.APIToken == "" {
		c.APIToken = os.Getenv(EnvAPIToken)
	}
	if c.SpaceKey == "" {
		c.SpaceKey = os.Getenv(EnvSpaceKey)
	}
	return nil
}

// Resolve runs the sources in order and validates the result.  BaseURL and
// SpaceKey are mandatory; a username without a token (or vice versa) is also
// rejected since Confluence basic auth needs both.
func Resolve(sources ...Source) (Credentials, error) {
	c, err := ResolveConnection(sources...)
	if err != nil {
		return Credentials{}, err
	}
	if c.SpaceKey == "" {
		return Credentials{}, fmt.Errorf("%w: no space key (set --space or %s)", ErrMissingConfiguration, EnvSpaceKey)
	}
	return c, nil
}

// ResolveConnection is Resolve without the space key requirement, for commands
// that operate on the whole instance rather than one space.
func ResolveConnection(sources ...Source) (Credentials, error) {
	var c Credentials
	for _, s := range sources {
		if err := s.Fill(&c); err != nil {
			return Credentials{}, err
		}
	}

	if c.BaseURL == "" {
		return Credentials{}, fmt.Errorf("%w: no base URL (set --base-url or %s)", ErrMissingConfiguration, EnvBaseURL)
	}
	if (c.Username == "") != (c.APIToken == "") {
		return Credentials{}, fmt.Errorf("%w: basic auth needs both a username and an API token", ErrMissingConfiguration)
	}

	return c, nil
}
