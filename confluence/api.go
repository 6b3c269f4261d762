package confluence

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

func NewAPI(baseURL string, username string, token string) (*API, error) {
	if baseURL == "" {
		return &API{}, fmt.Errorf("confluence: configure your Confluence base URL with --base-url")
	}

	u, err := url.ParseRequestURI(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("confluence: couldn't parse base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("confluence: base URL must be http(s), got '%s'", baseURL)
	}

	a := &API{
		BaseURI:  u,
		token:    token,
		username: username,
		Retry:    DefaultRetryPolicy(),
	}
	a.Client = &http.Client{}

	return a, nil
}

type API struct {
	// The base URI of the Confluence instance, e.g. https://ORG.atlassian.net
	BaseURI *url.URL

	// An HTTP client - you can substitute VCR or whatnot.
	Client *http.Client

	// Retry governs backoff behaviour for every outbound request.
	Retry RetryPolicy

	// Auth info
	username, token string
}
