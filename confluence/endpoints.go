package confluence

import (
	"fmt"
	"net/url"

	"github.com/google/go-querystring/query"
)

// getContentEndpoint returns the v1 API endpoint to list content in a space:
// https://developer.atlassian.com/cloud/confluence/rest/v1/api-group-content/#api-wiki-rest-api-content-get
func (a *API) getContentEndpoint(opts ContentQuery) (*url.URL, error) {
	ep, err := a.resolveEndpoint("/wiki/rest/api/content")
	if err != nil {
		return nil, fmt.Errorf("confluence: couldn't resolve endpoint: %w", err)
	}

	v, err := query.Values(opts)
	if err != nil {
		return nil, fmt.Errorf("confluence: couldn't encode query params: %w", err)
	}
	ep.RawQuery = v.Encode()

	return ep, nil
}

// getContentByIDEndpoint returns the v1 API endpoint to download one page:
// https://developer.atlassian.com/cloud/confluence/rest/v1/api-group-content/#api-wiki-rest-api-content-id-get
func (a *API) getContentByIDEndpoint(opts ContentByIDQuery) (*url.URL, error) {
	if opts.ID == "" {
		return nil, fmt.Errorf("confluence: please provide ID to get content by ID")
	}

	ep, err := a.resolveEndpoint(fmt.Sprintf("/wiki/rest/api/content/%s", url.PathEscape(opts.ID)))
	if err != nil {
		return nil, fmt.Errorf("confluence: couldn't resolve endpoint: %w", err)
	}

	v, err := query.Values(opts)
	if err != nil {
		return nil, fmt.Errorf("confluence: couldn't encode query params: %w", err)
	}
	ep.RawQuery = v.Encode()

	return ep, nil
}

// getSpacesEndpoint returns the v1 API endpoint to list spaces:
// https://developer.atlassian.com/cloud/confluence/rest/v1/api-group-space/#api-wiki-rest-api-space-get
func (a *API) getSpacesEndpoint(opts SpacesQuery) (*url.URL, error) {
	ep, err := a.resolveEndpoint("/wiki/rest/api/space")
	if err != nil {
		return nil, fmt.Errorf("confluence: couldn't resolve endpoint: %w", err)
	}

	v, err := query.Values(opts)
	if err != nil {
		return nil, fmt.Errorf("confluence: couldn't encode query params: %w", err)
	}
	ep.RawQuery = v.Encode()

	return ep, nil
}

// getPDFExportEndpoint returns the space PDF export action for a page.  Not a
// REST endpoint, but it's what the UI's "Export to PDF" does and it hands back
// raw PDF bytes when the page supports it.
func (a *API) getPDFExportEndpoint(spaceKey string, opts PDFExportQuery) (*url.URL, error) {
	if spaceKey == "" {
		return nil, fmt.Errorf("confluence: please provide a space key for PDF export")
	}
	if opts.PageID == "" {
		return nil, fmt.Errorf("confluence: please provide a page ID for PDF export")
	}

	ep, err := a.resolveEndpoint(fmt.Sprintf("/wiki/spaces/%s/pdfpageexport.action", url.PathEscape(spaceKey)))
	if err != nil {
		return nil, fmt.Errorf("confluence: couldn't resolve endpoint: %w", err)
	}

	v, err := query.Values(opts)
	if err != nil {
		return nil, fmt.Errorf("confluence: couldn't encode query params: %w", err)
	}
	ep.RawQuery = v.Encode()

	return ep, nil
}

// getWordExportEndpoint returns the legacy export action.  With
// exportType=PDF some instances serve a PDF here when pdfpageexport won't.
func (a *API) getWordExportEndpoint(opts WordExportQuery) (*url.URL, error) {
	if opts.PageID == "" {
		return nil, fmt.Errorf("confluence: please provide a page ID for export")
	}

	ep, err := a.resolveEndpoint("/wiki/exportword")
	if err != nil {
		return nil, fmt.Errorf("confluence: couldn't resolve endpoint: %w", err)
	}

	v, err := query.Values(opts)
	if err != nil {
		return nil, fmt.Errorf("confluence: couldn't encode query params: %w", err)
	}
	ep.RawQuery = v.Encode()

	return ep, nil
}

// getCurrentUserEndpoint returns the v1 API endpoint to query the current user:
// https://developer.atlassian.com/cloud/confluence/rest/v1/api-group-users/#api-wiki-rest-api-user-current-get
func (a *API) getCurrentUserEndpoint() (*url.URL, error) {
	return a.resolveEndpoint("/wiki/rest/api/user/current")
}

// Do a bit of error checking on endpoint format, and return it relative to the base URI.
func (a *API) resolveEndpoint(endpoint string) (*url.URL, error) {
	baseUri := a.BaseURI

	ref, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("confluence: failed to parse endpoint ref: %w", err)
	}

	return baseUri.ResolveReference(ref), nil
}
