package confluence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// GetContent lists one page of content in a space.
func (api *API) GetContent(ctx context.Context, opts ContentQuery) (*ContentList, error) {
	ep, err := api.getContentEndpoint(opts)
	if err != nil {
		return nil, fmt.Errorf("confluence: couldn't get content endpoint: %w", err)
	}

	body, err := api.request(ctx, ep)
	if err != nil {
		return nil, fmt.Errorf("confluence: couldn't perform request: %w", err)
	}

	var contentList ContentList

	if err := json.Unmarshal(body, &contentList); err != nil {
		return nil, fmt.Errorf("confluence: couldn't parse json response: %w", err)
	}

	return &contentList, nil
}

// GetContentByID fetches one page, expanded per opts.
func (api *API) GetContentByID(ctx context.Context, opts ContentByIDQuery) (*Page, error) {
	ep, err := api.getContentByIDEndpoint(opts)
	if err != nil {
		return nil, fmt.Errorf("confluence: couldn't get single content endpoint: %w", err)
	}

	body, err := api.request(ctx, ep)
	if err != nil {
		return nil, fmt.Errorf("confluence: couldn't perform request: %w", err)
	}

	var page Page

	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("confluence: couldn't parse json response: %w", err)
	}
	if page.Space != nil {
		page.SpaceKey = page.Space.Key
	}

	return &page, nil
}

// GetSpaces lists one page of spaces.
func (api *API) GetSpaces(ctx context.Context, opts SpacesQuery) (*SpaceList, error) {
	ep, err := api.getSpacesEndpoint(opts)
	if err != nil {
		return nil, fmt.Errorf("confluence: couldn't get spaces endpoint: %w", err)
	}

	body, err := api.request(ctx, ep)
	if err != nil {
		return nil, fmt.Errorf("confluence: couldn't perform request: %w", err)
	}

	var spaceList SpaceList

	if err := json.Unmarshal(body, &spaceList); err != nil {
		return nil, fmt.Errorf("confluence: couldn't parse json response: %w", err)
	}

	return &spaceList, nil
}

// CurrentUser returns current user information.  Handy as an early
// authentication check before we kick off a long run.
func (api *API) CurrentUser(ctx context.Context) (*User, error) {
	ep, err := api.getCurrentUserEndpoint()
	if err != nil {
		return nil, fmt.Errorf("confluence: couldn't get current user endpoint: %w", err)
	}

	body, err := api.request(ctx, ep)
	if err != nil {
		return nil, fmt.Errorf("confluence: couldn't perform http request: %w", err)
	}

	var user User
	if err := json.Unmarshal(body, &user); err != nil {
		return nil, fmt.Errorf("confluence: couldn't parse json response: %w", err)
	}

	return &user, nil
}

// ExportPagePDF asks the instance's own exporter for a PDF rendering of the
// page.  It tries the space PDF export action first, then the legacy export
// action.  ErrExportUnavailable means neither endpoint could serve a PDF for
// this page; that's expected for some page types and callers should fall back
// to local conversion.
func (api *API) ExportPagePDF(ctx context.Context, spaceKey string, pageID string) ([]byte, error) {
	pdfEp, err := api.getPDFExportEndpoint(spaceKey, PDFExportQuery{PageID: pageID})
	if err != nil {
		return nil, fmt.Errorf("confluence: couldn't get PDF export endpoint: %w", err)
	}

	data, err := api.download(ctx, pdfEp, "application/pdf")
	if err == nil {
		return data, nil
	}
	if !errors.Is(err, ErrExportUnavailable) {
		return nil, err
	}

	wordEp, err := api.getWordExportEndpoint(WordExportQuery{PageID: pageID, ExportType: "PDF"})
	if err != nil {
		return nil, fmt.Errorf("confluence: couldn't get export endpoint: %w", err)
	}

	return api.download(ctx, wordEp, "application/pdf")
}

// FetchAttachment downloads an attachment (or any authenticated URL relative
// to the instance), returning the raw bytes and content type.  Used by the
// conversion fallback to inline images.
func (api *API) FetchAttachment(ctx context.Context, ref string) ([]byte, string, error) {
	ep, err := api.resolveEndpoint(ref)
	if err != nil {
		return nil, "", fmt.Errorf("confluence: couldn't resolve attachment URL: %w", err)
	}

	var data []byte
	var contentType string
	err = api.Retry.do(ctx, func(ctx context.Context) error {
		var err error
		data, contentType, err = api.getOnce(ctx, ep, "*/*")
		return err
	})
	if err != nil {
		return nil, "", err
	}
	return data, contentType, nil
}

// request performs a JSON GET with the API's retry policy.
func (api *API) request(ctx context.Context, url *url.URL) ([]byte, error) {
	var body []byte
	err := api.Retry.do(ctx, func(ctx context.Context) error {
		var err error
		body, _, err = api.getOnce(ctx, url, "application/json, */*")
		return err
	})
	return body, err
}

// download performs a raw GET with the API's retry policy, requiring the
// response to carry wantType.  Client errors and 2xx responses of the wrong
// content type both map to ErrExportUnavailable: Confluence happily serves
// HTML error pages with status 200.
func (api *API) download(ctx context.Context, url *url.URL, wantType string) ([]byte, error) {
	var data []byte
	err := api.Retry.do(ctx, func(ctx context.Context) error {
		body, contentType, err := api.getOnce(ctx, url, wantType+", */*")
		if err != nil {
			var se *statusError
			if errors.As(err, &se) && se.code >= 400 && se.code < 500 {
				return fmt.Errorf("%w: %s", ErrExportUnavailable, se.status)
			}
			return err
		}
		if !strings.HasPrefix(contentType, wantType) {
			return fmt.Errorf("%w: got content type '%s'", ErrExportUnavailable, contentType)
		}
		data = body
		return nil
	})
	return data, err
}

// statusError is an HTTP status outside the taxonomy getOnce classifies
// itself.  Callers decide what it means for their endpoint.
type statusError struct {
	code   int
	status string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("confluence: unexpected HTTP response status: %s", e.status)
}

// getOnce performs a single GET, classifying the response status into our
// error taxonomy.
func (api *API) getOnce(ctx context.Context, url *url.URL, accept string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url.String(), nil)
	if err != nil {
		return nil, "", fmt.Errorf("confluence: couldn't instantiate http request: %w", err)
	}

	req.Header.Add("Accept", accept)

	// if user & token are not set, do not add authorization header
	if api.username != "" && api.token != "" {
		req.SetBasicAuth(api.username, api.token)
	} else if api.token != "" {
		req.Header.Set("Authorization", "Bearer "+api.token)
	}

	response, err := api.Client.Do(req)
	if err != nil {
		return nil, "", &TransientError{Err: err}
	}

	body, err := io.ReadAll(response.Body)
	if err != nil {
		response.Body.Close()
		return nil, "", &TransientError{Err: err}
	}

	if err := response.Body.Close(); err != nil {
		return nil, "", fmt.Errorf("confluence: couldn't close response body: %w", err)
	}

	contentType := response.Header.Get("Content-Type")

	switch {
	case response.StatusCode >= 200 && response.StatusCode < 300:
		return body, contentType, nil
	case response.StatusCode == http.StatusUnauthorized || response.StatusCode == http.StatusForbidden:
		return nil, "", fmt.Errorf("%w: %s: %s", ErrAuthentication, response.Status, url.Path)
	case response.StatusCode == http.StatusTooManyRequests:
		return nil, "", &TransientError{
			StatusCode: response.StatusCode,
			RetryAfter: parseRetryAfter(response.Header.Get("Retry-After")),
			Err:        fmt.Errorf("rate limited: %s", response.Status),
		}
	case response.StatusCode >= 500:
		return nil, "", &TransientError{
			StatusCode: response.StatusCode,
			Err:        fmt.Errorf("server error: %s", response.Status),
		}
	}

	return nil, "", &statusError{code: response.StatusCode, status: response.Status}
}

// parseRetryAfter handles the delay-seconds form of the header.  The HTTP-date
// form is rare enough from Atlassian that we just fall back to our own backoff.
func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	secs, err := strconv.Atoi(header)
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
