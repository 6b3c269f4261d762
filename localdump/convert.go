package localdump

import (
	"context"
	"errors"
	"fmt"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"

	"github.com/hfrost/confluence-pdf-dump/confluence"
)

// ErrConversion marks a failed HTML-to-PDF conversion.  Terminal for the page
// it happened on, never for the run.
var ErrConversion = errors.New("localdump: HTML conversion failed")

// ConvertExporter is the fallback strategy: fetch the page's export_view HTML
// and render a PDF locally.  The HTML is first normalised to Markdown, which
// conveniently drops stylesheet references we couldn't fetch without
// authentication anyway, then typeset with gofpdf.
type ConvertExporter struct {
	API *confluence.API
}

func (e *ConvertExporter) Name() string { return "convert" }

func (e *ConvertExporter) Export(ctx context.Context, page confluence.Page) ([]byte, error) {
	full, err := e.API.GetContentByID(ctx, confluence.ContentByIDQuery{
		ID:     page.ID,
		Expand: []string{"body.export_view", "version"},
	})
	if err != nil {
		if errors.Is(err, confluence.ErrAuthentication) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: couldn't fetch body of page %s: %v", ErrConversion, page.ID, err)
	}

	if full.Body.ExportView == nil || full.Body.ExportView.Value == "" {
		return nil, fmt.Errorf("%w: page %s has no export_view body", ErrConversion, page.ID)
	}

	markdown, err := htmlToMarkdown(full.Body.ExportView.Value)
	if err != nil {
		return nil, fmt.Errorf("%w: page %s: %v", ErrConversion, page.ID, err)
	}

	pdf, err := renderPDF(ctx, page.Title, markdown, e.fetchImage)
	if err != nil {
		return nil, fmt.Errorf("%w: page %s: %v", ErrConversion, page.ID, err)
	}

	return pdf, nil
}

// fetchImage retrieves an embedded image through the authenticated client.
// Errors are returned, not fatal: the renderer falls back to alt text.
func (e *ConvertExporter) fetchImage(ctx context.Context, ref string) ([]byte, string, error) {
	return e.API.FetchAttachment(ctx, ref)
}

func htmlToMarkdown(html string) (string, error) {
	conv := converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			table.NewTablePlugin(),
		),
	)

	markdown, err := conv.ConvertString(html)
	if err != nil {
		return "", fmt.Errorf("markdown conversion: %w", err)
	}
	return markdown, nil
}
