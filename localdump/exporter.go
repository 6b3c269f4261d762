package localdump

import (
	"context"
	"fmt"

	"github.com/hfrost/confluence-pdf-dump/confluence"
)

// Exporter produces PDF bytes for one page.  The downloader holds an ordered
// list of these and takes the first success; an exporter signalling
// confluence.ErrExportUnavailable just means "not me, try the next one".
type Exporter interface {
	Name() string
	Export(ctx context.Context, page confluence.Page) ([]byte, error)
}

// NativeExporter asks the Confluence instance's own PDF exporter.
type NativeExporter struct {
	API *confluence.API
}

func (e *NativeExporter) Name() string { return "native" }

func (e *NativeExporter) Export(ctx context.Context, page confluence.Page) ([]byte, error) {
	data, err := e.API.ExportPagePDF(ctx, page.SpaceKey, page.ID)
	if err != nil {
		return nil, fmt.Errorf("localdump: native export of page %s: %w", page.ID, err)
	}
	return data, nil
}
