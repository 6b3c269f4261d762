package localdump

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
	"golang.org/x/sync/errgroup"

	"github.com/hfrost/confluence-pdf-dump/confluence"
)

// Status is the outcome of one page's export attempt.
type Status int

const (
	Downloaded Status = iota
	Skipped
	Errored
)

func (s Status) String() string {
	switch s {
	case Downloaded:
		return "downloaded"
	case Skipped:
		return "skipped"
	default:
		return "errored"
	}
}

// Record captures one page's outcome for the run summary.
type Record struct {
	PageID    string
	Title     string
	Path      string
	Status    Status
	Attempts  int
	ErrorKind string
	Err       error
}

// Summary aggregates a whole run.
type Summary struct {
	Pages      int
	Downloaded int
	Skipped    int
	Errored    int
	Records    []Record
}

// SpaceDownloader exports every page of one Confluence space to local PDFs.
type SpaceDownloader struct {
	API       *confluence.API
	StorePath string
	SpaceKey  string

	// Exporters are tried in order per page; first success wins.  Defaults to
	// native export with local HTML conversion as fallback.
	Exporters []Exporter

	// Workers caps concurrent page processing.  The default of 1 processes
	// pages strictly one after another, which is kindest to the remote's rate
	// limits.
	Workers int

	// PageLimit is the listing page size; 0 means the client default.
	PageLimit int

	// AlwaysDownload skips the version check and rewrites every page.
	AlwaysDownload bool

	// Prune removes local PDFs whose page no longer exists remotely.
	Prune bool

	// Quiet suppresses the progress bar (tests, non-TTY use).
	Quiet bool

	Logger *log.Logger

	mu      sync.Mutex
	records []Record
}

// Run enumerates the space and downloads every page.  Per-page failures are
// recorded in the summary and do not interrupt the run; authentication
// failures abort immediately.
func (d *SpaceDownloader) Run(ctx context.Context) (Summary, error) {
	if d.SpaceKey == "" {
		return Summary{}, fmt.Errorf("localdump: no space key configured")
	}
	if d.StorePath == "" {
		return Summary{}, fmt.Errorf("localdump: no store path configured")
	}

	exporters := d.Exporters
	if len(exporters) == 0 {
		exporters = []Exporter{
			&NativeExporter{API: d.API},
			&ConvertExporter{API: d.API},
		}
	}

	workers := d.Workers
	if workers <= 0 {
		workers = 1
	}

	writer := &Writer{Store: d.StorePath, SpaceKey: d.SpaceKey}

	d.logf("Listing pages in space %s...", d.SpaceKey)
	pages, err := d.API.ListAllPagesInSpace(ctx, d.SpaceKey, d.PageLimit)
	if err != nil {
		return Summary{}, fmt.Errorf("localdump: couldn't enumerate space %s: %w", d.SpaceKey, err)
	}
	d.logf("...found %d pages in %s.", len(pages), d.SpaceKey)

	d.records = make([]Record, 0, len(pages))

	barOpts := []mpb.ContainerOption{mpb.WithWidth(64)}
	if d.Quiet {
		barOpts = append(barOpts, mpb.WithOutput(io.Discard))
	}
	p := mpb.New(barOpts...)
	bar := p.AddBar(int64(len(pages)),
		mpb.PrependDecorators(
			decor.Name("pages:", decor.WC{C: decor.DindentRight | decor.DextraSpace}),
		),
		mpb.AppendDecorators(
			decor.CountersNoUnit("(%d/%d) "),
			decor.NewPercentage("%d"),
		),
	)

	grp, gctx := errgroup.WithContext(ctx)
	grp.SetLimit(workers)

	for _, page := range pages {
		page := page
		grp.Go(func() error {
			rec, err := d.processPage(gctx, writer, exporters, page)
			if err != nil {
				// Only fatal conditions propagate; everything else became a
				// record.
				return err
			}
			d.mu.Lock()
			d.records = append(d.records, rec)
			d.mu.Unlock()
			bar.Increment()
			return nil
		})
	}

	if err := grp.Wait(); err != nil {
		bar.Abort(true)
		p.Wait()
		return Summary{}, fmt.Errorf("localdump: run aborted: %w", err)
	}
	p.Wait()

	if d.Prune {
		remote := make(map[string]bool, len(pages))
		for _, page := range pages {
			remote[page.ID] = true
		}
		if err := d.pruneLocal(writer, remote); err != nil {
			return Summary{}, fmt.Errorf("localdump: failed to prune: %w", err)
		}
	}

	return d.summarise(len(pages)), nil
}

// processPage handles one page end to end: skip check, strategy list, write.
// The returned error is non-nil only for run-fatal conditions.
func (d *SpaceDownloader) processPage(ctx context.Context, writer *Writer, exporters []Exporter, page confluence.Page) (Record, error) {
	rec := Record{
		PageID: page.ID,
		Title:  page.Title,
		Path:   writer.PagePath(page),
	}

	if !d.AlwaysDownload && writer.ShouldSkip(page) {
		rec.Status = Skipped
		d.logf("(v%2d cached): %s", versionOf(page), rec.Path)
		return rec, nil
	}

	var data []byte
	var exportErr error
	for _, exp := range exporters {
		rec.Attempts++
		data, exportErr = exp.Export(ctx, page)
		if exportErr == nil {
			break
		}
		if errors.Is(exportErr, confluence.ErrAuthentication) {
			return Record{}, exportErr
		}
		if errors.Is(exportErr, confluence.ErrExportUnavailable) {
			// Expected: this strategy can't serve the page, on to the next.
			continue
		}
		break
	}

	if exportErr != nil {
		rec.Status = Errored
		rec.Err = exportErr
		rec.ErrorKind = kindOf(exportErr)
		d.logf("Failed (%s): %s (%s)", rec.ErrorKind, page.Title, page.ID)
		return rec, nil
	}

	if err := writer.Write(page, data); err != nil {
		rec.Status = Errored
		rec.Err = err
		rec.ErrorKind = "io"
		d.logf("Failed (io): %s (%s)", page.Title, page.ID)
		return rec, nil
	}

	rec.Status = Downloaded
	d.logf("Fetched: %s", rec.Path)
	return rec, nil
}

func (d *SpaceDownloader) summarise(pages int) Summary {
	s := Summary{Pages: pages, Records: d.records}
	for _, r := range d.records {
		switch r.Status {
		case Downloaded:
			s.Downloaded++
		case Skipped:
			s.Skipped++
		case Errored:
			s.Errored++
		}
	}
	return s
}

func (d *SpaceDownloader) logf(format string, args ...any) {
	if d.Logger == nil {
		return
	}
	d.mu.Lock()
	d.Logger.Printf(format, args...)
	d.mu.Unlock()
}

// kindOf maps an export failure onto the summary's error vocabulary.
func kindOf(err error) string {
	switch {
	case confluence.IsTransient(err):
		return "transient"
	case errors.Is(err, ErrConversion):
		return "conversion"
	case errors.Is(err, confluence.ErrExportUnavailable):
		// Every strategy declined the page.
		return "export-unavailable"
	default:
		return "error"
	}
}

func versionOf(page confluence.Page) int {
	if page.Version == nil {
		return 0
	}
	return page.Version.Number
}
