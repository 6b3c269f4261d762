package localdump

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"

	"github.com/hfrost/confluence-pdf-dump/confluence"
)

// maxTitleRunes bounds the sanitized title so deep titles can't blow past
// filesystem path limits.
const maxTitleRunes = 120

// versionSuffix is appended to the PDF filename for the sidecar that records
// which remote version the file was rendered from.
const versionSuffix = ".version"

// Writer persists page PDFs under <Store>/confluence_<SPACEKEY>/.
//
// Each PDF gets a sidecar `<name>.pdf.version` holding the remote version
// number; that sidecar, not the file's mere existence, drives the
// skip-or-rewrite decision on later runs.  All writes are
// temp-file-then-rename so an interrupted run never leaves a truncated PDF.
type Writer struct {
	Store    string
	SpaceKey string
}

// SpaceDir returns the output directory for the writer's space.
func (w *Writer) SpaceDir() string {
	return filepath.Join(w.Store, "confluence_"+sanitizeFilename(w.SpaceKey))
}

// PagePath returns the deterministic target path for a page:
// <store>/confluence_<SPACEKEY>/<sanitized-title>-<id>.pdf
func (w *Writer) PagePath(page confluence.Page) string {
	name := fmt.Sprintf("%s-%s.pdf", sanitizeFilename(page.Title), page.ID)
	return filepath.Join(w.SpaceDir(), name)
}

// ShouldSkip reports whether the local copy of page is already current.  A
// missing file or missing/unreadable sidecar means "don't skip": re-rendering
// a page is cheap, silently keeping a stale one is not.
func (w *Writer) ShouldSkip(page confluence.Page) bool {
	target := w.PagePath(page)
	if _, err := os.Stat(target); err != nil {
		return false
	}

	raw, err := os.ReadFile(target + versionSuffix)
	if err != nil {
		return false
	}
	local, err := strconv.Atoi(strings.TrimSpace(string(raw)))
	if err != nil {
		return false
	}

	return page.Version != nil && local >= page.Version.Number
}

// Write persists the PDF bytes for page, atomically, and records the remote
// version in the sidecar.  Any other file for the same page ID under a
// different (stale) title is removed first, so at most one PDF per page ID
// ever exists.
func (w *Writer) Write(page confluence.Page, data []byte) error {
	dir := w.SpaceDir()
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("localdump: couldn't create directory %s: %w", dir, err)
	}

	target := w.PagePath(page)

	if err := w.removeStaleVariants(page, target); err != nil {
		return err
	}

	if err := atomicWrite(target, data); err != nil {
		return err
	}

	version := 0
	if page.Version != nil {
		version = page.Version.Number
	}
	if err := atomicWrite(target+versionSuffix, []byte(strconv.Itoa(version)+"\n")); err != nil {
		return err
	}

	return nil
}

// removeStaleVariants deletes PDFs for the same page ID at other paths, which
// happens when a page was renamed between runs.
func (w *Writer) removeStaleVariants(page confluence.Page, target string) error {
	matches, err := filepath.Glob(filepath.Join(w.SpaceDir(), "*-"+page.ID+".pdf"))
	if err != nil {
		return fmt.Errorf("localdump: couldn't glob for stale files: %w", err)
	}

	for _, m := range matches {
		if m == target {
			continue
		}
		if err := os.Remove(m); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("localdump: couldn't remove stale file %s: %w", m, err)
		}
		if err := os.Remove(m + versionSuffix); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("localdump: couldn't remove stale sidecar for %s: %w", m, err)
		}
	}

	return nil
}

// atomicWrite lands data at path via a temp file in the same directory and a
// rename, so readers never observe a partial file.
func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("localdump: couldn't create temp file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("localdump: couldn't write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("localdump: couldn't close temp file for %s: %w", path, err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("localdump: couldn't move %s into place: %w", path, err)
	}

	return nil
}

// sanitizeFilename makes a string safe to use as a single path component:
// path separators, control characters and filesystem-reserved characters
// become underscores, and the result is trimmed and length-bounded.  The
// mapping is deterministic so re-runs always land on the same path.
func sanitizeFilename(name string) string {
	mapped := strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\':
			return '_'
		case strings.ContainsRune(`<>:"|?*`, r):
			return '_'
		case r < 0x20 || unicode.IsControl(r):
			return '_'
		}
		return r
	}, name)

	mapped = strings.Trim(mapped, " .")

	runes := []rune(mapped)
	if len(runes) > maxTitleRunes {
		mapped = string(runes[:maxTitleRunes])
		mapped = strings.Trim(mapped, " .")
	}

	if mapped == "" {
		return "untitled"
	}
	return mapped
}
