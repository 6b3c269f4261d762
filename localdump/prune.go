package localdump

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/exp/maps"
)

// pruneLocal deletes PDFs (and their sidecars) whose page ID is no longer
// present remotely.  Only files matching our own naming scheme are touched;
// anything else in the directory is left alone.
func (d *SpaceDownloader) pruneLocal(writer *Writer, remote map[string]bool) error {
	matches, err := filepath.Glob(filepath.Join(writer.SpaceDir(), "*.pdf"))
	if err != nil {
		return fmt.Errorf("localdump: couldn't list local PDFs: %w", err)
	}

	doomed := map[string]bool{}
	for _, m := range matches {
		id := pageIDFromPath(m)
		if id == "" {
			continue
		}
		if !remote[id] {
			doomed[m] = true
		}
	}

	victims := maps.Keys(doomed)
	sort.Strings(victims)

	for _, path := range victims {
		d.logf("Pruning: %s", path)
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("localdump: couldn't prune %s: %w", path, err)
		}
		if err := os.Remove(path + versionSuffix); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("localdump: couldn't prune sidecar of %s: %w", path, err)
		}
	}

	return nil
}

// pageIDFromPath recovers the page ID from a "<title>-<id>.pdf" filename, or
// "" when the name doesn't follow our scheme.
func pageIDFromPath(path string) string {
	base := strings.TrimSuffix(filepath.Base(path), ".pdf")
	idx := strings.LastIndex(base, "-")
	if idx < 0 || idx == len(base)-1 {
		return ""
	}
	id := base[idx+1:]
	for _, r := range id {
		if r < '0' || r > '9' {
			return ""
		}
	}
	return id
}
