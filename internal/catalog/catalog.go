// Package catalog discovers migration scripts on disk and establishes the
// canonical execution order. Ordering is defined solely by byte-wise filename
// comparison; nothing inside the filename is parsed.
package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Script is a single migration script discovered on disk.
type Script struct {
	Name string // filename, the unit of ordering and history tracking
	Path string // full path to the script file
}

// List scans dir for *.sql files and returns them sorted ascending by name.
// A directory with no migration files yields an empty slice, not an error.
func List(dir string) ([]Script, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading migrations directory %s: %w", dir, err)
	}

	scripts := make([]Script, 0, len(entries))

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		scripts = append(scripts, Script{
			Name: entry.Name(),
			Path: filepath.Join(dir, entry.Name()),
		})
	}

	sort.Slice(scripts, func(i, j int) bool {
		return scripts[i].Name < scripts[j].Name
	})

	return scripts, nil
}

// Names returns the script names in catalog order.
func Names(scripts []Script) []string {
	names := make([]string, len(scripts))
	for i, s := range scripts {
		names[i] = s.Name
	}

	return names
}
