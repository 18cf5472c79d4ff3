// Package source reads channel content files from disk and watches content
// directories for changes.
package source

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"newsportal/internal/domain/entity"
)

// Extensions lists the file types offered to the ingestor.
var Extensions = []string{".md", ".markdown", ".html"}

// ErrNotDirectory is returned when a content path exists but is a file.
var ErrNotDirectory = errors.New("not a directory")

// IsContentFile reports whether name has one of Extensions.
func IsContentFile(name string) bool {
	ext := strings.ToLower(path.Ext(name))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// ReadDir returns the content files directly inside dir, sorted by name.
// A file that cannot be read becomes an item with Err set instead of failing
// the whole read. Subdirectories and hidden files are ignored.
func ReadDir(dir string) ([]entity.SourceItem, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("read content dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("read content dir %s: %w", dir, ErrNotDirectory)
	}
	return ReadFS(os.DirFS(dir), ".")
}

// ReadFS is ReadDir over an fs.FS.
func ReadFS(fsys fs.FS, dir string) ([]entity.SourceItem, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read content dir: %w", err)
	}

	items := make([]entity.SourceItem, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || !IsContentFile(name) {
			continue
		}
		raw, err := fs.ReadFile(fsys, path.Join(dir, name))
		if err != nil {
			items = append(items, entity.SourceItem{Name: name, Err: err})
			continue
		}
		items = append(items, entity.SourceItem{Name: name, Raw: string(raw)})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return items, nil
}
