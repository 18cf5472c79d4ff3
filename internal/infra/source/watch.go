package source

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the content tree must be quiet before changes are reported.
const DefaultDebounce = 2 * time.Second

// Watcher reports content changes under a root directory laid out as
// <root>/<channelID>/<file>. Bursts of events are coalesced.
type Watcher struct {
	root     string
	debounce time.Duration
	logger   *slog.Logger
}

// NewWatcher creates a Watcher. A non-positive debounce uses DefaultDebounce.
func NewWatcher(root string, debounce time.Duration, logger *slog.Logger) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{root: root, debounce: debounce, logger: logger}
}

// ChangeFunc receives the sorted ids of channels whose content changed. It
// returns false when the changes could not be handled yet; the ids are then
// reported again after the next quiet period.
type ChangeFunc func(ctx context.Context, channelIDs []string) (handled bool)

// Run watches the root and each channel directory and calls onChange with the
// channels whose content changed. onChange runs on the watch goroutine, so
// events arriving meanwhile are batched into the next call.
// Run blocks until ctx is done.
func (w *Watcher) Run(ctx context.Context, onChange ChangeFunc) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = fw.Close() }()

	if err := fw.Add(w.root); err != nil {
		return fmt.Errorf("watch %s: %w", w.root, err)
	}
	entries, err := os.ReadDir(w.root)
	if err != nil {
		return fmt.Errorf("read content root: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() {
			w.add(fw, filepath.Join(w.root, e.Name()))
		}
	}
	w.logger.Info("watching content",
		slog.String("root", w.root),
		slog.Duration("debounce", w.debounce))

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()
	pending := make(map[string]bool)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			channelID, isDir := w.channelOf(event)
			if isDir && event.Has(fsnotify.Create) {
				w.add(fw, event.Name)
			}
			if channelID == "" {
				continue
			}
			pending[channelID] = true
			timer.Reset(w.debounce)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("content watch error", slog.Any("error", err))

		case <-timer.C:
			ids := make([]string, 0, len(pending))
			for id := range pending {
				ids = append(ids, id)
			}
			clear(pending)
			sort.Strings(ids)
			if !onChange(ctx, ids) && ctx.Err() == nil {
				for _, id := range ids {
					pending[id] = true
				}
				w.logger.Debug("content changes requeued", slog.Any("channels", ids))
				timer.Reset(w.debounce)
			}
		}
	}
}

// channelOf maps an event to the channel it affects. Events on a channel
// directory itself count too, so a new channel directory triggers ingestion.
func (w *Watcher) channelOf(event fsnotify.Event) (channelID string, isDir bool) {
	rel, err := filepath.Rel(w.root, event.Name)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", false
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	switch len(parts) {
	case 1:
		if strings.HasPrefix(parts[0], ".") {
			return "", false
		}
		info, err := os.Stat(event.Name)
		if err == nil && info.IsDir() {
			return parts[0], true
		}
	case 2:
		if IsContentFile(parts[1]) && !strings.HasPrefix(parts[1], ".") {
			return parts[0], false
		}
	}
	return "", false
}

func (w *Watcher) add(fw *fsnotify.Watcher, dir string) {
	if err := fw.Add(dir); err != nil {
		w.logger.Warn("could not watch content directory",
			slog.String("dir", dir),
			slog.Any("error", err))
	}
}
