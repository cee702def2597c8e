// Package watch re-runs an action whenever a report, or a CSV asset beside
// it, changes on disk. The analyzer rewrites several files per save, so
// bursts of events are debounced into one run.
package watch

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the directory must stay quiet before the
// action runs again.
const DefaultDebounce = 500 * time.Millisecond

// Watcher watches one report file.
type Watcher struct {
	path     string
	debounce time.Duration
	log      *slog.Logger
}

// Option configures a Watcher.
type Option func(*Watcher)

func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(w *Watcher) {
		if l != nil {
			w.log = l
		}
	}
}

// New returns a Watcher for the report at path.
func New(path string, opts ...Option) *Watcher {
	w := &Watcher{
		path:     filepath.Clean(path),
		debounce: DefaultDebounce,
		log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run calls fn once, then again after every settled change, until ctx is
// done. An error from fn is logged and watching continues. Run returns nil
// when ctx is cancelled.
func (w *Watcher) Run(ctx context.Context, fn func() error) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer fw.Close()

	// Editors and the analyzer replace files, so watch directories. Assets
	// may sit in subdirectories of the report's.
	dir := filepath.Dir(w.path)
	if err := w.addTree(fw, dir); err != nil {
		return err
	}
	w.log.Debug("watching report", "dir", dir, "report", w.path)

	w.call(fn)

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if event.Op.Has(fsnotify.Create) && isDir(event.Name) {
				if err := w.addTree(fw, event.Name); err != nil {
					w.log.Error("watch error", "err", err)
				}
				continue
			}
			if !w.relevant(event) {
				continue
			}
			w.log.Debug("report changed", "file", event.Name, "op", event.Op.String())
			timer.Reset(w.debounce)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Error("watch error", "err", err)

		case <-timer.C:
			w.call(fn)
		}
	}
}

// addTree adds root and every directory beneath it to fw.
func (w *Watcher) addTree(fw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("watch %s: %w", p, err)
		}
		if !d.IsDir() {
			return nil
		}
		if err := fw.Add(p); err != nil {
			return fmt.Errorf("watch %s: %w", p, err)
		}
		return nil
	})
}

func isDir(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.IsDir()
}

func (w *Watcher) call(fn func() error) {
	if err := fn(); err != nil {
		w.log.Error("refresh failed", "report", w.path, "err", err)
	}
}

// relevant reports whether event touches the report or a CSV asset.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) &&
		!event.Op.Has(fsnotify.Rename) && !event.Op.Has(fsnotify.Remove) {
		return false
	}
	name := filepath.Clean(event.Name)
	return name == w.path || strings.EqualFold(filepath.Ext(name), ".csv")
}
