// Package watch re-runs a callback whenever class files under a root change.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Options configures a Watcher.
type Options struct {
	// Root is a directory watched recursively, or a jar watched through its
	// parent directory.
	Root string
	// Debounce is the quiet period after the last change before fn runs.
	Debounce time.Duration
	// Match reports whether a slash-separated path relative to Root is an
	// input file. Nil matches .class and .jar files.
	Match func(rel string) bool
}

// DefaultMatch matches class files and archives.
func DefaultMatch(rel string) bool {
	switch strings.ToLower(filepath.Ext(rel)) {
	case ".class", ".jar":
		return true
	}
	return false
}

// Watcher collects file changes and triggers debounced runs.
type Watcher struct {
	opts    Options
	file    string              // non-empty when Root is a single file
	dirs    map[string]struct{} // directories passed to watcher.Add
	watcher *fsnotify.Watcher
	logger  *slog.Logger
}

// New registers watches on opts.Root. Changes made after New returns are seen
// by Run.
func New(opts Options, logger *slog.Logger) (*Watcher, error) {
	if opts.Debounce <= 0 {
		opts.Debounce = 300 * time.Millisecond
	}
	if opts.Match == nil {
		opts.Match = DefaultMatch
	}
	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}
	opts.Root = root

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", root, err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	w := &Watcher{
		opts:    opts,
		dirs:    make(map[string]struct{}),
		watcher: fsw,
		logger:  logger.With("component", "watch"),
	}

	if info.IsDir() {
		_, err = w.addRecursive(root)
	} else {
		w.file = root
		err = fsw.Add(filepath.Dir(root))
	}
	if err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("watching %s: %w", root, err)
	}
	return w, nil
}

// Close releases the underlying watches.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

// Run blocks until ctx is cancelled, calling fn once for every burst of
// changes. Errors from fn are logged and watching continues.
func (w *Watcher) Run(ctx context.Context, fn func(context.Context) error) error {
	w.logger.Info("watching for changes", "root", w.opts.Root, "debounce", w.opts.Debounce)

	timer := time.NewTimer(w.opts.Debounce)
	timer.Stop()
	defer timer.Stop()
	pending := 0

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if w.relevant(event) {
				pending++
				timer.Reset(w.opts.Debounce)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watcher error", "error", err)

		case <-timer.C:
			w.logger.Info("change detected, re-rendering", "events", pending)
			pending = 0
			if err := fn(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				w.logger.Error("run failed", "error", err)
			}
		}
	}
}

// Run is New followed by Run and Close.
func Run(ctx context.Context, opts Options, logger *slog.Logger, fn func(context.Context) error) error {
	w, err := New(opts, logger)
	if err != nil {
		return err
	}
	defer w.Close()
	return w.Run(ctx, fn)
}

// relevant reports whether event changes the input, adding watches for new
// directories as they appear and dropping those of directories that are
// renamed or removed.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}
	if w.file != "" {
		return filepath.Clean(event.Name) == w.file
	}

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			found, err := w.addRecursive(event.Name)
			if err != nil {
				w.logger.Warn("failed to watch new directory", "path", event.Name, "error", err)
			}
			return found
		}
	}

	if event.Has(fsnotify.Rename) || event.Has(fsnotify.Remove) {
		if w.forget(filepath.Clean(event.Name)) {
			return true
		}
	}

	rel, err := filepath.Rel(w.opts.Root, event.Name)
	if err != nil {
		return false
	}
	return w.opts.Match(filepath.ToSlash(rel))
}

// forget stops watching dir and every directory below it. It reports whether
// dir was being watched.
func (w *Watcher) forget(dir string) bool {
	if _, ok := w.dirs[dir]; !ok {
		return false
	}
	prefix := dir + string(filepath.Separator)
	for d := range w.dirs {
		if d != dir && !strings.HasPrefix(d, prefix) {
			continue
		}
		delete(w.dirs, d)
		// The kernel may already have dropped the watch.
		if err := w.watcher.Remove(d); err != nil {
			w.logger.Debug("watch already gone", "path", d, "error", err)
		}
	}
	w.logger.Debug("stopped watching directory", "path", dir)
	return true
}

// addRecursive watches dir and every directory below it, reporting whether any
// matching file already exists there.
func (w *Watcher) addRecursive(dir string) (bool, error) {
	found := false
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			if rel, err := filepath.Rel(w.opts.Root, path); err == nil && w.opts.Match(filepath.ToSlash(rel)) {
				found = true
			}
			return nil
		}
		if path != w.opts.Root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			return err
		}
		w.dirs[filepath.Clean(path)] = struct{}{}
		w.logger.Debug("watching directory", "path", path)
		return nil
	})
	return found, err
}
