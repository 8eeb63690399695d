// Package watch reruns a check when source or rule-set files change.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/bebsworthy/pmdgate/internal/debug"
)

// DefaultDebounce is how long the watcher waits for a burst of changes to
// settle before rerunning
const DefaultDebounce = 500 * time.Millisecond

// DefaultPatterns select the files whose changes trigger a rerun
var DefaultPatterns = []string{"**/*.java", "**/*.xml"}

// Watcher watches a directory tree and calls a function after changes to
// matching files
type Watcher struct {
	// Root is the directory tree to watch
	Root string
	// Patterns are doublestar globs matched against paths relative to Root
	Patterns []string
	Debounce time.Duration
}

// New creates a watcher for root with the default patterns and debounce
func New(root string) *Watcher {
	return &Watcher{
		Root:     root,
		Patterns: append([]string(nil), DefaultPatterns...),
		Debounce: DefaultDebounce,
	}
}

// Run calls onChange after every settled burst of relevant changes until
// ctx is done. onChange runs on the watching goroutine, so bursts that
// arrive while it runs are coalesced into the next call.
func (w *Watcher) Run(ctx context.Context, onChange func(ctx context.Context)) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = fw.Close() }() //nolint:errcheck // best effort cleanup

	if err := w.addTree(fw, w.Root); err != nil {
		return err
	}

	debounce := w.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addTree(fw, event.Name); err != nil {
						debug.LogError(err, "watching new directory")
					}
				}
			}
			if !w.Relevant(event) {
				continue
			}
			debug.Log("Change detected: %s %s", event.Op, event.Name)
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(debounce)
			fire = timer.C

		case <-fire:
			fire = nil
			onChange(ctx)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			debug.LogError(err, "watching files")
		}
	}
}

// Relevant reports whether an event should trigger a rerun
func (w *Watcher) Relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}

	rel, err := filepath.Rel(w.Root, event.Name)
	if err != nil || strings.HasPrefix(rel, "..") {
		return false
	}
	rel = filepath.ToSlash(rel)

	for _, pattern := range w.Patterns {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

// addTree watches dir and every directory below it, skipping hidden ones
func (w *Watcher) addTree(fw *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := fw.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}
