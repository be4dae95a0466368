// Package watch re-runs a bake when data files change.
package watch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rtei-org/rtei/internal/contract"
)

// Trigger is invoked after a burst of changes settles.
// It receives the sorted, de-duplicated base names of the changed files.
type Trigger func(ctx context.Context, changed []string) error

// Watcher watches one data directory for JSON file changes.
type Watcher struct {
	mu       sync.Mutex
	watcher  *fsnotify.Watcher
	dir      string
	debounce time.Duration
	trigger  Trigger
	pending  map[string]struct{}
	last     time.Time
	runs     int
}

// New creates a Watcher over dir. A debounce of zero uses the default.
func New(dir string, debounce time.Duration, trigger Trigger) (*Watcher, error) {
	if trigger == nil {
		return nil, errors.New("watch trigger is required")
	}
	if debounce <= 0 {
		debounce = contract.DefaultDebounce
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := fw.Add(dir); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	return &Watcher{
		watcher:  fw,
		dir:      dir,
		debounce: debounce,
		trigger:  trigger,
		pending:  make(map[string]struct{}),
	}, nil
}

// Run blocks until ctx is canceled, firing the trigger after each quiet period.
// Trigger errors are logged and do not stop the loop.
func (w *Watcher) Run(ctx context.Context) error {
	defer func() { _ = w.watcher.Close() }()

	// Check the pending set a few times per debounce window
	ticker := time.NewTicker(max(w.debounce/5, 10*time.Millisecond))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			contract.LogWarn("Watcher error", err)

		case <-ticker.C:
			if changed := w.settled(time.Now()); len(changed) > 0 {
				if err := w.trigger(ctx, changed); err != nil {
					contract.LogWarn("Re-bake failed", err)
				}
			}
		}
	}
}

// Runs returns how many times the trigger has fired.
func (w *Watcher) Runs() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.runs
}

// handleEvent records a relevant change.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !relevant(event) {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending[filepath.Base(event.Name)] = struct{}{}
	w.last = time.Now()
}

// settled drains the pending set once no change arrived for a full debounce window.
func (w *Watcher) settled(now time.Time) []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.pending) == 0 || now.Sub(w.last) < w.debounce {
		return nil
	}
	changed := make([]string, 0, len(w.pending))
	for name := range w.pending {
		changed = append(changed, name)
	}
	slices.Sort(changed)
	clear(w.pending)
	w.runs++
	return changed
}

// relevant keeps writes, creates, renames and removals of JSON files.
func relevant(event fsnotify.Event) bool {
	if !strings.EqualFold(filepath.Ext(event.Name), ".json") {
		return false
	}
	return event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0
}
