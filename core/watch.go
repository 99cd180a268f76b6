package core

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
)

const shaderDebounce = 200 * time.Millisecond

// Watcher reports changes to compiled shaders in a directory. Bursts of
// writes within the debounce window produce a single change.
type Watcher struct {
	watcher  *fsnotify.Watcher
	debounce time.Duration
	changed  atomic.Bool
	log      *slog.Logger
}

func NewWatcher(dir string, log *slog.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create file watcher")
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, errors.Wrapf(err, "failed to watch %s", dir)
	}
	return &Watcher{watcher: fw, debounce: shaderDebounce, log: log}, nil
}

// Run watches until ctx is done or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) {
	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !isShaderWrite(event) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			w.changed.Store(true)
			w.log.Debug("shader change detected")
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("shader watcher error", "err", err)
		}
	}
}

func isShaderWrite(event fsnotify.Event) bool {
	if filepath.Ext(event.Name) != ".spv" {
		return false
	}
	return event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0
}

// Poll returns a ShadersChanged event once per detected change.
func (w *Watcher) Poll() (Event, bool) {
	if w.changed.Swap(false) {
		return Event{Kind: EventShadersChanged}, true
	}
	return Event{}, false
}

func (w *Watcher) Close() error {
	return w.watcher.Close()
}
