package articleindex

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher rebuilds the index when corpus files change. Events are debounced
// so a batch of file copies triggers a single rebuild, and the rebuild runs
// off to the side: searches keep hitting the old index until Swap.
type Watcher struct {
	manager  *Watched
	debounce time.Duration
}

// Watched bundles the manager with the loader that produces its documents.
type Watched struct {
	Manager *Manager
	Load    func() ([]Document, error)
}

// NewWatcher wraps a managed index for filesystem-driven rebuilds.
func NewWatcher(w *Watched, debounce time.Duration) *Watcher {
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	return &Watcher{manager: w, debounce: debounce}
}

// Run watches dir until ctx is done, rebuilding after each settled burst of
// changes to .pdf or .txt files. Rebuild errors are reported through onErr
// and do not stop the watch.
func (w *Watcher) Run(ctx context.Context, dir string, onErr func(error)) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()
	if err := fw.Add(dir); err != nil {
		return err
	}

	var timer *time.Timer
	var timerC <-chan time.Time

	rebuild := func() {
		docs, err := w.manager.Load()
		if err != nil {
			if onErr != nil {
				onErr(err)
			}
			return
		}
		w.manager.Manager.Rebuild(docs)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !relevantEvent(ev) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				timer.Reset(w.debounce)
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			if onErr != nil {
				onErr(err)
			}
		case <-timerC:
			timer = nil
			timerC = nil
			rebuild()
		}
	}
}

func relevantEvent(ev fsnotify.Event) bool {
	if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	switch strings.ToLower(filepath.Ext(ev.Name)) {
	case ".pdf", ".txt":
		return true
	}
	return false
}
