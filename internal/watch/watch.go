// Package watch turns file system events on a plan file into debounced
// scheduling requests.
package watch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/kilianp07/dayplan/core/logger"
)

// DefaultDebounce is the quiet period after the last event before a change
// is reported. Editors usually emit several events per save.
const DefaultDebounce = 250 * time.Millisecond

const (
	restartBackoffBase = 250 * time.Millisecond
	restartBackoffMax  = 5 * time.Second
)

// Watcher reports changes of a single file.
type Watcher struct {
	path     string
	debounce time.Duration
	log      logger.Logger
}

// New creates a Watcher for path. A non-positive debounce uses
// DefaultDebounce.
func New(path string, debounce time.Duration, log logger.Logger) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{path: path, debounce: debounce, log: logger.OrNop(log)}
}

// Run blocks until ctx is done, calling onChange once per burst of events
// on the file. Calls never overlap. The parent directory is watched so that
// atomic saves (write to a temp file, rename over the original) are seen.
// A watcher that breaks is recreated with exponential backoff.
func (w *Watcher) Run(ctx context.Context, onChange func(context.Context)) error {
	dir := filepath.Dir(w.path)
	backoff := restartBackoffBase
	for {
		fw, err := fsnotify.NewWatcher()
		if err == nil {
			if err = fw.Add(dir); err != nil {
				_ = fw.Close()
			}
		}
		if err != nil {
			w.log.Warnf("watch %s failed: %v", dir, err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(backoff):
			}
			backoff = min(backoff*2, restartBackoffMax)
			continue
		}
		backoff = restartBackoffBase
		w.log.Debugf("watching %s", w.path)

		err = w.loop(ctx, fw, onChange)
		_ = fw.Close()
		if err == nil {
			return nil
		}
		w.log.Warnf("watcher restarting: %v", err)
	}
}

var errWatcherClosed = errors.New("fsnotify channels closed")

func (w *Watcher) loop(ctx context.Context, fw *fsnotify.Watcher, onChange func(context.Context)) error {
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
		case ev, ok := <-fw.Events:
			if !ok {
				return errWatcherClosed
			}
			if !w.relevant(ev) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(w.debounce)
			fire = timer.C
		case err, ok := <-fw.Errors:
			if !ok {
				return errWatcherClosed
			}
			w.log.Warnf("watch error: %v", err)
		case <-fire:
			fire = nil
			onChange(ctx)
		}
	}
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if !strings.EqualFold(filepath.Base(ev.Name), filepath.Base(w.path)) {
		return false
	}
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename)
}

// String describes the watcher for logs.
func (w *Watcher) String() string {
	return fmt.Sprintf("watch(%s, %s)", w.path, w.debounce)
}
