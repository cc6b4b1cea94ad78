package fsbridge

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce collapses the burst of events editors emit for one save.
const DefaultDebounce = 200 * time.Millisecond

// Watcher reports changes to a single file.
type Watcher struct {
	path     string
	watcher  *fsnotify.Watcher
	onChange func(path string)
	debounce time.Duration
	owner    *Plugin

	stopOnce sync.Once
	done     chan struct{}
	finished chan struct{}
}

// Watch calls onChange (from a background goroutine) after path is written,
// created, renamed or removed. The parent directory is watched rather than the
// file so that editors which save by rename keep being followed.
func (p *Plugin) Watch(path string, debounce time.Duration, onChange func(path string)) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %q: %w", path, err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to watch %q: %w", filepath.Dir(abs), err)
	}

	w := &Watcher{
		path:     abs,
		watcher:  fw,
		onChange: onChange,
		debounce: debounce,
		owner:    p,
		done:     make(chan struct{}),
		finished: make(chan struct{}),
	}
	if err := p.track(w); err != nil {
		fw.Close()
		return nil, err
	}

	go w.run()
	p.log.Debug().Str("path", abs).Msg("watching file")
	return w, nil
}

// Path returns the absolute path being watched.
func (w *Watcher) Path() string {
	return w.path
}

// Stop ends the watch. It is safe to call more than once.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.done)
		err = w.watcher.Close()
		<-w.finished
		w.owner.untrack(w)
	})
	return err
}

func (w *Watcher) run() {
	defer close(w.finished)

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			w.onChange(w.path)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.owner.log.Warn().Err(err).Str("path", w.path).Msg("watch error")
		}
	}
}
