package tui

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// StateWatcher reports changes to the session file made by other tomate
// invocations, such as a finish or clear from another terminal.
type StateWatcher struct {
	watcher *fsnotify.Watcher
	target  string
	changes chan struct{}
	stopCh  chan struct{}
	once    sync.Once
}

// NewStateWatcher starts watching the session file at path. The parent
// directory is watched, since the file is replaced by rename on every save.
func NewStateWatcher(path string) (*StateWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("failed to watch directory: %w", err)
	}

	w := &StateWatcher{
		watcher: watcher,
		target:  filepath.Base(path),
		changes: make(chan struct{}, 1),
		stopCh:  make(chan struct{}),
	}
	go w.watchLoop()
	return w, nil
}

// Changes delivers a value after the session file was written, replaced or
// removed. Bursts of events are coalesced.
func (w *StateWatcher) Changes() <-chan struct{} {
	return w.changes
}

// Close stops the watcher.
func (w *StateWatcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.stopCh)
		err = w.watcher.Close()
	})
	return err
}

func (w *StateWatcher) watchLoop() {
	debounce := time.NewTimer(0)
	<-debounce.C

	for {
		select {
		case <-w.stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != w.target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			debounce.Reset(50 * time.Millisecond)

		case <-debounce.C:
			select {
			case w.changes <- struct{}{}:
			default:
			}

		case _, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
		}
	}
}
