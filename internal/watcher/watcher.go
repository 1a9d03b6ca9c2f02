// Package watcher observes the produced asset file on disk. The photo is
// written by an external script after session_end, so its appearance (or
// deletion) is pushed to frontends instead of waiting for the next poll.
package watcher

import (
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const debounceInterval = 250 * time.Millisecond

// UpdateCallback is called when the tracked file's existence changes.
type UpdateCallback func(path string, exists bool)

// Watcher tracks at most one asset file at a time; tracking a new path
// replaces the previous watch.
type Watcher struct {
	mu       sync.Mutex
	current  *fileWatch
	callback UpdateCallback
}

type fileWatch struct {
	path      string
	fsWatcher *fsnotify.Watcher
	cancel    chan struct{}

	// mu serializes existence checks; a replaced debounce timer may still
	// be running its check when the next one fires.
	mu         sync.Mutex
	lastExists bool
}

func New(callback UpdateCallback) *Watcher {
	return &Watcher{callback: callback}
}

// Track watches the directory containing path and reports existence flips of
// the file itself. The directory is watched rather than the file because the
// file usually does not exist yet when tracking starts.
func (w *Watcher) Track(path string) error {
	fsW, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := fsW.Add(dir); err != nil {
		fsW.Close()
		return err
	}

	fw := &fileWatch{
		path:       path,
		fsWatcher:  fsW,
		cancel:     make(chan struct{}),
		lastExists: fileExists(path),
	}

	w.mu.Lock()
	prev := w.current
	w.current = fw
	w.mu.Unlock()
	if prev != nil {
		prev.stop()
	}

	// Report the initial existence before the event loop can schedule a
	// check, so a late Track still informs clients in order.
	if w.callback != nil {
		w.callback(fw.path, fw.lastExists)
	}

	go w.watchLoop(fw)
	return nil
}

// Shutdown stops the active watch.
func (w *Watcher) Shutdown() {
	w.mu.Lock()
	fw := w.current
	w.current = nil
	w.mu.Unlock()
	if fw != nil {
		fw.stop()
	}
}

func (fw *fileWatch) stop() {
	select {
	case <-fw.cancel:
	default:
		close(fw.cancel)
	}
	fw.fsWatcher.Close()
}

func (w *Watcher) watchLoop(fw *fileWatch) {
	var debounce *time.Timer
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	for {
		select {
		case <-fw.cancel:
			return
		case evt, ok := <-fw.fsWatcher.Events:
			if !ok {
				return
			}
			if evt.Name != fw.path {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(debounceInterval, func() {
				w.check(fw)
			})
		case err, ok := <-fw.fsWatcher.Errors:
			if !ok {
				return
			}
			log.Printf("watcher error: %v", err)
		}
	}
}

func (w *Watcher) check(fw *fileWatch) {
	select {
	case <-fw.cancel:
		return
	default:
	}

	fw.mu.Lock()
	defer fw.mu.Unlock()
	exists := fileExists(fw.path)
	if exists == fw.lastExists {
		return
	}
	fw.lastExists = exists
	if w.callback != nil {
		w.callback(fw.path, exists)
	}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
