// Package watcher reports external changes to the files and directories the
// editor has loaded.
package watcher

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/kobzarvs/qscribe/internal/logger"
)

type Kind int

const (
	FileChanged Kind = iota
	FileInvalidated
	DirectoryChanged
	DirectoryInvalidated
)

func (k Kind) String() string {
	switch k {
	case FileChanged:
		return "fileChanged"
	case FileInvalidated:
		return "fileInvalidated"
	case DirectoryChanged:
		return "directoryChanged"
	case DirectoryInvalidated:
		return "directoryInvalidated"
	default:
		return "unknown"
	}
}

type Event struct {
	Kind Kind
	Path string
}

// Watcher watches registered files through their parent directory and
// registered directories directly.
type Watcher struct {
	fsw *fsnotify.Watcher

	mu    sync.Mutex
	files map[string]bool
	dirs  map[string]bool
	refs  map[string]int

	events chan Event
	stopCh chan struct{}
	done   chan struct{}
	once   sync.Once
}

func New() (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		fsw:    fsw,
		files:  make(map[string]bool),
		dirs:   make(map[string]bool),
		refs:   make(map[string]int),
		events: make(chan Event, 64),
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Watch registers path. Registering a path twice is a no-op.
func (w *Watcher) Watch(path string) error {
	path = filepath.Clean(path)
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if info.IsDir() {
		if w.dirs[path] {
			return nil
		}
		if err := w.retainLocked(path); err != nil {
			return err
		}
		w.dirs[path] = true
	} else {
		if w.files[path] {
			return nil
		}
		if err := w.retainLocked(filepath.Dir(path)); err != nil {
			return err
		}
		w.files[path] = true
	}
	logger.Debug("watching path", "path", path)
	return nil
}

// Unwatch drops path. Unknown paths are ignored.
func (w *Watcher) Unwatch(path string) {
	path = filepath.Clean(path)
	w.mu.Lock()
	defer w.mu.Unlock()
	switch {
	case w.files[path]:
		delete(w.files, path)
		w.releaseLocked(filepath.Dir(path))
	case w.dirs[path]:
		delete(w.dirs, path)
		w.releaseLocked(path)
	}
}

func (w *Watcher) IsWatched(path string) bool {
	path = filepath.Clean(path)
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.files[path] || w.dirs[path]
}

func (w *Watcher) retainLocked(dir string) error {
	if w.refs[dir] == 0 {
		if err := w.fsw.Add(dir); err != nil {
			return err
		}
	}
	w.refs[dir]++
	return nil
}

func (w *Watcher) releaseLocked(dir string) {
	w.refs[dir]--
	if w.refs[dir] > 0 {
		return
	}
	delete(w.refs, dir)
	if err := w.fsw.Remove(dir); err != nil {
		// The directory may already be gone, which drops the watch anyway.
		logger.Debug("unwatch failed", "path", dir, "error", err)
	}
}

// Close stops the event loop. Events after Close are dropped.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.stopCh)
		err = w.fsw.Close()
		<-w.done
	})
	return err
}

func (w *Watcher) loop() {
	defer close(w.done)
	for {
		select {
		case <-w.stopCh:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			for _, out := range w.translate(ev) {
				select {
				case w.events <- out:
				case <-w.stopCh:
					return
				}
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			logger.Warn("watcher error", "error", err)
		}
	}
}

func (w *Watcher) translate(ev fsnotify.Event) []Event {
	if ev.Op == fsnotify.Chmod {
		return nil
	}
	name := filepath.Clean(ev.Name)
	parent := filepath.Dir(name)
	gone := ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename)

	w.mu.Lock()
	defer w.mu.Unlock()
	var out []Event
	if w.files[name] {
		if gone {
			out = append(out, Event{Kind: FileInvalidated, Path: name})
		} else if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
			out = append(out, Event{Kind: FileChanged, Path: name})
		}
	}
	if w.dirs[name] && gone {
		out = append(out, Event{Kind: DirectoryInvalidated, Path: name})
	}
	if w.dirs[parent] {
		out = append(out, Event{Kind: DirectoryChanged, Path: parent})
	}
	return out
}
