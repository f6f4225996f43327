package watcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestWatcher(t *testing.T) *Watcher {
	t.Helper()
	w, err := New()
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	t.Cleanup(func() { _ = w.Close() })
	return w
}

// waitFor drains events until one matches or the deadline passes.
func waitFor(t *testing.T, w *Watcher, kind Kind, path string) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case ev := <-w.Events():
			if ev.Kind == kind && ev.Path == path {
				return
			}
		case <-deadline:
			t.Fatalf("no %s event for %s", kind, path)
		}
	}
}

func TestFileChangedAndInvalidated(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	if err := os.WriteFile(path, []byte("one"), 0o644); err != nil {
		t.Fatal(err)
	}
	w := newTestWatcher(t)
	if err := w.Watch(path); err != nil {
		t.Fatalf("Watch error: %v", err)
	}
	if !w.IsWatched(path) {
		t.Fatalf("IsWatched = false")
	}

	if err := os.WriteFile(path, []byte("two"), 0o644); err != nil {
		t.Fatal(err)
	}
	waitFor(t, w, FileChanged, path)

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	waitFor(t, w, FileInvalidated, path)
}

func TestSiblingsOfWatchedFileAreFiltered(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	other := filepath.Join(dir, "b.txt")
	for _, p := range []string{path, other} {
		if err := os.WriteFile(p, nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	w := newTestWatcher(t)
	if err := w.Watch(path); err != nil {
		t.Fatalf("Watch error: %v", err)
	}
	if err := os.WriteFile(other, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	deadline := time.After(5 * time.Second)
	for {
		select {
		case ev := <-w.Events():
			if ev.Path == other {
				t.Fatalf("event for unwatched sibling: %+v", ev)
			}
			if ev.Path == path {
				return
			}
		case <-deadline:
			t.Fatalf("no event for %s", path)
		}
	}
}

func TestDirectoryEvents(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "project")
	if err := os.Mkdir(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	w := newTestWatcher(t)
	if err := w.Watch(dir); err != nil {
		t.Fatalf("Watch error: %v", err)
	}
	if err := w.Watch(root); err != nil {
		t.Fatalf("Watch error: %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "new.txt"), nil, 0o644); err != nil {
		t.Fatal(err)
	}
	waitFor(t, w, DirectoryChanged, dir)

	if err := os.RemoveAll(dir); err != nil {
		t.Fatal(err)
	}
	waitFor(t, w, DirectoryInvalidated, dir)
}

func TestUnwatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	w := newTestWatcher(t)
	if err := w.Watch(path); err != nil {
		t.Fatalf("Watch error: %v", err)
	}
	if err := w.Watch(path); err != nil {
		t.Fatalf("second Watch error: %v", err)
	}
	w.Unwatch(path)
	w.Unwatch(path)
	if w.IsWatched(path) {
		t.Fatalf("IsWatched after Unwatch = true")
	}
	if len(w.refs) != 0 {
		t.Fatalf("refs = %v, want empty", w.refs)
	}
	if err := w.Watch(filepath.Join(dir, "missing")); err == nil {
		t.Fatalf("Watch on missing path succeeded")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	w, err := New()
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("second Close error: %v", err)
	}
}
