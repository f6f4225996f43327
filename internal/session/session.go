// Package session stores the open editors and projects between runs and
// names untitled buffers.
package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"sync"

	"github.com/spf13/afero"
	"go.uber.org/multierr"

	"github.com/kobzarvs/qscribe/internal/editor"
	"github.com/kobzarvs/qscribe/internal/errs"
	"github.com/kobzarvs/qscribe/internal/logger"
)

const Key = "session"

// Store is the settings slice the session persists into.
type Store interface {
	Strings(key string) []string
	SetStrings(key string, values []string)
}

// Workspace is what a session is taken from and restored into.
type Workspace interface {
	Editors() []*editor.Editor
	Projects() []string
	OpenFile(path string) error
	OpenUntitled(name string) error
	OpenProject(path string) error
}

// Manager owns the scratch directory and the untitled name counter.
type Manager struct {
	mu      sync.Mutex
	fs      afero.Fs
	store   Store
	dir     string
	name    string
	ext     string
	counter int
	pattern *regexp.Regexp
}

// New returns a manager saving untitled buffers under dir as
// "<name> <N>.<ext>". Init must run before the first Store.
func New(fs afero.Fs, store Store, dir, name, ext string) *Manager {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Manager{
		fs:      fs,
		store:   store,
		dir:     filepath.Clean(dir),
		name:    name,
		ext:     ext,
		counter: 1,
		pattern: regexp.MustCompile("^" + regexp.QuoteMeta(name) + ` (\d+)\.` + regexp.QuoteMeta(ext) + "$"),
	}
}

// Init creates the scratch directory and resumes numbering after the
// highest untitled name found in it or in the stored entries.
func (m *Manager) Init() error {
	if err := m.fs.MkdirAll(m.dir, 0o755); err != nil {
		return errs.Wrap(errs.WriteFailed, m.dir, err)
	}
	names := m.Entries()
	if infos, err := afero.ReadDir(m.fs, m.dir); err == nil {
		for _, info := range infos {
			names = append(names, info.Name())
		}
	}
	m.mu.Lock()
	m.counter = max(m.counter, m.next(names))
	m.mu.Unlock()
	return nil
}

func (m *Manager) Directory() string {
	return m.dir
}

// Entries returns the stored session as recorded.
func (m *Manager) Entries() []string {
	return m.store.Strings(Key)
}

// IsScratch reports whether path lives in the scratch directory.
func (m *Manager) IsScratch(path string) bool {
	return filepath.Dir(filepath.Clean(path)) == m.dir
}

// IsUntitledName reports whether the base name of path has the untitled form.
func (m *Manager) IsUntitledName(path string) bool {
	return m.pattern.MatchString(filepath.Base(path))
}

// UntitledName yields the next "<name> <N>.<ext>", with N above every
// number already used by taken.
func (m *Manager) UntitledName(taken []string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := max(m.counter, m.next(taken))
	m.counter = n + 1
	name := fmt.Sprintf("%s %d.%s", m.name, n, m.ext)
	logger.Debug("next untitled file name", "name", name)
	return name
}

// next returns one past the highest untitled number in names, or 1.
func (m *Manager) next(names []string) int {
	n := 1
	for _, name := range names {
		sub := m.pattern.FindStringSubmatch(filepath.Base(name))
		if sub == nil {
			continue
		}
		if v, err := strconv.Atoi(sub[1]); err == nil {
			n = max(n, v+1)
		}
	}
	return n
}

// Store records the workspace. Untitled buffers with content are written to
// the scratch directory; modified scratch files are saved in place. Empty
// untitled editors are recorded by name. A failed write drops that entry.
func (m *Manager) Store(w Workspace) error {
	var entries []string
	var err error
	for _, e := range w.Editors() {
		file := e.File()
		switch {
		case e.IsUntitled() && !e.IsEmpty():
			file = filepath.Join(m.dir, filepath.Base(file))
			if werr := e.WriteFile(file); werr != nil {
				logger.Warn("cannot store untitled buffer", "path", file, "error", werr)
				err = multierr.Append(err, werr)
				continue
			}
		case !e.IsUntitled() && m.IsScratch(file) && e.IsModified():
			if serr := e.Save(); serr != nil {
				logger.Warn("cannot save scratch file", "path", file, "error", serr)
				err = multierr.Append(err, serr)
			}
		}
		entries = append(entries, file)
	}
	for _, dir := range w.Projects() {
		if _, serr := m.fs.Stat(dir); serr != nil {
			continue
		}
		entries = append(entries, dir)
	}
	m.store.SetStrings(Key, entries)
	logger.Info("session stored", "entries", len(entries))
	return err
}

// Restore reopens the stored entries: directories as projects, files as
// editors, missing untitled names as fresh untitled editors. Failures are
// logged, skipped and returned together.
func (m *Manager) Restore(w Workspace) (int, error) {
	entries := m.Entries()
	var err error
	restored := 0
	for _, path := range entries {
		if rerr := m.restore(w, path); rerr != nil {
			logger.Warn("cannot restore session entry", "path", path, "error", rerr)
			err = multierr.Append(err, rerr)
			continue
		}
		restored++
	}
	logger.Info("session restored", "entries", len(entries), "restored", restored)
	return restored, err
}

func (m *Manager) restore(w Workspace, path string) error {
	info, err := m.fs.Stat(path)
	switch {
	case err == nil && info.IsDir():
		return w.OpenProject(path)
	case err == nil:
		return w.OpenFile(path)
	case !errors.Is(err, os.ErrNotExist):
		return errs.Wrap(errs.ReadFailed, path, err)
	case filepath.Base(path) == path && m.IsUntitledName(path):
		return w.OpenUntitled(path)
	default:
		return errs.New(errs.FileMissing, path)
	}
}
