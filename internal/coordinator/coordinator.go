// Package coordinator owns the open editors, the project tree and the
// document cache, and keeps them consistent with the file system.
package coordinator

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"go.uber.org/multierr"

	"github.com/kobzarvs/qscribe/internal/cache"
	"github.com/kobzarvs/qscribe/internal/editor"
	"github.com/kobzarvs/qscribe/internal/errs"
	"github.com/kobzarvs/qscribe/internal/history"
	"github.com/kobzarvs/qscribe/internal/languages"
	"github.com/kobzarvs/qscribe/internal/logger"
	"github.com/kobzarvs/qscribe/internal/project"
	"github.com/kobzarvs/qscribe/internal/prompt"
	"github.com/kobzarvs/qscribe/internal/search"
	"github.com/kobzarvs/qscribe/internal/session"
	"github.com/kobzarvs/qscribe/internal/settings"
)

const RecentFilesKey = "recentFiles"

// Watcher is the part of the file-system watcher the coordinator drives.
type Watcher interface {
	Watch(path string) error
	Unwatch(path string)
}

type Options struct {
	Fs        afero.Fs
	Languages *languages.Registry
	Settings  *settings.Store
	Session   *session.Manager
	// Watcher and Dialog may be nil: nothing is watched and dirty editors
	// are never closed.
	Watcher Watcher
	Dialog  prompt.Dialog

	MaxDepth        int
	RecentFilesMax  int
	HistoryCapacity int
	IgnoreHidden    bool
	SessionEnabled  bool
}

type State int

const (
	Closed State = iota
	UntitledClean
	UntitledDirty
	LoadedClean
	LoadedDirty
	Reloading
)

func (s State) String() string {
	return [...]string{"closed", "untitled-clean", "untitled-dirty", "loaded-clean", "loaded-dirty", "reloading"}[s]
}

// Coordinator is not safe for concurrent use. All calls, including the
// handling of watcher and search events, happen on one goroutine.
type Coordinator struct {
	fs       afero.Fs
	langs    *languages.Registry
	model    *project.Model
	cache    *cache.Cache
	settings *settings.Store
	session  *session.Manager
	watcher  Watcher
	dialog   prompt.Dialog
	runner   *search.Runner

	searchHistory  *history.History
	replaceHistory *history.History

	current   *editor.Editor
	locked    map[*editor.Editor]bool
	reloading map[*editor.Editor]bool
	watchRefs map[string]int
	results   []search.Result

	recentMax      int
	ignoreHidden   bool
	sessionEnabled bool
}

func New(opts Options) *Coordinator {
	fs := opts.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}
	langs := opts.Languages
	if langs == nil {
		langs = languages.NewRegistry()
	}
	store := opts.Settings
	if store == nil {
		store = settings.NewMemory()
	}
	sess := opts.Session
	if sess == nil {
		sess = session.New(fs, store, filepath.Join(os.TempDir(), "qscribe-session"), "Untitled", "py")
	}
	dialog := opts.Dialog
	if dialog == nil {
		dialog = prompt.Fixed{Answer: prompt.Cancel}
	}
	recentMax := opts.RecentFilesMax
	if recentMax < 1 {
		recentMax = 10
	}
	c := &Coordinator{
		fs:             fs,
		langs:          langs,
		model:          project.NewModel(fs, opts.MaxDepth),
		cache:          cache.New(),
		settings:       store,
		session:        sess,
		watcher:        opts.Watcher,
		dialog:         dialog,
		searchHistory:  history.New(history.SearchPatternsKey, opts.HistoryCapacity),
		replaceHistory: history.New(history.ReplacePatternsKey, opts.HistoryCapacity),
		locked:         make(map[*editor.Editor]bool),
		reloading:      make(map[*editor.Editor]bool),
		watchRefs:      make(map[string]int),
		recentMax:      recentMax,
		ignoreHidden:   opts.IgnoreHidden,
		sessionEnabled: opts.SessionEnabled,
	}
	c.runner = search.NewRunner(search.NewWorker(fs, c.cache))
	c.model.Subscribe(c.onNodeEvent)
	return c
}

func (c *Coordinator) Model() *project.Model {
	return c.model
}

func (c *Coordinator) Cache() *cache.Cache {
	return c.cache
}

func (c *Coordinator) Settings() *settings.Store {
	return c.settings
}

func (c *Coordinator) Session() *session.Manager {
	return c.session
}

func (c *Coordinator) SearchHistory() *history.History {
	return c.searchHistory
}

func (c *Coordinator) ReplaceHistory() *history.History {
	return c.replaceHistory
}

// Startup restores the pattern histories and the session, and makes sure at
// least one editor is open.
func (c *Coordinator) Startup() {
	c.searchHistory.Restore(c.settings)
	c.replaceHistory.Restore(c.settings)
	if c.sessionEnabled {
		if err := c.session.Init(); err != nil {
			logger.Warn("cannot prepare session directory", "error", err)
		} else if _, err := c.session.Restore(c); err != nil {
			logger.Warn("session restored with errors", "error", err)
		}
	}
	if len(c.Editors()) == 0 {
		c.NewFile()
	}
}

// Shutdown stops the search, stores the session and closes every editor.
// It returns false when the user cancels closing a dirty editor; nothing
// is persisted then.
func (c *Coordinator) Shutdown() (bool, error) {
	c.runner.Interrupt()
	var err error
	if c.sessionEnabled {
		err = multierr.Append(err, c.session.Store(c))
	}
	ok, closeErr := c.CloseAllFiles(false)
	err = multierr.Append(err, closeErr)
	if !ok {
		return false, err
	}
	c.runner.Quit()
	c.searchHistory.Persist(c.settings)
	c.replaceHistory.Persist(c.settings)
	err = multierr.Append(err, c.settings.Save())
	logger.Info("coordinator shut down")
	return true, err
}

// Editors lists the open editors in the order they were opened.
func (c *Coordinator) Editors() []*editor.Editor {
	return c.model.ListEditors(project.NoHandle)
}

// Projects lists the project directories, without the default project.
func (c *Coordinator) Projects() []string {
	return c.model.ListProjects(false)
}

// Editor returns the editor bound to path, or nil.
func (c *Coordinator) Editor(path string) *editor.Editor {
	for _, e := range c.Editors() {
		if e.File() == path {
			return e
		}
	}
	return nil
}

func (c *Coordinator) Current() *editor.Editor {
	return c.current
}

func (c *Coordinator) SetCurrent(e *editor.Editor) {
	if len(c.model.GetEditorNodes(e, project.NoHandle)) > 0 {
		c.current = e
	}
}

func (c *Coordinator) State(e *editor.Editor) State {
	switch {
	case e == nil || len(c.model.GetEditorNodes(e, project.NoHandle)) == 0:
		return Closed
	case c.reloading[e]:
		return Reloading
	case e.IsUntitled() && e.IsModified():
		return UntitledDirty
	case e.IsUntitled():
		return UntitledClean
	case e.IsModified():
		return LoadedDirty
	default:
		return LoadedClean
	}
}

func (c *Coordinator) newEditor() *editor.Editor {
	e := editor.New(c.fs, c.langs)
	c.track(e)
	return e
}

// track drops the cached copy of the editor file whenever the editor
// modified flag flips.
func (c *Coordinator) track(e *editor.Editor) {
	e.Document().OnModificationChanged(func(bool) {
		c.cache.Invalidate(e.File())
	})
}

func (c *Coordinator) register(e *editor.Editor) error {
	if _, err := c.model.SetAuthoringNodes(e); err != nil {
		return err
	}
	c.current = e
	return nil
}

// NewFile opens an empty untitled editor.
func (c *Coordinator) NewFile() *editor.Editor {
	e := c.newEditor()
	e.NewUntitled(c.session.UntitledName(c.model.ListFiles(project.NoHandle)))
	if err := c.register(e); err != nil {
		logger.Error("cannot register untitled editor", "error", err)
		return nil
	}
	logger.Info("file created", "name", e.File())
	return e
}

// LoadFile opens path in a new editor, or returns the editor already on it.
func (c *Coordinator) LoadFile(path string) (*editor.Editor, error) {
	return c.loadFile(path, true)
}

func (c *Coordinator) loadFile(path string, closeFirst bool) (*editor.Editor, error) {
	path = filepath.Clean(path)
	if e := c.Editor(path); e != nil {
		logger.Info("file already loaded", "path", path)
		c.current = e
		return e, nil
	}
	if _, err := c.fs.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, errs.New(errs.FileMissing, path)
		}
		return nil, errs.Wrap(errs.ReadFailed, path, err)
	}
	if closeFirst {
		c.CloseFirstFile()
	}

	logger.Info("loading file", "path", path)
	e := c.newEditor()
	if err := e.LoadFromPath(path); err != nil {
		return nil, err
	}
	if err := c.register(e); err != nil {
		return nil, err
	}
	c.storeRecentFile(path)
	return e, nil
}

// LoadDocument opens an editor over a document held by the cache, keeping
// its pending edits. The cache entry is dropped since the editor now owns it.
func (c *Coordinator) LoadDocument(path string) (*editor.Editor, error) {
	path = filepath.Clean(path)
	if e := c.Editor(path); e != nil {
		c.current = e
		return e, nil
	}
	data, ok := c.cache.Get(path)
	if !ok || data.Document == nil {
		return c.LoadFile(path)
	}
	c.CloseFirstFile()

	e := editor.New(c.fs, c.langs)
	e.LoadFromDocument(data.Document, path, nil)
	c.track(e)
	if err := c.register(e); err != nil {
		return nil, err
	}
	c.cache.Invalidate(path)
	c.storeRecentFile(path)
	return e, nil
}

// LoadPath loads a file or adds a directory as a project.
func (c *Coordinator) LoadPath(path string) error {
	info, err := c.fs.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return errs.New(errs.FileMissing, path)
		}
		return errs.Wrap(errs.ReadFailed, path, err)
	}
	if info.IsDir() {
		_, err = c.AddProject(path)
		return err
	}
	_, err = c.LoadFile(path)
	return err
}

func (c *Coordinator) AddProject(path string) (project.Handle, error) {
	if _, err := c.fs.Stat(path); err != nil {
		return project.NoHandle, errs.New(errs.FileMissing, path)
	}
	path = filepath.Clean(path)
	h, err := c.model.RegisterProject(path, true)
	if err != nil {
		logger.Warn("project already opened", "path", path)
		return project.NoHandle, err
	}
	logger.Info("adding project", "path", path)
	if err := c.model.SetProjectNodes(h); err != nil {
		logger.Warn("cannot list project", "path", path, "error", err)
	}
	return h, nil
}

func (c *Coordinator) RemoveProject(path string) error {
	nodes := c.model.GetProjectNodes(filepath.Clean(path))
	if len(nodes) == 0 {
		logger.Warn("project is not opened", "path", path)
		return errs.New(errs.NotRegistered, path)
	}
	logger.Info("removing project", "path", path)
	return c.model.DeleteProjectNodes(nodes[0])
}

// SaveFile writes e to its file. The watcher event caused by the write is
// swallowed instead of reloading the editor.
func (c *Coordinator) SaveFile(e *editor.Editor) error {
	if e.IsUntitled() {
		return errs.Wrap(errs.WriteFailed, e.File(), errors.New("untitled file needs a path"))
	}
	logger.Info("saving file", "path", e.File())
	if c.watcher != nil && c.watchRefs[e.File()] > 0 {
		c.locked[e] = true
	}
	if err := e.Save(); err != nil {
		delete(c.locked, e)
		logger.Warn("save failed", "path", e.File(), "error", err)
		return err
	}
	c.cache.Invalidate(e.File())
	return nil
}

// SaveFileAs writes e to path and rebinds it there.
func (c *Coordinator) SaveFileAs(e *editor.Editor, path string) error {
	path = filepath.Clean(path)
	if other := c.Editor(path); other != nil {
		if other != e {
			return errs.New(errs.AlreadyRegistered, path)
		}
		return c.SaveFile(e)
	}
	old := e.File()
	logger.Info("saving file as", "from", old, "to", path)
	if err := e.SaveAs(path); err != nil {
		return err
	}
	c.unwatch(old)
	if err := c.model.UpdateAuthoringNodes(e); err != nil {
		return err
	}
	c.watch(path)
	c.cache.Invalidate(path)
	c.storeRecentFile(path)
	return nil
}

// SaveAllFiles saves every editor bound to a file and returns how many were written.
func (c *Coordinator) SaveAllFiles() (int, error) {
	var err error
	saved := 0
	for _, e := range c.Editors() {
		if e.IsUntitled() {
			continue
		}
		if serr := c.SaveFile(e); serr != nil {
			err = multierr.Append(err, serr)
			continue
		}
		saved++
	}
	return saved, err
}

// RevertFile reloads e from disk, dropping unsaved changes.
func (c *Coordinator) RevertFile(e *editor.Editor) error {
	logger.Info("reverting file", "path", e.File())
	c.cache.Invalidate(e.File())
	return c.reload(e)
}

func (c *Coordinator) reload(e *editor.Editor) error {
	c.reloading[e] = true
	defer delete(c.reloading, e)
	return e.Reload(false)
}

// CloseFile closes e, asking what to do with unsaved changes first. It
// returns false when the user cancels or saving fails. With leaveFirstEditor
// set, closing the last editor opens a fresh untitled one.
func (c *Coordinator) CloseFile(e *editor.Editor, leaveFirstEditor bool) (bool, error) {
	if e == nil {
		return false, nil
	}
	if e.IsModified() {
		answer, err := c.dialog.Ask("Close", fmt.Sprintf("'%s' has unsaved changes.", e.File()))
		if err != nil {
			return false, err
		}
		switch answer {
		case prompt.Save:
			if err := c.saveOnClose(e); err != nil {
				return false, err
			}
		case prompt.Discard:
		default:
			logger.Debug("close canceled", "path", e.File())
			return false, nil
		}
	}
	logger.Info("closing file", "path", e.File())
	if err := c.model.DeleteAuthoringNodes(e); err != nil {
		return false, err
	}
	delete(c.locked, e)
	c.cache.Invalidate(e.File())
	if c.current == e {
		c.current = nil
		if editors := c.Editors(); len(editors) > 0 {
			c.current = editors[len(editors)-1]
		}
	}
	if leaveFirstEditor && len(c.Editors()) == 0 {
		c.NewFile()
	}
	return true, nil
}

// saveOnClose saves e before it closes. An untitled buffer goes to the
// session directory under its untitled name; without a session it has
// nowhere to go.
func (c *Coordinator) saveOnClose(e *editor.Editor) error {
	if !e.IsUntitled() {
		return c.SaveFile(e)
	}
	if !c.sessionEnabled {
		return errs.Wrap(errs.WriteFailed, e.File(), errors.New("untitled editor needs a path"))
	}
	return c.SaveFileAs(e, filepath.Join(c.session.Directory(), filepath.Base(e.File())))
}

// CloseAllFiles closes editors in order and stops at the first one that
// stays open.
func (c *Coordinator) CloseAllFiles(leaveFirstEditor bool) (bool, error) {
	for _, e := range c.Editors() {
		ok, err := c.CloseFile(e, leaveFirstEditor)
		if !ok {
			return false, err
		}
	}
	return true, nil
}

// CloseFirstFile closes the only editor if it is an untouched untitled one.
func (c *Coordinator) CloseFirstFile() bool {
	editors := c.Editors()
	if len(editors) != 1 {
		return false
	}
	e := editors[0]
	if !e.IsUntitled() || e.IsModified() {
		return false
	}
	ok, _ := c.CloseFile(e, false)
	return ok
}

func (c *Coordinator) SetLanguage(e *editor.Editor, name string) error {
	l, ok := c.langs.Get(name)
	if !ok {
		return errs.New(errs.NotRegistered, name)
	}
	e.SetLanguage(l)
	return nil
}

// RecentFiles lists recently loaded files that still exist, newest first.
func (c *Coordinator) RecentFiles() []string {
	var out []string
	for _, p := range c.settings.Strings(RecentFilesKey) {
		if _, err := c.fs.Stat(p); err == nil {
			out = append(out, p)
		}
	}
	return out
}

func (c *Coordinator) storeRecentFile(path string) {
	recent := []string{path}
	for _, p := range c.RecentFiles() {
		if p != path {
			recent = append(recent, p)
		}
	}
	if len(recent) > c.recentMax {
		recent = recent[:c.recentMax]
	}
	c.settings.SetStrings(RecentFilesKey, recent)
	logger.Debug("recent file stored", "path", path)
}

// OpenFile, OpenUntitled and OpenProject restore session entries. Restored
// untitled editors are kept open.

func (c *Coordinator) OpenFile(path string) error {
	_, err := c.loadFile(path, false)
	return err
}

func (c *Coordinator) OpenUntitled(name string) error {
	e := c.newEditor()
	e.NewUntitled(name)
	return c.register(e)
}

func (c *Coordinator) OpenProject(path string) error {
	_, err := c.AddProject(path)
	return err
}
