package app

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/afero"
	"go.uber.org/multierr"

	"github.com/kobzarvs/qscribe/internal/config"
	"github.com/kobzarvs/qscribe/internal/coordinator"
	"github.com/kobzarvs/qscribe/internal/languages"
	"github.com/kobzarvs/qscribe/internal/logger"
	"github.com/kobzarvs/qscribe/internal/prompt"
	"github.com/kobzarvs/qscribe/internal/session"
	"github.com/kobzarvs/qscribe/internal/settings"
	"github.com/kobzarvs/qscribe/internal/watcher"
)

// Params carries the runtime dependencies a command can replace.
type Params struct {
	Fs     afero.Fs
	Out    io.Writer
	Dialog prompt.Dialog
	// Watch starts a file-system watcher. It needs the OS file system.
	Watch bool
}

// App is the top-level runtime for qscribe: one coordinator and the
// services it is wired to.
type App struct {
	opts    Options
	fs      afero.Fs
	out     io.Writer
	coord   *coordinator.Coordinator
	watcher *watcher.Watcher
}

// New wires settings, session, watcher and coordinator, then restores the
// previous session.
func New(opts Options, p Params) (*App, error) {
	fs := p.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}
	out := p.Out
	if out == nil {
		out = os.Stdout
	}
	settingsPath, err := config.SettingsPath()
	if err != nil {
		return nil, err
	}
	store, err := settings.Open(fs, settingsPath)
	if err != nil {
		return nil, err
	}
	sessionDir, err := opts.Config.SessionDir()
	if err != nil {
		return nil, err
	}
	sess := session.New(fs, store, sessionDir, opts.Config.Editor.DefaultFileName, opts.Config.Editor.DefaultFileExtension)

	a := &App{opts: opts, fs: fs, out: out}
	copts := coordinator.Options{
		Fs:              fs,
		Languages:       languages.FromConfig(opts.Languages),
		Settings:        store,
		Session:         sess,
		Dialog:          p.Dialog,
		MaxDepth:        opts.Config.Search.MaxDepth,
		RecentFilesMax:  opts.Config.Editor.RecentFilesMax,
		HistoryCapacity: opts.Config.Editor.HistoryCapacity,
		IgnoreHidden:    opts.Config.IgnoreHidden(),
		SessionEnabled:  opts.Config.SessionEnabled(),
	}
	if p.Watch {
		w, err := watcher.New()
		if err != nil {
			return nil, err
		}
		a.watcher = w
		copts.Watcher = w
	}
	a.coord = coordinator.New(copts)
	a.coord.Startup()
	logger.Info("app started", "editors", len(a.coord.Editors()), "projects", len(a.coord.Projects()))
	return a, nil
}

func (a *App) Coordinator() *coordinator.Coordinator {
	return a.coord
}

// Close shuts the coordinator down and stops the watcher. A vetoed close
// leaves the session stored but nothing else persisted.
func (a *App) Close() error {
	ok, err := a.coord.Shutdown()
	if a.watcher != nil {
		err = multierr.Append(err, a.watcher.Close())
	}
	if !ok {
		logger.Info("shutdown canceled")
	}
	return err
}

// Open loads paths into the coordinator. Failures are reported and
// skipped so one bad path does not stop the others.
func (a *App) Open(paths []string) error {
	var err error
	for _, path := range paths {
		if lerr := a.coord.LoadPath(path); lerr != nil {
			fmt.Fprintf(a.out, "qscribe: %v\n", lerr)
			err = multierr.Append(err, lerr)
		}
	}
	return err
}

// Run dispatches watcher and background search events until ctx is done.
func (a *App) Run(ctx context.Context) error {
	var events <-chan watcher.Event
	if a.watcher != nil {
		events = a.watcher.Events()
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			a.coord.HandleWatchEvent(ev)
		case f := <-a.coord.SearchEvents():
			if _, err := a.coord.HandleSearchFinished(f); err != nil {
				fmt.Fprintf(a.out, "qscribe: %v\n", err)
			}
		}
	}
}

// Sessions lists the stored session entries.
func (a *App) Sessions() []string {
	return a.coord.Session().Entries()
}

// StoredSession reads the session entries from the settings file without
// opening anything.
func StoredSession(fs afero.Fs) ([]string, error) {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	path, err := config.SettingsPath()
	if err != nil {
		return nil, err
	}
	store, err := settings.Open(fs, path)
	if err != nil {
		return nil, err
	}
	return store.Strings(session.Key), nil
}
