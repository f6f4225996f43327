// Package search runs pattern searches across open editors and files on
// disk, and applies replacements to the results.
package search

import (
	"context"
	"errors"
	"os"

	"github.com/sourcegraph/conc/stream"
	"github.com/spf13/afero"

	"github.com/kobzarvs/qscribe/internal/cache"
	"github.com/kobzarvs/qscribe/internal/document"
	"github.com/kobzarvs/qscribe/internal/errs"
	"github.com/kobzarvs/qscribe/internal/fsutil"
	"github.com/kobzarvs/qscribe/internal/logger"
	"github.com/kobzarvs/qscribe/internal/pattern"
)

const defaultReaders = 4

// Live is an open editor's file and document as seen when the search started.
type Live struct {
	Path     string
	Document *document.Document
}

type Request struct {
	Pattern  string
	Location Location
	Settings pattern.Settings
	// Editors is consulted when the location targets open editors.
	Editors      []Live
	IgnoreHidden bool
}

// Result holds the occurrences found in one file, in ascending position.
type Result struct {
	File        string
	Pattern     string
	Settings    pattern.Settings
	Occurrences []pattern.Occurrence
}

// Worker searches the files a Request names. Disk content goes through the
// cache: hits are searched as cached, misses are read and stored.
type Worker struct {
	fs      afero.Fs
	cache   *cache.Cache
	readers int
}

func NewWorker(fs afero.Fs, c *cache.Cache) *Worker {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if c == nil {
		c = cache.New()
	}
	return &Worker{fs: fs, cache: c, readers: defaultReaders}
}

func (w *Worker) Cache() *cache.Cache {
	return w.cache
}

// Run performs the search. Editor files come first, then explicit files,
// then directory walks, each file at most once. Unreadable and binary files
// are skipped. When ctx is done Run returns ctx.Err() and no results.
func (w *Worker) Run(ctx context.Context, req Request) ([]Result, error) {
	s := req.Settings
	s.BackwardSearch, s.WrapAround = false, false
	re, err := pattern.Compile(req.Pattern, s)
	if err != nil {
		return nil, err
	}

	var results []Result
	seen := make(map[string]bool)

	if req.Location.Editors() {
		for _, live := range req.Editors {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if seen[live.Path] || live.Document == nil {
				continue
			}
			seen[live.Path] = true
			logger.Debug("searching editor", "path", live.Path)
			var occ []pattern.Occurrence
			var findErr error
			live.Document.Read(func(text string) {
				occ, findErr = pattern.FindAll(ctx, re, text)
			})
			if findErr != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				return nil, findErr
			}
			if len(occ) > 0 {
				results = append(results, Result{File: live.Path, Pattern: req.Pattern, Settings: s, Occurrences: occ})
			}
		}
	}

	files, err := w.diskFiles(ctx, req, seen)
	if err != nil {
		return nil, err
	}

	var runErr error
	st := stream.New().WithMaxGoroutines(w.readers)
	for _, path := range files {
		st.Go(func() stream.Callback {
			if ctx.Err() != nil {
				return func() {}
			}
			content, hit, doc, err := w.content(path)
			if err != nil {
				if errors.Is(err, errBinary) || errors.Is(err, errs.ErrFileMissing) {
					logger.Debug("skipping file", "path", path, "reason", err)
				} else {
					logger.Warn("skipping unreadable file", "path", path, "error", err)
				}
				return func() {}
			}
			var occ []pattern.Occurrence
			var findErr error
			if doc != nil {
				doc.Read(func(text string) {
					occ, findErr = pattern.FindAll(ctx, re, text)
				})
			} else {
				occ, findErr = pattern.FindAll(ctx, re, content)
			}
			return func() {
				if !hit && doc == nil {
					w.cache.Put(path, content, nil)
				}
				if findErr != nil {
					if runErr == nil && ctx.Err() == nil {
						runErr = findErr
					}
					return
				}
				if len(occ) > 0 {
					results = append(results, Result{File: path, Pattern: req.Pattern, Settings: s, Occurrences: occ})
				}
			}
		})
	}
	st.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if runErr != nil {
		return nil, runErr
	}
	logger.Debug("search finished", "pattern", req.Pattern, "files", len(results))
	return results, nil
}

// diskFiles lists explicit files then the files of each directory walk,
// dropping anything already in seen.
func (w *Worker) diskFiles(ctx context.Context, req Request, seen map[string]bool) ([]string, error) {
	var files []string
	add := func(path string) {
		if seen[path] {
			return
		}
		seen[path] = true
		files = append(files, path)
	}
	for _, f := range req.Location.Files {
		add(f)
	}
	opts := fsutil.WalkOptions{
		Include:      req.Location.FiltersIn,
		Exclude:      req.Location.FiltersOut,
		IgnoreHidden: req.IgnoreHidden,
	}
	for _, dir := range req.Location.Directories {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		walked, err := fsutil.Walk(w.fs, dir, opts)
		if err != nil {
			logger.Warn("cannot walk directory", "path", dir, "error", err)
			continue
		}
		for _, f := range walked {
			add(f)
		}
	}
	return files, nil
}

// content returns the text to search for path: the cached document if one
// carries pending edits, the cached content, or the file read from disk.
// Line endings are those of a Document built from the same content, so
// occurrence positions stay valid when the document is hydrated later.
func (w *Worker) content(path string) (string, bool, *document.Document, error) {
	if d, ok := w.cache.Get(path); ok {
		return document.NormalizeLineEndings(d.Content), true, d.Document, nil
	}
	if _, err := w.fs.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", false, nil, errs.New(errs.FileMissing, path)
		}
		return "", false, nil, errs.Wrap(errs.ReadFailed, path, err)
	}
	binary, err := fsutil.IsBinary(w.fs, path)
	if err != nil {
		return "", false, nil, errs.Wrap(errs.ReadFailed, path, err)
	}
	if binary {
		return "", false, nil, errs.Wrap(errs.ReadFailed, path, errBinary)
	}
	data, err := afero.ReadFile(w.fs, path)
	if err != nil {
		return "", false, nil, errs.Wrap(errs.ReadFailed, path, err)
	}
	return document.NormalizeLineEndings(string(data)), false, nil, nil
}

var errBinary = errors.New("binary content")
