package coordinator

import (
	"context"

	"github.com/spf13/afero"
	"go.uber.org/multierr"

	"github.com/kobzarvs/qscribe/internal/document"
	"github.com/kobzarvs/qscribe/internal/errs"
	"github.com/kobzarvs/qscribe/internal/logger"
	"github.com/kobzarvs/qscribe/internal/pattern"
	"github.com/kobzarvs/qscribe/internal/project"
	"github.com/kobzarvs/qscribe/internal/search"
)

// SearchRequest records pattern in the search history and builds a request
// over location with a snapshot of the open editors.
func (c *Coordinator) SearchRequest(patternText, location string, s pattern.Settings) search.Request {
	c.searchHistory.Insert(patternText)
	loc := search.ParseLocation(c.fs, location)
	if loc.IsEmpty() {
		loc = search.DefaultLocation()
	}
	var live []search.Live
	for _, e := range c.Editors() {
		live = append(live, search.Live{Path: e.File(), Document: e.Document()})
	}
	return search.Request{
		Pattern:      patternText,
		Location:     loc,
		Settings:     s,
		Editors:      live,
		IgnoreHidden: c.ignoreHidden,
	}
}

// SearchInFiles starts a background search, interrupting the running one.
// The outcome arrives on SearchEvents and goes back through HandleSearchFinished.
func (c *Coordinator) SearchInFiles(patternText, location string, s pattern.Settings) {
	req := c.SearchRequest(patternText, location, s)
	logger.Info("searching in files", "pattern", patternText, "location", req.Location.String())
	c.runner.Start(req)
}

func (c *Coordinator) SearchEvents() <-chan search.Finished {
	return c.runner.Events()
}

// Search runs a search to completion on the calling goroutine.
func (c *Coordinator) Search(ctx context.Context, patternText, location string, s pattern.Settings) ([]search.Result, error) {
	results, err := c.runner.Worker().Run(ctx, c.SearchRequest(patternText, location, s))
	if err != nil {
		return nil, err
	}
	c.results = results
	return results, nil
}

// HandleSearchFinished keeps the results of a completed background search
// and lays them out as a tree.
func (c *Coordinator) HandleSearchFinished(f search.Finished) (*project.Tree, error) {
	if f.Err != nil {
		logger.Warn("search failed", "pattern", f.Request.Pattern, "error", f.Err)
		return nil, f.Err
	}
	c.results = f.Results
	logger.Info("search finished", "pattern", f.Request.Pattern, "files", len(f.Results))
	return search.ResultsTree(f.Request.Pattern, f.Results), nil
}

// Results returns the results of the last completed search.
func (c *Coordinator) Results() []search.Result {
	return c.results
}

// ReplaceInFiles writes replacement over results. Open editors are edited in
// place; other files are edited in cached documents until SaveFiles.
func (c *Coordinator) ReplaceInFiles(results []search.Result, replacement string) map[string]int {
	c.replaceHistory.Insert(replacement)
	counts := search.Replace(results, replacement, c.liveDocument, c.cache)
	logger.Info("replaced in files", "files", len(counts), "occurrences", search.Total(counts))
	return counts
}

func (c *Coordinator) liveDocument(path string) *document.Document {
	if e := c.Editor(path); e != nil {
		return e.Document()
	}
	return nil
}

// SaveFiles writes the given files: open editors through SaveFile, cached
// documents straight to disk. Saved files leave the cache.
func (c *Coordinator) SaveFiles(paths []string) (opened, cached int, err error) {
	for _, path := range paths {
		if e := c.Editor(path); e != nil {
			if serr := c.SaveFile(e); serr != nil {
				err = multierr.Append(err, serr)
				continue
			}
			opened++
			c.cache.Invalidate(path)
			continue
		}
		data, ok := c.cache.Get(path)
		if !ok {
			logger.Warn("file is not in the cache", "path", path)
			continue
		}
		if data.Document == nil {
			logger.Warn("cached file has no document", "path", path)
			continue
		}
		if werr := afero.WriteFile(c.fs, path, []byte(data.Document.Text()), 0o644); werr != nil {
			err = multierr.Append(err, errs.Wrap(errs.WriteFailed, path, werr))
			continue
		}
		cached++
		c.cache.Invalidate(path)
	}
	logger.Info("files saved", "opened", opened, "cached", cached)
	return opened, cached, err
}
