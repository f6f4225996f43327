package app

import (
	"context"
	"fmt"
	"sort"

	"github.com/kobzarvs/qscribe/internal/pattern"
	"github.com/kobzarvs/qscribe/internal/prompt"
	"github.com/kobzarvs/qscribe/internal/search"
)

func (a *App) location(location string) string {
	if location == "" {
		return "<" + a.opts.Config.Search.DefaultTarget + ">"
	}
	return location
}

// Search prints every occurrence as "path:line:column: text" and returns
// the number of occurrences.
func (a *App) Search(ctx context.Context, patternText, location string, s pattern.Settings) (int, error) {
	results, err := a.coord.Search(ctx, patternText, a.location(location), s)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, r := range results {
		for _, o := range r.Occurrences {
			fmt.Fprintf(a.out, "%s:%d:%d: %s\n", r.File, o.Line+1, o.Column+1, o.Text)
			total++
		}
	}
	return total, nil
}

// Replace substitutes replacement for every occurrence and writes the
// changed files. With a dialog, each file is confirmed first: Discard drops
// that file's changes, Cancel drops them for it and every file after it.
func (a *App) Replace(ctx context.Context, patternText, replacement, location string, s pattern.Settings, confirm prompt.Dialog) (map[string]int, error) {
	results, err := a.coord.Search(ctx, patternText, a.location(location), s)
	if err != nil {
		return nil, err
	}
	counts := a.coord.ReplaceInFiles(results, replacement)
	paths := make([]string, 0, len(counts))
	for path := range counts {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	if confirm != nil {
		var approved []string
		canceled := false
		for _, path := range paths {
			answer := prompt.Cancel
			if !canceled {
				answer, err = confirm.Ask("Replace", fmt.Sprintf("Write %d replacement(s) to '%s'?", counts[path], path))
				if err != nil {
					return nil, err
				}
			}
			switch answer {
			case prompt.Save:
				approved = append(approved, path)
				continue
			case prompt.Cancel:
				canceled = true
			}
			a.drop(path)
			delete(counts, path)
		}
		paths = approved
	}

	// Untitled buffers have nowhere to go but the session.
	var writable []string
	for _, path := range paths {
		if e := a.coord.Editor(path); e == nil || !e.IsUntitled() {
			writable = append(writable, path)
		}
	}
	paths = writable
	if _, _, err := a.coord.SaveFiles(paths); err != nil {
		return counts, err
	}
	for _, path := range paths {
		fmt.Fprintln(a.out, search.FormatReplaceMetrics(path, counts[path]))
	}
	return counts, nil
}

// drop forgets replacements made in path that were not written.
func (a *App) drop(path string) {
	if e := a.coord.Editor(path); e != nil {
		if err := a.coord.RevertFile(e); err != nil {
			fmt.Fprintf(a.out, "qscribe: %v\n", err)
		}
		return
	}
	a.coord.Cache().Invalidate(path)
}
