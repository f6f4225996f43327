package search

import (
	"fmt"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/kobzarvs/qscribe/internal/pattern"
	"github.com/kobzarvs/qscribe/internal/project"
)

const defaultLineNumberWidth = 6

// ResultsTree lays results out as Pattern > SearchFile > SearchOccurrence nodes.
func ResultsTree(patternText string, results []Result) *project.Tree {
	t := project.NewTree("InvisibleRootNode")
	p := t.Add(t.Root(), project.Node{Family: project.Pattern, Name: patternText})
	for _, r := range results {
		f := t.Add(p, project.Node{
			Family: project.SearchFile,
			Name:   filepath.Base(r.File),
			Path:   r.File,
			Count:  len(r.Occurrences),
		})
		width := lineNumberWidth(r.Occurrences)
		for _, o := range r.Occurrences {
			t.Add(f, project.Node{
				Family:     project.SearchOccurrence,
				Name:       FormatOccurrence(o, width),
				Path:       r.File,
				Occurrence: o,
			})
		}
	}
	return t
}

// ReplaceTree lists one ReplaceResult node per file, sorted by path.
func ReplaceTree(counts map[string]int) *project.Tree {
	t := project.NewTree("InvisibleRootNode")
	paths := make([]string, 0, len(counts))
	for p := range counts {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	for _, p := range paths {
		t.Add(t.Root(), project.Node{
			Family: project.ReplaceResult,
			Name:   FormatReplaceMetrics(p, counts[p]),
			Path:   p,
			Count:  counts[p],
		})
	}
	return t
}

// Selected converts SearchFile and SearchOccurrence nodes back into results.
// A file node stands for all of its occurrences.
func Selected(t *project.Tree, handles []project.Handle) []Result {
	byFile := make(map[string]*Result)
	var order []string
	seen := make(map[project.Handle]bool)
	add := func(path string, h project.Handle, o pattern.Occurrence) {
		if seen[h] {
			return
		}
		seen[h] = true
		r, ok := byFile[path]
		if !ok {
			r = &Result{File: path}
			byFile[path] = r
			order = append(order, path)
		}
		r.Occurrences = append(r.Occurrences, o)
	}
	for _, h := range handles {
		n := t.Node(h)
		if n == nil {
			continue
		}
		switch n.Family {
		case project.SearchFile:
			for _, c := range n.Children {
				add(n.Path, c, t.Node(c).Occurrence)
			}
		case project.SearchOccurrence:
			add(n.Path, h, n.Occurrence)
		}
	}
	out := make([]Result, 0, len(order))
	for _, p := range order {
		r := byFile[p]
		sort.SliceStable(r.Occurrences, func(i, j int) bool {
			return r.Occurrences[i].Position < r.Occurrences[j].Position
		})
		out = append(out, *r)
	}
	return out
}

// FormatOccurrence renders "  line: text" with a 1-based, right-aligned line number.
func FormatOccurrence(o pattern.Occurrence, width int) string {
	return fmt.Sprintf("%*d: %s", width, o.Line+1, o.Text)
}

func FormatReplaceMetrics(path string, count int) string {
	return fmt.Sprintf("'%s' file: '%d' occurrence(s) replaced!", path, count)
}

func lineNumberWidth(occ []pattern.Occurrence) int {
	width := defaultLineNumberWidth
	for _, o := range occ {
		width = max(width, len(strconv.Itoa(o.Line+1)))
	}
	return width
}
