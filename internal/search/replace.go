package search

import (
	"sort"
	"unicode/utf8"

	"github.com/kobzarvs/qscribe/internal/cache"
	"github.com/kobzarvs/qscribe/internal/document"
	"github.com/kobzarvs/qscribe/internal/logger"
	"github.com/kobzarvs/qscribe/internal/pattern"
)

// LiveDocuments returns the document of the editor open on path, or nil.
type LiveDocuments func(path string) *document.Document

// Replace writes replacement over every occurrence in results. Files open in
// an editor are edited in place; others are edited in a document hydrated
// from the cache and kept there until saved. Each file is one undo step.
// The returned map holds the number of replacements per file.
func Replace(results []Result, replacement string, live LiveDocuments, c *cache.Cache) map[string]int {
	byFile := make(map[string][]pattern.Occurrence)
	var order []string
	for _, r := range results {
		if _, ok := byFile[r.File]; !ok {
			order = append(order, r.File)
		}
		byFile[r.File] = append(byFile[r.File], r.Occurrences...)
	}

	counts := make(map[string]int)
	for _, path := range order {
		var doc *document.Document
		if live != nil {
			doc = live(path)
		}
		if doc == nil {
			d, ok := c.Get(path)
			if !ok {
				logger.Warn("file is not in the cache", "path", path)
				continue
			}
			doc = d.Document
			if doc == nil {
				doc = document.New(d.Content)
				c.Put(path, d.Content, doc)
			}
		}
		counts[path] = replaceWithin(doc, byFile[path], replacement)
	}
	return counts
}

func replaceWithin(doc *document.Document, occurrences []pattern.Occurrence, replacement string) int {
	sorted := append([]pattern.Occurrence(nil), occurrences...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Position < sorted[j].Position })
	size := utf8.RuneCountInString(replacement)

	doc.BeginGroup()
	defer doc.EndGroup()
	offset, count := 0, 0
	last := -1
	for _, o := range sorted {
		if o.Position < last {
			continue
		}
		start := offset + o.Position
		doc.Replace(start, start+o.Length, replacement)
		offset += size - o.Length
		last = o.Position + o.Length
		count++
	}
	return count
}

// Total sums the per-file replacement counts.
func Total(counts map[string]int) int {
	n := 0
	for _, c := range counts {
		n += c
	}
	return n
}
