// Package history keeps the recent search and replacement patterns.
package history

import (
	"strings"

	"github.com/kobzarvs/qscribe/internal/logger"
	"github.com/kobzarvs/qscribe/internal/project"
)

const (
	SearchPatternsKey  = "recentSearchPatterns"
	ReplacePatternsKey = "recentReplaceWithPatterns"

	DefaultCapacity = 15
)

// Store is the settings slice a history persists into.
type Store interface {
	Strings(key string) []string
	SetStrings(key string, values []string)
}

// History is a bounded most-recent-first list of patterns. Entries are
// Pattern nodes under the root of its own tree.
type History struct {
	key      string
	capacity int
	tree     *project.Tree
}

func New(key string, capacity int) *History {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	return &History{key: key, capacity: capacity, tree: project.NewTree(key)}
}

func (h *History) Key() string {
	return h.key
}

func (h *History) Capacity() int {
	return h.capacity
}

// Tree exposes the pattern nodes for views.
func (h *History) Tree() *project.Tree {
	return h.tree
}

// Normalize keeps the first line of pattern. Paragraph separators count as
// line breaks.
func Normalize(pattern string) string {
	pattern = strings.ReplaceAll(pattern, "\u2029", "\n")
	if i := strings.IndexAny(pattern, "\r\n"); i >= 0 {
		pattern = pattern[:i]
	}
	return pattern
}

// Insert moves pattern to the head, dropping the oldest entries past
// capacity. Empty patterns are ignored.
func (h *History) Insert(pattern string) bool {
	pattern = Normalize(pattern)
	if pattern == "" {
		return false
	}
	h.remove(pattern)
	root := h.tree.Root()
	h.tree.Insert(root, 0, project.Node{Family: project.Pattern, Name: pattern})
	children := h.tree.Node(root).Children
	for len(children) > h.capacity {
		h.tree.Remove(children[len(children)-1])
		children = h.tree.Node(root).Children
	}
	logger.Debug("pattern inserted", "history", h.key, "pattern", pattern)
	return true
}

func (h *History) remove(pattern string) {
	for _, c := range h.tree.Node(h.tree.Root()).Children {
		if h.tree.Node(c).Name == pattern {
			h.tree.Remove(c)
			return
		}
	}
}

// List returns the patterns, most recent first.
func (h *History) List() []string {
	children := h.tree.Node(h.tree.Root()).Children
	out := make([]string, 0, len(children))
	for _, c := range children {
		out = append(out, h.tree.Node(c).Name)
	}
	return out
}

func (h *History) Len() int {
	return len(h.tree.Node(h.tree.Root()).Children)
}

func (h *History) Clear() {
	children := append([]project.Handle(nil), h.tree.Node(h.tree.Root()).Children...)
	for _, c := range children {
		h.tree.Remove(c)
	}
}

func (h *History) Persist(s Store) {
	s.SetStrings(h.key, h.List())
}

// Restore replaces the entries with the stored list, keeping its order.
func (h *History) Restore(s Store) {
	h.Clear()
	stored := s.Strings(h.key)
	for i := len(stored) - 1; i >= 0; i-- {
		h.Insert(stored[i])
	}
}
