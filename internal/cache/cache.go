// Package cache holds file content and pending-replacement documents for
// files that are not open in an editor.
package cache

import (
	"sort"
	"sync"

	"github.com/kobzarvs/qscribe/internal/document"
	"github.com/kobzarvs/qscribe/internal/logger"
)

// Data is one cached file. Content is the snapshot read from disk and never
// changes after Put; Document, when set, carries edits not yet written back.
type Data struct {
	Content  string
	Document *document.Document
}

type Cache struct {
	mu      sync.RWMutex
	entries map[string]Data
}

func New() *Cache {
	return &Cache{entries: make(map[string]Data)}
}

func (c *Cache) Get(path string) (Data, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, ok := c.entries[path]
	return d, ok
}

func (c *Cache) Put(path, content string, doc *document.Document) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[path] = Data{Content: content, Document: doc}
}

// Invalidate drops path and reports whether it was cached.
func (c *Cache) Invalidate(path string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[path]; !ok {
		return false
	}
	delete(c.entries, path)
	logger.Debug("cache invalidated", "path", path)
	return true
}

// Paths returns the cached paths in lexical order.
func (c *Cache) Paths() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	paths := make([]string, 0, len(c.entries))
	for p := range c.entries {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Documents returns the paths that carry a pending document.
func (c *Cache) Documents() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var paths []string
	for p, d := range c.entries {
		if d.Document != nil {
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)
	return paths
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]Data)
}
