package coordinator

import (
	"github.com/kobzarvs/qscribe/internal/logger"
	"github.com/kobzarvs/qscribe/internal/project"
	"github.com/kobzarvs/qscribe/internal/watcher"
)

func (c *Coordinator) onNodeEvent(ev project.Event) {
	switch ev.Kind {
	case project.FileRegistered, project.DirectoryRegistered, project.ProjectRegistered:
		c.watch(ev.Node.Path)
	case project.FileUnregistered, project.DirectoryUnregistered, project.ProjectUnregistered:
		c.unwatch(ev.Node.Path)
	}
}

// watch counts registrations per path so a file listed both in a project and
// in the default project stays watched until both nodes are gone.
func (c *Coordinator) watch(path string) {
	if c.watcher == nil || path == "" {
		return
	}
	if c.watchRefs[path] == 0 {
		if _, err := c.fs.Stat(path); err != nil {
			return
		}
		if err := c.watcher.Watch(path); err != nil {
			logger.Debug("cannot watch path", "path", path, "error", err)
			return
		}
	}
	c.watchRefs[path]++
}

func (c *Coordinator) unwatch(path string) {
	if c.watcher == nil || c.watchRefs[path] == 0 {
		return
	}
	c.watchRefs[path]--
	if c.watchRefs[path] == 0 {
		delete(c.watchRefs, path)
		c.watcher.Unwatch(path)
	}
}

// HandleWatchEvent reacts to an external change reported by the watcher.
func (c *Coordinator) HandleWatchEvent(ev watcher.Event) {
	logger.Debug("watch event", "kind", ev.Kind.String(), "path", ev.Path)
	switch ev.Kind {
	case watcher.FileChanged:
		c.fileChanged(ev.Path)
	case watcher.FileInvalidated:
		c.cache.Invalidate(ev.Path)
		if e := c.Editor(ev.Path); e != nil {
			e.SetModified(true)
		}
	case watcher.DirectoryChanged:
		c.directoryChanged(ev.Path)
	case watcher.DirectoryInvalidated:
		for _, h := range c.model.GetProjectNodes(ev.Path) {
			if err := c.model.DeleteProjectNodes(h); err != nil {
				logger.Warn("cannot remove project", "path", ev.Path, "error", err)
			}
		}
	}
}

func (c *Coordinator) fileChanged(path string) {
	c.cache.Invalidate(path)
	e := c.Editor(path)
	if e == nil {
		return
	}
	if c.locked[e] {
		delete(c.locked, e)
		return
	}
	if e.IsModified() {
		logger.Info("file changed on disk, keeping unsaved changes", "path", path)
		return
	}
	logger.Info("reloading file", "path", path)
	if err := c.reload(e); err != nil {
		logger.Warn("reload failed", "path", path, "error", err)
	}
}

// directoryChanged rebuilds every project or directory node bound to path.
func (c *Coordinator) directoryChanged(path string) {
	var targets []project.Handle
	targets = append(targets, c.model.GetProjectNodes(path)...)
	targets = append(targets, c.model.GetDirectoryNodes(path)...)
	for _, h := range targets {
		// Rebuilding an earlier target can free h and hand its slot to a new node.
		if n := c.model.Tree().Node(h); n == nil || n.Path != path {
			continue
		}
		if err := c.model.UpdateProjectNodes(h); err != nil {
			logger.Warn("cannot update project nodes", "path", path, "error", err)
		}
	}
}
