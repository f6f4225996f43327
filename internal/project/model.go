package project

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"

	"github.com/kobzarvs/qscribe/internal/editor"
	"github.com/kobzarvs/qscribe/internal/errs"
	"github.com/kobzarvs/qscribe/internal/fsutil"
	"github.com/kobzarvs/qscribe/internal/logger"
)

const DefaultProjectName = "defaultProject"

type EventKind int

const (
	FileRegistered EventKind = iota
	FileUnregistered
	DirectoryRegistered
	DirectoryUnregistered
	EditorRegistered
	EditorUnregistered
	ProjectRegistered
	ProjectUnregistered
	NodeChanged
)

func (k EventKind) String() string {
	return [...]string{
		"fileRegistered", "fileUnregistered",
		"directoryRegistered", "directoryUnregistered",
		"editorRegistered", "editorUnregistered",
		"projectRegistered", "projectUnregistered",
		"nodeChanged",
	}[k]
}

// Event carries a copy of the node as it was when the mutation happened.
// Handlers run synchronously and must not mutate the tree.
type Event struct {
	Kind   EventKind
	Handle Handle
	Node   Node
}

type Handler func(Event)

// Model owns the project tree. It is not safe for concurrent use; the
// coordinator is its only writer.
type Model struct {
	fs             afero.Fs
	tree           *Tree
	defaultProject Handle
	maxDepth       int
	handlers       []Handler
}

func NewModel(fs afero.Fs, maxDepth int) *Model {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if maxDepth < 1 {
		maxDepth = 1
	}
	m := &Model{fs: fs, tree: NewTree("InvisibleRootNode"), maxDepth: maxDepth}
	m.defaultProject = m.tree.Add(m.tree.Root(), Node{Family: Project, Name: DefaultProjectName})
	return m
}

func (m *Model) Subscribe(fn Handler) {
	m.handlers = append(m.handlers, fn)
}

func (m *Model) emit(kind EventKind, h Handle, n Node) {
	ev := Event{Kind: kind, Handle: h, Node: n}
	for _, fn := range m.handlers {
		fn(ev)
	}
}

func (m *Model) Tree() *Tree {
	return m.tree
}

func (m *Model) DefaultProject() Handle {
	return m.defaultProject
}

// Node returns a copy of the node for h.
func (m *Model) Node(h Handle) (Node, bool) {
	n := m.tree.Node(h)
	if n == nil {
		return Node{}, false
	}
	return *n, true
}

func (m *Model) scope(h Handle) Handle {
	if h == NoHandle {
		return m.defaultProject
	}
	return h
}

// ListEditorNodes returns the editor nodes under h, the default project when h is NoHandle.
func (m *Model) ListEditorNodes(h Handle) []Handle {
	return m.tree.Find(m.scope(h), Editor)
}

// ListFileNodes returns the file nodes under h, the default project when h is NoHandle.
func (m *Model) ListFileNodes(h Handle) []Handle {
	return m.tree.Find(m.scope(h), File)
}

func (m *Model) ListDirectoryNodes() []Handle {
	return m.tree.Find(m.tree.Root(), Directory)
}

func (m *Model) ListProjectNodes(includeDefault bool) []Handle {
	var out []Handle
	for _, h := range m.tree.Find(m.tree.Root(), Project) {
		if h == m.defaultProject && !includeDefault {
			continue
		}
		out = append(out, h)
	}
	return out
}

func (m *Model) ListEditors(h Handle) []*editor.Editor {
	var out []*editor.Editor
	for _, c := range m.ListEditorNodes(h) {
		if e := m.tree.Node(c).Editor; e != nil {
			out = append(out, e)
		}
	}
	return out
}

func (m *Model) ListFiles(h Handle) []string {
	return m.paths(m.ListFileNodes(h))
}

func (m *Model) ListDirectories() []string {
	return m.paths(m.ListDirectoryNodes())
}

func (m *Model) ListProjects(includeDefault bool) []string {
	return m.paths(m.ListProjectNodes(includeDefault))
}

func (m *Model) paths(hs []Handle) []string {
	var out []string
	for _, h := range hs {
		if p := m.tree.Node(h).Path; p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (m *Model) GetEditorNodes(e *editor.Editor, h Handle) []Handle {
	var out []Handle
	for _, c := range m.ListEditorNodes(h) {
		if m.tree.Node(c).Editor == e {
			out = append(out, c)
		}
	}
	return out
}

func (m *Model) GetFileNodes(path string, h Handle) []Handle {
	return m.withPath(m.ListFileNodes(h), path)
}

func (m *Model) GetDirectoryNodes(path string) []Handle {
	return m.withPath(m.ListDirectoryNodes(), path)
}

func (m *Model) GetProjectNodes(path string) []Handle {
	return m.withPath(m.ListProjectNodes(false), path)
}

func (m *Model) withPath(hs []Handle, path string) []Handle {
	var out []Handle
	for _, h := range hs {
		if m.tree.Node(h).Path == path {
			out = append(out, h)
		}
	}
	return out
}

// MoveNode moves the child of parent at from so it ends up at to. The
// siblings from to onwards shift down by one.
func (m *Model) MoveNode(parent Handle, from, to int) bool {
	p := m.tree.Node(parent)
	if p == nil {
		return false
	}
	count := len(p.Children)
	if from < 0 || from >= count || to < 0 || to >= count {
		return false
	}
	child := p.Children[from]
	rest := append(append([]Handle(nil), p.Children[:from]...), p.Children[from+1:]...)
	tail := append([]Handle{child}, rest[to:]...)
	p.Children = append(rest[:to:to], tail...)
	return true
}

func (m *Model) requireFamily(h Handle, families ...Family) (*Node, bool) {
	n := m.tree.Node(h)
	if n == nil {
		return nil, false
	}
	for _, f := range families {
		if n.Family == f {
			return n, true
		}
	}
	return n, false
}

// RegisterFile adds a file node under parent, a project or a directory.
// With unique set, a path already listed under the default project fails
// with AlreadyRegistered.
func (m *Model) RegisterFile(path string, parent Handle, unique bool) (Handle, error) {
	if unique && len(m.GetFileNodes(path, NoHandle)) > 0 {
		return NoHandle, errs.New(errs.AlreadyRegistered, path)
	}
	if _, ok := m.requireFamily(parent, Project, Directory); !ok {
		return NoHandle, fmt.Errorf("file %q: parent %d is not a project or directory", path, parent)
	}
	logger.Debug("registering file", "path", path)
	h := m.tree.Add(parent, Node{Family: File, Name: filepath.Base(path), Path: path})
	m.emit(FileRegistered, h, *m.tree.Node(h))
	return h, nil
}

func (m *Model) UnregisterFile(h Handle, strict bool) error {
	return m.unregister(h, File, FileUnregistered, strict)
}

func (m *Model) RegisterDirectory(path string, parent Handle, unique bool) (Handle, error) {
	if unique && len(m.GetDirectoryNodes(path)) > 0 {
		return NoHandle, errs.New(errs.AlreadyRegistered, path)
	}
	if _, ok := m.requireFamily(parent, Project, Directory); !ok {
		return NoHandle, fmt.Errorf("directory %q: parent %d is not a project or directory", path, parent)
	}
	logger.Debug("registering directory", "path", path)
	h := m.tree.Add(parent, Node{Family: Directory, Name: filepath.Base(path), Path: path})
	m.emit(DirectoryRegistered, h, *m.tree.Node(h))
	return h, nil
}

func (m *Model) UnregisterDirectory(h Handle, strict bool) error {
	return m.unregister(h, Directory, DirectoryUnregistered, strict)
}

// RegisterEditor adds an editor node under a file node.
func (m *Model) RegisterEditor(e *editor.Editor, parent Handle, unique bool) (Handle, error) {
	if unique && len(m.GetEditorNodes(e, NoHandle)) > 0 {
		return NoHandle, errs.New(errs.AlreadyRegistered, e.File())
	}
	if _, ok := m.requireFamily(parent, File); !ok {
		return NoHandle, fmt.Errorf("editor %q: parent %d is not a file", e.File(), parent)
	}
	logger.Debug("registering editor", "file", e.File())
	h := m.tree.Add(parent, Node{Family: Editor, Name: filepath.Base(e.File()), Path: e.File(), Editor: e})
	m.emit(EditorRegistered, h, *m.tree.Node(h))
	return h, nil
}

func (m *Model) UnregisterEditor(h Handle, strict bool) error {
	return m.unregister(h, Editor, EditorUnregistered, strict)
}

// RegisterProject adds a project node under the root.
func (m *Model) RegisterProject(path string, unique bool) (Handle, error) {
	if unique && len(m.GetProjectNodes(path)) > 0 {
		return NoHandle, errs.New(errs.AlreadyRegistered, path)
	}
	logger.Debug("registering project", "path", path)
	h := m.tree.Add(m.tree.Root(), Node{Family: Project, Name: filepath.Base(path), Path: path})
	m.emit(ProjectRegistered, h, *m.tree.Node(h))
	return h, nil
}

// UnregisterProject removes a project node. The default project cannot be removed.
func (m *Model) UnregisterProject(h Handle, strict bool) error {
	if h == m.defaultProject {
		return errs.New(errs.NotRegistered, DefaultProjectName)
	}
	return m.unregister(h, Project, ProjectUnregistered, strict)
}

// unregister removes h and its subtree. A handle that is not a live node of
// the given family fails with NotRegistered when strict, and is ignored otherwise.
func (m *Model) unregister(h Handle, family Family, kind EventKind, strict bool) error {
	n, ok := m.requireFamily(h, family)
	if !ok {
		if strict {
			return errs.New(errs.NotRegistered, fmt.Sprintf("%s node %d", family, h))
		}
		return nil
	}
	snapshot := *n
	snapshot.Children = append([]Handle(nil), n.Children...)
	logger.Debug("unregistering node", "family", family.String(), "path", n.Path)
	m.tree.Remove(h)
	m.emit(kind, h, snapshot)
	return nil
}

// IsAuthoringNode reports whether h lives under the default project.
func (m *Model) IsAuthoringNode(h Handle) bool {
	return h != m.defaultProject && m.tree.IsAncestor(m.defaultProject, h)
}

// SetAuthoringNodes registers e and a file node for it under the default project.
func (m *Model) SetAuthoringNodes(e *editor.Editor) (Handle, error) {
	file, err := m.RegisterFile(e.File(), m.defaultProject, false)
	if err != nil {
		return NoHandle, err
	}
	return m.RegisterEditor(e, file, false)
}

// DeleteAuthoringNodes removes the editor node of e and its file node.
func (m *Model) DeleteAuthoringNodes(e *editor.Editor) error {
	nodes := m.GetEditorNodes(e, NoHandle)
	if len(nodes) == 0 {
		return errs.New(errs.NotRegistered, e.File())
	}
	parent := m.tree.Node(nodes[0]).Parent
	if err := m.UnregisterEditor(nodes[0], true); err != nil {
		return err
	}
	return m.UnregisterFile(parent, false)
}

// UpdateAuthoringNodes renames the editor and file nodes of e after its
// bound path changed.
func (m *Model) UpdateAuthoringNodes(e *editor.Editor) error {
	nodes := m.GetEditorNodes(e, NoHandle)
	if len(nodes) == 0 {
		return errs.New(errs.NotRegistered, e.File())
	}
	en := m.tree.Node(nodes[0])
	fn := m.tree.Node(en.Parent)
	name := filepath.Base(e.File())
	en.Name, en.Path = name, e.File()
	if fn != nil {
		fn.Name, fn.Path = name, e.File()
		m.emit(NodeChanged, en.Parent, *fn)
	}
	return nil
}

// SetProjectNodes populates a project or directory node from disk down to
// the model depth: directories then files, each sorted, skipping dot names,
// binary files and paths the parent already holds. Repeated calls add nothing.
func (m *Model) SetProjectNodes(h Handle) error {
	return m.SetProjectNodesDepth(h, m.maxDepth)
}

func (m *Model) SetProjectNodesDepth(h Handle, maxDepth int) error {
	n, ok := m.requireFamily(h, Project, Directory)
	if !ok || n.Path == "" {
		return fmt.Errorf("node %d is not a project or directory with a path", h)
	}
	return m.populate(h, n.Path, maxDepth)
}

func (m *Model) populate(h Handle, dir string, depth int) error {
	if depth < 1 {
		return nil
	}
	entries, err := afero.ReadDir(m.fs, dir)
	if err != nil {
		return errs.Wrap(errs.ReadFailed, dir, err)
	}
	var dirs, files []string
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if e.IsDir() {
			dirs = append(dirs, e.Name())
		} else {
			files = append(files, e.Name())
		}
	}
	sort.Strings(dirs)
	sort.Strings(files)

	present := make(map[string]Handle)
	for _, c := range m.tree.Node(h).Children {
		present[m.tree.Node(c).Path] = c
	}

	for _, name := range dirs {
		path := filepath.Join(dir, name)
		child, ok := present[path]
		if !ok {
			var err error
			child, err = m.RegisterDirectory(path, h, false)
			if err != nil {
				return err
			}
		}
		if err := m.populate(child, path, depth-1); err != nil {
			logger.Warn("cannot list directory", "path", path, "error", err)
		}
	}
	for _, name := range files {
		path := filepath.Join(dir, name)
		if _, ok := present[path]; ok {
			continue
		}
		if binary, err := fsutil.IsBinary(m.fs, path); err == nil && binary {
			continue
		}
		if _, err := m.RegisterFile(path, h, false); err != nil {
			return err
		}
	}
	return nil
}

// DeleteProjectNodes removes a project and everything under it.
func (m *Model) DeleteProjectNodes(h Handle) error {
	m.UnregisterProjectNodes(h)
	return m.UnregisterProject(h, true)
}

// UnregisterProjectNodes removes the directory and file nodes under h,
// deepest first, so each removal emits its own event.
func (m *Model) UnregisterProjectNodes(h Handle) {
	var nodes []Handle
	m.tree.Walk(h, func(c Handle, _ *Node) bool {
		if c != h {
			nodes = append(nodes, c)
		}
		return true
	})
	for i := len(nodes) - 1; i >= 0; i-- {
		c := nodes[i]
		n := m.tree.Node(c)
		if n == nil {
			continue
		}
		switch n.Family {
		case Directory:
			_ = m.UnregisterDirectory(c, false)
		case File:
			_ = m.UnregisterFile(c, false)
		case Editor:
			_ = m.UnregisterEditor(c, false)
		}
	}
}

// UpdateProjectNodes rebuilds the children of h from disk.
func (m *Model) UpdateProjectNodes(h Handle) error {
	m.UnregisterProjectNodes(h)
	return m.SetProjectNodes(h)
}

// NodeForPath returns the first project or directory node with path.
func (m *Model) NodeForPath(path string) (Handle, bool) {
	if hs := m.GetProjectNodes(path); len(hs) > 0 {
		return hs[0], true
	}
	if hs := m.GetDirectoryNodes(path); len(hs) > 0 {
		return hs[0], true
	}
	return NoHandle, false
}
