// Package project holds the project tree: projects, directories, files and the
// editors open on them, plus the search result nodes shown beside them.
package project

import (
	"github.com/kobzarvs/qscribe/internal/editor"
	"github.com/kobzarvs/qscribe/internal/pattern"
)

// Handle indexes a node in a Tree. Handles are never reused within a tree.
type Handle int

const NoHandle Handle = -1

type Family int

const (
	Root Family = iota
	Project
	Directory
	File
	Editor
	Pattern
	SearchFile
	SearchOccurrence
	ReplaceResult
)

func (f Family) String() string {
	switch f {
	case Root:
		return "Root"
	case Project:
		return "Project"
	case Directory:
		return "Directory"
	case File:
		return "File"
	case Editor:
		return "Editor"
	case Pattern:
		return "Pattern"
	case SearchFile:
		return "SearchFile"
	case SearchOccurrence:
		return "SearchOccurrence"
	case ReplaceResult:
		return "ReplaceResult"
	default:
		return "Unknown"
	}
}

type Node struct {
	Family   Family
	Name     string
	Path     string
	Parent   Handle
	Children []Handle

	// Editor is set on Editor nodes.
	Editor *editor.Editor
	// Occurrence is set on SearchOccurrence nodes.
	Occurrence pattern.Occurrence
	// Count is the number of replacements on ReplaceResult nodes and the
	// number of occurrences on SearchFile nodes.
	Count int
}

// Tree is an arena of nodes. Parent and child links are handles, so nodes
// can be copied out freely without dragging the graph along. Slots of
// removed nodes are reused, so a handle is only meaningful while its node
// is live.
type Tree struct {
	nodes    []*Node
	freeList []Handle
	root     Handle
}

func NewTree(rootName string) *Tree {
	t := &Tree{}
	t.root = t.alloc(&Node{Family: Root, Name: rootName, Parent: NoHandle})
	return t
}

func (t *Tree) alloc(n *Node) Handle {
	if last := len(t.freeList) - 1; last >= 0 {
		h := t.freeList[last]
		t.freeList = t.freeList[:last]
		t.nodes[h] = n
		return h
	}
	t.nodes = append(t.nodes, n)
	return Handle(len(t.nodes) - 1)
}

func (t *Tree) Root() Handle {
	return t.root
}

// Node returns the node for h, or nil when h is not live.
func (t *Tree) Node(h Handle) *Node {
	if h < 0 || int(h) >= len(t.nodes) {
		return nil
	}
	return t.nodes[h]
}

func (t *Tree) Valid(h Handle) bool {
	return t.Node(h) != nil
}

// Add appends n as the last child of parent and returns its handle.
func (t *Tree) Add(parent Handle, n Node) Handle {
	p := t.Node(parent)
	if p == nil {
		return NoHandle
	}
	n.Parent = parent
	n.Children = nil
	h := t.alloc(&n)
	p.Children = append(p.Children, h)
	return h
}

// Insert places n among parent's children at index, clamped to the child count.
func (t *Tree) Insert(parent Handle, index int, n Node) Handle {
	p := t.Node(parent)
	if p == nil {
		return NoHandle
	}
	index = max(0, min(index, len(p.Children)))
	n.Parent = parent
	n.Children = nil
	h := t.alloc(&n)
	p.Children = append(p.Children, NoHandle)
	copy(p.Children[index+1:], p.Children[index:])
	p.Children[index] = h
	return h
}

// Remove detaches h from its parent and frees its whole subtree.
func (t *Tree) Remove(h Handle) bool {
	n := t.Node(h)
	if n == nil || h == t.root {
		return false
	}
	if p := t.Node(n.Parent); p != nil {
		if i := indexOf(p.Children, h); i >= 0 {
			p.Children = append(p.Children[:i], p.Children[i+1:]...)
		}
	}
	t.free(h)
	return true
}

func (t *Tree) free(h Handle) {
	n := t.nodes[h]
	for _, c := range n.Children {
		t.free(c)
	}
	t.nodes[h] = nil
	t.freeList = append(t.freeList, h)
}

// Row returns the index of h among its siblings, or -1.
func (t *Tree) Row(h Handle) int {
	n := t.Node(h)
	if n == nil {
		return -1
	}
	p := t.Node(n.Parent)
	if p == nil {
		return -1
	}
	return indexOf(p.Children, h)
}

// Walk visits h and its descendants depth-first, parents before children.
// Returning false from fn stops the walk.
func (t *Tree) Walk(h Handle, fn func(Handle, *Node) bool) {
	t.walk(h, fn)
}

func (t *Tree) walk(h Handle, fn func(Handle, *Node) bool) bool {
	n := t.Node(h)
	if n == nil {
		return true
	}
	if !fn(h, n) {
		return false
	}
	for _, c := range append([]Handle(nil), n.Children...) {
		if !t.walk(c, fn) {
			return false
		}
	}
	return true
}

// Find returns the handles of every node of family under h, in walk order.
func (t *Tree) Find(h Handle, family Family) []Handle {
	var out []Handle
	t.Walk(h, func(c Handle, n *Node) bool {
		if n.Family == family {
			out = append(out, c)
		}
		return true
	})
	return out
}

// IsAncestor reports whether a is h or one of its ancestors.
func (t *Tree) IsAncestor(a, h Handle) bool {
	for n := t.Node(h); n != nil; n = t.Node(h) {
		if h == a {
			return true
		}
		h = n.Parent
	}
	return false
}

func indexOf(hs []Handle, h Handle) int {
	for i, c := range hs {
		if c == h {
			return i
		}
	}
	return -1
}
