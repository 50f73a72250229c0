// Package tree holds the layout hierarchy over canvas objects.
//
// The tree is an arena keyed by object id: every entry records its parent and
// its ordered children as ids, so lookups are O(1) and structure never depends
// on object identity. A Tree value is persistent. Mutations return a new Tree
// and leave the receiver untouched, so callers can hold on to a snapshot while
// the session moves on. Geometry is not part of the tree; entries point at the
// canvas objects, which stay the single source of truth for position and style.
package tree

import (
	"log/slog"
	"slices"

	"github.com/leaf/leaf/backend-go/internal/document"
)

// Node is the nested view of a subtree, used for the layer panel and export.
type Node struct {
	ID       string           `json:"id"`
	Object   *document.Object `json:"object"`
	Children []*Node          `json:"children"`
}

type entry struct {
	object   *document.Object
	parent   string
	children []string
}

type Tree struct {
	entries map[string]*entry
	roots   []string
}

// PositionCache receives the new position of every object moved by
// MoveSubtree, so per-frame drag deltas start from a consistent baseline.
type PositionCache interface {
	Remember(id string, left, top float64)
}

func New() *Tree {
	return &Tree{entries: make(map[string]*entry)}
}

// Len returns the number of nodes in the tree.
func (t *Tree) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

func (t *Tree) Contains(id string) bool {
	if t == nil {
		return false
	}
	_, ok := t.entries[id]
	return ok
}

// Object returns the canvas object referenced by the node with the given id.
func (t *Tree) Object(id string) (*document.Object, bool) {
	if t == nil {
		return nil, false
	}
	e, ok := t.entries[id]
	if !ok {
		return nil, false
	}
	return e.object, true
}

// FindNodeByID returns the subtree rooted at id, or nil if id is not linked.
func (t *Tree) FindNodeByID(id string) *Node {
	if !t.Contains(id) {
		return nil
	}
	return t.node(id)
}

// Roots returns the nested view of the whole tree in root order.
func (t *Tree) Roots() []*Node {
	if t == nil {
		return []*Node{}
	}
	nodes := make([]*Node, 0, len(t.roots))
	for _, id := range t.roots {
		nodes = append(nodes, t.node(id))
	}
	return nodes
}

// RootIDs returns the ids of the top-level nodes in order.
func (t *Tree) RootIDs() []string {
	if t == nil {
		return nil
	}
	return slices.Clone(t.roots)
}

// Children returns the ids of the direct children of id.
func (t *Tree) Children(id string) []string {
	if t == nil {
		return nil
	}
	e, ok := t.entries[id]
	if !ok {
		return nil
	}
	return slices.Clone(e.children)
}

// ParentOf returns the id of the node's parent. It reports false for roots
// and for ids that are not in the tree.
func (t *Tree) ParentOf(id string) (string, bool) {
	if t == nil {
		return "", false
	}
	e, ok := t.entries[id]
	if !ok || e.parent == "" {
		return "", false
	}
	return e.parent, true
}

// HasParent reports whether id is linked below some other node.
func (t *Tree) HasParent(id string) bool {
	_, ok := t.ParentOf(id)
	return ok
}

// IsDescendant reports whether targetID lies strictly inside the subtree of
// nodeID. A node is never its own descendant.
func (t *Tree) IsDescendant(nodeID, targetID string) bool {
	if t == nil || nodeID == targetID {
		return false
	}
	e, ok := t.entries[targetID]
	if !ok {
		return false
	}
	for p := e.parent; p != ""; p = t.entries[p].parent {
		if p == nodeID {
			return true
		}
	}
	return false
}

// Walk visits every node depth-first in child order. Returning false from fn
// skips the node's subtree.
func (t *Tree) Walk(fn func(id string, obj *document.Object, depth int) bool) {
	if t == nil {
		return
	}
	var visit func(id string, depth int)
	visit = func(id string, depth int) {
		e := t.entries[id]
		if !fn(id, e.object, depth) {
			return
		}
		for _, c := range e.children {
			visit(c, depth+1)
		}
	}
	for _, r := range t.roots {
		visit(r, 0)
	}
}

// Descendants returns every id below nodeID, depth-first.
func (t *Tree) Descendants(nodeID string) []string {
	if !t.Contains(nodeID) {
		return nil
	}
	var out []string
	var collect func(id string)
	collect = func(id string) {
		for _, c := range t.entries[id].children {
			out = append(out, c)
			collect(c)
		}
	}
	collect(nodeID)
	return out
}

// MoveSubtree translates every descendant of nodeID by (dx, dy) and records
// the new positions in cache, which may be nil. The node itself is not moved;
// the caller has already positioned it. Only object geometry changes, so this
// is not a structural mutation.
func (t *Tree) MoveSubtree(nodeID string, dx, dy float64, cache PositionCache) {
	if t == nil {
		return
	}
	e, ok := t.entries[nodeID]
	if !ok {
		return
	}
	for _, cid := range e.children {
		child := t.entries[cid]
		if obj := child.object; obj != nil {
			obj.Left += dx
			obj.Top += dy
			if cache != nil {
				cache.Remember(cid, obj.Left, obj.Top)
			}
		}
		t.MoveSubtree(cid, dx, dy, cache)
	}
}

// AddChild returns a tree in which child sits as the last child of container.
//
// If container is not yet linked it becomes a new root. If child is already
// linked it is excised from its old place first, taking its subtree along, so
// an id never appears twice. Insertions that would create a cycle, and objects
// without ids, leave the tree unchanged.
func (t *Tree) AddChild(container, child *document.Object) *Tree {
	if t == nil {
		t = New()
	}
	if container == nil || child == nil || container.ID == "" || child.ID == "" {
		slog.Warn("tree insert skipped: object without id")
		return t
	}
	if container.ID == child.ID || t.IsDescendant(child.ID, container.ID) {
		return t
	}
	if t.isLastChild(container.ID, child.ID) {
		return t
	}

	nt := t.clone()

	ce, linked := nt.entries[child.ID]
	if linked {
		nt.detach(child.ID)
		ce.object = child
	} else {
		ce = &entry{object: child}
		nt.entries[child.ID] = ce
	}
	ce.parent = container.ID

	if pe, ok := nt.entries[container.ID]; ok {
		pe.children = append(pe.children, child.ID)
	} else {
		nt.entries[container.ID] = &entry{
			object:   container,
			children: []string{child.ID},
		}
		nt.roots = append(nt.roots, container.ID)
	}

	return nt
}

// Remove returns a tree without the node id and its subtree. The removed
// objects become unlinked.
func (t *Tree) Remove(id string) *Tree {
	if !t.Contains(id) {
		return t
	}

	nt := t.clone()
	doomed := append(nt.Descendants(id), id)
	nt.detach(id)
	for _, d := range doomed {
		delete(nt.entries, d)
	}
	return nt
}

// Links flattens the tree into parent/child pairs in depth-first order.
// Replaying them through AddChild rebuilds the same structure.
func (t *Tree) Links() []document.Link {
	var links []document.Link
	t.Walk(func(id string, _ *document.Object, _ int) bool {
		for _, c := range t.entries[id].children {
			links = append(links, document.Link{Parent: id, Child: c})
		}
		return true
	})
	return links
}

// FromLinks builds a tree by replaying links against objects. Links naming an
// unknown object are dropped with a warning.
func FromLinks(objects []*document.Object, links []document.Link) *Tree {
	byID := make(map[string]*document.Object, len(objects))
	for _, o := range objects {
		if o != nil && o.ID != "" {
			byID[o.ID] = o
		}
	}

	t := New()
	for _, l := range links {
		parent, pok := byID[l.Parent]
		child, cok := byID[l.Child]
		if !pok || !cok {
			slog.Warn("dropping link to unknown object", "parent", l.Parent, "child", l.Child)
			continue
		}
		t = t.AddChild(parent, child)
	}
	return t
}

func (t *Tree) isLastChild(parentID, childID string) bool {
	e, ok := t.entries[childID]
	if !ok || e.parent != parentID {
		return false
	}
	siblings := t.entries[parentID].children
	return siblings[len(siblings)-1] == childID
}

func (t *Tree) node(id string) *Node {
	e := t.entries[id]
	n := &Node{
		ID:       id,
		Object:   e.object,
		Children: make([]*Node, 0, len(e.children)),
	}
	for _, c := range e.children {
		n.Children = append(n.Children, t.node(c))
	}
	return n
}

// detach unhooks id from its parent or from the root list. Its subtree stays
// in the arena.
func (t *Tree) detach(id string) {
	e := t.entries[id]
	if e.parent == "" {
		t.roots = slices.DeleteFunc(t.roots, func(r string) bool { return r == id })
		return
	}
	p := t.entries[e.parent]
	p.children = slices.DeleteFunc(p.children, func(c string) bool { return c == id })
	e.parent = ""
}

func (t *Tree) clone() *Tree {
	nt := &Tree{
		entries: make(map[string]*entry, len(t.entries)),
		roots:   slices.Clone(t.roots),
	}
	for id, e := range t.entries {
		nt.entries[id] = &entry{
			object:   e.object,
			parent:   e.parent,
			children: slices.Clone(e.children),
		}
	}
	return nt
}

// Snapshot returns a copy of the tree whose entries point at clones of the
// canvas objects. Later geometry edits on the live objects do not show through.
func (t *Tree) Snapshot() *Tree {
	if t == nil {
		return New()
	}
	nt := t.clone()
	for _, e := range nt.entries {
		if e.object != nil {
			e.object = e.object.Clone()
		}
	}
	return nt
}

// Detach deep-copies nested nodes, cloning every object they reference.
func Detach(nodes []*Node) []*Node {
	out := make([]*Node, 0, len(nodes))
	for _, n := range nodes {
		c := &Node{ID: n.ID, Children: Detach(n.Children)}
		if n.Object != nil {
			c.Object = n.Object.Clone()
		}
		out = append(out, c)
	}
	return out
}
