// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package doc holds parsed documents as an arena of nodes addressed by
// opaque NodeIDs. Consumers (the DNM, the pattern matcher) keep NodeIDs
// and resolve them through the owning Tree; they never own nodes.
package doc

import "strings"

// NodeID identifies a node within a single Tree.
type NodeID int32

// NoNode is the zero reference: "no node".
const NoNode NodeID = -1

// Kind distinguishes element nodes from text leaves.
type Kind uint8

const (
	ElementNode Kind = iota
	TextNode
)

// Attr is a single element attribute. Attribute order is preserved.
type Attr struct {
	Key string
	Val string
}

type node struct {
	kind     Kind
	tag      string
	text     string
	attrs    []Attr
	parent   NodeID
	children []NodeID
}

// Tree is a rooted, acyclic document tree. It is read-only once built and
// safe for concurrent readers.
type Tree struct {
	nodes []node
	root  NodeID
}

// Root returns the root element, or NoNode for an empty tree.
func (t *Tree) Root() NodeID {
	if t == nil || len(t.nodes) == 0 {
		return NoNode
	}
	return t.root
}

// Len returns the number of nodes in the arena.
func (t *Tree) Len() int { return len(t.nodes) }

// Valid reports whether id refers to a node of t.
func (t *Tree) Valid(id NodeID) bool {
	return t != nil && id >= 0 && int(id) < len(t.nodes)
}

// Kind returns the node kind.
func (t *Tree) Kind(id NodeID) Kind { return t.nodes[id].kind }

// IsText reports whether id is a text leaf.
func (t *Tree) IsText(id NodeID) bool { return t.nodes[id].kind == TextNode }

// Tag returns the element tag name, or "" for text leaves.
func (t *Tree) Tag(id NodeID) string { return t.nodes[id].tag }

// Text returns the literal content of a text leaf, or "" for elements.
func (t *Tree) Text(id NodeID) string { return t.nodes[id].text }

// Attrs returns the element's attributes in document order.
func (t *Tree) Attrs(id NodeID) []Attr { return t.nodes[id].attrs }

// Attr looks up a single attribute by key.
func (t *Tree) Attr(id NodeID, key string) (string, bool) {
	for _, a := range t.nodes[id].attrs {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// Classes splits the class attribute on whitespace.
func (t *Tree) Classes(id NodeID) []string {
	v, ok := t.Attr(id, "class")
	if !ok {
		return nil
	}
	return strings.Fields(v)
}

// Parent returns the parent of id, or NoNode for the root.
func (t *Tree) Parent(id NodeID) NodeID { return t.nodes[id].parent }

// Children returns the children of id in document order. The returned
// slice must not be modified.
func (t *Tree) Children(id NodeID) []NodeID { return t.nodes[id].children }

// Depth returns the number of ancestors of id.
func (t *Tree) Depth(id NodeID) int {
	d := 0
	for p := t.nodes[id].parent; p != NoNode; p = t.nodes[p].parent {
		d++
	}
	return d
}

// IsAncestor reports whether anc is id or one of id's ancestors.
func (t *Tree) IsAncestor(anc, id NodeID) bool {
	for n := id; n != NoNode; n = t.nodes[n].parent {
		if n == anc {
			return true
		}
	}
	return false
}

// Ancestor returns the nearest ancestor-or-self of id with the given tag,
// or NoNode.
func (t *Tree) Ancestor(id NodeID, tag string) NodeID {
	for n := id; n != NoNode; n = t.nodes[n].parent {
		if t.nodes[n].kind == ElementNode && t.nodes[n].tag == tag {
			return n
		}
	}
	return NoNode
}

// Find returns the first descendant-or-self of id (pre-order) with the
// given tag, or NoNode.
func (t *Tree) Find(id NodeID, tag string) NodeID {
	found := NoNode
	t.Walk(id, func(n NodeID) bool {
		if found != NoNode {
			return false
		}
		if t.nodes[n].kind == ElementNode && t.nodes[n].tag == tag {
			found = n
			return false
		}
		return true
	})
	return found
}

// Walk visits id and its descendants in pre-order. Returning false from fn
// skips the children of the visited node.
func (t *Tree) Walk(id NodeID, fn func(NodeID) bool) {
	if !fn(id) {
		return
	}
	for _, c := range t.nodes[id].children {
		t.Walk(c, fn)
	}
}

// TextContent concatenates all text leaves under id in document order.
func (t *Tree) TextContent(id NodeID) string {
	var b strings.Builder
	t.Walk(id, func(n NodeID) bool {
		if t.nodes[n].kind == TextNode {
			b.WriteString(t.nodes[n].text)
		}
		return true
	})
	return b.String()
}

// Builder assembles a Tree. The first element created without a parent
// becomes the root.
type Builder struct {
	t Tree
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{t: Tree{root: NoNode}}
}

// Element appends an element under parent (NoNode for the root).
func (b *Builder) Element(parent NodeID, tag string, attrs ...Attr) NodeID {
	return b.add(parent, node{kind: ElementNode, tag: tag, attrs: attrs})
}

// Text appends a text leaf under parent.
func (b *Builder) Text(parent NodeID, text string) NodeID {
	return b.add(parent, node{kind: TextNode, text: text})
}

func (b *Builder) add(parent NodeID, n node) NodeID {
	id := NodeID(len(b.t.nodes))
	n.parent = parent
	b.t.nodes = append(b.t.nodes, n)
	if parent == NoNode {
		if b.t.root == NoNode {
			b.t.root = id
		}
	} else {
		b.t.nodes[parent].children = append(b.t.nodes[parent].children, id)
	}
	return id
}

// Tree returns the built tree. The Builder must not be used afterwards.
func (b *Builder) Tree() *Tree {
	t := b.t
	return &t
}
