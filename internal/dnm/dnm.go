// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package dnm builds the Document Narrative Model: a plain-text view of a
// document tree whose every character range can be traced back to the
// node that produced it.
package dnm

import (
	"fmt"
	"sort"

	"github.com/pdiddy/mathspan/internal/doc"
	"github.com/pdiddy/mathspan/internal/mathml"
)

// entry maps one contiguous contribution (a text leaf or a policy unit)
// to its node. Entries are sorted and never overlap.
type entry struct {
	start, end int
	node       doc.NodeID
	unit       bool
}

type span struct {
	start, end int
}

// DNM is an immutable linearization of a document subtree. Offsets are
// byte offsets into Text. It is safe for concurrent readers.
type DNM struct {
	tree    *doc.Tree
	root    doc.NodeID
	cfg     Config
	text    string
	entries []entry
	spans   map[doc.NodeID]span
}

// Text returns the linearized text.
func (d *DNM) Text() string { return d.text }

// Tree returns the document the DNM was built from.
func (d *DNM) Tree() *doc.Tree { return d.tree }

// Root returns the subtree root the DNM was built from.
func (d *DNM) Root() doc.NodeID { return d.root }

// Config returns a copy of the configuration the DNM was built with.
func (d *DNM) Config() Config { return d.cfg.clone() }

// Range returns the span [start, end) of the DNM text.
func (d *DNM) Range(start, end int) (Range, error) {
	if start < 0 || start > end || end > len(d.text) {
		return Range{}, fmt.Errorf("range [%d,%d) out of bounds for text of length %d", start, end, len(d.text))
	}
	return Range{dnm: d, Start: start, End: end}, nil
}

// FullRange spans the whole text.
func (d *DNM) FullRange() Range {
	return Range{dnm: d, Start: 0, End: len(d.text)}
}

// RangeOf returns the span node contributed, if it contributed anything.
func (d *DNM) RangeOf(id doc.NodeID) (Range, bool) {
	sp, ok := d.spans[id]
	if !ok {
		return Range{}, false
	}
	return Range{dnm: d, Start: sp.start, End: sp.end}, true
}

// NodeAt returns the innermost node whose contribution covers [start, end).
// A range between contributions, such as a space added by WrapTokens,
// resolves to the innermost element whose span contains it. It returns
// doc.NoNode when back-mapping is off, when nothing was recorded there, or
// when the range overlaps more than one policy unit.
func (d *DNM) NodeAt(start, end int) doc.NodeID {
	if !d.cfg.BackMapping || start < 0 || start > end || end > len(d.text) {
		return doc.NoNode
	}
	i := sort.Search(len(d.entries), func(i int) bool { return d.entries[i].end > start })

	if start == end {
		if i < len(d.entries) && d.entries[i].start <= start {
			return d.entries[i].node
		}
		return d.between(i, start, end)
	}

	first, units := -1, 0
	for j := i; j < len(d.entries) && d.entries[j].start < end; j++ {
		if first < 0 {
			first = j
		}
		if d.entries[j].unit {
			units++
		}
	}
	if units > 1 {
		return doc.NoNode
	}
	if first < 0 {
		return d.between(i, start, end)
	}
	return d.enclosing(d.entries[first].node, start, end)
}

// enclosing walks up from n to the first node whose span contains
// [start, end).
func (d *DNM) enclosing(n doc.NodeID, start, end int) doc.NodeID {
	for ; n != doc.NoNode; n = d.tree.Parent(n) {
		if sp, ok := d.spans[n]; ok && sp.start <= start && sp.end >= end {
			return n
		}
		if n == d.root {
			break
		}
	}
	return doc.NoNode
}

// between resolves a range no entry overlaps. The entries on either side
// (next is the index of the following one) are walked up and the smaller
// enclosing span wins.
func (d *DNM) between(next, start, end int) doc.NodeID {
	best, bestLen := doc.NoNode, -1
	for _, j := range []int{next - 1, next} {
		if j < 0 || j >= len(d.entries) {
			continue
		}
		n := d.enclosing(d.entries[j].node, start, end)
		if n == doc.NoNode {
			continue
		}
		sp := d.spans[n]
		if bestLen < 0 || sp.end-sp.start < bestLen {
			best, bestLen = n, sp.end-sp.start
		}
	}
	return best
}

// Mapping is one back-mapping entry, exposed for inspection.
type Mapping struct {
	Start, End int
	Node       doc.NodeID
	// Unit is set for Normalize/FunctionNormalize contributions.
	Unit bool
}

// Mappings returns the recorded entries in text order.
func (d *DNM) Mappings() []Mapping {
	out := make([]Mapping, len(d.entries))
	for i, e := range d.entries {
		out[i] = Mapping{Start: e.start, End: e.end, Node: e.node, Unit: e.unit}
	}
	return out
}

// overlapping returns the entries intersecting [start, end).
func (d *DNM) overlapping(start, end int) []entry {
	i := sort.Search(len(d.entries), func(i int) bool { return d.entries[i].end > start })
	j := i
	for j < len(d.entries) && d.entries[j].start < end {
		j++
	}
	return d.entries[i:j]
}

// SerializeMode selects how text is re-derived from nodes.
type SerializeMode uint8

const (
	// SerializeDNM uses the DNM's own policies.
	SerializeDNM SerializeMode = iota
	// SerializeRaw concatenates the raw text content, ignoring policies.
	SerializeRaw
	// SerializeMath applies the MathML linearizer.
	SerializeMath
)

// SerializeNode renders a single node. In SerializeDNM mode a node that
// contributed is returned as its recorded text; any other node (for
// example one inside a policy unit) is linearized afresh under this DNM's
// configuration.
func (d *DNM) SerializeNode(id doc.NodeID, mode SerializeMode) string {
	if !d.tree.Valid(id) {
		return ""
	}
	switch mode {
	case SerializeRaw:
		return d.tree.TextContent(id)
	case SerializeMath:
		return mathml.Linearize(d.tree, id)
	}
	if sp, ok := d.spans[id]; ok {
		return d.text[sp.start:sp.end]
	}
	return Build(d.tree, id, d.cfg).Text()
}
