// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pattern loads named pattern definitions and matches them against
// parsed sentences. A pattern is a list of alternative branches; a branch
// is a sequence of constraints over tokens, phrase-tree nodes and math
// subtrees. Constraints may carry a capture, which produces a marker when
// the branch matches.
package pattern

import (
	"strings"
)

// File is an immutable set of pattern definitions. Rule references are
// already inlined.
type File struct {
	patterns map[string]*Definition
	order    []string
}

// Pattern returns the definition called name.
func (f *File) Pattern(name string) (*Definition, bool) {
	d, ok := f.patterns[name]
	return d, ok
}

// Names returns pattern names in declaration order.
func (f *File) Names() []string {
	out := make([]string, len(f.order))
	copy(out, f.order)
	return out
}

// Definition is a named pattern with one or more branches, tried in order.
type Definition struct {
	Name     string
	Branches []*Branch
}

// CaptureNames returns the distinct capture names across all branches, in
// order of first appearance.
func (d *Definition) CaptureNames() []string {
	var out []string
	seen := map[string]bool{}
	for _, b := range d.Branches {
		for _, c := range b.Captures {
			if !seen[c.Name] {
				seen[c.Name] = true
				out = append(out, c.Name)
			}
		}
	}
	return out
}

// Branch is a sequence of constraints that must consume a contiguous run
// of tokens.
type Branch struct {
	Constraints []Constraint
	// Captures lists every capture point in definition pre-order.
	Captures []*Capture
}

// Constraint is one of *Word, *Gap, *Phrase or *Math.
type Constraint interface {
	capture() *Capture
}

// Capture names a satisfied constraint so that matching reports it.
type Capture struct {
	Name string
	Tags []string
	// Order is the pre-order index of the capture within its branch.
	Order int
}

// Word matches a single token. Empty sets match anything.
type Word struct {
	Text    Set
	Lemma   Set
	POS     Set
	Capture *Capture
}

// Gap matches between Min and Max tokens of any kind. Max < 0 means no
// upper bound.
type Gap struct {
	Min, Max int
	Capture  *Capture
}

// Phrase matches the token span of a phrase-tree node whose label is in
// Labels and whose children satisfy Children: as a contiguous run when
// AnyOrder is false, as an injective assignment in any order otherwise.
type Phrase struct {
	Labels   Set
	Children []Constraint
	AnyOrder bool
	Capture  *Capture
}

// Math matches a token that stands for a formula. When Node is set, some
// element of the formula must have that shape.
type Math struct {
	Node    *MathNode
	Capture *Capture
}

// MathNode describes a MathML element: tag, text content and an ordered
// contiguous run of element children.
type MathNode struct {
	Tags     Set
	Text     Set
	Children []*MathNode
	Capture  *Capture
}

func (w *Word) capture() *Capture   { return w.Capture }
func (g *Gap) capture() *Capture    { return g.Capture }
func (p *Phrase) capture() *Capture { return p.Capture }
func (m *Math) capture() *Capture   { return m.Capture }

// Set is a list of alternatives. An alternative ending in '*' matches any
// value with that prefix.
type Set struct {
	alts []string
	fold bool
}

// ParseSet splits a '|' separated list. With fold set, matching ignores
// case.
func ParseSet(s string, fold bool) Set {
	var alts []string
	for _, a := range strings.Split(s, "|") {
		if a = strings.TrimSpace(a); a != "" {
			if fold {
				a = strings.ToLower(a)
			}
			alts = append(alts, a)
		}
	}
	return Set{alts: alts, fold: fold}
}

// IsEmpty reports whether the set has no alternatives.
func (s Set) IsEmpty() bool { return len(s.alts) == 0 }

// Matches reports whether v is accepted. The empty set accepts anything.
func (s Set) Matches(v string) bool {
	if len(s.alts) == 0 {
		return true
	}
	if s.fold {
		v = strings.ToLower(v)
	}
	for _, a := range s.alts {
		if prefix, ok := strings.CutSuffix(a, "*"); ok {
			if strings.HasPrefix(v, prefix) {
				return true
			}
		} else if a == v {
			return true
		}
	}
	return false
}

func (s Set) String() string { return strings.Join(s.alts, "|") }

// walkCaptures visits constraints and math nodes in pre-order.
func walkCaptures(cs []Constraint, fn func(*Capture)) {
	for _, c := range cs {
		if cp := c.capture(); cp != nil {
			fn(cp)
		}
		switch c := c.(type) {
		case *Phrase:
			walkCaptures(c.Children, fn)
		case *Math:
			if c.Node != nil {
				walkMathCaptures(c.Node, fn)
			}
		}
	}
}

func walkMathCaptures(n *MathNode, fn func(*Capture)) {
	if n.Capture != nil {
		fn(n.Capture)
	}
	for _, c := range n.Children {
		walkMathCaptures(c, fn)
	}
}
