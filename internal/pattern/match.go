// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pattern

import (
	"sort"
	"strconv"
	"strings"

	"github.com/pdiddy/mathspan/internal/dnm"
	"github.com/pdiddy/mathspan/internal/doc"
	"github.com/pdiddy/mathspan/internal/mathml"
	"github.com/pdiddy/mathspan/internal/sentence"
)

// Match runs the pattern called name against s and returns every match,
// ordered by start token, then branch, then enumeration order. Matches
// with the same start, branch and markers are reported once.
func Match(f *File, name string, s *sentence.Sentence) ([]Result, error) {
	def, ok := f.Pattern(name)
	if !ok {
		return nil, &UnknownPatternError{Name: name}
	}
	if s == nil {
		return nil, nil
	}

	m := &matcher{s: s}
	var out []Result
	seen := map[string]bool{}
	for start := range s.Tokens {
		for bi, br := range def.Branches {
			m.seq(br.Constraints, start, nil, func(end int, marks []Marker) {
				marks = sortMarkers(marks)
				k := matchKey(start, bi, marks)
				if seen[k] {
					return
				}
				seen[k] = true
				out = append(out, Result{
					Pattern: def.Name,
					Branch:  bi,
					Start:   start,
					End:     end,
					Markers: marks,
				})
			})
		}
	}
	return out, nil
}

// matcher enumerates alignments by backtracking. Each step hands the new
// position and marker list to a continuation; marker slices are never
// shared between alternatives.
type matcher struct {
	s *sentence.Sentence
}

type cont func(pos int, marks []Marker)

func (m *matcher) seq(cs []Constraint, pos int, marks []Marker, k cont) {
	if len(cs) == 0 {
		k(pos, marks)
		return
	}
	rest := cs[1:]
	m.one(cs[0], pos, marks, func(next int, marks []Marker) {
		m.seq(rest, next, marks, k)
	})
}

func (m *matcher) one(c Constraint, pos int, marks []Marker, k cont) {
	n := len(m.s.Tokens)
	switch c := c.(type) {
	case *Word:
		if pos < n && wordMatches(c, m.s.Tokens[pos]) {
			k(pos+1, m.text(c.Capture, pos, pos, marks))
		}

	case *Gap:
		for l := c.Min; pos+l <= n && (c.Max < 0 || l <= c.Max); l++ {
			k(pos+l, m.text(c.Capture, pos, pos+l-1, marks))
		}

	case *Phrase:
		if pos >= n {
			return
		}
		for _, p := range m.s.PhrasesAt(pos) {
			if !c.Labels.Matches(p.Label) {
				continue
			}
			m.children(c, p, marks, func(marks []Marker) {
				k(p.Last+1, m.text(c.Capture, p.First, p.Last, marks))
			})
		}

	case *Math:
		if pos < n && m.s.Tokens[pos].HasMath() {
			m.math(c, pos, marks, func(marks []Marker) { k(pos+1, marks) })
		}
	}
}

// children aligns a phrase constraint's children with a tree node's.
func (m *matcher) children(c *Phrase, p *sentence.Phrase, marks []Marker, k func([]Marker)) {
	if len(c.Children) == 0 {
		k(marks)
		return
	}
	if c.AnyOrder {
		m.anyOrder(c.Children, p.Children, make([]bool, len(p.Children)), marks, k)
		return
	}
	for j := range p.Children {
		m.childSeq(c.Children, p.Children, j, marks, func(_ int, marks []Marker) { k(marks) })
	}
}

func (m *matcher) childSeq(cs []Constraint, kids []*sentence.Phrase, j int, marks []Marker, k cont) {
	if len(cs) == 0 {
		k(j, marks)
		return
	}
	rest := cs[1:]
	if g, ok := cs[0].(*Gap); ok {
		for l := g.Min; j+l <= len(kids) && (g.Max < 0 || l <= g.Max); l++ {
			first, last := m.kidSpan(kids, j, l)
			m.childSeq(rest, kids, j+l, m.text(g.Capture, first, last, marks), k)
		}
		return
	}
	if j >= len(kids) {
		return
	}
	m.child(cs[0], kids[j], marks, func(marks []Marker) {
		m.childSeq(rest, kids, j+1, marks, k)
	})
}

// kidSpan returns the token span of l consecutive children starting at j.
func (m *matcher) kidSpan(kids []*sentence.Phrase, j, l int) (int, int) {
	if l == 0 {
		if j < len(kids) {
			return kids[j].First, kids[j].First - 1
		}
		last := kids[len(kids)-1].Last
		return last + 1, last
	}
	return kids[j].First, kids[j+l-1].Last
}

func (m *matcher) anyOrder(cs []Constraint, kids []*sentence.Phrase, used []bool, marks []Marker, k func([]Marker)) {
	if len(cs) == 0 {
		k(marks)
		return
	}
	for i, kid := range kids {
		if used[i] {
			continue
		}
		used[i] = true
		m.child(cs[0], kid, marks, func(marks []Marker) {
			m.anyOrder(cs[1:], kids, used, marks, k)
		})
		used[i] = false
	}
}

// child matches one constraint against one phrase-tree child.
func (m *matcher) child(c Constraint, kid *sentence.Phrase, marks []Marker, k func([]Marker)) {
	switch c := c.(type) {
	case *Word:
		if kid.IsPreterminal() && wordMatches(c, m.s.Tokens[kid.Token]) {
			k(m.text(c.Capture, kid.Token, kid.Token, marks))
		}
	case *Math:
		if kid.IsPreterminal() && m.s.Tokens[kid.Token].HasMath() {
			m.math(c, kid.Token, marks, k)
		}
	case *Phrase:
		if c.Labels.Matches(kid.Label) {
			m.children(c, kid, marks, func(marks []Marker) {
				k(m.text(c.Capture, kid.First, kid.Last, marks))
			})
		}
	}
}

func (m *matcher) math(c *Math, ti int, marks []Marker, k func([]Marker)) {
	tok := m.s.Tokens[ti]
	marks = m.mathMarker(c.Capture, tok.Math, ti, marks)
	if c.Node == nil {
		k(marks)
		return
	}
	t := m.tree()
	t.Walk(tok.Math, func(id doc.NodeID) bool {
		if t.IsText(id) || mathml.IsAnnotation(t, id) {
			return false
		}
		m.mathNode(c.Node, id, ti, marks, k)
		return true
	})
}

func (m *matcher) mathNode(shape *MathNode, id doc.NodeID, ti int, marks []Marker, k func([]Marker)) {
	t := m.tree()
	if !shape.Tags.Matches(t.Tag(id)) {
		return
	}
	if !shape.Text.IsEmpty() && !shape.Text.Matches(mathText(t, id)) {
		return
	}
	marks = m.mathMarker(shape.Capture, id, ti, marks)
	if len(shape.Children) == 0 {
		k(marks)
		return
	}
	kids := mathChildren(t, id, nil)
	for j := 0; j+len(shape.Children) <= len(kids); j++ {
		m.mathSeq(shape.Children, kids, j, ti, marks, k)
	}
}

func (m *matcher) mathSeq(shapes []*MathNode, kids []doc.NodeID, j, ti int, marks []Marker, k func([]Marker)) {
	if len(shapes) == 0 {
		k(marks)
		return
	}
	m.mathNode(shapes[0], kids[j], ti, marks, func(marks []Marker) {
		m.mathSeq(shapes[1:], kids, j+1, ti, marks, k)
	})
}

func (m *matcher) tree() *doc.Tree { return m.s.Range.DNM().Tree() }

// text appends a text marker over tokens first..last when c is set.
func (m *matcher) text(c *Capture, first, last int, marks []Marker) []Marker {
	if c == nil {
		return marks
	}
	return appendMarker(marks, &TextMarker{
		Name:       c.Name,
		Tags:       c.Tags,
		Range:      m.tokenRange(first, last),
		FirstToken: first,
		LastToken:  last,
		capture:    c.Order,
	})
}

func (m *matcher) mathMarker(c *Capture, id doc.NodeID, ti int, marks []Marker) []Marker {
	if c == nil {
		return marks
	}
	return appendMarker(marks, &MathMarker{
		Name:    c.Name,
		Tags:    c.Tags,
		Node:    id,
		Token:   ti,
		capture: c.Order,
	})
}

func (m *matcher) tokenRange(first, last int) dnm.Range {
	d := m.s.Range.DNM()
	if d == nil {
		return dnm.Range{}
	}
	var start, end int
	switch {
	case first < len(m.s.Tokens) && last >= first:
		start, end = m.s.Tokens[first].Range.Start, m.s.Tokens[last].Range.End
	case first < len(m.s.Tokens):
		start = m.s.Tokens[first].Range.Start
		end = start
	default:
		start, end = m.s.Range.End, m.s.Range.End
	}
	r, err := d.Range(start, end)
	if err != nil {
		return dnm.Range{}
	}
	return r
}

func appendMarker(marks []Marker, mk Marker) []Marker {
	out := make([]Marker, len(marks), len(marks)+1)
	copy(out, marks)
	return append(out, mk)
}

func wordMatches(w *Word, tok sentence.Token) bool {
	return w.Text.Matches(tok.Text) && w.Lemma.Matches(tok.Lemma) && w.POS.Matches(tok.POS)
}

// mathChildren lists the element children of id with annotations dropped
// and semantics wrappers flattened.
func mathChildren(t *doc.Tree, id doc.NodeID, out []doc.NodeID) []doc.NodeID {
	for _, c := range t.Children(id) {
		switch {
		case t.IsText(c), mathml.IsAnnotation(t, c):
		case t.Tag(c) == "semantics":
			out = mathChildren(t, c, out)
		default:
			out = append(out, c)
		}
	}
	return out
}

// mathText is the trimmed text of id without annotation content.
func mathText(t *doc.Tree, id doc.NodeID) string {
	var b strings.Builder
	t.Walk(id, func(n doc.NodeID) bool {
		if t.IsText(n) {
			b.WriteString(t.Text(n))
			return false
		}
		return !mathml.IsAnnotation(t, n)
	})
	return strings.TrimSpace(b.String())
}

func sortMarkers(marks []Marker) []Marker {
	out := make([]Marker, len(marks))
	copy(out, marks)
	sort.SliceStable(out, func(i, j int) bool { return out[i].order() < out[j].order() })
	return out
}

func matchKey(start, branch int, marks []Marker) string {
	var b strings.Builder
	b.WriteString(strconv.Itoa(start))
	b.WriteByte('/')
	b.WriteString(strconv.Itoa(branch))
	for _, mk := range marks {
		b.WriteByte('/')
		b.WriteString(mk.key())
	}
	return b.String()
}
