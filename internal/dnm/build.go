// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dnm

import (
	"strings"
	"unicode"

	"github.com/mozillazg/go-unidecode"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/pdiddy/mathspan/internal/doc"
)

// Build linearizes the subtree at root under cfg. Traversal is depth-first
// pre-order and never leaves the subtree. An invalid root yields an empty
// DNM.
func Build(t *doc.Tree, root doc.NodeID, cfg Config) *DNM {
	d := &DNM{
		tree:  t,
		root:  root,
		cfg:   cfg.clone(),
		spans: map[doc.NodeID]span{},
	}
	if !t.Valid(root) {
		d.root = doc.NoNode
		return d
	}

	b := &builder{d: d, atStart: true}
	b.visit(root)
	d.text = b.buf.String()
	return d
}

type builder struct {
	d       *DNM
	buf     strings.Builder
	last    byte
	atStart bool
}

func (b *builder) write(s string) {
	if s == "" {
		return
	}
	b.buf.WriteString(s)
	b.last = s[len(s)-1]
	b.atStart = false
}

func (b *builder) visit(id doc.NodeID) {
	t := b.d.tree
	start := b.buf.Len()

	if t.IsText(id) {
		b.leaf(id)
	} else if p, ok := b.d.cfg.PolicyFor(t, id); ok {
		b.unit(id, p)
		return
	} else {
		for _, c := range t.Children(id) {
			b.visit(c)
		}
	}

	if b.d.cfg.BackMapping && b.buf.Len() > start {
		b.d.spans[id] = span{start: start, end: b.buf.Len()}
	}
}

func (b *builder) leaf(id doc.NodeID) {
	s := b.d.tree.Text(id)
	if b.d.cfg.NormalizeUnicode {
		s = foldUnicode(s)
	}
	if b.d.cfg.NormalizeWhitespace {
		s = collapseSpace(s, b.atStart || b.last == ' ')
	}
	if s == "" {
		return
	}
	start := b.buf.Len()
	b.write(s)
	b.record(id, start, false)
}

func (b *builder) unit(id doc.NodeID, p Policy) {
	if p.Kind() == PolicySkip {
		return
	}
	label := p.emit(b.d.tree, id)
	if label == "" {
		return
	}
	if b.d.cfg.WrapTokens && !b.atStart && b.last != ' ' {
		b.write(" ")
	}
	start := b.buf.Len()
	b.write(label)
	b.record(id, start, true)
	if b.d.cfg.BackMapping {
		b.d.spans[id] = span{start: start, end: b.buf.Len()}
	}
	if b.d.cfg.WrapTokens && b.last != ' ' {
		b.write(" ")
	}
}

func (b *builder) record(id doc.NodeID, start int, unit bool) {
	if !b.d.cfg.BackMapping {
		return
	}
	b.d.entries = append(b.d.entries, entry{
		start: start,
		end:   b.buf.Len(),
		node:  id,
		unit:  unit,
	})
}

// collapseSpace replaces every run of whitespace with a single space. When
// prevSpace is set a leading run is dropped entirely.
func collapseSpace(s string, prevSpace bool) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsSpace(r) {
			if !prevSpace {
				b.WriteByte(' ')
			}
			prevSpace = true
			continue
		}
		b.WriteRune(r)
		prevSpace = false
	}
	return b.String()
}

// foldUnicode maps text to a canonical ASCII-compatible form. Accents are
// stripped by compatibility decomposition; characters without one, such as
// Greek letters or typographic quotes, are transliterated.
func foldUnicode(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return unidecode.Unidecode(out)
}
