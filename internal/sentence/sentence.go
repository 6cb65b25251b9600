// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package sentence models a linguistically parsed sentence whose tokens
// are anchored in a DNM: each token knows its DNM range and, when it
// stands for a formula, the math element it came from.
package sentence

import (
	"fmt"

	"github.com/pdiddy/mathspan/internal/dnm"
	"github.com/pdiddy/mathspan/internal/doc"
)

// Token is one word of a parsed sentence.
type Token struct {
	Text  string
	Lemma string
	POS   string
	Range dnm.Range
	// Math is the math element the token stands for, or doc.NoNode.
	Math doc.NodeID
}

// HasMath reports whether the token carries a math subtree.
func (t Token) HasMath() bool { return t.Math != doc.NoNode }

// Phrase is a constituent of the phrase-structure tree. Preterminals
// carry the index of their token; internal phrases have Token == -1.
// First and Last delimit the covered tokens, inclusive.
type Phrase struct {
	Label    string
	Children []*Phrase
	Token    int
	First    int
	Last     int
}

// IsPreterminal reports whether p is the POS node directly above a token.
func (p *Phrase) IsPreterminal() bool { return p.Token >= 0 }

// Len returns the number of covered tokens.
func (p *Phrase) Len() int { return p.Last - p.First + 1 }

// Walk visits p and its descendants in pre-order.
func (p *Phrase) Walk(fn func(*Phrase)) {
	fn(p)
	for _, c := range p.Children {
		c.Walk(fn)
	}
}

// Sentence is a parsed sentence over a DNM range.
type Sentence struct {
	Range  dnm.Range
	Tokens []Token
	Tree   *Phrase
}

// Text returns the sentence's DNM text.
func (s *Sentence) Text() string { return s.Range.Text() }

// PhrasesAt returns the constituents whose span starts at token i, outermost
// first.
func (s *Sentence) PhrasesAt(i int) []*Phrase {
	if s.Tree == nil {
		return nil
	}
	var out []*Phrase
	s.Tree.Walk(func(p *Phrase) {
		if p.First == i && p.Last >= p.First {
			out = append(out, p)
		}
	})
	return out
}

// AnnotatedToken is a token as reported by a parser backend. Begin and End
// are byte offsets relative to the sentence text.
type AnnotatedToken struct {
	Text  string
	Lemma string
	POS   string
	Begin int
	End   int
}

// Annotation is the backend-neutral parse of one sentence. Tree is a Penn
// Treebank bracketing whose leaves are the tokens in order; an empty Tree
// yields a flat ROOT over the tokens.
type Annotation struct {
	Tokens []AnnotatedToken
	Tree   string
}

// Assemble anchors an annotation in the DNM range it was produced from.
func Assemble(r dnm.Range, ann Annotation) (*Sentence, error) {
	s := &Sentence{Range: r, Tokens: make([]Token, 0, len(ann.Tokens))}

	for i, at := range ann.Tokens {
		tr, err := r.Sub(at.Begin, at.End)
		if err != nil {
			return nil, fmt.Errorf("token %d %q: %w", i, at.Text, err)
		}
		s.Tokens = append(s.Tokens, Token{
			Text:  at.Text,
			Lemma: at.Lemma,
			POS:   at.POS,
			Range: tr,
			Math:  mathOf(tr),
		})
	}

	if ann.Tree == "" {
		s.Tree = flatTree(s.Tokens)
		return s, nil
	}
	tree, err := ParseTree(ann.Tree)
	if err != nil {
		return nil, err
	}
	if n := index(tree, 0); n != len(s.Tokens) {
		return nil, fmt.Errorf("parse tree has %d leaves, sentence has %d tokens", n, len(s.Tokens))
	}
	s.Tree = tree
	return s, nil
}

// mathOf finds the math element a token range was produced from.
func mathOf(r dnm.Range) doc.NodeID {
	d := r.DNM()
	if d == nil || r.IsEmpty() {
		return doc.NoNode
	}
	t := d.Tree()
	for _, u := range r.Units() {
		if m := t.Ancestor(u, "math"); m != doc.NoNode {
			return m
		}
		if !t.IsText(u) {
			if m := t.Find(u, "math"); m != doc.NoNode {
				return m
			}
		}
	}
	return doc.NoNode
}

func flatTree(tokens []Token) *Phrase {
	root := &Phrase{Label: "ROOT", Token: -1, First: 0, Last: len(tokens) - 1}
	for i, tok := range tokens {
		root.Children = append(root.Children, &Phrase{Label: tok.POS, Token: i, First: i, Last: i})
	}
	return root
}

// index assigns token indices to preterminals left to right, fills in
// spans, and returns the next free index.
func index(p *Phrase, next int) int {
	if p.IsPreterminal() {
		p.Token, p.First, p.Last = next, next, next
		return next + 1
	}
	p.First = next
	for _, c := range p.Children {
		next = index(c, next)
	}
	p.Last = next - 1
	return next
}
