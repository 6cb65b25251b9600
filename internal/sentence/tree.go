// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sentence

import (
	"fmt"
	"strings"
	"unicode"
)

// ParseTree reads a Penn Treebank bracketing such as
// "(ROOT (S (VP (VB Let) (NP (NN x)))))". Preterminals get Token set to a
// non-negative placeholder; Assemble renumbers them in leaf order.
func ParseTree(s string) (*Phrase, error) {
	p := &treeParser{toks: lexTree(s)}
	if len(p.toks) == 0 {
		return nil, fmt.Errorf("parse tree: empty input")
	}
	root, err := p.node()
	if err != nil {
		return nil, err
	}
	if p.pos != len(p.toks) {
		return nil, fmt.Errorf("parse tree: trailing input at token %d", p.pos)
	}
	if root.Label == "" {
		root.Label = "ROOT"
	}
	index(root, 0)
	return root, nil
}

type treeParser struct {
	toks []string
	pos  int
}

func (p *treeParser) peek() string {
	if p.pos < len(p.toks) {
		return p.toks[p.pos]
	}
	return ""
}

func (p *treeParser) node() (*Phrase, error) {
	if p.peek() != "(" {
		return nil, fmt.Errorf("parse tree: expected '(' at token %d", p.pos)
	}
	p.pos++

	ph := &Phrase{Token: -1}
	if t := p.peek(); t != "(" && t != ")" && t != "" {
		ph.Label = t
		p.pos++
	}

	for {
		switch t := p.peek(); t {
		case "":
			return nil, fmt.Errorf("parse tree: unbalanced brackets")
		case ")":
			p.pos++
			if ph.Token < 0 && len(ph.Children) == 0 {
				return nil, fmt.Errorf("parse tree: empty constituent %q", ph.Label)
			}
			return ph, nil
		case "(":
			if ph.Token >= 0 {
				return nil, fmt.Errorf("parse tree: preterminal %q has children", ph.Label)
			}
			c, err := p.node()
			if err != nil {
				return nil, err
			}
			ph.Children = append(ph.Children, c)
		default:
			if ph.Token >= 0 || len(ph.Children) > 0 {
				return nil, fmt.Errorf("parse tree: unexpected word %q under %q", t, ph.Label)
			}
			ph.Token = 0
			p.pos++
		}
	}
}

func lexTree(s string) []string {
	var toks []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			toks = append(toks, cur.String())
			cur.Reset()
		}
	}
	for _, r := range s {
		switch {
		case r == '(' || r == ')':
			flush()
			toks = append(toks, string(r))
		case unicode.IsSpace(r):
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return toks
}

// String renders the phrase back as a bracketing. Preterminals render as
// (POS #i) since words are not stored in the tree.
func (p *Phrase) String() string {
	var b strings.Builder
	p.write(&b)
	return b.String()
}

func (p *Phrase) write(b *strings.Builder) {
	b.WriteByte('(')
	b.WriteString(p.Label)
	if p.IsPreterminal() {
		fmt.Fprintf(b, " #%d)", p.Token)
		return
	}
	for _, c := range p.Children {
		b.WriteByte(' ')
		c.write(b)
	}
	b.WriteByte(')')
}
