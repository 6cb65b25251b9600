// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pattern

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strconv"
	"strings"
)

// Format selects the on-disk pattern syntax.
type Format int

const (
	FormatXML Format = iota
	FormatYAML
)

// FormatFor picks a format from a file extension. Anything other than
// .yaml or .yml is read as XML.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatXML
	}
}

// Load reads and resolves the pattern file at path.
func Load(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &PatternLoadError{Path: path, Err: err}
	}
	defer f.Close()

	pf, err := Parse(f, FormatFor(path))
	if err != nil {
		var le *PatternLoadError
		if errors.As(err, &le) {
			le.Path = path
		}
		return nil, err
	}
	return pf, nil
}

// Parse reads a pattern file from r. Errors are *PatternLoadError.
func Parse(r io.Reader, format Format) (*File, error) {
	var (
		root rawElem
		err  error
	)
	switch format {
	case FormatYAML:
		root, err = decodeYAML(r)
	default:
		root, err = decodeXML(r)
	}
	if err != nil {
		return nil, &PatternLoadError{Err: err}
	}
	f, err := resolve(root)
	if err != nil {
		return nil, &PatternLoadError{Err: err}
	}
	return f, nil
}

// rawElem is the syntax-neutral form both formats decode into.
type rawElem struct {
	Name     string
	Attrs    map[string]string
	Children []rawElem
}

func (e rawElem) attr(key string) string { return e.Attrs[key] }

// allowedAttrs lists the attributes each element accepts. Anything else is
// a load error.
var allowedAttrs = map[string][]string{
	"patterns": nil,
	"rule":     {"name"},
	"pattern":  {"name"},
	"branch":   nil,
	"ref":      {"rule"},
	"word":     {"text", "lemma", "pos", "capture", "tags"},
	"gap":      {"min", "max", "capture", "tags"},
	"phrase":   {"label", "order", "capture", "tags"},
	"math":     {"capture", "tags"},
	"node":     {"tag", "text", "capture", "tags"},
}

// checkAttrs rejects attributes e does not accept.
func checkAttrs(e rawElem) error {
	allowed, ok := allowedAttrs[e.Name]
	if !ok {
		return nil
	}
	var unknown []string
	for k := range e.Attrs {
		if !slices.Contains(allowed, k) {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	sort.Strings(unknown)
	return fmt.Errorf("<%s>: unknown attribute %q", e.Name, unknown[0])
}

type xmlElem struct {
	XMLName  xml.Name
	Attrs    []xml.Attr `xml:",any,attr"`
	Children []xmlElem  `xml:",any"`
}

func decodeXML(r io.Reader) (rawElem, error) {
	var x xmlElem
	if err := xml.NewDecoder(r).Decode(&x); err != nil {
		return rawElem{}, fmt.Errorf("parse xml: %w", err)
	}
	return fromXML(x), nil
}

func fromXML(x xmlElem) rawElem {
	e := rawElem{Name: x.XMLName.Local, Attrs: make(map[string]string, len(x.Attrs))}
	for _, a := range x.Attrs {
		if a.Name.Space == "xmlns" || a.Name.Local == "xmlns" {
			continue
		}
		e.Attrs[a.Name.Local] = a.Value
	}
	for _, c := range x.Children {
		e.Children = append(e.Children, fromXML(c))
	}
	return e
}

// resolver turns the raw tree into a File, inlining rule references.
type resolver struct {
	rules map[string]rawElem
	stack []string
}

func resolve(root rawElem) (*File, error) {
	if root.Name != "patterns" {
		return nil, fmt.Errorf("root element must be <patterns>, got <%s>", root.Name)
	}
	if err := checkAttrs(root); err != nil {
		return nil, err
	}

	rv := &resolver{rules: map[string]rawElem{}}
	for _, e := range root.Children {
		if e.Name != "rule" {
			continue
		}
		if err := checkAttrs(e); err != nil {
			return nil, err
		}
		name := e.attr("name")
		if name == "" {
			return nil, fmt.Errorf("rule without name")
		}
		if _, dup := rv.rules[name]; dup {
			return nil, fmt.Errorf("duplicate rule %q", name)
		}
		rv.rules[name] = e
	}

	f := &File{patterns: map[string]*Definition{}}
	for _, e := range root.Children {
		switch e.Name {
		case "rule":
			// Validate rules even when nothing references them.
			if _, err := rv.constraints(e.Children, false); err != nil {
				return nil, fmt.Errorf("rule %q: %w", e.attr("name"), err)
			}
		case "pattern":
			d, err := rv.definition(e)
			if err != nil {
				return nil, err
			}
			if _, dup := f.patterns[d.Name]; dup {
				return nil, fmt.Errorf("duplicate pattern %q", d.Name)
			}
			f.patterns[d.Name] = d
			f.order = append(f.order, d.Name)
		default:
			return nil, fmt.Errorf("unexpected element <%s> in <patterns>", e.Name)
		}
	}
	return f, nil
}

func (rv *resolver) definition(e rawElem) (*Definition, error) {
	if err := checkAttrs(e); err != nil {
		return nil, err
	}
	name := e.attr("name")
	if name == "" {
		return nil, fmt.Errorf("pattern without name")
	}
	d := &Definition{Name: name}
	for _, be := range e.Children {
		if be.Name != "branch" {
			return nil, fmt.Errorf("pattern %q: unexpected element <%s>", name, be.Name)
		}
		if err := checkAttrs(be); err != nil {
			return nil, fmt.Errorf("pattern %q: %w", name, err)
		}
		cs, err := rv.constraints(be.Children, false)
		if err != nil {
			return nil, fmt.Errorf("pattern %q branch %d: %w", name, len(d.Branches), err)
		}
		if len(cs) == 0 {
			return nil, fmt.Errorf("pattern %q branch %d: no constraints", name, len(d.Branches))
		}
		b := &Branch{Constraints: cs}
		walkCaptures(cs, func(c *Capture) {
			c.Order = len(b.Captures)
			b.Captures = append(b.Captures, c)
		})
		d.Branches = append(d.Branches, b)
	}
	if len(d.Branches) == 0 {
		return nil, fmt.Errorf("pattern %q has no branches", name)
	}
	return d, nil
}

func (rv *resolver) constraints(es []rawElem, anyOrder bool) ([]Constraint, error) {
	var out []Constraint
	for _, e := range es {
		if err := checkAttrs(e); err != nil {
			return nil, err
		}
		if e.Name == "ref" {
			cs, err := rv.ref(e.attr("rule"), anyOrder)
			if err != nil {
				return nil, err
			}
			out = append(out, cs...)
			continue
		}
		c, err := rv.constraint(e, anyOrder)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func (rv *resolver) ref(name string, anyOrder bool) ([]Constraint, error) {
	rule, ok := rv.rules[name]
	if !ok {
		return nil, fmt.Errorf("reference to unknown rule %q", name)
	}
	for i, s := range rv.stack {
		if s == name {
			cycle := append(append([]string{}, rv.stack[i:]...), name)
			return nil, fmt.Errorf("rule reference cycle: %s", strings.Join(cycle, " -> "))
		}
	}
	rv.stack = append(rv.stack, name)
	defer func() { rv.stack = rv.stack[:len(rv.stack)-1] }()

	cs, err := rv.constraints(rule.Children, anyOrder)
	if err != nil {
		return nil, fmt.Errorf("rule %q: %w", name, err)
	}
	return cs, nil
}

func (rv *resolver) constraint(e rawElem, anyOrder bool) (Constraint, error) {
	cp := captureOf(e)
	switch e.Name {
	case "word":
		if len(e.Children) > 0 {
			return nil, fmt.Errorf("<word> takes no children")
		}
		return &Word{
			Text:    ParseSet(e.attr("text"), true),
			Lemma:   ParseSet(e.attr("lemma"), true),
			POS:     ParseSet(e.attr("pos"), false),
			Capture: cp,
		}, nil

	case "gap":
		if anyOrder {
			return nil, fmt.Errorf("<gap> is not allowed in an any-order phrase")
		}
		g := &Gap{Min: 0, Max: -1, Capture: cp}
		var err error
		if v := e.attr("min"); v != "" {
			if g.Min, err = strconv.Atoi(v); err != nil || g.Min < 0 {
				return nil, fmt.Errorf("<gap> min %q: must be a non-negative integer", v)
			}
		}
		if v := e.attr("max"); v != "" {
			if g.Max, err = strconv.Atoi(v); err != nil {
				return nil, fmt.Errorf("<gap> max %q: must be an integer", v)
			}
		}
		if g.Max >= 0 && g.Max < g.Min {
			return nil, fmt.Errorf("<gap> max %d below min %d", g.Max, g.Min)
		}
		return g, nil

	case "phrase":
		p := &Phrase{Labels: ParseSet(e.attr("label"), false), Capture: cp}
		switch e.attr("order") {
		case "", "ordered":
		case "any":
			p.AnyOrder = true
		default:
			return nil, fmt.Errorf("<phrase> order %q: want ordered or any", e.attr("order"))
		}
		cs, err := rv.constraints(e.Children, p.AnyOrder)
		if err != nil {
			return nil, err
		}
		p.Children = cs
		return p, nil

	case "math":
		m := &Math{Capture: cp}
		switch len(e.Children) {
		case 0:
		case 1:
			n, err := mathNode(e.Children[0])
			if err != nil {
				return nil, err
			}
			m.Node = n
		default:
			return nil, fmt.Errorf("<math> takes at most one <node>")
		}
		return m, nil

	default:
		return nil, fmt.Errorf("unknown constraint <%s>", e.Name)
	}
}

func mathNode(e rawElem) (*MathNode, error) {
	if e.Name != "node" {
		return nil, fmt.Errorf("unexpected element <%s> in math shape", e.Name)
	}
	if err := checkAttrs(e); err != nil {
		return nil, err
	}
	n := &MathNode{
		Tags:    ParseSet(e.attr("tag"), false),
		Text:    ParseSet(e.attr("text"), false),
		Capture: captureOf(e),
	}
	for _, ce := range e.Children {
		c, err := mathNode(ce)
		if err != nil {
			return nil, err
		}
		n.Children = append(n.Children, c)
	}
	return n, nil
}

func captureOf(e rawElem) *Capture {
	name := e.attr("capture")
	if name == "" {
		return nil
	}
	c := &Capture{Name: name}
	for _, t := range strings.Split(e.attr("tags"), ",") {
		if t = strings.TrimSpace(t); t != "" {
			c.Tags = append(c.Tags, t)
		}
	}
	return c
}
