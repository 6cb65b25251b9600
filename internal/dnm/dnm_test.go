// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dnm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/mathspan/internal/doc"
	"github.com/pdiddy/mathspan/internal/mathml"
	"github.com/pdiddy/mathspan/pkg/types"
)

// sentenceTree builds <p>Let <math><semantics><mi>x</mi><annotation>x</annotation></semantics></math> be prime.</p>.
func sentenceTree() (tree *doc.Tree, p, math, mi doc.NodeID) {
	b := doc.NewBuilder()
	p = b.Element(doc.NoNode, "p")
	b.Text(p, "Let ")
	math = b.Element(p, "math")
	sem := b.Element(math, "semantics")
	mi = b.Element(sem, "mi")
	b.Text(mi, "x")
	ann := b.Element(sem, "annotation")
	b.Text(ann, "x")
	b.Text(p, " be prime.")
	return b.Tree(), p, math, mi
}

func mathConfig() Config {
	cfg := DefaultConfig()
	cfg.NamePolicies["math"] = Normalize("MathFormula")
	return cfg
}

func TestBuild_NormalizeMath(t *testing.T) {
	tree, p, math, _ := sentenceTree()
	d := Build(tree, p, mathConfig())

	assert.Equal(t, "Let MathFormula be prime.", d.Text())

	r, ok := d.RangeOf(math)
	require.True(t, ok)
	assert.Equal(t, "MathFormula", r.Text())
	assert.Equal(t, math, d.NodeAt(r.Start, r.End))
	assert.Equal(t, math, r.Node())

	whole, ok := d.RangeOf(p)
	require.True(t, ok)
	assert.Equal(t, d.FullRange(), whole)
}

func TestBuild_TextFidelity(t *testing.T) {
	tree, p, _, _ := sentenceTree()
	d := Build(tree, p, mathConfig())

	for _, m := range d.Mappings() {
		got := d.Text()[m.Start:m.End]
		if m.Unit {
			assert.Equal(t, "MathFormula", got)
			continue
		}
		// Leaf contributions are the leaf text after whitespace collapsing.
		assert.Equal(t, collapseSpace(tree.Text(m.Node), m.Start == 0), got)
		assert.Equal(t, m.Node, d.NodeAt(m.Start, m.End))
	}
}

func TestBuild_FunctionNormalize(t *testing.T) {
	tree, p, math, _ := sentenceTree()
	cfg := DefaultConfig()
	cfg.NamePolicies["math"] = FunctionNormalize(mathml.Linearize)

	d := Build(tree, p, cfg)
	assert.Equal(t, "Let <math><mi>x</mi></math> be prime.", d.Text())

	r, ok := d.RangeOf(math)
	require.True(t, ok)
	assert.Equal(t, "<math><mi>x</mi></math>", r.Text())
	assert.Equal(t, math, r.Node())
}

func TestBuild_SkipIsolation(t *testing.T) {
	b := doc.NewBuilder()
	div := b.Element(doc.NoNode, "div")
	b.Text(div, "A")
	table := b.Element(div, "table")
	td := b.Element(table, "td")
	hidden := b.Text(td, "hidden")
	b.Text(div, "B")
	tree := b.Tree()

	cfg := DefaultConfig()
	cfg.NamePolicies["table"] = Skip()
	d := Build(tree, div, cfg)

	assert.Equal(t, "AB", d.Text())
	_, ok := d.RangeOf(table)
	assert.False(t, ok)
	_, ok = d.RangeOf(hidden)
	assert.False(t, ok)
	for _, m := range d.Mappings() {
		assert.False(t, tree.IsAncestor(table, m.Node))
		assert.NotEqual(t, table, m.Node)
	}
}

func TestBuild_NamePolicyWinsOverClass(t *testing.T) {
	b := doc.NewBuilder()
	p := b.Element(doc.NoNode, "p")
	span := b.Element(p, "span", doc.Attr{Key: "class", Val: "drop"})
	b.Text(span, "inner")
	tree := b.Tree()

	cfg := DefaultConfig()
	cfg.NamePolicies["span"] = Normalize("Span")
	cfg.ClassPolicies["drop"] = Skip()

	assert.Equal(t, "Span", Build(tree, p, cfg).Text())
}

func TestBuild_FirstClassTokenWins(t *testing.T) {
	b := doc.NewBuilder()
	p := b.Element(doc.NoNode, "p")
	span := b.Element(p, "span", doc.Attr{Key: "class", Val: "alpha beta"})
	b.Text(span, "inner")
	tree := b.Tree()

	cfg := DefaultConfig()
	cfg.ClassPolicies["beta"] = Normalize("Beta")
	cfg.ClassPolicies["alpha"] = Normalize("Alpha")

	assert.Equal(t, "Alpha", Build(tree, p, cfg).Text())
}

func TestBuild_WrapTokens(t *testing.T) {
	b := doc.NewBuilder()
	p := b.Element(doc.NoNode, "p")
	b.Text(p, "a")
	m := b.Element(p, "math")
	b.Text(m, "x")
	b.Text(p, "b")
	tree := b.Tree()

	tests := []struct {
		name string
		wrap bool
		want string
	}{
		{name: "unwrapped", wrap: false, want: "aMathFormulab"},
		{name: "wrapped", wrap: true, want: "a MathFormula b"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := mathConfig()
			cfg.WrapTokens = tc.wrap
			d := Build(tree, p, cfg)
			assert.Equal(t, tc.want, d.Text())

			r, ok := d.RangeOf(m)
			require.True(t, ok)
			assert.Equal(t, "MathFormula", r.Text())
		})
	}
}

func TestBuild_WrapTokensNoDoubleSpace(t *testing.T) {
	tree, p, _, _ := sentenceTree()
	cfg := mathConfig()
	cfg.WrapTokens = true
	assert.Equal(t, "Let MathFormula be prime.", Build(tree, p, cfg).Text())
}

func TestBuild_Whitespace(t *testing.T) {
	b := doc.NewBuilder()
	p := b.Element(doc.NoNode, "p")
	b.Text(p, "  Hello \n\t ")
	em := b.Element(p, "em")
	b.Text(em, "  world  ")
	tree := b.Tree()

	assert.Equal(t, "Hello world ", Build(tree, p, DefaultConfig()).Text())

	raw := DefaultConfig()
	raw.NormalizeWhitespace = false
	assert.Equal(t, "  Hello \n\t   world  ", Build(tree, p, raw).Text())
}

func TestBuild_Unicode(t *testing.T) {
	b := doc.NewBuilder()
	p := b.Element(doc.NoNode, "p")
	b.Text(p, "café ﬁnite")
	tree := b.Tree()

	cfg := DefaultConfig()
	cfg.NormalizeUnicode = true
	assert.Equal(t, "cafe finite", Build(tree, p, cfg).Text())
	assert.Equal(t, "café ﬁnite", Build(tree, p, DefaultConfig()).Text())
}

func TestBuild_UnicodeTransliterates(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"greek", "α β Ω", "a b O"},
		{"dash", "a — b", "a -- b"},
		{"quotes", "“x”", `"x"`},
		{"sharp s", "ß", "ss"},
		{"mixed", "café α — “x” ﬁ ß", `cafe a -- "x" fi ss`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := doc.NewBuilder()
			p := b.Element(doc.NoNode, "p")
			b.Text(p, tt.in)
			tree := b.Tree()

			cfg := DefaultConfig()
			cfg.NormalizeUnicode = true
			d := Build(tree, p, cfg)
			assert.Equal(t, tt.want, d.Text())
			r, ok := d.RangeOf(p)
			require.True(t, ok)
			assert.Equal(t, len(tt.want), r.End)
		})
	}
}

func TestBuild_EmptyLabelRecordsNothing(t *testing.T) {
	tree, p, math, _ := sentenceTree()
	cfg := DefaultConfig()
	cfg.NamePolicies["math"] = Normalize("")

	d := Build(tree, p, cfg)
	assert.Equal(t, "Let be prime.", d.Text())
	_, ok := d.RangeOf(math)
	assert.False(t, ok)
}

func TestBuild_InvalidRoot(t *testing.T) {
	tree, _, _, _ := sentenceTree()
	d := Build(tree, doc.NodeID(999), DefaultConfig())
	assert.Empty(t, d.Text())
	assert.Equal(t, doc.NoNode, d.Root())
}

func TestBuild_ConfigIsCopied(t *testing.T) {
	tree, p, _, _ := sentenceTree()
	cfg := mathConfig()
	d := Build(tree, p, cfg)
	cfg.NamePolicies["math"] = Skip()

	assert.Equal(t, "Let MathFormula be prime.", d.Text())
	assert.Equal(t, PolicyNormalize, d.Config().NamePolicies["math"].Kind())
}

func TestNodeAt_Straddle(t *testing.T) {
	b := doc.NewBuilder()
	p := b.Element(doc.NoNode, "p")
	b.Text(p, "a ")
	m1 := b.Element(p, "math")
	b.Text(m1, "x")
	b.Text(p, " and ")
	m2 := b.Element(p, "math")
	b.Text(m2, "y")
	b.Text(p, " b")
	tree := b.Tree()

	d := Build(tree, p, mathConfig())
	require.Equal(t, "a MathFormula and MathFormula b", d.Text())

	r1, _ := d.RangeOf(m1)
	r2, _ := d.RangeOf(m2)

	assert.Equal(t, doc.NoNode, d.NodeAt(r1.Start, r2.End), "two units")
	assert.Equal(t, p, d.NodeAt(r1.Start, r1.End+4), "one unit plus text")
	assert.Equal(t, m2, d.NodeAt(r2.Start+1, r2.Start+3), "inside a unit")
	assert.Equal(t, doc.NoNode, d.NodeAt(5, 2), "inverted")
	assert.Equal(t, doc.NoNode, d.NodeAt(0, len(d.Text())+1), "past end")
}

func TestNodeAt_WrapSpace(t *testing.T) {
	b := doc.NewBuilder()
	p := b.Element(doc.NoNode, "p")
	b.Text(p, "a")
	b.Element(p, "math")
	b.Text(p, "b")
	tree := b.Tree()

	cfg := DefaultConfig()
	cfg.NamePolicies["math"] = Normalize("M")
	cfg.WrapTokens = true
	d := Build(tree, p, cfg)
	require.Equal(t, "a M b", d.Text())

	assert.Equal(t, p, d.NodeAt(1, 2))
	assert.Equal(t, p, d.NodeAt(3, 4))
}

func TestNodeAt_WrapSpaceInnermost(t *testing.T) {
	b := doc.NewBuilder()
	p := b.Element(doc.NoNode, "p")
	span := b.Element(p, "span")
	b.Text(span, "a")
	b.Element(span, "math")
	b.Text(p, "b")
	tree := b.Tree()

	cfg := DefaultConfig()
	cfg.NamePolicies["math"] = Normalize("M")
	cfg.WrapTokens = true
	d := Build(tree, p, cfg)
	require.Equal(t, "a M b", d.Text())

	assert.Equal(t, span, d.NodeAt(3, 4), "trailing space belongs to span")
	assert.Equal(t, p, d.NodeAt(3, 5))
}

func TestNodeAt_BackMappingOff(t *testing.T) {
	tree, p, _, _ := sentenceTree()
	cfg := mathConfig()
	cfg.BackMapping = false

	d := Build(tree, p, cfg)
	assert.Equal(t, "Let MathFormula be prime.", d.Text())
	assert.Equal(t, doc.NoNode, d.NodeAt(4, 15))
	assert.Empty(t, d.Mappings())
}

func TestSerializeNode(t *testing.T) {
	tree, p, math, mi := sentenceTree()
	d := Build(tree, p, mathConfig())

	assert.Equal(t, "MathFormula", d.SerializeNode(math, SerializeDNM))
	assert.Equal(t, "x", d.SerializeNode(mi, SerializeDNM), "node inside a unit is linearized afresh")
	assert.Equal(t, "Let xx be prime.", d.SerializeNode(p, SerializeRaw))
	assert.Equal(t, "<math><mi>x</mi></math>", d.SerializeNode(math, SerializeMath))
	assert.Empty(t, d.SerializeNode(doc.NodeID(-5), SerializeDNM))
}

func TestRange(t *testing.T) {
	tree, p, _, _ := sentenceTree()
	d := Build(tree, p, mathConfig())

	r, err := d.Range(0, 15)
	require.NoError(t, err)
	assert.Equal(t, "Let MathFormula", r.Text())
	assert.Equal(t, "Let MathFormula", r.String())
	assert.Equal(t, 15, r.Len())
	assert.Same(t, d, r.DNM())

	sub, err := r.Sub(4, 15)
	require.NoError(t, err)
	assert.Equal(t, "MathFormula", sub.Text())
	assert.Equal(t, "<math><mi>x</mi></math>", sub.Serialize(SerializeMath))
	assert.Equal(t, "MathFormula", sub.Serialize(SerializeDNM))

	_, err = r.Sub(3, 16)
	assert.Error(t, err)
	_, err = d.Range(-1, 3)
	assert.Error(t, err)
	_, err = d.Range(0, len(d.Text())+1)
	assert.Error(t, err)

	padded, err := d.Range(3, 16)
	require.NoError(t, err)
	assert.Equal(t, "MathFormula", padded.Trim().Text())

	empty, err := d.Range(4, 4)
	require.NoError(t, err)
	assert.True(t, empty.IsEmpty())

	assert.Empty(t, Range{}.Text())
	assert.Equal(t, doc.NoNode, Range{}.Node())
}

func TestRange_Units(t *testing.T) {
	tree, p, math, _ := sentenceTree()
	d := Build(tree, p, mathConfig())

	units := d.FullRange().Units()
	require.Len(t, units, 3)
	assert.Equal(t, math, units[1])
	assert.True(t, tree.IsText(units[0]))
	assert.True(t, tree.IsText(units[2]))
}

func TestBuild_ParsedHTML(t *testing.T) {
	tree, err := doc.Parse(strings.NewReader(`<html><body><div class="ltx_para"><p>Let <math><semantics><mi>n</mi><annotation-xml>n</annotation-xml></semantics></math> be an integer.</p><table><tr><td>42</td></tr></table></div></body></html>`))
	require.NoError(t, err)

	div := tree.Find(tree.Root(), "div")
	require.NotEqual(t, doc.NoNode, div)

	cfg := mathConfig()
	cfg.NamePolicies["table"] = Skip()
	assert.Equal(t, "Let MathFormula be an integer.", Build(tree, div, cfg).Text())
}

func TestFromSpec(t *testing.T) {
	lin := map[string]Linearizer{"mathml": mathml.Linearize}

	cfg, err := FromSpec(types.DNMConfig{
		NamePolicies: map[string]types.PolicySpec{
			"math":  {Normalize: "MathFormula"},
			"table": {Skip: true},
		},
		ClassPolicies: map[string]types.PolicySpec{
			"ltx_equation": {Function: "mathml"},
		},
		NormalizeWhitespace: true,
		BackMapping:         true,
	}, lin)
	require.NoError(t, err)

	assert.Equal(t, Normalize("MathFormula"), cfg.NamePolicies["math"])
	assert.Equal(t, PolicySkip, cfg.NamePolicies["table"].Kind())
	assert.Equal(t, PolicyFunction, cfg.ClassPolicies["ltx_equation"].Kind())
	assert.True(t, cfg.NormalizeWhitespace)
	assert.True(t, cfg.BackMapping)
	assert.False(t, cfg.WrapTokens)

	tests := []struct {
		name string
		spec types.PolicySpec
	}{
		{name: "empty", spec: types.PolicySpec{}},
		{name: "two set", spec: types.PolicySpec{Skip: true, Normalize: "X"}},
		{name: "unknown function", spec: types.PolicySpec{Function: "nope"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := FromSpec(types.DNMConfig{
				NamePolicies: map[string]types.PolicySpec{"x": tc.spec},
			}, lin)
			assert.Error(t, err)
		})
	}
}

func TestPolicy_String(t *testing.T) {
	assert.Equal(t, "skip", Skip().String())
	assert.Equal(t, `normalize("MathFormula")`, Normalize("MathFormula").String())
	assert.Equal(t, "function", FunctionNormalize(nil).String())
	assert.True(t, Policy{}.IsZero())
}
