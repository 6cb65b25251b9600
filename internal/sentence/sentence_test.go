// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sentence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/mathspan/internal/dnm"
	"github.com/pdiddy/mathspan/internal/doc"
)

func primeDNM(t *testing.T) (*dnm.DNM, doc.NodeID) {
	t.Helper()
	b := doc.NewBuilder()
	p := b.Element(doc.NoNode, "p")
	b.Text(p, "Let ")
	m := b.Element(p, "math")
	mi := b.Element(m, "mi")
	b.Text(mi, "x")
	b.Text(p, " be a prime number.")

	cfg := dnm.DefaultConfig()
	cfg.NamePolicies["math"] = dnm.Normalize("MathFormula")
	d := dnm.Build(b.Tree(), p, cfg)
	require.Equal(t, "Let MathFormula be a prime number.", d.Text())
	return d, m
}

func primeAnnotation() Annotation {
	return Annotation{
		Tokens: []AnnotatedToken{
			{Text: "Let", Lemma: "let", POS: "VB", Begin: 0, End: 3},
			{Text: "MathFormula", Lemma: "MathFormula", POS: "NN", Begin: 4, End: 15},
			{Text: "be", Lemma: "be", POS: "VB", Begin: 16, End: 18},
			{Text: "a", Lemma: "a", POS: "DT", Begin: 19, End: 20},
			{Text: "prime", Lemma: "prime", POS: "JJ", Begin: 21, End: 26},
			{Text: "number", Lemma: "number", POS: "NN", Begin: 27, End: 33},
			{Text: ".", Lemma: ".", POS: ".", Begin: 33, End: 34},
		},
		Tree: `(ROOT (S (VP (VB Let) (S (NP (NN MathFormula)) (VP (VB be) (NP (DT a) (JJ prime) (NN number))))) (. .)))`,
	}
}

func TestAssemble(t *testing.T) {
	d, m := primeDNM(t)
	s, err := Assemble(d.FullRange(), primeAnnotation())
	require.NoError(t, err)

	require.Len(t, s.Tokens, 7)
	assert.Equal(t, "MathFormula", s.Tokens[1].Range.Text())
	assert.Equal(t, m, s.Tokens[1].Math)
	assert.True(t, s.Tokens[1].HasMath())
	assert.False(t, s.Tokens[0].HasMath())
	assert.Equal(t, "Let MathFormula be a prime number.", s.Text())

	require.NotNil(t, s.Tree)
	assert.Equal(t, "ROOT", s.Tree.Label)
	assert.Equal(t, 0, s.Tree.First)
	assert.Equal(t, 6, s.Tree.Last)

	var labels []string
	for _, p := range s.PhrasesAt(1) {
		labels = append(labels, p.Label)
	}
	assert.Equal(t, []string{"S", "NP", "NN"}, labels)

	np := s.PhrasesAt(3)[0]
	assert.Equal(t, "NP", np.Label)
	assert.Equal(t, 3, np.Len())
}

func TestAssemble_FlatTree(t *testing.T) {
	d, _ := primeDNM(t)
	ann := primeAnnotation()
	ann.Tree = ""

	s, err := Assemble(d.FullRange(), ann)
	require.NoError(t, err)
	assert.Equal(t, "ROOT", s.Tree.Label)
	require.Len(t, s.Tree.Children, 7)
	assert.Equal(t, "JJ", s.Tree.Children[4].Label)
	assert.Equal(t, 4, s.Tree.Children[4].Token)
}

func TestAssemble_Errors(t *testing.T) {
	d, _ := primeDNM(t)

	tests := []struct {
		name   string
		mutate func(*Annotation)
	}{
		{name: "offset past end", mutate: func(a *Annotation) { a.Tokens[6].End = 99 }},
		{name: "inverted offsets", mutate: func(a *Annotation) { a.Tokens[0].Begin = 5 }},
		{name: "leaf count mismatch", mutate: func(a *Annotation) { a.Tokens = a.Tokens[:3] }},
		{name: "malformed tree", mutate: func(a *Annotation) { a.Tree = "(ROOT (S" }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ann := primeAnnotation()
			tc.mutate(&ann)
			_, err := Assemble(d.FullRange(), ann)
			assert.Error(t, err)
		})
	}
}

func TestParseTree(t *testing.T) {
	p, err := ParseTree("( (S (NP (PRP It)) (VP (VBZ holds)) (. .)))")
	require.NoError(t, err)
	assert.Equal(t, "(ROOT (S (NP (PRP #0)) (VP (VBZ #1)) (. #2)))", p.String())

	for _, bad := range []string{"", "NP", "(NP (NN x)", "(NP (NN x)))", "(NP)", "(NN x y)", "(NN x (DT a))"} {
		_, err := ParseTree(bad)
		assert.Error(t, err, bad)
	}
}

func TestSplit(t *testing.T) {
	b := doc.NewBuilder()
	p := b.Element(doc.NoNode, "p")
	b.Text(p, "  Let x be prime. It is odd, e.g. three.\n\"Done!\" Trailing")
	d := dnm.Build(b.Tree(), p, dnm.DefaultConfig())

	var got []string
	for _, r := range Split(d.FullRange()) {
		got = append(got, r.Text())
	}
	assert.Equal(t, []string{
		"Let x be prime.",
		"It is odd, e.g. three.",
		`"Done!"`,
		"Trailing",
	}, got)
}

func TestSplit_Empty(t *testing.T) {
	b := doc.NewBuilder()
	p := b.Element(doc.NoNode, "p")
	b.Text(p, "   ")
	d := dnm.Build(b.Tree(), p, dnm.DefaultConfig())
	assert.Empty(t, Split(d.FullRange()))
}
