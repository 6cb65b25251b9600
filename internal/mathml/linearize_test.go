// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package mathml

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/mathspan/internal/doc"
)

func TestLinearize(t *testing.T) {
	tests := []struct {
		name  string
		build func(b *doc.Builder) doc.NodeID
		want  string
	}{
		{
			name: "identifier",
			build: func(b *doc.Builder) doc.NodeID {
				mi := b.Element(doc.NoNode, "mi")
				b.Text(mi, "x")
				return mi
			},
			want: "<mi>x</mi>",
		},
		{
			name: "semantics transparent and annotation dropped",
			build: func(b *doc.Builder) doc.NodeID {
				sem := b.Element(doc.NoNode, "semantics")
				mi := b.Element(sem, "mi")
				b.Text(mi, "x")
				ann := b.Element(sem, "annotation")
				b.Text(ann, "ignored")
				return sem
			},
			want: "<mi>x</mi>",
		},
		{
			name: "annotation-xml dropped",
			build: func(b *doc.Builder) doc.NodeID {
				m := b.Element(doc.NoNode, "math")
				sem := b.Element(m, "semantics")
				row := b.Element(sem, "mrow")
				mi := b.Element(row, "mi")
				b.Text(mi, "f")
				mo := b.Element(row, "mo")
				b.Text(mo, "<")
				ax := b.Element(sem, "annotation-xml")
				ci := b.Element(ax, "ci")
				b.Text(ci, "f")
				return m
			},
			want: "<math><mrow><mi>f</mi><mo><</mo></mrow></math>",
		},
		{
			name: "text leaf verbatim",
			build: func(b *doc.Builder) doc.NodeID {
				p := b.Element(doc.NoNode, "p")
				return b.Text(p, "  a & b ")
			},
			want: "  a & b ",
		},
		{
			name: "empty element",
			build: func(b *doc.Builder) doc.NodeID {
				return b.Element(doc.NoNode, "mspace")
			},
			want: "<mspace></mspace>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := doc.NewBuilder()
			id := tt.build(b)
			assert.Equal(t, tt.want, Linearize(b.Tree(), id))
		})
	}
}

func TestLinearize_InvalidNode(t *testing.T) {
	tree := doc.NewBuilder().Tree()
	assert.Equal(t, "", Linearize(tree, doc.NodeID(3)))
	assert.Equal(t, "", Linearize(tree, doc.NoNode))
}

func TestLinearize_ParsedDocument(t *testing.T) {
	tree, err := doc.Parse(strings.NewReader(
		`<p><math><semantics><msup><mi>x</mi><mn>2</mn></msup><annotation encoding="application/x-tex">x^2</annotation></semantics></math></p>`))
	require.NoError(t, err)

	m := tree.Find(tree.Root(), "math")
	require.NotEqual(t, doc.NoNode, m)
	assert.Equal(t, "<math><msup><mi>x</mi><mn>2</mn></msup></math>", Linearize(tree, m))
}
