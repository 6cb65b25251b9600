// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package mathml flattens MathML subtrees into bracket-tagged text.
package mathml

import (
	"strings"

	"github.com/pdiddy/mathspan/internal/doc"
)

// Linearize renders the subtree at id as a flat string that keeps its
// topology: <mi>x</mi> stays <mi>x</mi>, semantics wrappers are
// transparent and annotation children are dropped. Text is copied
// verbatim, without escaping. Linearize never fails; an invalid id yields "".
func Linearize(t *doc.Tree, id doc.NodeID) string {
	if !t.Valid(id) {
		return ""
	}
	var b strings.Builder
	linearize(t, id, &b)
	return b.String()
}

func linearize(t *doc.Tree, id doc.NodeID, b *strings.Builder) {
	if t.IsText(id) {
		b.WriteString(t.Text(id))
		return
	}
	tag := t.Tag(id)
	switch tag {
	case "semantics":
		children(t, id, b)
	case "annotation", "annotation-xml":
	default:
		b.WriteByte('<')
		b.WriteString(tag)
		b.WriteByte('>')
		children(t, id, b)
		b.WriteString("</")
		b.WriteString(tag)
		b.WriteByte('>')
	}
}

func children(t *doc.Tree, id doc.NodeID, b *strings.Builder) {
	for _, c := range t.Children(id) {
		linearize(t, c, b)
	}
}

// IsAnnotation reports whether id is an alternate-encoding wrapper that
// linearization skips.
func IsAnnotation(t *doc.Tree, id doc.NodeID) bool {
	if t.IsText(id) {
		return false
	}
	tag := t.Tag(id)
	return tag == "annotation" || tag == "annotation-xml"
}
