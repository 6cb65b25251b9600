// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package doc

import (
	"fmt"
	"strings"
)

// Path returns an XPath-like locator for id, e.g.
// /html[1]/body[1]/p[2]/math[1]/semantics[1]/mi[1]. Positions count
// same-named siblings from 1; text leaves appear as text()[n].
func (t *Tree) Path(id NodeID) string {
	if !t.Valid(id) {
		return ""
	}
	var segs []string
	for n := id; n != NoNode; n = t.nodes[n].parent {
		segs = append(segs, t.segment(n))
	}
	var b strings.Builder
	for i := len(segs) - 1; i >= 0; i-- {
		b.WriteByte('/')
		b.WriteString(segs[i])
	}
	return b.String()
}

func (t *Tree) segment(id NodeID) string {
	n := t.nodes[id]
	name := n.tag
	if n.kind == TextNode {
		name = "text()"
	}
	pos := 1
	if n.parent != NoNode {
		for _, sib := range t.nodes[n.parent].children {
			if sib == id {
				break
			}
			s := t.nodes[sib]
			if s.kind == n.kind && s.tag == n.tag {
				pos++
			}
		}
	}
	return fmt.Sprintf("%s[%d]", name, pos)
}
