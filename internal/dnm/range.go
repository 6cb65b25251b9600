// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dnm

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/pdiddy/mathspan/internal/doc"
)

// Range is a span [Start, End) over a DNM's text. It does not own the DNM.
type Range struct {
	dnm        *DNM
	Start, End int
}

// DNM returns the owning DNM, or nil for the zero Range.
func (r Range) DNM() *DNM { return r.dnm }

// Len returns End-Start.
func (r Range) Len() int { return r.End - r.Start }

// IsEmpty reports whether the range covers no text.
func (r Range) IsEmpty() bool { return r.End <= r.Start }

// Text returns the exact substring of the DNM text.
func (r Range) Text() string {
	if r.dnm == nil {
		return ""
	}
	return r.dnm.text[r.Start:r.End]
}

func (r Range) String() string { return r.Text() }

// Sub returns the range [start, end) relative to r.
func (r Range) Sub(start, end int) (Range, error) {
	if r.dnm == nil {
		return Range{}, nil
	}
	if start < 0 || start > end || end > r.Len() {
		return Range{}, fmt.Errorf("sub-range [%d,%d) out of bounds for range of length %d", start, end, r.Len())
	}
	return Range{dnm: r.dnm, Start: r.Start + start, End: r.Start + end}, nil
}

// Trim shrinks the range to exclude leading and trailing whitespace.
func (r Range) Trim() Range {
	if r.dnm == nil {
		return r
	}
	text := r.dnm.text
	start, end := r.Start, r.End
	for start < end {
		c, size := utf8.DecodeRuneInString(text[start:end])
		if !unicode.IsSpace(c) {
			break
		}
		start += size
	}
	for end > start {
		c, size := utf8.DecodeLastRuneInString(text[start:end])
		if !unicode.IsSpace(c) {
			break
		}
		end -= size
	}
	return Range{dnm: r.dnm, Start: start, End: end}
}

// Node returns the innermost node fully covering the range, or doc.NoNode
// when the range straddles several policy units.
func (r Range) Node() doc.NodeID {
	if r.dnm == nil {
		return doc.NoNode
	}
	return r.dnm.NodeAt(r.Start, r.End)
}

// Units returns the nodes whose recorded contributions intersect the
// range, in text order.
func (r Range) Units() []doc.NodeID {
	if r.dnm == nil {
		return nil
	}
	es := r.dnm.overlapping(r.Start, r.End)
	out := make([]doc.NodeID, len(es))
	for i, e := range es {
		out[i] = e.node
	}
	return out
}

// Serialize renders the range. SerializeDNM returns Text; the other modes
// re-derive the text from the underlying nodes and ignore the DNM's
// policies.
func (r Range) Serialize(mode SerializeMode) string {
	if mode == SerializeDNM || r.dnm == nil {
		return r.Text()
	}
	var b strings.Builder
	for _, e := range r.dnm.overlapping(r.Start, r.End) {
		b.WriteString(r.dnm.SerializeNode(e.node, mode))
	}
	return b.String()
}
