// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pattern

import (
	"fmt"
	"strings"

	"github.com/pdiddy/mathspan/internal/dnm"
	"github.com/pdiddy/mathspan/internal/doc"
)

// Marker is a capture reported by a match: a *TextMarker or a *MathMarker.
type Marker interface {
	MarkerName() string
	MarkerTags() []string
	order() int
	key() string
}

// TextMarker captures a run of tokens.
type TextMarker struct {
	Name string
	Tags []string
	// Range covers the captured tokens in the sentence DNM.
	Range dnm.Range
	// FirstToken and LastToken are inclusive token indices. An empty
	// capture has LastToken == FirstToken-1.
	FirstToken int
	LastToken  int
	capture    int
}

// MathMarker captures one element of a formula.
type MathMarker struct {
	Name    string
	Tags    []string
	Node    doc.NodeID
	Token   int
	capture int
}

func (m *TextMarker) MarkerName() string   { return m.Name }
func (m *TextMarker) MarkerTags() []string { return m.Tags }
func (m *TextMarker) order() int           { return m.capture }
func (m *TextMarker) key() string {
	return fmt.Sprintf("t%d:%d-%d", m.capture, m.FirstToken, m.LastToken)
}

func (m *MathMarker) MarkerName() string   { return m.Name }
func (m *MathMarker) MarkerTags() []string { return m.Tags }
func (m *MathMarker) order() int           { return m.capture }
func (m *MathMarker) key() string {
	return fmt.Sprintf("m%d:%d@%d", m.capture, m.Node, m.Token)
}

// Result is one way a pattern branch matched a sentence. Start and End
// delimit the consumed tokens, End exclusive.
type Result struct {
	Pattern string
	Branch  int
	Start   int
	End     int
	Markers []Marker
}

// MathMarkers returns the math markers called name.
func (m Result) MathMarkers(name string) []*MathMarker {
	var out []*MathMarker
	for _, mk := range m.Markers {
		if mm, ok := mk.(*MathMarker); ok && mm.Name == name {
			out = append(out, mm)
		}
	}
	return out
}

// MarkerString renders a marker as name {'tag1', 'tag2'}.
func MarkerString(m Marker) string {
	tags := make([]string, len(m.MarkerTags()))
	for i, t := range m.MarkerTags() {
		tags[i] = "'" + t + "'"
	}
	return fmt.Sprintf("%s {%s}", m.MarkerName(), strings.Join(tags, ", "))
}
