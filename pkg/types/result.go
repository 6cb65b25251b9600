// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Location is one extracted math marker resolved back to the document.
type Location struct {
	// DocumentID identifies the source document (file name without extension).
	DocumentID string `json:"document_id" yaml:"document_id"`

	// XPath is the locator of the marked node, e.g.
	// "/html[1]/body[1]/p[2]/math[1]/semantics[1]/mi[1]".
	XPath string `json:"xpath" yaml:"xpath"`

	// Marker is the capture name (e.g. "identifier").
	Marker string `json:"marker" yaml:"marker"`

	// Tags are the capture's tags.
	Tags []string `json:"tags,omitempty" yaml:"tags,omitempty"`

	// Text is the node rendered by the print-oriented DNM.
	Text string `json:"text" yaml:"text"`

	// MathML is the linearized MathML of the node.
	MathML string `json:"mathml,omitempty" yaml:"mathml,omitempty"`

	// Sentence is the sentence text the match was found in.
	Sentence string `json:"sentence" yaml:"sentence"`

	// SentenceIndex is the zero-based position of the sentence in the document.
	SentenceIndex int `json:"sentence_index" yaml:"sentence_index"`

	// Pattern and Branch identify the match that produced the location.
	Pattern string `json:"pattern" yaml:"pattern"`
	Branch  int    `json:"branch" yaml:"branch"`
}

// String returns the XPath-like locator.
func (l Location) String() string { return l.XPath }

// DocumentResult holds the output of extracting one document.
type DocumentResult struct {
	// DocumentID identifies the source document.
	DocumentID string `json:"document_id" yaml:"document_id"`

	// Path is the source file path, empty for in-memory documents.
	Path string `json:"path,omitempty" yaml:"path,omitempty"`

	// Sentences counts sentences handed to the parser.
	Sentences int `json:"sentences" yaml:"sentences"`

	// FailedSentences counts sentences the parser could not handle.
	FailedSentences int `json:"failed_sentences" yaml:"failed_sentences"`

	// Matches counts pattern matches across all sentences.
	Matches int `json:"matches" yaml:"matches"`

	// Locations lists the extracted locations in document order.
	Locations []Location `json:"locations" yaml:"locations"`

	// Error records why the document failed. Empty on success.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}
