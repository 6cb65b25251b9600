// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// ConversionStatus indicates the state of LaTeX-to-HTML conversion for a
// document.
type ConversionStatus string

const (
	ConversionNone   ConversionStatus = "none"
	ConversionDone   ConversionStatus = "converted"
	ConversionFailed ConversionStatus = "failed"
)

// Document pairs a LaTeX source with the HTML produced from it.
type Document struct {
	// ID is the file name without extension (e.g. "2301.07041").
	ID string `json:"id" yaml:"id"`

	// SourcePath is the LaTeX source file.
	SourcePath string `json:"source_path" yaml:"source_path"`

	// HTMLPath is the converted HTML file.
	HTMLPath string `json:"html_path,omitempty" yaml:"html_path,omitempty"`

	// ConversionStatus tracks whether the source has been converted.
	ConversionStatus ConversionStatus `json:"conversion_status" yaml:"conversion_status"`
}
