// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pattern

import "fmt"

// PatternLoadError reports a pattern file that could not be read, parsed
// or resolved.
type PatternLoadError struct {
	Path string
	Err  error
}

func (e *PatternLoadError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("loading patterns: %v", e.Err)
	}
	return fmt.Sprintf("loading patterns %s: %v", e.Path, e.Err)
}

func (e *PatternLoadError) Unwrap() error { return e.Err }

// UnknownPatternError reports a pattern name absent from a File.
type UnknownPatternError struct {
	Name string
}

func (e *UnknownPatternError) Error() string {
	return fmt.Sprintf("unknown pattern %q", e.Name)
}
