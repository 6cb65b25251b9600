// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sentence

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/pdiddy/mathspan/internal/dnm"
)

// abbreviations never end a sentence.
var abbreviations = []string{
	"e.g.", "i.e.", "cf.", "etc.", "resp.", "al.", "Fig.", "Eq.", "Sec.", "Thm.", "Def.", "vs.",
}

// Split cuts r into sentence ranges at '.', '!' or '?' followed by
// whitespace (closing quotes and brackets stay with the sentence).
// Ranges are trimmed; empty ones are dropped.
func Split(r dnm.Range) []dnm.Range {
	text := r.Text()
	var out []dnm.Range
	emit := func(start, end int) {
		s, err := r.Sub(start, end)
		if err != nil {
			return
		}
		if s = s.Trim(); !s.IsEmpty() {
			out = append(out, s)
		}
	}

	start := 0
	for i := 0; i < len(text); {
		c, size := utf8.DecodeRuneInString(text[i:])
		i += size
		if c != '.' && c != '!' && c != '?' {
			continue
		}
		end := i
		for end < len(text) {
			q, qsize := utf8.DecodeRuneInString(text[end:])
			if !strings.ContainsRune(`"')]”’`, q) {
				break
			}
			end += qsize
		}
		if end < len(text) {
			next, _ := utf8.DecodeRuneInString(text[end:])
			if !unicode.IsSpace(next) {
				continue
			}
		}
		if c == '.' && isAbbreviation(text[start:i]) {
			continue
		}
		emit(start, end)
		start, i = end, end
	}
	if start < len(text) {
		emit(start, len(text))
	}
	return out
}

func isAbbreviation(s string) bool {
	for _, a := range abbreviations {
		if strings.HasSuffix(s, a) {
			if len(s) == len(a) {
				return true
			}
			prev, _ := utf8.DecodeLastRuneInString(s[:len(s)-len(a)])
			if unicode.IsSpace(prev) || prev == '(' {
				return true
			}
		}
	}
	return false
}
