// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package nlp

import (
	"context"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/pdiddy/mathspan/internal/dnm"
	"github.com/pdiddy/mathspan/internal/sentence"
)

// Plain is an offline tokenizer. Words are maximal runs of letters, digits,
// apostrophes and inner hyphens; every other non-space rune is a token of
// its own. Lemmas are lower-cased words, punctuation is tagged with itself,
// words carry no POS and the tree is flat.
type Plain struct{}

// Parse implements Parser.
func (p Plain) Parse(ctx context.Context, r dnm.Range) (*sentence.Sentence, error) {
	return parse(ctx, p, r)
}

// Annotate tokenizes text.
func (Plain) Annotate(_ context.Context, text string) (sentence.Annotation, error) {
	var ann sentence.Annotation
	for i := 0; i < len(text); {
		c, size := utf8.DecodeRuneInString(text[i:])
		switch {
		case unicode.IsSpace(c):
			i += size
		case isWordRune(c):
			j := i + size
			for j < len(text) {
				n, nsize := utf8.DecodeRuneInString(text[j:])
				if isWordRune(n) || (n == '-' || n == '\'') && j+nsize < len(text) && startsWord(text[j+nsize:]) {
					j += nsize
					continue
				}
				break
			}
			w := text[i:j]
			ann.Tokens = append(ann.Tokens, sentence.AnnotatedToken{Text: w, Lemma: strings.ToLower(w), Begin: i, End: j})
			i = j
		default:
			w := text[i : i+size]
			ann.Tokens = append(ann.Tokens, sentence.AnnotatedToken{Text: w, Lemma: w, POS: w, Begin: i, End: i + size})
			i += size
		}
	}
	return ann, nil
}

func isWordRune(r rune) bool { return unicode.IsLetter(r) || unicode.IsDigit(r) }

func startsWord(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return isWordRune(r)
}
