// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package nlp provides linguistic parser backends. A backend annotates the
// text of one DNM sentence range with tokens, lemmas, POS tags and a phrase
// tree; the result is anchored back into the DNM by sentence.Assemble.
package nlp

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/pdiddy/mathspan/internal/container"
	"github.com/pdiddy/mathspan/internal/dnm"
	"github.com/pdiddy/mathspan/internal/sentence"
	"github.com/pdiddy/mathspan/pkg/types"
)

// Parser turns a sentence range into a parsed sentence.
type Parser interface {
	Parse(ctx context.Context, r dnm.Range) (*sentence.Sentence, error)
}

// Annotator produces a backend-neutral annotation of sentence text.
type Annotator interface {
	Annotate(ctx context.Context, text string) (sentence.Annotation, error)
}

// parse runs an annotator over r and assembles the sentence.
func parse(ctx context.Context, a Annotator, r dnm.Range) (*sentence.Sentence, error) {
	ann, err := a.Annotate(ctx, r.Text())
	if err != nil {
		return nil, err
	}
	s, err := sentence.Assemble(r, ann)
	if err != nil {
		return nil, fmt.Errorf("assembling sentence: %w", err)
	}
	return s, nil
}

// New builds the parser selected by cfg.Backend.
func New(cfg types.ParserConfig, log zerolog.Logger) (Parser, error) {
	switch cfg.Backend {
	case types.ParserCoreNLP, "":
		return NewCoreNLP(cfg, log), nil
	case types.ParserContainer:
		rt, err := container.DetectRuntime()
		if err != nil {
			return nil, err
		}
		return NewContainer(rt, cfg.Image)
	case types.ParserPlain:
		return Plain{}, nil
	default:
		return nil, fmt.Errorf("unknown parser backend %q (want corenlp, container or plain)", cfg.Backend)
	}
}
