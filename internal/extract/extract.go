// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract finds declarations of mathematical identifiers in
// documents. Each document is linearized into a DNM, split into sentences,
// parsed, and matched against a pattern; captured math nodes are reported
// as locations in the document tree.
package extract

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/pdiddy/mathspan/internal/dnm"
	"github.com/pdiddy/mathspan/internal/doc"
	"github.com/pdiddy/mathspan/internal/nlp"
	"github.com/pdiddy/mathspan/internal/pattern"
	"github.com/pdiddy/mathspan/internal/sentence"
	"github.com/pdiddy/mathspan/pkg/types"
)

const (
	defaultPattern = "declaration"
	defaultCapture = "identifier"
)

// Extractor runs one pattern over documents. It holds no per-document
// state and may be shared between goroutines if its Parser may.
type Extractor struct {
	parser   nlp.Parser
	patterns *pattern.File
	cfg      types.ExtractionConfig
	sentCfg  dnm.Config
	altCfg   dnm.Config
	log      zerolog.Logger
}

// New returns an Extractor matching cfg.Pattern (default "declaration") and
// reporting math markers named cfg.Capture (default "identifier").
func New(parser nlp.Parser, patterns *pattern.File, cfg types.ExtractionConfig, log zerolog.Logger) (*Extractor, error) {
	if parser == nil {
		return nil, fmt.Errorf("extractor needs a parser")
	}
	if patterns == nil {
		return nil, fmt.Errorf("extractor needs a pattern file")
	}
	if cfg.Pattern == "" {
		cfg.Pattern = defaultPattern
	}
	if cfg.Capture == "" {
		cfg.Capture = defaultCapture
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if _, ok := patterns.Pattern(cfg.Pattern); !ok {
		return nil, &pattern.UnknownPatternError{Name: cfg.Pattern}
	}

	sentCfg, err := dnmConfig(cfg.SentenceDNM, SentenceDNMConfig())
	if err != nil {
		return nil, fmt.Errorf("sentence %w", err)
	}
	altCfg, err := dnmConfig(cfg.AlternateDNM, AlternateDNMConfig())
	if err != nil {
		return nil, fmt.Errorf("alternate %w", err)
	}
	// Sentences are anchored through the back-mapping.
	sentCfg.BackMapping = true

	return &Extractor{
		parser:   parser,
		patterns: patterns,
		cfg:      cfg,
		sentCfg:  sentCfg,
		altCfg:   altCfg,
		log:      log,
	}, nil
}

// ExtractFile loads an HTML document and extracts it. The document ID is
// the file name without extension.
func (e *Extractor) ExtractFile(ctx context.Context, path string) (*types.DocumentResult, error) {
	tree, err := doc.LoadFile(path)
	if err != nil {
		return nil, err
	}
	res, err := e.ExtractDocument(ctx, DocumentID(path), tree)
	if err != nil {
		return nil, err
	}
	res.Path = path
	return res, nil
}

// ExtractDocument matches every sentence of tree and returns the located
// math markers in document order. Sentences the parser rejects are logged,
// counted and skipped. Only context cancellation fails the document.
func (e *Extractor) ExtractDocument(ctx context.Context, id string, tree *doc.Tree) (*types.DocumentResult, error) {
	res := &types.DocumentResult{DocumentID: id, Locations: []types.Location{}}
	if tree == nil || tree.Len() == 0 {
		return res, nil
	}

	log := e.log.With().Str("document", id).Logger()
	d := dnm.Build(tree, tree.Root(), e.sentCfg)

	// The alternate DNM is only needed once something is located.
	var alt *dnm.DNM

	for i, r := range sentence.Split(d.FullRange()) {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("extracting %s: %w", id, err)
		}
		res.Sentences++

		s, err := e.parser.Parse(ctx, r)
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("extracting %s: %w", id, ctx.Err())
			}
			log.Warn().Err(err).Int("sentence", i).Msg("parse failed, skipping sentence")
			res.FailedSentences++
			continue
		}

		matches, err := pattern.Match(e.patterns, e.cfg.Pattern, s)
		if err != nil {
			return nil, fmt.Errorf("matching %s: %w", id, err)
		}
		res.Matches += len(matches)

		for _, m := range matches {
			for _, mk := range m.Markers {
				switch mk := mk.(type) {
				case *pattern.TextMarker:
					// Text captures describe the declaration but are not located.
				case *pattern.MathMarker:
					if mk.Name != e.cfg.Capture {
						continue
					}
					if alt == nil {
						alt = dnm.Build(tree, tree.Root(), e.altCfg)
					}
					loc := locate(id, alt, s, i, m, mk)
					log.Debug().
						Str("marker", pattern.MarkerString(mk)).
						Str("xpath", loc.XPath).
						Msg("located")
					res.Locations = append(res.Locations, loc)
				}
			}
		}
	}
	return res, nil
}

// locate resolves a math marker against the print-oriented DNM.
func locate(id string, alt *dnm.DNM, s *sentence.Sentence, index int, m pattern.Result, mk *pattern.MathMarker) types.Location {
	return types.Location{
		DocumentID:    id,
		XPath:         alt.Tree().Path(mk.Node),
		Marker:        mk.Name,
		Tags:          mk.Tags,
		Text:          alt.SerializeNode(mk.Node, dnm.SerializeDNM),
		MathML:        alt.SerializeNode(mk.Node, dnm.SerializeMath),
		Sentence:      s.Text(),
		SentenceIndex: index,
		Pattern:       m.Pattern,
		Branch:        m.Branch,
	}
}

// DocumentID derives a document ID from a file path.
func DocumentID(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// documentExts lists the extensions picked up when a directory is given.
var documentExts = map[string]bool{
	".html":  true,
	".htm":   true,
	".xhtml": true,
}

// CollectDocuments expands directories in paths into the HTML documents
// they contain (non-recursive, sorted by name). Files are kept as given.
func CollectDocuments(paths []string) ([]string, error) {
	var out []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", p, err)
		}
		if !info.IsDir() {
			out = append(out, p)
			continue
		}
		entries, err := os.ReadDir(p)
		if err != nil {
			return nil, fmt.Errorf("reading directory %s: %w", p, err)
		}
		for _, entry := range entries {
			if entry.IsDir() || !documentExts[strings.ToLower(filepath.Ext(entry.Name()))] {
				continue
			}
			out = append(out, filepath.Join(p, entry.Name()))
		}
	}
	return out, nil
}
