// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/sourcegraph/conc/pool"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/mathspan/pkg/types"
)

// ResultSuffix is appended to the document ID to name its result file.
const ResultSuffix = "-declarations.yaml"

// BatchSummary holds counts from a batch extraction run.
type BatchSummary struct {
	Extracted int
	Skipped   int
	Failed    int

	// Results holds the extracted documents in input order. Skipped and
	// failed documents are absent.
	Results []*types.DocumentResult

	// Failures holds one result per failed document, in input order, with
	// Error set and no locations.
	Failures []*types.DocumentResult
}

// Total returns the number of documents processed.
func (s BatchSummary) Total() int {
	return s.Extracted + s.Skipped + s.Failed
}

// HasFailures reports whether any document failed.
func (s BatchSummary) HasFailures() bool {
	return s.Failed > 0
}

type outcomeKind int

const (
	outcomeExtracted outcomeKind = iota
	outcomeSkipped
	outcomeFailed
)

// outcome is what one worker reports for one document.
type outcome struct {
	index  int
	id     string
	kind   outcomeKind
	result *types.DocumentResult
	err    error
}

// ExtractAll extracts every document in paths using up to cfg.Workers
// goroutines. A failing document is counted and reported without stopping
// the batch. When cfg.OutputDir is set, results are written there as
// <id>-declarations.yaml and documents whose result is newer than the
// source are skipped unless cfg.Force is set. Progress lines are written
// to w in input order once the batch completes.
func (e *Extractor) ExtractAll(ctx context.Context, paths []string, w io.Writer) (BatchSummary, error) {
	outDir := e.cfg.OutputDir
	if outDir != "" {
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return BatchSummary{}, fmt.Errorf("creating output directory: %w", err)
		}
	}

	p := pool.NewWithResults[outcome]().WithMaxGoroutines(e.cfg.Workers)
	for i, path := range paths {
		p.Go(func() outcome {
			return e.extractOne(ctx, i, path, outDir)
		})
	}
	outcomes := p.Wait()
	sort.Slice(outcomes, func(a, b int) bool { return outcomes[a].index < outcomes[b].index })

	var summary BatchSummary
	for _, o := range outcomes {
		switch o.kind {
		case outcomeSkipped:
			fmt.Fprintf(w, "skipped %s\n", o.id)
			summary.Skipped++
		case outcomeFailed:
			fmt.Fprintf(w, "failed  %s: %v\n", o.id, o.err)
			summary.Failed++
			summary.Failures = append(summary.Failures, o.result)
		default:
			fmt.Fprintf(w, "extracted %s (%d locations)\n", o.id, len(o.result.Locations))
			summary.Extracted++
			summary.Results = append(summary.Results, o.result)
		}
	}

	fmt.Fprintf(w, "\nBatch summary: %d extracted, %d skipped, %d failed (total: %d)\n",
		summary.Extracted, summary.Skipped, summary.Failed, summary.Total())

	if err := ctx.Err(); err != nil {
		return summary, err
	}
	return summary, nil
}

func (e *Extractor) extractOne(ctx context.Context, index int, path, outDir string) outcome {
	id := DocumentID(path)
	o := e.attempt(ctx, index, id, path, outDir)
	if o.kind == outcomeFailed {
		o.result = &types.DocumentResult{
			DocumentID: id,
			Path:       path,
			Locations:  []types.Location{},
			Error:      o.err.Error(),
		}
	}
	return o
}

func (e *Extractor) attempt(ctx context.Context, index int, id, path, outDir string) outcome {
	o := outcome{index: index, id: id}

	var outPath string
	if outDir != "" {
		outPath = filepath.Join(outDir, id+ResultSuffix)
		if !e.cfg.Force {
			changed, err := hasChanged(path, outPath)
			if err != nil {
				o.kind, o.err = outcomeFailed, err
				return o
			}
			if !changed {
				o.kind = outcomeSkipped
				return o
			}
		}
	}

	e.log.Info().Str("document", id).Msg("extracting")
	res, err := e.ExtractFile(ctx, path)
	if err != nil {
		e.log.Error().Err(err).Str("document", id).Msg("extraction failed")
		o.kind, o.err = outcomeFailed, err
		return o
	}

	if outPath != "" {
		if err := writeResult(outPath, res); err != nil {
			o.kind, o.err = outcomeFailed, fmt.Errorf("write error: %w", err)
			return o
		}
	}
	o.kind, o.result = outcomeExtracted, res
	return o
}

// hasChanged reports whether the source document is newer than its result.
// Returns true if the result does not exist.
func hasChanged(srcPath, outPath string) (bool, error) {
	srcInfo, err := os.Stat(srcPath)
	if err != nil {
		return false, fmt.Errorf("stat document %s: %w", srcPath, err)
	}

	outInfo, err := os.Stat(outPath)
	if err != nil {
		if os.IsNotExist(err) {
			return true, nil
		}
		return false, fmt.Errorf("stat output %s: %w", outPath, err)
	}

	return srcInfo.ModTime().After(outInfo.ModTime()), nil
}

// writeResult marshals a DocumentResult to a YAML file.
func writeResult(path string, result *types.DocumentResult) error {
	data, err := yaml.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshaling result: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadResult loads a result file written by ExtractAll.
func ReadResult(path string) (*types.DocumentResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading result %s: %w", path, err)
	}
	var res types.DocumentResult
	if err := yaml.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("parsing result %s: %w", path, err)
	}
	return &res, nil
}
