// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert turns LaTeX sources into the HTML documents the
// extraction stage reads, with pluggable backends.
package convert

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/mathspan/pkg/types"
)

// Converter transforms a LaTeX file into HTML with MathML formulas.
type Converter interface {
	// Convert reads the source at texPath and returns the HTML document.
	Convert(ctx context.Context, texPath string) (string, error)
}

// BatchResult holds the outcome of a batch conversion run.
type BatchResult struct {
	Converted int
	Skipped   int
	Failed    int
}

// Total returns the total number of documents processed.
func (r BatchResult) Total() int {
	return r.Converted + r.Skipped + r.Failed
}

// HasFailures reports whether any document failed conversion.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// ConversionNone is a local alias for "skip" status (HTML already exists).
const ConversionNone = types.ConversionNone

// ConvertDocument converts one source, writing <id>.html into outDir. If
// the HTML already exists it skips conversion and returns ConversionNone.
func ConvertDocument(ctx context.Context, c Converter, d *types.Document, outDir string, w io.Writer) types.ConversionStatus {
	htmlPath := filepath.Join(outDir, d.ID+".html")

	if _, err := os.Stat(htmlPath); err == nil {
		fmt.Fprintf(w, "skipped: %s (already exists)\n", d.ID)
		d.HTMLPath = htmlPath
		return ConversionNone
	}

	status := convert(ctx, c, d, htmlPath, w)
	d.ConversionStatus = status
	if status == types.ConversionDone {
		d.HTMLPath = htmlPath
	}
	return status
}

func convert(ctx context.Context, c Converter, d *types.Document, htmlPath string, w io.Writer) types.ConversionStatus {
	if err := os.MkdirAll(filepath.Dir(htmlPath), 0o755); err != nil {
		fmt.Fprintf(w, "failed:  %s (%v)\n", d.ID, err)
		return types.ConversionFailed
	}

	html, err := c.Convert(ctx, d.SourcePath)
	if err != nil {
		fmt.Fprintf(w, "failed:  %s (%v)\n", d.ID, err)
		return types.ConversionFailed
	}

	if err := os.WriteFile(htmlPath, []byte(html), 0o644); err != nil {
		fmt.Fprintf(w, "failed:  %s (%v)\n", d.ID, err)
		return types.ConversionFailed
	}

	fmt.Fprintf(w, "converted: %s\n", d.ID)
	return types.ConversionDone
}

// ConvertBatch processes documents through the converter, printing
// per-file status to w and returning a summary.
func ConvertBatch(ctx context.Context, c Converter, docs []types.Document, outDir string, w io.Writer) BatchResult {
	var result BatchResult
	for i := range docs {
		if ctx.Err() != nil {
			fmt.Fprintf(w, "failed:  %s (%v)\n", docs[i].ID, ctx.Err())
			result.Failed++
			continue
		}
		switch ConvertDocument(ctx, c, &docs[i], outDir, w) {
		case types.ConversionDone:
			result.Converted++
		case ConversionNone:
			result.Skipped++
		case types.ConversionFailed:
			result.Failed++
		}
	}
	fmt.Fprintf(w, "\nBatch summary: %d converted, %d skipped, %d failed (total: %d)\n",
		result.Converted, result.Skipped, result.Failed, result.Total())
	return result
}

// ConvertPaths builds Document records from source paths and delegates to
// ConvertBatch. The ID of each document is its file name without extension.
func ConvertPaths(ctx context.Context, c Converter, texPaths []string, outDir string, w io.Writer) BatchResult {
	docs := make([]types.Document, len(texPaths))
	for i, p := range texPaths {
		docs[i] = types.Document{
			ID:               strings.TrimSuffix(filepath.Base(p), filepath.Ext(p)),
			SourcePath:       p,
			ConversionStatus: types.ConversionNone,
		}
	}
	return ConvertBatch(ctx, c, docs, outDir, w)
}
