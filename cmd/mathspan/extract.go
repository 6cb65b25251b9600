// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/mathspan/internal/extract"
	"github.com/pdiddy/mathspan/internal/nlp"
	"github.com/pdiddy/mathspan/internal/pattern"
	"github.com/pdiddy/mathspan/internal/secrets"
	"github.com/pdiddy/mathspan/pkg/types"
)

var extractCmd = &cobra.Command{
	Use:   "extract [documents...]",
	Short: "Locate declared identifiers in HTML documents",
	Long: `Extract linearizes each document, splits it into sentences, parses them
with the configured linguistic parser and matches the declaration pattern.
Every captured identifier is reported as an XPath-like location.

Arguments may be HTML files or directories of them. Results are written to
<out>/<id>-declarations.yaml; documents whose results are newer than the
source are skipped unless --force is given.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExtract,
}

func runExtract(cmd *cobra.Command, args []string) error {
	cfg := extractConfig(cmd)

	patterns, err := pattern.Load(cfg.Extraction.PatternFile)
	if err != nil {
		return err
	}

	parser, err := nlp.New(cfg.Parser, logger)
	if err != nil {
		return err
	}

	ex, err := extract.New(parser, patterns, cfg.Extraction, logger)
	if err != nil {
		return err
	}

	paths, err := extract.CollectDocuments(args)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no documents found in %v", args)
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	progress := os.Stdout
	if jsonOutput {
		progress = os.Stderr
	}

	summary, err := ex.ExtractAll(context.Background(), paths, progress)
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(append(summary.Results, summary.Failures...)); err != nil {
			return err
		}
	} else {
		printLocations(summary.Results)
	}

	if summary.HasFailures() {
		return fmt.Errorf("%d document(s) failed extraction", summary.Failed)
	}
	return nil
}

func printLocations(results []*types.DocumentResult) {
	for _, res := range results {
		for _, loc := range res.Locations {
			fmt.Fprintf(os.Stdout, "%s\t%s\t%s\n", res.DocumentID, loc, loc.Text)
		}
	}
}

// extractConfig applies explicitly set flags over the loaded configuration.
func extractConfig(cmd *cobra.Command) types.PipelineConfig {
	cfg := loadConfig()
	flags := cmd.Flags()

	if flags.Changed("patterns") {
		cfg.Extraction.PatternFile, _ = flags.GetString("patterns")
	}
	if flags.Changed("pattern") {
		cfg.Extraction.Pattern, _ = flags.GetString("pattern")
	}
	if flags.Changed("capture") {
		cfg.Extraction.Capture, _ = flags.GetString("capture")
	}
	if flags.Changed("out") {
		cfg.Extraction.OutputDir, _ = flags.GetString("out")
	}
	if flags.Changed("workers") {
		cfg.Extraction.Workers, _ = flags.GetInt("workers")
	}
	if flags.Changed("force") {
		cfg.Extraction.Force, _ = flags.GetBool("force")
	}
	if flags.Changed("parser") {
		backend, _ := flags.GetString("parser")
		cfg.Parser.Backend = types.ParserBackend(backend)
	}
	if flags.Changed("parser-url") {
		cfg.Parser.URL, _ = flags.GetString("parser-url")
	}
	if flags.Changed("parser-image") {
		cfg.Parser.Image, _ = flags.GetString("parser-image")
	}
	secrets.Apply(&cfg.Parser, loadedSecrets)
	return cfg
}

func init() {
	def := types.DefaultPipelineConfig()

	extractCmd.Flags().String("patterns", def.Extraction.PatternFile, "pattern file (.xml or .yaml)")
	extractCmd.Flags().String("pattern", def.Extraction.Pattern, "pattern name to match")
	extractCmd.Flags().String("capture", def.Extraction.Capture, "math capture reported as a location")
	extractCmd.Flags().String("parser", string(def.Parser.Backend), "parser backend: corenlp, container, or plain")
	extractCmd.Flags().String("parser-url", def.Parser.URL, "CoreNLP server URL")
	extractCmd.Flags().String("parser-image", def.Parser.Image, "parser container image")
	extractCmd.Flags().String("out", def.Extraction.OutputDir, "directory for result files (empty disables writing)")
	extractCmd.Flags().Int("workers", def.Extraction.Workers, "documents processed in parallel")
	extractCmd.Flags().Bool("force", false, "re-extract documents with up-to-date results")
	extractCmd.Flags().Bool("json", false, "print results as JSON")

	rootCmd.AddCommand(extractCmd)
}
