// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/mathspan/internal/store"
	"github.com/pdiddy/mathspan/pkg/types"
)

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Manage the results database (ingest, retrieve, export)",
	Long: `Store manages a local SQLite database built from extraction results.
Use subcommands to index result files, query locations, or export them.`,
}

// --- ingest subcommand ---

var storeIngestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Index extraction result files",
	Long: `Ingest reads <id>-declarations.yaml files from the results directory,
stores their locations in index/mathspan.db and writes index/export.yaml.
Unchanged files are skipped on subsequent runs.`,
	RunE: runStoreIngest,
}

func runStoreIngest(cmd *cobra.Command, args []string) error {
	s, err := store.NewStore(storeConfig(cmd))
	if err != nil {
		return err
	}
	defer s.Close()

	summary, err := s.Ingest(context.Background(), os.Stdout)
	if err != nil {
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d document(s) failed indexing", summary.Failed)
	}
	return nil
}

// --- retrieve subcommand ---

var storeRetrieveCmd = &cobra.Command{
	Use:   "retrieve [query]",
	Short: "Query stored locations",
	Long: `Retrieve searches stored locations by substring (matched against the
rendered identifier, its MathML and its sentence), marker, tag and document.`,
	RunE: runStoreRetrieve,
}

func runStoreRetrieve(cmd *cobra.Command, args []string) error {
	s, err := store.NewStore(storeConfig(cmd))
	if err != nil {
		return err
	}
	defer s.Close()

	opts := queryOptsFromFlags(cmd, args)
	if opts.IsEmpty() {
		return fmt.Errorf("query or filter required: provide a search query, --marker, --tag, or --document")
	}

	results, err := s.Retrieve(context.Background(), opts)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatRetrieveOutput(results, jsonOutput)
}

func formatRetrieveOutput(results []types.Location, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-4s  %-16s  %-12s  %-50s  %s\n",
		"Rank", "Document", "Text", "Location", "Sentence")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 110))

	for i, r := range results {
		fmt.Fprintf(os.Stdout, "%-4d  %-16s  %-12s  %-50s  %s\n",
			i+1, truncate(r.DocumentID, 16), truncate(r.Text, 12), r.XPath, truncate(r.Sentence, 40))
	}

	fmt.Fprintf(os.Stdout, "\n%d results\n", len(results))
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

// --- export subcommand ---

var storeExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored locations to YAML or JSON",
	Long: `Export writes all stored locations (or a filtered subset) to
index/export.yaml or index/export.json under the results directory.`,
	RunE: runStoreExport,
}

func runStoreExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")

	s, err := store.NewStore(storeConfig(cmd))
	if err != nil {
		return err
	}
	defer s.Close()

	opts := queryOptsFromFlags(cmd, args)

	switch format {
	case "yaml", "":
		if err := s.ExportYAML(context.Background(), opts); err != nil {
			return err
		}
		fmt.Println("Exported to", s.ExportPath("yaml"))
	case "json":
		if err := s.ExportJSON(context.Background(), opts); err != nil {
			return err
		}
		fmt.Println("Exported to", s.ExportPath("json"))
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}

	return nil
}

// --- shared helpers ---

func storeConfig(cmd *cobra.Command) types.StoreConfig {
	cfg := loadConfig().Store
	if cmd.Flags().Changed("dir") {
		cfg.Dir, _ = cmd.Flags().GetString("dir")
	}
	if cmd.Flags().Changed("max-results") {
		cfg.MaxResults, _ = cmd.Flags().GetInt("max-results")
	}
	return cfg
}

func queryOptsFromFlags(cmd *cobra.Command, args []string) store.QueryOptions {
	queryText, _ := cmd.Flags().GetString("query")
	if queryText == "" && len(args) > 0 {
		queryText = strings.Join(args, " ")
	}
	marker, _ := cmd.Flags().GetString("marker")
	tag, _ := cmd.Flags().GetString("tag")
	docID, _ := cmd.Flags().GetString("document")
	limit, _ := cmd.Flags().GetInt("limit")

	opts := store.QueryOptions{
		Query:      queryText,
		Marker:     marker,
		DocumentID: docID,
		MaxResults: limit,
	}
	if tag != "" {
		opts.Tags = strings.Split(tag, ",")
	}
	return opts
}

func init() {
	def := types.DefaultPipelineConfig()

	storeCmd.PersistentFlags().String("dir", def.Store.Dir, "results directory (contains index/)")
	storeCmd.PersistentFlags().Int("max-results", def.Store.MaxResults, "default maximum query results")

	// Retrieve flags.
	storeRetrieveCmd.Flags().String("query", "", "substring search query")
	storeRetrieveCmd.Flags().String("marker", "", "filter by capture name")
	storeRetrieveCmd.Flags().String("tag", "", "filter by tags (comma-separated, all required)")
	storeRetrieveCmd.Flags().String("document", "", "filter by document ID")
	storeRetrieveCmd.Flags().Int("limit", 0, "maximum results (0 = use default)")
	storeRetrieveCmd.Flags().Bool("json", false, "output results as JSON")

	// Export flags.
	storeExportCmd.Flags().String("format", "yaml", "export format: yaml or json")
	storeExportCmd.Flags().String("query", "", "substring filter for partial export")
	storeExportCmd.Flags().String("marker", "", "filter by capture name for partial export")
	storeExportCmd.Flags().String("tag", "", "filter by tags for partial export")
	storeExportCmd.Flags().String("document", "", "filter by document ID for partial export")
	storeExportCmd.Flags().Int("limit", 0, "maximum locations to export (0 = all)")

	// Wire subcommands.
	storeCmd.AddCommand(storeIngestCmd)
	storeCmd.AddCommand(storeRetrieveCmd)
	storeCmd.AddCommand(storeExportCmd)

	rootCmd.AddCommand(storeCmd)
}
