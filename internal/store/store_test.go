package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/mathspan/pkg/types"
)

// --- test helpers ---

func testSetup(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()

	store, err := NewStore(types.StoreConfig{Dir: dir, MaxResults: 20})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	return store, dir
}

func writeResult(t *testing.T, dir string, res types.DocumentResult) {
	t.Helper()
	data, err := yaml.Marshal(&res)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, res.DocumentID+resultSuffix)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
}

func sampleResult(docID string) types.DocumentResult {
	return types.DocumentResult{
		DocumentID: docID,
		Path:       "documents/" + docID + ".html",
		Sentences:  3,
		Matches:    2,
		Locations: []types.Location{
			{
				DocumentID: docID, XPath: "/html[1]/body[1]/p[1]/math[1]/mi[1]",
				Marker: "identifier", Tags: []string{"declared"},
				Text: "x", MathML: "<mi>x</mi>",
				Sentence: "Let MathFormula be a prime number.", SentenceIndex: 0,
				Pattern: "declaration",
			},
			{
				DocumentID: docID, XPath: "/html[1]/body[1]/p[3]/math[1]/mi[1]",
				Marker: "identifier", Tags: []string{"declared", "integer"},
				Text: "n", MathML: "<mi>n</mi>",
				Sentence: "Suppose MathFormula is an odd integer.", SentenceIndex: 2,
				Pattern: "declaration",
			},
		},
	}
}

func ingest(t *testing.T, store *Store) (IngestSummary, string) {
	t.Helper()
	var buf strings.Builder
	summary, err := store.Ingest(context.Background(), &buf)
	if err != nil {
		t.Fatal(err)
	}
	return summary, buf.String()
}

// --- schema tests ---

func TestNewStoreCreatesDBFile(t *testing.T) {
	_, dir := testSetup(t)

	if _, err := os.Stat(filepath.Join(dir, indexDir, dbFile)); err != nil {
		t.Errorf("database file missing: %v", err)
	}
}

func TestNewStoreCreatesSchema(t *testing.T) {
	store, _ := testSetup(t)

	for _, table := range []string{"documents", "locations", "indexing_status"} {
		var n int
		err := store.db.QueryRow(
			`SELECT count(*) FROM sqlite_master WHERE type='table' AND name=?`, table,
		).Scan(&n)
		if err != nil {
			t.Fatal(err)
		}
		if n != 1 {
			t.Errorf("table %s missing", table)
		}
	}
}

// --- ingest tests ---

func TestIngest(t *testing.T) {
	store, dir := testSetup(t)
	writeResult(t, dir, sampleResult("doc-a"))
	writeResult(t, dir, sampleResult("doc-b"))
	if err := os.WriteFile(filepath.Join(dir, "notes.yaml"), []byte("x: 1"), 0o644); err != nil {
		t.Fatal(err)
	}

	summary, out := ingest(t, store)

	if summary.Indexed != 2 {
		t.Errorf("Indexed = %d, want 2", summary.Indexed)
	}
	if summary.Total() != 2 {
		t.Errorf("Total = %d, want 2", summary.Total())
	}
	if !strings.Contains(out, "indexing doc-a (2 locations)") {
		t.Errorf("output missing progress line:\n%s", out)
	}
	if !strings.Contains(out, "indexed: 2, updated: 0, skipped: 0, failed: 0") {
		t.Errorf("output missing summary:\n%s", out)
	}
	if _, err := os.Stat(store.ExportPath("yaml")); err != nil {
		t.Errorf("export.yaml not written: %v", err)
	}

	docs, err := store.Documents(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 2 || docs[0].DocumentID != "doc-a" || docs[0].Sentences != 3 {
		t.Errorf("documents = %+v", docs)
	}
}

func TestIngestSkipsUnchanged(t *testing.T) {
	store, dir := testSetup(t)
	writeResult(t, dir, sampleResult("doc-a"))
	ingest(t, store)

	summary, out := ingest(t, store)
	if summary.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", summary.Skipped)
	}
	if !strings.Contains(out, "skipped doc-a") {
		t.Errorf("output missing skip line:\n%s", out)
	}
}

func TestIngestSkipsUnchangedRenamedFile(t *testing.T) {
	store, dir := testSetup(t)
	data, err := yaml.Marshal(sampleResult("doc-a"))
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "copy-of-a"+resultSuffix), data, 0o644); err != nil {
		t.Fatal(err)
	}

	summary, _ := ingest(t, store)
	if summary.Indexed != 1 {
		t.Fatalf("Indexed = %d, want 1", summary.Indexed)
	}

	summary, out := ingest(t, store)
	if summary.Skipped != 1 || summary.Indexed != 0 || summary.Updated != 0 {
		t.Errorf("second run = %+v, want one skipped", summary)
	}
	if !strings.Contains(out, "skipped copy-of-a") {
		t.Errorf("output missing skip line:\n%s", out)
	}

	locs, err := store.Retrieve(context.Background(), QueryOptions{DocumentID: "doc-a"})
	if err != nil {
		t.Fatal(err)
	}
	if len(locs) != 2 {
		t.Errorf("got %d locations for doc-a, want 2", len(locs))
	}
}

func TestIngestUpdatesChanged(t *testing.T) {
	store, dir := testSetup(t)
	writeResult(t, dir, sampleResult("doc-a"))
	ingest(t, store)

	res := sampleResult("doc-a")
	res.Locations = res.Locations[:1]
	writeResult(t, dir, res)
	future := time.Now().Add(time.Hour)
	if err := os.Chtimes(filepath.Join(dir, "doc-a"+resultSuffix), future, future); err != nil {
		t.Fatal(err)
	}

	summary, _ := ingest(t, store)
	if summary.Updated != 1 {
		t.Errorf("Updated = %d, want 1", summary.Updated)
	}

	locs, err := store.Retrieve(context.Background(), QueryOptions{DocumentID: "doc-a"})
	if err != nil {
		t.Fatal(err)
	}
	if len(locs) != 1 {
		t.Errorf("got %d locations after update, want 1", len(locs))
	}
}

func TestIngestBadFile(t *testing.T) {
	store, dir := testSetup(t)
	if err := os.WriteFile(filepath.Join(dir, "bad"+resultSuffix), []byte("locations: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}

	summary, out := ingest(t, store)
	if summary.Failed != 1 {
		t.Errorf("Failed = %d, want 1", summary.Failed)
	}
	if !strings.Contains(out, "failed  bad: parse error") {
		t.Errorf("output missing failure line:\n%s", out)
	}
}

func TestIngestResult(t *testing.T) {
	store, _ := testSetup(t)
	res := sampleResult("mem")

	if err := store.IngestResult(context.Background(), &res); err != nil {
		t.Fatal(err)
	}
	// Re-ingesting replaces rather than duplicates.
	if err := store.IngestResult(context.Background(), &res); err != nil {
		t.Fatal(err)
	}

	locs, err := store.Retrieve(context.Background(), QueryOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(locs) != 2 {
		t.Fatalf("got %d locations, want 2", len(locs))
	}
	want := res.Locations[0]
	got := locs[0]
	if got.XPath != want.XPath || got.Text != want.Text || got.MathML != want.MathML ||
		got.Sentence != want.Sentence || got.Pattern != want.Pattern || len(got.Tags) != 1 {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, want)
	}
}

// --- retrieve tests ---

func TestRetrieve(t *testing.T) {
	store, dir := testSetup(t)
	writeResult(t, dir, sampleResult("doc-a"))
	writeResult(t, dir, sampleResult("doc-b"))
	ingest(t, store)

	tests := []struct {
		name  string
		opts  QueryOptions
		want  int
		first string
	}{
		{name: "all", opts: QueryOptions{}, want: 4, first: "x"},
		{name: "substring in sentence", opts: QueryOptions{Query: "odd integer"}, want: 2, first: "n"},
		{name: "substring in mathml", opts: QueryOptions{Query: "<mi>x"}, want: 2, first: "x"},
		{name: "by tag", opts: QueryOptions{Tags: []string{"integer"}}, want: 2, first: "n"},
		{name: "tags are ANDed", opts: QueryOptions{Tags: []string{"integer", "declared"}}, want: 2, first: "n"},
		{name: "by document", opts: QueryOptions{DocumentID: "doc-b"}, want: 2, first: "x"},
		{name: "by marker", opts: QueryOptions{Marker: "formula"}, want: 0},
		{name: "max results", opts: QueryOptions{MaxResults: 3}, want: 3, first: "x"},
		{name: "like wildcards are literal", opts: QueryOptions{Query: "%"}, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			locs, err := store.Retrieve(context.Background(), tt.opts)
			if err != nil {
				t.Fatal(err)
			}
			if len(locs) != tt.want {
				t.Fatalf("got %d locations, want %d", len(locs), tt.want)
			}
			if tt.want > 0 && locs[0].Text != tt.first {
				t.Errorf("first = %q, want %q", locs[0].Text, tt.first)
			}
		})
	}
}

func TestQueryOptionsIsEmpty(t *testing.T) {
	if !(QueryOptions{MaxResults: 5}).IsEmpty() {
		t.Error("options with only MaxResults should be empty")
	}
	if (QueryOptions{Marker: "identifier"}).IsEmpty() {
		t.Error("options with a marker should not be empty")
	}
}

// --- export tests ---

func TestExportYAML(t *testing.T) {
	store, dir := testSetup(t)
	writeResult(t, dir, sampleResult("doc-a"))
	ingest(t, store)

	if err := store.ExportYAML(context.Background(), QueryOptions{}); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(dir, indexDir, "export.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	var locs []types.Location
	if err := yaml.Unmarshal(data, &locs); err != nil {
		t.Fatalf("invalid YAML: %v", err)
	}
	if len(locs) != 2 {
		t.Errorf("got %d entries, want 2", len(locs))
	}
}

func TestExportJSONFiltered(t *testing.T) {
	store, dir := testSetup(t)
	writeResult(t, dir, sampleResult("doc-a"))
	ingest(t, store)

	if err := store.ExportJSON(context.Background(), QueryOptions{Tags: []string{"integer"}}); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(dir, indexDir, "export.json"))
	if err != nil {
		t.Fatal(err)
	}
	var locs []types.Location
	if err := json.Unmarshal(data, &locs); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(locs) != 1 || locs[0].Text != "n" {
		t.Errorf("export = %+v", locs)
	}
}

func TestExportJSONLimit(t *testing.T) {
	store, dir := testSetup(t)
	writeResult(t, dir, sampleResult("doc-a"))
	ingest(t, store)

	if err := store.ExportJSON(context.Background(), QueryOptions{MaxResults: 1}); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(dir, indexDir, "export.json"))
	if err != nil {
		t.Fatal(err)
	}
	var locs []types.Location
	if err := json.Unmarshal(data, &locs); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(locs) != 1 || locs[0].Text != "x" {
		t.Errorf("export = %+v", locs)
	}
}

func TestExportEmpty(t *testing.T) {
	store, dir := testSetup(t)

	if err := store.ExportJSON(context.Background(), QueryOptions{}); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(filepath.Join(dir, indexDir, "export.json"))
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(string(data)) != "[]" {
		t.Errorf("export = %s, want []", data)
	}
}
