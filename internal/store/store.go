// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store indexes extraction results in a SQLite database so
// located identifiers can be queried and exported across documents.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/mathspan/pkg/types"
)

const (
	indexDir     = "index"
	dbFile       = "mathspan.db"
	resultSuffix = "-declarations.yaml"
)

// Store manages the results database.
type Store struct {
	db         *sql.DB
	dir        string
	maxResults int
}

// NewStore opens or creates the database at dir/index/mathspan.db and
// creates the schema if it does not exist. Result files are read from dir.
func NewStore(cfg types.StoreConfig) (*Store, error) {
	dbDir := filepath.Join(cfg.Dir, indexDir)
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	dbPath := filepath.Join(dbDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	s := &Store{
		db:         db,
		dir:        cfg.Dir,
		maxResults: maxResults,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			id TEXT PRIMARY KEY,
			path TEXT,
			sentences INTEGER,
			failed_sentences INTEGER,
			matches INTEGER
		)`,
		`CREATE TABLE IF NOT EXISTS locations (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			document_id TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
			xpath TEXT NOT NULL,
			marker TEXT NOT NULL,
			tags TEXT,
			text TEXT,
			mathml TEXT,
			sentence TEXT,
			sentence_index INTEGER,
			pattern TEXT,
			branch INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_locations_document_id ON locations(document_id)`,
		`CREATE INDEX IF NOT EXISTS idx_locations_marker ON locations(marker)`,
		`CREATE TABLE IF NOT EXISTS indexing_status (
			result_file TEXT PRIMARY KEY,
			document_id TEXT NOT NULL,
			file_mod_time TEXT
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// IngestSummary holds counts from an indexing run.
type IngestSummary struct {
	Indexed int
	Updated int
	Skipped int
	Failed  int
}

// Total returns the number of result files processed.
func (s IngestSummary) Total() int {
	return s.Indexed + s.Updated + s.Skipped + s.Failed
}

// Ingest reads <id>-declarations.yaml files from the store directory and
// populates the database. Files unchanged since the last run are skipped;
// changed files replace the document's previous locations. On success it
// writes index/export.yaml.
func (s *Store) Ingest(ctx context.Context, w io.Writer) (IngestSummary, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return IngestSummary{}, fmt.Errorf("reading results directory %s: %w", s.dir, err)
	}

	var summary IngestSummary

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), resultSuffix) {
			continue
		}

		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		docID := strings.TrimSuffix(entry.Name(), resultSuffix)
		filePath := filepath.Join(s.dir, entry.Name())

		info, err := entry.Info()
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", docID, err)
			summary.Failed++
			continue
		}
		modTime := info.ModTime().UTC().Format(time.RFC3339Nano)

		var storedModTime string
		err = s.db.QueryRowContext(ctx,
			`SELECT file_mod_time FROM indexing_status WHERE result_file = ?`, entry.Name(),
		).Scan(&storedModTime)

		if err == nil && storedModTime == modTime {
			fmt.Fprintf(w, "skipped %s\n", docID)
			summary.Skipped++
			continue
		}

		isUpdate := err == nil

		data, err := os.ReadFile(filePath)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", docID, err)
			summary.Failed++
			continue
		}

		var result types.DocumentResult
		if err := yaml.Unmarshal(data, &result); err != nil {
			fmt.Fprintf(w, "failed  %s: parse error: %v\n", docID, err)
			summary.Failed++
			continue
		}
		if result.DocumentID == "" {
			result.DocumentID = docID
		}

		if err := s.ingestDocument(ctx, &result, entry.Name(), modTime); err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", docID, err)
			summary.Failed++
			continue
		}

		if isUpdate {
			fmt.Fprintf(w, "updated %s (%d locations)\n", docID, len(result.Locations))
			summary.Updated++
		} else {
			fmt.Fprintf(w, "indexing %s (%d locations)\n", docID, len(result.Locations))
			summary.Indexed++
		}
	}

	fmt.Fprintf(w, "\nindexed: %d, updated: %d, skipped: %d, failed: %d\n",
		summary.Indexed, summary.Updated, summary.Skipped, summary.Failed)

	if summary.Indexed > 0 || summary.Updated > 0 {
		if err := s.ExportYAML(ctx, QueryOptions{}); err != nil {
			fmt.Fprintf(w, "warning: export.yaml write failed: %v\n", err)
		}
	}

	return summary, nil
}

// IngestResult stores one in-memory result, replacing any earlier
// locations of the same document.
func (s *Store) IngestResult(ctx context.Context, result *types.DocumentResult) error {
	return s.ingestDocument(ctx, result, "", "")
}

// ingestDocument replaces the document's locations. When resultFile is
// set, its modification time is recorded under the file name so the next
// Ingest can skip it.
func (s *Store) ingestDocument(ctx context.Context, result *types.DocumentResult, resultFile, modTime string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM locations WHERE document_id = ?`, result.DocumentID); err != nil {
		return fmt.Errorf("deleting old locations: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO documents (id, path, sentences, failed_sentences, matches)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			path=excluded.path, sentences=excluded.sentences,
			failed_sentences=excluded.failed_sentences, matches=excluded.matches`,
		result.DocumentID, result.Path, result.Sentences, result.FailedSentences, result.Matches,
	)
	if err != nil {
		return fmt.Errorf("upserting document: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO locations (document_id, xpath, marker, tags, text, mathml, sentence, sentence_index, pattern, branch)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, loc := range result.Locations {
		tagsJSON, _ := json.Marshal(loc.Tags)
		_, err := stmt.ExecContext(ctx,
			result.DocumentID, loc.XPath, loc.Marker, string(tagsJSON),
			loc.Text, loc.MathML, loc.Sentence, loc.SentenceIndex,
			loc.Pattern, loc.Branch,
		)
		if err != nil {
			return fmt.Errorf("inserting location %s: %w", loc.XPath, err)
		}
	}

	if resultFile != "" {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO indexing_status (result_file, document_id, file_mod_time) VALUES (?, ?, ?)
			 ON CONFLICT(result_file) DO UPDATE SET
				document_id=excluded.document_id, file_mod_time=excluded.file_mod_time`,
			resultFile, result.DocumentID, modTime,
		)
		if err != nil {
			return fmt.Errorf("updating indexing status: %w", err)
		}
	}

	return tx.Commit()
}
