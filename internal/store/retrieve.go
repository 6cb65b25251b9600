// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pdiddy/mathspan/pkg/types"
)

// QueryOptions holds parameters for location queries.
type QueryOptions struct {
	// Query is a substring matched against the rendered text, MathML and
	// sentence of each location.
	Query string

	// Marker filters by capture name.
	Marker string

	// Tags filters by one or more tags with AND semantics.
	Tags []string

	// DocumentID filters by document.
	DocumentID string

	// MaxResults limits result count. Zero uses the store default.
	MaxResults int
}

// IsEmpty reports whether the query has no search terms or filters.
func (q QueryOptions) IsEmpty() bool {
	return q.Query == "" && q.Marker == "" && len(q.Tags) == 0 && q.DocumentID == ""
}

// Retrieve returns locations matching opts, ordered by document, sentence
// and insertion order.
func (s *Store) Retrieve(ctx context.Context, opts QueryOptions) ([]types.Location, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = s.maxResults
	}

	var (
		qb   strings.Builder
		args []any
	)

	qb.WriteString(
		`SELECT document_id, xpath, marker, tags, text, mathml, sentence,
			sentence_index, pattern, branch
		FROM locations
		WHERE 1=1`)

	if opts.Query != "" {
		like := "%" + escapeLike(opts.Query) + "%"
		qb.WriteString(` AND (text LIKE ? ESCAPE '\' OR mathml LIKE ? ESCAPE '\' OR sentence LIKE ? ESCAPE '\')`)
		args = append(args, like, like, like)
	}

	if opts.Marker != "" {
		qb.WriteString(` AND marker = ?`)
		args = append(args, opts.Marker)
	}

	if opts.DocumentID != "" {
		qb.WriteString(` AND document_id = ?`)
		args = append(args, opts.DocumentID)
	}

	for _, tag := range opts.Tags {
		qb.WriteString(` AND EXISTS (SELECT 1 FROM json_each(locations.tags) WHERE value = ?)`)
		args = append(args, tag)
	}

	qb.WriteString(` ORDER BY document_id, sentence_index, rowid LIMIT ?`)
	args = append(args, maxResults)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying locations: %w", err)
	}
	defer rows.Close()

	var results []types.Location
	for rows.Next() {
		var (
			loc      types.Location
			tagsJSON sql.NullString
			text     sql.NullString
			mathML   sql.NullString
			sent     sql.NullString
			pattern  sql.NullString
		)
		if err := rows.Scan(
			&loc.DocumentID, &loc.XPath, &loc.Marker, &tagsJSON, &text, &mathML,
			&sent, &loc.SentenceIndex, &pattern, &loc.Branch,
		); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		if tagsJSON.Valid {
			json.Unmarshal([]byte(tagsJSON.String), &loc.Tags)
		}
		loc.Text = text.String
		loc.MathML = mathML.String
		loc.Sentence = sent.String
		loc.Pattern = pattern.String
		results = append(results, loc)
	}

	return results, rows.Err()
}

// Documents returns the indexed documents without their locations.
func (s *Store) Documents(ctx context.Context) ([]types.DocumentResult, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, path, sentences, failed_sentences, matches FROM documents ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var out []types.DocumentResult
	for rows.Next() {
		var (
			d    types.DocumentResult
			path sql.NullString
		)
		if err := rows.Scan(&d.DocumentID, &path, &d.Sentences, &d.FailedSentences, &d.Matches); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		d.Path = path.String
		out = append(out, d)
	}
	return out, rows.Err()
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
