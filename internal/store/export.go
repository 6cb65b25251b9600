// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/mathspan/pkg/types"
)

const exportLimit = 100000

// ExportYAML writes matching locations to index/export.yaml.
func (s *Store) ExportYAML(ctx context.Context, opts QueryOptions) error {
	locs, err := s.exportLocations(ctx, opts)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(locs)
	if err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return os.WriteFile(s.ExportPath("yaml"), data, 0o644)
}

// ExportJSON writes matching locations to index/export.json.
func (s *Store) ExportJSON(ctx context.Context, opts QueryOptions) error {
	locs, err := s.exportLocations(ctx, opts)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(locs, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	return os.WriteFile(s.ExportPath("json"), data, 0o644)
}

// ExportPath returns the export file for the given extension.
func (s *Store) ExportPath(ext string) string {
	return filepath.Join(s.dir, indexDir, "export."+ext)
}

func (s *Store) exportLocations(ctx context.Context, opts QueryOptions) ([]types.Location, error) {
	if opts.MaxResults <= 0 {
		opts.MaxResults = exportLimit
	}
	locs, err := s.Retrieve(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("querying for export: %w", err)
	}
	if locs == nil {
		locs = []types.Location{}
	}
	return locs, nil
}
