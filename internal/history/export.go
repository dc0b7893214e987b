// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package history

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"
)

// Dump writes every entry to path. The format follows the extension:
// .json writes indented JSON, anything else YAML.
func (s *Store) Dump(ctx context.Context, path string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return s.ExportJSON(ctx, path)
	default:
		return s.ExportYAML(ctx, path)
	}
}

// ExportYAML writes every entry to path as YAML, newest first.
func (s *Store) ExportYAML(ctx context.Context, path string) error {
	entries, err := s.List(ctx, ListOptions{Limit: -1})
	if err != nil {
		return fmt.Errorf("querying for export: %w", err)
	}
	if entries == nil {
		entries = []Entry{}
	}
	data, err := yaml.Marshal(entries)
	if err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ExportJSON writes every entry to path as indented JSON, newest first.
func (s *Store) ExportJSON(ctx context.Context, path string) error {
	entries, err := s.List(ctx, ListOptions{Limit: -1})
	if err != nil {
		return fmt.Errorf("querying for export: %w", err)
	}
	if entries == nil {
		entries = []Entry{}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
