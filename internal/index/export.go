// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package index

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/bibindex/internal/cite"
	"github.com/pdiddy/bibindex/pkg/types"
)

// ExportFormat names an export encoding.
type ExportFormat string

const (
	FormatYAML ExportFormat = "yaml"
	FormatJSON ExportFormat = "json"
)

// ParseExportFormat validates a format name. The empty string selects YAML.
func ParseExportFormat(name string) (ExportFormat, error) {
	switch ExportFormat(name) {
	case FormatYAML, "":
		return FormatYAML, nil
	case FormatJSON:
		return FormatJSON, nil
	}
	return "", fmt.Errorf("unsupported format %q: use yaml or json", name)
}

// ExportOptions selects the records to export. Keys are looked up
// individually; Query runs a title search. Both may be set. MaxResults
// bounds the query matches; zero or less exports every match.
type ExportOptions struct {
	Query      string
	Keys       []string
	MaxResults int
}

// ExportEntry is a record with its rendered BibTeX, as written by export.
type ExportEntry struct {
	types.Record `yaml:",inline"`
	BibTeX       string `json:"bibtex" yaml:"bibtex"`
}

// ExportResult summarizes a finished export.
type ExportResult struct {
	Exported int

	// Missing lists requested keys with no stored record, in request order.
	Missing []string
}

// Export writes the selected records to w in the given format. Unknown keys
// are not an error; they are reported in the result.
func (s *Store) Export(ctx context.Context, w io.Writer, format ExportFormat, opts ExportOptions) (ExportResult, error) {
	switch format {
	case FormatYAML:
		return s.ExportYAML(ctx, w, opts)
	case FormatJSON:
		return s.ExportJSON(ctx, w, opts)
	}
	return ExportResult{}, fmt.Errorf("unsupported format %q: use yaml or json", format)
}

// ExportYAML writes the selected records to w as a YAML list.
func (s *Store) ExportYAML(ctx context.Context, w io.Writer, opts ExportOptions) (ExportResult, error) {
	entries, res, err := s.exportEntries(ctx, opts)
	if err != nil {
		return res, err
	}
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	if err := enc.Encode(entries); err != nil {
		return res, fmt.Errorf("marshaling YAML: %w", err)
	}
	return res, nil
}

// ExportJSON writes the selected records to w as an indented JSON array.
func (s *Store) ExportJSON(ctx context.Context, w io.Writer, opts ExportOptions) (ExportResult, error) {
	entries, res, err := s.exportEntries(ctx, opts)
	if err != nil {
		return res, err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(entries); err != nil {
		return res, fmt.Errorf("marshaling JSON: %w", err)
	}
	return res, nil
}

func (s *Store) exportEntries(ctx context.Context, opts ExportOptions) ([]ExportEntry, ExportResult, error) {
	var (
		recs []types.Record
		res  ExportResult
	)
	seen := make(map[string]bool)

	for _, key := range opts.Keys {
		rec, err := s.Get(ctx, key)
		if err != nil {
			return nil, res, fmt.Errorf("querying for export: %w", err)
		}
		if rec == nil {
			res.Missing = append(res.Missing, key)
			continue
		}
		if seen[rec.Key] {
			continue
		}
		seen[rec.Key] = true
		recs = append(recs, *rec)
	}

	if opts.Query != "" {
		limit := opts.MaxResults
		if limit <= 0 {
			limit = -1
		}
		found, err := s.search(ctx, opts.Query, limit)
		if err != nil {
			return nil, res, fmt.Errorf("querying for export: %w", err)
		}
		for _, rec := range found {
			if !seen[rec.Key] {
				seen[rec.Key] = true
				recs = append(recs, rec)
			}
		}
	}

	entries := make([]ExportEntry, len(recs))
	for i, rec := range recs {
		entries[i] = ExportEntry{Record: rec, BibTeX: cite.BibTeX(rec)}
	}
	res.Exported = len(entries)
	return entries, res, nil
}
