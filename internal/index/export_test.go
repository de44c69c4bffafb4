// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package index

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"
)

func TestExport(t *testing.T) {
	env := newEnv(t)
	env.writeCorpus(t, article("x/y1", "A Study of X", "TEST", 2021)+"\n"+
		article("x/y2", "A Study of Y", "TEST", 2022)+"\n"+
		article("z/1", "Unrelated", "Z", 1999))
	env.build(t, 0)
	s := env.open(t)
	ctx := context.Background()

	opts := ExportOptions{Query: "study", Keys: []string{"z/1", "x/y1", "missing/1"}}

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		res, err := s.ExportJSON(ctx, &buf, opts)
		require.NoError(t, err)
		assert.Equal(t, ExportResult{Exported: 3, Missing: []string{"missing/1"}}, res)

		var entries []ExportEntry
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entries))
		require.Len(t, entries, 3)
		assert.Equal(t, "z/1", entries[0].Key)
		assert.Equal(t, "x/y1", entries[1].Key)
		assert.Equal(t, "x/y2", entries[2].Key)
		assert.Contains(t, entries[1].BibTeX, "@article{DBLP:x/y1,")
	})

	t.Run("yaml", func(t *testing.T) {
		var buf bytes.Buffer
		res, err := s.Export(ctx, &buf, FormatYAML, ExportOptions{Keys: []string{"x/y2"}})
		require.NoError(t, err)
		assert.Empty(t, res.Missing)

		var entries []ExportEntry
		require.NoError(t, yaml.Unmarshal(buf.Bytes(), &entries))
		require.Len(t, entries, 1)
		assert.Equal(t, "A Study of Y", entries[0].Title)
		require.NotNil(t, entries[0].Year)
		assert.Equal(t, 2022, *entries[0].Year)
	})

	t.Run("empty selection", func(t *testing.T) {
		var buf bytes.Buffer
		res, err := s.ExportJSON(ctx, &buf, ExportOptions{})
		require.NoError(t, err)
		assert.Equal(t, 0, res.Exported)
		assert.JSONEq(t, `[]`, buf.String())
	})

	t.Run("only unknown keys", func(t *testing.T) {
		var buf bytes.Buffer
		res, err := s.ExportJSON(ctx, &buf, ExportOptions{Keys: []string{"no/1", "no/2"}})
		require.NoError(t, err)
		assert.Equal(t, []string{"no/1", "no/2"}, res.Missing)
		assert.JSONEq(t, `[]`, buf.String())
	})
}

func TestExportLimit(t *testing.T) {
	env := newEnv(t)
	env.writeCorpus(t, articles(25))
	env.build(t, 0)
	s := env.open(t)
	ctx := context.Background()

	for _, tt := range []struct {
		limit int
		want  int
	}{
		{limit: 0, want: 25},
		{limit: -3, want: 25},
		{limit: 7, want: 7},
	} {
		var buf bytes.Buffer
		res, err := s.ExportJSON(ctx, &buf, ExportOptions{Query: "graphs", MaxResults: tt.limit})
		require.NoError(t, err)
		assert.Equal(t, tt.want, res.Exported, "limit %d", tt.limit)

		var entries []ExportEntry
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entries))
		assert.Len(t, entries, tt.want, "limit %d", tt.limit)
	}
}

func TestParseExportFormat(t *testing.T) {
	for in, want := range map[string]ExportFormat{"": FormatYAML, "yaml": FormatYAML, "json": FormatJSON} {
		got, err := ParseExportFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseExportFormat("xml")
	assert.ErrorContains(t, err, `unsupported format "xml"`)

	_, err = (&Store{}).Export(context.Background(), &bytes.Buffer{}, ExportFormat("csv"), ExportOptions{})
	assert.ErrorContains(t, err, "unsupported format")
}
