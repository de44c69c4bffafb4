// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package index

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryFileRoundTripFromStore(t *testing.T) {
	env := newEnv(t)
	env.writeCorpus(t, article("x/y1", "A Study of X", "TEST", 2021)+article("x/y2", "Other Work", "TEST", 2020))
	env.build(t, 10)
	store := env.open(t)
	ctx := context.Background()

	recs, err := store.SearchPublications(ctx, "study", 5)
	require.NoError(t, err)
	buildID, err := store.BuildID(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, buildID)

	path := filepath.Join(t.TempDir(), "search.yaml")
	require.NoError(t, WriteQueryFile(path, QueryParams{Title: "study", MaxResults: 5}, buildID, recs))

	qf, err := ReadQueryFile(path)
	require.NoError(t, err)
	assert.Equal(t, "study", qf.Query.Title)
	assert.Equal(t, 5, qf.Query.MaxResults)
	assert.Equal(t, 1, qf.Summary.Total)
	assert.Equal(t, buildID, qf.Summary.BuildID)
	assert.False(t, qf.Summary.Timestamp.IsZero())
	assert.Equal(t, recs, qf.Results)
}

func TestQueryFileEmptyResults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.yaml")
	require.NoError(t, WriteQueryFile(path, QueryParams{Title: "nothing"}, "", nil))

	qf, err := ReadQueryFile(path)
	require.NoError(t, err)
	assert.NotNil(t, qf.Results)
	assert.Empty(t, qf.Results)
	assert.Equal(t, 0, qf.Summary.Total)
}

func TestReadQueryFileErrors(t *testing.T) {
	_, err := ReadQueryFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "reading query file")

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("query: [unterminated"), 0o644))
	_, err = ReadQueryFile(bad)
	assert.ErrorContains(t, err, "parsing query file")
}
