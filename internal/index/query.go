// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package index

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/pdiddy/bibindex/internal/cite"
	"github.com/pdiddy/bibindex/internal/metrics"
	"github.com/pdiddy/bibindex/pkg/types"
)

const recordColumns = `p.key, p.type, p.title, p.venue, p.year, p.url, p.authors`

const searchQuery = `SELECT ` + recordColumns + `
	FROM publications_fts
	JOIN publications p ON p.rowid = publications_fts.rowid
	WHERE publications_fts MATCH ?
	ORDER BY publications_fts.rank, p.rowid
	LIMIT ?`

const getQuery = `SELECT ` + recordColumns + ` FROM publications p WHERE p.key = ?`

// BuildMatchQuery turns free text into an FTS5 query. Each whitespace
// separated token becomes a quoted string, so punctuation is never read as
// query syntax, and the strings are joined by FTS5's implicit AND. Tokens
// without a letter or digit are dropped because they index to nothing.
// The result is empty when no usable token remains.
func BuildMatchQuery(title string) string {
	var terms []string
	for _, tok := range strings.Fields(title) {
		if strings.IndexFunc(tok, isWordRune) < 0 {
			continue
		}
		terms = append(terms, `"`+strings.ReplaceAll(tok, `"`, `""`)+`"`)
	}
	return strings.Join(terms, " ")
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// SearchPublications returns at most maxResults records whose titles
// contain every token of title, best FTS5 rank first. Ties are broken by
// insertion order. An empty title matches nothing.
func (s *Store) SearchPublications(ctx context.Context, title string, maxResults int) ([]types.Record, error) {
	if maxResults <= 0 {
		return []types.Record{}, nil
	}
	return s.search(ctx, title, maxResults)
}

// search runs a title match. A negative limit returns every match.
func (s *Store) search(ctx context.Context, title string, limit int) ([]types.Record, error) {
	match := BuildMatchQuery(title)
	if match == "" || limit == 0 {
		return []types.Record{}, nil
	}

	db, _, release, err := s.acquire()
	if err != nil {
		return nil, err
	}
	defer release()

	timer := prometheus.NewTimer(metrics.SearchDuration)
	defer timer.ObserveDuration()

	// SQLite treats a negative LIMIT as no limit.
	rows, err := db.QueryContext(ctx, searchQuery, match, limit)
	if err != nil {
		return nil, fmt.Errorf("searching publications: %w", err)
	}
	defer rows.Close()

	results := []types.Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, rec)
	}
	return results, rows.Err()
}

// Get returns the record stored under key, or nil if there is none.
func (s *Store) Get(ctx context.Context, key string) (*types.Record, error) {
	db, _, release, err := s.acquire()
	if err != nil {
		return nil, err
	}
	defer release()

	rec, err := scanRecord(db.QueryRowContext(ctx, getQuery, key))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// GetBibTeX renders the record stored under key as BibTeX. The boolean is
// false when the key is unknown.
func (s *Store) GetBibTeX(ctx context.Context, key string) (string, bool, error) {
	rec, err := s.Get(ctx, key)
	if err != nil || rec == nil {
		return "", false, err
	}
	return cite.BibTeX(*rec), true, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (types.Record, error) {
	var (
		rec     types.Record
		kind    string
		venue   sql.NullString
		year    sql.NullInt64
		url     sql.NullString
		authors sql.NullString
	)
	if err := row.Scan(&rec.Key, &kind, &rec.Title, &venue, &year, &url, &authors); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return rec, err
		}
		return rec, fmt.Errorf("scanning record: %w", err)
	}

	rec.Kind = types.RecordKind(kind)
	rec.Venue = venue.String
	rec.URL = url.String
	if year.Valid {
		y := int(year.Int64)
		rec.Year = &y
	}
	if authors.Valid && authors.String != "" {
		if err := json.Unmarshal([]byte(authors.String), &rec.Authors); err != nil {
			return rec, fmt.Errorf("decoding authors of %s: %w", rec.Key, err)
		}
	}
	return rec, nil
}
