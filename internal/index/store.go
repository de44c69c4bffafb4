// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package index builds and queries the local DBLP store: a SQLite database
// holding the publications table, an FTS5 index over titles, and build
// metadata. A build writes a fresh database next to the canonical one and
// renames it into place, so readers only ever see completed builds.
package index

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/bibindex/pkg/types"
)

// Metadata keys in the meta table.
const (
	metaIngestDate  = "ingest_date"
	metaRecordCount = "record_count"
	metaBuildID     = "build_id"
)

var schema = []string{
	`CREATE TABLE publications (
		key     TEXT PRIMARY KEY,
		type    TEXT NOT NULL,
		title   TEXT NOT NULL,
		venue   TEXT,
		year    INTEGER,
		url     TEXT,
		authors TEXT
	)`,
	`CREATE VIRTUAL TABLE publications_fts USING fts5(title, content=publications, content_rowid=rowid)`,
	`CREATE TABLE meta (
		key   TEXT PRIMARY KEY,
		value TEXT
	)`,
}

// StoreNotFoundError reports a query against a store that has not been built.
type StoreNotFoundError struct {
	Path string
}

func (e *StoreNotFoundError) Error() string {
	return fmt.Sprintf("local DBLP store not found at %s: run `bibindex ingest` to download and index the DBLP dump", e.Path)
}

// Store is a read-only handle on a completed store. It is safe for
// concurrent use. When a build replaces the store file, the next query
// reopens the database, so queries on one handle never mix two builds.
type Store struct {
	path string

	mu   sync.RWMutex
	db   *sql.DB
	file os.FileInfo
}

// Open opens the store described by cfg for reading. It returns a
// *StoreNotFoundError if no build has completed at that location.
func Open(cfg types.StoreConfig) (*Store, error) {
	path := cfg.DBPath()
	db, file, err := openReadOnly(path)
	if err != nil {
		return nil, err
	}
	return &Store{path: path, db: db, file: file}, nil
}

// openReadOnly stats path before opening it. Connections are made after
// the stat, so every connection of the pool reads that file or a later one.
func openReadOnly(path string) (*sql.DB, os.FileInfo, error) {
	file, err := statStore(path)
	if err != nil {
		return nil, nil, err
	}

	db, err := sql.Open("sqlite3", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("opening database %s: %w", path, err)
	}
	return db, file, nil
}

func statStore(path string) (os.FileInfo, error) {
	file, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &StoreNotFoundError{Path: path}
		}
		return nil, fmt.Errorf("checking store: %w", err)
	}
	return file, nil
}

// acquire returns the pool for the build currently at the store path and
// the file it reads, reopening the database if a build has replaced the
// file since the last query. The caller must call release once it is done
// with the pool.
func (s *Store) acquire() (*sql.DB, os.FileInfo, func(), error) {
	for {
		current, err := statStore(s.path)
		if err != nil {
			return nil, nil, nil, err
		}

		s.mu.RLock()
		if s.db == nil {
			s.mu.RUnlock()
			return nil, nil, nil, errStoreClosed
		}
		if os.SameFile(current, s.file) {
			return s.db, s.file, s.mu.RUnlock, nil
		}
		s.mu.RUnlock()

		if err := s.reopen(current); err != nil {
			return nil, nil, nil, err
		}
	}
}

// reopen swaps in a pool on the new store file unless another query has
// already done so.
func (s *Store) reopen(current os.FileInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return errStoreClosed
	}
	if os.SameFile(current, s.file) {
		return nil
	}

	db, file, err := openReadOnly(s.path)
	if err != nil {
		return err
	}
	s.db.Close()
	s.db, s.file = db, file
	return nil
}

var errStoreClosed = errors.New("store is closed")

// Close releases the database connections.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// Path returns the database file backing the store.
func (s *Store) Path() string {
	return s.path
}

// BuildID returns the identifier of the build the store was written by.
func (s *Store) BuildID(ctx context.Context) (string, error) {
	db, _, release, err := s.acquire()
	if err != nil {
		return "", err
	}
	defer release()

	m, err := readMeta(ctx, db)
	if err != nil {
		return "", err
	}
	return m[metaBuildID], nil
}

// readMeta reads the metadata table into a map.
func readMeta(ctx context.Context, db *sql.DB) (map[string]string, error) {
	rows, err := db.QueryContext(ctx, `SELECT key, value FROM meta`)
	if err != nil {
		return nil, fmt.Errorf("reading metadata: %w", err)
	}
	defer rows.Close()

	meta := make(map[string]string)
	for rows.Next() {
		var key string
		var value sql.NullString
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scanning metadata: %w", err)
		}
		meta[key] = value.String
	}
	return meta, rows.Err()
}
