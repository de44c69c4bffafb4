// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package index

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/bibindex/internal/extract"
	"github.com/pdiddy/bibindex/internal/metrics"
	"github.com/pdiddy/bibindex/pkg/types"
)

// maxReportedSkips caps the per-record skip lines written during a build.
const maxReportedSkips = 20

// Build stream-parses the cached dump named by dump and replaces the store
// at cfg with a freshly built one. It returns the number of stored records.
//
// The new store is written to a temporary file in the store directory and
// renamed over the canonical path only after the FTS index and metadata are
// complete. On any error the temporary file is removed and the existing
// store is left untouched. Concurrent builds against one store must be
// serialized by the caller.
func Build(ctx context.Context, cfg types.StoreConfig, dump types.DumpConfig, opts types.IndexConfig, w io.Writer) (int, error) {
	corpus, err := extract.OpenCorpus(dump.DTDPath(), dump.XMLPath())
	if err != nil {
		return 0, err
	}
	defer corpus.Close()

	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = types.DefaultBatchSize
	}

	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return 0, fmt.Errorf("creating store directory: %w", err)
	}

	buildID := uuid.NewString()
	tmpPath := filepath.Join(cfg.Dir, ".bibindex-"+buildID+".db.tmp")

	db, err := createDatabase(tmpPath)
	if err != nil {
		os.Remove(tmpPath)
		return 0, err
	}
	committed := false
	defer func() {
		if !committed {
			db.Close()
			os.Remove(tmpPath)
		}
	}()

	out := &syncWriter{w: w}
	reported := 0
	corpus.OnSkip = func(err *extract.ExtractionError) {
		metrics.RecordsSkipped.WithLabelValues("extraction").Inc()
		if reported < maxReportedSkips {
			fmt.Fprintf(out, "skipped: %v\n", err)
		}
		reported++
	}

	fmt.Fprintf(out, "indexing %s into %s\n", dump.XMLPath(), cfg.DBPath())

	if err := load(ctx, db, corpus.Reader, batchSize, out); err != nil {
		return 0, err
	}

	// Rebuild the external-content index from the final table so it cannot
	// diverge from the stored rows.
	if _, err := db.ExecContext(ctx, `INSERT INTO publications_fts(publications_fts) VALUES('rebuild')`); err != nil {
		return 0, fmt.Errorf("rebuilding FTS index: %w", err)
	}

	var count int
	if err := db.QueryRowContext(ctx, `SELECT count(*) FROM publications`).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting records: %w", err)
	}

	if err := writeMeta(ctx, db, map[string]string{
		metaIngestDate:  time.Now().UTC().Format(time.RFC3339),
		metaRecordCount: strconv.Itoa(count),
		metaBuildID:     buildID,
	}); err != nil {
		return 0, err
	}

	if err := db.Close(); err != nil {
		return 0, fmt.Errorf("closing new store: %w", err)
	}
	committed = true

	if err := os.Rename(tmpPath, cfg.DBPath()); err != nil {
		os.Remove(tmpPath)
		return 0, fmt.Errorf("replacing store: %w", err)
	}

	stats := corpus.Stats()
	metrics.RecordsSkipped.WithLabelValues("untitled").Add(float64(stats.Untitled))
	metrics.RecordsSkipped.WithLabelValues("duplicate").Add(float64(stats.Yielded - count))
	fmt.Fprintf(out, "\nstored: %d, duplicates: %d, skipped: %d, untitled: %d\n",
		count, stats.Yielded-count, stats.Skipped, stats.Untitled)

	return count, nil
}

// createDatabase creates an empty store at path. Journaling is off: the
// file is private until renamed, and no -journal or -wal sidecar may be
// left behind.
func createDatabase(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=OFF&_synchronous=OFF")
	if err != nil {
		return nil, fmt.Errorf("creating database: %w", err)
	}
	db.SetMaxOpenConns(1)

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("creating schema: %w", err)
		}
	}
	return db, nil
}

// load runs extraction and insertion as a producer/consumer pair: the
// reader goroutine decodes records while the writer inserts full batches.
func load(ctx context.Context, db *sql.DB, r *extract.Reader, batchSize int, w io.Writer) error {
	records := make(chan types.Record, batchSize)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(records)
		for {
			rec, err := r.Next()
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				return err
			}
			metrics.RecordsExtracted.Inc()
			select {
			case records <- rec:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
	})

	g.Go(func() error {
		batch := make([]types.Record, 0, batchSize)
		total := 0
		flush := func() error {
			if err := insertBatch(gctx, db, batch); err != nil {
				return err
			}
			total += len(batch)
			batch = batch[:0]
			metrics.BuildBatches.Inc()
			fmt.Fprintf(w, "  %d records\n", total)
			return nil
		}

		for rec := range records {
			batch = append(batch, rec)
			if len(batch) >= batchSize {
				if err := flush(); err != nil {
					return err
				}
			}
		}
		if len(batch) > 0 {
			return flush()
		}
		return nil
	})

	return g.Wait()
}

// insertBatch inserts records in one transaction. A key that is already
// stored keeps its first record.
func insertBatch(ctx context.Context, db *sql.DB, batch []types.Record) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO publications (key, type, title, venue, year, url, authors)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range batch {
		authors := rec.Authors
		if authors == nil {
			authors = []string{}
		}
		authorsJSON, err := json.Marshal(authors)
		if err != nil {
			return fmt.Errorf("encoding authors of %s: %w", rec.Key, err)
		}

		var year any
		if rec.Year != nil {
			year = *rec.Year
		}

		if _, err := stmt.ExecContext(ctx,
			rec.Key, string(rec.Kind), rec.Title, rec.Venue, year, rec.URL, string(authorsJSON),
		); err != nil {
			return fmt.Errorf("inserting %s: %w", rec.Key, err)
		}
	}

	return tx.Commit()
}

// writeMeta replaces the build metadata in one transaction.
func writeMeta(ctx context.Context, db *sql.DB, meta map[string]string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM meta`); err != nil {
		return fmt.Errorf("clearing metadata: %w", err)
	}
	for k, v := range meta {
		if _, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO meta (key, value) VALUES (?, ?)`, k, v); err != nil {
			return fmt.Errorf("writing metadata %s: %w", k, err)
		}
	}
	return tx.Commit()
}

// syncWriter serializes progress lines from the reader and writer goroutines.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}
