// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package index

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/pdiddy/bibindex/pkg/types"
)

// Status reports whether a store exists at cfg and, if so, its build
// metadata and size. A missing store is not an error.
func Status(ctx context.Context, cfg types.StoreConfig) (types.StoreStatus, error) {
	s, err := Open(cfg)
	if err != nil {
		var notFound *StoreNotFoundError
		if errors.As(err, &notFound) {
			return types.StoreStatus{Present: false}, nil
		}
		return types.StoreStatus{}, err
	}
	defer s.Close()
	return s.Status(ctx)
}

// Status reports the build this handle currently serves. Metadata and size
// come from the same store file the next query will read.
func (s *Store) Status(ctx context.Context) (types.StoreStatus, error) {
	db, file, release, err := s.acquire()
	if err != nil {
		var notFound *StoreNotFoundError
		if errors.As(err, &notFound) {
			return types.StoreStatus{Present: false}, nil
		}
		return types.StoreStatus{}, err
	}
	defer release()

	meta, err := readMeta(ctx, db)
	if err != nil {
		return types.StoreStatus{}, err
	}

	st := types.StoreStatus{
		Present:   true,
		BuildID:   meta[metaBuildID],
		SizeBytes: file.Size(),
	}
	if v, ok := meta[metaIngestDate]; ok {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return types.StoreStatus{}, fmt.Errorf("parsing %s %q: %w", metaIngestDate, v, err)
		}
		st.IngestedAt = t
	}
	if v, ok := meta[metaRecordCount]; ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return types.StoreStatus{}, fmt.Errorf("parsing %s %q: %w", metaRecordCount, v, err)
		}
		st.RecordCount = n
	}
	return st, nil
}
