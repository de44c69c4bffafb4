// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the bibindex pipeline:
// the DBLP Record extracted from the dump, store status, and the
// configuration values passed into every stage.
package types

import (
	"encoding/json"
	"time"
)

// RecordKind identifies the DBLP element a Record was extracted from.
type RecordKind string

const (
	KindArticle       RecordKind = "article"
	KindInproceedings RecordKind = "inproceedings"
)

// IsValid reports whether k is one of the indexed record kinds.
func (k RecordKind) IsValid() bool {
	return k == KindArticle || k == KindInproceedings
}

// Record is one bibliographic entry from the DBLP dump.
type Record struct {
	// Key is the DBLP key (e.g. "conf/nips/SmithJ23"). Unique per corpus.
	Key string `json:"key" yaml:"key"`

	// Kind is article or inproceedings.
	Kind RecordKind `json:"type" yaml:"type"`

	// Title is trimmed with trailing periods removed. Never empty.
	Title string `json:"title" yaml:"title"`

	// Venue is the journal (articles) or booktitle (conference papers).
	Venue string `json:"venue,omitempty" yaml:"venue,omitempty"`

	// Year is nil when the dump has no parsable year.
	Year *int `json:"year,omitempty" yaml:"year,omitempty"`

	// URL is the electronic edition link.
	URL string `json:"url,omitempty" yaml:"url,omitempty"`

	// Authors lists the authors in document order.
	Authors []string `json:"authors" yaml:"authors"`
}

// StoreStatus describes the on-disk store. When Present is false every
// other field is zero.
type StoreStatus struct {
	Present     bool      `json:"present" yaml:"present"`
	IngestedAt  time.Time `json:"ingested_at,omitzero" yaml:"ingested_at,omitempty"`
	RecordCount int       `json:"record_count" yaml:"record_count"`
	BuildID     string    `json:"build_id,omitempty" yaml:"build_id,omitempty"`
	SizeBytes   int64     `json:"size_bytes,omitempty" yaml:"size_bytes,omitempty"`
}

// MarshalJSON writes an absent store as {"present":false} alone. A present
// store always carries record_count, including when it is zero.
func (s StoreStatus) MarshalJSON() ([]byte, error) {
	if !s.Present {
		return []byte(`{"present":false}`), nil
	}
	type plain StoreStatus
	return json.Marshal(plain(s))
}

// SizeMB returns the store size in mebibytes.
func (s StoreStatus) SizeMB() float64 {
	return float64(s.SizeBytes) / (1024 * 1024)
}
