// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package index

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/bibindex/pkg/types"
)

// QueryFile is a saved title search and its results. Reloading it replays
// the results without opening the store.
type QueryFile struct {
	Query   QueryParams    `yaml:"query"`
	Results []types.Record `yaml:"results"`
	Summary QuerySummary   `yaml:"summary"`
}

// QueryParams records the search inputs.
type QueryParams struct {
	Title      string `yaml:"title"`
	MaxResults int    `yaml:"max_results"`
}

// QuerySummary records which store answered the search and when.
type QuerySummary struct {
	Total     int       `yaml:"total"`
	BuildID   string    `yaml:"build_id,omitempty"`
	Timestamp time.Time `yaml:"timestamp"`
}

// WriteQueryFile saves a search and its results to a YAML file. buildID
// identifies the store that produced them and may be empty.
func WriteQueryFile(path string, params QueryParams, buildID string, results []types.Record) error {
	qf := QueryFile{
		Query:   params,
		Results: results,
		Summary: QuerySummary{
			Total:     len(results),
			BuildID:   buildID,
			Timestamp: time.Now().UTC(),
		},
	}

	data, err := yaml.Marshal(&qf)
	if err != nil {
		return fmt.Errorf("marshaling query file: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadQueryFile loads a saved search from disk.
func ReadQueryFile(path string) (*QueryFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading query file: %w", err)
	}
	var qf QueryFile
	if err := yaml.Unmarshal(data, &qf); err != nil {
		return nil, fmt.Errorf("parsing query file: %w", err)
	}
	if qf.Results == nil {
		qf.Results = []types.Record{}
	}
	return &qf, nil
}
