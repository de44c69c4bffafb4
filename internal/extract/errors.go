// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import "fmt"

// MissingPrerequisiteError reports that a dump artifact required for a
// build is not on disk.
type MissingPrerequisiteError struct {
	// Artifact names the missing input ("entity definitions" or "corpus").
	Artifact string
	Path     string
}

func (e *MissingPrerequisiteError) Error() string {
	return fmt.Sprintf("%s not found at %s: run `bibindex dump` first", e.Artifact, e.Path)
}

// ExtractionError describes why a single record was skipped. It never
// aborts the stream.
type ExtractionError struct {
	Key    string
	Reason string
}

func (e *ExtractionError) Error() string {
	if e.Key == "" {
		return "record skipped: " + e.Reason
	}
	return fmt.Sprintf("record %s skipped: %s", e.Key, e.Reason)
}
