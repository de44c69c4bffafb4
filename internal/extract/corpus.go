// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"bufio"
	"errors"
	"fmt"
	"os"

	"github.com/klauspost/compress/gzip"
)

const readBufferSize = 1 << 20

// Corpus is a Reader over a gzip-compressed dump file on disk.
type Corpus struct {
	*Reader
	file *os.File
	gz   *gzip.Reader
}

// OpenCorpus opens the compressed corpus at xmlPath for streaming, with
// entities taken from the DTD at dtdPath. Both files must exist; a
// missing one is reported as a *MissingPrerequisiteError.
func OpenCorpus(dtdPath, xmlPath string) (*Corpus, error) {
	for _, in := range []struct{ artifact, path string }{
		{"entity definitions", dtdPath},
		{"corpus", xmlPath},
	} {
		if _, err := os.Stat(in.path); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, &MissingPrerequisiteError{Artifact: in.artifact, Path: in.path}
			}
			return nil, fmt.Errorf("checking %s: %w", in.path, err)
		}
	}

	entities, err := LoadEntities(dtdPath)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(xmlPath)
	if err != nil {
		return nil, fmt.Errorf("opening corpus: %w", err)
	}
	gz, err := gzip.NewReader(bufio.NewReaderSize(f, readBufferSize))
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("opening gzip stream %s: %w", xmlPath, err)
	}

	return &Corpus{
		Reader: NewReader(entities, gz),
		file:   f,
		gz:     gz,
	}, nil
}

// Close releases the decompressor and the underlying file.
func (c *Corpus) Close() error {
	gzErr := c.gz.Close()
	if err := c.file.Close(); err != nil {
		return err
	}
	return gzErr
}
