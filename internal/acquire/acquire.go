// Package acquire downloads the DBLP dump artifacts into the local cache.
// Downloads are idempotent: an artifact already on disk is kept unless a
// refresh is forced.
package acquire

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/pdiddy/bibindex/internal/httputil"
	"github.com/pdiddy/bibindex/internal/metrics"
	"github.com/pdiddy/bibindex/pkg/types"
)

const chunkSize = 1 << 20

// progressStep is how many bytes pass between progress lines.
const progressStep = 64 << 20

// Result holds the outcome of an EnsurePresent run.
type Result struct {
	Downloaded int
	Skipped    int
}

// AcquisitionError reports a failed download. The cached artifact, if
// any, is unchanged. Acquisition does not retry.
type AcquisitionError struct {
	URL string
	Err error
}

func (e *AcquisitionError) Error() string {
	return fmt.Sprintf("downloading %s: %v", e.URL, e.Err)
}

func (e *AcquisitionError) Unwrap() error { return e.Err }

// Artifact is one remote file of the dump and its cache location.
type Artifact struct {
	Name string
	URL  string
	Path string
}

// Artifacts lists the dump artifacts in download order: entity
// definitions first, then the corpus.
func Artifacts(cfg types.DumpConfig) []Artifact {
	return []Artifact{
		{Name: "entity definitions", URL: cfg.DTDURL, Path: cfg.DTDPath()},
		{Name: "corpus", URL: cfg.XMLURL, Path: cfg.XMLPath()},
	}
}

// EnsurePresent downloads the entity-definition file and the compressed
// corpus into cfg.CacheDir. An artifact that already exists is skipped
// unless force is set. Progress lines are written to w.
func EnsurePresent(ctx context.Context, client *http.Client, cfg types.DumpConfig, force bool, w io.Writer) (Result, error) {
	var result Result

	if err := os.MkdirAll(cfg.CacheDir, 0o755); err != nil {
		return result, fmt.Errorf("creating cache directory %s: %w", cfg.CacheDir, err)
	}

	for _, a := range Artifacts(cfg) {
		if !force {
			if _, err := os.Stat(a.Path); err == nil {
				fmt.Fprintf(w, "skipped: %s (already exists, use --force to re-download)\n", a.Path)
				result.Skipped++
				continue
			} else if !errors.Is(err, os.ErrNotExist) {
				return result, fmt.Errorf("checking %s: %w", a.Path, err)
			}
		}

		fmt.Fprintf(w, "downloading: %s (%s)\n", a.Name, a.URL)
		n, err := downloadFile(ctx, client, a.URL, a.Path, cfg, w)
		if err != nil {
			return result, err
		}
		fmt.Fprintf(w, "saved: %s (%d bytes)\n", a.Path, n)
		result.Downloaded++
	}

	return result, nil
}

// downloadFile streams url to destPath through a temporary file in the
// same directory and renames it into place only on success.
func downloadFile(ctx context.Context, client *http.Client, url, destPath string, cfg types.DumpConfig, w io.Writer) (int64, error) {
	resp, err := httputil.Get(ctx, client, url, cfg.UserAgent)
	if err != nil {
		return 0, &AcquisitionError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".acquire-*.tmp")
	if err != nil {
		return 0, fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	pw := &progressWriter{
		w:       w,
		total:   resp.ContentLength,
		counter: metrics.DownloadBytes.WithLabelValues(filepath.Base(destPath)),
	}
	n, copyErr := io.CopyBuffer(io.MultiWriter(tmpFile, pw), resp.Body, make([]byte, chunkSize))
	closeErr := tmpFile.Close()
	if copyErr != nil {
		os.Remove(tmpPath)
		return 0, &AcquisitionError{URL: url, Err: copyErr}
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return 0, fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return 0, fmt.Errorf("renaming temp file: %w", err)
	}
	return n, nil
}
