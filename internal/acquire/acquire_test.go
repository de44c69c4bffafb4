// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package acquire

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/bibindex/internal/httputil"
	"github.com/pdiddy/bibindex/pkg/types"
)

const (
	dtdBody = `<!ENTITY auml "&#228;" >`
	xmlBody = "not really gzip, only bytes"
)

type dumpServer struct {
	*httptest.Server
	calls  atomic.Int32
	status int
}

func newDumpServer(t *testing.T) *dumpServer {
	t.Helper()
	ds := &dumpServer{status: http.StatusOK}
	ds.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ds.calls.Add(1)
		if ds.status != http.StatusOK {
			w.WriteHeader(ds.status)
			return
		}
		switch r.URL.Path {
		case "/xml/dblp.dtd":
			w.Write([]byte(dtdBody))
		case "/xml/dblp.xml.gz":
			w.Write([]byte(xmlBody))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(ds.Close)
	return ds
}

func (ds *dumpServer) config(t *testing.T) types.DumpConfig {
	return types.DumpConfig{
		HTTPConfig: types.HTTPConfig{Timeout: 5 * time.Second, UserAgent: "bibindex/test"},
		CacheDir:   filepath.Join(t.TempDir(), "cache"),
		DTDURL:     ds.URL + "/xml/dblp.dtd",
		XMLURL:     ds.URL + "/xml/dblp.xml.gz",
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestEnsurePresentDownloads(t *testing.T) {
	ds := newDumpServer(t)
	cfg := ds.config(t)

	var out bytes.Buffer
	result, err := EnsurePresent(context.Background(), ds.Client(), cfg, false, &out)
	require.NoError(t, err)

	assert.Equal(t, Result{Downloaded: 2}, result)
	assert.Equal(t, dtdBody, readFile(t, cfg.DTDPath()))
	assert.Equal(t, xmlBody, readFile(t, cfg.XMLPath()))
	assert.Contains(t, out.String(), "downloading: entity definitions")
	assert.Contains(t, out.String(), "downloading: corpus")
}

func TestEnsurePresentSkipsExisting(t *testing.T) {
	ds := newDumpServer(t)
	cfg := ds.config(t)

	require.NoError(t, os.MkdirAll(cfg.CacheDir, 0o755))
	require.NoError(t, os.WriteFile(cfg.DTDPath(), []byte("cached dtd"), 0o644))

	var out bytes.Buffer
	result, err := EnsurePresent(context.Background(), ds.Client(), cfg, false, &out)
	require.NoError(t, err)

	assert.Equal(t, Result{Downloaded: 1, Skipped: 1}, result)
	assert.Equal(t, "cached dtd", readFile(t, cfg.DTDPath()))
	assert.Equal(t, int32(1), ds.calls.Load())
	assert.Contains(t, out.String(), "skipped: "+cfg.DTDPath())

	// Second run is a no-op.
	result, err = EnsurePresent(context.Background(), ds.Client(), cfg, false, &out)
	require.NoError(t, err)
	assert.Equal(t, Result{Skipped: 2}, result)
	assert.Equal(t, int32(1), ds.calls.Load())
}

func TestEnsurePresentForce(t *testing.T) {
	ds := newDumpServer(t)
	cfg := ds.config(t)

	require.NoError(t, os.MkdirAll(cfg.CacheDir, 0o755))
	require.NoError(t, os.WriteFile(cfg.DTDPath(), []byte("stale"), 0o644))
	require.NoError(t, os.WriteFile(cfg.XMLPath(), []byte("stale"), 0o644))

	result, err := EnsurePresent(context.Background(), ds.Client(), cfg, true, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, Result{Downloaded: 2}, result)
	assert.Equal(t, dtdBody, readFile(t, cfg.DTDPath()))
}

func TestEnsurePresentFailureKeepsCachedArtifact(t *testing.T) {
	ds := newDumpServer(t)
	ds.status = http.StatusBadGateway
	cfg := ds.config(t)

	require.NoError(t, os.MkdirAll(cfg.CacheDir, 0o755))
	require.NoError(t, os.WriteFile(cfg.DTDPath(), []byte("cached dtd"), 0o644))

	_, err := EnsurePresent(context.Background(), ds.Client(), cfg, true, &bytes.Buffer{})

	var acqErr *AcquisitionError
	require.ErrorAs(t, err, &acqErr)
	assert.Equal(t, cfg.DTDURL, acqErr.URL)
	var statusErr *httputil.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusBadGateway, statusErr.StatusCode)
	assert.Equal(t, int32(1), ds.calls.Load(), "acquisition does not retry")

	assert.Equal(t, "cached dtd", readFile(t, cfg.DTDPath()))
	entries, err := os.ReadDir(cfg.CacheDir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp file is left behind")
}

func TestEnsurePresentTruncatedBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		// Promise more bytes than are sent so the client sees an unexpected EOF.
		w.Header().Set("Content-Length", "1000")
		w.Write([]byte("partial"))
	}))
	defer ts.Close()

	cfg := types.DumpConfig{
		CacheDir: t.TempDir(),
		DTDURL:   ts.URL + "/dblp.dtd",
		XMLURL:   ts.URL + "/dblp.xml.gz",
	}

	_, err := EnsurePresent(context.Background(), ts.Client(), cfg, false, &bytes.Buffer{})
	var acqErr *AcquisitionError
	require.ErrorAs(t, err, &acqErr)

	_, statErr := os.Stat(cfg.DTDPath())
	assert.True(t, os.IsNotExist(statErr), "truncated download is never renamed into place")
	entries, err := os.ReadDir(cfg.CacheDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestProgressWriter(t *testing.T) {
	var out bytes.Buffer
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "test_download_bytes_total"})
	pw := &progressWriter{w: &out, total: 3 * progressStep, counter: counter}

	chunk := make([]byte, progressStep/2)
	for i := 0; i < 6; i++ {
		n, err := pw.Write(chunk)
		require.NoError(t, err)
		assert.Equal(t, len(chunk), n)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.Len(t, lines, 3)
	assert.Contains(t, lines[len(lines)-1], "%")
	assert.Equal(t, int64(3*progressStep), pw.written)
	assert.Equal(t, float64(3*progressStep), testutil.ToFloat64(counter))
}
