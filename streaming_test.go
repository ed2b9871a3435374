package entityserve

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamingBodyVaryAlwaysSet(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	res, w := StreamingBody(r).Build()
	assert.Equal(t, "accept-encoding", res.Header.Get("Vary"))
	require.NotNil(t, w)
	w.Close()
}

func TestStreamingBodyNegotiatesGzip(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Accept-Encoding", "gzip")
	res, w := StreamingBody(r).Build()
	assert.Equal(t, "gzip", res.Header.Get("Content-Encoding"))

	payload := []byte("hello streaming world")
	go func() {
		w.Write(payload)
		w.Close()
	}()

	raw, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	zr, err := gzip.NewReader(bytes.NewReader(raw))
	require.NoError(t, err)
	decoded, err := io.ReadAll(zr)
	require.NoError(t, err)
	assert.Equal(t, payload, decoded)
}

func TestStreamingBodyNoGzipWhenNotAccepted(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	res, w := StreamingBody(r).Build()
	assert.Empty(t, res.Header.Get("Content-Encoding"))

	go func() {
		w.Write([]byte("plain"))
		w.Close()
	}()
	got, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	assert.Equal(t, "plain", string(got))
}

func TestStreamingBodyGzipLevelZeroDisablesCompressionRegardless(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Accept-Encoding", "gzip")
	res, w := StreamingBody(r).GzipLevel(0).Build()
	assert.Empty(t, res.Header.Get("Content-Encoding"))

	go func() {
		w.Write([]byte("plain"))
		w.Close()
	}()
	got, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	assert.Equal(t, "plain", string(got))
}

func TestStreamingBodyHeadGetsNilWriter(t *testing.T) {
	r := httptest.NewRequest(http.MethodHead, "/", nil)
	res, w := StreamingBody(r).Build()
	assert.Nil(t, w)

	got, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStreamingBodyNeverSetsContentLength(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	res, w := StreamingBody(r).Build()
	assert.Empty(t, res.Header.Get("Content-Length"))
	assert.Equal(t, int64(-1), res.ContentLength)
	w.Close()
}

func TestStreamingBodyChunkSizeOverride(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	b := StreamingBody(r).ChunkSize(64)
	assert.Equal(t, 64, b.chunkSize)

	b.ChunkSize(0)
	assert.Equal(t, 64, b.chunkSize, "non-positive override is ignored")
}
