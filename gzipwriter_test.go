package entityserve

import (
	"bytes"
	"io"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRawBodyWriterPassesBytesThrough(t *testing.T) {
	sink, stream := NewChunkedSink(1024)
	w := newRawBodyWriter(sink)

	go func() {
		w.Write([]byte("plain text"))
		w.Close()
	}()

	got, err := io.ReadAll(stream)
	require.NoError(t, err)
	assert.Equal(t, "plain text", string(got))
}

func TestGzipBodyWriterProducesValidGzip(t *testing.T) {
	sink, stream := NewChunkedSink(1024)
	w := newGzipBodyWriter(sink, 6)

	payload := bytes.Repeat([]byte("compress me please "), 200)
	go func() {
		w.Write(payload)
		w.Close()
	}()

	raw, err := io.ReadAll(stream)
	require.NoError(t, err)

	zr, err := gzip.NewReader(bytes.NewReader(raw))
	require.NoError(t, err)
	decoded, err := io.ReadAll(zr)
	require.NoError(t, err)
	assert.Equal(t, payload, decoded)
	assert.Less(t, len(raw), len(payload), "compressible payload should shrink")
}

func TestGzipBodyWriterLevelZeroDegeneratesToRaw(t *testing.T) {
	sink, _ := NewChunkedSink(1024)
	w := newGzipBodyWriter(sink, 0)
	assert.Nil(t, w.gz)
}

func TestGzipBodyWriterAbortSkipsTrailer(t *testing.T) {
	// The 10-byte gzip header fills exactly one chunk; "abcd" stays inside
	// the compressor until Abort discards it.
	sink, stream := NewChunkedSink(10)
	w := newGzipBodyWriter(sink, 6)

	go func() {
		w.Write([]byte("abcd"))
		w.Abort(nil)
	}()

	buf := make([]byte, 10)
	_, err := stream.Read(buf)
	require.NoError(t, err)

	_, err = stream.Read(buf)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}
