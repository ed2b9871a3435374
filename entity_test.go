package entityserve

import (
	"bytes"
	"io"
	"net/http"
	"time"
)

// memEntity is a trivial in-memory Entity used across the test suite,
// mirroring the teacher's os.File-backed ServeContent fixture but held
// entirely in a byte slice for deterministic, allocation-free tests.
type memEntity struct {
	data         []byte
	etag         string
	lastModified time.Time
	contentType  string
}

func (e *memEntity) Len() int64 { return int64(len(e.data)) }

func (e *memEntity) GetRange(start, end int64) io.Reader {
	return bytes.NewReader(e.data[start:end])
}

func (e *memEntity) AddHeaders(h http.Header) {
	if e.contentType != "" {
		h.Set("Content-Type", e.contentType)
	}
}

func (e *memEntity) ETag() string { return e.etag }

func (e *memEntity) LastModified() time.Time { return e.lastModified }

var _ Entity = (*memEntity)(nil)
