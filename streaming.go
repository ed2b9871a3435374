package entityserve

import (
	"net/http"
)

const defaultGzipLevel = 6

// StreamingBuilder assembles a streaming response per section 4.9: the
// caller writes bytes into the returned BodyWriter and the library streams
// them to the client, optionally through gzip, without knowing the final
// length in advance.
type StreamingBuilder struct {
	header     http.Header
	chunkSize  int
	gzipLevel  int
	method     string
}

// StreamingBody starts building a streaming response for r. Defaults are
// chunk_size=4096, gzip_level=6; override with ChunkSize/GzipLevel before
// calling Build.
func StreamingBody(r *http.Request) *StreamingBuilder {
	return &StreamingBuilder{
		header:    r.Header,
		chunkSize: defaultChunkSize,
		gzipLevel: defaultGzipLevel,
		method:    r.Method,
	}
}

// ChunkSize overrides the sink's buffering chunk size.
func (b *StreamingBuilder) ChunkSize(n int) *StreamingBuilder {
	if n > 0 {
		b.chunkSize = n
	}
	return b
}

// GzipLevel overrides the gzip compression level (0..9); 0 disables
// compression even if the client would accept it.
func (b *StreamingBuilder) GzipLevel(n int) *StreamingBuilder {
	if n < 0 {
		n = 0
	}
	if n > 9 {
		n = 9
	}
	b.gzipLevel = n
	return b
}

// Build assembles the response and, unless the request is HEAD, a
// BodyWriter the caller writes bytes into. The response never sets
// Content-Length; the transport layer is expected to apply chunked framing.
func (b *StreamingBuilder) Build() (*Response, *BodyWriter) {
	shouldGzip := ShouldGzip(b.header)

	res := newResponse(http.StatusOK)
	res.Header.Add("Vary", "accept-encoding")
	if shouldGzip && b.gzipLevel > 0 {
		res.Header.Set("Content-Encoding", "gzip")
	}

	sink, stream := NewChunkedSink(b.chunkSize)
	res.Body = stream

	if b.method == http.MethodHead {
		_ = sink.Close()
		return res, nil
	}

	var writer *BodyWriter
	if shouldGzip && b.gzipLevel > 0 {
		writer = newGzipBodyWriter(sink, b.gzipLevel)
	} else {
		writer = newRawBodyWriter(sink)
	}
	return res, writer
}
