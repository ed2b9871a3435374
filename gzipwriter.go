package entityserve

import (
	"io"

	"github.com/klauspost/compress/gzip"
)

// BodyWriter is the facade streaming_body hands to the caller: a
// synchronous Write/Flush/Close/Abort surface over the chunked sink,
// optionally compressing through gzip. Write, Flush and Close block under
// the sink's backpressure; Abort never blocks.
type BodyWriter struct {
	sink  *ChunkedSink
	gz    *gzip.Writer // nil when Raw
	level int
}

// newRawBodyWriter wraps sink with no compression.
func newRawBodyWriter(sink *ChunkedSink) *BodyWriter {
	return &BodyWriter{sink: sink}
}

// newGzipBodyWriter wraps sink with a gzip compressor at the given level
// (1..9). Level 0 degenerates to Raw, per section 4.8.
func newGzipBodyWriter(sink *ChunkedSink, level int) *BodyWriter {
	if level <= 0 {
		return newRawBodyWriter(sink)
	}
	gz, err := gzip.NewWriterLevel(sink, level)
	if err != nil {
		// Only returned for out-of-range levels; we've already clamped
		// level to (0, 9], so fall back to the default rather than panic.
		gz = gzip.NewWriter(sink)
	}
	return &BodyWriter{sink: sink, gz: gz, level: level}
}

// Write feeds p through the compressor (if active) and into the chunked
// sink, blocking under backpressure exactly as ChunkedSink.Write does.
func (w *BodyWriter) Write(p []byte) (int, error) {
	if w.gz != nil {
		return w.gz.Write(p)
	}
	return w.sink.Write(p)
}

// Flush flushes any buffered compressed/uncompressed bytes to the sink.
func (w *BodyWriter) Flush() error {
	if w.gz != nil {
		if err := w.gz.Flush(); err != nil {
			return err
		}
	}
	return w.sink.Flush()
}

// Close finalizes the gzip trailer (if active) before closing the
// underlying sink, on every exit path including error.
func (w *BodyWriter) Close() error {
	var gzErr error
	if w.gz != nil {
		gzErr = w.gz.Close()
	}
	sinkErr := w.sink.Close()
	if gzErr != nil {
		return gzErr
	}
	return sinkErr
}

// Abort signals a fatal error downstream without finalizing the gzip
// trailer (there is nothing useful to finalize on an aborted stream).
func (w *BodyWriter) Abort(err error) {
	w.sink.Abort(err)
}

var _ io.WriteCloser = (*BodyWriter)(nil)
