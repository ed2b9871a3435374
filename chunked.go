package entityserve

import (
	"io"
	"sync"
)

// defaultChunkSize is the chunk size StreamingBody uses when the caller
// doesn't override it.
const defaultChunkSize = 4096

// chunkedCore is the shared state between a ChunkedSink and its paired
// ChunkedStream: a single-producer/single-consumer handoff of one chunk at
// a time (section 4.7/5), plus the close/abort/reader-gone signals.
type chunkedCore struct {
	dataCh   chan []byte   // unbuffered: a send only completes once the reader has received it
	doneCh   chan struct{} // closed by the stream side when its reader gives up
	finishCh chan struct{} // closed exactly once, by Close or Abort

	finishOnce sync.Once
	finishErr  error // valid once finishCh is closed; nil means a clean close (EOF)

	doneOnce sync.Once
}

func newChunkedCore() *chunkedCore {
	return &chunkedCore{
		dataCh:   make(chan []byte),
		doneCh:   make(chan struct{}),
		finishCh: make(chan struct{}),
	}
}

func (c *chunkedCore) finish(err error) {
	c.finishOnce.Do(func() {
		c.finishErr = err
		close(c.finishCh)
	})
}

// ChunkedSink is the write-facing half of the chunked body pipe. Bytes
// written are buffered up to chunkSize; once the buffer would overflow, the
// full chunk is handed off to the paired ChunkedStream and a new buffer is
// started. Write and Flush block until the stream's reader consumes the
// handed-off chunk, which is the pipe's backpressure mechanism.
type ChunkedSink struct {
	core      *chunkedCore
	chunkSize int
	buf       []byte
}

// ChunkedStream is the pull-based, read-facing half of the chunked body
// pipe. It implements io.ReadCloser; closing it tells the sink side that
// the reader has gone away, so further writes fail with ErrReaderGone.
type ChunkedStream struct {
	core     *chunkedCore
	leftover []byte
	err      error
	gotErr   bool
}

// NewChunkedSink creates a chunked sink/stream pair. A chunkSize of 0 or
// less uses defaultChunkSize.
func NewChunkedSink(chunkSize int) (*ChunkedSink, *ChunkedStream) {
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}
	core := newChunkedCore()
	return &ChunkedSink{core: core, chunkSize: chunkSize}, &ChunkedStream{core: core}
}

// Write buffers p, emitting full chunks to the paired stream as the buffer
// fills. It blocks while the downstream reader isn't consuming.
func (s *ChunkedSink) Write(p []byte) (n int, err error) {
	for len(p) > 0 {
		space := s.chunkSize - len(s.buf)
		take := space
		if take > len(p) {
			take = len(p)
		}
		s.buf = append(s.buf, p[:take]...)
		p = p[take:]
		n += take
		if len(s.buf) >= s.chunkSize {
			chunk := s.buf
			s.buf = nil
			if sendErr := s.emit(chunk); sendErr != nil {
				return n, sendErr
			}
		}
	}
	return n, nil
}

// Flush emits any partially-filled buffer to the paired stream.
func (s *ChunkedSink) Flush() error {
	if len(s.buf) == 0 {
		return nil
	}
	chunk := s.buf
	s.buf = nil
	return s.emit(chunk)
}

// Close flushes any remaining buffer, then signals end-of-stream to the
// paired stream. Close is idempotent.
func (s *ChunkedSink) Close() error {
	err := s.Flush()
	s.core.finish(nil)
	return err
}

// Abort signals a fatal error to the paired stream's reader; the framing
// layer downstream is expected to convert that into an abrupt connection
// termination. Abort is idempotent and safe to call instead of Close.
func (s *ChunkedSink) Abort(err error) {
	if err == nil {
		err = io.ErrUnexpectedEOF
	}
	s.core.finish(err)
}

func (s *ChunkedSink) emit(chunk []byte) error {
	select {
	case s.core.dataCh <- chunk:
		return nil
	case <-s.core.doneCh:
		return ErrReaderGone
	case <-s.core.finishCh:
		return ErrSinkClosed
	}
}

// Read implements io.Reader, pulling chunks from the paired sink.
func (t *ChunkedStream) Read(p []byte) (int, error) {
	if len(t.leftover) == 0 {
		if t.gotErr {
			return 0, t.err
		}
		select {
		case chunk := <-t.core.dataCh:
			t.leftover = chunk
		case <-t.core.finishCh:
			t.gotErr = true
			if t.core.finishErr != nil {
				t.err = t.core.finishErr
			} else {
				t.err = io.EOF
			}
			return 0, t.err
		}
	}
	n := copy(p, t.leftover)
	t.leftover = t.leftover[n:]
	return n, nil
}

// Close signals to the sink side that this stream's reader has given up;
// any write in progress or subsequent write fails with ErrReaderGone.
func (t *ChunkedStream) Close() error {
	t.core.doneOnce.Do(func() { close(t.core.doneCh) })
	return nil
}

var _ io.ReadCloser = (*ChunkedStream)(nil)
