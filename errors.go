package entityserve

import "errors"

var (
	// ErrInvalidRange is not returned by anything in this package: a Range
	// header that doesn't match the `bytes=` grammar at all resolves to
	// ResolvedRanges.None (a non-`bytes=` header is inapplicable, not an
	// error).
	ErrInvalidRange = errors.New("invalid range")

	// ErrReaderGone is returned by a chunked sink Write/Flush after its
	// reader side has been abandoned.
	ErrReaderGone = errors.New("entityserve: reader gone")

	// ErrSinkClosed is returned by a chunked sink Write/Flush after Close
	// or Abort has already been called.
	ErrSinkClosed = errors.New("entityserve: sink closed")
)
