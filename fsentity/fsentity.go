// Package fsentity provides an os.File-backed entityserve.Entity, the
// filesystem counterpart to the static-mode examples in the teacher's
// ServeFile/ServeContent pair.
package fsentity

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// File is an entityserve.Entity backed by a single file on disk. Its ETag is
// a weak tag derived from size and modification time, cheap enough to
// recompute on every request without hashing file contents.
type File struct {
	path        string
	size        int64
	modTime     time.Time
	contentType string
	etag        string
}

// Open stats path and returns a File entity for it. The content type is
// sniffed from the extension, falling back to a content-based sniff of the
// first 512 bytes if the extension is unrecognized.
func Open(path string) (*File, error) {
	path = filepath.Clean(path)
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("fsentity: stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("fsentity: %s is a directory", path)
	}

	contentType := mime.TypeByExtension(filepath.Ext(path))
	if contentType == "" {
		contentType, err = sniff(path)
		if err != nil {
			return nil, err
		}
	}

	f := &File{path: path, size: info.Size(), modTime: info.ModTime(), contentType: contentType}
	f.etag = weakETag(f.size, f.modTime)
	return f, nil
}

func sniff(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("fsentity: open %s: %w", path, err)
	}
	defer file.Close()

	var buf [512]byte
	n, _ := io.ReadFull(file, buf[:])
	return http.DetectContentType(buf[:n]), nil
}

// weakETag derives a weak validator from size and modification time, the
// same ingredients net/http's ServeContent uses for its Last-Modified
// comparisons, hashed so the wire value doesn't leak either directly.
func weakETag(size int64, modTime time.Time) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%d:%d", size, modTime.UnixNano())))
	return `W/"` + hex.EncodeToString(sum[:8]) + `"`
}

func (f *File) Len() int64 { return f.size }

// GetRange opens the file fresh for every call, since entityserve may ask
// for disjoint ranges (in a multipart response) whose readers must be
// independently seekable and safe to read concurrently with each other.
func (f *File) GetRange(start, end int64) io.Reader {
	file, err := os.Open(f.path)
	if err != nil {
		return errReader{err}
	}
	if _, err := file.Seek(start, io.SeekStart); err != nil {
		file.Close()
		return errReader{err}
	}
	return &closingLimitReader{file: file, remaining: end - start}
}

func (f *File) AddHeaders(h http.Header) {
	if f.contentType != "" {
		h.Set("Content-Type", f.contentType)
	}
}

func (f *File) ETag() string { return f.etag }

func (f *File) LastModified() time.Time { return f.modTime }

// closingLimitReader reads at most `remaining` bytes from file, closing it
// once exhausted so a multipart response's per-part readers don't leak file
// descriptors while the rest of the body is still streaming.
type closingLimitReader struct {
	file      *os.File
	remaining int64
	closed    bool
}

func (r *closingLimitReader) Read(p []byte) (int, error) {
	if r.remaining <= 0 {
		r.close()
		return 0, io.EOF
	}
	if int64(len(p)) > r.remaining {
		p = p[:r.remaining]
	}
	n, err := r.file.Read(p)
	r.remaining -= int64(n)
	if err != nil || r.remaining <= 0 {
		r.close()
	}
	return n, err
}

func (r *closingLimitReader) close() {
	if !r.closed {
		r.closed = true
		r.file.Close()
	}
}

type errReader struct{ err error }

func (e errReader) Read([]byte) (int, error) { return 0, e.err }
