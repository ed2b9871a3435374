package entityserve

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
)

// multipartBoundary is the literal boundary the core always uses. It is
// fixed (rather than randomly generated, as mime/multipart.Writer would)
// because section 4.6 requires a byte-exact, precomputed Content-Length,
// which a random boundary can't give us up front.
const multipartBoundary = "B"

const multipartTrailer = "\r\n--B--\r\n"

// serveMultipart builds the 206 Partial Content response for a multi-range
// GET/HEAD, per section 4.6: a multipart/byteranges body with a precomputed
// Content-Length and, for GET, a lazy stream of 2N+1 parts.
func serveMultipart(res *Response, e Entity, method string, ranges []Range, length int64, includeEntityHeaders bool) *Response {
	perPartHeaders := renderPerPartHeaders(e, includeEntityHeaders)

	headerBlocks := make([][]byte, len(ranges))
	var bodyLen int64
	for i, rg := range ranges {
		block := []byte(fmt.Sprintf("\r\n--%s\r\nContent-Range: bytes %d-%d/%d\r\n", multipartBoundary, rg.Start, rg.End-1, length))
		block = append(block, perPartHeaders...)
		headerBlocks[i] = block
		bodyLen += int64(len(block)) + rg.Len()
	}
	bodyLen += int64(len(multipartTrailer))

	res.StatusCode = http.StatusPartialContent
	res.Header.Set("Content-Type", "multipart/byteranges; boundary="+multipartBoundary)
	res.Header.Set("Content-Length", fmt.Sprintf("%d", bodyLen))
	res.ContentLength = bodyLen

	if method == http.MethodHead {
		res.Body = http.NoBody
		return res
	}

	parts := make([]io.Reader, 0, 2*len(ranges)+1)
	for i, rg := range ranges {
		parts = append(parts, bytes.NewReader(headerBlocks[i]), e.GetRange(rg.Start, rg.End))
	}
	parts = append(parts, bytes.NewReader([]byte(multipartTrailer)))
	res.Body = io.MultiReader(parts...)
	return res
}

// renderPerPartHeaders renders the representation headers shared by every
// part, as `key: value\r\n` lines followed by a blank line, or just a blank
// line if representation headers are to be suppressed (section 4.6 step 1).
func renderPerPartHeaders(e Entity, includeEntityHeaders bool) []byte {
	if !includeEntityHeaders {
		return []byte("\r\n")
	}
	h := make(http.Header)
	e.AddHeaders(h)
	var buf bytes.Buffer
	for _, key := range sortedHeaderKeys(h) {
		for _, v := range h[key] {
			buf.WriteString(key)
			buf.WriteString(": ")
			buf.WriteString(v)
			buf.WriteString("\r\n")
		}
	}
	buf.WriteString("\r\n")
	return buf.Bytes()
}
