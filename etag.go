package entityserve

import (
	"net/http"
	"net/textproto"
	"strings"
)

// scanETag determines if a syntactically valid ETag is present at s. If so,
// the ETag and the remaining text after consuming it are returned. Otherwise
// it returns "", "". An ETag is `"opaque"` or `W/"opaque"` per RFC 7232
// section 2.3.
func scanETag(s string) (etag, remain string) {
	s = textproto.TrimString(s)
	start := 0
	if strings.HasPrefix(s, "W/") {
		start = 2
	}
	if len(s[start:]) < 2 || s[start] != '"' {
		return "", ""
	}
	for i := start + 1; i < len(s); i++ {
		c := s[i]
		switch {
		case c == 0x21 || c >= 0x23 && c <= 0x7E || c >= 0x80:
		case c == '"':
			return s[:i+1], s[i+1:]
		default:
			return "", ""
		}
	}
	return "", ""
}

// strongEq reports whether a and b match under strong ETag comparison: both
// must be non-weak and byte-identical, opaque portion included.
func strongEq(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return a == b && a[0] == '"' && b[0] == '"'
}

// weakEq reports whether a and b match under weak ETag comparison: the
// opaque portions are byte-identical, ignoring any W/ prefix on either side.
func weakEq(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return strings.TrimPrefix(a, "W/") == strings.TrimPrefix(b, "W/")
}

// anyMatch implements the If-Match evaluation of section 4.3: true unless
// the header lists one or more tags, none of which strongly match etag.
func anyMatch(etag string, h http.Header) bool {
	im := h.Get("If-Match")
	if im == "" {
		return true
	}
	for {
		im = textproto.TrimString(im)
		if len(im) == 0 {
			break
		}
		if im[0] == ',' {
			im = im[1:]
			continue
		}
		if im[0] == '*' {
			return true
		}
		tag, remain := scanETag(im)
		if tag == "" {
			break
		}
		if etag != "" && strongEq(tag, etag) {
			return true
		}
		im = remain
	}
	return false
}

// noneMatch implements the If-None-Match evaluation of section 4.3: false
// if the header is `*` or lists a tag that weakly matches etag, true
// otherwise (including when the header is absent).
func noneMatch(etag string, h http.Header) bool {
	inm := h.Get("If-None-Match")
	if inm == "" {
		return true
	}
	for {
		inm = textproto.TrimString(inm)
		if len(inm) == 0 {
			break
		}
		if inm[0] == ',' {
			inm = inm[1:]
			continue
		}
		if inm[0] == '*' {
			return false
		}
		tag, remain := scanETag(inm)
		if tag == "" {
			break
		}
		if etag != "" && weakEq(tag, etag) {
			return false
		}
		inm = remain
	}
	return true
}
