package entityserve

import (
	"fmt"
	"net/http"
	"time"
)

// evaluateConditionals computes the precondition_failed and not_modified
// verdicts of RFC 7232 section 6, following the teacher's If-Match /
// If-Unmodified-Since / If-None-Match / If-Modified-Since check order. It
// returns an error if a required header fails to parse (non-ASCII value or
// unparseable date); Serve converts that into 400 Bad Request.
func evaluateConditionals(etag string, h http.Header, lastModified time.Time) (preconditionFailed, notModified bool, err error) {
	preconditionFailed, err = checkIfMatch(etag, h, lastModified)
	if err != nil {
		return false, false, err
	}

	notModified, err = checkIfNoneMatch(etag, h, lastModified)
	if err != nil {
		return false, false, err
	}

	return preconditionFailed, notModified, nil
}

// checkIfMatch implements the first two steps of section 6: If-Match is
// authoritative when present; If-Unmodified-Since is consulted only when
// If-Match is absent entirely, never as a tie-breaker alongside it.
func checkIfMatch(etag string, h http.Header, lastModified time.Time) (bool, error) {
	if h.Get("If-Match") != "" {
		if !anyMatch(etag, h) {
			return true, nil
		}
		return false, nil
	}
	if since := h.Get("If-Unmodified-Since"); since != "" && !lastModified.IsZero() {
		t, err := parseHTTPDate(since)
		if err != nil {
			return false, fmt.Errorf("unparseable If-Unmodified-Since: %q", since)
		}
		if lastModified.Truncate(time.Second).After(t) {
			return true, nil
		}
	}
	return false, nil
}

// checkIfNoneMatch mirrors checkIfMatch for the If-None-Match /
// If-Modified-Since pair: If-Modified-Since only applies when If-None-Match
// is absent.
func checkIfNoneMatch(etag string, h http.Header, lastModified time.Time) (bool, error) {
	if h.Get("If-None-Match") != "" {
		if !noneMatch(etag, h) {
			return true, nil
		}
		return false, nil
	}
	if since := h.Get("If-Modified-Since"); since != "" && !lastModified.IsZero() {
		t, err := parseHTTPDate(since)
		if err != nil {
			return false, fmt.Errorf("unparseable If-Modified-Since: %q", since)
		}
		if !lastModified.Truncate(time.Second).After(t) {
			return true, nil
		}
	}
	return false, nil
}

// checkIfRange implements section 4.5 step 4. It reports whether the Range
// header should be honored, and whether representation headers should be
// included in a resulting partial response. The two are independent: an
// absent If-Range honors the range AND includes representation headers; an
// etag-form If-Range that strongly matches honors the range but suppresses
// representation headers; anything else (non-matching etag, or any date
// form — the source's strict stance, preserved per spec.md's open question)
// drops the range but includes representation headers.
func checkIfRange(etag string, h http.Header) (honorRange, includeEntityHeaders bool) {
	ir := h.Get("If-Range")
	if ir == "" {
		return true, true
	}
	if len(ir) > 0 && (ir[0] == '"' || (len(ir) > 2 && ir[0] == 'W' && ir[1] == '/' && ir[2] == '"')) {
		if etag != "" && strongEq(ir, etag) {
			return true, false
		}
		return false, true
	}
	// Date form: never honored.
	return false, true
}
