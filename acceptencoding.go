package entityserve

import (
	"net/http"
	"strconv"
	"strings"
)

// ShouldGzip decides whether a gzip representation is preferable to
// identity for the Accept-Encoding header in h, per RFC 7231 section 5.3.4.
// It is exposed directly so callers who pre-buffer gzipped vs. identity
// representations can reuse the same negotiation the core applies in
// StreamingBody.
func ShouldGzip(h http.Header) bool {
	raw := h.Get("Accept-Encoding")
	if raw == "" {
		return false
	}

	var gzipQ, identityQ, starQ int
	var haveGzip, haveIdentity, haveStar bool

	for _, elem := range strings.Split(raw, ",") {
		elem = strings.TrimSpace(elem)
		if elem == "" {
			continue
		}
		coding, qPart, hasQ := strings.Cut(elem, ";")
		coding = strings.ToLower(strings.TrimSpace(coding))
		q := 1000
		if hasQ {
			var ok bool
			q, ok = parseQValue(qPart)
			if !ok {
				return false
			}
		}
		switch coding {
		case "gzip":
			gzipQ, haveGzip = q, true
		case "identity":
			identityQ, haveIdentity = q, true
		case "*":
			starQ, haveStar = q, true
		}
	}

	effectiveGzip := 0
	if haveGzip {
		effectiveGzip = gzipQ
	} else if haveStar {
		effectiveGzip = starQ
	}

	effectiveIdentity := 1000
	if haveIdentity {
		effectiveIdentity = identityQ
	} else if haveStar {
		effectiveIdentity = starQ
	}

	return effectiveGzip > 0 && effectiveGzip >= effectiveIdentity
}

// parseQValue parses the `;q=...` portion of an Accept-Encoding element
// (a leading ";" on qPart is skipped if present), returning the value scaled
// to millis.
// Only the qvalue forms RFC 7231 section 5.3.1 permits are accepted:
// "0", "0.", "0.d", "0.dd", "0.ddd", "1", "1.", "1.0", "1.00", "1.000".
func parseQValue(qPart string) (millis int, ok bool) {
	qPart = strings.TrimSpace(qPart)
	qPart = strings.TrimPrefix(qPart, ";")
	qPart = strings.TrimSpace(qPart)
	name, value, found := strings.Cut(qPart, "=")
	if !found || strings.ToLower(strings.TrimSpace(name)) != "q" {
		return 0, false
	}
	value = strings.TrimSpace(value)

	if value == "" {
		return 0, false
	}
	whole := value[0]
	if whole != '0' && whole != '1' {
		return 0, false
	}
	rest := value[1:]
	if rest == "" {
		if whole == '0' {
			return 0, true
		}
		return 1000, true
	}
	if rest[0] != '.' {
		return 0, false
	}
	digits := rest[1:]
	if len(digits) > 3 {
		return 0, false
	}
	for _, c := range digits {
		if c < '0' || c > '9' {
			return 0, false
		}
	}
	// Pad to 3 digits and scale to millis.
	for len(digits) < 3 {
		digits += "0"
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	if whole == '1' {
		if n != 0 {
			return 0, false
		}
		return 1000, true
	}
	return n, true
}
