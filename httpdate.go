package entityserve

import (
	"net/http"
	"time"
)

// parseHTTPDate parses s per the three date formats RFC 7231 section 7.1.1.1
// permits a recipient to accept: IMF-fixdate, RFC 850, and asctime. It
// returns a zero Time and a non-nil error if none match.
func parseHTTPDate(s string) (time.Time, error) {
	return http.ParseTime(s)
}

// formatHTTPDate renders t in RFC 7231 IMF-fixdate form, the only form a
// sender may emit.
func formatHTTPDate(t time.Time) string {
	return t.UTC().Format(http.TimeFormat)
}
