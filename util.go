package entityserve

import (
	"net/http"
	"sort"
)

// sortedHeaderKeys returns h's keys in a deterministic order, so rendered
// multipart part headers (and any other byte-exact output) don't vary
// between calls for the same entity.
func sortedHeaderKeys(h http.Header) []string {
	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
