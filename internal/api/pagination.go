package api

import (
	"net/http"

	"github.com/jdholdren/newsdesk/internal/serverutil"
)

// paginationMeta holds pagination metadata for API responses.
type paginationMeta struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Total  int `json:"total,omitempty"` // Only known when unfiltered
}

// parsePaginationParams parses pagination parameters from an HTTP request.
// Supports offset-based pagination (?offset=20&limit=10).
//
// A zero or oversized limit falls back to defaultLimit; anything that isn't a
// non-negative integer is a 400.
func parsePaginationParams(r *http.Request, defaultLimit, maxLimit int) (int, int, error) {
	limit, err := serverutil.QueryInt(r, "limit", defaultLimit)
	if err != nil {
		return 0, 0, err
	}
	if limit == 0 || limit > maxLimit {
		limit = defaultLimit
	}

	offset, err := serverutil.QueryInt(r, "offset", 0)
	if err != nil {
		return 0, 0, err
	}

	return limit, offset, nil
}
