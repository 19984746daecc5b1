package pagination

import (
	"fmt"
	"net/http"
	"strconv"
)

// Params are the pagination values requested by the caller.
type Params struct {
	Page  int // 1-based
	Limit int
}

// ParseQueryParams reads the page and limit query parameters, filling
// in config defaults for absent ones. A present but malformed or
// out-of-range value is an error; on error the returned Params still
// hold the defaults so handlers can respond with a usable fallback.
func ParseQueryParams(r *http.Request, config Config) (Params, error) {
	params := Params{
		Page:  config.DefaultPage,
		Limit: config.DefaultLimit,
	}

	if pageStr := r.URL.Query().Get("page"); pageStr != "" {
		page, err := strconv.Atoi(pageStr)
		if err != nil || page < 1 {
			return params, fmt.Errorf("invalid query parameter: page must be a positive integer")
		}
		params.Page = page
	}

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 1 || limit > config.MaxLimit {
			return params, fmt.Errorf("invalid query parameter: limit must be between 1 and %d", config.MaxLimit)
		}
		params.Limit = limit
	}

	return params, nil
}
