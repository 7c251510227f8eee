package http

import (
	"net/http"
	"strconv"
	"time"

	"nucleus/pkg/config"
	apperrors "nucleus/pkg/errors"
)

// ExtractLimitOffset reads pagination params from the query string and clamps
// them to the configured bounds.
func ExtractLimitOffset(r *http.Request) (int, int64, error) {
	query := r.URL.Query()

	limit := 0
	if s := query.Get("limit"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			return 0, 0, apperrors.InvalidInput("invalid limit parameter: " + s)
		}
		limit = v
	}

	var offset int64
	if s := query.Get("offset"); s != "" {
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, 0, apperrors.InvalidInput("invalid offset parameter: " + s)
		}
		offset = v
	}

	return config.NormalizePaginationLimit(limit), config.NormalizeOffset(offset), nil
}

// ExtractDate reads an optional YYYY-MM-DD query parameter. Returns nil when
// the parameter is absent.
func ExtractDate(r *http.Request, param string) (*time.Time, error) {
	s := r.URL.Query().Get(param)
	if s == "" {
		return nil, nil
	}
	day, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, apperrors.InvalidInput("invalid " + param + " parameter, must be YYYY-MM-DD: " + s)
	}
	return &day, nil
}
