package tmdb

import (
	"errors"
	"fmt"
)

// ErrCatalogUnavailable indicates that the external catalog could not
// serve the request (transport failure or a 4xx/5xx response). Callers
// must abort their flow and write nothing to persistence.
var ErrCatalogUnavailable = errors.New("movie catalog is unavailable")

// APIError carries the status of a failed catalog response. It wraps
// ErrCatalogUnavailable so callers can match on the sentinel.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("catalog API error: status %d: %s", e.StatusCode, e.Body)
}

func (e *APIError) Unwrap() error {
	return ErrCatalogUnavailable
}
