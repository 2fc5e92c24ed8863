package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/jonathan/resumator/internal/fetch"
	"github.com/jonathan/resumator/internal/ingestion"
)

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// ErrStoreUnavailable is returned by record endpoints when no database is configured.
var ErrStoreUnavailable = errors.New("record storage is not configured")

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var validationErr *ErrValidation
	var fetchErr *fetch.Error
	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest
	case errors.Is(err, ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &fetchErr) && fetchErr.StatusCode == http.StatusNotFound:
		return http.StatusNotFound
	case errors.Is(err, ingestion.ErrHTTPRequestFailed), errors.Is(err, ingestion.ErrBrowserFailed):
		return http.StatusBadGateway
	case errors.Is(err, ingestion.ErrExtractionFailed):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
