package storage

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotFound            = errors.New("object not found")
	ErrEmptyKey            = errors.New("storage key must not be empty")
	ErrInvalidKey          = errors.New("storage key contains invalid path segment")
	ErrUnsupportedProvider = errors.New("unsupported storage provider")
)

// KeyError reports a rejected object key. It unwraps to ErrEmptyKey or
// ErrInvalidKey.
type KeyError struct {
	Key string
	Err error
}

func (e *KeyError) Error() string {
	return fmt.Sprintf("%v: %q", e.Err, e.Key)
}

func (e *KeyError) Unwrap() error {
	return e.Err
}

// MapHTTPStatus maps storage errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrEmptyKey), errors.Is(err, ErrInvalidKey):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
