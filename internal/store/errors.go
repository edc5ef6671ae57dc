package store

import (
	"errors"
	"net/http"
)

var (
	// ErrInvalidFilter indicates a malformed filter query parameter.
	ErrInvalidFilter = errors.New("invalid filter")
	// ErrUnknownFarm indicates a record references a farm that does not exist.
	ErrUnknownFarm = errors.New("unknown farm")
	// ErrDuplicate indicates a record with the same ID already exists.
	ErrDuplicate = errors.New("duplicate record")
	// ErrUnsupportedProvider indicates an unknown store provider name.
	ErrUnsupportedProvider = errors.New("unsupported store provider")
)

// MapHTTPStatus maps store errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrInvalidFilter), errors.Is(err, ErrUnknownFarm):
		return http.StatusBadRequest
	case errors.Is(err, ErrDuplicate):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}
