package classifier

import (
	"errors"
	"net/http"
)

var (
	// ErrModelUnavailable indicates no usable model artifact could be loaded.
	ErrModelUnavailable = errors.New("model unavailable")
	// ErrFeatureMismatch indicates the input does not carry the features the
	// model was trained on.
	ErrFeatureMismatch = errors.New("feature mismatch")
	// ErrInvalidModel indicates a malformed model artifact.
	ErrInvalidModel = errors.New("invalid model")
	// ErrEmptyDataset indicates training was attempted without samples.
	ErrEmptyDataset = errors.New("empty dataset")
)

// MapHTTPStatus maps classifier errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrModelUnavailable) {
		return http.StatusServiceUnavailable
	}
	if errors.Is(err, ErrFeatureMismatch) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
