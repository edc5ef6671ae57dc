package recommendations

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/soilguardian/internal/classifier"
	"github.com/JaimeStill/soilguardian/internal/soil"
	"github.com/JaimeStill/soilguardian/internal/store"
	"github.com/JaimeStill/soilguardian/pkg/validation"
)

// ErrInvalidRequest indicates a malformed recommendation request.
var ErrInvalidRequest = errors.New("invalid recommendation request")

// MapHTTPStatus maps recommendation errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, validation.ErrInvalid),
		errors.Is(err, soil.ErrInvalidValue),
		errors.Is(err, store.ErrInvalidFilter):
		return http.StatusBadRequest
	}
	return classifier.MapHTTPStatus(err)
}

func invalid(err error) bool {
	return MapHTTPStatus(err) == http.StatusBadRequest
}
