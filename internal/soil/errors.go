package soil

import "errors"

var (
	// ErrInvalidRange indicates a reference range whose width is not positive.
	ErrInvalidRange = errors.New("invalid reference range")
	// ErrInvalidValue indicates a sample value that cannot be used in computation.
	ErrInvalidValue = errors.New("invalid soil value")
)
