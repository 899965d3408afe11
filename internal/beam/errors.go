package beam

import "errors"

var (
	// ErrInvalidIndex is returned for an array handle or element index
	// outside the current bounds.
	ErrInvalidIndex = errors.New("invalid index")

	ErrInvalidCount     = errors.New("element count out of range")
	ErrInvalidSpacing   = errors.New("spacing must be positive")
	ErrInvalidFrequency = errors.New("frequency must be positive")
	ErrInvalidSpeed     = errors.New("propagation speed must be positive")
	ErrInvalidGrid      = errors.New("grid needs 2 to 2000 rows and columns and positive extents")
)
