package spatial

import "errors"

var (
	ErrInvalidDimensions = errors.New("spatial: grid dimensions must be positive")
	ErrInvalidBounds     = errors.New("spatial: grid bounds are empty")
)
