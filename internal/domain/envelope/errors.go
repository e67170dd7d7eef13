package envelope

import "errors"

// Sentinel kinds for envelope errors.
var (
	ErrInvalidJSON   = errors.New("invalid json payload")
	ErrMalformedItem = errors.New("malformed item")
)
