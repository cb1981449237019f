package field

import "errors"

// Error kinds reported at call boundaries. Callers can classify failures
// with errors.Is.
var (
	// ErrInvalidArgument marks out-of-range or contradictory parameters.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrShapeMismatch marks inputs whose sizes must agree but do not.
	ErrShapeMismatch = errors.New("shape mismatch")

	// ErrIndexOutOfRange marks an index lookup that escaped its container,
	// which indicates a broken spatial index.
	ErrIndexOutOfRange = errors.New("index out of range")
)
