package device

import "errors"

var (
	// ErrDetectionUnavailable marks a detection tier whose tool is missing,
	// failed, or produced output that could not be parsed. The detector
	// recovers from it by moving to the next tier.
	ErrDetectionUnavailable = errors.New("detection unavailable")
	// ErrInvalidSelection reports a selection index outside the detected set.
	ErrInvalidSelection = errors.New("invalid device selection")
)
