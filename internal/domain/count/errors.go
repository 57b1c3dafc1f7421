package count

import "errors"

// Sentinel kinds for count errors.
var (
	// ErrPrecondition marks a call to Accept that skipped the guard checks.
	ErrPrecondition = errors.New("count precondition violated")
	ErrNegative     = errors.New("count must not be negative")
)
