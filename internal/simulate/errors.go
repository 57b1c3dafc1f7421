package simulate

import "errors"

var (
	// ErrUnhealthy is returned when the service does not answer /healthz.
	ErrUnhealthy = errors.New("service unhealthy")
	// ErrUnexpectedStatus is returned for HTTP responses the simulator does
	// not understand.
	ErrUnexpectedStatus = errors.New("unexpected status")
	// ErrMismatch is returned when the service disagrees with the local replay.
	ErrMismatch = errors.New("service disagrees with replay")
)
