package netconfig

import "errors"

var (
	// ErrNoReachableBackend is returned when every candidate failed its probe.
	ErrNoReachableBackend = errors.New("no reachable backend")

	// ErrInvalidMode is returned for a mode other than online or offline.
	ErrInvalidMode = errors.New("invalid network mode")

	// ErrInvalidOrigin is returned for a base URL without scheme or host.
	ErrInvalidOrigin = errors.New("invalid origin")
)
