package api

import "errors"

var (
	// ErrServiceBusy is returned when the backend kept rate limiting a call.
	ErrServiceBusy = errors.New("service busy, try again later")

	// ErrInvalidArgument is returned for missing identifiers or payloads.
	ErrInvalidArgument = errors.New("invalid argument")
)
