package domain

import "errors"

var (
	// ErrInvalidArgument marks malformed numeric input to the calculators.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrStorageFailure marks a failed record store operation. Surfaced to
	// the caller, never retried internally.
	ErrStorageFailure = errors.New("storage failure")
	// ErrDeliveryFailure marks a failed notification send. Logged and
	// swallowed; never blocks alert removal.
	ErrDeliveryFailure = errors.New("delivery failure")
)
