package errors

import "errors"

var (
	// ErrNotFound is a generic sentinel for missing resources.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument is a generic sentinel for invalid input.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrQuotaExhausted marks a user with no replies left today. Not a failure;
	// callers treat it as a normal early-return condition.
	ErrQuotaExhausted = errors.New("daily reply quota exhausted")
	// ErrNoActiveTargets marks a user with nothing to monitor right now.
	ErrNoActiveTargets = errors.New("no active monitoring targets")
)
