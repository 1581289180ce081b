package apperrors

import "errors"

// Standardized exchange and environment errors
var (
	ErrNetwork              = errors.New("network error")
	ErrOrderRejected        = errors.New("order rejected")
	ErrOrderNotFound        = errors.New("order not found")
	ErrRateLimitExceeded    = errors.New("rate limit exceeded")
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrDuplicateOrder       = errors.New("duplicate order")

	// ErrSyncPending marks a reset barrier attempt that found the simulator
	// not yet aligned with the episode start; it is always retried.
	ErrSyncPending = errors.New("simulator not aligned with episode start")

	// ErrSyncTimeout is returned when the reset barrier exhausts its
	// attempt budget without the simulator reaching the episode start.
	ErrSyncTimeout = errors.New("timed out synchronizing with simulator period")
)
