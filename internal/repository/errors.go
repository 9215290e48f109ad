package repository

import "errors"

var (
	// ErrNotFound is returned when a referenced order, product, inventory
	// record or rule does not exist.
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidTransition is returned for an illegal or stale order status
	// move, including a conditional update that matched zero rows.
	ErrInvalidTransition = errors.New("invalid order status transition")

	// ErrInsufficientStock is returned when an adjustment would drive
	// current stock or product quantity negative. Nothing is mutated.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrInvalidRule is returned for a malformed auto-reorder configuration.
	ErrInvalidRule = errors.New("invalid reorder rule")

	ErrInvalidInput = errors.New("invalid input data")
	ErrNotAllowed   = errors.New("operation not allowed for this user")
	ErrDuplicate    = errors.New("duplicate resource")

	// ErrStoreUnavailable wraps transport-level store failures. Callers may
	// retry with backoff; the core never retries internally.
	ErrStoreUnavailable = errors.New("store unavailable")
)
