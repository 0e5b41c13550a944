package database

import "errors"

var (
	// ErrNotFound signals that the requested entity does not exist. Terminal:
	// callers should render an empty state, not retry.
	ErrNotFound = errors.New("record not found")

	// ErrInsufficientCapacity is returned when the conditional spot decrement
	// affects zero rows: another booking took the capacity first.
	ErrInsufficientCapacity = errors.New("insufficient capacity")

	// ErrPromoExhausted is returned when the conditional usage increment
	// affects zero rows at commit time.
	ErrPromoExhausted = errors.New("promo code exhausted at commit")

	// ErrValidation marks rejected input. Wrap it with field detail.
	ErrValidation = errors.New("validation failed")
)
