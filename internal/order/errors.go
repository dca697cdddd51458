package order

import (
	"errors"
	"fmt"
)

var (
	ErrOrderNotFound    = errors.New("order not found")
	ErrValidation       = errors.New("invalid order")
	ErrForbidden        = errors.New("not allowed to access this order")
	ErrAlreadyPaid      = errors.New("order is already paid")
	ErrAlreadyDelivered = errors.New("order is already delivered")
	ErrNotPaid          = errors.New("order must be paid before it is delivered")

	ErrInvalidStatusTransition = errors.New("invalid order status transition")
	ErrDuplicateIdempotencyKey = errors.New("order with this idempotency key already exists")

	// ErrTrackingInput is returned when the tracking lookup lacks an id or email.
	ErrTrackingInput = errors.New("order id and email are required")
	// ErrTrackingUnverified covers both an unknown order and an email mismatch,
	// so callers cannot probe which orders exist.
	ErrTrackingUnverified = errors.New("could not verify an order with these details")
)

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
