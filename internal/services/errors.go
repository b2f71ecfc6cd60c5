package services

import "errors"

// Business-rule failures surfaced to handlers. Handlers match these with
// errors.Is and map them to HTTP statuses; anything else is treated as an
// internal failure and never leaks details to the caller.
var (
	// ErrNotFound covers a missing order, an order owned by another user,
	// and a missing line item. The cases are deliberately indistinguishable
	// so existence is never leaked.
	ErrNotFound = errors.New("not found")

	// ErrInvalidState rejects an operation illegal in the order's current
	// status, e.g. a return on a non-delivered order.
	ErrInvalidState = errors.New("operation not allowed in current order status")

	// ErrInvalidTransition rejects a status change the transition table
	// does not permit.
	ErrInvalidTransition = errors.New("illegal order status transition")

	// ErrConflict rejects a duplicate return request on a line item that
	// already has an active return.
	ErrConflict = errors.New("return already requested")

	// ErrExpired rejects a return requested after the 7-day window.
	ErrExpired = errors.New("return period has expired")

	// ErrEmptyCart rejects order creation from an empty cart.
	ErrEmptyCart = errors.New("cart is empty")

	// ErrValidation rejects missing or malformed request data.
	ErrValidation = errors.New("validation failed")
)
