// Package services defines the business logic for carts, orders, and the
// conversational transcript. This file centralizes common service-level error
// values so that they can be consistently returned by service methods and
// checked by callers.
//
// These errors are intended for internal use by the service layer and
// translation into user-facing messages or HTTP status codes should be
// performed at the handler/controller layer.
package services

import (
	"errors"
	"fmt"
)

// Cart-related errors.
var (
	// ErrEmptyCart is returned when an operation requires a cart with at
	// least one item (invoice generation, payment-info issuance).
	ErrEmptyCart = errors.New("cart is empty")

	// ErrProductNotFound indicates a referenced product does not exist or
	// is inactive.
	ErrProductNotFound = errors.New("product not found")

	// ErrInvalidQuantity is returned for zero or negative item quantities.
	ErrInvalidQuantity = errors.New("quantity must be positive")
)

// Order-related errors.
var (
	// ErrEmptyOrder is returned when a storefront order arrives with no items.
	ErrEmptyOrder = errors.New("order has no items")

	// ErrInvalidPaymentMethod is returned when the storefront payment method
	// is outside the accepted set.
	ErrInvalidPaymentMethod = errors.New("invalid payment method")

	// ErrOrderNotFound indicates the requested order does not exist.
	ErrOrderNotFound = errors.New("order not found")

	// ErrInvalidStatus is returned when a status string is outside the
	// closed lifecycle set.
	ErrInvalidStatus = errors.New("invalid order status")

	// ErrInvalidTransition is returned when a status change is not allowed
	// by the lifecycle transition table.
	ErrInvalidTransition = errors.New("illegal status transition")

	// ErrNoPendingOrder is returned by payment confirmation when the
	// customer has no order awaiting payment.
	ErrNoPendingOrder = errors.New("no pending order")
)

// InsufficientStockError reports which product blocked an order and how many
// units remained. It unwraps to ErrInsufficientStock so callers can match
// with errors.Is without caring about the details.
type InsufficientStockError struct {
	ProductID   uint
	ProductName string
	Requested   int
	Available   int
}

// ErrInsufficientStock is the sentinel for any stock shortage.
var ErrInsufficientStock = errors.New("insufficient stock")

// Error implements the error interface.
func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %q: requested %d, available %d",
		e.ProductName, e.Requested, e.Available)
}

// Unwrap lets errors.Is(err, ErrInsufficientStock) match.
func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }
