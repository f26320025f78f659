// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// This file centralizes symbolic error code constants that are mapped to HTTP
// responses (via the `fail()` helper in this package). These codes provide
// clients with a stable, machine-readable error taxonomy that supplements
// human-readable messages.
//
// Conventions:
//   - Codes are lowercase, snake_case, and domain-agnostic unless explicitly noted.
//   - Generic codes (e.g., bad_request, not_found) mirror common HTTP status
//     semantics to aid interoperability. The auth middleware emits its own
//     "unauthorized" envelope before requests reach this package.
//   - Domain-specific codes (insufficient_stock, invalid_transition) let
//     storefront clients branch on commerce failures that a bare status code
//     cannot convey.
package handlers

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeForbidden        = "forbidden"
	ErrCodeNotFound         = "not_found"
	ErrCodeInternal         = "internal_error"
	ErrCodeMethodNotAllowed = "method_not_allowed"

	// Domain-specific:
	ErrCodeInsufficientStock = "insufficient_stock"
	ErrCodeInvalidTransition = "invalid_transition"
	ErrCodeUnsupportedMedia  = "unsupported_media_type"
)
