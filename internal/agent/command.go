// Package agent contains the conversational tool layer: the sealed command
// set the decision-maker may select, the dispatcher that executes commands
// against the commerce services, and the message processor that drives one
// dialogue turn. The decision-maker itself (the NLU model) stays behind the
// Decider interface; this package never interprets natural language.
package agent

import (
	"errors"
	"strings"
)

// Command is one executable tool call. The set of implementations is closed:
// the unexported marker method keeps outside packages from adding variants,
// so the dispatcher's type switch is exhaustive by construction.
type Command interface {
	// Validate checks the command's own arguments before execution.
	Validate() error
	isCommand()
}

// Argument validation errors.
var (
	ErrMissingPhone = errors.New("customer phone is required")
	ErrMissingQuery = errors.New("search query is required")
	ErrMissingItems = errors.New("item list is required")
	ErrMissingName  = errors.New("customer name is required")
)

// SearchProducts ranks the active catalog against a free-text query.
type SearchProducts struct {
	Query string
}

// AddToCart parses a free-text item list ("2x Headphones, 1x Watch") and adds
// the resolved products to the customer's cart.
type AddToCart struct {
	Phone string
	Items string
}

// ViewCart summarizes the customer's cart with totals.
type ViewCart struct {
	Phone string
}

// GenerateInvoice converts the customer's cart into a PENDING order and
// returns the invoice summary.
type GenerateInvoice struct {
	Phone   string
	Name    string
	Address string
}

// FetchPaymentInfo returns the configured bank instructions and clears the
// customer's cart.
type FetchPaymentInfo struct {
	Phone string
}

// ConfirmPayment marks the customer's latest pending order as awaiting admin
// review, with an optional transaction reference.
type ConfirmPayment struct {
	Phone string
	Ref   string
}

// FetchBusinessInfo returns the configured business contact block.
type FetchBusinessInfo struct{}

func (SearchProducts) isCommand()    {}
func (AddToCart) isCommand()         {}
func (ViewCart) isCommand()          {}
func (GenerateInvoice) isCommand()   {}
func (FetchPaymentInfo) isCommand()  {}
func (ConfirmPayment) isCommand()    {}
func (FetchBusinessInfo) isCommand() {}

// Validate implements Command.
func (c SearchProducts) Validate() error {
	if strings.TrimSpace(c.Query) == "" {
		return ErrMissingQuery
	}
	return nil
}

// Validate implements Command.
func (c AddToCart) Validate() error {
	if strings.TrimSpace(c.Phone) == "" {
		return ErrMissingPhone
	}
	if strings.TrimSpace(c.Items) == "" {
		return ErrMissingItems
	}
	return nil
}

// Validate implements Command.
func (c ViewCart) Validate() error {
	if strings.TrimSpace(c.Phone) == "" {
		return ErrMissingPhone
	}
	return nil
}

// Validate implements Command.
func (c GenerateInvoice) Validate() error {
	if strings.TrimSpace(c.Phone) == "" {
		return ErrMissingPhone
	}
	if strings.TrimSpace(c.Name) == "" {
		return ErrMissingName
	}
	return nil
}

// Validate implements Command.
func (c FetchPaymentInfo) Validate() error {
	if strings.TrimSpace(c.Phone) == "" {
		return ErrMissingPhone
	}
	return nil
}

// Validate implements Command.
func (c ConfirmPayment) Validate() error {
	if strings.TrimSpace(c.Phone) == "" {
		return ErrMissingPhone
	}
	return nil
}

// Validate implements Command.
func (FetchBusinessInfo) Validate() error { return nil }
