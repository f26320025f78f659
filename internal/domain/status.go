// Package domain defines the persistence models for the commerce core.
// This file holds the order lifecycle enumeration and its transition table —
// the single authority on which status changes are legal. Everything that
// mutates an order's status must go through CanTransition; nothing else in
// the codebase compares status strings ad hoc.
package domain

// OrderStatus is the closed set of order lifecycle states. It is stored as a
// string column but must never hold a value outside this enumeration.
type OrderStatus string

const (
	// StatusPending is the initial state of every order.
	StatusPending OrderStatus = "PENDING"
	// StatusPaymentReview means the customer claims to have paid (proof
	// uploaded or payment confirmed on the conversational channel) and an
	// admin still has to verify it.
	StatusPaymentReview OrderStatus = "PAYMENT_REVIEW_REQUESTED"
	// StatusPaid means an admin verified the payment.
	StatusPaid OrderStatus = "PAID"
	// StatusShipped means the order left the warehouse.
	StatusShipped OrderStatus = "SHIPPED"
	// StatusCompleted is the terminal success state.
	StatusCompleted OrderStatus = "COMPLETED"
	// StatusCancelled is reachable from any non-terminal state.
	StatusCancelled OrderStatus = "CANCELLED"
)

// transitions maps each state to the set of states it may move to.
// CANCELLED is allowed from every non-terminal state; terminal states have
// no outgoing edges.
var transitions = map[OrderStatus]map[OrderStatus]struct{}{
	StatusPending: {
		StatusPaymentReview: {},
		StatusCancelled:     {},
	},
	StatusPaymentReview: {
		StatusPaid:      {},
		StatusCancelled: {},
	},
	StatusPaid: {
		StatusShipped:   {},
		StatusCancelled: {},
	},
	StatusShipped: {
		StatusCompleted: {},
		StatusCancelled: {},
	},
	StatusCompleted: {},
	StatusCancelled: {},
}

// ParseOrderStatus maps a raw string onto the enumeration. The second return
// value is false for anything outside the closed set.
func ParseOrderStatus(s string) (OrderStatus, bool) {
	switch OrderStatus(s) {
	case StatusPending, StatusPaymentReview, StatusPaid, StatusShipped, StatusCompleted, StatusCancelled:
		return OrderStatus(s), true
	}
	return "", false
}

// CanTransition reports whether an order may move from one status to the
// other. Self-transitions are not legal.
func CanTransition(from, to OrderStatus) bool {
	next, ok := transitions[from]
	if !ok {
		return false
	}
	_, ok = next[to]
	return ok
}
