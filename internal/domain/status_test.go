package domain

import "testing"

func TestParseOrderStatus_Known(t *testing.T) {
	for _, s := range []string{"PENDING", "PAYMENT_REVIEW_REQUESTED", "PAID", "SHIPPED", "COMPLETED", "CANCELLED"} {
		got, ok := ParseOrderStatus(s)
		if !ok {
			t.Fatalf("ParseOrderStatus(%q) not recognized", s)
		}
		if string(got) != s {
			t.Fatalf("ParseOrderStatus(%q) = %q", s, got)
		}
	}
}

func TestParseOrderStatus_Unknown(t *testing.T) {
	for _, s := range []string{"", "pending", "REFUNDED", "PAID ", "DONE"} {
		if _, ok := ParseOrderStatus(s); ok {
			t.Fatalf("ParseOrderStatus(%q) unexpectedly accepted", s)
		}
	}
}

func TestCanTransition_ForwardPath(t *testing.T) {
	path := []OrderStatus{StatusPending, StatusPaymentReview, StatusPaid, StatusShipped, StatusCompleted}
	for i := 0; i+1 < len(path); i++ {
		if !CanTransition(path[i], path[i+1]) {
			t.Fatalf("expected %s -> %s to be legal", path[i], path[i+1])
		}
	}
}

func TestCanTransition_CancelFromNonTerminal(t *testing.T) {
	for _, from := range []OrderStatus{StatusPending, StatusPaymentReview, StatusPaid, StatusShipped} {
		if !CanTransition(from, StatusCancelled) {
			t.Fatalf("expected %s -> CANCELLED to be legal", from)
		}
	}
}

func TestCanTransition_Illegal(t *testing.T) {
	cases := []struct{ from, to OrderStatus }{
		{StatusPending, StatusPaid},            // must pass through review
		{StatusPaid, StatusPending},            // no going back
		{StatusCompleted, StatusCancelled},     // terminal
		{StatusCancelled, StatusPending},       // terminal
		{StatusPending, StatusPending},         // self
		{StatusPaymentReview, StatusCompleted}, // skipping ahead
	}
	for _, c := range cases {
		if CanTransition(c.from, c.to) {
			t.Fatalf("expected %s -> %s to be illegal", c.from, c.to)
		}
	}
}
