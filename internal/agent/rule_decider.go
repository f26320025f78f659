package agent

import (
	"context"
	"strings"
)

// RuleDecider is a deterministic keyword fallback used when no external
// decision-maker is configured. It handles the core purchase flow well
// enough for development and smoke testing; production deployments plug a
// real model behind the Decider interface instead.
type RuleDecider struct{}

// Decide implements Decider with single-step keyword routing. A tool result
// from a prior step is returned verbatim as the reply.
func (RuleDecider) Decide(_ context.Context, in DecisionInput) (Decision, error) {
	if n := len(in.Observations); n > 0 {
		return Decision{Reply: in.Observations[n-1]}, nil
	}

	msg := strings.ToLower(strings.TrimSpace(in.Message))
	switch {
	case msg == "cart" || strings.Contains(msg, "view cart") || strings.Contains(msg, "my cart"):
		return Decision{Command: ViewCart{Phone: in.Phone}}, nil
	case msg == "buy" || msg == "checkout" || strings.Contains(msg, "check out"):
		return Decision{Command: GenerateInvoice{Phone: in.Phone, Name: "Customer"}}, nil
	case strings.Contains(msg, "paid") || strings.Contains(msg, "transferred"):
		return Decision{Command: ConfirmPayment{Phone: in.Phone}}, nil
	case strings.Contains(msg, "pay"):
		return Decision{Command: FetchPaymentInfo{Phone: in.Phone}}, nil
	case strings.Contains(msg, "add "):
		return Decision{Command: AddToCart{Phone: in.Phone, Items: strings.TrimPrefix(in.Message, "add ")}}, nil
	case strings.Contains(msg, "about") || strings.Contains(msg, "contact") || strings.Contains(msg, "hours"):
		return Decision{Command: FetchBusinessInfo{}}, nil
	default:
		return Decision{Command: SearchProducts{Query: in.Message}}, nil
	}
}
