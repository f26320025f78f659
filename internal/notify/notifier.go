// Package notify delivers customer-facing notifications over a pluggable
// transport. Delivery is best effort: one attempt, no retries, and callers
// never see a failed delivery as anything but a logged warning. The order
// ledger depends only on the Dispatcher; the transport behind it is wired at
// startup (AMQP in production, log-only in development).
package notify

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/AI-Automated-Ecommerce/Backend/internal/domain"
)

// Transport sends one text message to one recipient. Implementations must be
// safe for concurrent use.
type Transport interface {
	Send(ctx context.Context, phone, text string) error
}

// Dispatcher formats domain events into customer messages and hands them to
// the transport.
type Dispatcher struct {
	transport Transport
}

// NewDispatcher wraps a transport.
func NewDispatcher(t Transport) *Dispatcher {
	return &Dispatcher{transport: t}
}

// PaymentConfirmed tells the customer an admin verified their payment.
func (d *Dispatcher) PaymentConfirmed(ctx context.Context, o *domain.Order) error {
	text := fmt.Sprintf(
		"Good news! Your payment for order #%d (%.2f) has been confirmed. We are preparing your shipment.",
		o.ID, o.TotalAmount,
	)
	return d.transport.Send(ctx, o.CustomerPhone, text)
}

// LogTransport writes messages to the application log instead of a real
// channel. Used in development and as the fallback when no AMQP broker is
// configured.
type LogTransport struct{}

// Send implements Transport.
func (LogTransport) Send(_ context.Context, phone, text string) error {
	log.Info().Str("phone", phone).Str("text", text).Msg("outbound notification")
	return nil
}
