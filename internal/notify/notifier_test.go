package notify

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/AI-Automated-Ecommerce/Backend/internal/domain"
)

type recordingTransport struct {
	phone string
	text  string
	fail  error
}

func (r *recordingTransport) Send(_ context.Context, phone, text string) error {
	r.phone, r.text = phone, text
	return r.fail
}

func TestDispatcher_PaymentConfirmed(t *testing.T) {
	tr := &recordingTransport{}
	d := NewDispatcher(tr)

	o := &domain.Order{ID: 42, CustomerPhone: "+15551234567", TotalAmount: 245.97}
	if err := d.PaymentConfirmed(context.Background(), o); err != nil {
		t.Fatalf("PaymentConfirmed: %v", err)
	}
	if tr.phone != "+15551234567" {
		t.Fatalf("recipient = %q", tr.phone)
	}
	if !strings.Contains(tr.text, "#42") || !strings.Contains(tr.text, "245.97") {
		t.Fatalf("message missing order details: %q", tr.text)
	}
}

func TestDispatcher_PropagatesTransportError(t *testing.T) {
	sentinel := errors.New("broker down")
	d := NewDispatcher(&recordingTransport{fail: sentinel})

	err := d.PaymentConfirmed(context.Background(), &domain.Order{ID: 1, CustomerPhone: "+1555"})
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected transport error, got %v", err)
	}
}

func TestLogTransport_NeverFails(t *testing.T) {
	if err := (LogTransport{}).Send(context.Background(), "+1555", "hi"); err != nil {
		t.Fatalf("LogTransport.Send: %v", err)
	}
}
