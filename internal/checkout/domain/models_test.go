package domain

import (
	"testing"

	"github.com/smallbiznis/wavepay/internal/gateway"
)

func TestStatusFrom(t *testing.T) {
	cases := []struct {
		name     string
		checkout gateway.CheckoutStatus
		payment  gateway.PaymentStatus
		want     Status
	}{
		{"open processing", gateway.CheckoutStatusOpen, gateway.PaymentStatusProcessing, StatusPending},
		{"open no payment", gateway.CheckoutStatusOpen, "", StatusPending},
		{"complete succeeded", gateway.CheckoutStatusComplete, gateway.PaymentStatusSucceeded, StatusCompleted},
		{"complete cancelled", gateway.CheckoutStatusComplete, gateway.PaymentStatusCancelled, StatusFailed},
		{"complete processing", gateway.CheckoutStatusComplete, gateway.PaymentStatusProcessing, StatusPending},
		{"expired", gateway.CheckoutStatusExpired, "", StatusVoided},
		{"terminal payment wins over open", gateway.CheckoutStatusOpen, gateway.PaymentStatusSucceeded, StatusCompleted},
		{"terminal payment wins over expired", gateway.CheckoutStatusExpired, gateway.PaymentStatusSucceeded, StatusCompleted},
		{"unknown pair stays pending", "", "", StatusPending},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := StatusFrom(tc.checkout, tc.payment); got != tc.want {
				t.Fatalf("StatusFrom(%q, %q) = %q, want %q", tc.checkout, tc.payment, got, tc.want)
			}
		})
	}
}

func TestStatusTerminal(t *testing.T) {
	if StatusPending.Terminal() {
		t.Fatalf("pending must not be terminal")
	}
	for _, s := range []Status{StatusCompleted, StatusFailed, StatusVoided} {
		if !s.Terminal() {
			t.Fatalf("%s must be terminal", s)
		}
	}
}

func TestSupportedCurrency(t *testing.T) {
	for _, code := range []string{"XOF", "XAF", "GMD", "SLE"} {
		if !SupportedCurrency(code) {
			t.Fatalf("expected %s to be supported", code)
		}
	}
	for _, code := range []string{"USD", "EUR", "xof", ""} {
		if SupportedCurrency(code) {
			t.Fatalf("expected %s to be unsupported", code)
		}
	}
}

func TestRefundStatusFrom(t *testing.T) {
	if got := RefundStatusFrom(gateway.RefundStatusSucceeded); got != RefundStatusSucceeded {
		t.Fatalf("got %q", got)
	}
	if got := RefundStatusFrom(gateway.RefundStatusFailed); got != RefundStatusFailed {
		t.Fatalf("got %q", got)
	}
	if got := RefundStatusFrom(gateway.RefundStatusPending); got != RefundStatusPending {
		t.Fatalf("got %q", got)
	}
	if got := RefundStatusFrom("unknown"); got != RefundStatusPending {
		t.Fatalf("unknown refund status must map to pending, got %q", got)
	}
}
