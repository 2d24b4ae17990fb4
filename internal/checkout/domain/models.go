package domain

import (
	"time"

	"github.com/smallbiznis/wavepay/internal/gateway"
	merchantdomain "github.com/smallbiznis/wavepay/internal/merchant/domain"
)

// Status is the caller-facing lifecycle status of a payment attempt.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusVoided    Status = "voided"
)

// Terminal reports whether no further lifecycle transition is possible.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusVoided:
		return true
	}
	return false
}

// RefundState is the secondary refund sub-state of a completed session.
type RefundState string

const (
	RefundStateNone              RefundState = "none"
	RefundStatePartiallyRefunded RefundState = "partially_refunded"
	RefundStateFullyRefunded     RefundState = "fully_refunded"
)

// RefundStatus is the caller-facing status of one refund.
type RefundStatus string

const (
	RefundStatusPending   RefundStatus = "pending"
	RefundStatusSucceeded RefundStatus = "succeeded"
	RefundStatusFailed    RefundStatus = "failed"
)

// supportedCurrencies are the provider's settlement currencies. Amounts are
// integers in the smallest unit; none of these carry fractional units.
var supportedCurrencies = map[string]struct{}{
	"XOF": {},
	"XAF": {},
	"GMD": {},
	"SLE": {},
}

// SupportedCurrency reports whether the provider settles in code.
func SupportedCurrency(code string) bool {
	_, ok := supportedCurrencies[code]
	return ok
}

// AuthorizeRequest describes one payment attempt.
type AuthorizeRequest struct {
	Amount          int64
	Currency        string
	ClientReference string
	SuccessURL      string
	ErrorURL        string
	PayerMobile     string
	Merchant        merchantdomain.ResolutionContext
}

// Session is the normalized view of a provider checkout session. The
// provider owns the durable record; this is a mapped snapshot.
type Session struct {
	ID              string      `json:"id"`
	Amount          int64       `json:"amount"`
	Currency        string      `json:"currency"`
	ClientReference string      `json:"client_reference,omitempty"`
	Status          Status      `json:"status"`
	RefundState     RefundState `json:"refund_state"`
	MerchantID      string      `json:"aggregated_merchant_id,omitempty"`
	RedirectURL     string      `json:"redirect_url"`
	TransactionID   string      `json:"transaction_id,omitempty"`
	WhenCreated     time.Time   `json:"when_created"`
	WhenExpires     time.Time   `json:"when_expires"`
	WhenCompleted   *time.Time  `json:"when_completed,omitempty"`
}

// RefundRecord is the normalized view of a provider refund.
type RefundRecord struct {
	ID          string       `json:"id"`
	SessionID   string       `json:"session_id"`
	Amount      int64        `json:"amount"`
	Currency    string       `json:"currency"`
	Status      RefundStatus `json:"status"`
	WhenCreated time.Time    `json:"when_created"`
}

// StatusFrom maps the provider checkout/payment status pair to the caller
// vocabulary. A terminal payment status wins over the checkout status;
// otherwise the checkout status governs.
func StatusFrom(cs gateway.CheckoutStatus, ps gateway.PaymentStatus) Status {
	switch ps {
	case gateway.PaymentStatusSucceeded:
		return StatusCompleted
	case gateway.PaymentStatusCancelled:
		return StatusFailed
	}
	switch cs {
	case gateway.CheckoutStatusExpired:
		return StatusVoided
	case gateway.CheckoutStatusComplete, gateway.CheckoutStatusOpen:
		return StatusPending
	}
	return StatusPending
}

// RefundStatusFrom maps the provider refund status to the caller vocabulary.
func RefundStatusFrom(rs gateway.RefundStatus) RefundStatus {
	switch rs {
	case gateway.RefundStatusSucceeded:
		return RefundStatusSucceeded
	case gateway.RefundStatusFailed:
		return RefundStatusFailed
	}
	return RefundStatusPending
}
