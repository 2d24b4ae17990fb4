package domain

import (
	"context"
	"errors"
)

var (
	ErrInvalidAmount        = errors.New("invalid_amount")
	ErrUnsupportedCurrency  = errors.New("unsupported_currency")
	ErrMissingReturnURL     = errors.New("missing_return_url")
	ErrMissingSessionID     = errors.New("missing_session_id")
	ErrMissingRefundID      = errors.New("missing_refund_id")
	ErrSessionNotVoidable   = errors.New("session_not_voidable")
	ErrSessionNotCompleted  = errors.New("session_not_completed")
	ErrRefundExceedsBalance = errors.New("refund_exceeds_balance")
)

// Service drives the checkout session lifecycle against the provider.
type Service interface {
	Authorize(ctx context.Context, req AuthorizeRequest) (*Session, error)
	Sync(ctx context.Context, sessionID string) (*Session, error)
	Void(ctx context.Context, sessionID string) (*Session, error)
	Refund(ctx context.Context, sessionID string, amount int64) (*RefundRecord, error)
	RefundSync(ctx context.Context, refundID string) (*RefundRecord, error)
}
