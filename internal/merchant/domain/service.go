package domain

import (
	"context"
	"errors"
)

// Resolver yields the aggregated merchant identity for a checkout, or
// (nil, nil) when the feature is unavailable and the checkout should
// proceed without one.
type Resolver interface {
	Resolve(ctx context.Context, rctx ResolutionContext) (*MerchantIdentity, error)
}

var (
	ErrInvalidMerchantID = errors.New("invalid_merchant_id")
)
