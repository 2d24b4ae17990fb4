package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/smallbiznis/wavepay/internal/config"
	"github.com/smallbiznis/wavepay/internal/observability/metrics"
	"github.com/smallbiznis/wavepay/internal/observability/tracing"
	"github.com/smallbiznis/wavepay/internal/retry"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Client executes calls against the Wave provider API. Every error returned
// by a Client method is either nil or a classified *Error.
type Client interface {
	CreateCheckoutSession(ctx context.Context, req CreateCheckoutSessionRequest) (*CheckoutSession, error)
	GetCheckoutSession(ctx context.Context, id string) (*CheckoutSession, error)
	ExpireCheckoutSession(ctx context.Context, id string) (*CheckoutSession, error)
	CreateRefund(ctx context.Context, sessionID string, amount int64) (*Refund, error)
	GetRefund(ctx context.Context, id string) (*Refund, error)

	ListMerchants(ctx context.Context) ([]AggregatedMerchant, error)
	GetMerchant(ctx context.Context, id string) (*AggregatedMerchant, error)
	CreateMerchant(ctx context.Context, req CreateMerchantRequest) (*AggregatedMerchant, error)
	UpdateMerchant(ctx context.Context, id string, req UpdateMerchantRequest) (*AggregatedMerchant, error)
	DeleteMerchant(ctx context.Context, id string) error
}

type Params struct {
	fx.In

	Cfg     config.Config
	Log     *zap.Logger
	Metrics *metrics.GatewayMetrics `optional:"true"`
}

// HTTPClient is the production Client backed by net/http with tracing,
// retries and call metrics.
type HTTPClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
	log     *zap.Logger
	retry   retry.Config
	metrics *metrics.GatewayMetrics
}

func NewClient(p Params) Client {
	return &HTTPClient{
		baseURL: strings.TrimRight(p.Cfg.Wave.BaseURL, "/"),
		apiKey:  p.Cfg.Wave.APIKey,
		http:    tracing.WrapHTTPClient(&http.Client{Timeout: p.Cfg.Wave.Timeout}),
		log:     p.Log.Named("gateway.wave"),
		retry:   retry.Config{MaxAttempts: p.Cfg.Wave.MaxAttempts},
		metrics: p.Metrics,
	}
}

func (c *HTTPClient) CreateCheckoutSession(ctx context.Context, req CreateCheckoutSessionRequest) (*CheckoutSession, error) {
	var out CheckoutSession
	if err := c.do(ctx, "checkout.create", http.MethodPost, "/v1/checkout/sessions", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) GetCheckoutSession(ctx context.Context, id string) (*CheckoutSession, error) {
	var out CheckoutSession
	path := "/v1/checkout/sessions/" + url.PathEscape(id)
	if err := c.do(ctx, "checkout.get", http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) ExpireCheckoutSession(ctx context.Context, id string) (*CheckoutSession, error) {
	var out CheckoutSession
	path := "/v1/checkout/sessions/" + url.PathEscape(id) + "/expire"
	if err := c.do(ctx, "checkout.expire", http.MethodPost, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) CreateRefund(ctx context.Context, sessionID string, amount int64) (*Refund, error) {
	var out Refund
	path := "/v1/checkout/sessions/" + url.PathEscape(sessionID) + "/refund"
	body := struct {
		Amount int64 `json:"amount"`
	}{Amount: amount}
	if err := c.do(ctx, "refund.create", http.MethodPost, path, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) GetRefund(ctx context.Context, id string) (*Refund, error) {
	var out Refund
	path := "/v1/refunds/" + url.PathEscape(id)
	if err := c.do(ctx, "refund.get", http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) ListMerchants(ctx context.Context) ([]AggregatedMerchant, error) {
	var out merchantListResponse
	if err := c.do(ctx, "merchant.list", http.MethodGet, "/v1/aggregated_merchants", nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

func (c *HTTPClient) GetMerchant(ctx context.Context, id string) (*AggregatedMerchant, error) {
	var out AggregatedMerchant
	path := "/v1/aggregated_merchants/" + url.PathEscape(id)
	if err := c.do(ctx, "merchant.get", http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) CreateMerchant(ctx context.Context, req CreateMerchantRequest) (*AggregatedMerchant, error) {
	var out AggregatedMerchant
	if err := c.do(ctx, "merchant.create", http.MethodPost, "/v1/aggregated_merchants", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) UpdateMerchant(ctx context.Context, id string, req UpdateMerchantRequest) (*AggregatedMerchant, error) {
	var out AggregatedMerchant
	path := "/v1/aggregated_merchants/" + url.PathEscape(id)
	if err := c.do(ctx, "merchant.update", http.MethodPatch, path, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) DeleteMerchant(ctx context.Context, id string) error {
	path := "/v1/aggregated_merchants/" + url.PathEscape(id)
	return c.do(ctx, "merchant.delete", http.MethodDelete, path, nil, nil)
}

// do executes one logical API call, retrying RateLimited and Transient
// failures with backoff. The idempotency key is generated once per logical
// call so retried attempts replay the same mutation.
func (c *HTTPClient) do(ctx context.Context, operation, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return &Error{Code: "encode_failure", Message: err.Error(), Class: ClassFatal}
		}
		payload = encoded
	}

	idempotencyKey := ""
	if method != http.MethodGet {
		idempotencyKey = uuid.NewString()
	}

	var lastErr *Error
	err := retry.Do(ctx, c.retry, func() error {
		if lastErr != nil && c.metrics != nil {
			c.metrics.RetryRecorded(ctx, operation)
		}
		attemptErr := c.attempt(ctx, operation, method, path, payload, idempotencyKey, out)
		if attemptErr == nil {
			return nil
		}
		var gerr *Error
		if !errors.As(attemptErr, &gerr) {
			return retry.Permanent(attemptErr)
		}
		lastErr = gerr
		if gerr.Class.Retryable() {
			return gerr
		}
		return retry.Permanent(gerr)
	})
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return timeoutError(ctx.Err())
	}
	if lastErr != nil && lastErr.Class.Retryable() {
		// Retry budget exhausted.
		return escalate(lastErr)
	}
	return err
}

func (c *HTTPClient) attempt(ctx context.Context, operation, method, path string, payload []byte, idempotencyKey string, out any) error {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return &Error{Code: "request_failure", Message: err.Error(), Class: ClassFatal}
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	done := func(int) {}
	if c.metrics != nil {
		done = c.metrics.CallStarted(ctx, operation)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		done(0)
		c.log.Warn("wave call failed",
			zap.String("operation", operation),
			zap.Error(err),
		)
		return transportError(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	done(resp.StatusCode)
	if err != nil {
		return transportError(err)
	}

	if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
		if out == nil || len(data) == 0 {
			return nil
		}
		if err := json.Unmarshal(data, out); err != nil {
			return &Error{
				Status:  resp.StatusCode,
				Code:    "decode_failure",
				Message: fmt.Sprintf("decoding %s response: %v", operation, err),
				Class:   ClassFatal,
			}
		}
		return nil
	}

	gerr := parseError(resp.StatusCode, data)
	c.log.Warn("wave call rejected",
		zap.String("operation", operation),
		zap.Int("status", resp.StatusCode),
		zap.String("code", gerr.Code),
		zap.String("class", string(gerr.Class)),
	)
	return gerr
}

// parseError decodes the provider error envelope and classifies it. An
// unparsable body still yields a classified error from the status alone.
func parseError(status int, data []byte) *Error {
	var body errorBody
	_ = json.Unmarshal(data, &body)
	message := body.Message
	if message == "" {
		message = http.StatusText(status)
	}
	return &Error{
		Status:  status,
		Code:    body.Code,
		Message: message,
		Details: body.Details,
		Class:   Classify(status, body.Code),
	}
}
