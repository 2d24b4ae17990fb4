package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/smallbiznis/wavepay/internal/config"
	"github.com/smallbiznis/wavepay/internal/retry"
	"go.uber.org/zap"
)

func testClient(t *testing.T, srv *httptest.Server) *HTTPClient {
	t.Helper()
	return &HTTPClient{
		baseURL: srv.URL,
		apiKey:  "sk_test_key",
		http:    srv.Client(),
		log:     zap.NewNop(),
		retry: retry.Config{
			MaxAttempts:     3,
			InitialInterval: time.Millisecond,
			MaxInterval:     2 * time.Millisecond,
		},
	}
}

func TestCreateCheckoutSession(t *testing.T) {
	var gotAuth, gotIdempotency string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/checkout/sessions" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		gotIdempotency = r.Header.Get("Idempotency-Key")

		var req CreateCheckoutSessionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Amount != 1000 || req.Currency != "XOF" {
			t.Fatalf("unexpected request body: %+v", req)
		}

		json.NewEncoder(w).Encode(CheckoutSession{
			ID:             "cos-1",
			Amount:         req.Amount,
			Currency:       req.Currency,
			CheckoutStatus: CheckoutStatusOpen,
			PaymentStatus:  PaymentStatusProcessing,
			LaunchURL:      "https://pay.wave.com/c/cos-1",
		})
	}))
	defer srv.Close()

	client := testClient(t, srv)
	session, err := client.CreateCheckoutSession(context.Background(), CreateCheckoutSessionRequest{
		Amount:     1000,
		Currency:   "XOF",
		SuccessURL: "https://merchant.example/ok",
		ErrorURL:   "https://merchant.example/ko",
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if session.ID != "cos-1" || session.LaunchURL == "" {
		t.Fatalf("unexpected session: %+v", session)
	}
	if gotAuth != "Bearer sk_test_key" {
		t.Fatalf("expected bearer auth, got %q", gotAuth)
	}
	if gotIdempotency == "" {
		t.Fatalf("expected idempotency key on mutating call")
	}
}

func TestErrorBodyIsClassified(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]any{
			"code":    "request-validation-error",
			"message": "amount must be positive",
			"details": []map[string]string{{"loc": "amount", "msg": "must be positive"}},
		})
	}))
	defer srv.Close()

	client := testClient(t, srv)
	_, err := client.CreateCheckoutSession(context.Background(), CreateCheckoutSessionRequest{Amount: -5, Currency: "XOF"})

	var gerr *Error
	if !errors.As(err, &gerr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if gerr.Class != ClassValidation {
		t.Fatalf("expected validation class, got %s", gerr.Class)
	}
	if len(gerr.Details) != 1 || gerr.Details[0].Loc != "amount" {
		t.Fatalf("expected field details, got %+v", gerr.Details)
	}
}

func TestTransientErrorsAreRetried(t *testing.T) {
	var calls atomic.Int32
	var firstKey atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		key := r.Header.Get("Idempotency-Key")
		if n == 1 {
			firstKey.Store(key)
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		if key != firstKey.Load().(string) {
			t.Fatalf("idempotency key changed between attempts")
		}
		json.NewEncoder(w).Encode(CheckoutSession{ID: "cos-2", CheckoutStatus: CheckoutStatusOpen})
	}))
	defer srv.Close()

	client := testClient(t, srv)
	session, err := client.ExpireCheckoutSession(context.Background(), "cos-2")
	if err != nil {
		t.Fatalf("expected retry to recover, got %v", err)
	}
	if session.ID != "cos-2" {
		t.Fatalf("unexpected session: %+v", session)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected 2 attempts, got %d", calls.Load())
	}
}

func TestRetryBudgetExhaustionEscalatesToFatal(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := testClient(t, srv)
	_, err := client.GetCheckoutSession(context.Background(), "cos-3")

	var gerr *Error
	if !errors.As(err, &gerr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if gerr.Class != ClassFatal {
		t.Fatalf("expected fatal after retry exhaustion, got %s", gerr.Class)
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls.Load())
	}
}

func TestAuthenticationErrorsAreNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"code": "invalid-auth", "message": "api key rejected"})
	}))
	defer srv.Close()

	client := testClient(t, srv)
	_, err := client.ListMerchants(context.Background())

	if ClassOf(err) != ClassAuthentication {
		t.Fatalf("expected authentication class, got %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected single attempt, got %d", calls.Load())
	}
}

func TestDeadlineSurfacesAsTransientTimeout(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	client := testClient(t, srv)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := client.GetRefund(ctx, "r-1")
	var gerr *Error
	if !errors.As(err, &gerr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if gerr.Class != ClassTransient || gerr.Code != "timeout" {
		t.Fatalf("expected transient timeout, got %+v", gerr)
	}
}

func TestDeleteMerchant(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete || r.URL.Path != "/v1/aggregated_merchants/am-1" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := testClient(t, srv)
	if err := client.DeleteMerchant(context.Background(), "am-1"); err != nil {
		t.Fatalf("expected success, got %v", err)
	}
}

func TestNewClientAppliesConfig(t *testing.T) {
	client := NewClient(Params{
		Cfg: config.Config{
			Wave: config.WaveConfig{
				BaseURL:     "https://api.wave.com/",
				APIKey:      "sk_live_key",
				Timeout:     5 * time.Second,
				MaxAttempts: 2,
			},
		},
		Log: zap.NewNop(),
	})
	httpClient, ok := client.(*HTTPClient)
	if !ok {
		t.Fatalf("expected *HTTPClient")
	}
	if httpClient.baseURL != "https://api.wave.com" {
		t.Fatalf("expected trailing slash to be trimmed, got %q", httpClient.baseURL)
	}
	if httpClient.retry.MaxAttempts != 2 {
		t.Fatalf("expected retry budget from config, got %d", httpClient.retry.MaxAttempts)
	}
}
