package service

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"github.com/smallbiznis/wavepay/internal/checkout/domain"
	"github.com/smallbiznis/wavepay/internal/gateway"
	journaldomain "github.com/smallbiznis/wavepay/internal/journal/domain"
	merchantdomain "github.com/smallbiznis/wavepay/internal/merchant/domain"
	"github.com/smallbiznis/wavepay/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

type Params struct {
	fx.In

	Log      *zap.Logger
	Gateway  gateway.Client
	Resolver merchantdomain.Resolver
	Journal  journaldomain.Recorder   `optional:"true"`
	Metrics  *metrics.CheckoutMetrics `optional:"true"`
}

// Service orchestrates the checkout lifecycle. It holds no durable session
// state: every operation reads the provider and maps the result. The only
// in-process state is the refund ledger guarding the refundable balance.
type Service struct {
	log      *zap.Logger
	gw       gateway.Client
	resolver merchantdomain.Resolver
	journal  journaldomain.Recorder
	metrics  *metrics.CheckoutMetrics
	refunds  refundLedger
}

func NewService(p Params) domain.Service {
	return &Service{
		log:      p.Log.Named("checkout.service"),
		gw:       p.Gateway,
		resolver: p.Resolver,
		journal:  p.Journal,
		metrics:  p.Metrics,
	}
}

// Authorize validates the request locally, resolves the aggregated merchant
// best-effort and creates the provider session. Validation failures never
// reach the network.
func (s *Service) Authorize(ctx context.Context, req domain.AuthorizeRequest) (*domain.Session, error) {
	if req.Amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if !domain.SupportedCurrency(currency) {
		return nil, domain.ErrUnsupportedCurrency
	}
	if strings.TrimSpace(req.SuccessURL) == "" || strings.TrimSpace(req.ErrorURL) == "" {
		return nil, domain.ErrMissingReturnURL
	}

	identity, err := s.resolver.Resolve(ctx, req.Merchant)
	if err != nil {
		s.countOperation("authorize", "error")
		return nil, err
	}

	createReq := gateway.CreateCheckoutSessionRequest{
		Amount:              req.Amount,
		Currency:            currency,
		ClientReference:     strings.TrimSpace(req.ClientReference),
		SuccessURL:          strings.TrimSpace(req.SuccessURL),
		ErrorURL:            strings.TrimSpace(req.ErrorURL),
		RestrictPayerMobile: strings.TrimSpace(req.PayerMobile),
	}
	if identity != nil {
		createReq.AggregatedMerchantID = identity.ID
	}

	created, err := s.gw.CreateCheckoutSession(ctx, createReq)
	if err != nil {
		s.countOperation("authorize", "error")
		return nil, err
	}

	session := s.fromProviderSession(created)
	s.record(ctx, "checkout.authorize", session, created)
	s.countOperation("authorize", "ok")
	return session, nil
}

// Sync re-reads the provider session and maps it. It never advances state
// locally and is safe on terminal sessions.
func (s *Service) Sync(ctx context.Context, sessionID string) (*domain.Session, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, domain.ErrMissingSessionID
	}

	remote, err := s.gw.GetCheckoutSession(ctx, sessionID)
	if err != nil {
		s.countOperation("sync", "error")
		return nil, err
	}

	session := s.fromProviderSession(remote)
	s.record(ctx, "checkout.sync", session, remote)
	s.countOperation("sync", "ok")
	return session, nil
}

// Void expires a pending session. Terminal sessions conflict and the
// provider is not called.
func (s *Service) Void(ctx context.Context, sessionID string) (*domain.Session, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, domain.ErrMissingSessionID
	}

	remote, err := s.gw.GetCheckoutSession(ctx, sessionID)
	if err != nil {
		s.countOperation("void", "error")
		return nil, err
	}
	if status := domain.StatusFrom(remote.CheckoutStatus, remote.PaymentStatus); status != domain.StatusPending {
		s.countOperation("void", "conflict")
		return nil, domain.ErrSessionNotVoidable
	}

	expired, err := s.gw.ExpireCheckoutSession(ctx, sessionID)
	if err != nil {
		s.countOperation("void", "error")
		return nil, err
	}

	session := s.fromProviderSession(expired)
	s.record(ctx, "checkout.void", session, expired)
	s.countOperation("void", "ok")
	return session, nil
}

// Refund issues a partial or full refund against a completed session. The
// requested amount is validated against the captured amount minus prior
// refunds; the balance is reserved before the provider call and released if
// the call fails.
func (s *Service) Refund(ctx context.Context, sessionID string, amount int64) (*domain.RefundRecord, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, domain.ErrMissingSessionID
	}
	if amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}

	remote, err := s.gw.GetCheckoutSession(ctx, sessionID)
	if err != nil {
		s.countOperation("refund", "error")
		return nil, err
	}
	if status := domain.StatusFrom(remote.CheckoutStatus, remote.PaymentStatus); status != domain.StatusCompleted {
		s.countOperation("refund", "conflict")
		return nil, domain.ErrSessionNotCompleted
	}

	if err := s.refunds.reserve(sessionID, amount, remote.Amount); err != nil {
		s.countOperation("refund", "rejected")
		return nil, err
	}

	refund, err := s.gw.CreateRefund(ctx, sessionID, amount)
	if err != nil {
		s.refunds.release(sessionID, amount)
		s.countOperation("refund", "error")
		return nil, err
	}
	s.refunds.commit(refund.ID, sessionID, amount)

	record := fromProviderRefund(refund)
	s.recordRefund(ctx, "checkout.refund", record, refund)
	s.countOperation("refund", "ok")
	return record, nil
}

// RefundSync polls a refund. A refund observed as failed returns its amount
// to the session's refundable balance exactly once.
func (s *Service) RefundSync(ctx context.Context, refundID string) (*domain.RefundRecord, error) {
	refundID = strings.TrimSpace(refundID)
	if refundID == "" {
		return nil, domain.ErrMissingRefundID
	}

	remote, err := s.gw.GetRefund(ctx, refundID)
	if err != nil {
		s.countOperation("refund_sync", "error")
		return nil, err
	}

	record := fromProviderRefund(remote)
	if record.Status == domain.RefundStatusFailed {
		s.refunds.fail(refundID)
	}
	s.recordRefund(ctx, "checkout.refund_sync", record, remote)
	s.countOperation("refund_sync", "ok")
	return record, nil
}

func (s *Service) fromProviderSession(remote *gateway.CheckoutSession) *domain.Session {
	status := domain.StatusFrom(remote.CheckoutStatus, remote.PaymentStatus)
	return &domain.Session{
		ID:              remote.ID,
		Amount:          remote.Amount,
		Currency:        remote.Currency,
		ClientReference: remote.ClientReference,
		Status:          status,
		RefundState:     s.refunds.state(remote.ID, remote.Amount),
		MerchantID:      remote.AggregatedMerchantID,
		RedirectURL:     remote.LaunchURL,
		TransactionID:   remote.TransactionID,
		WhenCreated:     remote.WhenCreated,
		WhenExpires:     remote.WhenExpires,
		WhenCompleted:   remote.WhenCompleted,
	}
}

func fromProviderRefund(remote *gateway.Refund) *domain.RefundRecord {
	return &domain.RefundRecord{
		ID:          remote.ID,
		SessionID:   remote.CheckoutSessionID,
		Amount:      remote.Amount,
		Currency:    remote.Currency,
		Status:      domain.RefundStatusFrom(remote.Status),
		WhenCreated: remote.WhenCreated,
	}
}

func (s *Service) record(ctx context.Context, operation string, session *domain.Session, raw any) {
	if s.journal == nil {
		return
	}
	entry := &journaldomain.Entry{
		Operation: operation,
		SessionID: session.ID,
		Status:    string(session.Status),
		Amount:    session.Amount,
		Currency:  session.Currency,
		Payload:   marshalPayload(raw),
	}
	if err := s.journal.Record(ctx, entry); err != nil {
		s.log.Warn("journal record failed", zap.String("operation", operation), zap.Error(err))
	}
}

func (s *Service) recordRefund(ctx context.Context, operation string, record *domain.RefundRecord, raw any) {
	if s.journal == nil {
		return
	}
	entry := &journaldomain.Entry{
		Operation: operation,
		SessionID: record.SessionID,
		RefundID:  record.ID,
		Status:    string(record.Status),
		Amount:    record.Amount,
		Currency:  record.Currency,
		Payload:   marshalPayload(raw),
	}
	if err := s.journal.Record(ctx, entry); err != nil {
		s.log.Warn("journal record failed", zap.String("operation", operation), zap.Error(err))
	}
}

func marshalPayload(raw any) datatypes.JSON {
	buf, err := json.Marshal(raw)
	if err != nil {
		return nil
	}
	return datatypes.JSON(buf)
}

func (s *Service) countOperation(operation, result string) {
	if s.metrics == nil {
		return
	}
	s.metrics.IncOperation(operation, result)
}

// refundLedger tracks, per session, the amount already committed to refunds
// so concurrent refunds cannot exceed the captured amount. The reservation
// is taken before the provider call and never held as a lock across it.
type refundLedger struct {
	mu       sync.Mutex
	reserved map[string]int64
	holds    map[string]*refundHold
}

type refundHold struct {
	sessionID string
	amount    int64
	released  bool
}

func (l *refundLedger) reserve(sessionID string, amount, captured int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.reserved == nil {
		l.reserved = make(map[string]int64)
	}
	if amount > captured-l.reserved[sessionID] {
		return domain.ErrRefundExceedsBalance
	}
	l.reserved[sessionID] += amount
	return nil
}

func (l *refundLedger) release(sessionID string, amount int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.reserved[sessionID] -= amount
	if l.reserved[sessionID] <= 0 {
		delete(l.reserved, sessionID)
	}
}

func (l *refundLedger) commit(refundID, sessionID string, amount int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.holds == nil {
		l.holds = make(map[string]*refundHold)
	}
	l.holds[refundID] = &refundHold{sessionID: sessionID, amount: amount}
}

// fail returns a failed refund's amount to the balance, at most once.
func (l *refundLedger) fail(refundID string) {
	l.mu.Lock()
	hold, ok := l.holds[refundID]
	if !ok || hold.released {
		l.mu.Unlock()
		return
	}
	hold.released = true
	sessionID, amount := hold.sessionID, hold.amount
	l.reserved[sessionID] -= amount
	if l.reserved[sessionID] <= 0 {
		delete(l.reserved, sessionID)
	}
	l.mu.Unlock()
}

func (l *refundLedger) total(sessionID string) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.reserved[sessionID]
}

func (l *refundLedger) state(sessionID string, captured int64) domain.RefundState {
	refunded := l.total(sessionID)
	switch {
	case refunded <= 0:
		return domain.RefundStateNone
	case captured > 0 && refunded >= captured:
		return domain.RefundStateFullyRefunded
	}
	return domain.RefundStatePartiallyRefunded
}
