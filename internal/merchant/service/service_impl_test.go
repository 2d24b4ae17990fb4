package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/smallbiznis/wavepay/internal/cache"
	"github.com/smallbiznis/wavepay/internal/config"
	"github.com/smallbiznis/wavepay/internal/gateway"
	"github.com/smallbiznis/wavepay/internal/merchant/domain"
	"go.uber.org/zap"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

type fakeGateway struct {
	gateway.Client

	mu          sync.Mutex
	listCalls   int
	createCalls int
	merchants   []gateway.AggregatedMerchant
	listErr     error
	createErr   error
	lastCreate  gateway.CreateMerchantRequest
}

func (f *fakeGateway) ListMerchants(ctx context.Context) ([]gateway.AggregatedMerchant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.merchants, nil
}

func (f *fakeGateway) CreateMerchant(ctx context.Context, req gateway.CreateMerchantRequest) (*gateway.AggregatedMerchant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	f.lastCreate = req
	if f.createErr != nil {
		return nil, f.createErr
	}
	created := gateway.AggregatedMerchant{
		ID:           "am-created",
		Name:         req.Name,
		BusinessType: req.BusinessType,
	}
	f.merchants = append(f.merchants, created)
	return &created, nil
}

func (f *fakeGateway) calls() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listCalls, f.createCalls
}

func merchantConfig(autoCreate bool) config.Config {
	return config.Config{
		Merchant: config.MerchantConfig{
			Enabled:             true,
			AutoCreate:          autoCreate,
			DefaultName:         "ecommerce",
			DefaultBusinessType: "other",
			CacheTTL:            time.Hour,
			CacheSize:           16,
		},
	}
}

func newResolver(cfg config.Config, gw gateway.Client, c cache.Cache[domain.ResolutionKey, domain.MerchantIdentity]) domain.Resolver {
	return NewService(Params{
		Cfg:     cfg,
		Log:     zap.NewNop(),
		Gateway: gw,
		Cache:   c,
	})
}

func TestResolveDirectMappingSkipsNetworkAndCache(t *testing.T) {
	gw := &fakeGateway{}
	c := cache.NewTTLCache[domain.ResolutionKey, domain.MerchantIdentity](16, nil)
	resolver := newResolver(merchantConfig(true), gw, c)

	identity, err := resolver.Resolve(context.Background(), domain.ResolutionContext{MerchantID: "am-direct"})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if identity == nil || identity.ID != "am-direct" {
		t.Fatalf("expected direct identity, got %+v", identity)
	}
	if lists, creates := gw.calls(); lists != 0 || creates != 0 {
		t.Fatalf("expected zero gateway calls, got %d/%d", lists, creates)
	}
	if c.Len() != 0 {
		t.Fatalf("direct mappings must not be cached")
	}
}

func TestResolveRejectsMalformedDirectMapping(t *testing.T) {
	resolver := newResolver(merchantConfig(false), &fakeGateway{}, cache.NoopCache[domain.ResolutionKey, domain.MerchantIdentity]{})

	_, err := resolver.Resolve(context.Background(), domain.ResolutionContext{MerchantID: "merchant-123"})
	if !errors.Is(err, domain.ErrInvalidMerchantID) {
		t.Fatalf("expected ErrInvalidMerchantID, got %v", err)
	}
}

func TestResolveDisabledFeatureReturnsNoIdentity(t *testing.T) {
	cfg := merchantConfig(true)
	cfg.Merchant.Enabled = false
	gw := &fakeGateway{}
	resolver := newResolver(cfg, gw, cache.NoopCache[domain.ResolutionKey, domain.MerchantIdentity]{})

	identity, err := resolver.Resolve(context.Background(), domain.ResolutionContext{ProfileID: "bp-1"})
	if identity != nil || err != nil {
		t.Fatalf("expected (nil, nil), got %v %v", identity, err)
	}
	if lists, _ := gw.calls(); lists != 0 {
		t.Fatalf("expected no gateway calls when disabled")
	}
}

func TestResolveCachesWithinTTL(t *testing.T) {
	clk := &fakeClock{now: time.Unix(1700000000, 0)}
	gw := &fakeGateway{merchants: []gateway.AggregatedMerchant{{ID: "am-1", Name: "ecommerce"}}}
	c := cache.NewTTLCache[domain.ResolutionKey, domain.MerchantIdentity](16, clk)
	resolver := newResolver(merchantConfig(false), gw, c)

	rctx := domain.ResolutionContext{ProfileID: "bp-1"}

	first, err := resolver.Resolve(context.Background(), rctx)
	if err != nil || first == nil || first.ID != "am-1" {
		t.Fatalf("expected am-1, got %v %v", first, err)
	}
	second, err := resolver.Resolve(context.Background(), rctx)
	if err != nil || second == nil || second.ID != first.ID {
		t.Fatalf("expected cached identity, got %v %v", second, err)
	}
	if lists, _ := gw.calls(); lists != 1 {
		t.Fatalf("expected exactly one lookup within TTL, got %d", lists)
	}

	clk.Advance(time.Hour + time.Second)
	third, err := resolver.Resolve(context.Background(), rctx)
	if err != nil || third == nil {
		t.Fatalf("expected re-resolution, got %v %v", third, err)
	}
	if lists, _ := gw.calls(); lists != 2 {
		t.Fatalf("expected exactly one lookup after expiry, got %d", lists)
	}
}

func TestResolveDegradesWhenNotFoundAndAutoCreateDisabled(t *testing.T) {
	gw := &fakeGateway{}
	resolver := newResolver(merchantConfig(false), gw, cache.NewTTLCache[domain.ResolutionKey, domain.MerchantIdentity](16, nil))

	identity, err := resolver.Resolve(context.Background(), domain.ResolutionContext{ProfileID: "bp-1"})
	if identity != nil || err != nil {
		t.Fatalf("expected degradation to (nil, nil), got %v %v", identity, err)
	}
	if _, creates := gw.calls(); creates != 0 {
		t.Fatalf("expected no creation when disabled")
	}
}

func TestResolveAutoCreatesWithDefaults(t *testing.T) {
	gw := &fakeGateway{}
	c := cache.NewTTLCache[domain.ResolutionKey, domain.MerchantIdentity](16, nil)
	resolver := newResolver(merchantConfig(true), gw, c)

	identity, err := resolver.Resolve(context.Background(), domain.ResolutionContext{ProfileID: "bp-1"})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if identity == nil || identity.ID != "am-created" {
		t.Fatalf("expected created identity, got %+v", identity)
	}
	if gw.lastCreate.Name != "ecommerce" || gw.lastCreate.BusinessType != "other" {
		t.Fatalf("expected default name and business type, got %+v", gw.lastCreate)
	}
	if _, ok := c.Get(domain.ResolutionContext{ProfileID: "bp-1"}.Key()); !ok {
		t.Fatalf("expected created identity to be cached")
	}
}

func TestResolvePerContextAutoCreateOverride(t *testing.T) {
	gw := &fakeGateway{}
	resolver := newResolver(merchantConfig(true), gw, cache.NewTTLCache[domain.ResolutionKey, domain.MerchantIdentity](16, nil))

	disabled := false
	identity, err := resolver.Resolve(context.Background(), domain.ResolutionContext{ProfileID: "bp-1", AutoCreate: &disabled})
	if identity != nil || err != nil {
		t.Fatalf("expected override to disable creation, got %v %v", identity, err)
	}
	if _, creates := gw.calls(); creates != 0 {
		t.Fatalf("expected no creation with override")
	}
}

func TestResolveDegradesOnTransientLookupFailure(t *testing.T) {
	gw := &fakeGateway{listErr: &gateway.Error{Status: 503, Class: gateway.ClassTransient}}
	resolver := newResolver(merchantConfig(true), gw, cache.NewTTLCache[domain.ResolutionKey, domain.MerchantIdentity](16, nil))

	identity, err := resolver.Resolve(context.Background(), domain.ResolutionContext{ProfileID: "bp-1"})
	if identity != nil || err != nil {
		t.Fatalf("expected degradation, got %v %v", identity, err)
	}
}

func TestResolvePropagatesAuthenticationFailure(t *testing.T) {
	authErr := &gateway.Error{Status: 401, Code: "invalid-auth", Class: gateway.ClassAuthentication}
	gw := &fakeGateway{listErr: authErr}
	resolver := newResolver(merchantConfig(true), gw, cache.NewTTLCache[domain.ResolutionKey, domain.MerchantIdentity](16, nil))

	_, err := resolver.Resolve(context.Background(), domain.ResolutionContext{ProfileID: "bp-1"})
	if gateway.ClassOf(err) != gateway.ClassAuthentication {
		t.Fatalf("expected authentication error to propagate, got %v", err)
	}
}

func TestResolvePropagatesFatalFailure(t *testing.T) {
	gw := &fakeGateway{listErr: &gateway.Error{Status: 503, Class: gateway.ClassFatal}}
	resolver := newResolver(merchantConfig(true), gw, cache.NewTTLCache[domain.ResolutionKey, domain.MerchantIdentity](16, nil))

	_, err := resolver.Resolve(context.Background(), domain.ResolutionContext{ProfileID: "bp-1"})
	if gateway.ClassOf(err) != gateway.ClassFatal {
		t.Fatalf("expected fatal error to propagate, got %v", err)
	}
}

func TestResolveConcurrentMissesCreateOnce(t *testing.T) {
	gw := &fakeGateway{}
	c := cache.NewTTLCache[domain.ResolutionKey, domain.MerchantIdentity](16, nil)
	resolver := newResolver(merchantConfig(true), gw, c)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			identity, err := resolver.Resolve(context.Background(), domain.ResolutionContext{ProfileID: "bp-1"})
			if err != nil || identity == nil {
				t.Errorf("expected identity, got %v %v", identity, err)
			}
		}()
	}
	wg.Wait()

	if _, creates := gw.calls(); creates != 1 {
		t.Fatalf("expected exactly one creation, got %d", creates)
	}
}
