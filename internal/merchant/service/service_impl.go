package service

import (
	"context"
	"strings"
	"sync"

	"github.com/smallbiznis/wavepay/internal/cache"
	"github.com/smallbiznis/wavepay/internal/config"
	"github.com/smallbiznis/wavepay/internal/gateway"
	"github.com/smallbiznis/wavepay/internal/merchant/domain"
	"github.com/smallbiznis/wavepay/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Cfg     config.Config
	Log     *zap.Logger
	Gateway gateway.Client
	Cache   cache.Cache[domain.ResolutionKey, domain.MerchantIdentity]
	Metrics *metrics.CheckoutMetrics `optional:"true"`
}

// Service resolves aggregated merchant identities: direct mapping first,
// then cache, then the provider, optionally auto-creating on a miss.
type Service struct {
	cfg     config.MerchantConfig
	log     *zap.Logger
	gw      gateway.Client
	cache   cache.Cache[domain.ResolutionKey, domain.MerchantIdentity]
	metrics *metrics.CheckoutMetrics
	locks   keyedMutex
}

func NewService(p Params) domain.Resolver {
	return &Service{
		cfg:     p.Cfg.Merchant,
		log:     p.Log.Named("merchant.resolver"),
		gw:      p.Gateway,
		cache:   p.Cache,
		metrics: p.Metrics,
	}
}

// Resolve implements the degradation contract: the checkout must never be
// blocked by aggregated-merchant unavailability, so every failure short of
// Authentication or Fatal collapses to (nil, nil).
func (s *Service) Resolve(ctx context.Context, rctx domain.ResolutionContext) (*domain.MerchantIdentity, error) {
	if !s.cfg.Enabled {
		return nil, nil
	}

	if id := strings.TrimSpace(rctx.MerchantID); id != "" {
		if !domain.ValidMerchantID(id) {
			return nil, domain.ErrInvalidMerchantID
		}
		// Direct mappings are trusted as-is.
		return &domain.MerchantIdentity{ID: id}, nil
	}

	key := rctx.Key()
	if key == "" {
		return nil, nil
	}

	if s.cacheEnabled(rctx) {
		if identity, ok := s.cache.Get(key); ok {
			s.countResolution("hit")
			return &identity, nil
		}
	}

	// One logical resolution per key at a time, so a lookup racing an
	// auto-creation cannot create the merchant twice.
	s.locks.Lock(key)
	defer s.locks.Unlock(key)

	if s.cacheEnabled(rctx) {
		if identity, ok := s.cache.Get(key); ok {
			s.countResolution("hit")
			return &identity, nil
		}
	}

	identity, err := s.lookup(ctx, rctx)
	if err != nil {
		return s.degradeOrPropagate(key, err)
	}

	created := false
	if identity == nil && s.autoCreate(rctx) {
		identity, err = s.create(ctx, rctx)
		if err != nil {
			return s.degradeOrPropagate(key, err)
		}
		created = identity != nil
	}

	if identity == nil {
		s.countResolution("degraded")
		return nil, nil
	}

	if s.cacheEnabled(rctx) {
		s.cache.Set(key, *identity, s.cfg.CacheTTL)
	}
	if created {
		s.countResolution("created")
	} else {
		s.countResolution("miss")
	}
	return identity, nil
}

func (s *Service) lookup(ctx context.Context, rctx domain.ResolutionContext) (*domain.MerchantIdentity, error) {
	merchants, err := s.gw.ListMerchants(ctx)
	if err != nil {
		if gateway.ClassOf(err) == gateway.ClassNotFound {
			return nil, nil
		}
		return nil, err
	}

	wanted := s.merchantName(rctx)
	for _, m := range merchants {
		if strings.EqualFold(strings.TrimSpace(m.Name), wanted) && !m.IsLocked {
			return fromProvider(m), nil
		}
	}
	return nil, nil
}

func (s *Service) create(ctx context.Context, rctx domain.ResolutionContext) (*domain.MerchantIdentity, error) {
	businessType := strings.TrimSpace(rctx.BusinessType)
	if businessType == "" {
		businessType = s.cfg.DefaultBusinessType
	}

	created, err := s.gw.CreateMerchant(ctx, gateway.CreateMerchantRequest{
		Name:                s.merchantName(rctx),
		BusinessType:        businessType,
		BusinessDescription: strings.TrimSpace(rctx.BusinessDescription),
		BusinessSector:      strings.TrimSpace(rctx.BusinessSector),
		WebsiteURL:          strings.TrimSpace(rctx.WebsiteURL),
		ManagerName:         strings.TrimSpace(rctx.ManagerName),
	})
	if err != nil {
		return nil, err
	}
	return fromProvider(*created), nil
}

func (s *Service) degradeOrPropagate(key domain.ResolutionKey, err error) (*domain.MerchantIdentity, error) {
	class := gateway.ClassOf(err)
	if class == gateway.ClassAuthentication || class == gateway.ClassFatal {
		// Degrading here would mask a credential or budget problem.
		s.countResolution("error")
		return nil, err
	}
	s.log.Warn("merchant resolution degraded",
		zap.String("resolution_key", string(key)),
		zap.String("class", string(class)),
		zap.Error(err),
	)
	s.countResolution("degraded")
	return nil, nil
}

func (s *Service) merchantName(rctx domain.ResolutionContext) string {
	if name := strings.TrimSpace(rctx.Name); name != "" {
		return name
	}
	return s.cfg.DefaultName
}

func (s *Service) autoCreate(rctx domain.ResolutionContext) bool {
	if rctx.AutoCreate != nil {
		return *rctx.AutoCreate
	}
	return s.cfg.AutoCreate
}

func (s *Service) cacheEnabled(rctx domain.ResolutionContext) bool {
	if rctx.CacheEnabled != nil {
		return *rctx.CacheEnabled
	}
	return true
}

func (s *Service) countResolution(outcome string) {
	if s.metrics == nil {
		return
	}
	s.metrics.IncResolution(outcome)
}

func fromProvider(m gateway.AggregatedMerchant) *domain.MerchantIdentity {
	return &domain.MerchantIdentity{
		ID:                     m.ID,
		Name:                   m.Name,
		BusinessType:           m.BusinessType,
		BusinessDescription:    m.BusinessDescription,
		BusinessSector:         m.BusinessSector,
		RegistrationIdentifier: m.BusinessRegistrationIdentifier,
		WebsiteURL:             m.WebsiteURL,
		ManagerName:            m.ManagerName,
		IsLocked:               m.IsLocked,
		WhenCreated:            m.WhenCreated,
	}
}

// keyedMutex serializes resolution per ResolutionKey without a global lock.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[domain.ResolutionKey]*keyedLock
}

type keyedLock struct {
	mu   sync.Mutex
	refs int
}

func (k *keyedMutex) Lock(key domain.ResolutionKey) {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[domain.ResolutionKey]*keyedLock)
	}
	entry, ok := k.locks[key]
	if !ok {
		entry = &keyedLock{}
		k.locks[key] = entry
	}
	entry.refs++
	k.mu.Unlock()

	entry.mu.Lock()
}

func (k *keyedMutex) Unlock(key domain.ResolutionKey) {
	k.mu.Lock()
	entry := k.locks[key]
	if entry != nil {
		entry.refs--
		if entry.refs <= 0 {
			delete(k.locks, key)
		}
	}
	k.mu.Unlock()

	if entry != nil {
		entry.mu.Unlock()
	}
}
