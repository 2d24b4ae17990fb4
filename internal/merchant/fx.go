package merchant

import (
	"github.com/smallbiznis/wavepay/internal/cache"
	"github.com/smallbiznis/wavepay/internal/clock"
	"github.com/smallbiznis/wavepay/internal/config"
	"github.com/smallbiznis/wavepay/internal/merchant/domain"
	"github.com/smallbiznis/wavepay/internal/merchant/service"
	"go.uber.org/fx"
)

var Module = fx.Module("merchant.resolver",
	fx.Provide(func(cfg config.Config, clk clock.Clock) cache.Cache[domain.ResolutionKey, domain.MerchantIdentity] {
		if !cfg.Merchant.Enabled {
			return cache.NoopCache[domain.ResolutionKey, domain.MerchantIdentity]{}
		}
		return cache.NewTTLCache[domain.ResolutionKey, domain.MerchantIdentity](cfg.Merchant.CacheSize, clk)
	}),
	fx.Provide(service.NewService),
)
