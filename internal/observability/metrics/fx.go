package metrics

import (
	"github.com/smallbiznis/wavepay/internal/config"
	"go.uber.org/fx"
)

var Module = fx.Module("metrics",
	fx.Provide(func(cfg config.Config) Config {
		return Config{
			ServiceName: cfg.ServiceName,
			Environment: cfg.Environment,
		}
	}),
	fx.Provide(NewGatewayMetrics),
	fx.Provide(func(cfg Config) *CheckoutMetrics {
		return CheckoutWithConfig(cfg)
	}),
)
