package gateway

import "go.uber.org/fx"

var Module = fx.Module("gateway.wave",
	fx.Provide(NewClient),
)
