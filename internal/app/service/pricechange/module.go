package pricechange

import "go.uber.org/fx"

// Module exposes the price change orchestrator via Fx.
var Module = fx.Options(
	fx.Provide(NewService),
)
