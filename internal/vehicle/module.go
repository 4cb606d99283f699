package vehicle

import (
	"go.uber.org/fx"
)

// NewModule wires the vehicle domain: repository, event publisher, service and
// HTTP handlers.
func NewModule() fx.Option {
	return fx.Module("vehicle",
		fx.Provide(
			newRepository,
			newPublisher,
			newService,
			newHandler,
		),
		fx.Invoke(registerRoutes),
	)
}
