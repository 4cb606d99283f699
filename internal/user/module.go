package user

import (
	"go.uber.org/fx"
)

// NewModule wires the user domain: repository, event publisher, service and
// HTTP handlers.
func NewModule() fx.Option {
	return fx.Module("user",
		fx.Provide(
			newRepository,
			newPublisher,
			newService,
			newHandler,
		),
		fx.Invoke(registerRoutes),
	)
}
