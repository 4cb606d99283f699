package trip

import (
	broker "github.com/pcd-labs/smart-mobility/pkg/kafka"
	"go.uber.org/fx"
)

// NewModule wires the trip domain: repository, event publisher, the cached
// clients for the owning services, the federated resolver, HTTP handlers and
// the two consumers that keep the caches consistent.
func NewModule() fx.Option {
	return fx.Options(
		fx.Module("trip",
			fx.Provide(
				newRepository,
				newPublisher,
				newUserClient,
				newVehicleClient,
				newResolver,
				newService,
				newHandler,
			),
			fx.Invoke(registerRoutes),
		),
		broker.RegisterConsumer("user-events", newUserEventsHandler),
		broker.RegisterConsumer("vehicle-events", newVehicleEventsHandler),
	)
}
