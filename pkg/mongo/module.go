package mongo

import (
	"context"

	"github.com/pcd-labs/smart-mobility/pkg/core/health"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// NewMongoModule provides MongoDB components for dependency injection.
func NewMongoModule() fx.Option {
	return fx.Provide(
		newConfig,
		provideMongo,
	)
}

func provideMongo(lc fx.Lifecycle, log *zap.Logger, conf Config, readiness health.Readiness) (Mongo, error) {
	m, err := newMongo(log, conf)
	if err != nil {
		return nil, err
	}

	const componentName = "mongo"
	readiness.AddComponent(componentName)
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := m.connect(ctx); err != nil {
				return err
			}
			readiness.MarkReady(componentName)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return m.disconnect(ctx)
		},
	})

	return m, nil
}
