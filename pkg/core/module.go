package core

import (
	"time"

	"github.com/pcd-labs/smart-mobility/pkg/core/config"
	"github.com/pcd-labs/smart-mobility/pkg/core/health"
	"github.com/pcd-labs/smart-mobility/pkg/core/logger"
	"go.uber.org/fx"
)

// NewCoreModule provides the foundation every service binary shares:
// environment-driven config, the zap logger and readiness tracking.
func NewCoreModule() fx.Option {
	return fx.Options(
		fx.StartTimeout(5*time.Minute),
		fx.StopTimeout(5*time.Minute),

		config.NewConfigModule(),
		logger.NewZapLoggingModule(),
		health.NewReadinessModule(),
	)
}
