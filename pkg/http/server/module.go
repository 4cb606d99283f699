package server

import (
	"context"

	"net/http"

	"github.com/pcd-labs/smart-mobility/pkg/core/health"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// NewHTTPServerModule provides the HTTP server and starts it with the
// application lifecycle. The server registers itself as a readiness component
// and marks ready once the listener is up.
func NewHTTPServerModule() fx.Option {
	return fx.Options(
		fx.Provide(newConfig),
		fx.Invoke(startHTTPServer),
	)
}

func startHTTPServer(lc fx.Lifecycle, log *zap.Logger, conf Config, handler http.Handler, readiness health.Readiness, shutdowner fx.Shutdowner) {
	var srv Server
	const componentName = "http-server"
	readiness.AddComponent(componentName)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			// Create the server in OnStart, all routes are registered by now.
			srv = newServer(log, conf, handler)

			go func() {
				err := srv.Serve(func() {
					readiness.MarkReady(componentName)
				})
				if err != nil {
					log.Error("HTTP server failed, shutting down application", zap.Error(err))
					_ = shutdowner.Shutdown()
				}
			}()

			return nil
		},
		OnStop: func(ctx context.Context) error {
			if srv != nil {
				return srv.Shutdown(ctx)
			}
			return nil
		},
	})
}
