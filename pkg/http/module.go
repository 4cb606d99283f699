// Package http wires the full HTTP surface of a service: gin engine with the
// shared middleware chain, the server lifecycle and the health routes.
package http

import (
	"github.com/pcd-labs/smart-mobility/pkg/http/health"
	"github.com/pcd-labs/smart-mobility/pkg/http/middleware"
	"github.com/pcd-labs/smart-mobility/pkg/http/server"
	"go.uber.org/fx"
)

func NewHTTPModule() fx.Option {
	return fx.Options(
		middleware.NewGinModule(),
		server.NewHTTPServerModule(),
		health.NewHealthRoutesModule(),
	)
}
