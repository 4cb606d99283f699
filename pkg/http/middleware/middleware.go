// Package middleware assembles the gin engine every service shares. Middleware
// is collected through an fx value group and ordered by priority, so services
// can contribute their own entries without touching the engine setup.
package middleware

import (
	"net/http"
	"runtime/debug"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pcd-labs/smart-mobility/pkg/core/logger"
	"github.com/pcd-labs/smart-mobility/pkg/http/problems"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Middleware struct {
	Priority int
	Handler  gin.HandlerFunc
}

type mwIn struct {
	fx.In
	Middlewares []Middleware `group:"gin_mw"`
}

// NewGinModule provides the gin engine with the standard middleware chain:
//
//	100 - Recovery     - catches panics
//	150 - RateLimit    - limits requests/second
//	200 - Logger       - logs requests
//	300 - ErrorLogger  - logs errors from handlers
//	400 - Problem      - converts errors to RFC 7807
func NewGinModule() fx.Option {
	return fx.Provide(
		provideGinAndHandler,
		fx.Annotate(
			func() Middleware {
				return Middleware{Priority: 100, Handler: recoveryMiddleware()}
			},
			fx.ResultTags(`group:"gin_mw"`),
		),
		fx.Annotate(
			newRateLimitMiddleware,
			fx.ResultTags(`group:"gin_mw"`),
		),
		fx.Annotate(
			func() Middleware {
				return Middleware{Priority: 200, Handler: loggerMiddleware()}
			},
			fx.ResultTags(`group:"gin_mw"`),
		),
		fx.Annotate(
			func() Middleware {
				return Middleware{Priority: 300, Handler: errorLoggerMiddleware()}
			},
			fx.ResultTags(`group:"gin_mw"`),
		),
		fx.Annotate(
			func() Middleware {
				return Middleware{Priority: 400, Handler: problemMiddleware()}
			},
			fx.ResultTags(`group:"gin_mw"`),
		),
	)
}

func provideGinAndHandler(in mwIn) (*gin.Engine, http.Handler) {
	e := newEngine(in.Middlewares)
	return e, e
}

func newEngine(mws []Middleware) *gin.Engine {
	engine := gin.New(func(e *gin.Engine) {
		e.ContextWithFallback = true
	})

	sort.Slice(mws, func(i, j int) bool { return mws[i].Priority < mws[j].Priority })
	for _, m := range mws {
		if m.Handler == nil {
			continue
		}
		engine.Use(m.Handler)
	}

	return engine
}

// requestFields returns common request fields for logging.
func requestFields(c *gin.Context) []zap.Field {
	return []zap.Field{
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.String("query", c.Request.URL.RawQuery),
		zap.String("client_ip", c.ClientIP()),
	}
}

func loggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if path == "/health/live" || path == "/health/ready" {
			c.Next()
			return
		}

		start := time.Now()

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		fields := append(requestFields(c),
			zap.Int("status", status),
			zap.Duration("latency", latency),
			zap.String("user_agent", c.Request.UserAgent()),
		)

		logger.FromContext(c).Debug("Incoming request", fields...)
	}
}

func recoveryMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				fields := append(requestFields(c),
					zap.Any("panic", r),
					zap.ByteString("stack", debug.Stack()),
				)
				logger.FromContext(c).Error("Panic recovered", fields...)
				c.AbortWithStatus(http.StatusInternalServerError)
			}
		}()
		c.Next()
	}
}

func errorLoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			log := logger.FromContext(c)
			for _, e := range c.Errors {
				fields := append(requestFields(c),
					zap.Int("status", c.Writer.Status()),
					zap.String("error", e.Error()),
					zap.Any("meta", e.Meta),
				)
				log.Error("Request error", fields...)
			}
		}
	}
}

func problemMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		// Only handle if there are errors and the response hasn't been written.
		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		status := c.Writer.Status()
		if status == 0 || status == http.StatusOK {
			status = http.StatusInternalServerError
		}

		firstErr := c.Errors[0]
		problem := problems.Problem{
			Type:     "about:blank",
			Title:    http.StatusText(status),
			Status:   status,
			Detail:   firstErr.Error(),
			Instance: c.Request.URL.Path,
		}

		// Field errors attached by handlers end up in the problem body.
		if meta, ok := firstErr.Meta.(map[string]string); ok {
			for field, msg := range meta {
				problem.Errors = append(problem.Errors, problems.FieldError{
					Field:   field,
					Message: msg,
				})
			}
		}

		if existingProblem, ok := firstErr.Meta.(*problems.Problem); ok {
			problem = *existingProblem
			if problem.Status != 0 {
				status = problem.Status
			}
		}

		c.JSON(status, problem)
	}
}
