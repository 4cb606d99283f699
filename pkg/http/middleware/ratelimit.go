package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pcd-labs/smart-mobility/pkg/http/problems"
	"github.com/pcd-labs/smart-mobility/pkg/http/server"
	"golang.org/x/time/rate"
)

func newRateLimitMiddleware(serverConfig server.Config) Middleware {
	config := serverConfig.RateLimit

	if config.Enabled == nil || !*config.Enabled {
		return Middleware{
			Priority: 150,
			Handler:  nil, // skipped in newEngine
		}
	}

	limiter := rate.NewLimiter(rate.Limit(config.RequestsPerSecond), config.Burst)

	return Middleware{
		Priority: 150,
		Handler: func(c *gin.Context) {
			// Health checks are never rate limited.
			if c.Request.URL.Path == "/health/live" || c.Request.URL.Path == "/health/ready" {
				c.Next()
				return
			}

			if !limiter.Allow() {
				problem := problems.New(http.StatusTooManyRequests, "rate limit exceeded, please try again later")
				problem.Instance = c.Request.URL.Path
				_ = c.Error(errors.New(problem.Detail)).SetMeta(problem)
				c.Abort()
				return
			}

			c.Next()
		},
	}
}
