// Package httpclient builds the pooled HTTP clients the services use to call
// each other. Connections are rotated by age so traffic rebalances to new pods,
// and transient transport errors are retried against a fresh connection.
package httpclient

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/viper"
)

const (
	DefaultTimeout             = 10 * time.Second
	DefaultMaxIdleConnsPerHost = 100
	DefaultIdleConnTimeout     = 90 * time.Second
	DefaultMaxConnLifetime     = 60 * time.Second
	MaxRetriesCap              = 5
)

// ClientConfig holds configuration for one named HTTP client.
// yaml example:
//
//	clients:
//	  user-service:
//	    base-url: http://user-service:8080
//	    timeout: 2s
//	    max-idle-conns-per-host: 10
//	    idle-conn-timeout: 30s
//	    max-conn-lifetime: 60s
//
// Omit timeout fields to use defaults. Set to 0 to disable.
type ClientConfig struct {
	BaseURL             string         `mapstructure:"base-url"`
	Timeout             *time.Duration `mapstructure:"timeout"`
	MaxIdleConnsPerHost *int           `mapstructure:"max-idle-conns-per-host"`
	IdleConnTimeout     *time.Duration `mapstructure:"idle-conn-timeout"`
	MaxConnLifetime     *time.Duration `mapstructure:"max-conn-lifetime"`
}

func newHTTPClient(cfg ClientConfig) *http.Client {
	dialer := &net.Dialer{
		Timeout: 5 * time.Second,
	}

	maxConnLifetime := *cfg.MaxConnLifetime
	idleConnTimeout := *cfg.IdleConnTimeout
	maxIdleConnsPerHost := *cfg.MaxIdleConnsPerHost
	timeout := *cfg.Timeout

	// Age-tracked connections only when lifetime rotation is enabled.
	var dialContext func(ctx context.Context, network, addr string) (net.Conn, error)
	if maxConnLifetime > 0 {
		dialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
			conn, err := dialer.DialContext(ctx, network, addr)
			if err != nil {
				return nil, err
			}
			return &timedConn{
				Conn:        conn,
				createdAt:   time.Now(),
				maxLifetime: maxConnLifetime,
			}, nil
		}
	}

	transport := &http.Transport{
		DialContext:         dialContext,
		MaxIdleConnsPerHost: maxIdleConnsPerHost,
		IdleConnTimeout:     idleConnTimeout,
	}

	retryTransport := &retryTransport{
		base:       transport,
		transport:  transport,
		maxRetries: min(maxIdleConnsPerHost, MaxRetriesCap),
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: retryTransport,
	}
}

// ProvideHTTPClient returns a provider function that creates an HTTP client
// from the "clients.<name>" config section.
// Usage with fx:
//
//	fx.Provide(fx.Private, httpclient.ProvideHTTPClient("user-service"))
func ProvideHTTPClient(name string) func(*viper.Viper) (*http.Client, ClientConfig, error) {
	return func(cfg *viper.Viper) (*http.Client, ClientConfig, error) {
		var clientCfg ClientConfig
		if err := cfg.UnmarshalKey("clients."+name, &clientCfg); err != nil {
			return nil, ClientConfig{}, fmt.Errorf("failed to unmarshal client config %q: %w", name, err)
		}
		if err := clientCfg.validate(); err != nil {
			return nil, ClientConfig{}, fmt.Errorf("invalid client config %q: %w", name, err)
		}
		clientCfg.applyDefaults()
		return newHTTPClient(clientCfg), clientCfg, nil
	}
}

func (c *ClientConfig) applyDefaults() {
	if c.Timeout == nil {
		c.Timeout = lo.ToPtr(DefaultTimeout)
	}
	if c.MaxIdleConnsPerHost == nil {
		c.MaxIdleConnsPerHost = lo.ToPtr(DefaultMaxIdleConnsPerHost)
	}
	if c.IdleConnTimeout == nil {
		c.IdleConnTimeout = lo.ToPtr(DefaultIdleConnTimeout)
	}
	if c.MaxConnLifetime == nil {
		c.MaxConnLifetime = lo.ToPtr(DefaultMaxConnLifetime)
	}
}

func (c ClientConfig) validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base-url is required")
	}
	return nil
}
