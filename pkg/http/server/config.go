package server

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

type Config struct {
	Port int `mapstructure:"port"`

	Connection ConnectionConfig `mapstructure:"connection"`
	RateLimit  RateLimitConfig  `mapstructure:"rate-limit"`
}

// ConnectionConfig contains low-level HTTP server connection settings.
// These are hard timeouts that close the connection without an HTTP response.
type ConnectionConfig struct {
	ReadHeaderTimeout time.Duration `mapstructure:"read-header-timeout"`
	ReadTimeout       time.Duration `mapstructure:"read-timeout"`
	WriteTimeout      time.Duration `mapstructure:"write-timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle-timeout"`
	MaxHeaderBytes    int           `mapstructure:"max-header-bytes"`
}

type RateLimitConfig struct {
	Enabled           *bool `mapstructure:"enabled"`
	RequestsPerSecond int   `mapstructure:"requests-per-second"`
	Burst             int   `mapstructure:"burst"`
}

func newConfig(v *viper.Viper, logger *zap.Logger) (Config, error) {
	var cfg Config
	if err := v.Sub("server").Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to load server config: %w", err)
	}

	cfg.Connection.setDefaults()
	cfg.RateLimit.setDefaults()

	logger.Info("loaded server config", zap.Any("config", cfg))
	return cfg, nil
}

func (c *ConnectionConfig) setDefaults() {
	if c.ReadHeaderTimeout == 0 {
		c.ReadHeaderTimeout = 10 * time.Second
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 30 * time.Second
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 40 * time.Second
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 120 * time.Second
	}
	if c.MaxHeaderBytes == 0 {
		c.MaxHeaderBytes = 1 << 20
	}
}

func boolPtr(b bool) *bool {
	return &b
}

func (c *RateLimitConfig) setDefaults() {
	if c.Enabled == nil {
		c.Enabled = boolPtr(true)
	}
	if !*c.Enabled {
		return
	}
	if c.RequestsPerSecond == 0 {
		c.RequestsPerSecond = 1000
	}
	if c.Burst == 0 {
		c.Burst = 100
	}
}
