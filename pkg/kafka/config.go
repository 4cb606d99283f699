package kafka

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/fx"
)

type Config struct {
	Brokers   string           `mapstructure:"brokers"`
	Producer  ProducerConfig   `mapstructure:"producer"`
	Consumers []ConsumerConfig `mapstructure:"consumers"`
}

type ProducerConfig struct {
	// FlushTimeout bounds the final flush on shutdown.
	FlushTimeout time.Duration `mapstructure:"flush-timeout"`
}

type ConsumerConfig struct {
	Name            string `mapstructure:"name"`
	Topic           string `mapstructure:"topic"`
	GroupID         string `mapstructure:"group-id"`
	AutoOffsetReset string `mapstructure:"auto-offset-reset"`

	// Workers is the size of the processing pool. Records are sharded to
	// workers by message key, so per-entity ordering survives the pool.
	Workers int `mapstructure:"workers"`

	// MaxAttempts bounds in-process retries of a failing handler before the
	// record is given up on (DLQ or left unacknowledged).
	MaxAttempts int           `mapstructure:"max-attempts"`
	MaxBackoff  time.Duration `mapstructure:"max-backoff"`

	EnableDLQ bool   `mapstructure:"enable-dlq"`
	DLQTopic  string `mapstructure:"dlq-topic"`
}

func NewConfigModule() fx.Option {
	return fx.Provide(newConfig)
}

func newConfig(v *viper.Viper) (Config, error) {
	var cfg Config
	sub := v.Sub("kafka")
	if sub == nil {
		return cfg, fmt.Errorf("kafka config section is missing")
	}
	if err := sub.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to load kafka config: %w", err)
	}
	if cfg.Producer.FlushTimeout == 0 {
		cfg.Producer.FlushTimeout = 15 * time.Second
	}
	for i := range cfg.Consumers {
		applyConsumerDefaults(&cfg.Consumers[i])
	}
	return cfg, nil
}

func applyConsumerDefaults(c *ConsumerConfig) {
	if c.AutoOffsetReset == "" {
		c.AutoOffsetReset = "earliest"
	}
	if c.Workers <= 0 {
		c.Workers = 4
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.MaxBackoff == 0 {
		c.MaxBackoff = 10 * time.Second
	}
	if c.EnableDLQ && c.DLQTopic == "" {
		c.DLQTopic = c.Topic + ".dlq"
	}
}

func consumerConfigByName(conf Config, name string) (ConsumerConfig, error) {
	for _, c := range conf.Consumers {
		if c.Name == name {
			return c, nil
		}
	}
	return ConsumerConfig{}, fmt.Errorf("no consumer config found for name: %s", name)
}
