package kafka

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func viperFromYAML(t *testing.T, yaml string) *viper.Viper {
	t.Helper()
	v := viper.New()
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(strings.NewReader(yaml)))
	return v
}

func TestNewConfig_AppliesConsumerDefaults(t *testing.T) {
	v := viperFromYAML(t, `
kafka:
  brokers: localhost:9092
  consumers:
    - name: user-events
      topic: smart-mobility.user.events
      group-id: trips-service-group
      enable-dlq: true
`)

	cfg, err := newConfig(v)

	require.NoError(t, err)
	assert.Equal(t, 15*time.Second, cfg.Producer.FlushTimeout)
	require.Len(t, cfg.Consumers, 1)
	c := cfg.Consumers[0]
	assert.Equal(t, "earliest", c.AutoOffsetReset)
	assert.Equal(t, 4, c.Workers)
	assert.Equal(t, 3, c.MaxAttempts)
	assert.Equal(t, 10*time.Second, c.MaxBackoff)
	assert.Equal(t, "smart-mobility.user.events.dlq", c.DLQTopic)
}

func TestNewConfig_MissingSectionIsAnError(t *testing.T) {
	v := viperFromYAML(t, `
server:
  port: 8080
`)

	_, err := newConfig(v)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "kafka config section")
}

func TestConsumerConfigByName_UnknownNameIsAnError(t *testing.T) {
	cfg := Config{Consumers: []ConsumerConfig{{Name: "user-events"}}}

	_, err := consumerConfigByName(cfg, "vehicle-events")

	require.Error(t, err)
}

func TestConsumerConfigByName_FindsMatch(t *testing.T) {
	cfg := Config{Consumers: []ConsumerConfig{
		{Name: "user-events", Topic: "smart-mobility.user.events"},
		{Name: "vehicle-events", Topic: "smart-mobility.vehicle.events"},
	}}

	c, err := consumerConfigByName(cfg, "vehicle-events")

	require.NoError(t, err)
	assert.Equal(t, "smart-mobility.vehicle.events", c.Topic)
}
