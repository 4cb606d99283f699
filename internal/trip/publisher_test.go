package trip

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/pcd-labs/smart-mobility/pkg/core/config"
	"github.com/pcd-labs/smart-mobility/pkg/event"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeProducer struct {
	messages []*kafka.Message
}

func (f *fakeProducer) Produce(message *kafka.Message, deliveryChan chan kafka.Event) error {
	f.messages = append(f.messages, message)
	return nil
}

func (f *fakeProducer) Flush(timeoutMs int) int { return 0 }
func (f *fakeProducer) Close()                  {}

func testPublisher(producer *fakeProducer) Publisher {
	return newPublisher(producer, config.AppConfig{ServiceName: "trips-service"}, zap.NewNop())
}

func sampleTrip() *Trip {
	start := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	return &Trip{
		ID:             "T1",
		DriverID:       lo.ToPtr("U1"),
		VehicleID:      lo.ToPtr("V1"),
		TripType:       TypeOneWay,
		Status:         StatusInProgress,
		StartLocation:  "Lyon",
		EndLocation:    "Paris",
		ScheduledStart: start,
	}
}

func TestStarted_StampsEnvelopeAndKeysByEntityID(t *testing.T) {
	producer := &fakeProducer{}
	p := testPublisher(producer)

	require.NoError(t, p.Started(sampleTrip()))
	require.Len(t, producer.messages, 1)

	msg := producer.messages[0]
	assert.Equal(t, event.TripTopic, *msg.TopicPartition.Topic)
	assert.Equal(t, "T1", string(msg.Key))

	var env event.Envelope[event.TripPayload]
	require.NoError(t, json.Unmarshal(msg.Value, &env))
	assert.Equal(t, event.TripStarted, env.Type)
	assert.Equal(t, "T1", env.EntityID)
	assert.Equal(t, "trips-service", env.Source)
	require.NotNil(t, env.Payload)
	assert.Equal(t, "U1", *env.Payload.DriverID)
	assert.Equal(t, "V1", *env.Payload.VehicleID)
	assert.Equal(t, "IN_PROGRESS", *env.Payload.Status)
}

func TestCompleted_CarriesTripMetrics(t *testing.T) {
	producer := &fakeProducer{}
	p := testPublisher(producer)

	trip := sampleTrip()
	trip.Status = StatusCompleted
	trip.DistanceKM = 465.5
	trip.DurationMinutes = 280
	trip.TotalCost = 7500
	require.NoError(t, p.Completed(trip))

	var env event.Envelope[event.TripPayload]
	require.NoError(t, json.Unmarshal(producer.messages[0].Value, &env))
	assert.Equal(t, event.TripCompleted, env.Type)
	require.NotNil(t, env.Payload)
	assert.InDelta(t, 465.5, *env.Payload.Distance, 1e-9)
	assert.Equal(t, int64(280), *env.Payload.Duration)
	assert.Equal(t, int64(7500), *env.Payload.TotalCost)
}

func TestDeleted_CarriesNoPayload(t *testing.T) {
	producer := &fakeProducer{}
	p := testPublisher(producer)

	require.NoError(t, p.Deleted("T1"))

	var env event.Envelope[event.TripPayload]
	require.NoError(t, json.Unmarshal(producer.messages[0].Value, &env))
	assert.Equal(t, event.TripDeleted, env.Type)
	assert.Nil(t, env.Payload)
}

func TestPublish_RejectsEmptyEntityID(t *testing.T) {
	producer := &fakeProducer{}
	p := testPublisher(producer)

	err := p.Deleted("")

	require.Error(t, err)
	assert.Empty(t, producer.messages)
}
