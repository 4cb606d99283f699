package vehicle

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/pcd-labs/smart-mobility/pkg/core/config"
	"github.com/pcd-labs/smart-mobility/pkg/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeProducer struct {
	messages []*kafka.Message
	err      error
}

func (f *fakeProducer) Produce(message *kafka.Message, deliveryChan chan kafka.Event) error {
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, message)
	return nil
}

func (f *fakeProducer) Flush(timeoutMs int) int { return 0 }
func (f *fakeProducer) Close()                  {}

func testPublisher(producer *fakeProducer) Publisher {
	return newPublisher(producer, config.AppConfig{ServiceName: "vehicle-service"}, zap.NewNop())
}

func sampleVehicle() *Vehicle {
	return &Vehicle{
		ID:           "V1",
		Make:         "Toyota",
		Model:        "Corolla",
		Year:         2022,
		LicensePlate: "AB-123-CD",
		GPSEnabled:   true,
		Status:       StatusActive,
	}
}

func TestCreated_StampsEnvelopeAndKeysByEntityID(t *testing.T) {
	producer := &fakeProducer{}
	p := testPublisher(producer)

	require.NoError(t, p.Created(sampleVehicle()))
	require.Len(t, producer.messages, 1)

	msg := producer.messages[0]
	assert.Equal(t, event.VehicleTopic, *msg.TopicPartition.Topic)
	assert.Equal(t, "V1", string(msg.Key))

	var env event.Envelope[event.VehiclePayload]
	require.NoError(t, json.Unmarshal(msg.Value, &env))
	assert.Equal(t, event.VehicleCreated, env.Type)
	assert.Equal(t, "V1", env.EntityID)
	assert.Equal(t, "vehicle-service", env.Source)
	assert.NotEmpty(t, env.EventID)
	assert.False(t, env.Timestamp.IsZero())
	require.NotNil(t, env.Payload)
	assert.Equal(t, "Toyota", *env.Payload.Make)
	assert.Equal(t, "ACTIVE", *env.Payload.Status)
}

func TestDeleted_CarriesNoPayload(t *testing.T) {
	producer := &fakeProducer{}
	p := testPublisher(producer)

	require.NoError(t, p.Deleted("V1"))
	require.Len(t, producer.messages, 1)

	var env event.Envelope[event.VehiclePayload]
	require.NoError(t, json.Unmarshal(producer.messages[0].Value, &env))
	assert.Equal(t, event.VehicleDeleted, env.Type)
	assert.Nil(t, env.Payload)
}

func TestStatusChanged_CarriesOldAndNewStatus(t *testing.T) {
	producer := &fakeProducer{}
	p := testPublisher(producer)

	v := sampleVehicle()
	v.Status = StatusMaintenance
	require.NoError(t, p.StatusChanged(v, StatusActive))

	var env event.Envelope[event.VehiclePayload]
	require.NoError(t, json.Unmarshal(producer.messages[0].Value, &env))
	require.NotNil(t, env.Payload)
	assert.Equal(t, "MAINTENANCE", *env.Payload.Status)
	assert.Equal(t, "ACTIVE", *env.Payload.PreviousStatus)
}

func TestMaintenanceScheduled_CarriesScheduledTime(t *testing.T) {
	producer := &fakeProducer{}
	p := testPublisher(producer)

	at := time.Date(2026, 9, 15, 8, 0, 0, 0, time.UTC)
	v := sampleVehicle()
	v.Status = StatusMaintenance
	require.NoError(t, p.MaintenanceScheduled(v, at))

	var env event.Envelope[event.VehiclePayload]
	require.NoError(t, json.Unmarshal(producer.messages[0].Value, &env))
	assert.Equal(t, event.VehicleMaintenanceScheduled, env.Type)
	require.NotNil(t, env.Payload)
	require.NotNil(t, env.Payload.MaintenanceAt)
	assert.True(t, at.Equal(*env.Payload.MaintenanceAt))
}

func TestLocationUpdated_CarriesCoordinates(t *testing.T) {
	producer := &fakeProducer{}
	p := testPublisher(producer)

	lat, lon := 48.8566, 2.3522
	v := sampleVehicle()
	v.Latitude = &lat
	v.Longitude = &lon
	require.NoError(t, p.LocationUpdated(v))

	var env event.Envelope[event.VehiclePayload]
	require.NoError(t, json.Unmarshal(producer.messages[0].Value, &env))
	assert.Equal(t, event.VehicleLocationUpdated, env.Type)
	require.NotNil(t, env.Payload)
	assert.InDelta(t, lat, *env.Payload.Latitude, 1e-9)
	assert.InDelta(t, lon, *env.Payload.Longitude, 1e-9)
}

func TestPublish_RejectsEmptyEntityID(t *testing.T) {
	producer := &fakeProducer{}
	p := testPublisher(producer)

	err := p.Deleted("")

	require.Error(t, err)
	assert.Empty(t, producer.messages)
}

func TestPublish_SurfacesEnqueueFailure(t *testing.T) {
	producer := &fakeProducer{err: errors.New("queue full")}
	p := testPublisher(producer)

	err := p.Created(sampleVehicle())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "queue full")
}
