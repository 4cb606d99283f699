package user

import (
	"encoding/json"
	"errors"
	"testing"

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
	return newPublisher(producer, config.AppConfig{ServiceName: "user-service"}, zap.NewNop())
}

func sampleUser() *User {
	return &User{
		ID:           "U1",
		FirstName:    "Ada",
		LastName:     "Lovelace",
		Email:        "ada@example.com",
		DriverStatus: DriverActive,
	}
}

func TestCreated_StampsEnvelopeAndKeysByEntityID(t *testing.T) {
	producer := &fakeProducer{}
	p := testPublisher(producer)

	require.NoError(t, p.Created(sampleUser()))
	require.Len(t, producer.messages, 1)

	msg := producer.messages[0]
	assert.Equal(t, event.UserTopic, *msg.TopicPartition.Topic)
	assert.Equal(t, "U1", string(msg.Key))

	var env event.Envelope[event.UserPayload]
	require.NoError(t, json.Unmarshal(msg.Value, &env))
	assert.Equal(t, event.UserCreated, env.Type)
	assert.Equal(t, "U1", env.EntityID)
	assert.Equal(t, "user-service", env.Source)
	assert.NotEmpty(t, env.EventID)
	assert.NotEmpty(t, env.CorrelationID)
	assert.False(t, env.Timestamp.IsZero())
	require.NotNil(t, env.Payload)
	assert.Equal(t, "Ada", *env.Payload.FirstName)
}

func TestDeleted_CarriesNoPayload(t *testing.T) {
	producer := &fakeProducer{}
	p := testPublisher(producer)

	require.NoError(t, p.Deleted("U1"))
	require.Len(t, producer.messages, 1)

	var env event.Envelope[event.UserPayload]
	require.NoError(t, json.Unmarshal(producer.messages[0].Value, &env))
	assert.Equal(t, event.UserDeleted, env.Type)
	assert.Nil(t, env.Payload)
}

func TestStatusChanged_CarriesOldAndNewStatus(t *testing.T) {
	producer := &fakeProducer{}
	p := testPublisher(producer)

	u := sampleUser()
	u.DriverStatus = DriverSuspended
	require.NoError(t, p.StatusChanged(u, DriverActive))

	var env event.Envelope[event.UserPayload]
	require.NoError(t, json.Unmarshal(producer.messages[0].Value, &env))
	require.NotNil(t, env.Payload)
	assert.Equal(t, "SUSPENDED", *env.Payload.DriverStatus)
	assert.Equal(t, "ACTIVE", *env.Payload.PreviousDriverStatus)
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

	err := p.Created(sampleUser())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "queue full")
}

func TestCreated_FreshCorrelationIDPerPublish(t *testing.T) {
	producer := &fakeProducer{}
	p := testPublisher(producer)

	require.NoError(t, p.Created(sampleUser()))
	require.NoError(t, p.Created(sampleUser()))

	var first, second event.Envelope[event.UserPayload]
	require.NoError(t, json.Unmarshal(producer.messages[0].Value, &first))
	require.NoError(t, json.Unmarshal(producer.messages[1].Value, &second))
	assert.NotEqual(t, first.CorrelationID, second.CorrelationID)
	assert.NotEqual(t, first.EventID, second.EventID)
}
