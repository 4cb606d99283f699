package trip

import (
	"encoding/json"
	"fmt"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/pcd-labs/smart-mobility/pkg/core/config"
	"github.com/pcd-labs/smart-mobility/pkg/event"
	broker "github.com/pcd-labs/smart-mobility/pkg/kafka"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// Publisher announces trip lifecycle transitions on the trip topic.
// Fire-and-forget: an error means the record never left the process.
type Publisher interface {
	Created(t *Trip) error
	Updated(t *Trip) error
	Deleted(id string) error
	Started(t *Trip) error
	Completed(t *Trip) error
	Cancelled(t *Trip) error
	DriverAssigned(t *Trip) error
}

type publisher struct {
	producer broker.Producer
	source   string
	log      *zap.Logger
}

func newPublisher(producer broker.Producer, appConf config.AppConfig, log *zap.Logger) Publisher {
	return &publisher{
		producer: producer,
		source:   appConf.ServiceName,
		log:      log,
	}
}

func (p *publisher) Created(t *Trip) error {
	return p.publish(t.ID, event.TripCreated, snapshot(t))
}

func (p *publisher) Updated(t *Trip) error {
	return p.publish(t.ID, event.TripUpdated, snapshot(t))
}

func (p *publisher) Deleted(id string) error {
	return p.publish(id, event.TripDeleted, nil)
}

func (p *publisher) Started(t *Trip) error {
	return p.publish(t.ID, event.TripStarted, snapshot(t))
}

func (p *publisher) Completed(t *Trip) error {
	payload := snapshot(t)
	payload.Distance = lo.ToPtr(t.DistanceKM)
	payload.Duration = lo.ToPtr(t.DurationMinutes)
	payload.TotalCost = lo.ToPtr(t.TotalCost)
	return p.publish(t.ID, event.TripCompleted, payload)
}

func (p *publisher) Cancelled(t *Trip) error {
	return p.publish(t.ID, event.TripCancelled, snapshot(t))
}

func (p *publisher) DriverAssigned(t *Trip) error {
	return p.publish(t.ID, event.TripDriverAssigned, snapshot(t))
}

func snapshot(t *Trip) *event.TripPayload {
	return &event.TripPayload{
		DriverID:  t.DriverID,
		VehicleID: t.VehicleID,
		TripType:  lo.ToPtr(string(t.TripType)),
		Status:    lo.ToPtr(string(t.Status)),
	}
}

func (p *publisher) publish(entityID string, eventType event.Type, payload *event.TripPayload) error {
	if entityID == "" {
		return fmt.Errorf("cannot publish %s: empty entity id", eventType)
	}

	envelope := event.NewEnvelope(entityID, eventType, p.source, payload)
	value, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", eventType, err)
	}

	topic := event.TripTopic
	msg := &kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &topic, Partition: kafka.PartitionAny},
		Key:            []byte(entityID),
		Value:          value,
	}

	if err := p.producer.Produce(msg, nil); err != nil {
		return fmt.Errorf("failed to enqueue %s event: %w", eventType, err)
	}

	p.log.Debug("event enqueued",
		zap.String("type", string(eventType)),
		zap.String("entity_id", entityID))
	return nil
}
