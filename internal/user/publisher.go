package user

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

// Publisher announces user state transitions on the user topic. Publishing is
// fire-and-forget: a returned error means the record never left the process,
// delivery results are logged asynchronously by the producer.
type Publisher interface {
	Created(u *User) error
	Updated(u *User) error
	Deleted(id string) error
	StatusChanged(u *User, previous DriverStatus) error
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

func (p *publisher) Created(u *User) error {
	return p.publish(u.ID, event.UserCreated, snapshot(u))
}

func (p *publisher) Updated(u *User) error {
	return p.publish(u.ID, event.UserUpdated, snapshot(u))
}

func (p *publisher) Deleted(id string) error {
	return p.publish(id, event.UserDeleted, nil)
}

func (p *publisher) StatusChanged(u *User, previous DriverStatus) error {
	payload := &event.UserPayload{
		DriverStatus:         lo.ToPtr(string(u.DriverStatus)),
		PreviousDriverStatus: lo.ToPtr(string(previous)),
	}
	return p.publish(u.ID, event.UserStatusChanged, payload)
}

func snapshot(u *User) *event.UserPayload {
	return &event.UserPayload{
		FirstName:     lo.ToPtr(u.FirstName),
		LastName:      lo.ToPtr(u.LastName),
		Email:         lo.ToPtr(u.Email),
		PhoneNumber:   lo.ToPtr(u.PhoneNumber),
		LicenseNumber: lo.ToPtr(u.LicenseNumber),
		DriverStatus:  lo.ToPtr(string(u.DriverStatus)),
	}
}

func (p *publisher) publish(entityID string, eventType event.Type, payload *event.UserPayload) error {
	if entityID == "" {
		return fmt.Errorf("cannot publish %s: empty entity id", eventType)
	}

	envelope := event.NewEnvelope(entityID, eventType, p.source, payload)
	value, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", eventType, err)
	}

	topic := event.UserTopic
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
