package vehicle

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/pcd-labs/smart-mobility/pkg/core/config"
	"github.com/pcd-labs/smart-mobility/pkg/event"
	broker "github.com/pcd-labs/smart-mobility/pkg/kafka"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// Publisher announces vehicle state transitions on the vehicle topic.
// Fire-and-forget: an error means the record never left the process.
type Publisher interface {
	Created(v *Vehicle) error
	Updated(v *Vehicle) error
	Deleted(id string) error
	StatusChanged(v *Vehicle, previous Status) error
	MaintenanceScheduled(v *Vehicle, at time.Time) error
	LocationUpdated(v *Vehicle) error
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

func (p *publisher) Created(v *Vehicle) error {
	return p.publish(v.ID, event.VehicleCreated, snapshot(v))
}

func (p *publisher) Updated(v *Vehicle) error {
	return p.publish(v.ID, event.VehicleUpdated, snapshot(v))
}

func (p *publisher) Deleted(id string) error {
	return p.publish(id, event.VehicleDeleted, nil)
}

func (p *publisher) StatusChanged(v *Vehicle, previous Status) error {
	payload := &event.VehiclePayload{
		Status:         lo.ToPtr(string(v.Status)),
		PreviousStatus: lo.ToPtr(string(previous)),
	}
	return p.publish(v.ID, event.VehicleStatusChanged, payload)
}

func (p *publisher) MaintenanceScheduled(v *Vehicle, at time.Time) error {
	payload := &event.VehiclePayload{
		Status:        lo.ToPtr(string(v.Status)),
		MaintenanceAt: lo.ToPtr(at),
	}
	return p.publish(v.ID, event.VehicleMaintenanceScheduled, payload)
}

func (p *publisher) LocationUpdated(v *Vehicle) error {
	payload := &event.VehiclePayload{
		Latitude:  v.Latitude,
		Longitude: v.Longitude,
	}
	return p.publish(v.ID, event.VehicleLocationUpdated, payload)
}

func snapshot(v *Vehicle) *event.VehiclePayload {
	return &event.VehiclePayload{
		Make:              lo.ToPtr(v.Make),
		Model:             lo.ToPtr(v.Model),
		Year:              lo.ToPtr(v.Year),
		LicensePlate:      lo.ToPtr(v.LicensePlate),
		VIN:               lo.ToPtr(v.VIN),
		Color:             lo.ToPtr(v.Color),
		Mileage:           lo.ToPtr(v.Mileage),
		FuelType:          lo.ToPtr(v.FuelType),
		SeatingCapacity:   lo.ToPtr(v.SeatingCapacity),
		RentalPricePerDay: lo.ToPtr(v.RentalPricePerDay),
		GPSEnabled:        lo.ToPtr(v.GPSEnabled),
		Status:            lo.ToPtr(string(v.Status)),
	}
}

func (p *publisher) publish(entityID string, eventType event.Type, payload *event.VehiclePayload) error {
	if entityID == "" {
		return fmt.Errorf("cannot publish %s: empty entity id", eventType)
	}

	envelope := event.NewEnvelope(entityID, eventType, p.source, payload)
	value, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", eventType, err)
	}

	topic := event.VehicleTopic
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
