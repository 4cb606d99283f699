package event

import (
	"time"

	"github.com/google/uuid"
)

// Type discriminates consumer handling of an envelope.
type Type string

// Base carries the metadata shared by every domain event. The entity id is
// also used as the Kafka partition key, so all events for one entity stay on
// one partition and are observed in publish order by a consumer group.
type Base struct {
	EventID       string    `json:"event_id"`
	EntityID      string    `json:"entity_id"`
	Type          Type      `json:"type"`
	Source        string    `json:"source"`
	Timestamp     time.Time `json:"timestamp"`
	CorrelationID string    `json:"correlation_id,omitempty"`
	Version       int       `json:"version"`
}

// Envelope is the unit transmitted on the broker. Payload fields that are nil
// mean "unknown/unchanged", not "cleared". Envelopes are immutable once
// constructed; publishers never touch a sent envelope again.
type Envelope[T any] struct {
	Base
	Payload *T `json:"payload"`
}

// NewEnvelope stamps envelope metadata at publish time: a fresh event id, a
// fresh correlation id (tracing only, never deduplication) and the
// service-local wall clock. No cross-service clock synchronization is assumed.
func NewEnvelope[T any](entityID string, eventType Type, source string, payload *T) Envelope[T] {
	return Envelope[T]{
		Base: Base{
			EventID:       uuid.NewString(),
			EntityID:      entityID,
			Type:          eventType,
			Source:        source,
			Timestamp:     time.Now(),
			CorrelationID: uuid.NewString(),
			Version:       1,
		},
		Payload: payload,
	}
}
