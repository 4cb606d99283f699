package kafka

import (
	"context"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
)

// Handler processes one record. Returning nil acknowledges the record;
// ErrSkipMessage acknowledges without processing; ErrPermanent (or exhausted
// retries) routes the record to the DLQ when one is configured. Handlers run
// concurrently across keys and MUST be idempotent: the delivery model is
// at-least-once and duplicates do occur after rebalances.
type Handler interface {
	Handle(ctx context.Context, msg *kafka.Message) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, msg *kafka.Message) error

func (f HandlerFunc) Handle(ctx context.Context, msg *kafka.Message) error {
	return f(ctx, msg)
}
