package kafka

import (
	"context"
	"errors"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"go.uber.org/zap"
)

// resultHandler decides what happens to a record's offset once processing has
// finished. Success and skip acknowledge the record. A permanent failure (or
// exhausted retries) goes to the DLQ and is acknowledged only if the DLQ write
// succeeded. Without a DLQ the offset stays unstored so the record is
// redelivered after the next rebalance or restart.
type resultHandler struct {
	log        *zap.Logger
	dlqHandler DLQHandler
	consumer   offsetStorer
}

func newResultHandler(
	log *zap.Logger,
	dlqHandler DLQHandler,
	consumer offsetStorer,
) *resultHandler {
	return &resultHandler{
		log:        log,
		dlqHandler: dlqHandler,
		consumer:   consumer,
	}
}

func (h *resultHandler) handle(ctx context.Context, err error, message *kafka.Message) {
	switch {
	case err == nil:
		h.storeOffset(message)

	case errors.Is(err, ErrSkipMessage):
		h.log.Info("skipping message", h.messageFields(message)...)
		h.storeOffset(message)

	case errors.Is(err, context.Canceled):
		// Shutdown interrupted processing; leave the offset unstored so the
		// record redelivers on the next start.
		h.log.Warn("processing interrupted by shutdown", h.messageFields(message)...)

	default:
		h.log.Error("message processing failed - sending to DLQ", h.messageFieldsWithError(message, err)...)
		if dlqErr := h.dlqHandler.SendToDLQ(ctx, message, err); dlqErr != nil {
			h.log.Error("failed to park message in DLQ, leaving offset unstored",
				h.messageFieldsWithError(message, dlqErr)...)
			return
		}
		h.storeOffset(message)
	}
}

func (h *resultHandler) storeOffset(message *kafka.Message) {
	if _, err := h.consumer.StoreMessage(message); err != nil {
		h.log.Error("failed to store offset", h.messageFieldsWithError(message, err)...)
	}
}

func (h *resultHandler) messageFields(message *kafka.Message) []zap.Field {
	return []zap.Field{
		zap.String("key", string(message.Key)),
		zap.Int32("partition", message.TopicPartition.Partition),
		zap.Int64("offset", int64(message.TopicPartition.Offset)),
	}
}

func (h *resultHandler) messageFieldsWithError(message *kafka.Message, err error) []zap.Field {
	return append(h.messageFields(message), zap.Error(err))
}
