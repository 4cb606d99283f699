package kafka

import (
	"context"
	"fmt"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"go.uber.org/zap"
)

// DLQHandler parks records that could not be processed. A non-nil error means
// the record was NOT parked and must not be acknowledged.
type DLQHandler interface {
	SendToDLQ(ctx context.Context, message *kafka.Message, processingErr error) error
}

type dlqHandler struct {
	producer Producer
	dlqTopic string
	log      *zap.Logger
}

func newDLQHandler(producer Producer, consumerConf ConsumerConfig, log *zap.Logger) DLQHandler {
	if !consumerConf.EnableDLQ {
		return &noopDLQHandler{log: log}
	}
	return &dlqHandler{
		producer: producer,
		dlqTopic: consumerConf.DLQTopic,
		log:      log,
	}
}

func (h *dlqHandler) SendToDLQ(ctx context.Context, message *kafka.Message, processingErr error) error {
	dlqMessage := &kafka.Message{
		TopicPartition: kafka.TopicPartition{
			Topic:     &h.dlqTopic,
			Partition: kafka.PartitionAny,
		},
		Key:   message.Key,
		Value: message.Value,
		Headers: append(message.Headers,
			kafka.Header{Key: "dlq.original.topic", Value: []byte(*message.TopicPartition.Topic)},
			kafka.Header{Key: "dlq.original.partition", Value: []byte(fmt.Sprintf("%d", message.TopicPartition.Partition))},
			kafka.Header{Key: "dlq.original.offset", Value: []byte(fmt.Sprintf("%d", message.TopicPartition.Offset))},
			kafka.Header{Key: "dlq.error", Value: []byte(processingErr.Error())},
			kafka.Header{Key: "dlq.timestamp", Value: []byte(time.Now().UTC().Format(time.RFC3339))},
		),
	}

	// DLQ writes are the one place publishing is synchronous: acknowledging
	// the original record is only safe once the copy is durably parked.
	// The channel is never closed: on a cancelled wait the broker may still
	// write the late delivery report, and the buffer absorbs it.
	deliveryChan := make(chan kafka.Event, 1)

	if err := h.producer.Produce(dlqMessage, deliveryChan); err != nil {
		return fmt.Errorf("failed to send message to DLQ %s: %w", h.dlqTopic, err)
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case e := <-deliveryChan:
		m, ok := e.(*kafka.Message)
		if !ok {
			return fmt.Errorf("unexpected event type from delivery channel: %T", e)
		}
		if m.TopicPartition.Error != nil {
			return fmt.Errorf("failed to deliver message to DLQ %s: %w", h.dlqTopic, m.TopicPartition.Error)
		}
	}

	h.log.Info("message sent to DLQ",
		zap.String("dlq_topic", h.dlqTopic),
		zap.String("key", string(message.Key)),
		zap.Int32("original_partition", message.TopicPartition.Partition),
		zap.Int64("original_offset", int64(message.TopicPartition.Offset)))
	return nil
}

// noopDLQHandler refuses to park, which keeps the offset unstored and lets the
// broker redeliver the record.
type noopDLQHandler struct {
	log *zap.Logger
}

func (h *noopDLQHandler) SendToDLQ(ctx context.Context, message *kafka.Message, processingErr error) error {
	h.log.Warn("DLQ not configured for consumer, message will be redelivered",
		zap.String("key", string(message.Key)),
		zap.Int32("partition", message.TopicPartition.Partition),
		zap.Int64("offset", int64(message.TopicPartition.Offset)))
	return fmt.Errorf("dlq not configured")
}
