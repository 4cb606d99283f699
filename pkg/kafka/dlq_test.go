package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// capturingProducer records the message and delivery channel so tests can play
// the broker's delivery-report side.
type capturingProducer struct {
	mu           sync.Mutex
	message      *kafka.Message
	deliveryChan chan kafka.Event
	err          error
}

func (p *capturingProducer) Produce(message *kafka.Message, deliveryChan chan kafka.Event) error {
	if p.err != nil {
		return p.err
	}
	p.mu.Lock()
	p.message = message
	p.deliveryChan = deliveryChan
	p.mu.Unlock()
	return nil
}

func (p *capturingProducer) captured() chan kafka.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.deliveryChan
}

func (p *capturingProducer) Flush(timeoutMs int) int { return 0 }
func (p *capturingProducer) Close()                  {}

func testDLQHandler(producer Producer) DLQHandler {
	return newDLQHandler(producer, ConsumerConfig{
		EnableDLQ: true,
		DLQTopic:  "orders.dlq",
	}, zap.NewNop())
}

func originalMessage() *kafka.Message {
	return &kafka.Message{
		TopicPartition: kafka.TopicPartition{
			Topic:     lo.ToPtr("orders"),
			Partition: 3,
			Offset:    42,
		},
		Key:   []byte("K1"),
		Value: []byte("payload"),
	}
}

func TestSendToDLQ_ParksWithOriginalCoordinates(t *testing.T) {
	producer := &capturingProducer{}
	h := testDLQHandler(producer)

	done := make(chan error, 1)
	go func() {
		done <- h.SendToDLQ(context.Background(), originalMessage(), errors.New("boom"))
	}()

	// Broker side: confirm delivery.
	require.Eventually(t, func() bool { return producer.captured() != nil }, time.Second, 5*time.Millisecond)
	producer.captured() <- &kafka.Message{TopicPartition: kafka.TopicPartition{Topic: lo.ToPtr("orders.dlq")}}

	require.NoError(t, <-done)
	headers := make(map[string]string, len(producer.message.Headers))
	for _, hd := range producer.message.Headers {
		headers[hd.Key] = string(hd.Value)
	}
	assert.Equal(t, "orders", headers["dlq.original.topic"])
	assert.Equal(t, "3", headers["dlq.original.partition"])
	assert.Equal(t, "42", headers["dlq.original.offset"])
	assert.Equal(t, "boom", headers["dlq.error"])
}

func TestSendToDLQ_DeliveryFailureIsAnError(t *testing.T) {
	producer := &capturingProducer{}
	h := testDLQHandler(producer)

	done := make(chan error, 1)
	go func() {
		done <- h.SendToDLQ(context.Background(), originalMessage(), errors.New("boom"))
	}()

	require.Eventually(t, func() bool { return producer.captured() != nil }, time.Second, 5*time.Millisecond)
	producer.captured() <- &kafka.Message{TopicPartition: kafka.TopicPartition{
		Topic: lo.ToPtr("orders.dlq"),
		Error: errors.New("broker unreachable"),
	}}

	require.Error(t, <-done)
}

// A shutdown mid-park must not leave a channel the broker's late delivery
// report would crash on.
func TestSendToDLQ_CancelledWaitToleratesLateDeliveryReport(t *testing.T) {
	producer := &capturingProducer{}
	h := testDLQHandler(producer)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := h.SendToDLQ(ctx, originalMessage(), errors.New("boom"))
	require.ErrorIs(t, err, context.Canceled)

	// Broker side: the delivery report arrives after SendToDLQ gave up.
	require.NotNil(t, producer.captured())
	require.NotPanics(t, func() {
		producer.captured() <- &kafka.Message{TopicPartition: kafka.TopicPartition{Topic: lo.ToPtr("orders.dlq")}}
	})
}

func TestSendToDLQ_ProduceFailureIsAnError(t *testing.T) {
	producer := &capturingProducer{err: errors.New("queue full")}
	h := testDLQHandler(producer)

	err := h.SendToDLQ(context.Background(), originalMessage(), errors.New("boom"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "queue full")
}
