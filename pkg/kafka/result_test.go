package kafka

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type fakeStorer struct {
	stored []*kafka.Message
}

func (f *fakeStorer) StoreMessage(m *kafka.Message) ([]kafka.TopicPartition, error) {
	f.stored = append(f.stored, m)
	return nil, nil
}

type fakeDLQ struct {
	parked []*kafka.Message
	err    error
}

func (f *fakeDLQ) SendToDLQ(ctx context.Context, message *kafka.Message, processingErr error) error {
	if f.err != nil {
		return f.err
	}
	f.parked = append(f.parked, message)
	return nil
}

func TestHandle_SuccessStoresOffset(t *testing.T) {
	storer := &fakeStorer{}
	dlq := &fakeDLQ{}
	h := newResultHandler(zap.NewNop(), dlq, storer)

	h.handle(context.Background(), nil, testMessage("U1", 7))

	assert.Len(t, storer.stored, 1)
	assert.Empty(t, dlq.parked)
}

func TestHandle_SkipStoresOffsetWithoutDLQ(t *testing.T) {
	storer := &fakeStorer{}
	dlq := &fakeDLQ{}
	h := newResultHandler(zap.NewNop(), dlq, storer)

	h.handle(context.Background(), fmt.Errorf("%w: stale", ErrSkipMessage), testMessage("U1", 7))

	assert.Len(t, storer.stored, 1)
	assert.Empty(t, dlq.parked)
}

func TestHandle_FailureParksThenStoresOffset(t *testing.T) {
	// Given: a failing record and a working DLQ
	storer := &fakeStorer{}
	dlq := &fakeDLQ{}
	h := newResultHandler(zap.NewNop(), dlq, storer)

	h.handle(context.Background(), errors.New("db down"), testMessage("U1", 7))

	// Then: the record was parked first, then acknowledged
	assert.Len(t, dlq.parked, 1)
	assert.Len(t, storer.stored, 1)
}

func TestHandle_DLQFailureLeavesOffsetUnstored(t *testing.T) {
	// Given: a failing record and an unavailable DLQ
	storer := &fakeStorer{}
	dlq := &fakeDLQ{err: errors.New("dlq unavailable")}
	h := newResultHandler(zap.NewNop(), dlq, storer)

	h.handle(context.Background(), errors.New("db down"), testMessage("U1", 7))

	// Then: nothing was acknowledged, so the broker will redeliver
	assert.Empty(t, storer.stored)
}

func TestHandle_ShutdownLeavesOffsetUnstored(t *testing.T) {
	storer := &fakeStorer{}
	dlq := &fakeDLQ{}
	h := newResultHandler(zap.NewNop(), dlq, storer)

	h.handle(context.Background(), context.Canceled, testMessage("U1", 7))

	assert.Empty(t, storer.stored)
	assert.Empty(t, dlq.parked)
}

func TestNewDLQHandler_DisabledConsumerGetsNoop(t *testing.T) {
	h := newDLQHandler(nil, ConsumerConfig{EnableDLQ: false}, zap.NewNop())

	err := h.SendToDLQ(context.Background(), testMessage("U1", 7), errors.New("boom"))

	// The noop handler refuses to park so the offset stays unstored.
	assert.Error(t, err)
}
