package kafka

import (
	"context"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"go.uber.org/zap"
)

// processor runs one record through the handler with retries and hands the
// outcome to the result handler. It is shared by all workers in the pool and
// holds no per-record state.
type processor struct {
	handler       Handler
	retryExecutor RetryExecutor
	resultHandler *resultHandler
	log           *zap.Logger
}

func newProcessor(
	handler Handler,
	retryExecutor RetryExecutor,
	resultHandler *resultHandler,
	log *zap.Logger,
) *processor {
	return &processor{
		handler:       handler,
		retryExecutor: retryExecutor,
		resultHandler: resultHandler,
		log:           log,
	}
}

func (p *processor) processMessage(ctx context.Context, message *kafka.Message) {
	err := p.retryExecutor.Execute(ctx, func(ctx context.Context) error {
		return p.handler.Handle(ctx, message)
	})
	p.resultHandler.handle(ctx, err, message)
}
