package kafka

import (
	"context"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// NewModule wires the shared kafka config and producer. Consumers are added
// per-handler with RegisterConsumer.
func NewModule() fx.Option {
	return fx.Options(
		NewConfigModule(),
		NewProducerModule(),
	)
}

func provideMessageChannel() chan *kafka.Message {
	return make(chan *kafka.Message, 64)
}

// RegisterConsumer wires a named consumer around a Handler constructor. Each
// consumer gets a private dependency graph: its own broker connection, retry
// policy, DLQ handler and worker pool, configured by the matching entry in the
// kafka.consumers config list.
func RegisterConsumer(consumerName string, handlerConstructor any) fx.Option {
	return fx.Module(
		consumerName,
		fx.Decorate(
			func(log *zap.Logger, consumerConf ConsumerConfig) *zap.Logger {
				return log.With(
					zap.String("component", "consumer"),
					zap.String("consumer_name", consumerConf.Name),
					zap.String("topic", consumerConf.Topic),
					zap.String("group_id", consumerConf.GroupID),
				)
			},
		),
		fx.Supply(
			fx.Annotate(
				consumerName,
				fx.ResultTags(`name:"consumerName"`),
			),
			fx.Private,
		),
		fx.Provide(
			fx.Annotate(
				consumerConfigByName,
				fx.ParamTags(``, `name:"consumerName"`),
			),
			fx.Annotate(
				handlerConstructor,
				fx.As(new(Handler)),
			),
			provideKafkaConsumer,
			provideMessageChannel,
			newRetryExecutor,
			newDLQHandler,
			newResultHandler,
			newProcessor,
			newPool,
			newReader,
			fx.Private,
		),
		fx.Invoke(startPipeline),
	)
}

// startPipeline starts the worker pool before the reader so records have
// somewhere to go. fx runs OnStop hooks in reverse, so shutdown stops the
// reader first, then the pool, then commits and closes the consumer.
func startPipeline(lc fx.Lifecycle, p *pool, r *reader) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			p.start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			p.stop()
			return nil
		},
	})
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			r.start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			r.stop()
			return nil
		},
	})
}
