package kafka

import (
	"context"
	"fmt"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Producer publishes records asynchronously. Publishing never blocks the
// caller on broker acknowledgement: delivery reports arrive on the shared
// event channel and are logged by a background drain goroutine, so a slow or
// unreachable broker cannot stall a business operation.
type Producer interface {
	Produce(message *kafka.Message, deliveryChan chan kafka.Event) error
	Flush(timeoutMs int) int
	Close()
}

type producer struct {
	producer *kafka.Producer
	log      *zap.Logger
}

func newProducer(conf Config, log *zap.Logger) (Producer, error) {
	p, err := kafka.NewProducer(&kafka.ConfigMap{"bootstrap.servers": conf.Brokers})
	if err != nil {
		return nil, fmt.Errorf("failed to create producer: %w", err)
	}

	go func() {
		for e := range p.Events() {
			switch ev := e.(type) {
			case *kafka.Message:
				if ev.TopicPartition.Error != nil {
					log.Error("failed to publish message",
						zap.String("key", string(ev.Key)),
						zap.Any("partition", ev.TopicPartition),
						zap.Error(ev.TopicPartition.Error))
				} else {
					log.Debug("message published",
						zap.String("key", string(ev.Key)),
						zap.Any("partition", ev.TopicPartition))
				}
			case kafka.Error:
				log.Error("producer error", zap.Error(ev))
			}
		}
	}()

	return &producer{producer: p, log: log}, nil
}

func (p *producer) Produce(message *kafka.Message, deliveryChan chan kafka.Event) error {
	err := p.producer.Produce(message, deliveryChan)
	if err != nil {
		return fmt.Errorf("failed to send message to topic %s: %w", message.TopicPartition, err)
	}
	return nil
}

func (p *producer) Flush(timeoutMs int) int {
	return p.producer.Flush(timeoutMs)
}

func (p *producer) Close() {
	p.producer.Close()
}

// NewProducerModule wires the shared producer with a lifecycle hook that
// flushes in-flight records before closing on shutdown.
func NewProducerModule() fx.Option {
	return fx.Module("kafka-producer",
		fx.Provide(func(lc fx.Lifecycle, conf Config, log *zap.Logger) (Producer, error) {
			p, err := newProducer(conf, log)
			if err != nil {
				return nil, err
			}
			lc.Append(fx.Hook{
				OnStop: func(ctx context.Context) error {
					remaining := p.Flush(int(conf.Producer.FlushTimeout.Milliseconds()))
					if remaining > 0 {
						log.Warn("producer closed with undelivered messages",
							zap.Int("remaining", remaining))
					}
					p.Close()
					return nil
				},
			})
			return p, nil
		}),
	)
}
