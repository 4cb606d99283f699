package kafka

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/pcd-labs/smart-mobility/pkg/core/health"
	"go.uber.org/zap"
)

// reader is the single goroutine polling the broker. It pushes records into
// the pool's inbound channel and classifies poll errors so transient broker
// conditions are retried quietly instead of flooding the log.
type reader struct {
	consumer     *kafka.Consumer
	topic        string
	messagesChan chan<- *kafka.Message
	log          *zap.Logger
	readiness    health.Readiness

	ctx        context.Context
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
}

func newReader(
	consumer *kafka.Consumer,
	consumerConf ConsumerConfig,
	messagesChan chan *kafka.Message,
	log *zap.Logger,
	readiness health.Readiness,
) *reader {
	return &reader{
		consumer:     consumer,
		topic:        consumerConf.Topic,
		messagesChan: messagesChan,
		log:          log,
		readiness:    readiness,
	}
}

func (r *reader) start() {
	r.log.Info("starting reader")
	r.ctx, r.cancelFunc = context.WithCancel(context.Background())
	r.wg.Add(1)
	go r.run()
}

func (r *reader) stop() {
	r.log.Info("stopping reader")
	if r.cancelFunc != nil {
		r.cancelFunc()
	}
	r.wg.Wait()
	r.log.Info("reader stopped")
}

func (r *reader) run() {
	defer r.wg.Done()

	r.log.Info("waiting for readiness before reading messages")
	if err := r.readiness.WaitReady(r.ctx); err != nil {
		return
	}
	r.log.Info("readiness achieved, starting to read messages")

	for {
		select {
		case <-r.ctx.Done():
			return
		default:
			msg, err := r.consumer.ReadMessage(5 * time.Second)
			if err != nil {
				var kafkaErr kafka.Error
				if errors.As(err, &kafkaErr) {
					if kafkaErr.IsTimeout() {
						continue
					}

					if kafkaErr.Code() == kafka.ErrUnknownTopicOrPart {
						r.log.Warn("topic not available, waiting for topic creation",
							zap.String("topic", r.topic))
						sleep(r.ctx, 10*time.Second)
						continue
					}

					if kafkaErr.Code() == kafka.ErrTransport ||
						kafkaErr.Code() == kafka.ErrAllBrokersDown ||
						kafkaErr.Code() == kafka.ErrNetworkException {
						r.log.Warn("broker connection issue, retrying",
							zap.String("topic", r.topic),
							zap.Error(err))
						sleep(r.ctx, 5*time.Second)
						continue
					}

					if kafkaErr.Code() == kafka.ErrLeaderNotAvailable ||
						kafkaErr.Code() == kafka.ErrNotLeaderForPartition {
						r.log.Debug("partition leader changing, retrying",
							zap.String("topic", r.topic))
						sleep(r.ctx, 2*time.Second)
						continue
					}
				}

				r.log.Error("failed to read message", zap.Error(err))
				continue
			}

			select {
			case <-r.ctx.Done():
				return
			case r.messagesChan <- msg:
			}
		}
	}
}

func sleep(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
