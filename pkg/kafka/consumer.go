package kafka

import (
	"context"
	"errors"
	"fmt"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/pcd-labs/smart-mobility/pkg/core/health"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// offsetStorer is the slice of *kafka.Consumer the result handler needs.
// Offsets are stored only after a record's effects are applied; the broker
// commit loop then commits stored offsets, so an unstored offset is redelivered
// after a crash or rebalance.
type offsetStorer interface {
	StoreMessage(m *kafka.Message) (storedOffsets []kafka.TopicPartition, err error)
}

func provideKafkaConsumer(lc fx.Lifecycle, conf Config, consumerConf ConsumerConfig, log *zap.Logger, readiness health.Readiness) (*kafka.Consumer, offsetStorer, error) {
	kafkaConsumer, err := kafka.NewConsumer(&kafka.ConfigMap{
		"bootstrap.servers":        conf.Brokers,
		"group.id":                 consumerConf.GroupID,
		"enable.auto.commit":       true,
		"enable.auto.offset.store": false,
		"auto.commit.interval.ms":  3000,
		"auto.offset.reset":        consumerConf.AutoOffsetReset,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create kafka consumer, name: %s: %w", consumerConf.Name, err)
	}

	componentName := "kafka-consumer-" + consumerConf.Name
	readiness.AddComponent(componentName)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("subscribing to topic", zap.String("topic", consumerConf.Topic))

			rebalanceCb := func(c *kafka.Consumer, event kafka.Event) error {
				switch ev := event.(type) {
				case kafka.AssignedPartitions:
					logPartitionEvent(log, "partitions assigned", ev.Partitions)
				case kafka.RevokedPartitions:
					logPartitionEvent(log, "partitions revoked", ev.Partitions)
				}
				return nil
			}

			if err := kafkaConsumer.SubscribeTopics([]string{consumerConf.Topic}, rebalanceCb); err != nil {
				log.Error("failed to subscribe to topic", zap.Error(err))
				return err
			}

			readiness.MarkReady(componentName)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			// Final commit of stored offsets before closing.
			if _, commitErr := kafkaConsumer.Commit(); commitErr != nil {
				var kafkaErr kafka.Error
				if !errors.As(commitErr, &kafkaErr) || kafkaErr.Code() != kafka.ErrNoOffset {
					log.Warn("failed to commit offsets on shutdown", zap.Error(commitErr))
				}
			} else {
				log.Debug("final commit successful")
			}

			log.Info("closing kafka consumer")
			return kafkaConsumer.Close()
		},
	})

	return kafkaConsumer, kafkaConsumer, nil
}

func logPartitionEvent(log *zap.Logger, event string, partitions []kafka.TopicPartition) {
	if len(partitions) == 0 {
		log.Warn(event + ": no partitions")
		return
	}

	partitionIDs := make([]int32, len(partitions))
	for idx, partition := range partitions {
		partitionIDs[idx] = partition.Partition
	}

	log.Info(event,
		zap.Int("partition_count", len(partitions)),
		zap.Int32s("partitions", partitionIDs))
}
