package kafka

import (
	"context"
	"hash/fnv"
	"sync"
	"sync/atomic"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"go.uber.org/zap"
)

// pool runs N processing workers fed by a dispatcher that shards records by
// message key. Records with the same key always land on the same worker, so
// per-entity ordering is preserved while distinct entities process in
// parallel. Keyless records are spread round-robin.
type pool struct {
	in      <-chan *kafka.Message
	shards  []chan *kafka.Message
	process func(ctx context.Context, msg *kafka.Message)
	log     *zap.Logger

	rr         atomic.Uint32
	ctx        context.Context
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
}

func newPool(
	consumerConf ConsumerConfig,
	messagesChan chan *kafka.Message,
	proc *processor,
	log *zap.Logger,
) *pool {
	shards := make([]chan *kafka.Message, consumerConf.Workers)
	for i := range shards {
		shards[i] = make(chan *kafka.Message, 16)
	}
	return &pool{
		in:      messagesChan,
		shards:  shards,
		process: proc.processMessage,
		log:     log,
	}
}

func (p *pool) start() {
	p.log.Info("starting worker pool", zap.Int("workers", len(p.shards)))
	p.ctx, p.cancelFunc = context.WithCancel(context.Background())

	for i, ch := range p.shards {
		p.wg.Add(1)
		go p.runWorker(i, ch)
	}

	p.wg.Add(1)
	go p.dispatch()
}

// stop drains nothing: in-flight records finish, queued records are dropped
// with their offsets unstored, so they redeliver on the next start.
func (p *pool) stop() {
	p.log.Info("stopping worker pool")
	if p.cancelFunc != nil {
		p.cancelFunc()
	}
	p.wg.Wait()
	p.log.Info("worker pool stopped")
}

func (p *pool) dispatch() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case msg := <-p.in:
			shard := p.shardFor(msg.Key)
			select {
			case <-p.ctx.Done():
				return
			case p.shards[shard] <- msg:
			}
		}
	}
}

func (p *pool) shardFor(key []byte) int {
	if len(key) == 0 {
		return int(p.rr.Add(1)) % len(p.shards)
	}
	h := fnv.New32a()
	h.Write(key)
	return int(h.Sum32() % uint32(len(p.shards)))
}

func (p *pool) runWorker(id int, ch <-chan *kafka.Message) {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case msg := <-ch:
			if p.ctx.Err() != nil {
				return
			}
			p.process(p.ctx, msg)
		}
	}
}
