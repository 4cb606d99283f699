package kafka

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// RetryExecutor runs a handler with bounded exponential backoff and panic
// recovery. Skip and permanent errors short-circuit the retry loop; a panic is
// treated as permanent since it points at a bug, not a transient condition.
type RetryExecutor interface {
	Execute(ctx context.Context, fn func(ctx context.Context) error) error
}

type retryExecutor struct {
	maxAttempts int
	maxBackoff  time.Duration
	log         *zap.Logger
}

func newRetryExecutor(consumerConf ConsumerConfig, log *zap.Logger) RetryExecutor {
	return &retryExecutor{
		maxAttempts: consumerConf.MaxAttempts,
		maxBackoff:  consumerConf.MaxBackoff,
		log:         log,
	}
}

func (r *retryExecutor) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 200 * time.Millisecond
	bo.MaxInterval = r.maxBackoff

	attempt := 0
	operation := func() error {
		attempt++
		err := r.executeWithPanicRecovery(ctx, fn)
		if err == nil {
			return nil
		}
		if errors.Is(err, ErrSkipMessage) || errors.Is(err, ErrPermanent) {
			return backoff.Permanent(err)
		}
		r.logError(err, attempt)
		return err
	}

	err := backoff.Retry(operation, backoff.WithContext(
		backoff.WithMaxRetries(bo, uint64(r.maxAttempts-1)), ctx))
	if err != nil && !errors.Is(err, ErrSkipMessage) && !errors.Is(err, ErrPermanent) && ctx.Err() == nil {
		return fmt.Errorf("max retry attempts reached: %w", err)
	}
	return err
}

func (r *retryExecutor) executeWithPanicRecovery(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: %w", ErrPermanent, &PanicError{
				Panic: rec,
				Stack: debug.Stack(),
			})
		}
	}()

	return fn(ctx)
}

func (r *retryExecutor) logError(err error, attempt int) {
	logFields := []zap.Field{
		zap.Int("attempt", attempt),
		zap.Int("maxAttempts", r.maxAttempts),
	}

	var panicErr *PanicError
	if errors.As(err, &panicErr) {
		logFields = append(logFields,
			zap.Any("panic", panicErr.Panic),
			zap.ByteString("stack", panicErr.Stack),
		)
	} else {
		logFields = append(logFields, zap.Error(err))
	}

	r.log.Error("failed to process message", logFields...)
}
