package kafka

import (
	"errors"
	"fmt"
)

// ErrSkipMessage tells the consumer to acknowledge the record without treating
// it as processed; use it for records that are valid but irrelevant.
var ErrSkipMessage = errors.New("skip message")

// ErrPermanent marks a failure that retrying cannot fix (malformed payload,
// handler panic). Permanent failures bypass the retry loop.
var ErrPermanent = errors.New("permanent error")

// PanicError wraps a panic recovered from a message handler.
type PanicError struct {
	Panic any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Panic)
}
