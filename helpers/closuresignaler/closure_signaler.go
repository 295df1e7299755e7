// Package closuresignaler provides a one-shot "this thing is closed" signal
// with an optional cause.
package closuresignaler

import (
	"context"
	"sync"

	"github.com/xaionaro-go/asyncmediacodec/logger"
)

type ClosureSignaler struct {
	closeOnce sync.Once
	c         chan struct{}
	cause     error
}

func New() *ClosureSignaler {
	return &ClosureSignaler{
		c: make(chan struct{}),
	}
}

func (c *ClosureSignaler) CloseChan() <-chan struct{} {
	return c.c
}

func (c *ClosureSignaler) Close(ctx context.Context) bool {
	return c.CloseWithCause(ctx, nil)
}

// CloseWithCause closes the signaler and remembers the cause. Only the
// first call has any effect; it returns true for that call.
func (c *ClosureSignaler) CloseWithCause(ctx context.Context, cause error) bool {
	logger.Debugf(ctx, "Close: %v", cause)
	defer func() { logger.Debugf(ctx, "/Close: %v", cause) }()
	closed := false
	c.closeOnce.Do(func() {
		c.cause = cause
		close(c.c)
		closed = true
	})
	return closed
}

// Cause returns the error passed to CloseWithCause, or nil if the signaler
// is still open or was closed without a cause.
func (c *ClosureSignaler) Cause() error {
	if !c.IsClosed() {
		return nil
	}
	return c.cause
}

func (c *ClosureSignaler) IsClosed() bool {
	select {
	case <-c.c:
		return true
	default:
		return false
	}
}
