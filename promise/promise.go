// Package promise implements a single-assignment result container that is
// settled once (resolved with a value or rejected with an error) and can be
// awaited from any goroutine.
package promise

import (
	"context"
	"fmt"

	"github.com/xaionaro-go/asyncmediacodec/helpers/closuresignaler"
	"github.com/xaionaro-go/asyncmediacodec/logger"
	"github.com/xaionaro-go/xsync"
)

type Promise[T any] struct {
	locker  xsync.Mutex
	settled *closuresignaler.ClosureSignaler
	value   T
	err     error
}

func New[T any]() *Promise[T] {
	return &Promise[T]{
		settled: closuresignaler.New(),
	}
}

func Resolved[T any](ctx context.Context, v T) *Promise[T] {
	p := New[T]()
	p.Resolve(ctx, v)
	return p
}

func Rejected[T any](ctx context.Context, err error) *Promise[T] {
	p := New[T]()
	p.Reject(ctx, err)
	return p
}

func (p *Promise[T]) String() string {
	return fmt.Sprintf("Promise[%T](%p)", p.value, p)
}

// Resolve settles the promise with v. It returns false if the promise was
// already settled (in which case nothing changes).
func (p *Promise[T]) Resolve(ctx context.Context, v T) bool {
	return p.settle(ctx, v, nil)
}

// Reject settles the promise with err. It returns false if the promise was
// already settled.
func (p *Promise[T]) Reject(ctx context.Context, err error) bool {
	if err == nil {
		panic("rejecting a promise with a nil error")
	}
	var zero T
	return p.settle(ctx, zero, err)
}

func (p *Promise[T]) settle(ctx context.Context, v T, err error) bool {
	return xsync.DoR1(xsync.WithNoLogging(ctx, true), &p.locker, func() bool {
		if p.settled.IsClosed() {
			logger.Debugf(ctx, "%s is already settled", p)
			return false
		}
		p.value, p.err = v, err
		p.settled.Close(ctx)
		return true
	})
}

func (p *Promise[T]) Done() <-chan struct{} {
	return p.settled.CloseChan()
}

func (p *Promise[T]) IsSettled() bool {
	return p.settled.IsClosed()
}

// Result returns the outcome; ok is false if the promise is not settled yet.
func (p *Promise[T]) Result() (_ T, _ error, ok bool) {
	if !p.settled.IsClosed() {
		var zero T
		return zero, nil, false
	}
	return p.value, p.err, true
}

// Wait blocks until the promise is settled or ctx is done.
func (p *Promise[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-p.Done():
		return p.value, p.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
