// Package executor provides Serial: a single goroutine that runs dispatched
// tasks one at a time in dispatch order. It is the "designated context" all
// decoder and session bookkeeping is mutated on.
package executor

import (
	"context"
	"fmt"

	"github.com/facebookincubator/go-belt/tool/experimental/errmon"
	"github.com/phuslu/goid"
	"github.com/xaionaro-go/asyncmediacodec/helpers/closuresignaler"
	"github.com/xaionaro-go/asyncmediacodec/logger"
	"github.com/xaionaro-go/asyncmediacodec/types"
	"github.com/xaionaro-go/observability"
	"github.com/xaionaro-go/xcontext"
	"github.com/xaionaro-go/xsync"
	"go.uber.org/atomic"
)

const noGoroutine = int64(-1)

type Task func(ctx context.Context)

type queuedTask struct {
	ctx  context.Context
	name string
	fn   Task
}

type Serial struct {
	name string

	locker xsync.Mutex
	queue  []queuedTask

	wakeCh chan struct{}
	closer *closuresignaler.ClosureSignaler
	doneCh chan struct{}

	goroutineID atomic.Int64
	dispatched  atomic.Uint64
	executed    atomic.Uint64
	dropped     atomic.Uint64
}

var _ types.Closer = (*Serial)(nil)

// NewSerial starts the executor goroutine. It stops when Close is called or
// ctx is cancelled; tasks still queued at that moment are dropped.
func NewSerial(
	ctx context.Context,
	name string,
) *Serial {
	s := &Serial{
		name:   name,
		wakeCh: make(chan struct{}, 1),
		closer: closuresignaler.New(),
		doneCh: make(chan struct{}),
	}
	s.goroutineID.Store(noGoroutine)
	ready := make(chan struct{})
	observability.Go(ctx, func(ctx context.Context) {
		defer close(s.doneCh)
		s.goroutineID.Store(goid.Goid())
		close(ready)
		defer s.goroutineID.Store(noGoroutine)
		s.loop(ctx)
	})
	<-ready
	return s
}

func (s *Serial) String() string {
	return fmt.Sprintf("Serial(%s)", s.name)
}

// IsCurrent reports whether the calling goroutine is the executor goroutine.
func (s *Serial) IsCurrent() bool {
	return goid.Goid() == s.goroutineID.Load()
}

func (s *Serial) IsClosed() bool {
	return s.closer.IsClosed()
}

// Dispatch enqueues fn without blocking. The task receives ctx with its
// cancellation detached: once dispatched a task always runs (unless the
// executor is closed before it gets to it).
func (s *Serial) Dispatch(
	ctx context.Context,
	name string,
	fn Task,
) error {
	if s.closer.IsClosed() {
		logger.Debugf(ctx, "%s: not dispatching '%s': closed", s, name)
		return ErrClosed{Executor: s.name}
	}
	s.locker.Do(xsync.WithNoLogging(ctx, true), func() {
		s.queue = append(s.queue, queuedTask{
			ctx:  xcontext.DetachDone(ctx),
			name: name,
			fn:   fn,
		})
	})
	s.dispatched.Inc()
	select {
	case s.wakeCh <- struct{}{}:
	default:
	}
	return nil
}

func (s *Serial) takeQueue(ctx context.Context) []queuedTask {
	return xsync.DoR1(xsync.WithNoLogging(ctx, true), &s.locker, func() []queuedTask {
		q := s.queue
		s.queue = nil
		return q
	})
}

func (s *Serial) loop(ctx context.Context) {
	logger.Debugf(ctx, "%s: loop", s)
	defer func() { logger.Debugf(ctx, "/%s: loop", s) }()
	for {
		tasks := s.takeQueue(ctx)
		if len(tasks) == 0 {
			select {
			case <-ctx.Done():
				s.closer.CloseWithCause(ctx, ctx.Err())
				return
			case <-s.closer.CloseChan():
				return
			case <-s.wakeCh:
				continue
			}
		}
		for idx, t := range tasks {
			if s.closer.IsClosed() || ctx.Err() != nil {
				s.drop(ctx, tasks[idx:])
				return
			}
			s.run(t)
		}
	}
}

func (s *Serial) run(t queuedTask) {
	logger.Tracef(t.ctx, "%s: run '%s'", s, t.name)
	defer func() { logger.Tracef(t.ctx, "/%s: run '%s'", s, t.name) }()
	defer func() {
		if r := recover(); r != nil {
			errmon.ObserveRecoverCtx(t.ctx, r)
			panic(r)
		}
	}()
	t.fn(t.ctx)
	s.executed.Inc()
}

func (s *Serial) drop(ctx context.Context, tasks []queuedTask) {
	if len(tasks) == 0 {
		return
	}
	logger.Debugf(ctx, "%s: dropping %d tasks", s, len(tasks))
	s.dropped.Add(uint64(len(tasks)))
}

// Close stops the executor. When called from outside the executor it waits
// for the currently running task (if any) to finish.
func (s *Serial) Close(ctx context.Context) error {
	logger.Debugf(ctx, "%s: Close", s)
	defer func() { logger.Debugf(ctx, "/%s: Close", s) }()
	s.closer.Close(ctx)
	if s.IsCurrent() {
		return nil
	}
	select {
	case <-s.doneCh:
		s.drop(ctx, s.takeQueue(ctx))
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done is closed once the executor goroutine has exited.
func (s *Serial) Done() <-chan struct{} {
	return s.doneCh
}

type Stats struct {
	Dispatched uint64
	Executed   uint64
	Dropped    uint64
	Queued     int
}

func (s *Serial) GetStats(ctx context.Context) Stats {
	return Stats{
		Dispatched: s.dispatched.Load(),
		Executed:   s.executed.Load(),
		Dropped:    s.dropped.Load(),
		Queued: xsync.DoR1(xsync.WithNoLogging(ctx, true), &s.locker, func() int {
			return len(s.queue)
		}),
	}
}
