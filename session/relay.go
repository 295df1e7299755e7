package session

import (
	"context"

	"github.com/xaionaro-go/asyncmediacodec/logger"
	"github.com/xaionaro-go/asyncmediacodec/mediacodec"
)

// relay receives the platform callbacks on the platform goroutine, captures
// the epoch and re-dispatches them to the executor, where the epoch is checked
// again before handing them to the owner.
type relay struct {
	ctx     context.Context
	session *Session
}

var _ mediacodec.Callbacks = (*relay)(nil)

func (r *relay) dispatch(
	name string,
	fn func(ctx context.Context, epoch uint64),
) {
	s := r.session
	epoch := s.epoch.Load()
	err := s.executor.Dispatch(r.ctx, name, func(ctx context.Context) {
		if s.closed.Load() {
			logger.Tracef(ctx, "dropping '%s': the session is closed", name)
			return
		}
		if cur := s.epoch.Load(); cur != epoch {
			logger.Tracef(ctx, "dropping '%s': stale epoch %d (current is %d)", name, epoch, cur)
			return
		}
		fn(ctx, epoch)
	})
	if err != nil {
		logger.Debugf(r.ctx, "unable to relay '%s': %v", name, err)
	}
}

func (r *relay) OnAsyncInputAvailable(index int32) {
	r.dispatch("input-available", func(ctx context.Context, epoch uint64) {
		r.session.owner.OnInputAvailable(ctx, Buffer{Index: index, Epoch: epoch})
	})
}

func (r *relay) OnAsyncOutputAvailable(index int32, info mediacodec.BufferInfo) {
	r.dispatch("output-available", func(ctx context.Context, epoch uint64) {
		r.session.owner.OnOutputAvailable(ctx, Buffer{Index: index, Epoch: epoch}, info)
	})
}

func (r *relay) OnAsyncFormatChanged(format mediacodec.Format) {
	r.dispatch("format-changed", func(ctx context.Context, epoch uint64) {
		r.session.owner.OnFormatChanged(ctx, format)
	})
}

func (r *relay) OnAsyncError(err mediacodec.Status, actionCode int32, detail string) {
	r.dispatch("error", func(ctx context.Context, epoch uint64) {
		r.session.owner.OnError(ctx, err, actionCode, detail)
	})
}
