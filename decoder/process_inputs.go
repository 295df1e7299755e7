package decoder

import (
	"context"
	"fmt"

	"github.com/xaionaro-go/asyncmediacodec/logger"
	"github.com/xaionaro-go/asyncmediacodec/mediacodec"
	"github.com/xaionaro-go/asyncmediacodec/session"
)

// processInputs pairs the queued samples with the announced input buffers,
// oldest with oldest, and submits them. A failed submission is fatal and
// stops the round.
func (d *Decoder) processInputs(ctx context.Context) {
	logger.Tracef(ctx, "processInputs: %d queued, %d input buffers", len(d.queue), len(d.availableInputs))
	defer func() {
		logger.Tracef(ctx, "/processInputs: %d queued, %d input buffers", len(d.queue), len(d.availableInputs))
	}()

	sess := d.getSession()
	for len(d.queue) > 0 && len(d.availableInputs) > 0 {
		buf := d.availableInputs[0]
		d.availableInputs = d.availableInputs[1:]
		req := d.queue[0]
		d.queue = d.queue[1:]

		if err := d.submit(ctx, sess, buf, req); err != nil {
			d.fail(ctx, ErrFatal{Err: err})
			return
		}
	}
	d.updateInputStatus(ctx)
}

func (d *Decoder) submit(
	ctx context.Context,
	sess *session.Session,
	buf session.Buffer,
	req Request,
) error {
	if sess == nil {
		return fmt.Errorf("no codec session")
	}

	var (
		flags mediacodec.BufferFlags
		size  int32
		ptsUs int64
	)
	if req.IsEndOfStream {
		flags |= mediacodec.BufferFlagEndOfStream
	} else {
		ptsUs = req.presentationTimeUs()
		if len(req.Payload) > 0 {
			dst, err := sess.GetInputBuffer(ctx, buf)
			if err != nil {
				return fmt.Errorf("unable to get input buffer %s: %w", buf, err)
			}
			if len(dst) < len(req.Payload) {
				return fmt.Errorf("input buffer %s is too small: %d < %d", buf, len(dst), len(req.Payload))
			}
			size = int32(copy(dst, req.Payload))
		}
	}

	if err := sess.QueueInputBuffer(ctx, buf, 0, size, ptsUs, flags); err != nil {
		return err
	}
	if !req.IsEndOfStream {
		d.counters.Queued.Increment(uint64(size))
	}
	return nil
}
