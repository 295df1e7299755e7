package decoder

import (
	"context"
	"fmt"
	"time"

	"github.com/xaionaro-go/asyncmediacodec/logger"
	"github.com/xaionaro-go/asyncmediacodec/mediacodec"
	"github.com/xaionaro-go/asyncmediacodec/session"
)

// sessionHandler receives the session events on the executor.
type sessionHandler Decoder

var _ session.Callbacks = (*sessionHandler)(nil)

func (h *sessionHandler) decoder() *Decoder {
	return (*Decoder)(h)
}

func (h *sessionHandler) OnInputAvailable(
	ctx context.Context,
	buf session.Buffer,
) {
	d := h.decoder()
	logger.Tracef(ctx, "OnInputAvailable(%s)", buf)
	if d.State() == StateShutdown {
		return
	}
	d.availableInputs = append(d.availableInputs, buf)
	d.processInputs(ctx)
}

func (h *sessionHandler) OnOutputAvailable(
	ctx context.Context,
	buf session.Buffer,
	info mediacodec.BufferInfo,
) {
	d := h.decoder()
	logger.Tracef(ctx, "OnOutputAvailable(%s, %s)", buf, info)
	defer func() { logger.Tracef(ctx, "/OnOutputAvailable(%s, %s)", buf, info) }()
	if d.State() == StateShutdown {
		return
	}
	sess := d.getSession()
	if sess == nil {
		return
	}

	if d.handler.NeedsNewDecoder() {
		d.fail(ctx, ErrNeedNewDecoder{})
		sess.ReleaseOutputBuffer(ctx, buf, false)
		return
	}

	isEOS := info.IsEndOfStream()
	ptsUs := info.PresentationTimeUs
	var (
		in    inputInfo
		hasIn bool
	)
	if !isEOS || info.Size > 0 {
		in, hasIn = d.inputInfos[ptsUs]
		delete(d.inputInfos, ptsUs)
	}
	if !hasIn {
		if !isEOS {
			logger.Debugf(ctx, "no sample is known for the output with pts %dus, dropping it", ptsUs)
			d.counters.Discarded.Increment(uint64(info.Size))
		}
		sess.ReleaseOutputBuffer(ctx, buf, false)
		if isEOS {
			d.drainComplete(ctx)
		}
		return
	}

	if latency, ok := d.perf.Record(ptsUs); ok {
		logger.Tracef(ctx, "decoding latency of pts %dus: %v", ptsUs, latency)
	}
	out, err := d.handler.newOutput(ctx, sess, buf, info, in)
	if err != nil {
		sess.ReleaseOutputBuffer(ctx, buf, false)
		d.fail(ctx, ErrFatal{Err: fmt.Errorf("unable to build the output for %s: %w", buf, err)})
		return
	}
	d.counters.Decoded.Increment(uint64(info.Size))
	d.updateOutputStatus(ctx, out)
	if isEOS {
		d.drainComplete(ctx)
	}
}

func (h *sessionHandler) OnFormatChanged(
	ctx context.Context,
	format mediacodec.Format,
) {
	d := h.decoder()
	logger.Debugf(ctx, "OnFormatChanged(%s)", format)
	if d.State() == StateShutdown {
		return
	}
	if err := d.handler.onFormatChanged(ctx, format); err != nil {
		d.fail(ctx, ErrFatal{Err: err})
	}
}

func (h *sessionHandler) OnError(
	ctx context.Context,
	status mediacodec.Status,
	actionCode int32,
	detail string,
) {
	d := h.decoder()
	logger.Errorf(ctx, "codec error: %s (action code: %d): %s", status, actionCode, detail)
	d.fail(ctx, ErrFatal{Err: fmt.Errorf("codec error %w (action code %d): %s", status, actionCode, detail)})
}

func presentationTime(ptsUs int64) time.Duration {
	return time.Duration(ptsUs) * time.Microsecond
}
