// Package decoder implements the drain/flush state machine on top of an
// asynchronous codec session: it matches queued samples with the input
// buffers the codec announces, reassembles outputs with the per-sample
// metadata and resolves the decode/drain promises.
//
// All the bookkeeping is done on a single serial executor; the public
// methods hop onto it.
package decoder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/facebookincubator/go-belt"
	"github.com/facebookincubator/go-belt/tool/experimental/errmon"
	"github.com/go-ng/xatomic"
	"github.com/google/uuid"
	"github.com/xaionaro-go/asyncmediacodec/executor"
	"github.com/xaionaro-go/asyncmediacodec/internal"
	"github.com/xaionaro-go/asyncmediacodec/logger"
	"github.com/xaionaro-go/asyncmediacodec/mediacodec"
	"github.com/xaionaro-go/asyncmediacodec/promise"
	"github.com/xaionaro-go/asyncmediacodec/session"
	"github.com/xaionaro-go/asyncmediacodec/types"
	"go.uber.org/atomic"
)

// mediaHandler is the media-specific part of a decoder.
type mediaHandler interface {
	NeedsNewDecoder() bool
	resetMediaState(ctx context.Context)
	onFormatChanged(ctx context.Context, format mediacodec.Format) error
	newOutput(
		ctx context.Context,
		sess *session.Session,
		buf session.Buffer,
		info mediacodec.BufferInfo,
		in inputInfo,
	) (*Output, error)
	isUseful(ctx context.Context, out *Output) bool
}

// inputInfo is what is remembered about a submitted sample until the codec
// returns the frame with the same presentation time.
type inputInfo struct {
	Duration    time.Duration
	IsKeyFrame  bool
	ImageSize   types.Size
	DisplaySize types.Size
}

type Decoder struct {
	config
	handler      mediaHandler
	mimeType     string
	executor     *executor.Serial
	ownsExecutor bool
	session      *session.Session
	state        atomic.Int32
	counters     types.DecoderCounters

	// accessed only on the executor:
	queue           []Request
	availableInputs []session.Buffer
	decoded         []*Output
	inputInfos      map[int64]inputInfo
	decodePromise   promise.Holder[[]*Output]
	drainPromise    promise.Holder[[]*Output]
	eosPending      bool
	perf            perfRecorder
}

func newDecoder(
	ctx context.Context,
	cfg config,
	handler mediaHandler,
	mimeType string,
) *Decoder {
	d := &Decoder{
		config:     cfg,
		handler:    handler,
		mimeType:   mimeType,
		executor:   cfg.Executor,
		inputInfos: map[int64]inputInfo{},
	}
	d.perf = newPerfRecorder(&d.counters.DecodeLatency)
	if d.executor == nil {
		d.executor = executor.NewSerial(ctx, fmt.Sprintf("decoder-%s", cfg.TrackingID))
		d.ownsExecutor = true
	}
	return d
}

// open creates and starts the codec session.
func (d *Decoder) open(
	ctx context.Context,
	platform mediacodec.Platform,
	params session.Params,
) (_err error) {
	logger.Debugf(ctx, "open")
	defer func() { logger.Debugf(ctx, "/open: %v", _err) }()

	params.CodecNames = d.CodecNames
	result, err := executor.DoR1(ctx, d.executor, "open", func(ctx context.Context) error {
		sess, err := session.New(ctx, platform, d.executor, (*sessionHandler)(d), params)
		if err != nil {
			return err
		}
		if err := sess.Start(ctx); err != nil {
			if closeErr := sess.Close(ctx); closeErr != nil {
				logger.Errorf(ctx, "unable to close the session: %v", closeErr)
			}
			return err
		}
		logger.Debugf(ctx, "using codec '%s' (hardware: %t)", sess.CodecName(), sess.IsHardwareAccelerated())
		xatomic.StorePointer(&d.session, sess)
		return nil
	})
	if err != nil {
		return err
	}
	return result
}

func (d *Decoder) withTrackingID(ctx context.Context) context.Context {
	return belt.WithField(ctx, "tracking_id", d.config.TrackingID.String())
}

func (d *Decoder) String() string {
	return fmt.Sprintf("Decoder(%s, %s)", d.mimeType, d.config.TrackingID)
}

func (d *Decoder) TrackingID() uuid.UUID {
	return d.config.TrackingID
}

func (d *Decoder) State() State {
	return State(d.state.Load())
}

func (d *Decoder) setState(ctx context.Context, state State) {
	old := State(d.state.Swap(int32(state)))
	if old != state {
		logger.Debugf(ctx, "state: %s -> %s", old, state)
	}
}

func (d *Decoder) getSession() *session.Session {
	return xatomic.LoadPointer(&d.session)
}

// PlatformCodecName returns the platform name of the codec in use, or an empty
// string after Shutdown.
func (d *Decoder) PlatformCodecName() string {
	sess := d.getSession()
	if sess == nil {
		return ""
	}
	return sess.CodecName()
}

func (d *Decoder) IsHardwareAccelerated() bool {
	sess := d.getSession()
	return sess != nil && sess.IsHardwareAccelerated()
}

func (d *Decoder) GetStats(ctx context.Context) *types.DecoderStatistics {
	stats := d.counters.ToStats()
	return &stats
}

func (d *Decoder) assertOnExecutor(ctx context.Context) {
	internal.Assert(ctx, d.executor.IsCurrent(), "must be called on", d.executor.String())
}

// runForPromise runs fn on the executor and returns its promise, or a
// rejected promise if fn could not be run.
func (d *Decoder) runForPromise(
	ctx context.Context,
	name string,
	fn func(ctx context.Context) *promise.Promise[[]*Output],
) *promise.Promise[[]*Output] {
	p, err := executor.DoR1(ctx, d.executor, name, fn)
	if err != nil {
		return promise.Rejected[[]*Output](ctx, dispatchError(name, err))
	}
	return p
}

func dispatchError(name string, err error) error {
	if errors.As(err, &executor.ErrClosed{}) {
		return ErrCanceled{Reason: "the decoder is shut down"}
	}
	return fmt.Errorf("unable to run %s: %w", name, err)
}

// Decode submits a sample. The returned promise resolves with the outputs
// decoded so far (possibly none) once the queued samples were handed to the
// codec. The payload must not be modified until the promise is settled.
func (d *Decoder) Decode(
	ctx context.Context,
	req Request,
) *promise.Promise[[]*Output] {
	ctx = d.withTrackingID(ctx)
	logger.Tracef(ctx, "Decode(%s)", req)
	defer func() { logger.Tracef(ctx, "/Decode(%s)", req) }()
	d.counters.Received.Increment(uint64(len(req.Payload)))
	return d.runForPromise(ctx, "decode", func(ctx context.Context) *promise.Promise[[]*Output] {
		return d.decodeOnExecutor(ctx, req)
	})
}

func (d *Decoder) decodeOnExecutor(
	ctx context.Context,
	req Request,
) *promise.Promise[[]*Output] {
	d.assertOnExecutor(ctx)
	if d.State() == StateShutdown {
		d.counters.Canceled.Increment(uint64(len(req.Payload)))
		return promise.Rejected[[]*Output](ctx, ErrCanceled{Reason: "the decoder is shut down"})
	}
	if d.handler.NeedsNewDecoder() {
		return promise.Rejected[[]*Output](ctx, ErrNeedNewDecoder{})
	}

	if req.IsEndOfStream {
		if d.eosPending {
			logger.Debugf(ctx, "an end-of-stream marker is already pending, not queueing another one")
		} else {
			d.eosPending = true
			d.queue = append(d.queue, req)
		}
	} else {
		ptsUs := req.presentationTimeUs()
		d.perf.Start(ptsUs)
		if _, ok := d.inputInfos[ptsUs]; ok {
			logger.Warnf(ctx, "two samples with the same presentation time %v; the metadata of the earlier one is overwritten", req.PresentationTime)
		}
		d.inputInfos[ptsUs] = inputInfo{
			Duration:    req.Duration,
			IsKeyFrame:  req.IsKeyFrame,
			ImageSize:   req.ImageSize,
			DisplaySize: req.DisplaySize,
		}
		d.queue = append(d.queue, req)
	}

	if d.State() == StateDrained {
		d.setState(ctx, StateDrainable)
	}
	if !d.decodePromise.IsEmpty() {
		logger.Errorf(ctx, "Decode is called while the previous one is still pending; both share the same result")
	}
	p := d.decodePromise.Ensure()
	d.processInputs(ctx)
	return p
}

// Drain asks the codec to output everything it holds. The promise resolves
// with the outputs gathered so far; Drain has to be called again until it
// resolves with no outputs.
func (d *Decoder) Drain(ctx context.Context) *promise.Promise[[]*Output] {
	ctx = d.withTrackingID(ctx)
	logger.Debugf(ctx, "Drain")
	defer func() { logger.Debugf(ctx, "/Drain") }()
	return d.runForPromise(ctx, "drain", d.drainOnExecutor)
}

func (d *Decoder) drainOnExecutor(ctx context.Context) *promise.Promise[[]*Output] {
	d.assertOnExecutor(ctx)
	state := d.State()
	if state == StateShutdown {
		return promise.Rejected[[]*Output](ctx, ErrCanceled{Reason: "the decoder is shut down"})
	}
	d.counters.Drains.Inc()

	if state == StateDrained {
		d.returnDecodedData(ctx)
		return promise.Resolved(ctx, d.takeDecoded())
	}
	p := d.drainPromise.Ensure()
	if state == StateDraining {
		return p
	}

	d.setState(ctx, StateDraining)
	if !d.eosPending {
		d.eosPending = true
		d.queue = append(d.queue, EndOfStream())
	}
	d.processInputs(ctx)
	return p
}

// Flush discards all the pending samples and outputs, cancels the pending
// promises and restarts the codec.
func (d *Decoder) Flush(ctx context.Context) (_err error) {
	ctx = d.withTrackingID(ctx)
	logger.Debugf(ctx, "Flush")
	defer func() { logger.Debugf(ctx, "/Flush: %v", _err) }()
	result, err := executor.DoR1(ctx, d.executor, "flush", d.flushOnExecutor)
	if err != nil {
		return dispatchError("flush", err)
	}
	return result
}

func (d *Decoder) flushOnExecutor(ctx context.Context) error {
	d.assertOnExecutor(ctx)
	if d.State() == StateShutdown {
		return ErrCanceled{Reason: "the decoder is shut down"}
	}
	d.counters.Flushes.Inc()

	d.handler.resetMediaState(ctx)
	clear(d.inputInfos)
	d.perf.Reset()
	d.dropPending(ctx, ErrCanceled{Reason: "flushed"})
	d.setState(ctx, StateDrained)

	sess := d.getSession()
	if sess == nil {
		err := ErrFatal{Err: fmt.Errorf("no codec session")}
		d.fail(ctx, err)
		return err
	}
	if err := sess.Flush(ctx); err != nil {
		err := ErrFatal{Err: err}
		d.fail(ctx, err)
		return err
	}
	if err := sess.Start(ctx); err != nil {
		err := ErrFatal{Err: err}
		d.fail(ctx, err)
		return err
	}
	return nil
}

// dropPending releases the buffered outputs, forgets the queued samples and
// the announced input buffers, and rejects the pending promises.
func (d *Decoder) dropPending(ctx context.Context, reason error) {
	for _, out := range d.decoded {
		out.release(ctx)
		d.counters.Canceled.Increment(0)
	}
	d.decoded = nil
	for _, req := range d.queue {
		if !req.IsEndOfStream {
			d.counters.Canceled.Increment(uint64(len(req.Payload)))
		}
	}
	d.queue = nil
	d.availableInputs = nil
	d.eosPending = false
	d.decodePromise.RejectIfExists(ctx, reason)
	d.drainPromise.RejectIfExists(ctx, reason)
}

// Shutdown stops the codec and releases it. Every later call is rejected
// with ErrCanceled. It does not fail if the codec cannot be stopped.
func (d *Decoder) Shutdown(ctx context.Context) (_err error) {
	ctx = d.withTrackingID(ctx)
	logger.Debugf(ctx, "Shutdown")
	defer func() { logger.Debugf(ctx, "/Shutdown: %v", _err) }()
	err := executor.Do(ctx, d.executor, "shutdown", d.shutdownOnExecutor)
	if err != nil && !errors.As(err, &executor.ErrClosed{}) {
		return fmt.Errorf("unable to run shutdown: %w", err)
	}
	if d.ownsExecutor {
		if err := d.executor.Close(ctx); err != nil {
			logger.Errorf(ctx, "unable to close the executor: %v", err)
		}
	}
	return nil
}

func (d *Decoder) shutdownOnExecutor(ctx context.Context) {
	d.assertOnExecutor(ctx)
	if d.State() == StateShutdown {
		return
	}
	d.setState(ctx, StateShutdown)
	d.dropPending(ctx, ErrCanceled{Reason: "the decoder is shut down"})
	clear(d.inputInfos)
	d.perf.Reset()

	sess := xatomic.SwapPointer(&d.session, nil)
	if sess == nil {
		return
	}
	if err := sess.Stop(ctx); err != nil {
		logger.Errorf(ctx, "unable to stop the codec: %v", err)
	}
	if err := sess.Close(ctx); err != nil {
		logger.Errorf(ctx, "unable to close the codec session: %v", err)
	}
}

// fail rejects the pending promises. Once the output target is gone any
// error is reported as ErrNeedNewDecoder.
func (d *Decoder) fail(ctx context.Context, err error) {
	if d.State() == StateShutdown {
		return
	}
	if d.handler.NeedsNewDecoder() && !IsNeedNewDecoder(err) {
		err = ErrNeedNewDecoder{Err: err}
	}
	d.counters.Errors.Inc()
	if IsFatal(err) {
		errmon.ObserveErrorCtx(ctx, err)
	}
	logger.Errorf(ctx, "decoder failure: %v", err)
	d.decodePromise.RejectIfExists(ctx, err)
	d.drainPromise.RejectIfExists(ctx, err)
}

func (d *Decoder) takeDecoded() []*Output {
	result := d.decoded
	d.decoded = nil
	d.counters.Delivered.Count.Add(uint64(len(result)))
	return result
}

// returnDecodedData hands the buffered outputs to the pending decode promise
// or, failing that, to the pending drain promise once there is something to
// return or the drain is complete. Otherwise the outputs stay buffered.
func (d *Decoder) returnDecodedData(ctx context.Context) {
	switch {
	case !d.decodePromise.IsEmpty():
		d.decodePromise.Resolve(ctx, d.takeDecoded())
	case !d.drainPromise.IsEmpty() && (len(d.decoded) > 0 || d.State() == StateDrained):
		d.drainPromise.Resolve(ctx, d.takeDecoded())
	}
}

func (d *Decoder) updateInputStatus(ctx context.Context) {
	if d.State() == StateShutdown {
		return
	}
	if len(d.queue) == 0 || len(d.decoded) > 0 {
		d.returnDecodedData(ctx)
	}
}

func (d *Decoder) updateOutputStatus(ctx context.Context, out *Output) {
	if d.handler.isUseful(ctx, out) {
		d.decoded = append(d.decoded, out)
	} else {
		logger.Tracef(ctx, "discarding %s", out)
		out.release(ctx)
		d.counters.Discarded.Increment(0)
	}
	d.returnDecodedData(ctx)
}

func (d *Decoder) drainComplete(ctx context.Context) {
	logger.Debugf(ctx, "drain complete")
	d.eosPending = false
	d.setState(ctx, StateDrained)
	d.returnDecodedData(ctx)
}
