package loopback

import (
	"context"
	"fmt"

	"github.com/xaionaro-go/asyncmediacodec/executor"
	"github.com/xaionaro-go/asyncmediacodec/logger"
	"github.com/xaionaro-go/asyncmediacodec/mediacodec"
	"github.com/xaionaro-go/xsync"
)

type Op int

const (
	UndefinedOp = Op(iota)
	OpSetAsyncNotifyCallback
	OpConfigure
	OpStart
	OpFlush
	OpStop
	OpGetInputBuffer
	OpGetOutputBuffer
	OpQueueInputBuffer
	OpReleaseOutputBuffer
	OpDelete
	EndOfOp
)

func (op Op) String() string {
	switch op {
	case UndefinedOp:
		return "<undefined>"
	case OpSetAsyncNotifyCallback:
		return "SetAsyncNotifyCallback"
	case OpConfigure:
		return "Configure"
	case OpStart:
		return "Start"
	case OpFlush:
		return "Flush"
	case OpStop:
		return "Stop"
	case OpGetInputBuffer:
		return "GetInputBuffer"
	case OpGetOutputBuffer:
		return "GetOutputBuffer"
	case OpQueueInputBuffer:
		return "QueueInputBuffer"
	case OpReleaseOutputBuffer:
		return "ReleaseOutputBuffer"
	case OpDelete:
		return "Delete"
	default:
		return fmt.Sprintf("Op(%d)", int(op))
	}
}

type failure struct {
	Err    error
	Always bool
}

// QueuedInput is a record of a successful QueueInputBuffer call.
type QueuedInput struct {
	Index              int32
	Data               []byte
	PresentationTimeUs int64
	Flags              mediacodec.BufferFlags
}

type Stats struct {
	Starts   uint64
	Flushes  uint64
	Stops    uint64
	Queued   uint64
	Rendered uint64
	Dropped  uint64
}

type pendingOutput struct {
	Data []byte
	Info mediacodec.BufferInfo
}

type Codec struct {
	name   string
	config config
	thread *executor.Serial

	locker     xsync.Mutex
	callbacks  mediacodec.Callbacks
	format     mediacodec.Format
	window     mediacodec.NativeWindow
	configured bool
	running    bool
	deleted    bool
	generation uint64
	formatSent bool

	inputs         [][]byte
	inputIsOwned   []bool
	outputs        [][]byte
	outputInfo     []mediacodec.BufferInfo
	outputIsOwned  []bool
	pendingOutputs []pendingOutput

	failures map[Op]failure
	queued   []QueuedInput
	stats    Stats
}

var _ mediacodec.Codec = (*Codec)(nil)

func newCodec(
	ctx context.Context,
	name string,
	cfg config,
) *Codec {
	c := &Codec{
		name:          name,
		config:        cfg,
		thread:        executor.NewSerial(ctx, "loopback:"+name),
		inputs:        make([][]byte, cfg.InputBuffers),
		inputIsOwned:  make([]bool, cfg.InputBuffers),
		outputs:       make([][]byte, cfg.OutputBuffers),
		outputInfo:    make([]mediacodec.BufferInfo, cfg.OutputBuffers),
		outputIsOwned: make([]bool, cfg.OutputBuffers),
		failures:      map[Op]failure{},
	}
	for idx := range c.inputs {
		c.inputs[idx] = make([]byte, cfg.InputBufferSize)
	}
	return c
}

func (c *Codec) Name() string {
	return c.name
}

// FailNext makes the next call of op fail with err.
func (c *Codec) FailNext(op Op, err error) {
	c.locker.Do(context.Background(), func() {
		c.failures[op] = failure{Err: err}
	})
}

// FailAlways makes every following call of op fail with err; a nil err
// removes the failure.
func (c *Codec) FailAlways(op Op, err error) {
	c.locker.Do(context.Background(), func() {
		if err == nil {
			delete(c.failures, op)
			return
		}
		c.failures[op] = failure{Err: err, Always: true}
	})
}

func (c *Codec) failureLocked(op Op) error {
	f, ok := c.failures[op]
	if !ok {
		return nil
	}
	if !f.Always {
		delete(c.failures, op)
	}
	return fmt.Errorf("injected %s failure: %w", op, f.Err)
}

// Callbacks returns the callbacks registered by SetAsyncNotifyCallback.
// Calling them directly simulates the platform invoking them.
func (c *Codec) Callbacks() mediacodec.Callbacks {
	return xsync.DoR1(context.Background(), &c.locker, func() mediacodec.Callbacks {
		return c.callbacks
	})
}

func (c *Codec) Format() mediacodec.Format {
	return xsync.DoR1(context.Background(), &c.locker, func() mediacodec.Format {
		return c.format.Clone()
	})
}

func (c *Codec) Window() mediacodec.NativeWindow {
	return xsync.DoR1(context.Background(), &c.locker, func() mediacodec.NativeWindow {
		return c.window
	})
}

func (c *Codec) IsRunning() bool {
	return xsync.DoR1(context.Background(), &c.locker, func() bool {
		return c.running
	})
}

func (c *Codec) IsDeleted() bool {
	return xsync.DoR1(context.Background(), &c.locker, func() bool {
		return c.deleted
	})
}

func (c *Codec) QueuedInputs() []QueuedInput {
	return xsync.DoR1(context.Background(), &c.locker, func() []QueuedInput {
		r := make([]QueuedInput, len(c.queued))
		copy(r, c.queued)
		return r
	})
}

func (c *Codec) GetStats() Stats {
	return xsync.DoR1(context.Background(), &c.locker, func() Stats {
		return c.stats
	})
}

// Sync waits until every callback emitted so far was delivered.
func (c *Codec) Sync(ctx context.Context) error {
	return executor.Do(ctx, c.thread, "sync", func(ctx context.Context) {})
}

func (c *Codec) SetAsyncNotifyCallback(
	ctx context.Context,
	callbacks mediacodec.Callbacks,
) error {
	return xsync.DoR1(ctx, &c.locker, func() error {
		if err := c.failureLocked(OpSetAsyncNotifyCallback); err != nil {
			return err
		}
		if c.configured {
			return fmt.Errorf("the callbacks are to be set before configuring: %w", mediacodec.StatusErrorInvalidOperation)
		}
		c.callbacks = callbacks
		return nil
	})
}

func (c *Codec) Configure(
	ctx context.Context,
	format mediacodec.Format,
	window mediacodec.NativeWindow,
	flags mediacodec.ConfigureFlags,
) error {
	logger.Debugf(ctx, "Configure(%s, %X, %d)", format, window, flags)
	return xsync.DoR1(ctx, &c.locker, func() error {
		if err := c.failureLocked(OpConfigure); err != nil {
			return err
		}
		switch {
		case c.deleted:
			return mediacodec.StatusErrorInvalidObject
		case c.running:
			return mediacodec.StatusErrorInvalidOperation
		case flags&mediacodec.ConfigureFlagEncode != 0:
			return fmt.Errorf("encoding is not supported: %w", mediacodec.StatusErrorUnsupported)
		case format.MIMEType() == "":
			return fmt.Errorf("no MIME type: %w", mediacodec.StatusErrorInvalidParameter)
		}
		if maxInputSize, ok := format.GetInt32(mediacodec.KeyMaxInputSize); ok && int(maxInputSize) > len(c.inputs[0]) {
			for idx := range c.inputs {
				c.inputs[idx] = make([]byte, maxInputSize)
			}
		}
		c.format = format.Clone()
		c.window = window
		c.configured = true
		return nil
	})
}

func (c *Codec) Start(ctx context.Context) error {
	logger.Debugf(ctx, "Start")
	return xsync.DoR1(ctx, &c.locker, func() error {
		if err := c.failureLocked(OpStart); err != nil {
			return err
		}
		switch {
		case c.deleted:
			return mediacodec.StatusErrorInvalidObject
		case !c.configured:
			return fmt.Errorf("not configured: %w", mediacodec.StatusErrorInvalidOperation)
		case c.running:
			return nil
		}
		c.running = true
		c.stats.Starts++
		if c.config.Manual {
			return nil
		}
		for idx := range c.inputs {
			c.announceInputLocked(ctx, int32(idx))
		}
		return nil
	})
}

// resetLocked invalidates all buffer ownership and every callback that was
// emitted but not delivered yet.
func (c *Codec) resetLocked() {
	c.running = false
	c.generation++
	for idx := range c.inputIsOwned {
		c.inputIsOwned[idx] = false
	}
	for idx := range c.outputIsOwned {
		c.outputIsOwned[idx] = false
	}
	c.pendingOutputs = c.pendingOutputs[:0]
}

func (c *Codec) Flush(ctx context.Context) error {
	logger.Debugf(ctx, "Flush")
	return xsync.DoR1(ctx, &c.locker, func() error {
		if err := c.failureLocked(OpFlush); err != nil {
			return err
		}
		if c.deleted {
			return mediacodec.StatusErrorInvalidObject
		}
		c.resetLocked()
		c.stats.Flushes++
		return nil
	})
}

func (c *Codec) Stop(ctx context.Context) error {
	logger.Debugf(ctx, "Stop")
	return xsync.DoR1(ctx, &c.locker, func() error {
		if err := c.failureLocked(OpStop); err != nil {
			return err
		}
		if c.deleted {
			return mediacodec.StatusErrorInvalidObject
		}
		c.resetLocked()
		c.configured = false
		c.formatSent = false
		c.stats.Stops++
		return nil
	})
}

func (c *Codec) Delete(ctx context.Context) error {
	logger.Debugf(ctx, "Delete")
	err := xsync.DoR1(ctx, &c.locker, func() error {
		if err := c.failureLocked(OpDelete); err != nil {
			return err
		}
		if c.deleted {
			return mediacodec.StatusErrorInvalidObject
		}
		c.resetLocked()
		c.deleted = true
		c.callbacks = nil
		return nil
	})
	if err != nil {
		return err
	}
	return c.thread.Close(ctx)
}

func (c *Codec) GetInputBuffer(
	ctx context.Context,
	index int32,
) ([]byte, error) {
	return xsync.DoR2(ctx, &c.locker, func() ([]byte, error) {
		if err := c.failureLocked(OpGetInputBuffer); err != nil {
			return nil, err
		}
		if err := c.checkInputLocked(index); err != nil {
			return nil, err
		}
		return c.inputs[index], nil
	})
}

func (c *Codec) checkInputLocked(index int32) error {
	switch {
	case c.deleted:
		return mediacodec.StatusErrorInvalidObject
	case !c.running:
		return mediacodec.StatusErrorInvalidOperation
	case index < 0 || int(index) >= len(c.inputs):
		return fmt.Errorf("input buffer index %d is out of range: %w", index, mediacodec.StatusErrorInvalidParameter)
	case !c.inputIsOwned[index]:
		return fmt.Errorf("input buffer %d is not owned by the client: %w", index, mediacodec.StatusErrorInvalidParameter)
	}
	return nil
}

func (c *Codec) GetOutputBuffer(
	ctx context.Context,
	index int32,
) ([]byte, error) {
	return xsync.DoR2(ctx, &c.locker, func() ([]byte, error) {
		if err := c.failureLocked(OpGetOutputBuffer); err != nil {
			return nil, err
		}
		if err := c.checkOutputLocked(index); err != nil {
			return nil, err
		}
		return c.outputs[index], nil
	})
}

func (c *Codec) checkOutputLocked(index int32) error {
	switch {
	case c.deleted:
		return mediacodec.StatusErrorInvalidObject
	case index < 0 || int(index) >= len(c.outputs):
		return fmt.Errorf("output buffer index %d is out of range: %w", index, mediacodec.StatusErrorInvalidParameter)
	case !c.outputIsOwned[index]:
		return fmt.Errorf("output buffer %d is not owned by the client: %w", index, mediacodec.StatusErrorInvalidParameter)
	}
	return nil
}

func (c *Codec) QueueInputBuffer(
	ctx context.Context,
	index int32,
	offset, size int32,
	presentationTimeUs int64,
	flags mediacodec.BufferFlags,
) error {
	logger.Tracef(ctx, "QueueInputBuffer(%d, %d, %d, %d, %s)", index, offset, size, presentationTimeUs, flags)
	return xsync.DoR1(ctx, &c.locker, func() error {
		if err := c.failureLocked(OpQueueInputBuffer); err != nil {
			return err
		}
		if err := c.checkInputLocked(index); err != nil {
			return err
		}
		if offset < 0 || size < 0 || int(offset)+int(size) > len(c.inputs[index]) {
			return fmt.Errorf("invalid region [%d:+%d] of buffer of size %d: %w", offset, size, len(c.inputs[index]), mediacodec.StatusErrorInvalidParameter)
		}
		data := make([]byte, size)
		copy(data, c.inputs[index][offset:offset+size])
		c.inputIsOwned[index] = false
		c.queued = append(c.queued, QueuedInput{
			Index:              index,
			Data:               data,
			PresentationTimeUs: presentationTimeUs,
			Flags:              flags,
		})
		c.stats.Queued++
		if c.config.Manual {
			return nil
		}

		if !flags.HasAll(mediacodec.BufferFlagCodecConfig) {
			c.pendingOutputs = append(c.pendingOutputs, pendingOutput{
				Data: data,
				Info: mediacodec.BufferInfo{
					Size:               size,
					PresentationTimeUs: presentationTimeUs,
					Flags:              flags,
				},
			})
			c.deliverPendingLocked(ctx)
		}
		if !flags.HasAll(mediacodec.BufferFlagEndOfStream) {
			c.announceInputLocked(ctx, index)
		}
		return nil
	})
}

func (c *Codec) ReleaseOutputBuffer(
	ctx context.Context,
	index int32,
	render bool,
) error {
	logger.Tracef(ctx, "ReleaseOutputBuffer(%d, %t)", index, render)
	return xsync.DoR1(ctx, &c.locker, func() error {
		if err := c.failureLocked(OpReleaseOutputBuffer); err != nil {
			return err
		}
		if err := c.checkOutputLocked(index); err != nil {
			return err
		}
		c.outputIsOwned[index] = false
		if render {
			c.stats.Rendered++
		} else {
			c.stats.Dropped++
		}
		if c.running {
			c.deliverPendingLocked(ctx)
		}
		return nil
	})
}

func (c *Codec) outputFormatLocked() mediacodec.Format {
	f := c.format.Clone()
	if c.window != 0 {
		f.SetInt32(mediacodec.KeyColorFormat, mediacodec.ColorFormatSurface)
	} else {
		f.SetInt32(mediacodec.KeyColorFormat, mediacodec.ColorFormatYUV420SemiPlanar)
	}
	f.SetInt32(mediacodec.KeyColorRange, mediacodec.ColorRangeLimited)
	f.SetInt32(mediacodec.KeyColorStandard, mediacodec.ColorStandardBT709)
	for k, v := range c.config.OutputFormat {
		if v == nil {
			delete(f, k)
			continue
		}
		f[k] = v
	}
	return f
}

func (c *Codec) deliverPendingLocked(ctx context.Context) {
	for len(c.pendingOutputs) > 0 {
		slot := int32(-1)
		for idx, isOwned := range c.outputIsOwned {
			if !isOwned {
				slot = int32(idx)
				break
			}
		}
		if slot < 0 {
			return
		}
		out := c.pendingOutputs[0]
		c.pendingOutputs = c.pendingOutputs[1:]
		if !c.formatSent {
			c.formatSent = true
			format := c.outputFormatLocked()
			c.emitLocked(ctx, "format-changed", func(cb mediacodec.Callbacks) {
				cb.OnAsyncFormatChanged(format)
			})
		}
		c.outputs[slot] = out.Data
		c.outputInfo[slot] = out.Info
		c.outputIsOwned[slot] = true
		info := out.Info
		c.emitLocked(ctx, "output-available", func(cb mediacodec.Callbacks) {
			cb.OnAsyncOutputAvailable(slot, info)
		})
	}
}

func (c *Codec) announceInputLocked(ctx context.Context, index int32) {
	c.inputIsOwned[index] = true
	c.emitLocked(ctx, "input-available", func(cb mediacodec.Callbacks) {
		cb.OnAsyncInputAvailable(index)
	})
}

// emitLocked schedules a callback on the codec goroutine. The callback is
// skipped if the codec was flushed, stopped or deleted in the meanwhile.
func (c *Codec) emitLocked(
	ctx context.Context,
	name string,
	fn func(mediacodec.Callbacks),
) {
	generation := c.generation
	err := c.thread.Dispatch(ctx, name, func(ctx context.Context) {
		cb := xsync.DoR1(ctx, &c.locker, func() mediacodec.Callbacks {
			if c.generation != generation || c.deleted {
				return nil
			}
			return c.callbacks
		})
		if cb == nil {
			logger.Tracef(ctx, "%s: skipping stale callback '%s'", c.name, name)
			return
		}
		fn(cb)
	})
	if err != nil {
		logger.Debugf(ctx, "unable to emit '%s': %v", name, err)
	}
}

// EmitInputAvailable hands input buffer index to the client.
func (c *Codec) EmitInputAvailable(ctx context.Context, index int32) {
	c.locker.Do(ctx, func() {
		c.announceInputLocked(ctx, index)
	})
}

// EmitOutputAvailable hands output buffer index to the client with data as
// its content.
func (c *Codec) EmitOutputAvailable(
	ctx context.Context,
	index int32,
	data []byte,
	info mediacodec.BufferInfo,
) {
	c.locker.Do(ctx, func() {
		c.outputs[index] = data
		c.outputInfo[index] = info
		c.outputIsOwned[index] = true
		c.emitLocked(ctx, "output-available", func(cb mediacodec.Callbacks) {
			cb.OnAsyncOutputAvailable(index, info)
		})
	})
}

func (c *Codec) EmitFormatChanged(ctx context.Context, format mediacodec.Format) {
	c.locker.Do(ctx, func() {
		c.formatSent = true
		c.emitLocked(ctx, "format-changed", func(cb mediacodec.Callbacks) {
			cb.OnAsyncFormatChanged(format)
		})
	})
}

func (c *Codec) EmitError(
	ctx context.Context,
	status mediacodec.Status,
	actionCode int32,
	detail string,
) {
	c.locker.Do(ctx, func() {
		c.emitLocked(ctx, "error", func(cb mediacodec.Callbacks) {
			cb.OnAsyncError(status, actionCode, detail)
		})
	})
}
