package decoder

import (
	"context"
	"testing"
	"time"

	"github.com/facebookincubator/go-belt"
	"github.com/facebookincubator/go-belt/tool/logger/implementation/logrus"
	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/asyncmediacodec/executor"
	"github.com/xaionaro-go/asyncmediacodec/image"
	"github.com/xaionaro-go/asyncmediacodec/logger"
	"github.com/xaionaro-go/asyncmediacodec/mediacodec"
	"github.com/xaionaro-go/asyncmediacodec/mediacodec/loopback"
	"github.com/xaionaro-go/asyncmediacodec/surface"
	"github.com/xaionaro-go/asyncmediacodec/types"
	"github.com/xaionaro-go/typing"
)

const waitTimeout = 5 * time.Second

func testCtx(t *testing.T) context.Context {
	l := logrus.Default().WithLevel(logger.LevelDebug)
	ctx := logger.CtxWithLogger(context.Background(), l)
	ctx, cancelFn := context.WithCancel(ctx)
	t.Cleanup(func() {
		cancelFn()
		belt.Flush(ctx)
	})
	return ctx
}

type fixture struct {
	ctx      context.Context
	platform *loopback.Platform
	codec    *loopback.Codec
	decoder  *VideoDecoder

	// outputs handed out by Decode and not yet collected by drainAll
	delivered []*Output
}

type fixtureParams struct {
	Loopback []loopback.Option
	Decoder  []Option
	Surface  surface.Surface
}

func newFixture(t *testing.T, params fixtureParams) *fixture {
	ctx := testCtx(t)
	f := &fixture{
		ctx:      ctx,
		platform: loopback.NewPlatform(params.Loopback...),
	}
	d, err := NewVideoDecoder(ctx, f.platform, VideoParams{
		MIMEType:  mediacodec.MIMETypeAVC,
		ImageSize: types.Size{Width: 640, Height: 480},
		Surface:   params.Surface,
	}, params.Decoder...)
	require.NoError(t, err)
	f.decoder = d
	f.codec = f.platform.LastCodec()
	t.Cleanup(func() {
		require.NoError(t, d.Shutdown(ctx))
	})
	return f
}

func newManualFixture(t *testing.T, opts ...loopback.Option) *fixture {
	return newFixture(t, fixtureParams{
		Loopback: append([]loopback.Option{loopback.OptionManual(true)}, opts...),
	})
}

// sync waits until every callback emitted by the codec so far has been
// handled by the decoder.
func (f *fixture) sync(t *testing.T) {
	require.NoError(t, f.codec.Sync(f.ctx))
	f.do(t, func(ctx context.Context) {})
}

func (f *fixture) do(t *testing.T, fn func(ctx context.Context)) {
	require.NoError(t, executor.Do(f.ctx, f.decoder.executor, "test", fn))
}

func (f *fixture) wait(t *testing.T, p interface {
	Wait(context.Context) ([]*Output, error)
}) ([]*Output, error) {
	ctx, cancelFn := context.WithTimeout(f.ctx, waitTimeout)
	defer cancelFn()
	outs, err := p.Wait(ctx)
	require.NotErrorIs(t, err, context.DeadlineExceeded)
	return outs, err
}

func (f *fixture) decode(t *testing.T, req Request) []*Output {
	outs, err := f.wait(t, f.decoder.Decode(f.ctx, req))
	require.NoError(t, err)
	f.delivered = append(f.delivered, outs...)
	return outs
}

// drainAll drains until the decoder confirms there is nothing left, and
// releases every surface image it gets. The result includes the outputs
// already returned by decode.
func (f *fixture) drainAll(t *testing.T) []*Output {
	result := f.delivered
	f.delivered = nil
	for _, out := range result {
		releaseImage(f.ctx, out)
	}
	for {
		outs, err := f.wait(t, f.decoder.Drain(f.ctx))
		require.NoError(t, err)
		for _, out := range outs {
			releaseImage(f.ctx, out)
		}
		result = append(result, outs...)
		if len(outs) == 0 {
			require.Equal(t, StateDrained, f.decoder.State())
			return result
		}
	}
}

func releaseImage(ctx context.Context, out *Output) {
	if img, ok := out.Image.(*image.Surface); ok {
		img.Release(ctx)
	}
}

func sample(pts, dur time.Duration, payload string) Request {
	return Request{
		Payload:          []byte(payload),
		PresentationTime: pts,
		Duration:         dur,
	}
}

func TestDecodeDrainEndTime(t *testing.T) {
	f := newFixture(t, fixtureParams{})
	require.Equal(t, StateDrained, f.decoder.State())

	f.decode(t, sample(100*time.Millisecond, 33*time.Millisecond, "frame"))
	require.NotEqual(t, StateDrained, f.decoder.State())

	outs := f.drainAll(t)
	require.Len(t, outs, 1)
	require.Equal(t, 100*time.Millisecond, outs[0].PresentationTime)
	require.Equal(t, 33*time.Millisecond, outs[0].Duration)
	require.Equal(t, 133*time.Millisecond, outs[0].EndTime())
	require.Equal(t, types.Size{Width: 640, Height: 480}, outs[0].DisplaySize)

	stats := f.decoder.GetStats(f.ctx)
	require.Equal(t, uint64(1), stats.Received.Count)
	require.Equal(t, uint64(len("frame")), stats.Received.Bytes)
	require.Equal(t, uint64(1), stats.Queued.Count)
	require.Equal(t, uint64(1), stats.Decoded.Count)
	require.Equal(t, uint64(1), stats.Delivered.Count)
	require.Equal(t, uint64(1), stats.DecodeLatency.Count)
}

func TestDecodeEndOfStreamThenDrain(t *testing.T) {
	f := newManualFixture(t)
	f.codec.EmitInputAvailable(f.ctx, 0)
	f.codec.EmitInputAvailable(f.ctx, 1)
	f.sync(t)

	require.Empty(t, f.decode(t, sample(100*time.Millisecond, 40*time.Millisecond, "a")))
	require.Empty(t, f.decode(t, EndOfStream()))
	require.Equal(t, StateDrainable, f.decoder.State())

	p := f.decoder.Drain(f.ctx)
	require.Equal(t, StateDraining, f.decoder.State())
	require.False(t, p.IsSettled())

	queued := f.codec.QueuedInputs()
	require.Len(t, queued, 2)
	require.False(t, queued[0].Flags.HasAll(mediacodec.BufferFlagEndOfStream))
	require.True(t, queued[1].Flags.HasAll(mediacodec.BufferFlagEndOfStream))

	f.codec.EmitOutputAvailable(f.ctx, 0, []byte("a"), mediacodec.BufferInfo{
		Size:               1,
		PresentationTimeUs: 100_000,
	})
	f.codec.EmitOutputAvailable(f.ctx, 1, nil, mediacodec.BufferInfo{
		Flags: mediacodec.BufferFlagEndOfStream,
	})
	f.sync(t)

	outs, err := f.wait(t, p)
	require.NoError(t, err)
	require.Len(t, outs, 1)
	require.Equal(t, 100*time.Millisecond, outs[0].PresentationTime)
	require.Equal(t, StateDrained, f.decoder.State())

	outs, err = f.wait(t, f.decoder.Drain(f.ctx))
	require.NoError(t, err)
	require.Empty(t, outs)
}

func TestSeekThreshold(t *testing.T) {
	f := newManualFixture(t)
	f.codec.EmitInputAvailable(f.ctx, 0)
	f.codec.EmitInputAvailable(f.ctx, 1)
	f.sync(t)

	f.decoder.SetSeekThreshold(f.ctx, typing.Opt(200*time.Millisecond))
	f.decode(t, sample(100*time.Millisecond, 50*time.Millisecond, "before"))
	f.decode(t, sample(220*time.Millisecond, 30*time.Millisecond, "after"))

	f.codec.EmitOutputAvailable(f.ctx, 0, []byte("before"), mediacodec.BufferInfo{
		Size:               6,
		PresentationTimeUs: 100_000,
	})
	f.sync(t)
	f.do(t, func(ctx context.Context) {
		require.Empty(t, f.decoder.decoded)
		require.True(t, f.decoder.seekTarget.IsSet())
		require.Equal(t, 200*time.Millisecond, f.decoder.seekTarget.Get())
	})
	require.Equal(t, uint64(1), f.decoder.GetStats(f.ctx).Discarded.Count)

	f.codec.EmitOutputAvailable(f.ctx, 1, []byte("after"), mediacodec.BufferInfo{
		Size:               5,
		PresentationTimeUs: 220_000,
	})
	f.sync(t)
	f.do(t, func(ctx context.Context) {
		require.False(t, f.decoder.seekTarget.IsSet())
		require.Equal(t, 250*time.Millisecond, f.decoder.latestOutputTime.Get())
	})

	outs, err := f.wait(t, f.decoder.Drain(f.ctx))
	require.NoError(t, err)
	require.Len(t, outs, 1)
	require.Equal(t, 250*time.Millisecond, outs[0].EndTime())
	require.Equal(t, uint64(1), f.decoder.GetStats(f.ctx).Discarded.Count)
}

func TestSeekThresholdUnsetClears(t *testing.T) {
	f := newFixture(t, fixtureParams{})

	f.decoder.SetSeekThreshold(f.ctx, typing.Opt(time.Second))
	f.decoder.SetSeekThreshold(f.ctx, typing.Optional[time.Duration]{})
	f.decode(t, sample(0, 10*time.Millisecond, "x"))
	require.Len(t, f.drainAll(t), 1)
}

func TestOutputsOlderThanLastDeliveredAreDiscarded(t *testing.T) {
	f := newFixture(t, fixtureParams{})

	f.decode(t, sample(100*time.Millisecond, 33*time.Millisecond, "new"))
	f.decode(t, sample(50*time.Millisecond, 10*time.Millisecond, "old"))
	outs := f.drainAll(t)
	require.Len(t, outs, 1)
	require.Equal(t, 100*time.Millisecond, outs[0].PresentationTime)
	require.Equal(t, uint64(1), f.decoder.GetStats(f.ctx).Discarded.Count)
}

func TestInputBuffersAreUsedInArrivalOrder(t *testing.T) {
	f := newManualFixture(t)
	for _, idx := range []int32{2, 0, 1} {
		f.codec.EmitInputAvailable(f.ctx, idx)
	}
	f.sync(t)

	for idx, payload := range []string{"A", "B", "C"} {
		f.decode(t, sample(time.Duration(idx)*time.Millisecond, time.Millisecond, payload))
	}

	queued := f.codec.QueuedInputs()
	require.Len(t, queued, 3)
	require.Equal(t, int32(2), queued[0].Index)
	require.Equal(t, "A", string(queued[0].Data))
	require.Equal(t, int32(0), queued[1].Index)
	require.Equal(t, "B", string(queued[1].Data))
	require.Equal(t, int32(1), queued[2].Index)
	require.Equal(t, "C", string(queued[2].Data))
}

func TestQueuedRequestsAreSubmittedInOrder(t *testing.T) {
	f := newManualFixture(t)

	p := f.decoder.Decode(f.ctx, sample(0, time.Millisecond, "A"))
	require.Same(t, p, f.decoder.Decode(f.ctx, sample(time.Millisecond, time.Millisecond, "B")))
	require.False(t, p.IsSettled())

	f.codec.EmitInputAvailable(f.ctx, 3)
	f.codec.EmitInputAvailable(f.ctx, 1)
	outs, err := f.wait(t, p)
	require.NoError(t, err)
	require.Empty(t, outs)

	queued := f.codec.QueuedInputs()
	require.Len(t, queued, 2)
	require.Equal(t, "A", string(queued[0].Data))
	require.Equal(t, int32(3), queued[0].Index)
	require.Equal(t, "B", string(queued[1].Data))
	require.Equal(t, int32(1), queued[1].Index)
}

func TestDrainIdempotence(t *testing.T) {
	f := newManualFixture(t)
	f.codec.EmitInputAvailable(f.ctx, 0)
	f.sync(t)
	f.decode(t, sample(10*time.Millisecond, 10*time.Millisecond, "A"))

	p0 := f.decoder.Drain(f.ctx)
	require.Equal(t, StateDraining, f.decoder.State())
	require.Same(t, p0, f.decoder.Drain(f.ctx))
	require.False(t, p0.IsSettled())

	f.codec.EmitOutputAvailable(f.ctx, 0, []byte("decoded"), mediacodec.BufferInfo{
		Size:               7,
		PresentationTimeUs: 10_000,
	})
	outs, err := f.wait(t, p0)
	require.NoError(t, err)
	require.Len(t, outs, 1)
	raw, ok := outs[0].Image.(*image.Raw)
	require.True(t, ok)
	require.Equal(t, "decoded", string(raw.Data))

	p1 := f.decoder.Drain(f.ctx)
	require.NotSame(t, p0, p1)
	require.False(t, p1.IsSettled())

	// the end-of-stream marker is still waiting for an input buffer
	f.codec.EmitInputAvailable(f.ctx, 1)
	f.sync(t)
	queued := f.codec.QueuedInputs()
	require.Len(t, queued, 2)
	require.True(t, queued[1].Flags.HasAll(mediacodec.BufferFlagEndOfStream))

	f.codec.EmitOutputAvailable(f.ctx, 1, nil, mediacodec.BufferInfo{
		Flags: mediacodec.BufferFlagEndOfStream,
	})
	outs, err = f.wait(t, p1)
	require.NoError(t, err)
	require.Empty(t, outs)
	require.Equal(t, StateDrained, f.decoder.State())

	outs, err = f.wait(t, f.decoder.Drain(f.ctx))
	require.NoError(t, err)
	require.Empty(t, outs)
	require.Equal(t, StateDrained, f.decoder.State())
}

func TestOutputKeyFrameFlag(t *testing.T) {
	f := newManualFixture(t)
	f.codec.EmitInputAvailable(f.ctx, 0)
	f.codec.EmitInputAvailable(f.ctx, 1)
	f.sync(t)

	f.decode(t, sample(10*time.Millisecond, 10*time.Millisecond, "P"))
	key := sample(20*time.Millisecond, 10*time.Millisecond, "I")
	key.IsKeyFrame = true
	f.decode(t, key)

	f.codec.EmitOutputAvailable(f.ctx, 0, []byte("P"), mediacodec.BufferInfo{
		Size:               1,
		PresentationTimeUs: 10_000,
		Flags:              mediacodec.BufferFlagKeyFrame,
	})
	f.codec.EmitOutputAvailable(f.ctx, 1, []byte("I"), mediacodec.BufferInfo{
		Size:               1,
		PresentationTimeUs: 20_000,
	})
	f.sync(t)
	f.do(t, func(ctx context.Context) {
		require.Len(t, f.decoder.decoded, 2)
		require.True(t, f.decoder.decoded[0].IsKeyFrame)
		require.True(t, f.decoder.decoded[1].IsKeyFrame)
	})
}

func TestOutputWithoutKnownSampleIsDropped(t *testing.T) {
	f := newManualFixture(t)
	f.codec.EmitOutputAvailable(f.ctx, 0, []byte("ghost"), mediacodec.BufferInfo{
		Size:               5,
		PresentationTimeUs: 123,
	})
	f.sync(t)
	require.Equal(t, uint64(1), f.codec.GetStats().Dropped)
	require.Equal(t, uint64(1), f.decoder.GetStats(f.ctx).Discarded.Count)
}

func TestFlushClearsState(t *testing.T) {
	f := newManualFixture(t)
	f.codec.EmitInputAvailable(f.ctx, 0)
	f.sync(t)
	f.decode(t, sample(0, 10*time.Millisecond, "A"))

	pending := f.decoder.Decode(f.ctx, sample(10*time.Millisecond, 10*time.Millisecond, "B"))
	f.decoder.SetSeekThreshold(f.ctx, typing.Opt(time.Second))
	require.False(t, pending.IsSettled())

	require.NoError(t, f.decoder.Flush(f.ctx))
	_, err := f.wait(t, pending)
	require.True(t, IsCanceled(err), err)
	require.Equal(t, StateDrained, f.decoder.State())

	f.do(t, func(ctx context.Context) {
		require.Empty(t, f.decoder.queue)
		require.Empty(t, f.decoder.availableInputs)
		require.Empty(t, f.decoder.decoded)
		require.Empty(t, f.decoder.inputInfos)
		require.False(t, f.decoder.seekTarget.IsSet())
		require.False(t, f.decoder.latestOutputTime.IsSet())
		require.False(t, f.decoder.eosPending)
		require.Equal(t, uint64(1), f.decoder.getSession().Epoch())
	})

	stats := f.codec.GetStats()
	require.Equal(t, uint64(1), stats.Flushes)
	require.Equal(t, uint64(2), stats.Starts)
	require.Equal(t, uint64(1), f.decoder.GetStats(f.ctx).Canceled.Count)

	// the decoder keeps working after the flush
	f.codec.EmitInputAvailable(f.ctx, 0)
	f.sync(t)
	f.decode(t, sample(20*time.Millisecond, 10*time.Millisecond, "C"))
	queued := f.codec.QueuedInputs()
	require.Equal(t, "C", string(queued[len(queued)-1].Data))
}

func TestFlushFailureIsFatal(t *testing.T) {
	f := newFixture(t, fixtureParams{})
	f.codec.FailNext(loopback.OpFlush, mediacodec.StatusErrorIO)
	err := f.decoder.Flush(f.ctx)
	require.True(t, IsFatal(err), err)
	require.ErrorIs(t, err, mediacodec.StatusErrorIO)
}

func TestQueueFailureIsFatal(t *testing.T) {
	f := newManualFixture(t)
	f.codec.EmitInputAvailable(f.ctx, 0)
	f.sync(t)
	f.codec.FailNext(loopback.OpQueueInputBuffer, mediacodec.StatusErrorIO)

	_, err := f.wait(t, f.decoder.Decode(f.ctx, sample(0, time.Millisecond, "A")))
	require.True(t, IsFatal(err), err)
	require.ErrorIs(t, err, mediacodec.StatusErrorIO)
	require.Equal(t, uint64(1), f.decoder.GetStats(f.ctx).Errors)
}

func TestPayloadLargerThanInputBufferIsFatal(t *testing.T) {
	f := newManualFixture(t, loopback.OptionInputBufferSize(4))
	f.codec.EmitInputAvailable(f.ctx, 0)
	f.sync(t)

	_, err := f.wait(t, f.decoder.Decode(f.ctx, sample(0, time.Millisecond, "too long")))
	require.True(t, IsFatal(err), err)
	require.Empty(t, f.codec.QueuedInputs())
}

func TestCodecErrorRejectsPendingPromises(t *testing.T) {
	f := newManualFixture(t)
	decode := f.decoder.Decode(f.ctx, sample(0, time.Millisecond, "A"))
	drain := f.decoder.Drain(f.ctx)
	require.False(t, decode.IsSettled())
	require.False(t, drain.IsSettled())

	f.codec.EmitError(f.ctx, mediacodec.StatusErrorInsufficientResource, 0, "reclaimed")
	for _, p := range []interface {
		Wait(context.Context) ([]*Output, error)
	}{decode, drain} {
		_, err := f.wait(t, p)
		require.True(t, IsFatal(err), err)
		require.ErrorIs(t, err, mediacodec.StatusErrorInsufficientResource)
	}
}

func TestFormatWithoutColorFormatIsFatal(t *testing.T) {
	f := newManualFixture(t)
	f.decoder.Decode(f.ctx, sample(0, time.Millisecond, "A"))
	drain := f.decoder.Drain(f.ctx)
	require.False(t, drain.IsSettled())
	f.codec.EmitFormatChanged(f.ctx, mediacodec.NewFormat().
		SetString(mediacodec.KeyMIME, "video/raw").
		SetInt32(mediacodec.KeyColorFormat, 0))
	_, err := f.wait(t, drain)
	require.True(t, IsFatal(err), err)
}

func TestColorInfoIsAttachedToOutputs(t *testing.T) {
	f := newFixture(t, fixtureParams{
		Loopback: []loopback.Option{
			loopback.OptionOutputFormat(mediacodec.NewFormat().
				SetInt32(mediacodec.KeyColorStandard, colorStandardSMPTE432)),
		},
		Decoder: []Option{OptionQuirks(QuirkSMPTE432ColorPrimariesBuggy)},
	})
	f.decode(t, sample(0, time.Millisecond, "x"))
	outs := f.drainAll(t)
	require.Len(t, outs, 1)
	colorInfo := outs[0].ColorInfo
	require.Equal(t, mediacodec.ColorFormatYUV420SemiPlanar, colorInfo.Format)
	require.Equal(t, mediacodec.ColorRangeLimited, colorInfo.Range.Get())
	require.Equal(t, mediacodec.ColorStandardBT709, colorInfo.Standard.Get())
}

func TestRawOutputMode(t *testing.T) {
	f := newFixture(t, fixtureParams{})
	require.Nil(t, f.decoder.Surface())
	require.Zero(t, f.codec.Window())

	f.decode(t, sample(0, time.Millisecond, "payload"))
	outs := f.drainAll(t)
	require.Len(t, outs, 1)
	raw, ok := outs[0].Image.(*image.Raw)
	require.True(t, ok)
	require.Equal(t, "payload", string(raw.Data))
	require.Equal(t, types.Size{Width: 640, Height: 480}, raw.Size())
	require.Equal(t, mediacodec.ColorFormatYUV420SemiPlanar, raw.ColorFormat)
	require.Zero(t, f.codec.GetStats().Rendered)
}

func TestSurfaceOutputMode(t *testing.T) {
	allocator := &surface.VirtualAllocator{}
	f := newFixture(t, fixtureParams{
		Decoder: []Option{OptionSurfaceAllocator{allocator}},
	})
	surfaces := allocator.Surfaces()
	require.Len(t, surfaces, 1)
	require.Equal(t, surfaces[0].NativeWindow(), f.codec.Window())

	f.decode(t, sample(0, time.Millisecond, "x"))
	outs, err := f.wait(t, f.decoder.Drain(f.ctx))
	require.NoError(t, err)
	for len(outs) == 0 {
		outs, err = f.wait(t, f.decoder.Drain(f.ctx))
		require.NoError(t, err)
	}
	require.Len(t, outs, 1)
	img, ok := outs[0].Image.(*image.Surface)
	require.True(t, ok)
	require.True(t, img.Render(f.ctx))
	require.False(t, img.Release(f.ctx))
	require.NoError(t, f.codec.Sync(f.ctx))
	require.Equal(t, uint64(1), f.codec.GetStats().Rendered)
	require.Empty(t, f.drainAll(t))

	require.NoError(t, f.decoder.Shutdown(f.ctx))
	require.True(t, surfaces[0].IsReleased())
}

func TestNeedsNewDecoder(t *testing.T) {
	s := surface.NewVirtual(types.Size{Width: 640, Height: 480})
	f := newFixture(t, fixtureParams{
		Loopback: []loopback.Option{loopback.OptionManual(true)},
		Surface:  s,
	})
	f.codec.EmitInputAvailable(f.ctx, 0)
	f.sync(t)
	f.decode(t, sample(0, time.Millisecond, "A"))

	drain := f.decoder.Drain(f.ctx)
	require.False(t, drain.IsSettled())
	require.NoError(t, s.Release(f.ctx))
	require.True(t, f.decoder.NeedsNewDecoder())

	f.codec.EmitOutputAvailable(f.ctx, 0, nil, mediacodec.BufferInfo{Size: 1})
	_, err := f.wait(t, drain)
	require.True(t, IsNeedNewDecoder(err), err)

	_, err = f.wait(t, f.decoder.Decode(f.ctx, sample(time.Millisecond, time.Millisecond, "B")))
	require.True(t, IsNeedNewDecoder(err), err)
	require.NoError(t, f.codec.Sync(f.ctx))
	require.Equal(t, uint64(1), f.codec.GetStats().Dropped)
}

func TestShutdown(t *testing.T) {
	f := newManualFixture(t)
	pending := f.decoder.Decode(f.ctx, sample(0, time.Millisecond, "A"))
	require.False(t, pending.IsSettled())

	require.NoError(t, f.decoder.Shutdown(f.ctx))
	require.Equal(t, StateShutdown, f.decoder.State())
	_, err := f.wait(t, pending)
	require.True(t, IsCanceled(err), err)
	require.True(t, f.codec.IsDeleted())
	require.Empty(t, f.decoder.PlatformCodecName())

	_, err = f.wait(t, f.decoder.Decode(f.ctx, sample(0, time.Millisecond, "A")))
	require.True(t, IsCanceled(err), err)
	_, err = f.wait(t, f.decoder.Drain(f.ctx))
	require.True(t, IsCanceled(err), err)
	require.True(t, IsCanceled(f.decoder.Flush(f.ctx)))
	require.NoError(t, f.decoder.Shutdown(f.ctx))
}

func TestShutdownIgnoresStopFailure(t *testing.T) {
	f := newFixture(t, fixtureParams{})
	f.codec.FailNext(loopback.OpStop, mediacodec.StatusErrorIO)
	require.NoError(t, f.decoder.Shutdown(f.ctx))
	require.True(t, f.codec.IsDeleted())
}

func TestSharedExecutor(t *testing.T) {
	ctx := testCtx(t)
	exec := executor.NewSerial(ctx, "shared")
	defer exec.Close(ctx)

	p := loopback.NewPlatform()
	d, err := NewVideoDecoder(ctx, p, VideoParams{
		MIMEType:  "video/mp4",
		ImageSize: types.Size{Width: 320, Height: 240},
	}, OptionExecutor{exec}, OptionLowLatency(true), OptionMaxInputSize(1<<21))
	require.NoError(t, err)

	format := p.LastCodec().Format()
	mimeType, _ := format.GetString(mediacodec.KeyMIME)
	require.Equal(t, mediacodec.MIMETypeAVC, mimeType)
	lowLatency, _ := format.GetInt32(mediacodec.KeyLowLatency)
	require.Equal(t, int32(1), lowLatency)
	maxInputSize, _ := format.GetInt32(mediacodec.KeyMaxInputSize)
	require.Equal(t, int32(1<<21), maxInputSize)

	require.Equal(t, "h264", d.CodecName())
	require.Equal(t, "c2.loopback.video.decoder", d.PlatformCodecName())
	require.True(t, d.IsHardwareAccelerated())
	require.NoError(t, d.Shutdown(ctx))
	require.False(t, exec.IsClosed())
}

func TestNewVideoDecoderErrors(t *testing.T) {
	ctx := testCtx(t)
	_, err := NewVideoDecoder(ctx, loopback.NewPlatform(), VideoParams{
		MIMEType:  "audio/mp4a-latm",
		ImageSize: types.Size{Width: 320, Height: 240},
	})
	require.Error(t, err)

	p := loopback.NewPlatform()
	p.FailCreate("c2.loopback.video.decoder", mediacodec.StatusErrorInsufficientResource)
	_, err = NewVideoDecoder(ctx, p, VideoParams{
		MIMEType:  mediacodec.MIMETypeVP9,
		ImageSize: types.Size{Width: 320, Height: 240},
	})
	require.ErrorIs(t, err, mediacodec.StatusErrorInsufficientResource)
}
