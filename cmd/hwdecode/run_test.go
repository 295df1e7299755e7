package main

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/facebookincubator/go-belt"
	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/asyncmediacodec/decoder"
	"github.com/xaionaro-go/asyncmediacodec/logger"
	"github.com/xaionaro-go/asyncmediacodec/mediacodec"
	"github.com/xaionaro-go/asyncmediacodec/mediacodec/loopback"
	"github.com/xaionaro-go/asyncmediacodec/source"
	"github.com/xaionaro-go/asyncmediacodec/surface"
	"github.com/xaionaro-go/asyncmediacodec/types"
	"github.com/xaionaro-go/typing"
)

type sliceSource struct {
	track   source.Track
	samples []*source.Sample
}

func (s *sliceSource) Track(ctx context.Context) (source.Track, error) {
	return s.track, nil
}

func (s *sliceSource) NextSample(ctx context.Context) (*source.Sample, error) {
	if len(s.samples) == 0 {
		return nil, io.EOF
	}
	sample := s.samples[0]
	s.samples = s.samples[1:]
	return sample, nil
}

func newSliceSource(count int) *sliceSource {
	s := &sliceSource{
		track: source.Track{
			MIMEType:  mediacodec.MIMETypeAVC,
			ImageSize: types.Size{Width: 64, Height: 64},
		},
	}
	for i := 0; i < count; i++ {
		s.samples = append(s.samples, &source.Sample{
			Payload:          []byte{0, 0, 0, 1, 0x41, byte(i)},
			PresentationTime: time.Duration(i) * 40 * time.Millisecond,
			DecodeTime:       time.Duration(i) * 40 * time.Millisecond,
			Duration:         40 * time.Millisecond,
			IsKeyFrame:       i == 0,
		})
	}
	return s
}

func testCtx(t *testing.T) context.Context {
	ctx := logger.CtxWithLogger(context.Background(), logger.NewLogrus(logger.LevelDebug))
	t.Cleanup(func() { belt.Flush(ctx) })
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestDecodeAllRaw(t *testing.T) {
	ctx := testCtx(t)

	r, err := decodeAll(ctx, loopback.NewPlatform(), newSliceSource(5), runConfig{FlushAt: -1})
	require.NoError(t, err)
	require.Equal(t, "h264", r.Codec)
	require.Equal(t, "c2.loopback.video.decoder", r.PlatformCodec)
	require.Equal(t, uint64(5), r.Samples)
	require.Equal(t, uint64(5), r.Frames)
	require.Equal(t, uint64(5*6), r.RawBytes)
	require.Equal(t, uint64(5), r.Stats.Delivered.Count)
	require.Equal(t, uint64(5), r.Stats.DecodeLatency.Count)
}

func TestDecodeAllSurface(t *testing.T) {
	ctx := testCtx(t)
	allocator := &surface.VirtualAllocator{}

	r, err := decodeAll(
		ctx, loopback.NewPlatform(), newSliceSource(3),
		runConfig{FlushAt: -1, Render: true},
		decoder.OptionSurfaceAllocator{Allocator: allocator},
	)
	require.NoError(t, err)
	require.Equal(t, uint64(3), r.Frames)
	require.Zero(t, r.RawBytes)

	surfaces := allocator.Surfaces()
	require.Len(t, surfaces, 1)
	require.True(t, surfaces[0].IsReleased())
}

func TestDecodeAllFlushAndSeek(t *testing.T) {
	ctx := testCtx(t)

	r, err := decodeAll(ctx, loopback.NewPlatform(), newSliceSource(6), runConfig{
		FlushAt: 3,
		SeekTo:  typing.Opt(170 * time.Millisecond),
	})
	require.NoError(t, err)
	require.Equal(t, uint64(6), r.Samples)
	require.Equal(t, uint64(1), r.Stats.Flushes)

	// after the flush: 120ms ends before the seek target, 160ms and 200ms
	// are delivered
	require.GreaterOrEqual(t, r.Frames, uint64(2))
	require.LessOrEqual(t, r.Frames, uint64(5))
	require.GreaterOrEqual(t, r.Stats.Discarded.Count, uint64(1))
}
