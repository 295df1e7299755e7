package image

import (
	"context"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/asyncmediacodec/types"
	"go.uber.org/atomic"
)

func TestSurfaceReleasedOnce(t *testing.T) {
	ctx := context.Background()
	var calls []bool
	img := NewSurface(ctx, types.Size{Width: 2, Height: 2}, func(ctx context.Context, render bool) bool {
		calls = append(calls, render)
		return true
	})
	require.True(t, img.Render(ctx))
	require.False(t, img.Release(ctx))
	require.False(t, img.Render(ctx))
	require.True(t, img.IsReleased())
	require.Equal(t, []bool{true}, calls)
}

func TestSurfaceFinalizerDrops(t *testing.T) {
	ctx := context.Background()
	var (
		released atomic.Bool
		rendered atomic.Bool
	)
	func() {
		NewSurface(ctx, types.Size{}, func(ctx context.Context, render bool) bool {
			released.Store(true)
			rendered.Store(render)
			return true
		})
	}()
	require.Eventually(t, func() bool {
		runtime.GC()
		return released.Load()
	}, 5*time.Second, 10*time.Millisecond)
	require.False(t, rendered.Load())
}

func TestMatch(t *testing.T) {
	ctx := context.Background()
	kind := func(img Image) string {
		return Match(img,
			func(*Surface) string { return "surface" },
			func(*Raw) string { return "raw" },
		)
	}
	require.Equal(t, "raw", kind(&Raw{}))
	require.Equal(t, "surface", kind(NewSurface(ctx, types.Size{}, func(context.Context, bool) bool { return true })))
}
