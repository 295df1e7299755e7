package surface

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/asyncmediacodec/types"
)

func TestVirtual(t *testing.T) {
	ctx := context.Background()
	var a VirtualAllocator
	s0, err := a.AllocateSurface(ctx, types.Size{Width: 640, Height: 480})
	require.NoError(t, err)
	s1, err := a.AllocateSurface(ctx, types.Size{Width: 640, Height: 480})
	require.NoError(t, err)
	require.NotZero(t, s0.NativeWindow())
	require.NotEqual(t, s0.NativeWindow(), s1.NativeWindow())
	require.Len(t, a.Surfaces(), 2)

	require.False(t, s0.IsReleased())
	require.NoError(t, s0.Release(ctx))
	require.NoError(t, s0.Release(ctx))
	require.True(t, s0.IsReleased())
	require.False(t, s1.IsReleased())
}

func TestExternal(t *testing.T) {
	ctx := context.Background()
	calls := 0
	s := FromNativeWindow(0xBEEF, func(ctx context.Context) error {
		calls++
		return nil
	})
	require.Equal(t, uintptr(0xBEEF), uintptr(s.NativeWindow()))
	require.NoError(t, s.Release(ctx))
	require.NoError(t, s.Release(ctx))
	require.Equal(t, 1, calls)
	require.True(t, s.IsReleased())
}
