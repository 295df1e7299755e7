package image

import (
	"context"
	"fmt"

	"github.com/xaionaro-go/asyncmediacodec/internal"
	"github.com/xaionaro-go/asyncmediacodec/logger"
	"github.com/xaionaro-go/asyncmediacodec/types"
	"go.uber.org/atomic"
)

// ReleaseFunc returns the underlying codec buffer to the codec, rendering it
// if render is true. It reports whether the codec accepted the buffer.
type ReleaseFunc func(ctx context.Context, render bool) bool

// Surface is a frame that stays in a codec output buffer until the consumer
// either renders it into the output surface or drops it. If neither happens
// before the image is garbage collected, it is dropped.
type Surface struct {
	size     types.Size
	released atomic.Bool
	release  ReleaseFunc
}

var _ Image = (*Surface)(nil)

func NewSurface(
	ctx context.Context,
	size types.Size,
	release ReleaseFunc,
) *Surface {
	img := &Surface{
		size:    size,
		release: release,
	}
	internal.SetFinalizer(ctx, img, func(ctx context.Context, img *Surface) {
		if !img.released.Load() {
			logger.Debugf(ctx, "%s was neither rendered nor released", img)
		}
		img.doRelease(ctx, false)
	})
	return img
}

func (*Surface) isImage() {}

func (img *Surface) String() string {
	return fmt.Sprintf("SurfaceImage(%s)", img.size)
}

func (img *Surface) Size() types.Size {
	return img.size
}

func (img *Surface) IsReleased() bool {
	return img.released.Load()
}

// Render presents the frame on the output surface and returns the buffer
// to the codec. Only the first Render or Release has an effect.
func (img *Surface) Render(ctx context.Context) bool {
	return img.doRelease(ctx, true)
}

// Release returns the buffer to the codec without presenting it.
func (img *Surface) Release(ctx context.Context) bool {
	return img.doRelease(ctx, false)
}

func (img *Surface) doRelease(ctx context.Context, render bool) bool {
	if img.released.Swap(true) {
		return false
	}
	internal.ClearFinalizer(img)
	return img.release(ctx, render)
}
