// Package surface provides the output targets a video decoder renders into.
package surface

import (
	"context"

	"github.com/xaionaro-go/asyncmediacodec/mediacodec"
	"github.com/xaionaro-go/asyncmediacodec/types"
)

// Surface is an output target. Once released it can no longer be rendered
// into and a decoder bound to it has to be rebuilt.
type Surface interface {
	NativeWindow() mediacodec.NativeWindow
	IsReleased() bool
	Release(ctx context.Context) error
}

type Allocator interface {
	AllocateSurface(ctx context.Context, size types.Size) (Surface, error)
}
