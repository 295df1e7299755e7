package internal

import (
	"context"
	"runtime"

	"github.com/xaionaro-go/asyncmediacodec/logger"
)

// SetFinalizer registers callback to be called when obj becomes unreachable,
// unless ClearFinalizer is called first.
func SetFinalizer[T any](
	ctx context.Context,
	obj *T,
	callback func(ctx context.Context, in *T),
) {
	runtime.SetFinalizer(obj, func(in *T) {
		logger.Tracef(ctx, "finalizing %T", in)
		callback(ctx, in)
	})
}

func ClearFinalizer[T any](obj *T) {
	runtime.SetFinalizer(obj, nil)
}
