package surface

import (
	"context"
	"fmt"

	"github.com/xaionaro-go/asyncmediacodec/logger"
	"github.com/xaionaro-go/asyncmediacodec/mediacodec"
	"go.uber.org/atomic"
)

// External is a Surface around a native window owned by somebody else
// (e.g. an ANativeWindow obtained from the UI layer).
type External struct {
	window    mediacodec.NativeWindow
	releaseFn func(ctx context.Context) error
	released  atomic.Bool
}

var _ Surface = (*External)(nil)

// FromNativeWindow wraps window; releaseFn (may be nil) is called on Release.
func FromNativeWindow(
	window mediacodec.NativeWindow,
	releaseFn func(ctx context.Context) error,
) *External {
	return &External{
		window:    window,
		releaseFn: releaseFn,
	}
}

func (s *External) String() string {
	return fmt.Sprintf("External(%X)", uintptr(s.window))
}

func (s *External) NativeWindow() mediacodec.NativeWindow {
	return s.window
}

func (s *External) IsReleased() bool {
	return s.released.Load()
}

func (s *External) Release(ctx context.Context) error {
	if s.released.Swap(true) {
		return nil
	}
	logger.Debugf(ctx, "%s: released", s)
	if s.releaseFn == nil {
		return nil
	}
	return s.releaseFn(ctx)
}
