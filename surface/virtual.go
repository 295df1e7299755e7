package surface

import (
	"context"
	"fmt"

	"github.com/xaionaro-go/asyncmediacodec/logger"
	"github.com/xaionaro-go/asyncmediacodec/mediacodec"
	"github.com/xaionaro-go/asyncmediacodec/types"
	"github.com/xaionaro-go/xsync"
	"go.uber.org/atomic"
)

var lastVirtualWindow atomic.Uintptr

func init() {
	lastVirtualWindow.Store(0x10000)
}

// Virtual is an in-memory Surface with a unique fake native window handle.
// It is meant for platforms that do not dereference the handle (such as the
// loopback one).
type Virtual struct {
	window   mediacodec.NativeWindow
	size     types.Size
	released atomic.Bool
}

var _ Surface = (*Virtual)(nil)

func NewVirtual(size types.Size) *Virtual {
	return &Virtual{
		window: mediacodec.NativeWindow(lastVirtualWindow.Add(0x10)),
		size:   size,
	}
}

func (s *Virtual) String() string {
	return fmt.Sprintf("Virtual(%X, %s)", uintptr(s.window), s.size)
}

func (s *Virtual) NativeWindow() mediacodec.NativeWindow {
	return s.window
}

func (s *Virtual) Size() types.Size {
	return s.size
}

func (s *Virtual) IsReleased() bool {
	return s.released.Load()
}

func (s *Virtual) Release(ctx context.Context) error {
	if !s.released.Swap(true) {
		logger.Debugf(ctx, "%s: released", s)
	}
	return nil
}

// VirtualAllocator allocates Virtual surfaces and remembers them.
type VirtualAllocator struct {
	locker   xsync.Mutex
	surfaces []*Virtual
}

var _ Allocator = (*VirtualAllocator)(nil)

func (a *VirtualAllocator) AllocateSurface(
	ctx context.Context,
	size types.Size,
) (Surface, error) {
	s := NewVirtual(size)
	a.locker.Do(ctx, func() {
		a.surfaces = append(a.surfaces, s)
	})
	return s, nil
}

func (a *VirtualAllocator) Surfaces() []*Virtual {
	return xsync.DoR1(context.Background(), &a.locker, func() []*Virtual {
		r := make([]*Virtual, len(a.surfaces))
		copy(r, a.surfaces)
		return r
	})
}
