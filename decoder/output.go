package decoder

import (
	"context"
	"fmt"
	"time"

	"github.com/xaionaro-go/asyncmediacodec/image"
	"github.com/xaionaro-go/asyncmediacodec/types"
)

// Output is a decoded frame. The consumer owns Image and must eventually
// render or release it (see image.Surface).
type Output struct {
	PresentationTime time.Duration
	Duration         time.Duration
	IsKeyFrame       bool
	DisplaySize      types.Size
	ColorInfo        ColorInfo
	Image            image.Image
}

func (o *Output) EndTime() time.Duration {
	return o.PresentationTime + o.Duration
}

func (o *Output) String() string {
	return fmt.Sprintf("Output(pts:%v dur:%v key:%t display:%s)", o.PresentationTime, o.Duration, o.IsKeyFrame, o.DisplaySize)
}

// release drops the image without rendering it.
func (o *Output) release(ctx context.Context) {
	image.Match(o.Image,
		func(img *image.Surface) bool { return img.Release(ctx) },
		func(*image.Raw) bool { return true },
	)
}
