// Package image defines the decoded picture a decoder hands out: either a
// frame held by the codec for rendering into a surface, or a raw frame copied
// out of a codec buffer.
package image

import (
	"github.com/xaionaro-go/asyncmediacodec/types"
)

// Image is either a *Surface or a *Raw; use Match to dispatch on it.
type Image interface {
	Size() types.Size
	isImage()
}

// Match calls the function corresponding to the kind of img.
func Match[R any](
	img Image,
	onSurface func(*Surface) R,
	onRaw func(*Raw) R,
) R {
	switch img := img.(type) {
	case *Surface:
		return onSurface(img)
	case *Raw:
		return onRaw(img)
	default:
		panic("unexpected image type")
	}
}
