package image

import (
	"fmt"

	"github.com/xaionaro-go/asyncmediacodec/types"
)

// Raw is a frame copied out of a codec output buffer.
type Raw struct {
	Data        []byte
	ImageSize   types.Size
	ColorFormat int32
	Stride      int32
	SliceHeight int32
}

var _ Image = (*Raw)(nil)

func (*Raw) isImage() {}

func (img *Raw) String() string {
	return fmt.Sprintf("RawImage(%s, format:%d, %d bytes)", img.ImageSize, img.ColorFormat, len(img.Data))
}

func (img *Raw) Size() types.Size {
	return img.ImageSize
}
