package mediacodec

import (
	"strings"

	"github.com/xaionaro-go/asyncmediacodec/types"
)

const (
	MIMETypeAVC  = "video/avc"
	MIMETypeHEVC = "video/hevc"
	MIMETypeVP8  = "video/x-vnd.on2.vp8"
	MIMETypeVP9  = "video/x-vnd.on2.vp9"
	MIMETypeAV1  = "video/av01"
)

// MIMETypeFromContainer translates container-level type names into the MIME
// types the platform codec list uses.
func MIMETypeFromContainer(mimeType string) string {
	switch strings.ToLower(mimeType) {
	case "video/mp4", "video/h264", "video/avc", "avc1", "avc3", "h264":
		return MIMETypeAVC
	case "video/h265", "video/hevc", "hvc1", "hev1", "hevc", "h265":
		return MIMETypeHEVC
	case "video/vp8", "video/webm; codecs=vp8", "vp8":
		return MIMETypeVP8
	case "video/vp9", "video/webm; codecs=vp9", "vp09", "vp9":
		return MIMETypeVP9
	case "video/av1", "video/av01", "av01", "av1":
		return MIMETypeAV1
	}
	return mimeType
}

// IsVideoMIMEType reports whether mimeType is a video MIME type.
func IsVideoMIMEType(mimeType string) bool {
	return types.MediaTypeFromMIMEType(mimeType) == types.MediaTypeVideo
}
