//go:build android && arm64

package ndk

import (
	"fmt"

	"github.com/xaionaro-go/asyncmediacodec/mediacodec"
)

var int32Keys = []string{
	mediacodec.KeyWidth,
	mediacodec.KeyHeight,
	mediacodec.KeyDisplayWidth,
	mediacodec.KeyDisplayHeight,
	mediacodec.KeyStride,
	mediacodec.KeySliceHeight,
	mediacodec.KeyColorFormat,
	mediacodec.KeyColorRange,
	mediacodec.KeyColorStandard,
	mediacodec.KeyColorTransfer,
	mediacodec.KeyMaxInputSize,
	mediacodec.KeyRotation,
}

func newNativeFormat(f mediacodec.Format) (uintptr, error) {
	native := aMediaFormatNew()
	if native == 0 {
		return 0, fmt.Errorf("AMediaFormat_new returned NULL")
	}
	for k, v := range f {
		switch v := v.(type) {
		case int32:
			aMediaFormatSetInt32(native, k, v)
		case int64:
			aMediaFormatSetInt64(native, k, v)
		case float32:
			aMediaFormatSetFloat(native, k, v)
		case string:
			aMediaFormatSetString(native, k, v)
		default:
			aMediaFormatDelete(native)
			return 0, fmt.Errorf("unsupported value type %T of key '%s'", v, k)
		}
	}
	return native, nil
}

func formatFromNative(native uintptr) mediacodec.Format {
	f := mediacodec.NewFormat()
	var s uintptr
	if aMediaFormatGetString(native, mediacodec.KeyMIME, &s) {
		f.SetString(mediacodec.KeyMIME, goString(s))
	}
	for _, k := range int32Keys {
		var v int32
		if aMediaFormatGetInt32(native, k, &v) {
			f.SetInt32(k, v)
		}
	}
	return f
}
