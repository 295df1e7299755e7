package mediacodec

import (
	"fmt"
	"sort"
	"strings"
)

const (
	KeyMIME          = "mime"
	KeyWidth         = "width"
	KeyHeight        = "height"
	KeyDisplayWidth  = "display-width"
	KeyDisplayHeight = "display-height"
	KeyStride        = "stride"
	KeySliceHeight   = "slice-height"
	KeyColorFormat   = "color-format"
	KeyColorRange    = "color-range"
	KeyColorStandard = "color-standard"
	KeyColorTransfer = "color-transfer"
	KeyMaxInputSize  = "max-input-size"
	KeyLowLatency    = "low-latency"
	KeyFrameRate     = "frame-rate"
	KeyRotation      = "rotation-degrees"
)

const (
	ColorFormatYUV420Planar     = int32(19)
	ColorFormatYUV420SemiPlanar = int32(21)
	ColorFormatSurface          = int32(0x7F000789)
)

const (
	ColorRangeFull    = int32(1)
	ColorRangeLimited = int32(2)
)

const (
	ColorStandardBT709     = int32(1)
	ColorStandardBT601PAL  = int32(2)
	ColorStandardBT601NTSC = int32(4)
	ColorStandardBT2020    = int32(6)
)

// Format is a media format key/value map. Values are int32, int64, float32
// or string.
type Format map[string]any

func NewFormat() Format {
	return Format{}
}

func (f Format) Clone() Format {
	r := make(Format, len(f))
	for k, v := range f {
		r[k] = v
	}
	return r
}

func (f Format) SetInt32(key string, v int32) Format {
	f[key] = v
	return f
}

func (f Format) SetInt64(key string, v int64) Format {
	f[key] = v
	return f
}

func (f Format) SetFloat32(key string, v float32) Format {
	f[key] = v
	return f
}

func (f Format) SetString(key string, v string) Format {
	f[key] = v
	return f
}

func (f Format) GetInt32(key string) (int32, bool) {
	v, ok := f[key].(int32)
	return v, ok
}

func (f Format) GetInt64(key string) (int64, bool) {
	switch v := f[key].(type) {
	case int64:
		return v, true
	case int32:
		return int64(v), true
	}
	return 0, false
}

func (f Format) GetFloat32(key string) (float32, bool) {
	v, ok := f[key].(float32)
	return v, ok
}

func (f Format) GetString(key string) (string, bool) {
	v, ok := f[key].(string)
	return v, ok
}

func (f Format) MIMEType() string {
	v, _ := f.GetString(KeyMIME)
	return v
}

func (f Format) String() string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	b.WriteByte('{')
	for idx, k := range keys {
		if idx > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s: %v", k, f[k])
	}
	b.WriteByte('}')
	return b.String()
}
