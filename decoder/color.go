package decoder

import (
	"fmt"

	"github.com/xaionaro-go/asyncmediacodec/mediacodec"
	"github.com/xaionaro-go/typing"
)

const (
	colorStandardSMPTE432       = int32(10)
	colorStandardSMPTE432Vendor = int32(65800)
)

// ColorInfo is the colour description reported by the codec in its last
// format change.
type ColorInfo struct {
	Format   int32
	Range    typing.Optional[int32]
	Standard typing.Optional[int32]
}

func (c ColorInfo) String() string {
	return fmt.Sprintf("ColorInfo(format:%d range:%s standard:%s)", c.Format, optString(c.Range), optString(c.Standard))
}

func optString[T any](v typing.Optional[T]) string {
	if !v.IsSet() {
		return "unset"
	}
	return fmt.Sprint(v.Get())
}

func parseColorInfo(
	format mediacodec.Format,
	quirks Quirks,
) (ColorInfo, error) {
	colorFormat, ok := format.GetInt32(mediacodec.KeyColorFormat)
	if !ok || colorFormat == 0 {
		return ColorInfo{}, fmt.Errorf("the output format has no color format: %s", format)
	}

	info := ColorInfo{Format: colorFormat}
	if v, ok := format.GetInt32(mediacodec.KeyColorRange); ok {
		info.Range = typing.Opt(v)
	}
	if v, ok := format.GetInt32(mediacodec.KeyColorStandard); ok {
		if quirks.HasAll(QuirkSMPTE432ColorPrimariesBuggy) {
			switch v {
			case colorStandardSMPTE432, colorStandardSMPTE432Vendor:
				v = mediacodec.ColorStandardBT709
			}
		}
		info.Standard = typing.Opt(v)
	}
	return info, nil
}
