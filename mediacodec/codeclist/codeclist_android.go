//go:build android
// +build android

package codeclist

import (
	"context"
	"fmt"

	"github.com/xaionaro-go/androidetc"
	"github.com/xaionaro-go/asyncmediacodec/logger"
	"github.com/xaionaro-go/xsync"
)

var (
	mediaCodecsInfoLocker xsync.Mutex
	mediaCodecsInfo       androidetc.MediaCodecsDescriptors
)

// Entries parses the platform media_codecs*.xml files (once per process).
func Entries(ctx context.Context) (_ret []Entry, _err error) {
	logger.Tracef(ctx, "Entries")
	defer func() { logger.Tracef(ctx, "/Entries: %d %v", len(_ret), _err) }()
	return xsync.DoR2(ctx, &mediaCodecsInfoLocker, func() ([]Entry, error) {
		if mediaCodecsInfo == nil {
			var err error
			mediaCodecsInfo, err = androidetc.ParseMediaCodecs()
			if err != nil {
				return nil, fmt.Errorf("unable to parse media codecs info: %w", err)
			}
		}

		var result []Entry
		for _, codecInfo := range mediaCodecsInfo {
			for _, codec := range codecInfo.Decoders {
				result = append(result, toEntry(codec, false))
			}
			for _, codec := range codecInfo.Encoders {
				result = append(result, toEntry(codec, true))
			}
		}
		return result, nil
	})
}

func toEntry(codec androidetc.MediaCodec, isEncoder bool) Entry {
	e := Entry{
		Name:       codec.Name,
		IsEncoder:  isEncoder,
		IsHardware: codec.IsHardware(),
	}
	if codec.Type != "" {
		e.MIMETypes = append(e.MIMETypes, codec.Type)
	}
	for _, typ := range codec.Types {
		e.MIMETypes = append(e.MIMETypes, typ.Name)
	}
	return e
}
