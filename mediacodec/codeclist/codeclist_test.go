package codeclist

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/asyncmediacodec/mediacodec"
)

func TestFilterNames(t *testing.T) {
	entries := []Entry{
		{Name: "c2.android.avc.decoder", MIMETypes: []string{mediacodec.MIMETypeAVC}, IsHardware: true},
		{Name: "c2.qti.avc.decoder", MIMETypes: []string{mediacodec.MIMETypeAVC}, IsHardware: true},
		{Name: "c2.qti.avc.encoder", MIMETypes: []string{mediacodec.MIMETypeAVC}, IsEncoder: true, IsHardware: true},
		{Name: "c2.qti.hevc.decoder", MIMETypes: []string{mediacodec.MIMETypeHEVC}, IsHardware: true},
		{Name: "OMX.google.h264.decoder", MIMETypes: []string{mediacodec.MIMETypeAVC}},
		{Name: "c2.exynos.h264.decoder", MIMETypes: []string{"video/other", mediacodec.MIMETypeAVC}, IsHardware: true},
	}
	require.Equal(t, []string{
		"c2.qti.avc.decoder",
		"c2.exynos.h264.decoder",
		"c2.android.avc.decoder",
		"OMX.google.h264.decoder",
	}, filterNames(entries, mediacodec.MIMETypeAVC, false))
	require.Equal(t, []string{"c2.qti.avc.encoder"}, filterNames(entries, mediacodec.MIMETypeAVC, true))
	require.Empty(t, filterNames(entries, mediacodec.MIMETypeAV1, false))
}
