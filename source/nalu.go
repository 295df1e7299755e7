package source

import (
	"github.com/Eyevinn/mp4ff/avc"
	"github.com/Eyevinn/mp4ff/hevc"
	"github.com/xaionaro-go/asyncmediacodec/mediacodec"
	"github.com/xaionaro-go/asyncmediacodec/types"
)

const (
	hevcFirstIRAP = hevc.NaluType(16)
	hevcLastIRAP  = hevc.NaluType(23)
	hevcVPS       = hevc.NaluType(32)
	hevcSPS       = hevc.NaluType(33)
	hevcPPS       = hevc.NaluType(34)
)

// IsRandomAccessPoint reports whether the NAL units contain a picture the
// decoding can start from.
func IsRandomAccessPoint(mimeType string, nalus [][]byte) bool {
	for _, nalu := range nalus {
		if len(nalu) == 0 {
			continue
		}
		switch mimeType {
		case mediacodec.MIMETypeAVC:
			if avc.GetNaluType(nalu[0]) == avc.NALU_IDR {
				return true
			}
		case mediacodec.MIMETypeHEVC:
			t := hevc.GetNaluType(nalu[0])
			if t >= hevcFirstIRAP && t <= hevcLastIRAP {
				return true
			}
		}
	}
	return false
}

// IsParameterSet reports whether nalu is an SPS, a PPS or (for HEVC) a VPS.
func IsParameterSet(mimeType string, nalu []byte) bool {
	if len(nalu) == 0 {
		return false
	}
	switch mimeType {
	case mediacodec.MIMETypeAVC:
		switch avc.GetNaluType(nalu[0]) {
		case avc.NALU_SPS, avc.NALU_PPS:
			return true
		}
	case mediacodec.MIMETypeHEVC:
		switch hevc.GetNaluType(nalu[0]) {
		case hevcVPS, hevcSPS, hevcPPS:
			return true
		}
	}
	return false
}

// ImageSizeFromSPS returns the picture size coded in the first H.264 SPS
// found among nalus.
func ImageSizeFromSPS(mimeType string, nalus [][]byte) (types.Size, bool) {
	if mimeType != mediacodec.MIMETypeAVC {
		return types.Size{}, false
	}
	for _, nalu := range nalus {
		if len(nalu) == 0 || avc.GetNaluType(nalu[0]) != avc.NALU_SPS {
			continue
		}
		sps, err := avc.ParseSPSNALUnit(nalu, false)
		if err != nil {
			continue
		}
		return types.Size{Width: int32(sps.Width), Height: int32(sps.Height)}, true
	}
	return types.Size{}, false
}
