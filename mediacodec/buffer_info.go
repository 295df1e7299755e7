package mediacodec

import (
	"fmt"
	"strings"
)

type BufferFlags uint32

const (
	BufferFlagKeyFrame     = BufferFlags(1)
	BufferFlagCodecConfig  = BufferFlags(2)
	BufferFlagEndOfStream  = BufferFlags(4)
	BufferFlagPartialFrame = BufferFlags(8)
)

func (f BufferFlags) HasAll(flag BufferFlags) bool {
	return f&flag == flag
}

func (f BufferFlags) HasAny(flag BufferFlags) bool {
	return f&flag != 0
}

func (f BufferFlags) String() string {
	var s []string
	if f.HasAll(BufferFlagKeyFrame) {
		s = append(s, "key_frame")
	}
	if f.HasAll(BufferFlagCodecConfig) {
		s = append(s, "codec_config")
	}
	if f.HasAll(BufferFlagEndOfStream) {
		s = append(s, "eos")
	}
	if f.HasAll(BufferFlagPartialFrame) {
		s = append(s, "partial_frame")
	}
	if rest := f &^ (BufferFlagKeyFrame | BufferFlagCodecConfig | BufferFlagEndOfStream | BufferFlagPartialFrame); rest != 0 {
		s = append(s, fmt.Sprintf("0x%X", uint32(rest)))
	}
	return strings.Join(s, "|")
}

// BufferInfo describes a filled output buffer.
type BufferInfo struct {
	Offset             int32
	Size               int32
	PresentationTimeUs int64
	Flags              BufferFlags
}

func (i BufferInfo) IsEndOfStream() bool {
	return i.Flags.HasAll(BufferFlagEndOfStream)
}

func (i BufferInfo) String() string {
	return fmt.Sprintf("{off:%d size:%d pts:%dus flags:%s}", i.Offset, i.Size, i.PresentationTimeUs, i.Flags)
}
