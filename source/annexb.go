package source

import (
	"encoding/binary"
	"fmt"
)

var startCode = []byte{0, 0, 0, 1}

// LengthPrefixedToAnnexB converts NAL units prefixed with their big-endian
// length (of nalLengthSize bytes) into a start-code delimited stream.
func LengthPrefixedToAnnexB(data []byte, nalLengthSize int) ([]byte, error) {
	if nalLengthSize < 1 || nalLengthSize > 4 {
		return nil, fmt.Errorf("invalid NAL length size %d", nalLengthSize)
	}
	result := make([]byte, 0, len(data)+len(data)/64)
	for offset := 0; offset < len(data); {
		if offset+nalLengthSize > len(data) {
			return nil, fmt.Errorf("truncated NAL length at offset %d of %d", offset, len(data))
		}
		var naluLen int
		for _, b := range data[offset : offset+nalLengthSize] {
			naluLen = naluLen<<8 | int(b)
		}
		offset += nalLengthSize
		if offset+naluLen > len(data) {
			return nil, fmt.Errorf("NAL unit of size %d at offset %d exceeds the sample of size %d", naluLen, offset, len(data))
		}
		result = append(result, startCode...)
		result = append(result, data[offset:offset+naluLen]...)
		offset += naluLen
	}
	return result, nil
}

// JoinAnnexB makes a start-code delimited stream out of NAL units.
func JoinAnnexB(nalus ...[]byte) []byte {
	var size int
	for _, nalu := range nalus {
		size += len(startCode) + len(nalu)
	}
	result := make([]byte, 0, size)
	for _, nalu := range nalus {
		result = append(result, startCode...)
		result = append(result, nalu...)
	}
	return result
}

// SplitAnnexB returns the NAL units of a start-code delimited stream
// (both 3- and 4-byte start codes are accepted).
func SplitAnnexB(data []byte) [][]byte {
	var (
		nalus [][]byte
		start = -1
	)
	for i := 0; i+2 < len(data); {
		if data[i] != 0 || data[i+1] != 0 || data[i+2] != 1 {
			i++
			continue
		}
		if start >= 0 {
			end := i
			if end > start && data[end-1] == 0 {
				end--
			}
			nalus = append(nalus, data[start:end])
		}
		i += 3
		start = i
	}
	if start >= 0 && start < len(data) {
		nalus = append(nalus, data[start:])
	}
	return nalus
}

// AnnexBToLengthPrefixed converts a start-code delimited stream into NAL
// units prefixed with their 4-byte big-endian length.
func AnnexBToLengthPrefixed(data []byte) []byte {
	nalus := SplitAnnexB(data)
	var size int
	for _, nalu := range nalus {
		size += 4 + len(nalu)
	}
	result := make([]byte, size)
	offset := 0
	for _, nalu := range nalus {
		binary.BigEndian.PutUint32(result[offset:], uint32(len(nalu)))
		offset += 4
		offset += copy(result[offset:], nalu)
	}
	return result
}
