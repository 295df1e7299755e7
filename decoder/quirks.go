package decoder

import (
	"fmt"
	"math/bits"
	"strings"
)

// Quirks are workarounds for known misbehaviour of particular codecs.
type Quirks uint64

const (
	// QuirkSMPTE432ColorPrimariesBuggy: the codec reports SMPTE EG 432
	// (DCI-P3) colour primaries for content that is actually BT.709.
	QuirkSMPTE432ColorPrimariesBuggy = Quirks(1 << iota)
	endOfQuirks
)

func (q Quirks) HasAll(flags Quirks) bool {
	return q&flags == flags
}

func (q Quirks) HasAny(flags Quirks) bool {
	return q&flags != 0
}

func (q *Quirks) Set(flag Quirks) {
	*q |= flag
}

func (q *Quirks) Unset(flag Quirks) {
	*q &^= flag
}

func (q Quirks) String() string {
	if q == 0 {
		return "none"
	}
	var result []string
	for flag := Quirks(1); flag < endOfQuirks; flag <<= 1 {
		if !q.HasAll(flag) {
			continue
		}
		result = append(result, flag.name())
	}
	if unknown := q &^ (endOfQuirks - 1); unknown != 0 {
		result = append(result, fmt.Sprintf("unknown(%d bits)", bits.OnesCount64(uint64(unknown))))
	}
	return strings.Join(result, "|")
}

func (q Quirks) name() string {
	switch q {
	case QuirkSMPTE432ColorPrimariesBuggy:
		return "smpte432_color_primaries_buggy"
	default:
		return fmt.Sprintf("quirk(%d)", uint64(q))
	}
}
