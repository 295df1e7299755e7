package mediacodec

import (
	"strings"
)

var softwareCodecNamePrefixes = []string{
	"OMX.google.",
	"c2.android.",
}

// IsSoftwareCodecName reports whether the codec name refers to one of the
// platform's software codec implementations.
func IsSoftwareCodecName(name string) bool {
	for _, prefix := range softwareCodecNamePrefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}
