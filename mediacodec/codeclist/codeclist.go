// Package codeclist enumerates the platform codecs able to handle a MIME
// type, hardware implementations first.
package codeclist

import (
	"context"
	"sort"

	"github.com/xaionaro-go/asyncmediacodec/mediacodec"
)

// Entry is a codec known to the platform.
type Entry struct {
	Name       string
	MIMETypes  []string
	IsEncoder  bool
	IsHardware bool
}

func (e Entry) Supports(mimeType string) bool {
	for _, t := range e.MIMETypes {
		if t == mimeType {
			return true
		}
	}
	return false
}

// Names returns the names of the fitting codecs: hardware ones first, then
// software ones, each group in the platform's order.
func Names(
	ctx context.Context,
	mimeType string,
	isEncoder bool,
) ([]string, error) {
	entries, err := Entries(ctx)
	if err != nil {
		return nil, err
	}
	return filterNames(entries, mimeType, isEncoder), nil
}

func filterNames(
	entries []Entry,
	mimeType string,
	isEncoder bool,
) []string {
	var fitting []Entry
	for _, e := range entries {
		if e.IsEncoder != isEncoder || !e.Supports(mimeType) {
			continue
		}
		if mediacodec.IsSoftwareCodecName(e.Name) {
			e.IsHardware = false
		}
		fitting = append(fitting, e)
	}
	sort.SliceStable(fitting, func(i, j int) bool {
		return fitting[i].IsHardware && !fitting[j].IsHardware
	})
	names := make([]string, 0, len(fitting))
	for _, e := range fitting {
		names = append(names, e.Name)
	}
	return names
}
