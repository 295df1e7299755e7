//go:build android && arm64

package main

import (
	"context"

	"github.com/xaionaro-go/asyncmediacodec/mediacodec"
	"github.com/xaionaro-go/asyncmediacodec/mediacodec/ndk"
	"github.com/xaionaro-go/asyncmediacodec/surface"
)

// newPlatform returns the device's codecs. The frames are always copied out
// of the codec: there is no window to render to from a command line tool.
func newPlatform(ctx context.Context, withSurface bool) (mediacodec.Platform, surface.Allocator, error) {
	p, err := ndk.NewPlatform()
	if err != nil {
		return nil, nil, err
	}
	return p, nil, nil
}
