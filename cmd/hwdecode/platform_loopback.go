//go:build !(android && arm64)

package main

import (
	"context"

	"github.com/xaionaro-go/asyncmediacodec/logger"
	"github.com/xaionaro-go/asyncmediacodec/mediacodec"
	"github.com/xaionaro-go/asyncmediacodec/mediacodec/loopback"
	"github.com/xaionaro-go/asyncmediacodec/surface"
)

func newPlatform(ctx context.Context, withSurface bool) (mediacodec.Platform, surface.Allocator, error) {
	logger.Warnf(ctx, "no hardware codecs on this platform, using the loopback one")
	var allocator surface.Allocator
	if withSurface {
		allocator = &surface.VirtualAllocator{}
	}
	return loopback.NewPlatform(), allocator, nil
}
