//go:build !android
// +build !android

package codeclist

import (
	"context"

	"github.com/xaionaro-go/asyncmediacodec/logger"
)

// Entries returns nothing: there is no platform codec list outside Android.
func Entries(ctx context.Context) ([]Entry, error) {
	logger.Tracef(ctx, "Entries")
	defer func() { logger.Tracef(ctx, "/Entries") }()
	return nil, nil
}
