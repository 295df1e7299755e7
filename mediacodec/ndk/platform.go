//go:build android && arm64

package ndk

import (
	"context"
	"fmt"

	"github.com/xaionaro-go/asyncmediacodec/logger"
	"github.com/xaionaro-go/asyncmediacodec/mediacodec"
	"github.com/xaionaro-go/asyncmediacodec/mediacodec/codeclist"
)

type Platform struct{}

var _ mediacodec.Platform = (*Platform)(nil)

func NewPlatform() (*Platform, error) {
	if err := load(); err != nil {
		return nil, err
	}
	return &Platform{}, nil
}

func (p *Platform) FindCodecNames(
	ctx context.Context,
	mimeType string,
	isEncoder bool,
) ([]string, error) {
	return codeclist.Names(ctx, mimeType, isEncoder)
}

func (p *Platform) CreateCodecByName(
	ctx context.Context,
	name string,
) (_ret mediacodec.Codec, _err error) {
	logger.Debugf(ctx, "CreateCodecByName(%s)", name)
	defer func() { logger.Debugf(ctx, "/CreateCodecByName(%s): %v", name, _err) }()
	handle := aMediaCodecCreateCodecByName(name)
	if handle == 0 {
		return nil, fmt.Errorf("AMediaCodec_createCodecByName('%s') returned NULL", name)
	}
	return &Codec{
		name:   name,
		handle: handle,
	}, nil
}
