// Package loopback is an in-process implementation of mediacodec.Platform.
// Its codecs "decode" by echoing every queued input back as an output with
// the same presentation time and flags, emitting the callbacks from their
// own goroutine the way a hardware codec does.
package loopback

import (
	"context"
	"fmt"
	"slices"

	"github.com/xaionaro-go/asyncmediacodec/logger"
	"github.com/xaionaro-go/asyncmediacodec/mediacodec"
	"github.com/xaionaro-go/xsync"
)

type Platform struct {
	config config

	locker         xsync.Mutex
	codecs         []*Codec
	createFailures map[string]error
}

var _ mediacodec.Platform = (*Platform)(nil)

func NewPlatform(opts ...Option) *Platform {
	return &Platform{
		config:         Options(opts).config(),
		createFailures: map[string]error{},
	}
}

func (p *Platform) FindCodecNames(
	ctx context.Context,
	mimeType string,
	isEncoder bool,
) ([]string, error) {
	if isEncoder {
		return nil, nil
	}
	return slices.Clone(p.config.CodecNames), nil
}

// FailCreate makes CreateCodecByName fail for the given codec name.
func (p *Platform) FailCreate(name string, err error) {
	p.locker.Do(context.Background(), func() {
		p.createFailures[name] = err
	})
}

func (p *Platform) CreateCodecByName(
	ctx context.Context,
	name string,
) (_ret mediacodec.Codec, _err error) {
	logger.Debugf(ctx, "CreateCodecByName(%s)", name)
	defer func() { logger.Debugf(ctx, "/CreateCodecByName(%s): %v", name, _err) }()
	return xsync.DoR2(ctx, &p.locker, func() (mediacodec.Codec, error) {
		if err := p.createFailures[name]; err != nil {
			return nil, err
		}
		if !slices.Contains(p.config.CodecNames, name) {
			return nil, fmt.Errorf("codec '%s' not found: %w", name, mediacodec.StatusErrorUnsupported)
		}
		c := newCodec(ctx, name, p.config)
		p.codecs = append(p.codecs, c)
		return c, nil
	})
}

// Codecs returns every codec created by the platform so far.
func (p *Platform) Codecs() []*Codec {
	return xsync.DoR1(context.Background(), &p.locker, func() []*Codec {
		return slices.Clone(p.codecs)
	})
}

// LastCodec returns the most recently created codec, or nil.
func (p *Platform) LastCodec() *Codec {
	return xsync.DoR1(context.Background(), &p.locker, func() *Codec {
		if len(p.codecs) == 0 {
			return nil
		}
		return p.codecs[len(p.codecs)-1]
	})
}
