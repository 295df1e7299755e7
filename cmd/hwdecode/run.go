package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/xaionaro-go/asyncmediacodec/decoder"
	"github.com/xaionaro-go/asyncmediacodec/image"
	"github.com/xaionaro-go/asyncmediacodec/logger"
	"github.com/xaionaro-go/asyncmediacodec/mediacodec"
	"github.com/xaionaro-go/asyncmediacodec/source"
	"github.com/xaionaro-go/asyncmediacodec/types"
	"github.com/xaionaro-go/typing"
)

type runConfig struct {
	// FlushAt is the index of the sample before which the decoder is flushed;
	// negative means never.
	FlushAt int
	SeekTo  typing.Optional[time.Duration]
	Render  bool
}

type result struct {
	Codec         string
	PlatformCodec string
	IsHardware    bool
	Samples       uint64
	Frames        uint64
	RawBytes      uint64
	Stats         *types.DecoderStatistics
}

func decodeAll(
	ctx context.Context,
	platform mediacodec.Platform,
	src source.Source,
	cfg runConfig,
	opts ...decoder.Option,
) (_ret *result, _err error) {
	logger.Debugf(ctx, "decodeAll(%#+v)", cfg)
	defer func() { logger.Debugf(ctx, "/decodeAll: %v", _err) }()

	track, err := src.Track(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to get the track info: %w", err)
	}
	logger.Debugf(ctx, "%s", track)

	dec, err := decoder.NewVideoDecoder(ctx, platform, decoder.VideoParams{
		MIMEType:  track.MIMEType,
		ImageSize: track.ImageSize,
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to create a decoder: %w", err)
	}
	defer func() {
		if err := dec.Shutdown(ctx); err != nil {
			logger.Errorf(ctx, "unable to shutdown the decoder: %v", err)
		}
	}()

	r := &result{
		Codec:         dec.CodecName(),
		PlatformCodec: dec.PlatformCodecName(),
		IsHardware:    dec.IsHardwareAccelerated(),
	}
	consume := func(outputs []*decoder.Output) {
		for _, out := range outputs {
			r.Frames++
			logger.Tracef(ctx, "%s", out)
			image.Match(out.Image,
				func(img *image.Surface) struct{} {
					if cfg.Render {
						img.Render(ctx)
					} else {
						img.Release(ctx)
					}
					return struct{}{}
				},
				func(img *image.Raw) struct{} {
					r.RawBytes += uint64(len(img.Data))
					return struct{}{}
				},
			)
		}
	}

	for idx := 0; ; idx++ {
		sample, err := src.NextSample(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("unable to read sample #%d: %w", idx, err)
		}
		r.Samples++

		if idx == cfg.FlushAt {
			logger.Debugf(ctx, "flushing before sample #%d", idx)
			if err := dec.Flush(ctx); err != nil {
				return nil, fmt.Errorf("unable to flush: %w", err)
			}
			dec.SetSeekThreshold(ctx, cfg.SeekTo)
		}

		outputs, err := dec.Decode(ctx, decoder.Request{
			Payload:          sample.Payload,
			PresentationTime: sample.PresentationTime,
			Duration:         sample.Duration,
			IsKeyFrame:       sample.IsKeyFrame,
		}).Wait(ctx)
		if err != nil {
			return nil, fmt.Errorf("unable to decode %s: %w", sample, err)
		}
		consume(outputs)
	}

	for {
		outputs, err := dec.Drain(ctx).Wait(ctx)
		if err != nil {
			return nil, fmt.Errorf("unable to drain: %w", err)
		}
		consume(outputs)
		if len(outputs) == 0 && dec.State() == decoder.StateDrained {
			break
		}
	}

	r.Stats = dec.GetStats(ctx)
	return r, nil
}
