package decoder

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/facebookincubator/go-belt"
	"github.com/xaionaro-go/asyncmediacodec/executor"
	"github.com/xaionaro-go/asyncmediacodec/image"
	"github.com/xaionaro-go/asyncmediacodec/logger"
	"github.com/xaionaro-go/asyncmediacodec/mediacodec"
	"github.com/xaionaro-go/asyncmediacodec/session"
	"github.com/xaionaro-go/asyncmediacodec/surface"
	"github.com/xaionaro-go/asyncmediacodec/types"
	"github.com/xaionaro-go/typing"
)

type VideoParams struct {
	MIMEType    string
	ImageSize   types.Size
	DisplaySize types.Size

	// Surface is the output target. If nil, one is requested from the
	// OptionSurfaceAllocator; if there is none either, frames are copied
	// out of the codec as raw images.
	Surface surface.Surface
}

// VideoDecoder is a Decoder that renders into a surface, skips the frames
// preceding a seek target and rejects frames older than the last delivered
// one.
type VideoDecoder struct {
	*Decoder
	surface     surface.Surface
	ownsSurface bool
	imageSize   types.Size
	displaySize types.Size

	// accessed only on the executor:
	seekTarget       typing.Optional[time.Duration]
	latestOutputTime typing.Optional[time.Duration]
	colorInfo        ColorInfo
	stride           int32
	sliceHeight      int32
}

var _ mediaHandler = (*VideoDecoder)(nil)

func NewVideoDecoder(
	ctx context.Context,
	platform mediacodec.Platform,
	params VideoParams,
	opts ...Option,
) (_ret *VideoDecoder, _err error) {
	cfg := Options(opts).config()
	ctx = belt.WithField(ctx, "tracking_id", cfg.TrackingID.String())
	mimeType := mediacodec.MIMETypeFromContainer(params.MIMEType)
	ctx = belt.WithField(ctx, "mime_type", mimeType)
	logger.Debugf(ctx, "NewVideoDecoder(ctx, %#+v)", params)
	defer func() { logger.Debugf(ctx, "/NewVideoDecoder: %v", _err) }()

	if !mediacodec.IsVideoMIMEType(mimeType) {
		return nil, fmt.Errorf("'%s' is not a video MIME type", params.MIMEType)
	}
	if params.ImageSize.IsZero() {
		return nil, fmt.Errorf("the image size is not set")
	}

	v := &VideoDecoder{
		surface:     params.Surface,
		imageSize:   params.ImageSize,
		displaySize: params.DisplaySize,
	}
	if v.displaySize.IsZero() {
		v.displaySize = v.imageSize
	}
	if v.surface == nil && cfg.SurfaceAllocator != nil {
		s, err := cfg.SurfaceAllocator.AllocateSurface(ctx, params.ImageSize)
		if err != nil {
			return nil, fmt.Errorf("unable to allocate a surface of size %s: %w", params.ImageSize, err)
		}
		v.surface = s
		v.ownsSurface = true
	}
	v.Decoder = newDecoder(ctx, cfg, v, mimeType)

	format := mediacodec.NewFormat().
		SetString(mediacodec.KeyMIME, mimeType).
		SetInt32(mediacodec.KeyWidth, params.ImageSize.Width).
		SetInt32(mediacodec.KeyHeight, params.ImageSize.Height)
	if cfg.LowLatency {
		format.SetInt32(mediacodec.KeyLowLatency, 1)
	}
	if cfg.MaxInputSize > 0 {
		format.SetInt32(mediacodec.KeyMaxInputSize, cfg.MaxInputSize)
	}
	var window mediacodec.NativeWindow
	if v.surface != nil {
		window = v.surface.NativeWindow()
	}

	err := v.open(ctx, platform, session.Params{
		Format: format,
		Window: window,
	})
	if err != nil {
		if err := v.Shutdown(ctx); err != nil {
			logger.Errorf(ctx, "unable to shutdown the decoder: %v", err)
		}
		return nil, fmt.Errorf("unable to open a decoder for '%s': %w", mimeType, err)
	}
	return v, nil
}

func (v *VideoDecoder) String() string {
	return fmt.Sprintf("VideoDecoder(%s, %s)", v.mimeType, v.config.TrackingID)
}

// CodecName returns the short name of the compression format.
func (v *VideoDecoder) CodecName() string {
	switch v.mimeType {
	case mediacodec.MIMETypeAVC:
		return "h264"
	case mediacodec.MIMETypeHEVC:
		return "hevc"
	case mediacodec.MIMETypeVP8:
		return "vp8"
	case mediacodec.MIMETypeVP9:
		return "vp9"
	case mediacodec.MIMETypeAV1:
		return "av1"
	default:
		return "unknown"
	}
}

// Surface returns the output target, or nil in raw output mode.
func (v *VideoDecoder) Surface() surface.Surface {
	return v.surface
}

// NeedsNewDecoder reports whether the output surface was released, so that
// this decoder cannot produce frames anymore.
func (v *VideoDecoder) NeedsNewDecoder() bool {
	return v.surface != nil && v.surface.IsReleased()
}

// SetSeekThreshold makes the decoder discard the frames ending at or before
// threshold, until the first frame after it is delivered. An unset threshold
// clears it. It does not wait for the change to be applied.
func (v *VideoDecoder) SetSeekThreshold(
	ctx context.Context,
	threshold typing.Optional[time.Duration],
) {
	ctx = v.withTrackingID(ctx)
	logger.Debugf(ctx, "SetSeekThreshold(%s)", optString(threshold))
	err := executor.RunOrDispatch(ctx, v.executor, "set-seek-threshold", func(ctx context.Context) {
		v.seekTarget = threshold
	})
	if err != nil {
		logger.Debugf(ctx, "unable to set the seek threshold: %v", err)
	}
}

// Shutdown shuts the decoder down and releases the surface if it was
// allocated by the decoder.
func (v *VideoDecoder) Shutdown(ctx context.Context) error {
	err := v.Decoder.Shutdown(ctx)
	if v.ownsSurface && !v.surface.IsReleased() {
		if err := v.surface.Release(ctx); err != nil {
			logger.Errorf(ctx, "unable to release the surface: %v", err)
		}
	}
	return err
}

func (v *VideoDecoder) resetMediaState(ctx context.Context) {
	v.seekTarget = typing.Optional[time.Duration]{}
	v.latestOutputTime = typing.Optional[time.Duration]{}
}

func (v *VideoDecoder) onFormatChanged(
	ctx context.Context,
	format mediacodec.Format,
) error {
	colorInfo, err := parseColorInfo(format, v.Quirks)
	if err != nil {
		return err
	}
	logger.Debugf(ctx, "output %s", colorInfo)
	v.colorInfo = colorInfo
	if stride, ok := format.GetInt32(mediacodec.KeyStride); ok {
		v.stride = stride
	}
	if sliceHeight, ok := format.GetInt32(mediacodec.KeySliceHeight); ok {
		v.sliceHeight = sliceHeight
	}
	return nil
}

func (v *VideoDecoder) newOutput(
	ctx context.Context,
	sess *session.Session,
	buf session.Buffer,
	info mediacodec.BufferInfo,
	in inputInfo,
) (*Output, error) {
	imageSize := in.ImageSize
	if imageSize.IsZero() {
		imageSize = v.imageSize
	}
	displaySize := in.DisplaySize
	if displaySize.IsZero() {
		displaySize = v.displaySize
	}
	out := &Output{
		PresentationTime: presentationTime(info.PresentationTimeUs),
		Duration:         in.Duration,
		IsKeyFrame:       info.Flags.HasAll(mediacodec.BufferFlagKeyFrame) || in.IsKeyFrame,
		DisplaySize:      displaySize,
		ColorInfo:        v.colorInfo,
	}

	if v.surface != nil {
		out.Image = image.NewSurface(ctx, imageSize, func(ctx context.Context, render bool) bool {
			return sess.ReleaseOutputBuffer(ctx, buf, render)
		})
		return out, nil
	}

	data, err := sess.GetOutputBuffer(ctx, buf)
	if err != nil {
		return nil, err
	}
	start, end := int(info.Offset), int(info.Offset)+int(info.Size)
	if start < 0 || end > len(data) || start > end {
		return nil, fmt.Errorf("the output range [%d:%d] is out of the buffer of size %d", start, end, len(data))
	}
	out.Image = &image.Raw{
		Data:        bytes.Clone(data[start:end]),
		ImageSize:   imageSize,
		ColorFormat: v.colorInfo.Format,
		Stride:      v.stride,
		SliceHeight: v.sliceHeight,
	}
	sess.ReleaseOutputBuffer(ctx, buf, false)
	return out, nil
}

// isUseful rejects the frames that precede the last delivered one and the
// frames that end before the seek target. The first useful frame clears the
// seek target.
func (v *VideoDecoder) isUseful(
	ctx context.Context,
	out *Output,
) bool {
	if v.latestOutputTime.IsSet() && out.PresentationTime < v.latestOutputTime.Get() {
		logger.Tracef(ctx, "%s precedes the last delivered frame ending at %v", out, v.latestOutputTime.Get())
		return false
	}
	if v.seekTarget.IsSet() && out.EndTime() <= v.seekTarget.Get() {
		logger.Tracef(ctx, "%s ends before the seek target %v", out, v.seekTarget.Get())
		return false
	}
	v.seekTarget = typing.Optional[time.Duration]{}
	v.latestOutputTime = typing.Opt(out.EndTime())
	return true
}
