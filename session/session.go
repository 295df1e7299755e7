// Package session wraps one platform codec instance. Its asynchronous
// callbacks are relayed onto a serial executor and every buffer handle is
// tagged with an epoch, so that handles issued before a flush can never be
// used after it.
package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/asticode/go-astikit"
	"github.com/davecgh/go-spew/spew"
	"github.com/facebookincubator/go-belt"
	"github.com/xaionaro-go/asyncmediacodec/executor"
	"github.com/xaionaro-go/asyncmediacodec/internal"
	"github.com/xaionaro-go/asyncmediacodec/logger"
	"github.com/xaionaro-go/asyncmediacodec/mediacodec"
	"github.com/xaionaro-go/asyncmediacodec/types"
	"github.com/xaionaro-go/xcontext"
	"github.com/xaionaro-go/xsync"
	"go.uber.org/atomic"
)

type Params struct {
	Format    mediacodec.Format
	Window    mediacodec.NativeWindow
	IsEncoder bool

	// CodecNames are the candidate codecs in the order of preference. If
	// empty, the platform is asked for the codecs fitting the MIME type.
	CodecNames []string
}

type Session struct {
	executor *executor.Serial
	owner    Callbacks
	codec    mediacodec.Codec
	closer   *astikit.Closer

	epoch   atomic.Uint64
	running atomic.Bool
	closed  atomic.Bool

	// platformLocker serializes the calls to the platform codec, since
	// ReleaseOutputBuffer may come from any goroutine.
	platformLocker xsync.Mutex
}

var _ types.Closer = (*Session)(nil)

// New creates, hooks and configures the first candidate codec that accepts
// the parameters. The resulting session is not started.
func New(
	ctx context.Context,
	platform mediacodec.Platform,
	exec *executor.Serial,
	owner Callbacks,
	params Params,
) (_ret *Session, _err error) {
	mimeType := params.Format.MIMEType()
	ctx = belt.WithField(ctx, "mime_type", mimeType)
	logger.Tracef(ctx, "New(ctx, %s, %X, %t, %q)", params.Format, params.Window, params.IsEncoder, params.CodecNames)
	defer func() { logger.Tracef(ctx, "/New: %p %v", _ret, _err) }()

	names := params.CodecNames
	if len(names) == 0 {
		var err error
		names, err = platform.FindCodecNames(ctx, mimeType, params.IsEncoder)
		if err != nil {
			return nil, fmt.Errorf("unable to find codecs for '%s': %w", mimeType, err)
		}
	}
	if len(names) == 0 {
		return nil, ErrNoCodec{MIMEType: mimeType}
	}

	var errs []error
	for _, name := range names {
		s, err := newSession(ctx, platform, exec, owner, name, params)
		if err != nil {
			logger.Debugf(ctx, "unable to use codec '%s': %v", name, err)
			errs = append(errs, fmt.Errorf("codec '%s': %w", name, err))
			continue
		}
		return s, nil
	}
	return nil, ErrNoCodec{MIMEType: mimeType, Err: errors.Join(errs...)}
}

func newSession(
	ctx context.Context,
	platform mediacodec.Platform,
	exec *executor.Serial,
	owner Callbacks,
	codecName string,
	params Params,
) (_ret *Session, _err error) {
	ctx = belt.WithField(ctx, "codec_name", codecName)
	logger.Tracef(ctx, "newSession")
	defer func() { logger.Tracef(ctx, "/newSession: %v", _err) }()

	codec, err := platform.CreateCodecByName(ctx, codecName)
	if err != nil {
		return nil, fmt.Errorf("unable to create the codec: %w", err)
	}

	s := &Session{
		executor: exec,
		owner:    owner,
		codec:    codec,
		closer:   astikit.NewCloser(),
	}
	s.closer.Add(func() {
		if err := codec.Delete(ctx); err != nil {
			logger.Errorf(ctx, "unable to delete codec '%s': %v", codecName, err)
		}
	})
	defer func() {
		if _err != nil {
			logger.Debugf(ctx, "got an error, closing the session: %v", _err)
			_ = s.Close(ctx)
		}
	}()

	err = codec.SetAsyncNotifyCallback(ctx, &relay{
		ctx:     xcontext.DetachDone(ctx),
		session: s,
	})
	if err != nil {
		return s, fmt.Errorf("unable to set the callbacks: %w", err)
	}

	var flags mediacodec.ConfigureFlags
	if params.IsEncoder {
		flags |= mediacodec.ConfigureFlagEncode
	}
	logger.Tracef(ctx, "configuring with %s", spew.Sdump(params.Format))
	if err := codec.Configure(ctx, params.Format, params.Window, flags); err != nil {
		return s, fmt.Errorf("unable to configure the codec: %w", err)
	}
	return s, nil
}

func (s *Session) String() string {
	return fmt.Sprintf("Session(%s)", s.codec.Name())
}

func (s *Session) CodecName() string {
	return s.codec.Name()
}

func (s *Session) IsHardwareAccelerated() bool {
	return !mediacodec.IsSoftwareCodecName(s.codec.Name())
}

func (s *Session) Epoch() uint64 {
	return s.epoch.Load()
}

func (s *Session) IsRunning() bool {
	return s.running.Load()
}

func (s *Session) assertOnExecutor(ctx context.Context) {
	internal.Assert(ctx, s.executor.IsCurrent(), "must be called on", s.executor.String())
}

func (s *Session) platformCall(
	ctx context.Context,
	fn func() error,
) error {
	return xsync.DoR1(xsync.WithNoLogging(ctx, true), &s.platformLocker, func() error {
		if s.closed.Load() {
			return ErrClosed{}
		}
		return fn()
	})
}

func (s *Session) checkEpoch(buf Buffer) error {
	if cur := s.epoch.Load(); buf.Epoch != cur {
		return ErrStaleBuffer{Buffer: buf, CurrentEpoch: cur}
	}
	return nil
}

func (s *Session) Start(ctx context.Context) (_err error) {
	logger.Debugf(ctx, "Start")
	defer func() { logger.Debugf(ctx, "/Start: %v", _err) }()
	s.assertOnExecutor(ctx)
	return s.platformCall(ctx, func() error {
		if err := s.codec.Start(ctx); err != nil {
			return fmt.Errorf("unable to start the codec: %w", err)
		}
		s.running.Store(true)
		return nil
	})
}

// Flush discards everything in flight. The epoch is incremented only after
// the platform confirmed the flush, so every Buffer issued earlier becomes
// stale. The session is not running afterwards until Start is called.
func (s *Session) Flush(ctx context.Context) (_err error) {
	logger.Debugf(ctx, "Flush")
	defer func() { logger.Debugf(ctx, "/Flush: %v", _err) }()
	s.assertOnExecutor(ctx)
	return s.platformCall(ctx, func() error {
		s.running.Store(false)
		if err := s.codec.Flush(ctx); err != nil {
			return fmt.Errorf("unable to flush the codec: %w", err)
		}
		epoch := s.epoch.Inc()
		logger.Debugf(ctx, "epoch is now %d", epoch)
		return nil
	})
}

// Stop deactivates the codec. It does not change the epoch, but every
// ReleaseOutputBuffer after it fails since the session is not running.
func (s *Session) Stop(ctx context.Context) (_err error) {
	logger.Debugf(ctx, "Stop")
	defer func() { logger.Debugf(ctx, "/Stop: %v", _err) }()
	s.assertOnExecutor(ctx)
	return s.platformCall(ctx, func() error {
		s.running.Store(false)
		if err := s.codec.Stop(ctx); err != nil {
			return fmt.Errorf("unable to stop the codec: %w", err)
		}
		return nil
	})
}

func (s *Session) GetInputBuffer(
	ctx context.Context,
	buf Buffer,
) (_ret []byte, _err error) {
	logger.Tracef(ctx, "GetInputBuffer(%s)", buf)
	defer func() { logger.Tracef(ctx, "/GetInputBuffer(%s): %d %v", buf, len(_ret), _err) }()
	s.assertOnExecutor(ctx)
	err := s.platformCall(ctx, func() error {
		if err := s.checkEpoch(buf); err != nil {
			return err
		}
		var err error
		_ret, err = s.codec.GetInputBuffer(ctx, buf.Index)
		if err != nil {
			return fmt.Errorf("unable to get input buffer %s: %w", buf, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return _ret, nil
}

// GetOutputBuffer returns the content of an output buffer when the codec is
// configured without an output surface.
func (s *Session) GetOutputBuffer(
	ctx context.Context,
	buf Buffer,
) (_ret []byte, _err error) {
	logger.Tracef(ctx, "GetOutputBuffer(%s)", buf)
	defer func() { logger.Tracef(ctx, "/GetOutputBuffer(%s): %d %v", buf, len(_ret), _err) }()
	s.assertOnExecutor(ctx)
	err := s.platformCall(ctx, func() error {
		if err := s.checkEpoch(buf); err != nil {
			return err
		}
		var err error
		_ret, err = s.codec.GetOutputBuffer(ctx, buf.Index)
		if err != nil {
			return fmt.Errorf("unable to get output buffer %s: %w", buf, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return _ret, nil
}

func (s *Session) QueueInputBuffer(
	ctx context.Context,
	buf Buffer,
	offset, size int32,
	presentationTimeUs int64,
	flags mediacodec.BufferFlags,
) (_err error) {
	logger.Tracef(ctx, "QueueInputBuffer(%s, %d, %d, %d, %s)", buf, offset, size, presentationTimeUs, flags)
	defer func() {
		logger.Tracef(ctx, "/QueueInputBuffer(%s, %d, %d, %d, %s): %v", buf, offset, size, presentationTimeUs, flags, _err)
	}()
	s.assertOnExecutor(ctx)
	err := s.platformCall(ctx, func() error {
		if err := s.checkEpoch(buf); err != nil {
			return err
		}
		return s.codec.QueueInputBuffer(ctx, buf.Index, offset, size, presentationTimeUs, flags)
	})
	if err != nil {
		logger.Errorf(ctx, "unable to queue input buffer %s: %v", buf, err)
		return fmt.Errorf("unable to queue input buffer %s: %w", buf, err)
	}
	return nil
}

// ReleaseOutputBuffer returns an output buffer to the codec, rendering it to
// the output surface if render is true. It may be called from any goroutine.
// It returns false if the session is not running or the buffer is stale;
// a flush racing with a release is expected and harmless.
func (s *Session) ReleaseOutputBuffer(
	ctx context.Context,
	buf Buffer,
	render bool,
) (_ret bool) {
	logger.Tracef(ctx, "ReleaseOutputBuffer(%s, %t)", buf, render)
	defer func() { logger.Tracef(ctx, "/ReleaseOutputBuffer(%s, %t): %t", buf, render, _ret) }()
	err := s.platformCall(ctx, func() error {
		if !s.running.Load() {
			return ErrNotRunning{}
		}
		if err := s.checkEpoch(buf); err != nil {
			return err
		}
		return s.codec.ReleaseOutputBuffer(ctx, buf.Index, render)
	})
	if err != nil {
		logger.Debugf(ctx, "unable to release output buffer %s: %v", buf, err)
		return false
	}
	return true
}

// Close deletes the platform codec. No callbacks are delivered to the owner
// after Close returns (when called on the executor).
func (s *Session) Close(ctx context.Context) (_err error) {
	logger.Debugf(ctx, "Close")
	defer func() { logger.Debugf(ctx, "/Close: %v", _err) }()
	return xsync.DoR1(ctx, &s.platformLocker, func() error {
		if s.closed.Swap(true) {
			return nil
		}
		s.running.Store(false)
		return s.closer.Close()
	})
}
