//go:build android && arm64

package ndk

import (
	"context"
	"fmt"
	"unsafe"

	"github.com/xaionaro-go/asyncmediacodec/logger"
	"github.com/xaionaro-go/asyncmediacodec/mediacodec"
	"github.com/xaionaro-go/xsync"
)

type Codec struct {
	name     string
	handle   uintptr
	userData uintptr

	locker    xsync.Mutex
	callbacks mediacodec.Callbacks
}

var _ mediacodec.Codec = (*Codec)(nil)

func (c *Codec) Name() string {
	return c.name
}

func (c *Codec) getCallbacks() mediacodec.Callbacks {
	return xsync.DoR1(xsync.WithNoLogging(context.Background(), true), &c.locker, func() mediacodec.Callbacks {
		return c.callbacks
	})
}

func (c *Codec) SetAsyncNotifyCallback(
	ctx context.Context,
	callbacks mediacodec.Callbacks,
) error {
	c.locker.Do(ctx, func() {
		c.callbacks = callbacks
	})
	if c.userData != 0 {
		return nil
	}
	initCallbacks()
	c.userData = register(c)
	cb := nativeCallbacks
	if err := mediacodec.Status(aMediaCodecSetAsyncNotifyCallback(c.handle, &cb, c.userData)).AsError(); err != nil {
		unregister(c.userData)
		c.userData = 0
		return fmt.Errorf("AMediaCodec_setAsyncNotifyCallback: %w", err)
	}
	return nil
}

func (c *Codec) Configure(
	ctx context.Context,
	format mediacodec.Format,
	window mediacodec.NativeWindow,
	flags mediacodec.ConfigureFlags,
) (_err error) {
	logger.Debugf(ctx, "Configure(%s, %X, %d)", format, window, flags)
	defer func() { logger.Debugf(ctx, "/Configure: %v", _err) }()
	native, err := newNativeFormat(format)
	if err != nil {
		return err
	}
	defer aMediaFormatDelete(native)
	logger.Tracef(ctx, "native format: %s", goString(aMediaFormatToString(native)))
	if err := mediacodec.Status(aMediaCodecConfigure(c.handle, native, uintptr(window), 0, uint32(flags))).AsError(); err != nil {
		return fmt.Errorf("AMediaCodec_configure: %w", err)
	}
	return nil
}

func (c *Codec) Start(ctx context.Context) error {
	if err := mediacodec.Status(aMediaCodecStart(c.handle)).AsError(); err != nil {
		return fmt.Errorf("AMediaCodec_start: %w", err)
	}
	return nil
}

func (c *Codec) Flush(ctx context.Context) error {
	if err := mediacodec.Status(aMediaCodecFlush(c.handle)).AsError(); err != nil {
		return fmt.Errorf("AMediaCodec_flush: %w", err)
	}
	return nil
}

func (c *Codec) Stop(ctx context.Context) error {
	if err := mediacodec.Status(aMediaCodecStop(c.handle)).AsError(); err != nil {
		return fmt.Errorf("AMediaCodec_stop: %w", err)
	}
	return nil
}

func (c *Codec) GetInputBuffer(
	ctx context.Context,
	index int32,
) ([]byte, error) {
	var size uintptr
	ptr := aMediaCodecGetInputBuffer(c.handle, uintptr(index), &size)
	if ptr == 0 {
		return nil, fmt.Errorf("AMediaCodec_getInputBuffer(%d) returned NULL", index)
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(ptr)), size), nil
}

func (c *Codec) GetOutputBuffer(
	ctx context.Context,
	index int32,
) ([]byte, error) {
	var size uintptr
	ptr := aMediaCodecGetOutputBuffer(c.handle, uintptr(index), &size)
	if ptr == 0 {
		return nil, fmt.Errorf("AMediaCodec_getOutputBuffer(%d) returned NULL", index)
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(ptr)), size), nil
}

func (c *Codec) QueueInputBuffer(
	ctx context.Context,
	index int32,
	offset, size int32,
	presentationTimeUs int64,
	flags mediacodec.BufferFlags,
) error {
	status := aMediaCodecQueueInputBuffer(c.handle, uintptr(index), int64(offset), uintptr(size), uint64(presentationTimeUs), uint32(flags))
	if err := mediacodec.Status(status).AsError(); err != nil {
		return fmt.Errorf("AMediaCodec_queueInputBuffer(%d): %w", index, err)
	}
	return nil
}

func (c *Codec) ReleaseOutputBuffer(
	ctx context.Context,
	index int32,
	render bool,
) error {
	if err := mediacodec.Status(aMediaCodecReleaseOutputBuffer(c.handle, uintptr(index), render)).AsError(); err != nil {
		return fmt.Errorf("AMediaCodec_releaseOutputBuffer(%d, %t): %w", index, render, err)
	}
	return nil
}

func (c *Codec) Delete(ctx context.Context) error {
	logger.Debugf(ctx, "Delete")
	if c.userData != 0 {
		unregister(c.userData)
		c.userData = 0
	}
	c.locker.Do(ctx, func() {
		c.callbacks = nil
	})
	if err := mediacodec.Status(aMediaCodecDelete(c.handle)).AsError(); err != nil {
		return fmt.Errorf("AMediaCodec_delete: %w", err)
	}
	c.handle = 0
	return nil
}
