//go:build android && arm64

package ndk

import (
	"context"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"
	"github.com/xaionaro-go/asyncmediacodec/mediacodec"
	"github.com/xaionaro-go/xsync"
)

// asyncNotifyCallback mirrors AMediaCodecOnAsyncNotifyCallback. On arm64 a
// composite argument larger than 16 bytes is passed by reference, so it is
// handed to AMediaCodec_setAsyncNotifyCallback as a pointer.
type asyncNotifyCallback struct {
	OnAsyncInputAvailable  uintptr
	OnAsyncOutputAvailable uintptr
	OnAsyncFormatChanged   uintptr
	OnAsyncError           uintptr
}

// bufferInfo mirrors AMediaCodecBufferInfo.
type bufferInfo struct {
	Offset             int32
	Size               int32
	PresentationTimeUs int64
	Flags              uint32
}

var (
	callbacksOnce   sync.Once
	nativeCallbacks asyncNotifyCallback

	registryLocker  xsync.Mutex
	registry        = map[uintptr]*Codec{}
	registryCounter uintptr
)

func initCallbacks() {
	callbacksOnce.Do(func() {
		nativeCallbacks = asyncNotifyCallback{
			OnAsyncInputAvailable:  purego.NewCallback(onAsyncInputAvailable),
			OnAsyncOutputAvailable: purego.NewCallback(onAsyncOutputAvailable),
			OnAsyncFormatChanged:   purego.NewCallback(onAsyncFormatChanged),
			OnAsyncError:           purego.NewCallback(onAsyncError),
		}
	})
}

func register(c *Codec) uintptr {
	return xsync.DoR1(context.Background(), &registryLocker, func() uintptr {
		registryCounter++
		registry[registryCounter] = c
		return registryCounter
	})
}

func unregister(userData uintptr) {
	registryLocker.Do(context.Background(), func() {
		delete(registry, userData)
	})
}

func lookup(userData uintptr) mediacodec.Callbacks {
	c := xsync.DoR1(xsync.WithNoLogging(context.Background(), true), &registryLocker, func() *Codec {
		return registry[userData]
	})
	if c == nil {
		return nil
	}
	return c.getCallbacks()
}

func onAsyncInputAvailable(codec uintptr, userData uintptr, index int32) {
	if cb := lookup(userData); cb != nil {
		cb.OnAsyncInputAvailable(index)
	}
}

func onAsyncOutputAvailable(codec uintptr, userData uintptr, index int32, info uintptr) {
	cb := lookup(userData)
	if cb == nil || info == 0 {
		return
	}
	bi := (*bufferInfo)(unsafe.Pointer(info))
	cb.OnAsyncOutputAvailable(index, mediacodec.BufferInfo{
		Offset:             bi.Offset,
		Size:               bi.Size,
		PresentationTimeUs: bi.PresentationTimeUs,
		Flags:              mediacodec.BufferFlags(bi.Flags),
	})
}

func onAsyncFormatChanged(codec uintptr, userData uintptr, format uintptr) {
	if cb := lookup(userData); cb != nil {
		cb.OnAsyncFormatChanged(formatFromNative(format))
	}
}

func onAsyncError(codec uintptr, userData uintptr, status int32, actionCode int32, detail uintptr) {
	if cb := lookup(userData); cb != nil {
		cb.OnAsyncError(mediacodec.Status(status), actionCode, goString(detail))
	}
}
