//go:build android && arm64

package ndk

import (
	"fmt"
	"os"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"
)

const libName = "libmediandk.so"

var (
	loadOnce  sync.Once
	loadErr   error
	libHandle uintptr
)

var (
	aMediaCodecCreateCodecByName      func(name string) uintptr
	aMediaCodecDelete                 func(codec uintptr) int32
	aMediaCodecConfigure              func(codec, format, window, crypto uintptr, flags uint32) int32
	aMediaCodecStart                  func(codec uintptr) int32
	aMediaCodecStop                   func(codec uintptr) int32
	aMediaCodecFlush                  func(codec uintptr) int32
	aMediaCodecGetInputBuffer         func(codec uintptr, idx uintptr, outSize *uintptr) uintptr
	aMediaCodecGetOutputBuffer        func(codec uintptr, idx uintptr, outSize *uintptr) uintptr
	aMediaCodecQueueInputBuffer       func(codec uintptr, idx uintptr, offset int64, size uintptr, timeUs uint64, flags uint32) int32
	aMediaCodecReleaseOutputBuffer    func(codec uintptr, idx uintptr, render bool) int32
	aMediaCodecSetAsyncNotifyCallback func(codec uintptr, callback *asyncNotifyCallback, userdata uintptr) int32

	aMediaFormatNew       func() uintptr
	aMediaFormatDelete    func(format uintptr) int32
	aMediaFormatToString  func(format uintptr) uintptr
	aMediaFormatSetInt32  func(format uintptr, name string, value int32)
	aMediaFormatSetInt64  func(format uintptr, name string, value int64)
	aMediaFormatSetFloat  func(format uintptr, name string, value float32)
	aMediaFormatSetString func(format uintptr, name string, value string)
	aMediaFormatGetInt32  func(format uintptr, name string, out *int32) bool
	aMediaFormatGetInt64  func(format uintptr, name string, out *int64) bool
	aMediaFormatGetString func(format uintptr, name string, out *uintptr) bool
)

func load() error {
	loadOnce.Do(func() {
		loadErr = loadLib()
	})
	return loadErr
}

func loadLib() error {
	path := libName
	if envPath := os.Getenv("MEDIANDK_LIB_PATH"); envPath != "" {
		path = envPath
	}
	handle, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
	if err != nil {
		return fmt.Errorf("unable to load '%s': %w", path, err)
	}
	libHandle = handle

	purego.RegisterLibFunc(&aMediaCodecCreateCodecByName, libHandle, "AMediaCodec_createCodecByName")
	purego.RegisterLibFunc(&aMediaCodecDelete, libHandle, "AMediaCodec_delete")
	purego.RegisterLibFunc(&aMediaCodecConfigure, libHandle, "AMediaCodec_configure")
	purego.RegisterLibFunc(&aMediaCodecStart, libHandle, "AMediaCodec_start")
	purego.RegisterLibFunc(&aMediaCodecStop, libHandle, "AMediaCodec_stop")
	purego.RegisterLibFunc(&aMediaCodecFlush, libHandle, "AMediaCodec_flush")
	purego.RegisterLibFunc(&aMediaCodecGetInputBuffer, libHandle, "AMediaCodec_getInputBuffer")
	purego.RegisterLibFunc(&aMediaCodecGetOutputBuffer, libHandle, "AMediaCodec_getOutputBuffer")
	purego.RegisterLibFunc(&aMediaCodecQueueInputBuffer, libHandle, "AMediaCodec_queueInputBuffer")
	purego.RegisterLibFunc(&aMediaCodecReleaseOutputBuffer, libHandle, "AMediaCodec_releaseOutputBuffer")
	purego.RegisterLibFunc(&aMediaCodecSetAsyncNotifyCallback, libHandle, "AMediaCodec_setAsyncNotifyCallback")

	purego.RegisterLibFunc(&aMediaFormatNew, libHandle, "AMediaFormat_new")
	purego.RegisterLibFunc(&aMediaFormatDelete, libHandle, "AMediaFormat_delete")
	purego.RegisterLibFunc(&aMediaFormatToString, libHandle, "AMediaFormat_toString")
	purego.RegisterLibFunc(&aMediaFormatSetInt32, libHandle, "AMediaFormat_setInt32")
	purego.RegisterLibFunc(&aMediaFormatSetInt64, libHandle, "AMediaFormat_setInt64")
	purego.RegisterLibFunc(&aMediaFormatSetFloat, libHandle, "AMediaFormat_setFloat")
	purego.RegisterLibFunc(&aMediaFormatSetString, libHandle, "AMediaFormat_setString")
	purego.RegisterLibFunc(&aMediaFormatGetInt32, libHandle, "AMediaFormat_getInt32")
	purego.RegisterLibFunc(&aMediaFormatGetInt64, libHandle, "AMediaFormat_getInt64")
	purego.RegisterLibFunc(&aMediaFormatGetString, libHandle, "AMediaFormat_getString")
	return nil
}

// goString converts a NUL-terminated C string into a Go string.
func goString(ptr uintptr) string {
	if ptr == 0 {
		return ""
	}
	p := unsafe.Pointer(ptr)
	var length int
	for *(*byte)(unsafe.Add(p, length)) != 0 {
		length++
	}
	return string(unsafe.Slice((*byte)(p), length))
}
