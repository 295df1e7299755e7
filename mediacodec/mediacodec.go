// Package mediacodec describes the platform hardware-codec API the rest of the
// module drives: a callback-driven codec object (modelled after Android's
// AMediaCodec in asynchronous mode) and a platform that creates such objects
// by name.
package mediacodec

import (
	"context"
)

// NativeWindow is an opaque platform output-target handle (an ANativeWindow
// pointer on Android). Zero means "no output target": output is delivered in
// codec-owned byte buffers.
type NativeWindow uintptr

type ConfigureFlags uint32

const (
	ConfigureFlagEncode = ConfigureFlags(1)
)

// Callbacks are invoked by the platform on a goroutine it owns. For one codec
// instance the calls are never concurrent and are delivered in order.
type Callbacks interface {
	OnAsyncInputAvailable(index int32)
	OnAsyncOutputAvailable(index int32, info BufferInfo)
	OnAsyncFormatChanged(format Format)
	OnAsyncError(err Status, actionCode int32, detail string)
}

// Codec is a single platform codec instance.
//
// Every method except ReleaseOutputBuffer is called from one goroutine at a
// time; ReleaseOutputBuffer may be called concurrently with the others.
type Codec interface {
	Name() string
	SetAsyncNotifyCallback(ctx context.Context, callbacks Callbacks) error
	Configure(ctx context.Context, format Format, window NativeWindow, flags ConfigureFlags) error
	Start(ctx context.Context) error
	Flush(ctx context.Context) error
	Stop(ctx context.Context) error
	GetInputBuffer(ctx context.Context, index int32) ([]byte, error)
	GetOutputBuffer(ctx context.Context, index int32) ([]byte, error)
	QueueInputBuffer(ctx context.Context, index int32, offset, size int32, presentationTimeUs int64, flags BufferFlags) error
	ReleaseOutputBuffer(ctx context.Context, index int32, render bool) error
	Delete(ctx context.Context) error
}

type Platform interface {
	// FindCodecNames returns the names of the codecs able to handle the
	// given MIME type, in the order of preference.
	FindCodecNames(ctx context.Context, mimeType string, isEncoder bool) ([]string, error)
	CreateCodecByName(ctx context.Context, name string) (Codec, error)
}
