// Package ndk implements mediacodec.Platform on top of Android's
// libmediandk.so, loaded at runtime with purego (no cgo). It is only built
// for android/arm64.
package ndk
