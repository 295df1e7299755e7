// Package source reads compressed video samples out of containers, in
// decode order, ready to be fed to a decoder.
package source

import (
	"context"
	"fmt"
	"time"

	"github.com/xaionaro-go/asyncmediacodec/types"
)

// Track describes the video track a Source reads.
type Track struct {
	MIMEType  string
	ImageSize types.Size
}

func (t Track) String() string {
	return fmt.Sprintf("Track(%s, %s)", t.MIMEType, t.ImageSize)
}

// Sample is one access unit. H.264 and HEVC payloads are in Annex-B form,
// with the parameter sets prepended on key frames.
type Sample struct {
	Payload          []byte
	PresentationTime time.Duration
	DecodeTime       time.Duration
	Duration         time.Duration
	IsKeyFrame       bool
}

func (s *Sample) String() string {
	return fmt.Sprintf("Sample(pts:%v dts:%v dur:%v key:%t size:%d)", s.PresentationTime, s.DecodeTime, s.Duration, s.IsKeyFrame, len(s.Payload))
}

func (s *Sample) EndTime() time.Duration {
	return s.PresentationTime + s.Duration
}

// Source returns io.EOF from NextSample once all the samples are read.
type Source interface {
	Track(ctx context.Context) (Track, error)
	NextSample(ctx context.Context) (*Sample, error)
}
