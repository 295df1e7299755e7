package decoder

import (
	"fmt"
	"time"

	"github.com/xaionaro-go/asyncmediacodec/types"
)

// Request is one compressed sample to decode. A request with IsEndOfStream
// set is an end-of-stream marker and carries no payload.
type Request struct {
	Payload          []byte
	PresentationTime time.Duration
	Duration         time.Duration
	IsKeyFrame       bool
	IsEndOfStream    bool

	// ImageSize and DisplaySize override the track-level sizes for this
	// sample (e.g. after a resolution change); zero means "use the track's".
	ImageSize   types.Size
	DisplaySize types.Size
}

// EndOfStream returns an end-of-stream marker request.
func EndOfStream() Request {
	return Request{IsEndOfStream: true}
}

func (r Request) String() string {
	if r.IsEndOfStream {
		return "Request(EOS)"
	}
	return fmt.Sprintf("Request(pts:%v dur:%v key:%t size:%d)", r.PresentationTime, r.Duration, r.IsKeyFrame, len(r.Payload))
}

func (r Request) presentationTimeUs() int64 {
	return r.PresentationTime.Microseconds()
}
