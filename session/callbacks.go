package session

import (
	"context"

	"github.com/xaionaro-go/asyncmediacodec/mediacodec"
)

// Callbacks receive the codec events relayed by a Session. They are always
// called on the session's executor and only for the current epoch.
type Callbacks interface {
	OnInputAvailable(ctx context.Context, buf Buffer)
	OnOutputAvailable(ctx context.Context, buf Buffer, info mediacodec.BufferInfo)
	OnFormatChanged(ctx context.Context, format mediacodec.Format)
	OnError(ctx context.Context, err mediacodec.Status, actionCode int32, detail string)
}
