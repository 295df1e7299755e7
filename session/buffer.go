package session

import (
	"fmt"
)

// Buffer is a handle to a codec-owned buffer, valid only while Epoch equals
// the epoch of the session it came from.
type Buffer struct {
	Index int32
	Epoch uint64
}

func (b Buffer) String() string {
	return fmt.Sprintf("buf#%d@%d", b.Index, b.Epoch)
}
