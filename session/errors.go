package session

import (
	"fmt"
)

// ErrStaleBuffer is returned for operations on a Buffer from a previous
// epoch of the session.
type ErrStaleBuffer struct {
	Buffer       Buffer
	CurrentEpoch uint64
}

func (e ErrStaleBuffer) Error() string {
	return fmt.Sprintf("buffer %s is stale (current epoch is %d)", e.Buffer, e.CurrentEpoch)
}

type ErrNotRunning struct{}

func (ErrNotRunning) Error() string {
	return "the codec session is not running"
}

type ErrClosed struct{}

func (ErrClosed) Error() string {
	return "the codec session is closed"
}

// ErrNoCodec is returned by New if none of the candidate codecs could be
// created and configured.
type ErrNoCodec struct {
	MIMEType string
	Err      error
}

func (e ErrNoCodec) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("no codec found for '%s'", e.MIMEType)
	}
	return fmt.Sprintf("unable to initialize any codec for '%s': %v", e.MIMEType, e.Err)
}

func (e ErrNoCodec) Unwrap() error {
	return e.Err
}
