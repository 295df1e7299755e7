package decoder

import (
	"errors"
	"fmt"
)

// ErrFatal is a platform failure the decoder cannot recover from. The
// codec's buffer bookkeeping may be inconsistent afterwards; the caller
// should shut the decoder down.
type ErrFatal struct {
	Err error
}

func (e ErrFatal) Error() string {
	return fmt.Sprintf("fatal decoder error: %v", e.Err)
}

func (e ErrFatal) Unwrap() error {
	return e.Err
}

// ErrNeedNewDecoder means the output target became unusable: the stream is
// fine, but the decoder has to be rebuilt.
type ErrNeedNewDecoder struct {
	Err error
}

func (e ErrNeedNewDecoder) Error() string {
	if e.Err == nil {
		return "a new decoder is needed"
	}
	return fmt.Sprintf("a new decoder is needed: %v", e.Err)
}

func (e ErrNeedNewDecoder) Unwrap() error {
	return e.Err
}

// ErrCanceled is returned for requests canceled by a flush or a shutdown.
type ErrCanceled struct {
	Reason string
}

func (e ErrCanceled) Error() string {
	return fmt.Sprintf("canceled: %s", e.Reason)
}

func IsNeedNewDecoder(err error) bool {
	return errors.As(err, &ErrNeedNewDecoder{})
}

func IsCanceled(err error) bool {
	return errors.As(err, &ErrCanceled{})
}

func IsFatal(err error) bool {
	return errors.As(err, &ErrFatal{})
}
