package mediacodec

import (
	"fmt"
)

// Status is a platform status code (media_status_t). Any non-OK Status is an
// error.
type Status int32

const (
	StatusOK                        = Status(0)
	StatusErrorInsufficientResource = Status(1100)
	StatusErrorReclaimed            = Status(1101)
	StatusErrorUnknown              = Status(-10000)
	StatusErrorMalformed            = Status(-10001)
	StatusErrorUnsupported          = Status(-10002)
	StatusErrorInvalidObject        = Status(-10003)
	StatusErrorInvalidParameter     = Status(-10004)
	StatusErrorInvalidOperation     = Status(-10005)
	StatusErrorEndOfStream          = Status(-10006)
	StatusErrorIO                   = Status(-10007)
	StatusErrorWouldBlock           = Status(-10008)
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusErrorInsufficientResource:
		return "INSUFFICIENT_RESOURCE"
	case StatusErrorReclaimed:
		return "RECLAIMED"
	case StatusErrorUnknown:
		return "UNKNOWN"
	case StatusErrorMalformed:
		return "MALFORMED"
	case StatusErrorUnsupported:
		return "UNSUPPORTED"
	case StatusErrorInvalidObject:
		return "INVALID_OBJECT"
	case StatusErrorInvalidParameter:
		return "INVALID_PARAMETER"
	case StatusErrorInvalidOperation:
		return "INVALID_OPERATION"
	case StatusErrorEndOfStream:
		return "END_OF_STREAM"
	case StatusErrorIO:
		return "IO"
	case StatusErrorWouldBlock:
		return "WOULD_BLOCK"
	default:
		return fmt.Sprintf("Status(%d)", int32(s))
	}
}

func (s Status) Error() string {
	return "media status " + s.String()
}

// AsError returns nil for StatusOK and the Status itself otherwise.
func (s Status) AsError() error {
	if s == StatusOK {
		return nil
	}
	return s
}
