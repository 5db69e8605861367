package resp

import (
	"errors"
	"fmt"
)

var (
	// ErrIncomplete means the buffer does not hold a whole frame yet. It is not a failure:
	// the caller has to read more bytes and try again
	ErrIncomplete = errors.New("resp: incomplete frame")

	// ErrProtocol is wrapped by every ProtocolError
	ErrProtocol = errors.New("resp: protocol error")

	// ErrConnReset means the peer closed the stream in the middle of a frame
	ErrConnReset = errors.New("resp: connection reset by peer mid-message")

	// ErrUnknownType is returned by the encoder for a Value with an unrecognized Type tag
	ErrUnknownType = errors.New("resp: unknown value type")

	// ErrInvalidSimple is returned by the encoder for a simple string or error containing CR or LF
	ErrInvalidSimple = errors.New("resp: simple string contains line terminator")
)

// ProtocolError describes malformed input found by the decoder
type ProtocolError struct {
	Offset int    // byte offset into the decoded buffer
	Reason string // the violated expectation
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("resp: protocol error at offset %d: %s", e.Offset, e.Reason)
}

func (e *ProtocolError) Unwrap() error {
	return ErrProtocol
}

func protocolErrorf(offset int, format string, args ...any) *ProtocolError {
	return &ProtocolError{Offset: offset, Reason: fmt.Sprintf(format, args...)}
}
