package exchange

import (
	"errors"
	"fmt"
)

// ErrOutOfSync signals the peer's sequencing disagreed with what the
// engine expected. By the time it is returned, both counters have
// already been rewound per spec.md §4.2/§4.3 and the radio link has
// been left connected — the caller is expected to retry at the message
// layer (spec.md §7).
var ErrOutOfSync = errors.New("exchange: transmission out of sync")

// ProtocolError covers every other failure mode spec.md §4.1/§7
// enumerates: timeout, exhausted retry budget, wrong packet type or
// address, an invalid assembled message, or a wrapped radio error.
type ProtocolError struct {
	Msg   string
	Cause error
}

func (e *ProtocolError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("exchange: %s: %v", e.Msg, e.Cause)
	}
	return fmt.Sprintf("exchange: %s", e.Msg)
}

func (e *ProtocolError) Unwrap() error { return e.Cause }

func protocolError(msg string) error {
	return &ProtocolError{Msg: msg}
}

func wrapProtocolError(msg string, cause error) error {
	return &ProtocolError{Msg: msg, Cause: cause}
}
