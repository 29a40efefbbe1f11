package framed

import (
	"errors"
	"fmt"

	"github.com/danmuck/framedserial/internal/protocol/frame"
)

var (
	ErrTooLong  = frame.ErrTooLong
	ErrBusy     = errors.New("framed: send already in progress")
	ErrNotReady = errors.New("framed: frame not available")
)

// Transport operations named in TransportError.Op.
const (
	OpSend = "send"
	OpRecv = "recv"
)

// TransportError reports a failure surfaced by the underlying transport
// during Tick. Connection state is left as it was before the failing byte.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("framed: transport %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
