package framed

import (
	"io"

	"github.com/danmuck/framedserial/internal/protocol/frame"
)

// TickProgress is the result of one Tick.
type TickProgress struct {
	// SendDone is true when no outgoing frame remains in flight.
	SendDone bool
	// RecvDone is true when a complete frame is waiting for GetFrame.
	RecvDone bool
}

// Conn frames a byte-level Transport. It owns the transport and every
// in-flight buffer for its lifetime.
type Conn struct {
	t       Transport
	recvBuf []byte
	recv    recvState
	send    sendState
	moved   uint64
}

// New wraps t. The caller must not use t directly afterwards.
func New(t Transport) *Conn {
	return &Conn{t: t}
}

// ScheduleSend hands frame to the connection for transmission. The slice
// is owned by the connection until the send completes. Only one frame may
// be in flight; ErrBusy is returned while a previous send is unfinished.
func (c *Conn) ScheduleSend(p []byte) error {
	hdr, err := frame.LengthHeader(len(p))
	if err != nil {
		return err
	}
	if c.send.active {
		return ErrBusy
	}
	c.send = sendState{
		active: true,
		phase:  phaseSentinel,
		header: hdr,
		frame:  p,
	}
	return nil
}

// SendPending reports whether an outgoing frame is still in flight.
func (c *Conn) SendPending() bool {
	return c.send.active
}

// Tick advances the send side, then the receive side, as far as the
// transport allows without blocking.
func (c *Conn) Tick() (TickProgress, error) {
	sendDone, err := c.sendTick()
	if err != nil {
		return TickProgress{}, err
	}
	recvDone, err := c.recvTick()
	if err != nil {
		return TickProgress{SendDone: sendDone}, err
	}
	return TickProgress{SendDone: sendDone, RecvDone: recvDone}, nil
}

// Moved counts bytes the transport has accepted or delivered over the
// connection's lifetime. Comparing it across a Tick shows whether that
// tick did any I/O short of a frame boundary.
func (c *Conn) Moved() uint64 {
	return c.moved
}

// GetFrame transfers a completed frame to the caller and resets the
// receiver. ErrNotReady is returned, with no state change, when no frame
// is complete.
func (c *Conn) GetFrame() ([]byte, error) {
	if !c.frameComplete() {
		return nil, ErrNotReady
	}
	out := c.recvBuf
	if out == nil {
		out = []byte{}
	}
	c.recvBuf = nil
	c.recv = recvState{}
	return out, nil
}

// Close closes the transport when it implements io.Closer. In-flight
// buffers are dropped.
func (c *Conn) Close() error {
	c.recvBuf = nil
	c.recv = recvState{}
	c.send = sendState{}
	if cl, ok := c.t.(io.Closer); ok {
		return cl.Close()
	}
	return nil
}
