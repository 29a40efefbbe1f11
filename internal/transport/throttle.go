package transport

import "github.com/danmuck/framedserial/internal/framed"

// Throttle wraps a transport so that every other call in each direction
// reports would-block (send) or no data (recv) without touching the
// inner transport. The first call in each direction passes through.
type Throttle struct {
	inner     framed.Transport
	sendCalls int
	recvCalls int
}

func NewThrottle(inner framed.Transport) *Throttle {
	return &Throttle{inner: inner}
}

func (t *Throttle) TryRecvByte() (byte, bool, error) {
	t.recvCalls++
	if t.recvCalls%2 == 0 {
		return 0, false, nil
	}
	return t.inner.TryRecvByte()
}

func (t *Throttle) TrySendByte(b byte) (bool, error) {
	t.sendCalls++
	if t.sendCalls%2 == 0 {
		return false, nil
	}
	return t.inner.TrySendByte(b)
}
