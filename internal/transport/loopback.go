package transport

// Loopback echoes every byte sent back to its own receive side.
type Loopback struct {
	q queue
}

// NewLoopback returns a loopback holding at most capacity bytes in flight;
// sends would block once it is full. capacity <= 0 is unbounded.
func NewLoopback(capacity int) *Loopback {
	return &Loopback{q: queue{capacity: capacity}}
}

func (l *Loopback) TryRecvByte() (byte, bool, error) {
	b, ok := l.q.pop()
	return b, ok, nil
}

func (l *Loopback) TrySendByte(b byte) (bool, error) {
	return l.q.push(b), nil
}

// Inject queues raw bytes for the receive side, ignoring capacity.
func (l *Loopback) Inject(p []byte) {
	l.q.pushAll(p)
}

// Buffered reports how many bytes are waiting to be received.
func (l *Loopback) Buffered() int {
	return l.q.len()
}
