package transport

// Endpoint is one side of a Pipe.
type Endpoint struct {
	in  *queue
	out *queue
}

// Pipe returns two cross-wired endpoints: bytes sent on one are received
// on the other. capacity bounds each direction; <= 0 is unbounded.
func Pipe(capacity int) (*Endpoint, *Endpoint) {
	ab := &queue{capacity: capacity}
	ba := &queue{capacity: capacity}
	return &Endpoint{in: ba, out: ab}, &Endpoint{in: ab, out: ba}
}

func (e *Endpoint) TryRecvByte() (byte, bool, error) {
	b, ok := e.in.pop()
	return b, ok, nil
}

func (e *Endpoint) TrySendByte(b byte) (bool, error) {
	return e.out.push(b), nil
}

// Feed is a scripted receive source that records everything sent to it.
type Feed struct {
	in  queue
	out queue
}

func NewFeed(in []byte) *Feed {
	f := &Feed{}
	f.in.pushAll(in)
	return f
}

func (f *Feed) TryRecvByte() (byte, bool, error) {
	b, ok := f.in.pop()
	return b, ok, nil
}

func (f *Feed) TrySendByte(b byte) (bool, error) {
	return f.out.push(b), nil
}

// Push appends bytes to the receive script.
func (f *Feed) Push(p []byte) {
	f.in.pushAll(p)
}

// Sent returns and clears the bytes written so far.
func (f *Feed) Sent() []byte {
	return f.out.drain()
}
