package session

import (
	"sync"

	"github.com/danmuck/framedserial/internal/protocol/frame"
)

// Outbox is a goroutine-safe FIFO of frames waiting for the link.
type Outbox struct {
	mu    sync.Mutex
	items [][]byte
	bytes int
}

func NewOutbox() *Outbox {
	return &Outbox{}
}

// Push queues p. Oversized frames are rejected here rather than when the
// pump reaches them.
func (o *Outbox) Push(p []byte) error {
	if _, err := frame.LengthHeader(len(p)); err != nil {
		return err
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.items = append(o.items, p)
	o.bytes += len(p)
	return nil
}

func (o *Outbox) Pop() ([]byte, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.items) == 0 {
		return nil, false
	}
	p := o.items[0]
	o.items[0] = nil
	o.items = o.items[1:]
	o.bytes -= len(p)
	return p, true
}

func (o *Outbox) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.items)
}

// Bytes is the total payload size still queued.
func (o *Outbox) Bytes() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.bytes
}
