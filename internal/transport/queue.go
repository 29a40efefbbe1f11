package transport

import "sync"

// queue is a byte FIFO shared between goroutines. capacity <= 0 means
// unbounded.
type queue struct {
	mu       sync.Mutex
	buf      []byte
	capacity int
}

func (q *queue) push(b byte) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.capacity > 0 && len(q.buf) >= q.capacity {
		return false
	}
	q.buf = append(q.buf, b)
	return true
}

func (q *queue) pushAll(p []byte) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.buf = append(q.buf, p...)
}

func (q *queue) pop() (byte, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.buf) == 0 {
		return 0, false
	}
	b := q.buf[0]
	q.buf = q.buf[1:]
	if len(q.buf) == 0 {
		q.buf = nil
	}
	return b, true
}

func (q *queue) drain() []byte {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.buf
	q.buf = nil
	return out
}

func (q *queue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.buf)
}
