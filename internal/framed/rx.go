package framed

import "github.com/danmuck/framedserial/internal/protocol/frame"

type recvStage uint8

const (
	stageUnknown recvStage = iota
	stageHeader
	stageData
)

// recvState tracks the incoming frame. recvBuf stays empty until
// stageData, where len(recvBuf) <= length.
type recvState struct {
	stage  recvStage
	header [frame.LengthLen]byte
	index  int
	length int
}

func (c *Conn) frameComplete() bool {
	return c.recv.stage == stageData && len(c.recvBuf) == c.recv.length
}

func (c *Conn) recvTick() (bool, error) {
	for {
		if c.frameComplete() {
			return true, nil
		}
		b, ok, err := c.t.TryRecvByte()
		if err != nil {
			return false, &TransportError{Op: OpRecv, Err: err}
		}
		if !ok {
			return false, nil
		}
		c.moved++
		c.consume(b)
	}
}

func (c *Conn) consume(b byte) {
	r := &c.recv
	switch r.stage {
	case stageUnknown:
		// resync: drop everything until a sentinel shows up
		if b == frame.Sentinel {
			*r = recvState{stage: stageHeader}
		}
	case stageHeader:
		r.header[r.index] = b
		r.index++
		if r.index == frame.LengthLen {
			length := frame.Length(r.header[:])
			*r = recvState{stage: stageData, length: length}
			c.recvBuf = make([]byte, 0, length)
		}
	case stageData:
		c.recvBuf = append(c.recvBuf, b)
	}
}
