package framed

import "github.com/danmuck/framedserial/internal/protocol/frame"

type sendPhase uint8

const (
	phaseSentinel sendPhase = iota
	phaseHeader
	phaseData
)

// sendState is idle when active is false. While active:
// phaseSentinel => index 0, phaseHeader => index in [0,2),
// phaseData => index in [0,len(frame)).
type sendState struct {
	active bool
	phase  sendPhase
	index  int
	header [frame.LengthLen]byte
	frame  []byte
}

func (s *sendState) next() byte {
	switch s.phase {
	case phaseHeader:
		return s.header[s.index]
	case phaseData:
		return s.frame[s.index]
	default:
		return frame.Sentinel
	}
}

// advance moves past the byte just accepted and reports whether the frame
// has been fully written.
func (s *sendState) advance() bool {
	s.index++
	switch s.phase {
	case phaseSentinel:
		s.phase, s.index = phaseHeader, 0
	case phaseHeader:
		if s.index == frame.LengthLen {
			if len(s.frame) == 0 {
				return true
			}
			s.phase, s.index = phaseData, 0
		}
	case phaseData:
		return s.index == len(s.frame)
	}
	return false
}

func (c *Conn) sendTick() (bool, error) {
	if !c.send.active {
		return true, nil
	}
	for {
		ok, err := c.t.TrySendByte(c.send.next())
		if err != nil {
			return false, &TransportError{Op: OpSend, Err: err}
		}
		if !ok {
			return false, nil
		}
		c.moved++
		if c.send.advance() {
			c.send = sendState{}
			return true, nil
		}
	}
}
