package transport

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog/log"
	"go.bug.st/serial"
)

// DefaultReadTimeout keeps Tick responsive when the line is idle.
const DefaultReadTimeout = 100 * time.Millisecond

var ErrUnexpectedCount = errors.New("transport: unexpected byte count")

// SerialConfig describes how to open a serial device.
type SerialConfig struct {
	Device      string
	BaudRate    int
	ReadTimeout time.Duration
}

// SerialPort adapts a timeout-based serial port to the non-blocking byte
// capability. A read that times out with no data reports "no byte".
type SerialPort struct {
	port io.ReadWriteCloser
	rbuf [1]byte
	wbuf [1]byte
}

// NewSerialPort wraps an already configured port. The port's read timeout
// must be short for Tick to stay responsive.
func NewSerialPort(port io.ReadWriteCloser) *SerialPort {
	return &SerialPort{port: port}
}

// OpenSerial opens cfg.Device as 8N1 with a bounded read timeout.
func OpenSerial(cfg SerialConfig) (*SerialPort, error) {
	timeout := cfg.ReadTimeout
	if timeout <= 0 {
		timeout = DefaultReadTimeout
	}
	mode := &serial.Mode{
		BaudRate: cfg.BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(cfg.Device, mode)
	if err != nil {
		return nil, fmt.Errorf("transport: open %s: %w", cfg.Device, err)
	}
	if err := port.SetReadTimeout(timeout); err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("transport: set read timeout on %s: %w", cfg.Device, err)
	}
	log.Debug().
		Str("device", cfg.Device).
		Int("baud", cfg.BaudRate).
		Dur("read_timeout", timeout).
		Msg("serial_open")
	return NewSerialPort(port), nil
}

func (s *SerialPort) TryRecvByte() (byte, bool, error) {
	n, err := s.port.Read(s.rbuf[:])
	if err != nil {
		return 0, false, fmt.Errorf("transport: serial read: %w", err)
	}
	switch n {
	case 0:
		return 0, false, nil
	case 1:
		return s.rbuf[0], true, nil
	default:
		return 0, false, fmt.Errorf("%w: read %d bytes", ErrUnexpectedCount, n)
	}
}

func (s *SerialPort) TrySendByte(b byte) (bool, error) {
	s.wbuf[0] = b
	n, err := s.port.Write(s.wbuf[:])
	if err != nil {
		return false, fmt.Errorf("transport: serial write: %w", err)
	}
	switch n {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, fmt.Errorf("%w: wrote %d bytes", ErrUnexpectedCount, n)
	}
}

func (s *SerialPort) Close() error {
	return s.port.Close()
}
