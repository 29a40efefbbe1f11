package frame

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const (
	// Sentinel marks the start of every frame on the wire.
	Sentinel byte = 0xFF
	// LengthLen is the size of the little-endian length field.
	LengthLen = 2
	// HeaderLen covers the sentinel plus the length field.
	HeaderLen = 1 + LengthLen
	// MaxPayloadLen is the largest payload a uint16 length can describe.
	MaxPayloadLen = 0xFFFF
)

var (
	ErrTooLong    = errors.New("frame: payload too long")
	ErrShortFrame = errors.New("frame: truncated frame")
)

// PutLength writes n as the two-byte little-endian length field.
func PutLength(b []byte, n int) {
	binary.LittleEndian.PutUint16(b[:LengthLen], uint16(n))
}

// Length decodes the two-byte little-endian length field.
func Length(b []byte) int {
	return int(binary.LittleEndian.Uint16(b[:LengthLen]))
}

// LengthHeader returns the encoded length field for a payload of n bytes.
func LengthHeader(n int) ([LengthLen]byte, error) {
	var hdr [LengthLen]byte
	if n < 0 || n > MaxPayloadLen {
		return hdr, fmt.Errorf("%w: %d bytes", ErrTooLong, n)
	}
	PutLength(hdr[:], n)
	return hdr, nil
}

// AppendFrame appends the wire encoding of payload to dst.
func AppendFrame(dst, payload []byte) ([]byte, error) {
	hdr, err := LengthHeader(len(payload))
	if err != nil {
		return dst, err
	}
	dst = append(dst, Sentinel, hdr[0], hdr[1])
	return append(dst, payload...), nil
}

// Encode returns the wire encoding of one frame.
func Encode(payload []byte) ([]byte, error) {
	return AppendFrame(make([]byte, 0, HeaderLen+len(payload)), payload)
}

// WriteFrame writes one frame to a blocking writer.
func WriteFrame(w io.Writer, payload []byte) error {
	buf, err := Encode(payload)
	if err != nil {
		return err
	}
	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("frame: write: %w", err)
	}
	return nil
}

// Decoder pulls frames out of a blocking byte stream. Bytes seen before a
// sentinel are discarded; once a sentinel is found the header and payload
// are consumed without further checks.
type Decoder struct {
	r         io.ByteReader
	discarded int
}

func NewDecoder(r io.ByteReader) *Decoder {
	return &Decoder{r: r}
}

// Discarded reports how many bytes were skipped while looking for a sentinel.
func (d *Decoder) Discarded() int {
	return d.discarded
}

// Next returns the next payload. io.EOF is returned when the stream ends
// cleanly between frames; ErrShortFrame when it ends inside one.
func (d *Decoder) Next() ([]byte, error) {
	for {
		b, err := d.r.ReadByte()
		if err != nil {
			return nil, err
		}
		if b == Sentinel {
			break
		}
		d.discarded++
	}

	var hdr [LengthLen]byte
	for i := range hdr {
		b, err := d.r.ReadByte()
		if err != nil {
			return nil, shortOr(err)
		}
		hdr[i] = b
	}

	n := Length(hdr[:])
	payload := make([]byte, n)
	for i := 0; i < n; i++ {
		b, err := d.r.ReadByte()
		if err != nil {
			return nil, shortOr(err)
		}
		payload[i] = b
	}
	return payload, nil
}

func shortOr(err error) error {
	if errors.Is(err, io.EOF) {
		return ErrShortFrame
	}
	return err
}
