package observability

import (
	"io"

	"github.com/danmuck/framedserial/internal/framed"
	"github.com/rs/zerolog"
)

// InstrumentedTransport counts bytes and errors flowing through a
// framed.Transport. Close is forwarded when the inner transport has one.
type InstrumentedTransport struct {
	inner  framed.Transport
	link   string
	logger zerolog.Logger
}

func Instrument(inner framed.Transport, link string, logger zerolog.Logger) *InstrumentedTransport {
	return &InstrumentedTransport{inner: inner, link: link, logger: logger}
}

func (t *InstrumentedTransport) TryRecvByte() (byte, bool, error) {
	b, ok, err := t.inner.TryRecvByte()
	if err != nil {
		RecordTransportError(t.link, framed.OpRecv)
		t.logger.Error().Err(err).Str("link", t.link).Msg("transport_recv_failed")
		return b, ok, err
	}
	if ok {
		RecordBytes(t.link, DirRx, 1)
		t.logger.Trace().Str("link", t.link).Uint8("byte", b).Msg("rx")
	}
	return b, ok, nil
}

func (t *InstrumentedTransport) TrySendByte(b byte) (bool, error) {
	ok, err := t.inner.TrySendByte(b)
	if err != nil {
		RecordTransportError(t.link, framed.OpSend)
		t.logger.Error().Err(err).Str("link", t.link).Msg("transport_send_failed")
		return ok, err
	}
	if ok {
		RecordBytes(t.link, DirTx, 1)
		t.logger.Trace().Str("link", t.link).Uint8("byte", b).Msg("tx")
	}
	return ok, nil
}

func (t *InstrumentedTransport) Close() error {
	if c, ok := t.inner.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
