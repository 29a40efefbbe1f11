package session

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/danmuck/framedserial/internal/framed"
	"github.com/danmuck/framedserial/internal/protocol/frame"
	"github.com/danmuck/framedserial/internal/testutil/testlog"
	"github.com/danmuck/framedserial/internal/transport"
	"github.com/rs/zerolog/log"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.PollInterval = time.Millisecond
	cfg.Backoff = BackoffConfig{InitialDelay: time.Millisecond, Multiplier: 1}
	return cfg
}

func TestNextBackoffDelayDeterministicNoJitter(t *testing.T) {
	testlog.Start(t)
	cfg := BackoffConfig{
		InitialDelay: 250 * time.Millisecond,
		Multiplier:   2.0,
		MaxDelay:     5 * time.Second,
		Jitter:       false,
	}
	if got := NextBackoffDelay(cfg, 1, nil); got != 250*time.Millisecond {
		t.Fatalf("attempt1 got=%v", got)
	}
	if got := NextBackoffDelay(cfg, 2, nil); got != 500*time.Millisecond {
		t.Fatalf("attempt2 got=%v", got)
	}
	if got := NextBackoffDelay(cfg, 3, nil); got != time.Second {
		t.Fatalf("attempt3 got=%v", got)
	}
	if got := NextBackoffDelay(cfg, 6, nil); got != 5*time.Second {
		t.Fatalf("attempt6 got=%v", got)
	}
}

func TestOutboxFIFOAndLimits(t *testing.T) {
	testlog.Start(t)
	o := NewOutbox()
	if err := o.Push([]byte("a")); err != nil {
		t.Fatalf("push: %v", err)
	}
	if err := o.Push([]byte("bc")); err != nil {
		t.Fatalf("push: %v", err)
	}
	if err := o.Push(make([]byte, frame.MaxPayloadLen+1)); !errors.Is(err, frame.ErrTooLong) {
		t.Fatalf("expected ErrTooLong, got %v", err)
	}
	if o.Len() != 2 || o.Bytes() != 3 {
		t.Fatalf("unexpected outbox size len=%d bytes=%d", o.Len(), o.Bytes())
	}
	first, _ := o.Pop()
	second, _ := o.Pop()
	if string(first) != "a" || string(second) != "bc" {
		t.Fatalf("order broken: %q %q", first, second)
	}
	if _, ok := o.Pop(); ok {
		t.Fatalf("outbox should be empty")
	}
}

func TestPumpDrainWritesQueuedFramesInOrder(t *testing.T) {
	testlog.Start(t)
	feed := transport.NewFeed(nil)
	p := NewPump(framed.New(feed), testConfig(), log.Logger)
	for _, s := range []string{"one", "", "three"} {
		if err := p.Send([]byte(s)); err != nil {
			t.Fatalf("send %q: %v", s, err)
		}
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := p.Drain(ctx, nil); err != nil {
		t.Fatalf("drain: %v", err)
	}

	var want []byte
	for _, s := range []string{"one", "", "three"} {
		want, _ = frame.AppendFrame(want, []byte(s))
	}
	if got := feed.Sent(); !bytes.Equal(got, want) {
		t.Fatalf("wire mismatch: got=% X want=% X", got, want)
	}
	st := p.Stats()
	if st.FramesSent != 3 || st.PayloadSent != 8 || st.Queued != 0 {
		t.Fatalf("unexpected stats: %+v", st)
	}
}

func TestPumpsExchangeOverPipe(t *testing.T) {
	testlog.Start(t)
	a, b := transport.Pipe(4)
	sender := NewPump(framed.New(a), testConfig(), log.Logger)
	receiver := NewPump(framed.New(b), testConfig(), log.Logger)

	want := [][]byte{[]byte("hello"), {0xFF, 0xFF}, {}, bytes.Repeat([]byte{0x55}, 1000)}
	for _, f := range want {
		if err := sender.Send(f); err != nil {
			t.Fatalf("send: %v", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var mu sync.Mutex
	var got [][]byte
	errCh := make(chan error, 1)
	go func() {
		errCh <- receiver.Run(ctx, func(f []byte) error {
			mu.Lock()
			defer mu.Unlock()
			got = append(got, f)
			if len(got) == len(want) {
				return errStop
			}
			return nil
		})
	}()

	if err := sender.Drain(ctx, nil); err != nil {
		t.Fatalf("drain: %v", err)
	}
	if err := <-errCh; !errors.Is(err, errStop) {
		t.Fatalf("receiver stopped with %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	for i := range want {
		if !bytes.Equal(got[i], want[i]) {
			t.Fatalf("frame %d mismatch: got len=%d want len=%d", i, len(got[i]), len(want[i]))
		}
	}
	if st := receiver.Stats(); st.FramesReceived != uint64(len(want)) {
		t.Fatalf("unexpected receiver stats: %+v", st)
	}
}

var errStop = errors.New("stop")

func TestPumpReceiveOne(t *testing.T) {
	testlog.Start(t)
	wire, _ := frame.Encode([]byte("ping"))
	p := NewPump(framed.New(transport.NewFeed(append([]byte{0x01, 0x02}, wire...))), testConfig(), log.Logger)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	got, err := p.ReceiveOne(ctx)
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	if string(got) != "ping" {
		t.Fatalf("unexpected frame: %q", got)
	}
}

func TestPumpReceiveOneHonorsContext(t *testing.T) {
	testlog.Start(t)
	p := NewPump(framed.New(transport.NewFeed(nil)), testConfig(), log.Logger)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := p.ReceiveOne(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

type brokenTransport struct{ err error }

func (b brokenTransport) TryRecvByte() (byte, bool, error) { return 0, false, b.err }
func (b brokenTransport) TrySendByte(byte) (bool, error)   { return false, b.err }

func TestPumpGivesUpAfterTransportErrors(t *testing.T) {
	testlog.Start(t)
	cause := errors.New("device unplugged")
	cfg := testConfig()
	cfg.MaxTransportErrors = 3
	p := NewPump(framed.New(brokenTransport{err: cause}), cfg, log.Logger)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	err := p.Run(ctx, nil)
	if !errors.Is(err, cause) {
		t.Fatalf("expected wrapped cause, got %v", err)
	}
	var te *framed.TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected TransportError in chain, got %v", err)
	}
	if st := p.Stats(); st.TransportErrors != 3 {
		t.Fatalf("unexpected error count: %+v", st)
	}
}

func TestNextBackoffDelaySaturatesWithoutMax(t *testing.T) {
	testlog.Start(t)
	cfg := BackoffConfig{InitialDelay: time.Second, Multiplier: 10}
	got := NextBackoffDelay(cfg, 5000, nil)
	if got <= 0 {
		t.Fatalf("delay overflowed: %v", got)
	}
	if jittered := NextBackoffDelay(BackoffConfig{InitialDelay: time.Millisecond, Multiplier: 2, MaxDelay: time.Second, Jitter: true}, 20, nil); jittered != 500*time.Millisecond {
		t.Fatalf("nil rng jitter should halve the capped delay, got %v", jittered)
	}
}

func TestPumpLargeFrameThroughSmallPipe(t *testing.T) {
	testlog.Start(t)
	a, b := transport.Pipe(16)
	cfg := DefaultConfig()
	sender := NewPump(framed.New(a), cfg, log.Logger)
	receiver := NewPump(framed.New(b), cfg, log.Logger)

	payload := bytes.Repeat([]byte{0xAB}, frame.MaxPayloadLen)
	if err := sender.Send(payload); err != nil {
		t.Fatalf("send: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	start := time.Now()
	errCh := make(chan error, 1)
	go func() {
		errCh <- sender.Drain(ctx, nil)
	}()
	got, err := receiver.ReceiveOne(ctx)
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	if err := <-errCh; err != nil {
		t.Fatalf("drain: %v", err)
	}
	elapsed := time.Since(start)
	if !bytes.Equal(got, payload) {
		t.Fatalf("payload mismatch: len=%d", len(got))
	}
	if elapsed > 5*time.Second {
		t.Fatalf("max-size frame took %v through a 16-byte pipe", elapsed)
	}
}

func TestDefaultConfigPacing(t *testing.T) {
	testlog.Start(t)
	cfg := DefaultConfig()
	if cfg.PollInterval != time.Millisecond {
		t.Fatalf("unexpected poll interval: %v", cfg.PollInterval)
	}
	if cfg.IdleSpins <= 0 {
		t.Fatalf("expected a positive idle spin budget, got %d", cfg.IdleSpins)
	}
}
