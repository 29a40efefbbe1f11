package session

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/danmuck/framedserial/internal/framed"
	"github.com/danmuck/framedserial/internal/observability"
	"github.com/rs/zerolog"
)

// Handler receives each completed frame. A non-nil error stops the pump
// and is returned from Run unchanged.
type Handler func(frame []byte) error

// Stats is a snapshot of pump counters.
type Stats struct {
	FramesSent      uint64 `json:"frames_sent"`
	FramesReceived  uint64 `json:"frames_received"`
	PayloadSent     uint64 `json:"payload_bytes_sent"`
	PayloadReceived uint64 `json:"payload_bytes_received"`
	TransportErrors uint64 `json:"transport_errors"`
	Queued          int    `json:"queued"`
}

// Pump owns a framed.Conn and feeds it from an Outbox. Send and Stats are
// safe from any goroutine; only one of Run, Drain or ReceiveOne may be
// active at a time since they drive the Conn.
type Pump struct {
	conn   *framed.Conn
	cfg    Config
	outbox *Outbox
	logger zerolog.Logger
	rng    *rand.Rand
	wake   chan struct{}

	sending    bool
	sendingLen int

	framesSent      atomic.Uint64
	framesReceived  atomic.Uint64
	payloadSent     atomic.Uint64
	payloadReceived atomic.Uint64
	transportErrors atomic.Uint64
}

func NewPump(conn *framed.Conn, cfg Config, logger zerolog.Logger) *Pump {
	return &Pump{
		conn:   conn,
		cfg:    cfg,
		outbox: NewOutbox(),
		logger: logger,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		wake:   make(chan struct{}, 1),
	}
}

// Send queues p for transmission after any frames already queued.
func (p *Pump) Send(frame []byte) error {
	if err := p.outbox.Push(frame); err != nil {
		return err
	}
	select {
	case p.wake <- struct{}{}:
	default:
	}
	return nil
}

func (p *Pump) Stats() Stats {
	return Stats{
		FramesSent:      p.framesSent.Load(),
		FramesReceived:  p.framesReceived.Load(),
		PayloadSent:     p.payloadSent.Load(),
		PayloadReceived: p.payloadReceived.Load(),
		TransportErrors: p.transportErrors.Load(),
		Queued:          p.outbox.Len(),
	}
}

// Run drives the connection until ctx is cancelled, h fails, or the
// transport keeps failing past Config.MaxTransportErrors.
func (p *Pump) Run(ctx context.Context, h Handler) error {
	return p.loop(ctx, h, nil)
}

// Drain drives the connection until every queued frame has been written.
// Frames received meanwhile go to h, which may be nil to drop them.
func (p *Pump) Drain(ctx context.Context, h Handler) error {
	return p.loop(ctx, h, func() bool {
		return !p.sending && p.outbox.Len() == 0
	})
}

// ReceiveOne drives the connection until one frame arrives.
func (p *Pump) ReceiveOne(ctx context.Context) ([]byte, error) {
	var got []byte
	received := false
	err := p.loop(ctx, func(frame []byte) error {
		got, received = frame, true
		return nil
	}, func() bool {
		return received
	})
	if err != nil {
		return nil, err
	}
	return got, nil
}

func (p *Pump) loop(ctx context.Context, h Handler, done func() bool) error {
	failures, idle := 0, 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if done != nil && done() {
			return nil
		}

		progressed, err := p.step(h)
		if err != nil {
			var te *framed.TransportError
			if !errors.As(err, &te) {
				return err
			}
			failures++
			p.transportErrors.Add(1)
			if p.cfg.MaxTransportErrors > 0 && failures >= p.cfg.MaxTransportErrors {
				p.logger.Error().Err(err).Int("attempts", failures).Msg("transport_give_up")
				return fmt.Errorf("session: giving up after %d transport errors: %w", failures, err)
			}
			delay := NextBackoffDelay(p.cfg.Backoff, failures, p.rng)
			p.logger.Warn().Err(err).Int("attempt", failures).Dur("backoff", delay).Msg("transport_error")
			if err := p.sleep(ctx, delay, false); err != nil {
				return err
			}
			continue
		}
		failures = 0

		if progressed {
			idle = 0
			continue
		}
		idle++
		if idle <= p.cfg.IdleSpins {
			runtime.Gosched()
			continue
		}
		if p.cfg.PollInterval > 0 {
			if err := p.sleep(ctx, p.cfg.PollInterval, true); err != nil {
				return err
			}
		}
	}
}

// step schedules the next queued frame if the Conn is free, ticks once,
// and delivers a completed frame. It reports whether any byte moved or a
// frame was scheduled; only a step that did neither lets the loop sleep.
func (p *Pump) step(h Handler) (bool, error) {
	progressed := false
	if !p.sending {
		if next, ok := p.outbox.Pop(); ok {
			if err := p.conn.ScheduleSend(next); err != nil {
				return false, fmt.Errorf("session: schedule: %w", err)
			}
			p.sending, p.sendingLen = true, len(next)
			progressed = true
		}
	}

	before := p.conn.Moved()
	tp, err := p.conn.Tick()
	if p.conn.Moved() != before {
		progressed = true
	}
	if err != nil {
		return progressed, err
	}

	if p.sending && tp.SendDone {
		p.framesSent.Add(1)
		p.payloadSent.Add(uint64(p.sendingLen))
		observability.RecordFrame(p.cfg.Link, observability.DirTx, p.sendingLen)
		p.logger.Debug().Int("len", p.sendingLen).Msg("frame_sent")
		p.sending, p.sendingLen = false, 0
		progressed = true
	}

	if tp.RecvDone {
		frame, err := p.conn.GetFrame()
		if err != nil {
			return progressed, fmt.Errorf("session: pickup: %w", err)
		}
		p.framesReceived.Add(1)
		p.payloadReceived.Add(uint64(len(frame)))
		observability.RecordFrame(p.cfg.Link, observability.DirRx, len(frame))
		p.logger.Debug().Int("len", len(frame)).Msg("frame_received")
		if h != nil {
			if err := h(frame); err != nil {
				return true, err
			}
		}
		progressed = true
	}
	return progressed, nil
}

func (p *Pump) sleep(ctx context.Context, d time.Duration, wakeable bool) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	var wake <-chan struct{}
	if wakeable {
		wake = p.wake
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	case <-wake:
		return nil
	}
}
