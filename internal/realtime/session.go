package realtime

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/abhinandan-events/site-bff-go/internal/metrics"
)

// Conn is a connected duplex channel delivering server events.
type Conn interface {
	Receive() (Message, error)
	Close() error
}

// DialFunc opens a new Conn.
type DialFunc func(ctx context.Context) (Conn, error)

// Backoff is a capped exponential reconnect delay.
type Backoff struct {
	Initial time.Duration // First delay, 500ms when zero
	Max     time.Duration // Upper bound, 30s when zero
}

const (
	defaultBackoffInitial = 500 * time.Millisecond
	defaultBackoffMax     = 30 * time.Second
)

func (b Backoff) initial() time.Duration {
	if b.Initial <= 0 {
		return defaultBackoffInitial
	}
	return b.Initial
}

func (b Backoff) max() time.Duration {
	if b.Max <= 0 {
		return defaultBackoffMax
	}
	return b.Max
}

// Next returns the delay that follows d.
func (b Backoff) Next(d time.Duration) time.Duration {
	if d <= 0 {
		return b.initial()
	}
	if d *= 2; d > b.max() {
		return b.max()
	}
	return d
}

// Session keeps a single connection alive, reconnecting whenever it drops.
type Session struct {
	Dial    DialFunc
	Backoff Backoff
	Metrics *metrics.Metrics // Optional
}

// Run connects and delivers every received message to handle, one at a time, until ctx
// is done. Channel errors are logged and followed by a reconnect; Run only returns the
// context's error.
func (s *Session) Run(ctx context.Context, handle func(Message)) error {
	if s.Dial == nil {
		return errors.New("realtime: session has no dial function")
	}
	delay := s.Backoff.initial()
	for {
		conn, err := s.Dial(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.observe("error")
			slog.Warn("realtime connect failed", "error", err, "retry_in", delay)
			if !sleep(ctx, delay) {
				return ctx.Err()
			}
			delay = s.Backoff.Next(delay)
			continue
		}

		s.observe("connected")
		slog.Info("realtime channel connected")
		delay = s.Backoff.initial()

		err = receive(ctx, conn, handle)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		slog.Warn("realtime channel dropped", "error", err, "retry_in", delay)
		if !sleep(ctx, delay) {
			return ctx.Err()
		}
		delay = s.Backoff.Next(delay)
	}
}

// receive pumps conn until it fails or ctx is done. conn is closed on return.
func receive(ctx context.Context, conn Conn, handle func(Message)) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()
	defer conn.Close()

	for {
		msg, err := conn.Receive()
		if err != nil {
			return err
		}
		handle(msg)
	}
}

func (s *Session) observe(status string) {
	if s.Metrics != nil {
		s.Metrics.RealtimeConnectsTotal.WithLabelValues(status).Inc()
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
