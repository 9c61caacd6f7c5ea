// internal/event/nats.go
// Package event publishes site events to NATS JetStream.
// Downstream workers consume booking inquiries (the confirmation mailer) and the
// notification mirror from the SITE_EVENTS stream.
package event

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/abhinandan-events/site-bff-go/internal/metrics"
	"github.com/abhinandan-events/site-bff-go/internal/model"
)

// Subjects and stream used by the site service.
const (
	StreamName             = "SITE_EVENTS"
	SubjectBookingReceived = "site.bookings.received"
	subjectNotification    = "site.notifications.%s"
	envelopeVersion        = "1.0.0"
	dedupWindow            = 2 * time.Minute
)

// Publisher publishes site events.
type Publisher interface {
	// PublishBookingReceived announces a stored booking inquiry.
	PublishBookingReceived(ctx context.Context, booking model.BookingInquiry) error

	// PublishNotification mirrors a live admin notification.
	PublishNotification(ctx context.Context, n model.Notification) error

	// Close closes the publisher connection
	Close() error
}

// NewNoop returns a Publisher that drops every event. It is used when NATS is not configured.
func NewNoop() Publisher { return &noop{} }

// noop is a no-op implementation of Publisher for when NATS is not configured.
type noop struct{}

func (n *noop) Close() error { return nil }

func (n *noop) PublishBookingReceived(context.Context, model.BookingInquiry) error { return nil }

func (n *noop) PublishNotification(context.Context, model.Notification) error { return nil }

// jetStream is the subset of nats.JetStreamContext the publisher uses.
type jetStream interface {
	Publish(subj string, data []byte, opts ...nats.PubOpt) (*nats.PubAck, error)
}

// natsPub is the NATS JetStream implementation of Publisher.
type natsPub struct {
	nc      *nats.Conn // nil in tests
	js      jetStream
	metrics *metrics.Metrics

	// Deduplication of repeated publishes for the same entity ID
	dedup map[string]time.Time
	mutex sync.Mutex
	now   func() time.Time
}

// NewPublisher connects to the NATS server at url. An empty url, or any failure to reach
// NATS, yields a no-op publisher so the service keeps working without event streaming.
func NewPublisher(url string, m *metrics.Metrics) Publisher {
	if url == "" {
		return &noop{}
	}

	nc, err := nats.Connect(url, nats.Name("site-bff"))
	if err != nil {
		slog.Warn("NATS connect failed, using noop publisher", "error", err)
		return &noop{}
	}

	js, err := nc.JetStream()
	if err != nil {
		slog.Warn("NATS JetStream context creation failed, using noop publisher", "error", err)
		nc.Close()
		return &noop{}
	}

	if err := initStream(js); err != nil {
		slog.Warn("NATS stream initialization failed, using noop publisher", "error", err)
		nc.Close()
		return &noop{}
	}

	p := newNatsPub(js, m)
	p.nc = nc
	return p
}

func newNatsPub(js jetStream, m *metrics.Metrics) *natsPub {
	return &natsPub{
		js:      js,
		metrics: m,
		dedup:   make(map[string]time.Time),
		now:     time.Now,
	}
}

// initStream creates the SITE_EVENTS stream, or leaves it alone when it already exists.
func initStream(js nats.JetStreamContext) error {
	cfg := &nats.StreamConfig{
		Name:      StreamName,
		Subjects:  []string{"site.bookings.*", "site.notifications.*"},
		Retention: nats.LimitsPolicy,
		MaxAge:    7 * 24 * time.Hour, // bookings must survive a mailer outage
		Discard:   nats.DiscardOld,
		Storage:   nats.FileStorage,
	}
	if _, err := js.StreamInfo(StreamName); err == nil {
		if _, err := js.UpdateStream(cfg); err != nil {
			return fmt.Errorf("failed to update %s stream: %w", StreamName, err)
		}
		return nil
	}
	if _, err := js.AddStream(cfg); err != nil {
		return fmt.Errorf("failed to create %s stream: %w", StreamName, err)
	}
	return nil
}

// EventEnvelope represents the standard event envelope structure.
// All events published to NATS are wrapped in this envelope for consistency.
type EventEnvelope struct {
	Type          string      `json:"type"`          // Event type identifier (the subject)
	Version       string      `json:"version"`       // Event schema version
	OccurredAt    time.Time   `json:"occurredAt"`    // When the event occurred
	CorrelationID string      `json:"correlationId"` // Correlation ID for tracing
	Payload       interface{} `json:"payload"`       // Event-specific data
}

// Close closes the NATS connection.
func (p *natsPub) Close() error {
	if p.nc != nil {
		p.nc.Drain()
	}
	return nil
}

// PublishBookingReceived publishes a booking to site.bookings.received.
// The booking ID is also the JetStream message ID, so broker-side dedup applies too.
func (p *natsPub) PublishBookingReceived(ctx context.Context, booking model.BookingInquiry) error {
	return p.publish(ctx, SubjectBookingReceived, "booking:"+booking.ID, booking)
}

// PublishNotification publishes a notification to site.notifications.{kind}.
func (p *natsPub) PublishNotification(ctx context.Context, n model.Notification) error {
	return p.publish(ctx, fmt.Sprintf(subjectNotification, n.Kind), "notification:"+n.ID, n)
}

func (p *natsPub) publish(ctx context.Context, subject, key string, payload interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.shouldDedup(key) {
		p.observe(subject, "deduped")
		return nil
	}

	envelope := EventEnvelope{
		Type:          subject,
		Version:       envelopeVersion,
		OccurredAt:    p.now().UTC(),
		CorrelationID: uuid.New().String(),
		Payload:       payload,
	}
	b, err := json.Marshal(envelope)
	if err != nil {
		p.observe(subject, "error")
		return err
	}

	if _, err := p.js.Publish(subject, b, nats.MsgId(key)); err != nil {
		p.observe(subject, "error")
		return fmt.Errorf("publish %s: %w", subject, err)
	}

	p.updateDedup(key)
	p.observe(subject, "ok")
	return nil
}

// shouldDedup reports whether key was published within the dedup window.
func (p *natsPub) shouldDedup(key string) bool {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	last, exists := p.dedup[key]
	return exists && p.now().Sub(last) < dedupWindow
}

// updateDedup records a successful publish of key and forgets stale entries.
func (p *natsPub) updateDedup(key string) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	now := p.now()
	cutoff := now.Add(-5 * time.Minute)
	for k, t := range p.dedup {
		if t.Before(cutoff) {
			delete(p.dedup, k)
		}
	}
	p.dedup[key] = now
}

func (p *natsPub) observe(subject, status string) {
	if p.metrics != nil {
		p.metrics.EventPublishTotal.WithLabelValues(subject, status).Inc()
	}
}
