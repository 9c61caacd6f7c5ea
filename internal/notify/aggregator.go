package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/abhinandan-events/site-bff-go/internal/metrics"
	"github.com/abhinandan-events/site-bff-go/internal/model"
	"github.com/abhinandan-events/site-bff-go/internal/realtime"
)

// Backend events the aggregator listens for.
const (
	EventNewTestimonial = "new_testimonial"
	EventNewContact     = "new_contact"
	EventNewBooking     = "new_booking"
)

const unknownSender = "someone"

// Channel delivers real-time messages until ctx is done. *realtime.Session implements it.
type Channel interface {
	Run(ctx context.Context, handle func(realtime.Message)) error
}

// Publisher mirrors stored notifications to the event stream.
type Publisher interface {
	PublishNotification(ctx context.Context, n model.Notification) error
}

// Aggregator turns backend events into notifications.
type Aggregator struct {
	store   *Store
	channel Channel
	pub     Publisher        // Optional
	metrics *metrics.Metrics // Optional

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewAggregator wires a channel to a store. pub and m may be nil.
func NewAggregator(store *Store, channel Channel, pub Publisher, m *metrics.Metrics) *Aggregator {
	return &Aggregator{store: store, channel: channel, pub: pub, metrics: m}
}

// Start runs the receive loop in the background. Messages are handled one at a time in
// arrival order. Starting a running aggregator is an error.
func (a *Aggregator) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cancel != nil {
		return errors.New("notify: aggregator already started")
	}

	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	a.done = make(chan struct{})
	go func(done chan struct{}) {
		defer close(done)
		err := a.channel.Run(ctx, func(msg realtime.Message) { a.handle(ctx, msg) })
		if err != nil && !errors.Is(err, context.Canceled) {
			slog.Warn("notification channel stopped", "error", err)
		}
	}(a.done)
	return nil
}

// Stop cancels the receive loop and waits for it to exit. The channel connection is
// closed by the time Stop returns.
func (a *Aggregator) Stop() {
	a.mu.Lock()
	cancel, done := a.cancel, a.done
	a.cancel, a.done = nil, nil
	a.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// handle stores msg when it is one of the subscribed events.
func (a *Aggregator) handle(ctx context.Context, msg realtime.Message) {
	kind, text, ok := Describe(msg)
	if !ok {
		slog.Debug("ignoring realtime event", "event", msg.Event)
		return
	}
	n := a.store.Add(kind, text)
	if a.metrics != nil {
		a.metrics.NotificationsReceivedTotal.WithLabelValues(string(kind)).Inc()
	}
	if a.pub != nil {
		if err := a.pub.PublishNotification(ctx, n); err != nil {
			slog.Warn("failed to mirror notification", "id", n.ID, "error", err)
		}
	}
}

// sender is the subset of event payloads naming who triggered the event.
type sender struct {
	Name     string `json:"name"`
	FullName string `json:"fullName"`
}

// Describe maps a backend event onto a notification kind and message. Testimonials and
// contacts are attributed by name then fullName; bookings by fullName then name.
func Describe(msg realtime.Message) (model.NotificationKind, string, bool) {
	var who sender
	if len(msg.Payload) > 0 {
		// Non-object payloads leave the sender unknown.
		_ = json.Unmarshal(msg.Payload, &who)
	}

	switch msg.Event {
	case EventNewTestimonial:
		return model.KindTestimonial, fmt.Sprintf("New testimonial from %s", senderName(who.Name, who.FullName)), true
	case EventNewContact:
		return model.KindContact, fmt.Sprintf("New contact from %s", senderName(who.Name, who.FullName)), true
	case EventNewBooking:
		return model.KindBooking, fmt.Sprintf("New booking from %s", senderName(who.FullName, who.Name)), true
	default:
		return "", "", false
	}
}

func senderName(candidates ...string) string {
	for _, c := range candidates {
		if c = strings.TrimSpace(c); c != "" {
			return c
		}
	}
	return unknownSender
}
