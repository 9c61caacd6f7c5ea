// Package content serves the visitor-facing site content from the backend REST API.
// Every accessor falls back to a bundled dataset when the backend is unreachable, answers
// with an error status, or returns a body of the wrong shape.
package content

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/abhinandan-events/site-bff-go/internal/media"
	"github.com/abhinandan-events/site-bff-go/internal/metrics"
	"github.com/abhinandan-events/site-bff-go/internal/model"
)

// Source identifies where the data in a Result came from.
type Source string

const (
	SourceLive        Source = "live"        // Backend answered with a well-formed body
	SourceFallback    Source = "fallback"    // Backend failed; bundled data served
	SourceStatic      Source = "static"      // Bundled data served without consulting the backend
	SourceUnavailable Source = "unavailable" // Nothing could be served
)

// Result carries accessor data together with its provenance.
// Err is the failure that caused a fallback or unavailable result, nil otherwise.
type Result[T any] struct {
	Data   T
	Source Source
	Err    error
}

var (
	// ErrNotFound is returned by EventByID when the backend reports the event does not exist.
	ErrNotFound = errors.New("content not found")
	// ErrUnavailable is returned when the backend could not produce an answer.
	ErrUnavailable = errors.New("content unavailable")
)

// StatusError is a non-2xx answer from the backend.
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend responded %s", e.Status)
}

const (
	defaultTimeout = 5 * time.Second
	maxBodyBytes   = 4 << 20
	tracerName     = "site-content"
)

// Client reads site content from the backend.
type Client struct {
	base     string           // Backend API base URL, no trailing slash
	hc       *http.Client     // HTTP client used for every call
	media    media.Resolver   // Turns relative asset paths into absolute URLs
	fallback *Dataset         // Served when the backend fails; nil disables fallback
	metrics  *metrics.Metrics // Optional
	now      func() time.Time // Clock used for derived statistics
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.hc = hc }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		hc := *c.hc
		hc.Timeout = d
		c.hc = &hc
	}
}

// WithFallback replaces the bundled dataset. A nil dataset disables fallback.
func WithFallback(ds *Dataset) Option {
	return func(c *Client) { c.fallback = ds }
}

// WithMetrics records accessor outcomes.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithClock overrides the clock used for event statistics.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// New creates a content client for the backend at apiBase.
// The bundled dataset is used for fallback unless WithFallback says otherwise.
func New(apiBase string, resolver media.Resolver, opts ...Option) *Client {
	transport := &http.Transport{
		DialContext: (&net.Dialer{Timeout: 2 * time.Second}).DialContext,
	}
	c := &Client{
		base:  strings.TrimRight(apiBase, "/"),
		hc:    &http.Client{Transport: transport, Timeout: defaultTimeout},
		media: resolver,
		now:   time.Now,
	}
	if ds, err := DefaultDataset(); err != nil {
		slog.Error("bundled fallback dataset is invalid", "error", err)
	} else {
		c.fallback = ds
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.media == nil {
		c.media = media.NewBaseResolver("")
	}
	return c
}

// RecentEvents returns the showcased events with media resolved.
func (c *Client) RecentEvents(ctx context.Context) Result[[]model.Event] {
	return fetch(ctx, c, "events", "/events", decodeArray[model.Event],
		func(ds *Dataset) []model.Event { return ds.Events },
		func(ctx context.Context, events []model.Event) []model.Event { return c.resolveEvents(ctx, events) })
}

// EventByID fetches a single event. It never falls back: the caller learns whether the
// event does not exist (ErrNotFound) or could not be fetched (ErrUnavailable).
func (c *Client) EventByID(ctx context.Context, id string) (*model.Event, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "content.EventByID")
	defer span.End()
	span.SetAttributes(attribute.String("event.id", id))
	start := time.Now()

	ev, err := c.eventByID(ctx, id)
	switch {
	case err == nil:
		c.observe("event", SourceLive, start)
	case errors.Is(err, ErrNotFound):
		c.observe("event", SourceLive, start)
		span.SetStatus(codes.Error, "not found")
	default:
		c.observe("event", SourceUnavailable, start)
		span.SetStatus(codes.Error, err.Error())
		slog.Warn("event fetch failed", "id", id, "error", err)
	}
	return ev, err
}

func (c *Client) eventByID(ctx context.Context, id string) (*model.Event, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrNotFound
	}
	body, err := c.get(ctx, "/events/"+url.PathEscape(id))
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) && se.Code == http.StatusNotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	ev, err := decodeObject[model.Event](body)
	if err != nil {
		return nil, fmt.Errorf("%w: decode event: %v", ErrUnavailable, err)
	}
	ev.Image = c.media.Resolve(ctx, ev.Image)
	ev.Images = media.ResolveAll(ctx, c.media, ev.Images)
	return &ev, nil
}

// Testimonials returns testimonials in canonical shape.
func (c *Client) Testimonials(ctx context.Context) Result[[]model.Testimonial] {
	return fetch(ctx, c, "testimonials", "/testimonials", decodeTestimonials,
		func(ds *Dataset) []model.Testimonial { return ds.testimonials() },
		nil)
}

// GalleryStats returns gallery totals.
func (c *Client) GalleryStats(ctx context.Context) Result[model.GalleryStats] {
	return fetch(ctx, c, "gallery_stats", "/gallery/stats", decodeObject[model.GalleryStats],
		func(ds *Dataset) model.GalleryStats { return ds.GalleryStats },
		nil)
}

// Services returns the offered service lines.
func (c *Client) Services(ctx context.Context) Result[[]model.Service] {
	return fetch(ctx, c, "services", "/services", decodeArray[model.Service],
		func(ds *Dataset) []model.Service { return ds.Services },
		nil)
}

// ServiceFeatures returns the selling points listed under the services grid.
func (c *Client) ServiceFeatures(ctx context.Context) Result[[]model.ServiceFeature] {
	return fetch(ctx, c, "service_features", "/services/features", decodeArray[model.ServiceFeature],
		func(ds *Dataset) []model.ServiceFeature { return ds.ServiceFeatures },
		nil)
}

// EventsStats derives counters from the current event list. The counters are all zero
// when no list can be obtained.
func (c *Client) EventsStats(ctx context.Context) Result[model.EventStats] {
	return StatsFrom(ctx, c, c.now())
}

// fetch performs one GET against the backend and applies the fallback policy.
// reshape runs on both live and fallback data and must not mutate its input.
func fetch[T any](
	ctx context.Context,
	c *Client,
	domain, path string,
	decode func([]byte) (T, error),
	fallback func(*Dataset) T,
	reshape func(context.Context, T) T,
) Result[T] {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "content."+domain)
	defer span.End()
	start := time.Now()

	res := load(ctx, c, domain, path, decode, fallback)
	if ctx.Err() != nil {
		// The caller is gone; hand back nothing rather than stale data.
		res = Result[T]{Source: SourceUnavailable, Err: ctx.Err()}
	}
	if reshape != nil && res.Source != SourceUnavailable {
		res.Data = reshape(ctx, res.Data)
	}

	span.SetAttributes(attribute.String("content.source", string(res.Source)))
	if res.Err != nil {
		span.SetStatus(codes.Error, res.Err.Error())
	}
	c.observe(domain, res.Source, start)
	return res
}

func load[T any](ctx context.Context, c *Client, domain, path string, decode func([]byte) (T, error), fallback func(*Dataset) T) Result[T] {
	body, err := c.get(ctx, path)
	if err == nil {
		data, derr := decode(body)
		if derr == nil {
			return Result[T]{Data: data, Source: SourceLive}
		}
		err = fmt.Errorf("decode %s: %w", path, derr)
	}

	if ctx.Err() != nil {
		return Result[T]{Source: SourceUnavailable, Err: ctx.Err()}
	}
	if c.fallback == nil {
		slog.Warn("backend fetch failed, no fallback configured", "domain", domain, "path", path, "error", err)
		return Result[T]{Source: SourceUnavailable, Err: err}
	}
	slog.Warn("backend fetch failed, serving fallback", "domain", domain, "path", path, "error", err)
	return Result[T]{Data: fallback(c.fallback), Source: SourceFallback, Err: err}
}

// get issues a GET and returns the body of a 2xx response.
func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, &StatusError{Code: resp.StatusCode, Status: resp.Status}
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
}

// post sends body as JSON and reports whether the backend accepted it.
func (c *Client) post(ctx context.Context, path string, body any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Code: resp.StatusCode, Status: resp.Status}
	}
	return nil
}

func (c *Client) resolveEvents(ctx context.Context, events []model.Event) []model.Event {
	if events == nil {
		return nil
	}
	out := make([]model.Event, len(events))
	for i, ev := range events {
		ev.Image = c.media.Resolve(ctx, ev.Image)
		ev.Images = media.ResolveAll(ctx, c.media, ev.Images)
		out[i] = ev
	}
	return out
}

func (c *Client) observe(domain string, src Source, start time.Time) {
	if c.metrics == nil {
		return
	}
	c.metrics.ContentFetchTotal.WithLabelValues(domain, string(src)).Inc()
	c.metrics.ContentFetchDuration.WithLabelValues(domain, string(src)).Observe(time.Since(start).Seconds())
}

// decodeArray decodes a JSON array. Any other top-level value is rejected.
func decodeArray[T any](b []byte) ([]T, error) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || b[0] != '[' {
		return nil, errors.New("expected a JSON array")
	}
	out := []T{}
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func decodeTestimonials(b []byte) ([]model.Testimonial, error) {
	raws, err := decodeArray[model.RawTestimonial](b)
	if err != nil {
		return nil, err
	}
	out := make([]model.Testimonial, 0, len(raws))
	for _, raw := range raws {
		out = append(out, model.NormalizeTestimonial(raw))
	}
	return out, nil
}

// decodeObject decodes a JSON object. Any other top-level value is rejected.
func decodeObject[T any](b []byte) (T, error) {
	var out T
	b = bytes.TrimSpace(b)
	if len(b) == 0 || b[0] != '{' {
		return out, errors.New("expected a JSON object")
	}
	err := json.Unmarshal(b, &out)
	return out, err
}
