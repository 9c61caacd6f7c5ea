// internal/admin/client.go
// Package admin provides a client for the backend's back-office API.
// Every call except Login and Gallery carries the admin's bearer token.
// Admin calls never fall back to bundled data.
package admin

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/abhinandan-events/site-bff-go/internal/model"
)

var (
	// ErrUnauthorized is returned when the backend rejects the token or credentials (401/403).
	ErrUnauthorized = errors.New("admin: unauthorized")
	// ErrNotFound is returned when the addressed record does not exist (404).
	ErrNotFound = errors.New("admin: not found")
	// ErrUpstream is returned for any other unexpected backend answer.
	ErrUpstream = errors.New("admin: upstream error")
)

const maxBody = 8 << 20

// Client for the back-office endpoints under {api}/admin.
type Client struct {
	base string       // Backend REST API base URL
	hc   *http.Client // HTTP client with custom configuration
}

// New creates a new admin client for apiBase.
// It configures the same dial timeout as the content client; timeout bounds each call.
func New(apiBase string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	transport := &http.Transport{
		DialContext: (&net.Dialer{Timeout: 2 * time.Second}).DialContext,
	}
	return &Client{
		base: strings.TrimRight(apiBase, "/"),
		hc:   &http.Client{Transport: transport, Timeout: timeout},
	}
}

// NewWithHTTPClient creates a client that uses hc for every request.
func NewWithHTTPClient(apiBase string, hc *http.Client) *Client {
	return &Client{base: strings.TrimRight(apiBase, "/"), hc: hc}
}

// Login exchanges admin credentials for a bearer token.
// Parameters:
//   - ctx: Context for the request
//   - email, password: Admin credentials
//
// Returns:
//   - string: Token to send on subsequent admin calls
//   - error: ErrUnauthorized when the credentials are rejected, or other error
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	var out struct {
		Token   string `json:"token"`
		Message string `json:"message"`
	}
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/admin/auth/login", "", body, &out); err != nil {
		return "", err
	}
	if out.Token == "" {
		return "", fmt.Errorf("%w: login response without token", ErrUpstream)
	}
	return out.Token, nil
}

// Dashboard returns the back-office totals.
func (c *Client) Dashboard(ctx context.Context, token string) (model.DashboardStats, error) {
	var out model.DashboardStats
	err := c.do(ctx, http.MethodGet, "/admin/dashboard", token, nil, &out)
	return out, err
}

// Bookings lists stored bookings.
func (c *Client) Bookings(ctx context.Context, token string) ([]model.Booking, error) {
	out := []model.Booking{}
	err := c.do(ctx, http.MethodGet, "/admin/bookings", token, nil, &out)
	return out, err
}

// ApproveBooking marks a booking approved.
func (c *Client) ApproveBooking(ctx context.Context, token, id string) error {
	return c.do(ctx, http.MethodPatch, "/admin/bookings/"+url.PathEscape(id)+"/approve", token, nil, nil)
}

// Enquiries lists contact-form messages.
func (c *Client) Enquiries(ctx context.Context, token string) ([]model.Enquiry, error) {
	out := []model.Enquiry{}
	err := c.do(ctx, http.MethodGet, "/admin/enquiries", token, nil, &out)
	return out, err
}

// Testimonials lists every testimonial, including inactive ones, in canonical shape.
func (c *Client) Testimonials(ctx context.Context, token string) ([]model.Testimonial, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/admin/testimonials", token, nil, &raw); err != nil {
		return nil, err
	}
	out, err := model.DecodeTestimonials(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: decode testimonials: %v", ErrUpstream, err)
	}
	return out, nil
}

// ToggleTestimonial flips a testimonial's visibility on the public site.
func (c *Client) ToggleTestimonial(ctx context.Context, token, id string) error {
	return c.do(ctx, http.MethodPatch, "/admin/testimonials/"+url.PathEscape(id)+"/toggle", token, nil, nil)
}

// DeleteTestimonial removes a testimonial.
func (c *Client) DeleteTestimonial(ctx context.Context, token, id string) error {
	return c.do(ctx, http.MethodDelete, "/admin/testimonials/"+url.PathEscape(id), token, nil, nil)
}

// CreateEvent creates an event. Images are forwarded as given.
func (c *Client) CreateEvent(ctx context.Context, token string, ev model.NewEvent) (json.RawMessage, error) {
	var out json.RawMessage
	err := c.do(ctx, http.MethodPost, "/admin/events", token, ev, &out)
	return out, err
}

// DeleteEvent removes an event.
func (c *Client) DeleteEvent(ctx context.Context, token, id string) error {
	return c.do(ctx, http.MethodDelete, "/admin/events/"+url.PathEscape(id), token, nil, nil)
}

// Gallery lists gallery items. The endpoint is public.
func (c *Client) Gallery(ctx context.Context) ([]model.GalleryItem, error) {
	out := []model.GalleryItem{}
	err := c.do(ctx, http.MethodGet, "/gallery", "", nil, &out)
	return out, err
}

// CreateGalleryItem adds a gallery entry.
func (c *Client) CreateGalleryItem(ctx context.Context, token string, item model.NewGalleryItem) (json.RawMessage, error) {
	var out json.RawMessage
	err := c.do(ctx, http.MethodPost, "/admin/gallery", token, item, &out)
	return out, err
}

// DeleteGalleryItem removes a gallery entry.
func (c *Client) DeleteGalleryItem(ctx context.Context, token, id string) error {
	return c.do(ctx, http.MethodDelete, "/admin/gallery/"+url.PathEscape(id), token, nil, nil)
}

// do performs one backend call. in is JSON-encoded when non-nil; out is decoded when
// non-nil and the body is not empty.
func (c *Client) do(ctx context.Context, method, path, token string, in, out any) error {
	ctx, span := otel.Tracer("admin").Start(ctx, "admin."+method)
	defer span.End()
	span.SetAttributes(attribute.String("admin.path", path))

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport")
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	switch {
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return ErrUnauthorized
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		span.SetStatus(codes.Error, resp.Status)
		return fmt.Errorf("%w: %s %s: %s", ErrUpstream, method, path, resp.Status)
	}

	if out == nil {
		return nil
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return fmt.Errorf("%w: read body: %v", ErrUpstream, err)
	}
	if len(bytes.TrimSpace(b)) == 0 {
		return nil
	}
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("%w: decode %s: %v", ErrUpstream, path, err)
	}
	return nil
}
