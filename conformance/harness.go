// Package conformance provides a harness that checks the site service's HTTP contract:
// every content route answers with the data/meta envelope, errors follow the taxonomy,
// and the admin surface is closed to anonymous callers. It runs against any backend URL;
// with none configured it checks degraded (fallback) operation.
package conformance

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/abhinandan-events/site-bff-go/internal/admin"
	"github.com/abhinandan-events/site-bff-go/internal/auth"
	"github.com/abhinandan-events/site-bff-go/internal/content"
	"github.com/abhinandan-events/site-bff-go/internal/event"
	"github.com/abhinandan-events/site-bff-go/internal/media"
	"github.com/abhinandan-events/site-bff-go/internal/notify"
	"github.com/abhinandan-events/site-bff-go/internal/server"
	"github.com/abhinandan-events/site-bff-go/internal/storage"
)

// unreachableBackend refuses connections immediately.
const unreachableBackend = "http://127.0.0.1:1/api"

// Harness runs the site service in an httptest server.
type Harness struct {
	server  *httptest.Server
	store   storage.Store
	pub     event.Publisher
	offline bool
}

// Config holds configuration for the conformance harness.
type Config struct {
	// BackendURL is the REST API the service talks to; empty means unreachable
	BackendURL string

	// MediaURL is the base for relative media references
	MediaURL string

	// AdminJWTSecret enables local admin token verification
	AdminJWTSecret string
}

// NewHarness creates a new conformance harness.
func NewHarness(cfg Config) (*Harness, error) {
	backend := cfg.BackendURL
	if backend == "" {
		backend = unreachableBackend
	}
	mediaURL := cfg.MediaURL
	if mediaURL == "" {
		mediaURL = "http://media.invalid"
	}

	store := storage.NewMemory()
	pub := event.NewNoop()
	mux, err := server.NewMux(server.Deps{
		Content:       content.New(backend, media.NewBaseResolver(mediaURL)),
		Admin:         admin.New(backend, 0),
		Verifier:      auth.NewVerifier(cfg.AdminJWTSecret, ""),
		Notifications: notify.NewStore(notify.DefaultLimit),
		Store:         store,
		Publisher:     pub,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build mux: %w", err)
	}

	return &Harness{
		server:  httptest.NewServer(mux),
		store:   store,
		pub:     pub,
		offline: cfg.BackendURL == "",
	}, nil
}

// URL returns the base URL of the test server.
func (h *Harness) URL() string {
	return h.server.URL
}

// Close shuts down the test server and cleans up resources.
func (h *Harness) Close() {
	h.server.Close()
	h.pub.Close()
	h.store.Close()
}

// RunConformanceTests runs every contract check.
func (h *Harness) RunConformanceTests(t *testing.T) {
	t.Run("HealthEndpoints", h.testHealthEndpoints)
	t.Run("ContentEnvelope", h.testContentEnvelope)
	t.Run("ErrorEnvelope", h.testErrorEnvelope)
	t.Run("MethodCompliance", h.testMethodCompliance)
	t.Run("AdminAuth", h.testAdminAuth)
	t.Run("Forms", h.testForms)
}

// contentRoutes are the visitor-facing read endpoints.
var contentRoutes = []string{
	"/v1/events",
	"/v1/events/stats",
	"/v1/testimonials",
	"/v1/gallery/photos",
	"/v1/gallery/videos",
	"/v1/gallery/stats",
	"/v1/services",
	"/v1/services/features",
}

// adminRoutes are admin endpoints that require a bearer token.
var adminRoutes = []struct{ method, path string }{
	{http.MethodGet, "/v1/admin/dashboard"},
	{http.MethodGet, "/v1/admin/bookings"},
	{http.MethodPatch, "/v1/admin/bookings/1/approve"},
	{http.MethodGet, "/v1/admin/inquiries"},
	{http.MethodGet, "/v1/admin/enquiries"},
	{http.MethodGet, "/v1/admin/testimonials"},
	{http.MethodPatch, "/v1/admin/testimonials/1/toggle"},
	{http.MethodDelete, "/v1/admin/testimonials/1"},
	{http.MethodPost, "/v1/admin/events"},
	{http.MethodDelete, "/v1/admin/events/1"},
	{http.MethodGet, "/v1/admin/gallery"},
	{http.MethodPost, "/v1/admin/gallery"},
	{http.MethodDelete, "/v1/admin/gallery/1"},
	{http.MethodGet, "/v1/admin/notifications"},
	{http.MethodPost, "/v1/admin/notifications/read"},
	{http.MethodGet, "/v1/admin/notifications/stream"},
}

type envelope struct {
	Data *json.RawMessage `json:"data"`
	Meta *struct {
		Source string `json:"source"`
	} `json:"meta"`
	Error *struct {
		Code          string `json:"code"`
		Message       string `json:"message"`
		CorrelationID string `json:"correlationId"`
	} `json:"error"`
}

func (h *Harness) do(t *testing.T, method, path, body string) (*http.Response, envelope) {
	t.Helper()
	req, err := http.NewRequest(method, h.URL()+path, strings.NewReader(body))
	if err != nil {
		t.Fatalf("build %s %s: %v", method, path, err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := h.server.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var env envelope
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
			t.Errorf("%s %s: undecodable JSON: %v", method, path, err)
		}
	}
	return resp, env
}

// testHealthEndpoints tests the health check endpoints.
func (h *Harness) testHealthEndpoints(t *testing.T) {
	for _, path := range []string{"/healthz", "/readyz", "/metrics"} {
		resp, _ := h.do(t, http.MethodGet, path, "")
		if resp.StatusCode != http.StatusOK {
			t.Errorf("expected status 200 for %s, got %d", path, resp.StatusCode)
		}
	}
}

// testContentEnvelope checks that content routes never fail outright.
func (h *Harness) testContentEnvelope(t *testing.T) {
	for _, path := range contentRoutes {
		resp, env := h.do(t, http.MethodGet, path, "")
		if resp.StatusCode != http.StatusOK {
			t.Errorf("%s: status %d, want 200", path, resp.StatusCode)
			continue
		}
		if env.Data == nil || string(*env.Data) == "null" {
			t.Errorf("%s: missing data", path)
		}
		if env.Meta == nil {
			t.Errorf("%s: missing meta", path)
			continue
		}
		switch content.Source(env.Meta.Source) {
		case content.SourceLive, content.SourceFallback, content.SourceStatic:
		default:
			t.Errorf("%s: unexpected source %q", path, env.Meta.Source)
		}
		if h.offline && env.Meta.Source == string(content.SourceLive) {
			t.Errorf("%s: live source with no backend", path)
		}
		if got := resp.Header.Get("X-Content-Source"); got != env.Meta.Source {
			t.Errorf("%s: X-Content-Source %q disagrees with meta %q", path, got, env.Meta.Source)
		}
	}
}

// testErrorEnvelope checks the error shape and correlation IDs.
func (h *Harness) testErrorEnvelope(t *testing.T) {
	resp, env := h.do(t, http.MethodGet, "/v1/events/conformance-missing", "")
	if resp.StatusCode != http.StatusNotFound && resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("event by id: status %d, want 404 or 503", resp.StatusCode)
	}
	if env.Error == nil {
		t.Fatal("event by id: missing error object")
	}
	if env.Error.Code == "" || env.Error.Message == "" {
		t.Errorf("event by id: incomplete error %+v", *env.Error)
	}
	if env.Error.CorrelationID == "" || env.Error.CorrelationID != resp.Header.Get("X-Correlation-Id") {
		t.Errorf("event by id: correlationId %q does not match header %q", env.Error.CorrelationID, resp.Header.Get("X-Correlation-Id"))
	}
}

// testMethodCompliance checks that unsupported methods get a 405 error envelope.
func (h *Harness) testMethodCompliance(t *testing.T) {
	for _, path := range contentRoutes {
		resp, env := h.do(t, http.MethodPut, path, `{}`)
		if resp.StatusCode != http.StatusMethodNotAllowed {
			t.Errorf("PUT %s: status %d, want 405", path, resp.StatusCode)
		}
		if env.Error == nil || env.Error.Code != "SITE_METHOD_NOT_ALLOWED" {
			t.Errorf("PUT %s: missing SITE_METHOD_NOT_ALLOWED", path)
		}
	}
}

// testAdminAuth checks that no admin route is reachable without a token.
func (h *Harness) testAdminAuth(t *testing.T) {
	for _, r := range adminRoutes {
		resp, env := h.do(t, r.method, r.path, "")
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("%s %s: status %d, want 401", r.method, r.path, resp.StatusCode)
			continue
		}
		if env.Error == nil || env.Error.Code != "SITE_AUTHN" {
			t.Errorf("%s %s: missing SITE_AUTHN", r.method, r.path)
		}
	}
}

// testForms checks that valid submissions always give the visitor a positive receipt,
// whatever the backend does.
func (h *Harness) testForms(t *testing.T) {
	forms := []struct{ path, body string }{
		{"/v1/contact", `{"name":"Conformance","email":"c@example.com","message":"Checking the contact form."}`},
		{"/v1/newsletter", `{"email":"c@example.com"}`},
		{"/v1/testimonials", `{"name":"Conformance","message":"Great team","rating":5}`},
		{"/v1/booking", `{"fullName":"Conformance","email":"c@example.com"}`},
	}
	for _, f := range forms {
		req, _ := http.NewRequest(http.MethodPost, h.URL()+f.path, strings.NewReader(f.body))
		req.Header.Set("Content-Type", "application/json")
		resp, err := h.server.Client().Do(req)
		if err != nil {
			t.Fatalf("POST %s: %v", f.path, err)
		}
		var receipt struct {
			Success bool   `json:"success"`
			Message string `json:"message"`
		}
		err = json.NewDecoder(resp.Body).Decode(&receipt)
		resp.Body.Close()
		if err != nil || resp.StatusCode != http.StatusOK || !receipt.Success || receipt.Message == "" {
			t.Errorf("POST %s: status %d receipt %+v err %v", f.path, resp.StatusCode, receipt, err)
		}
	}
}
