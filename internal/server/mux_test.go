// internal/server/mux_test.go
// Package server provides unit tests for the HTTP handlers and routing.
package server

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/abhinandan-events/site-bff-go/internal/admin"
	"github.com/abhinandan-events/site-bff-go/internal/auth"
	"github.com/abhinandan-events/site-bff-go/internal/content"
	"github.com/abhinandan-events/site-bff-go/internal/media"
	"github.com/abhinandan-events/site-bff-go/internal/model"
	"github.com/abhinandan-events/site-bff-go/internal/notify"
	"github.com/abhinandan-events/site-bff-go/internal/storage"
)

// mockPublisher implements event.Publisher and records what was published.
type mockPublisher struct {
	mu            sync.Mutex
	bookings      []model.BookingInquiry
	notifications []model.Notification
}

func (m *mockPublisher) PublishBookingReceived(ctx context.Context, b model.BookingInquiry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bookings = append(m.bookings, b)
	return nil
}

func (m *mockPublisher) PublishNotification(ctx context.Context, n model.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifications = append(m.notifications, n)
	return nil
}

func (m *mockPublisher) Close() error { return nil }

// failingStore wraps a store and fails selected operations.
type failingStore struct {
	storage.Store
	createErr error
	pingErr   error
}

func (f *failingStore) CreateBooking(ctx context.Context, b model.BookingInquiry) error {
	if f.createErr != nil {
		return f.createErr
	}
	return f.Store.CreateBooking(ctx, b)
}

func (f *failingStore) Ping(ctx context.Context) error {
	if f.pingErr != nil {
		return f.pingErr
	}
	return f.Store.Ping(ctx)
}

// fakeBackend answers like the site's REST API.
func fakeBackend(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/events", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":1,"title":"Gala","image":"/gala.jpg","date":"2026-01-01","location":"Mumbai"}]`))
	})
	mux.HandleFunc("GET /api/events/{id}", func(w http.ResponseWriter, r *http.Request) {
		switch r.PathValue("id") {
		case "1":
			_, _ = w.Write([]byte(`{"id":1,"title":"Gala","image":"https://cdn.example.com/gala.jpg"}`))
		case "broken":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	mux.HandleFunc("POST /api/contact", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})
	mux.HandleFunc("POST /api/admin/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req["password"] != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"token":"backend-token"}`))
	})
	mux.HandleFunc("GET /api/admin/dashboard", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer backend-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"gallery":1,"events":2,"testimonials":3,"enquiries":4,"bookings":5}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

type testEnv struct {
	handler http.Handler
	store   storage.Store
	pub     *mockPublisher
	notes   *notify.Store
}

// newTestEnv wires a mux against apiBase. An empty apiBase starts the fake backend.
func newTestEnv(t *testing.T, apiBase string, store storage.Store) *testEnv {
	t.Helper()
	hc := http.DefaultClient
	if apiBase == "" {
		srv := fakeBackend(t)
		apiBase, hc = srv.URL+"/api", srv.Client()
	}
	if store == nil {
		store = storage.NewMemory()
	}
	env := &testEnv{store: store, pub: &mockPublisher{}, notes: notify.NewStore(10)}
	mux, err := NewMux(Deps{
		Content:            content.New(apiBase, media.NewBaseResolver("http://media.test"), content.WithHTTPClient(hc)),
		Admin:              admin.NewWithHTTPClient(apiBase, hc),
		Verifier:           auth.NewVerifier("", ""),
		Notifications:      env.notes,
		Store:              store,
		Publisher:          env.pub,
		CORSAllowedOrigins: []string{"https://site.example.com"},
		Now:                func() time.Time { return time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC) },
	})
	if err != nil {
		t.Fatalf("NewMux() error = %v", err)
	}
	env.handler = mux
	return env
}

func (e *testEnv) do(t *testing.T, method, path, body string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	rr := httptest.NewRecorder()
	e.handler.ServeHTTP(rr, req)
	return rr
}

var adminHeader = http.Header{"Authorization": {"Bearer backend-token"}}

type envelope struct {
	Data json.RawMessage `json:"data"`
	Meta struct {
		Source string `json:"source"`
	} `json:"meta"`
	Error struct {
		Code          string `json:"code"`
		Message       string `json:"message"`
		CorrelationID string `json:"correlationId"`
	} `json:"error"`
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode response %q: %v", rr.Body.String(), err)
	}
	return env
}

func decodeReceipt(t *testing.T, rr *httptest.ResponseRecorder) model.Receipt {
	t.Helper()
	var rc model.Receipt
	if err := json.Unmarshal(rr.Body.Bytes(), &rc); err != nil {
		t.Fatalf("decode receipt %q: %v", rr.Body.String(), err)
	}
	return rc
}

// TestHealthzEndpoint tests the healthz endpoint.
func TestHealthzEndpoint(t *testing.T) {
	env := newTestEnv(t, "", nil)
	rr := env.do(t, http.MethodGet, "/healthz", "", nil)
	if rr.Code != http.StatusOK || rr.Body.String() != "ok" {
		t.Errorf("healthz = %d %q", rr.Code, rr.Body.String())
	}
}

// TestReadyzEndpoint tests that readiness follows the booking store.
func TestReadyzEndpoint(t *testing.T) {
	env := newTestEnv(t, "", nil)
	if rr := env.do(t, http.MethodGet, "/readyz", "", nil); rr.Code != http.StatusOK {
		t.Errorf("readyz = %d, want 200", rr.Code)
	}

	down := newTestEnv(t, "", &failingStore{Store: storage.NewMemory(), pingErr: errors.New("db down")})
	if rr := down.do(t, http.MethodGet, "/readyz", "", nil); rr.Code != http.StatusServiceUnavailable {
		t.Errorf("readyz with failing store = %d, want 503", rr.Code)
	}
}

// TestEvents tests the live and fallback paths of the event list.
func TestEvents(t *testing.T) {
	env := newTestEnv(t, "", nil)
	rr := env.do(t, http.MethodGet, "/v1/events", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	body := decode(t, rr)
	if body.Meta.Source != "live" || rr.Header().Get("X-Content-Source") != "live" {
		t.Errorf("source = %q", body.Meta.Source)
	}
	var events []model.Event
	if err := json.Unmarshal(body.Data, &events); err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 || events[0].Image != "http://media.test/gala.jpg" {
		t.Errorf("events = %+v", events)
	}

	offline := newTestEnv(t, "http://127.0.0.1:1/api", nil)
	body = decode(t, offline.do(t, http.MethodGet, "/v1/events", "", nil))
	if body.Meta.Source != "fallback" {
		t.Errorf("offline source = %q, want fallback", body.Meta.Source)
	}
	if err := json.Unmarshal(body.Data, &events); err != nil || len(events) == 0 {
		t.Errorf("offline events = %s, %v", body.Data, err)
	}
}

// TestEventStats tests that stats are derived from the event list.
func TestEventStats(t *testing.T) {
	env := newTestEnv(t, "", nil)
	body := decode(t, env.do(t, http.MethodGet, "/v1/events/stats", "", nil))
	var stats model.EventStats
	if err := json.Unmarshal(body.Data, &stats); err != nil {
		t.Fatal(err)
	}
	if stats.CitiesCovered != 1 || body.Meta.Source != "live" {
		t.Errorf("stats = %+v source %q", stats, body.Meta.Source)
	}
}

// TestEventByID tests that not found and unavailable are told apart.
func TestEventByID(t *testing.T) {
	env := newTestEnv(t, "", nil)
	tests := []struct {
		id     string
		status int
		code   string
	}{
		{"1", http.StatusOK, ""},
		{"missing", http.StatusNotFound, "SITE_NOT_FOUND"},
		{"broken", http.StatusServiceUnavailable, "SITE_UNAVAILABLE"},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			rr := env.do(t, http.MethodGet, "/v1/events/"+tt.id, "", nil)
			if rr.Code != tt.status {
				t.Fatalf("status = %d, want %d", rr.Code, tt.status)
			}
			body := decode(t, rr)
			if body.Error.Code != tt.code {
				t.Errorf("error code = %q, want %q", body.Error.Code, tt.code)
			}
		})
	}
}

// TestMethodNotAllowed tests the JSON 405 answer.
func TestMethodNotAllowed(t *testing.T) {
	env := newTestEnv(t, "", nil)
	rr := env.do(t, http.MethodDelete, "/v1/events", "", nil)
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d", rr.Code)
	}
	if rr.Header().Get("Allow") != "GET" {
		t.Errorf("Allow = %q", rr.Header().Get("Allow"))
	}
	if body := decode(t, rr); body.Error.Code != "SITE_METHOD_NOT_ALLOWED" {
		t.Errorf("code = %q", body.Error.Code)
	}
}

// TestCORS tests preflight handling for allowed and unknown origins.
func TestCORS(t *testing.T) {
	env := newTestEnv(t, "", nil)

	rr := env.do(t, http.MethodOptions, "/v1/booking", "", http.Header{"Origin": {"https://site.example.com"}})
	if rr.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d", rr.Code)
	}
	if rr.Header().Get("Access-Control-Allow-Origin") != "https://site.example.com" {
		t.Errorf("allow origin = %q", rr.Header().Get("Access-Control-Allow-Origin"))
	}

	rr = env.do(t, http.MethodOptions, "/v1/booking", "", http.Header{"Origin": {"https://evil.example.com"}})
	if rr.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Errorf("unknown origin allowed")
	}
}

// TestCorrelationID tests that correlation IDs are echoed or generated.
func TestCorrelationID(t *testing.T) {
	env := newTestEnv(t, "", nil)
	rr := env.do(t, http.MethodGet, "/v1/events/missing", "", http.Header{"X-Correlation-Id": {"cid-123"}})
	if rr.Header().Get("X-Correlation-Id") != "cid-123" {
		t.Errorf("header = %q", rr.Header().Get("X-Correlation-Id"))
	}
	if body := decode(t, rr); body.Error.CorrelationID != "cid-123" {
		t.Errorf("body correlationId = %q", body.Error.CorrelationID)
	}

	rr = env.do(t, http.MethodGet, "/v1/services", "", nil)
	if rr.Header().Get("X-Correlation-Id") == "" {
		t.Error("no correlation ID generated")
	}
}

// TestBooking tests booking intake validation, storage and publishing.
func TestBooking(t *testing.T) {
	env := newTestEnv(t, "", nil)

	tests := []struct {
		name string
		body string
		want string
	}{
		{"missing email", `{"fullName":"Asha Rao"}`, MsgBookingMissingFields},
		{"blank name", `{"fullName":"   ","email":"asha@example.com"}`, MsgBookingMissingFields},
		{"bad email", `{"fullName":"Asha Rao","email":"not-an-email"}`, MsgBookingMissingFields},
		{"not json", `{"fullName":`, MsgBookingInvalidBody},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.do(t, http.MethodPost, "/v1/booking", tt.body, nil)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("status = %d", rr.Code)
			}
			rc := decodeReceipt(t, rr)
			if rc.Success || rc.Message != tt.want {
				t.Errorf("receipt = %+v, want message %q", rc, tt.want)
			}
		})
	}

	rr := env.do(t, http.MethodPost, "/v1/booking", `{"fullName":"Asha Rao","email":"asha@example.com","eventType":"Wedding","guestCount":120,"venue":"Udaipur"}`, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("valid booking status = %d body %s", rr.Code, rr.Body.String())
	}
	if rc := decodeReceipt(t, rr); !rc.Success || rc.Message != MsgBookingAccepted {
		t.Errorf("receipt = %+v", rc)
	}

	stored, err := env.store.ListBookings(context.Background(), 10)
	if err != nil || len(stored) != 1 {
		t.Fatalf("stored = %v, %v", stored, err)
	}
	if stored[0].GuestCount != 120 || stored[0].ID == "" || !stored[0].CreatedAt.Equal(time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)) {
		t.Errorf("stored booking = %+v", stored[0])
	}
	if len(env.pub.bookings) != 1 || env.pub.bookings[0].ID != stored[0].ID {
		t.Errorf("published = %+v", env.pub.bookings)
	}
	if loc := rr.Header().Get("Location"); loc != "/v1/admin/inquiries/"+stored[0].ID {
		t.Errorf("Location = %q", loc)
	}
}

// TestBookingStoreFailure tests the 500 receipt.
func TestBookingStoreFailure(t *testing.T) {
	env := newTestEnv(t, "", &failingStore{Store: storage.NewMemory(), createErr: errors.New("disk full")})
	rr := env.do(t, http.MethodPost, "/v1/booking", `{"fullName":"Asha Rao","email":"asha@example.com"}`, nil)
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rr.Code)
	}
	if rc := decodeReceipt(t, rr); rc.Success || rc.Message != MsgBookingFailed {
		t.Errorf("receipt = %+v", rc)
	}
	if len(env.pub.bookings) != 0 {
		t.Error("failed booking was published")
	}
}

// TestContact tests validation and forwarding of the contact form.
func TestContact(t *testing.T) {
	env := newTestEnv(t, "", nil)

	rr := env.do(t, http.MethodPost, "/v1/contact", `{"name":"Ravi","email":"ravi@example.com","message":"hi"}`, nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("short message status = %d", rr.Code)
	}
	if body := decode(t, rr); body.Error.Code != "SITE_VALIDATION" {
		t.Errorf("code = %q", body.Error.Code)
	}

	rr = env.do(t, http.MethodPost, "/v1/contact", `{"name":"Ravi","email":"ravi@example.com","message":"Planning a launch event in March."}`, nil)
	if rc := decodeReceipt(t, rr); !rc.Success || rc.Message != content.MsgContactSent {
		t.Errorf("receipt = %+v", rc)
	}

	offline := newTestEnv(t, "http://127.0.0.1:1/api", nil)
	rr = offline.do(t, http.MethodPost, "/v1/newsletter", `{"email":"ravi@example.com"}`, nil)
	if rc := decodeReceipt(t, rr); !rc.Success || rc.Message != content.MsgNewsletterQueued {
		t.Errorf("offline newsletter receipt = %+v", rc)
	}
}

// TestAdminRequiresToken tests the bearer check and token passthrough.
func TestAdminRequiresToken(t *testing.T) {
	env := newTestEnv(t, "", nil)

	rr := env.do(t, http.MethodGet, "/v1/admin/dashboard", "", nil)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("no token status = %d", rr.Code)
	}
	if body := decode(t, rr); body.Error.Code != "SITE_AUTHN" {
		t.Errorf("code = %q", body.Error.Code)
	}

	rr = env.do(t, http.MethodGet, "/v1/admin/dashboard", "", http.Header{"Authorization": {"Bearer stale"}})
	if rr.Code != http.StatusForbidden {
		t.Errorf("rejected token status = %d, want 403", rr.Code)
	}

	rr = env.do(t, http.MethodGet, "/v1/admin/dashboard", "", adminHeader)
	if rr.Code != http.StatusOK {
		t.Fatalf("dashboard status = %d", rr.Code)
	}
	var stats model.DashboardStats
	if err := json.Unmarshal(decode(t, rr).Data, &stats); err != nil || stats.Bookings != 5 {
		t.Errorf("stats = %+v, %v", stats, err)
	}
}

// TestAdminLogin tests credential exchange.
func TestAdminLogin(t *testing.T) {
	env := newTestEnv(t, "", nil)

	rr := env.do(t, http.MethodPost, "/v1/admin/login", `{"email":"admin@example.com","password":"secret"}`, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var out map[string]string
	if err := json.Unmarshal(decode(t, rr).Data, &out); err != nil || out["token"] != "backend-token" {
		t.Errorf("token = %v, %v", out, err)
	}

	rr = env.do(t, http.MethodPost, "/v1/admin/login", `{"email":"admin@example.com","password":"wrong"}`, nil)
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("bad credentials status = %d", rr.Code)
	}

	rr = env.do(t, http.MethodPost, "/v1/admin/login", `{"email":""}`, nil)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("missing fields status = %d", rr.Code)
	}
}

// TestAdminInquiries tests listing and reading locally stored bookings.
func TestAdminInquiries(t *testing.T) {
	env := newTestEnv(t, "", nil)
	rr := env.do(t, http.MethodPost, "/v1/booking", `{"fullName":"Asha Rao","email":"asha@example.com"}`, nil)
	loc := rr.Header().Get("Location")

	rr = env.do(t, http.MethodGet, "/v1/admin/inquiries?limit=5", "", adminHeader)
	var list []model.BookingInquiry
	if err := json.Unmarshal(decode(t, rr).Data, &list); err != nil || len(list) != 1 {
		t.Fatalf("inquiries = %v, %v", list, err)
	}

	if rr := env.do(t, http.MethodGet, loc, "", adminHeader); rr.Code != http.StatusOK {
		t.Errorf("GET %s = %d", loc, rr.Code)
	}
	if rr := env.do(t, http.MethodGet, "/v1/admin/inquiries/nope", "", adminHeader); rr.Code != http.StatusNotFound {
		t.Errorf("missing inquiry = %d", rr.Code)
	}
	if rr := env.do(t, http.MethodGet, "/v1/admin/inquiries?limit=x", "", adminHeader); rr.Code != http.StatusBadRequest {
		t.Errorf("bad limit = %d", rr.Code)
	}
}

// TestNotifications tests the snapshot and mark-all-read endpoints.
func TestNotifications(t *testing.T) {
	env := newTestEnv(t, "", nil)
	env.notes.Add(model.KindBooking, "New booking from Asha")
	env.notes.Add(model.KindContact, "New contact from Ravi")

	var snap notify.Snapshot
	if err := json.Unmarshal(decode(t, env.do(t, http.MethodGet, "/v1/admin/notifications", "", adminHeader)).Data, &snap); err != nil {
		t.Fatal(err)
	}
	if snap.UnreadCount != 2 || snap.Notifications[0].Message != "New contact from Ravi" {
		t.Errorf("snapshot = %+v", snap)
	}

	var marked map[string]int
	if err := json.Unmarshal(decode(t, env.do(t, http.MethodPost, "/v1/admin/notifications/read", "", adminHeader)).Data, &marked); err != nil {
		t.Fatal(err)
	}
	if marked["marked"] != 2 || marked["unreadCount"] != 0 {
		t.Errorf("mark read = %v", marked)
	}
}

// readEvent returns the data line of the next Server-Sent Event.
func readEvent(t *testing.T, r *bufio.Reader) string {
	t.Helper()
	var data string
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			t.Fatalf("read stream: %v", err)
		}
		line = strings.TrimRight(line, "\n")
		switch {
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimPrefix(line, "data: ")
		case line == "" && data != "":
			return data
		}
	}
}

// TestNotificationStream tests that snapshots are pushed as they change.
func TestNotificationStream(t *testing.T) {
	env := newTestEnv(t, "", nil)
	srv := httptest.NewServer(env.handler)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/v1/admin/notifications/stream", nil)
	req.Header.Set("Authorization", "Bearer backend-token")
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("Content-Type = %q", ct)
	}

	r := bufio.NewReader(resp.Body)
	var snap notify.Snapshot
	if err := json.Unmarshal([]byte(readEvent(t, r)), &snap); err != nil {
		t.Fatal(err)
	}
	if len(snap.Notifications) != 0 {
		t.Errorf("initial snapshot = %+v", snap)
	}

	env.notes.Add(model.KindTestimonial, "New testimonial from Meera")
	if err := json.Unmarshal([]byte(readEvent(t, r)), &snap); err != nil {
		t.Fatal(err)
	}
	if snap.UnreadCount != 1 || snap.Notifications[0].Kind != model.KindTestimonial {
		t.Errorf("pushed snapshot = %+v", snap)
	}
}
