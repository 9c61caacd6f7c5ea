// internal/server/mux.go
// Package server implements the HTTP handlers and routing for the site service.
// It exposes the visitor-facing content with fallback, the public forms, booking intake
// and the admin back-office, including the live notification feed.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/abhinandan-events/site-bff-go/internal/admin"
	"github.com/abhinandan-events/site-bff-go/internal/auth"
	"github.com/abhinandan-events/site-bff-go/internal/content"
	errordefs "github.com/abhinandan-events/site-bff-go/internal/errors"
	"github.com/abhinandan-events/site-bff-go/internal/event"
	"github.com/abhinandan-events/site-bff-go/internal/metrics"
	"github.com/abhinandan-events/site-bff-go/internal/notify"
	"github.com/abhinandan-events/site-bff-go/internal/schema"
	"github.com/abhinandan-events/site-bff-go/internal/storage"
)

// ContextKey is used for context values to avoid collisions
// when storing values in request context
type ContextKey string

const (
	ContextKeyCorrelationID ContextKey = "correlationId" // Unique ID for request tracking
	ContextKeyAdmin         ContextKey = "admin"         // Authenticated auth.Principal

	maxFormBytes  = 1 << 20  // Public form bodies
	maxAdminBytes = 32 << 20 // Admin bodies carry base64 images

	tracerName = "site-server"
)

// Deps are the collaborators the HTTP surface needs. Content, Admin, Verifier,
// Notifications and Store are required.
type Deps struct {
	Content       *content.Client
	Admin         *admin.Client
	Verifier      *auth.Verifier
	Notifications *notify.Store
	Store         storage.Store
	Publisher     event.Publisher   // No-op when nil
	Validator     *schema.Validator // Compiled on demand when nil
	Metrics       *metrics.Metrics  // Process-wide metrics when nil

	CORSAllowedOrigins []string         // Allowed origins for CORS (empty means deny all)
	Now                func() time.Time // Clock for booking timestamps
	Done               <-chan struct{}  // Closing it ends open notification streams
}

// Mux handles HTTP requests for the site service.
type Mux struct {
	mux       *http.ServeMux
	content   *content.Client
	admin     *admin.Client
	verifier  *auth.Verifier
	notes     *notify.Store
	store     storage.Store
	pub       event.Publisher
	validator *schema.Validator
	metrics   *metrics.Metrics

	corsAllowedOrigins []string
	now                func() time.Time
	done               <-chan struct{}
}

// methods maps HTTP methods to the handler serving them on one path.
type methods map[string]http.HandlerFunc

// NewMux creates the HTTP mux with every site endpoint registered.
func NewMux(d Deps) (*http.ServeMux, error) {
	if d.Content == nil || d.Admin == nil || d.Verifier == nil || d.Notifications == nil || d.Store == nil {
		return nil, fmt.Errorf("server: content, admin, verifier, notifications and store are required")
	}
	m := &Mux{
		mux:                http.NewServeMux(),
		content:            d.Content,
		admin:              d.Admin,
		verifier:           d.Verifier,
		notes:              d.Notifications,
		store:              d.Store,
		pub:                d.Publisher,
		validator:          d.Validator,
		metrics:            d.Metrics,
		corsAllowedOrigins: d.CORSAllowedOrigins,
		now:                d.Now,
		done:               d.Done,
	}
	if m.pub == nil {
		m.pub = event.NewNoop()
	}
	if m.validator == nil {
		v, err := schema.NewValidator()
		if err != nil {
			return nil, err
		}
		m.validator = v
	}
	if m.metrics == nil {
		m.metrics = metrics.NewMetrics()
	}
	if m.now == nil {
		m.now = time.Now
	}

	// Health endpoints
	m.mux.HandleFunc("/healthz", m.handleHealthz)
	m.mux.HandleFunc("/readyz", m.handleReadyz)
	m.mux.Handle("/metrics", promhttp.Handler())

	// Site content
	m.route("/v1/events", methods{http.MethodGet: m.handleEvents})
	m.route("/v1/events/stats", methods{http.MethodGet: m.handleEventStats})
	m.route("/v1/events/{id}", methods{http.MethodGet: m.handleEventByID})
	m.route("/v1/testimonials", methods{http.MethodGet: m.handleTestimonials, http.MethodPost: m.handleSubmitTestimonial})
	m.route("/v1/gallery/photos", methods{http.MethodGet: m.handleGalleryPhotos})
	m.route("/v1/gallery/videos", methods{http.MethodGet: m.handleGalleryVideos})
	m.route("/v1/gallery/stats", methods{http.MethodGet: m.handleGalleryStats})
	m.route("/v1/services", methods{http.MethodGet: m.handleServices})
	m.route("/v1/services/features", methods{http.MethodGet: m.handleServiceFeatures})

	// Public forms
	m.route("/v1/contact", methods{http.MethodPost: m.handleContact})
	m.route("/v1/newsletter", methods{http.MethodPost: m.handleNewsletter})
	m.route("/v1/booking", methods{http.MethodPost: m.handleBooking})

	// Admin back-office
	m.route("/v1/admin/login", methods{http.MethodPost: m.handleAdminLogin})
	m.route("/v1/admin/dashboard", methods{http.MethodGet: m.requireAdmin(m.handleAdminDashboard)})
	m.route("/v1/admin/bookings", methods{http.MethodGet: m.requireAdmin(m.handleAdminBookings)})
	m.route("/v1/admin/bookings/{id}/approve", methods{http.MethodPatch: m.requireAdmin(m.handleAdminApproveBooking)})
	m.route("/v1/admin/inquiries", methods{http.MethodGet: m.requireAdmin(m.handleAdminInquiries)})
	m.route("/v1/admin/inquiries/{id}", methods{http.MethodGet: m.requireAdmin(m.handleAdminInquiry)})
	m.route("/v1/admin/enquiries", methods{http.MethodGet: m.requireAdmin(m.handleAdminEnquiries)})
	m.route("/v1/admin/testimonials", methods{http.MethodGet: m.requireAdmin(m.handleAdminTestimonials)})
	m.route("/v1/admin/testimonials/{id}", methods{http.MethodDelete: m.requireAdmin(m.handleAdminDeleteTestimonial)})
	m.route("/v1/admin/testimonials/{id}/toggle", methods{http.MethodPatch: m.requireAdmin(m.handleAdminToggleTestimonial)})
	m.route("/v1/admin/events", methods{http.MethodPost: m.requireAdmin(m.handleAdminCreateEvent)})
	m.route("/v1/admin/events/{id}", methods{http.MethodDelete: m.requireAdmin(m.handleAdminDeleteEvent)})
	m.route("/v1/admin/gallery", methods{http.MethodGet: m.requireAdmin(m.handleAdminGallery), http.MethodPost: m.requireAdmin(m.handleAdminCreateGalleryItem)})
	m.route("/v1/admin/gallery/{id}", methods{http.MethodDelete: m.requireAdmin(m.handleAdminDeleteGalleryItem)})
	m.route("/v1/admin/notifications", methods{http.MethodGet: m.requireAdmin(m.handleNotifications)})
	m.route("/v1/admin/notifications/read", methods{http.MethodPost: m.requireAdmin(m.handleMarkNotificationsRead)})
	m.route("/v1/admin/notifications/stream", methods{http.MethodGet: m.requireAdmin(m.handleNotificationStream)})

	return m.mux, nil
}

// route registers pattern with the common middleware and method dispatch.
func (m *Mux) route(pattern string, ms methods) {
	m.mux.HandleFunc(pattern, m.withMiddleware(pattern, m.method(ms)))
}

// method dispatches on the request method and rejects the rest.
func (m *Mux) method(ms methods) http.HandlerFunc {
	allowed := make([]string, 0, len(ms))
	for k := range ms {
		allowed = append(allowed, k)
	}
	slices.Sort(allowed)
	allow := strings.Join(allowed, ", ")

	return func(w http.ResponseWriter, r *http.Request) {
		h, ok := ms[r.Method]
		if !ok {
			w.Header().Set("Allow", allow)
			m.writeErrorDef(w, errordefs.New(errordefs.SITE_METHOD_NOT_ALLOWED, "method not allowed", correlationID(r.Context())))
			return
		}
		h(w, r)
	}
}

// withMiddleware applies CORS, correlation IDs, tracing, metrics and request logging.
func (m *Mux) withMiddleware(pattern string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		origin := r.Header.Get("Origin")
		allowed := origin != "" && m.originAllowed(origin)
		if allowed {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Vary", "Origin")
		}

		// Handle CORS preflight requests
		if r.Method == http.MethodOptions {
			if allowed {
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Correlation-Id")
				w.Header().Set("Access-Control-Max-Age", "86400") // 24 hours
			}
			w.WriteHeader(http.StatusNoContent)
			return
		}

		// Add correlation ID if not present
		cid := r.Header.Get("X-Correlation-Id")
		if cid == "" {
			cid = uuid.New().String()
		}
		w.Header().Set("X-Correlation-Id", cid)

		ctx, span := otel.Tracer(tracerName).Start(r.Context(), r.Method+" "+pattern)
		defer span.End()
		span.SetAttributes(
			attribute.String("http.method", r.Method),
			attribute.String("http.route", pattern),
			attribute.String("correlation_id", cid),
		)
		ctx = context.WithValue(ctx, ContextKeyCorrelationID, cid)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		h(rec, r.WithContext(ctx))

		elapsed := time.Since(start)
		status := strconv.Itoa(rec.status)
		span.SetAttributes(attribute.Int("http.status_code", rec.status))
		if rec.status >= 500 {
			span.SetStatus(codes.Error, http.StatusText(rec.status))
		}
		m.metrics.HTTPRequestTotal.WithLabelValues(r.Method, pattern, status).Inc()
		m.metrics.HTTPRequestDuration.WithLabelValues(r.Method, pattern, status).Observe(elapsed.Seconds())
		m.logRequest(r, rec.status, elapsed, cid)
	}
}

func (m *Mux) originAllowed(origin string) bool {
	for _, o := range m.corsAllowedOrigins {
		if o == "*" || o == origin {
			return true
		}
	}
	return false
}

// statusRecorder captures the response status. Unwrap lets http.ResponseController reach
// the underlying writer for streaming.
type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (s *statusRecorder) WriteHeader(code int) {
	if !s.wroteHeader {
		s.status = code
		s.wroteHeader = true
	}
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	s.wroteHeader = true
	return s.ResponseWriter.Write(b)
}

func (s *statusRecorder) Unwrap() http.ResponseWriter { return s.ResponseWriter }

// correlationID returns the request's correlation ID, or "" outside the middleware.
func correlationID(ctx context.Context) string {
	cid, _ := ctx.Value(ContextKeyCorrelationID).(string)
	return cid
}

// writeSuccess writes a successful response
func (m *Mux) writeSuccess(w http.ResponseWriter, statusCode int, data interface{}) {
	writeJSON(w, statusCode, map[string]interface{}{"data": data})
}

// writeContent writes accessor data together with where it came from.
func (m *Mux) writeContent(w http.ResponseWriter, source content.Source, data interface{}) {
	w.Header().Set("X-Content-Source", string(source))
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": data,
		"meta": map[string]interface{}{"source": source},
	})
}

// writeError writes an error response following the site error taxonomy
func (m *Mux) writeError(w http.ResponseWriter, statusCode int, code, message, correlationID string, details interface{}) {
	body := map[string]interface{}{
		"code":          code,
		"message":       message,
		"correlationId": correlationID,
	}
	if details != nil {
		body["details"] = details
	}
	writeJSON(w, statusCode, map[string]interface{}{"error": body})
}

// writeErrorDef writes an error response using the error definitions package
func (m *Mux) writeErrorDef(w http.ResponseWriter, err *errordefs.Error) {
	m.writeError(w, err.HTTPStatus, string(err.Code), err.Message, err.CorrelationID, err.Details)
}

func writeJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(v)
}

// logRequest logs request details
func (m *Mux) logRequest(r *http.Request, status int, duration time.Duration, correlationID string) {
	attrs := []slog.Attr{
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Int("status", status),
		slog.Duration("duration", duration),
		slog.String("user_agent", r.UserAgent()),
		slog.String("remote_addr", r.RemoteAddr),
		slog.String("correlation_id", correlationID),
	}
	level := slog.LevelInfo
	if status >= 500 {
		level = slog.LevelError
	}
	slog.LogAttrs(r.Context(), level, "request completed", attrs...)
}

// handleHealthz handles liveness health check requests
func (m *Mux) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleReadyz reports ready when the booking store answers.
// The content backend is not checked: content degrades to fallback instead.
func (m *Mux) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := m.store.Ping(ctx); err != nil {
		slog.Warn("readiness check failed", "error", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("not ready"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
