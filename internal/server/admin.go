package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/abhinandan-events/site-bff-go/internal/admin"
	"github.com/abhinandan-events/site-bff-go/internal/auth"
	errordefs "github.com/abhinandan-events/site-bff-go/internal/errors"
	"github.com/abhinandan-events/site-bff-go/internal/model"
	"github.com/abhinandan-events/site-bff-go/internal/notify"
	"github.com/abhinandan-events/site-bff-go/internal/storage"
)

const streamKeepAlive = 15 * time.Second

// requireAdmin rejects requests without an acceptable bearer token and stores the
// principal in the request context.
func (m *Mux) requireAdmin(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := m.verifier.Authenticate(r)
		if err != nil {
			msg := "missing or invalid bearer token"
			if errors.Is(err, auth.ErrExpiredToken) {
				msg = "bearer token expired"
			}
			w.Header().Set("WWW-Authenticate", `Bearer realm="site-admin"`)
			m.writeErrorDef(w, errordefs.New(errordefs.SITE_AUTHN, msg, correlationID(r.Context())))
			return
		}
		h(w, r.WithContext(context.WithValue(r.Context(), ContextKeyAdmin, p)))
	}
}

func adminToken(ctx context.Context) string {
	p, _ := ctx.Value(ContextKeyAdmin).(auth.Principal)
	return p.Token
}

// writeAdminError maps admin client errors onto the error taxonomy.
func (m *Mux) writeAdminError(w http.ResponseWriter, r *http.Request, err error) {
	cid := correlationID(r.Context())
	switch {
	case errors.Is(err, admin.ErrUnauthorized):
		m.writeErrorDef(w, errordefs.New(errordefs.SITE_AUTHZ, "backend rejected the admin token", cid))
	case errors.Is(err, admin.ErrNotFound):
		m.writeErrorDef(w, errordefs.New(errordefs.SITE_NOT_FOUND, "record not found", cid))
	default:
		slog.Warn("admin backend call failed", "path", r.URL.Path, "error", err, "correlation_id", cid)
		m.writeErrorDef(w, errordefs.New(errordefs.SITE_UPSTREAM, "backend request failed", cid))
	}
}

// decodeAdmin decodes an admin JSON body into dst, writing the error response on failure.
func (m *Mux) decodeAdmin(w http.ResponseWriter, r *http.Request, dst any) bool {
	body, err := readBody(w, r, maxAdminBytes)
	if err == nil {
		err = json.Unmarshal(body, dst)
	}
	if err != nil {
		m.writeErrorDef(w, errordefs.New(errordefs.SITE_BAD_REQUEST, "invalid JSON", correlationID(r.Context())))
		return false
	}
	return true
}

// handleAdminLogin handles POST /v1/admin/login
func (m *Mux) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	cid := correlationID(r.Context())
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !m.decodeAdmin(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		m.writeErrorDef(w, errordefs.New(errordefs.SITE_VALIDATION, "email and password are required", cid))
		return
	}

	token, err := m.admin.Login(r.Context(), strings.TrimSpace(req.Email), req.Password)
	if errors.Is(err, admin.ErrUnauthorized) {
		m.writeErrorDef(w, errordefs.New(errordefs.SITE_AUTHN, "invalid credentials", cid))
		return
	}
	if err != nil {
		m.writeAdminError(w, r, err)
		return
	}
	m.writeSuccess(w, http.StatusOK, map[string]string{"token": token})
}

func (m *Mux) handleAdminDashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := m.admin.Dashboard(r.Context(), adminToken(r.Context()))
	if err != nil {
		m.writeAdminError(w, r, err)
		return
	}
	m.writeSuccess(w, http.StatusOK, stats)
}

func (m *Mux) handleAdminBookings(w http.ResponseWriter, r *http.Request) {
	bookings, err := m.admin.Bookings(r.Context(), adminToken(r.Context()))
	if err != nil {
		m.writeAdminError(w, r, err)
		return
	}
	m.writeSuccess(w, http.StatusOK, bookings)
}

func (m *Mux) handleAdminApproveBooking(w http.ResponseWriter, r *http.Request) {
	if err := m.admin.ApproveBooking(r.Context(), adminToken(r.Context()), r.PathValue("id")); err != nil {
		m.writeAdminError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleAdminInquiries lists booking inquiries received by this service, newest first.
func (m *Mux) handleAdminInquiries(w http.ResponseWriter, r *http.Request) {
	cid := correlationID(r.Context())
	limit := storage.DefaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			m.writeErrorDef(w, errordefs.New(errordefs.SITE_VALIDATION, fmt.Sprintf("limit must be a positive integer (max %d)", storage.MaxListLimit), cid))
			return
		}
		limit = n
	}

	inquiries, err := m.store.ListBookings(r.Context(), limit)
	if err != nil {
		slog.Error("failed to list booking inquiries", "error", err, "correlation_id", cid)
		m.writeErrorDef(w, errordefs.New(errordefs.SITE_INTERNAL, "failed to list booking inquiries", cid))
		return
	}
	m.writeSuccess(w, http.StatusOK, inquiries)
}

func (m *Mux) handleAdminInquiry(w http.ResponseWriter, r *http.Request) {
	cid := correlationID(r.Context())
	inquiry, err := m.store.GetBooking(r.Context(), r.PathValue("id"))
	switch {
	case errors.Is(err, storage.ErrNotFound):
		m.writeErrorDef(w, errordefs.New(errordefs.SITE_NOT_FOUND, "booking inquiry not found", cid))
	case err != nil:
		slog.Error("failed to load booking inquiry", "error", err, "correlation_id", cid)
		m.writeErrorDef(w, errordefs.New(errordefs.SITE_INTERNAL, "failed to load booking inquiry", cid))
	default:
		m.writeSuccess(w, http.StatusOK, inquiry)
	}
}

func (m *Mux) handleAdminEnquiries(w http.ResponseWriter, r *http.Request) {
	enquiries, err := m.admin.Enquiries(r.Context(), adminToken(r.Context()))
	if err != nil {
		m.writeAdminError(w, r, err)
		return
	}
	m.writeSuccess(w, http.StatusOK, enquiries)
}

func (m *Mux) handleAdminTestimonials(w http.ResponseWriter, r *http.Request) {
	testimonials, err := m.admin.Testimonials(r.Context(), adminToken(r.Context()))
	if err != nil {
		m.writeAdminError(w, r, err)
		return
	}
	m.writeSuccess(w, http.StatusOK, testimonials)
}

func (m *Mux) handleAdminToggleTestimonial(w http.ResponseWriter, r *http.Request) {
	if err := m.admin.ToggleTestimonial(r.Context(), adminToken(r.Context()), r.PathValue("id")); err != nil {
		m.writeAdminError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (m *Mux) handleAdminDeleteTestimonial(w http.ResponseWriter, r *http.Request) {
	if err := m.admin.DeleteTestimonial(r.Context(), adminToken(r.Context()), r.PathValue("id")); err != nil {
		m.writeAdminError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (m *Mux) handleAdminCreateEvent(w http.ResponseWriter, r *http.Request) {
	var ev model.NewEvent
	if !m.decodeAdmin(w, r, &ev) {
		return
	}
	if strings.TrimSpace(ev.Title) == "" || strings.TrimSpace(ev.EventDate) == "" {
		m.writeErrorDef(w, errordefs.New(errordefs.SITE_VALIDATION, "title and eventDate are required", correlationID(r.Context())))
		return
	}
	created, err := m.admin.CreateEvent(r.Context(), adminToken(r.Context()), ev)
	if err != nil {
		m.writeAdminError(w, r, err)
		return
	}
	m.writeSuccess(w, http.StatusCreated, created)
}

func (m *Mux) handleAdminDeleteEvent(w http.ResponseWriter, r *http.Request) {
	if err := m.admin.DeleteEvent(r.Context(), adminToken(r.Context()), r.PathValue("id")); err != nil {
		m.writeAdminError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (m *Mux) handleAdminGallery(w http.ResponseWriter, r *http.Request) {
	items, err := m.admin.Gallery(r.Context())
	if err != nil {
		m.writeAdminError(w, r, err)
		return
	}
	m.writeSuccess(w, http.StatusOK, items)
}

func (m *Mux) handleAdminCreateGalleryItem(w http.ResponseWriter, r *http.Request) {
	var item model.NewGalleryItem
	if !m.decodeAdmin(w, r, &item) {
		return
	}
	if item.Type != "image" && item.Type != "video" {
		m.writeErrorDef(w, errordefs.New(errordefs.SITE_VALIDATION, "type must be image or video", correlationID(r.Context())))
		return
	}
	if strings.TrimSpace(item.MediaURL) == "" {
		m.writeErrorDef(w, errordefs.New(errordefs.SITE_VALIDATION, "mediaUrl is required", correlationID(r.Context())))
		return
	}
	created, err := m.admin.CreateGalleryItem(r.Context(), adminToken(r.Context()), item)
	if err != nil {
		m.writeAdminError(w, r, err)
		return
	}
	m.writeSuccess(w, http.StatusCreated, created)
}

func (m *Mux) handleAdminDeleteGalleryItem(w http.ResponseWriter, r *http.Request) {
	if err := m.admin.DeleteGalleryItem(r.Context(), adminToken(r.Context()), r.PathValue("id")); err != nil {
		m.writeAdminError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleNotifications returns the live notification log and unread count.
func (m *Mux) handleNotifications(w http.ResponseWriter, r *http.Request) {
	m.writeSuccess(w, http.StatusOK, m.notes.Snapshot())
}

// handleMarkNotificationsRead marks every notification read.
func (m *Mux) handleMarkNotificationsRead(w http.ResponseWriter, r *http.Request) {
	marked := m.notes.MarkAllRead()
	m.writeSuccess(w, http.StatusOK, map[string]int{"marked": marked, "unreadCount": m.notes.UnreadCount()})
}

// handleNotificationStream streams notification snapshots as Server-Sent Events. The
// current snapshot is sent first, then one event per change.
func (m *Mux) handleNotificationStream(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rc := http.NewResponseController(w)
	// The stream outlives the server's write timeout.
	if err := rc.SetWriteDeadline(time.Time{}); err != nil && !errors.Is(err, http.ErrNotSupported) {
		slog.Warn("could not clear write deadline for notification stream", "error", err)
	}

	// Only the latest snapshot matters, so a slow reader skips intermediate ones.
	updates := make(chan notify.Snapshot, 1)
	unsubscribe := m.notes.Subscribe(func(s notify.Snapshot) {
		select {
		case updates <- s:
		default:
			select {
			case <-updates:
			default:
			}
			select {
			case updates <- s:
			default:
			}
		}
	})
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	send := func(s notify.Snapshot) error {
		b, err := json.Marshal(s)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "event: notifications\ndata: %s\n\n", b); err != nil {
			return err
		}
		return rc.Flush()
	}
	if err := send(m.notes.Snapshot()); err != nil {
		return
	}

	keepAlive := time.NewTicker(streamKeepAlive)
	defer keepAlive.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-m.done:
			return
		case s := <-updates:
			if err := send(s); err != nil {
				return
			}
		case <-keepAlive.C:
			if _, err := fmt.Fprint(w, ": keepalive\n\n"); err != nil {
				return
			}
			if err := rc.Flush(); err != nil {
				return
			}
		}
	}
}
