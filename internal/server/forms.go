package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel/trace"

	errordefs "github.com/abhinandan-events/site-bff-go/internal/errors"
	"github.com/abhinandan-events/site-bff-go/internal/model"
	"github.com/abhinandan-events/site-bff-go/internal/schema"
)

// Booking receipt messages.
const (
	MsgBookingAccepted      = "Booking submitted successfully"
	MsgBookingMissingFields = "Full name and email required"
	MsgBookingFailed        = "Failed to submit booking"
	MsgBookingInvalidBody   = "Invalid booking request"
)

var errBodyTooLarge = errors.New("request body too large")

// readBody reads at most limit bytes of the request body.
func readBody(w http.ResponseWriter, r *http.Request, limit int64) ([]byte, error) {
	defer r.Body.Close()
	b, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return nil, errBodyTooLarge
	}
	return b, err
}

// decodeSubmission reads, validates and decodes a public form body into dst. It writes
// the error response itself and reports whether the handler should continue.
func (m *Mux) decodeSubmission(w http.ResponseWriter, r *http.Request, kind schema.Kind, dst any) bool {
	cid := correlationID(r.Context())
	body, err := readBody(w, r, maxFormBytes)
	if err != nil {
		m.writeErrorDef(w, errordefs.New(errordefs.SITE_BAD_REQUEST, err.Error(), cid))
		return false
	}
	if err := m.validator.Validate(kind, body); err != nil {
		if verr, ok := schema.AsValidationError(err); ok {
			m.writeErrorDef(w, errordefs.NewWithDetails(errordefs.SITE_VALIDATION, "invalid "+string(kind)+" submission", cid, violations(verr)))
			return false
		}
		m.writeErrorDef(w, errordefs.New(errordefs.SITE_BAD_REQUEST, "invalid JSON", cid))
		return false
	}
	if err := json.Unmarshal(body, dst); err != nil {
		m.writeErrorDef(w, errordefs.New(errordefs.SITE_BAD_REQUEST, "invalid JSON", cid))
		return false
	}
	return true
}

func violations(verr *schema.ValidationError) []map[string]string {
	out := make([]map[string]string, 0, len(verr.Violations))
	for _, v := range verr.Violations {
		out = append(out, map[string]string{"field": v.Field, "description": v.Description})
	}
	return out
}

// handleSubmitTestimonial handles POST /v1/testimonials
func (m *Mux) handleSubmitTestimonial(w http.ResponseWriter, r *http.Request) {
	var sub model.TestimonialSubmission
	if !m.decodeSubmission(w, r, schema.KindTestimonial, &sub) {
		return
	}
	if sub.Rating == 0 {
		sub.Rating = model.DefaultRating
	}
	writeJSON(w, http.StatusOK, m.content.SubmitTestimonial(r.Context(), sub))
}

// handleContact handles POST /v1/contact
func (m *Mux) handleContact(w http.ResponseWriter, r *http.Request) {
	var req model.ContactRequest
	if !m.decodeSubmission(w, r, schema.KindContact, &req) {
		return
	}
	writeJSON(w, http.StatusOK, m.content.SubmitContact(r.Context(), req))
}

// handleNewsletter handles POST /v1/newsletter
func (m *Mux) handleNewsletter(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if !m.decodeSubmission(w, r, schema.KindNewsletter, &req) {
		return
	}
	writeJSON(w, http.StatusOK, m.content.SubscribeNewsletter(r.Context(), strings.TrimSpace(req.Email)))
}

// handleBooking handles POST /v1/booking. The inquiry is stored locally and announced on
// the event stream; answers use the receipt shape the booking page expects.
func (m *Mux) handleBooking(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	span := trace.SpanFromContext(ctx)

	body, err := readBody(w, r, maxFormBytes)
	if err != nil {
		m.bookingReceipt(w, http.StatusBadRequest, "invalid", MsgBookingInvalidBody)
		return
	}
	if err := m.validator.Validate(schema.KindBooking, body); err != nil {
		verr, ok := schema.AsValidationError(err)
		switch {
		case !ok:
			m.bookingReceipt(w, http.StatusBadRequest, "invalid", MsgBookingInvalidBody)
		case verr.Has("fullName") || verr.Has("email"):
			m.bookingReceipt(w, http.StatusBadRequest, "invalid", MsgBookingMissingFields)
		default:
			m.bookingReceipt(w, http.StatusBadRequest, "invalid", verr.Error())
		}
		return
	}

	var inquiry model.BookingInquiry
	if err := json.Unmarshal(body, &inquiry); err != nil {
		m.bookingReceipt(w, http.StatusBadRequest, "invalid", MsgBookingInvalidBody)
		return
	}
	inquiry.ID = ulid.Make().String()
	inquiry.CreatedAt = m.now().UTC()
	inquiry.FullName = strings.TrimSpace(inquiry.FullName)
	inquiry.Email = strings.TrimSpace(inquiry.Email)

	if err := m.store.CreateBooking(ctx, inquiry); err != nil {
		slog.Error("failed to store booking inquiry", "error", err, "correlation_id", correlationID(ctx))
		span.RecordError(err)
		m.bookingReceipt(w, http.StatusInternalServerError, "failed", MsgBookingFailed)
		return
	}
	if err := m.pub.PublishBookingReceived(ctx, inquiry); err != nil {
		slog.Warn("failed to publish booking received", "booking_id", inquiry.ID, "error", err)
	}
	w.Header().Set("Location", "/v1/admin/inquiries/"+inquiry.ID)
	m.bookingReceipt(w, http.StatusOK, "accepted", MsgBookingAccepted)
}

func (m *Mux) bookingReceipt(w http.ResponseWriter, status int, outcome, message string) {
	m.metrics.BookingSubmissionsTotal.WithLabelValues(outcome).Inc()
	writeJSON(w, status, model.Receipt{Success: status == http.StatusOK, Message: message})
}
