package model

import "time"

// NotificationKind classifies a live notification.
type NotificationKind string

const (
	KindTestimonial NotificationKind = "testimonial"
	KindContact     NotificationKind = "contact"
	KindBooking     NotificationKind = "booking"
)

// Notification is an entry in the admin live-notification log.
type Notification struct {
	ID        string           `json:"id"`        // Locally generated, unique per process run
	Kind      NotificationKind `json:"type"`      // testimonial, contact or booking
	Message   string           `json:"message"`   // Human-readable summary
	CreatedAt time.Time        `json:"createdAt"` // Receipt time, not server time
	Read      bool             `json:"read"`
}
