package model

import "time"

// BookingInquiry is a booking request submitted through the public booking form.
type BookingInquiry struct {
	ID               string    `json:"id" db:"id"`
	FullName         string    `json:"fullName" db:"full_name"`
	Email            string    `json:"email" db:"email"`
	Phone            string    `json:"phone,omitempty" db:"phone"`
	PreferredContact string    `json:"preferredContact,omitempty" db:"preferred_contact"`
	EventType        string    `json:"eventType,omitempty" db:"event_type"`
	GuestCount       int       `json:"guestCount,omitempty" db:"guest_count"`
	EventDate        string    `json:"eventDate,omitempty" db:"event_date"`
	Budget           string    `json:"budget,omitempty" db:"budget"`
	Venue            string    `json:"venue,omitempty" db:"venue"`
	Notes            string    `json:"notes,omitempty" db:"notes"`
	CreatedAt        time.Time `json:"createdAt" db:"created_at"`
}

// ContactRequest is the payload of the public contact form.
type ContactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone,omitempty"`
	Subject string `json:"subject,omitempty"`
	Message string `json:"message"`
}

// TestimonialSubmission is a visitor review awaiting moderation.
type TestimonialSubmission struct {
	Name    string `json:"name"`
	Role    string `json:"role,omitempty"`
	Message string `json:"message"`
	Rating  int    `json:"rating"`
}

// Receipt acknowledges a form submission. Success is true even when the backend could not
// be reached; Message tells the two cases apart for the visitor.
type Receipt struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
