package model

// DashboardStats are the back-office totals shown on the admin landing page.
type DashboardStats struct {
	Gallery      int `json:"gallery"`
	Events       int `json:"events"`
	Testimonials int `json:"testimonials"`
	Enquiries    int `json:"enquiries"`
	Bookings     int `json:"bookings"`
}

// Booking is a booking as stored by the backend and listed in the admin area.
type Booking struct {
	ID         ID     `json:"id"`
	FullName   string `json:"fullName"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	EventType  string `json:"eventType"`
	GuestCount int    `json:"guestCount"`
	EventDate  string `json:"eventDate"`
	Budget     string `json:"budget"`
	Venue      string `json:"venue"`
	Notes      string `json:"notes"`
	CreatedAt  string `json:"createdAt"`
	IsApproved bool   `json:"isApproved"`
}

// Enquiry is a contact-form message as stored by the backend.
type Enquiry struct {
	ID        ID     `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
	Message   string `json:"message"`
	CreatedAt string `json:"createdAt"`
}

// NewEvent is the admin payload for creating an event. Images are base64 data URLs passed
// through untouched.
type NewEvent struct {
	Title       string   `json:"title"`
	Images      []string `json:"images"`
	Description string   `json:"description"`
	EventDate   string   `json:"eventDate"`
	Location    string   `json:"location,omitempty"`
}

// NewGalleryItem is the admin payload for adding a gallery entry.
type NewGalleryItem struct {
	Type     string `json:"type"`
	MediaURL string `json:"mediaUrl"`
}
