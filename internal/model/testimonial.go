package model

import (
	"encoding/json"
	"strings"
)

// Defaults applied by NormalizeTestimonial when the source omits a field.
const (
	DefaultTestimonialRole  = "Client"
	DefaultTestimonialEvent = "Event Client"
	DefaultRating           = 5
)

// Testimonial is the canonical testimonial shape exposed to the site and admin UI.
type Testimonial struct {
	ID      ID     `json:"id,omitempty" yaml:"id"`
	Name    string `json:"name" yaml:"name"`
	Role    string `json:"role" yaml:"role"`
	Message string `json:"message" yaml:"message"`
	Event   string `json:"event" yaml:"event"`
	Rating  int    `json:"rating" yaml:"rating"`
	Active  bool   `json:"active" yaml:"active"`
}

// RawTestimonial accepts every field-name variant the backend and the bundled fixtures use.
type RawTestimonial struct {
	ID       ID       `json:"id" yaml:"id"`
	Name     string   `json:"name" yaml:"name"`
	FullName string   `json:"fullName" yaml:"fullName"`
	Author   string   `json:"author" yaml:"author"`
	Message  string   `json:"message" yaml:"message"`
	Content  string   `json:"content" yaml:"content"`
	Text     string   `json:"text" yaml:"text"`
	Role     *string  `json:"role" yaml:"role"`
	Company  string   `json:"company" yaml:"company"`
	Event    string   `json:"event" yaml:"event"`
	Rating   *float64 `json:"rating" yaml:"rating"`
	IsActive *bool    `json:"isActive" yaml:"isActive"`
	Active   *bool    `json:"active" yaml:"active"`
}

// NormalizeTestimonial maps a raw record onto the canonical shape.
//
// Precedence, first non-empty wins:
//   - name:    name, fullName, author
//   - message: message, content, text
//   - role:    role, company, then DefaultTestimonialRole
//   - event:   event, then DefaultTestimonialEvent
//   - rating:  rating when within 1..5 (fractions truncate), otherwise DefaultRating
//   - active:  isActive, active, then true
func NormalizeTestimonial(raw RawTestimonial) Testimonial {
	t := Testimonial{
		ID:      raw.ID,
		Name:    firstNonEmpty(raw.Name, raw.FullName, raw.Author),
		Message: firstNonEmpty(raw.Message, raw.Content, raw.Text),
		Event:   firstNonEmpty(raw.Event, DefaultTestimonialEvent),
		Rating:  DefaultRating,
		Active:  true,
	}

	role := ""
	if raw.Role != nil {
		role = *raw.Role
	}
	t.Role = firstNonEmpty(role, raw.Company, DefaultTestimonialRole)

	if raw.Rating != nil {
		if r := int(*raw.Rating); r >= 1 && r <= 5 {
			t.Rating = r
		}
	}

	switch {
	case raw.IsActive != nil:
		t.Active = *raw.IsActive
	case raw.Active != nil:
		t.Active = *raw.Active
	}
	return t
}

// DecodeTestimonials decodes a JSON array of raw testimonials and normalizes every entry.
func DecodeTestimonials(b []byte) ([]Testimonial, error) {
	var raws []RawTestimonial
	if err := json.Unmarshal(b, &raws); err != nil {
		return nil, err
	}
	out := make([]Testimonial, 0, len(raws))
	for _, r := range raws {
		out = append(out, NormalizeTestimonial(r))
	}
	return out, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
