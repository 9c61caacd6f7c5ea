package model

import (
	"encoding/json"
	"testing"
)

// TestNormalizeTestimonialVariants checks that canonical and alternate field names end up
// in the same shape.
func TestNormalizeTestimonialVariants(t *testing.T) {
	canonical := `{"id":7,"name":"Priya Mehta","role":"Private Client","message":"Flawless execution."}`
	alternate := `{"id":"7","name":"Priya Mehta","company":"Private Client","content":"Flawless execution."}`

	var a, b RawTestimonial
	if err := json.Unmarshal([]byte(canonical), &a); err != nil {
		t.Fatalf("unmarshal canonical: %v", err)
	}
	if err := json.Unmarshal([]byte(alternate), &b); err != nil {
		t.Fatalf("unmarshal alternate: %v", err)
	}

	got1, got2 := NormalizeTestimonial(a), NormalizeTestimonial(b)
	if got1 != got2 {
		t.Errorf("NormalizeTestimonial() mismatch: %+v vs %+v", got1, got2)
	}
	if got1.Rating != DefaultRating {
		t.Errorf("Rating = %d, want %d", got1.Rating, DefaultRating)
	}
	if got1.Event != DefaultTestimonialEvent {
		t.Errorf("Event = %q, want %q", got1.Event, DefaultTestimonialEvent)
	}
	if !got1.Active {
		t.Errorf("Active = false, want true when absent")
	}
}

func TestNormalizeTestimonialPrecedence(t *testing.T) {
	role := "CEO"
	rating := 4.0
	inactive := false
	raw := RawTestimonial{
		Name:     "",
		FullName: "Amit Patel",
		Message:  "Primary",
		Content:  "Secondary",
		Role:     &role,
		Company:  "Innovate Labs",
		Rating:   &rating,
		IsActive: &inactive,
	}
	got := NormalizeTestimonial(raw)
	if got.Name != "Amit Patel" {
		t.Errorf("Name = %q, want fullName fallback", got.Name)
	}
	if got.Message != "Primary" {
		t.Errorf("Message = %q, want message to win over content", got.Message)
	}
	if got.Role != "CEO" {
		t.Errorf("Role = %q, want role to win over company", got.Role)
	}
	if got.Rating != 4 {
		t.Errorf("Rating = %d, want 4", got.Rating)
	}
	if got.Active {
		t.Errorf("Active = true, want false from isActive")
	}
}

func TestNormalizeTestimonialDefaults(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		role   string
		rating int
	}{
		{"null role and rating", `{"name":"A","message":"m","role":null,"rating":null}`, DefaultTestimonialRole, DefaultRating},
		{"out of range rating", `{"name":"A","message":"m","rating":9}`, DefaultTestimonialRole, DefaultRating},
		{"zero rating", `{"name":"A","message":"m","rating":0}`, DefaultTestimonialRole, DefaultRating},
		{"blank role uses company", `{"name":"A","message":"m","role":"  ","company":"Acme"}`, "Acme", DefaultRating},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var raw RawTestimonial
			if err := json.Unmarshal([]byte(tt.input), &raw); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			got := NormalizeTestimonial(raw)
			if got.Role != tt.role {
				t.Errorf("Role = %q, want %q", got.Role, tt.role)
			}
			if got.Rating != tt.rating {
				t.Errorf("Rating = %d, want %d", got.Rating, tt.rating)
			}
		})
	}
}

func TestIDUnmarshal(t *testing.T) {
	var v struct {
		A ID `json:"a"`
		B ID `json:"b"`
		C ID `json:"c"`
	}
	if err := json.Unmarshal([]byte(`{"a":12,"b":"x-1","c":null}`), &v); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if v.A != "12" || v.B != "x-1" || v.C != "" {
		t.Errorf("got %+v", v)
	}
}
