package schema

import "testing"

func TestValidateBooking(t *testing.T) {
	v, err := NewValidator()
	if err != nil {
		t.Fatalf("NewValidator() error = %v", err)
	}

	valid := `{"fullName":"Asha Iyer","email":"asha@example.com","guestCount":120,"eventType":"wedding"}`
	if err := v.Validate(KindBooking, []byte(valid)); err != nil {
		t.Errorf("Validate(valid booking) error = %v", err)
	}

	tests := []struct {
		name  string
		doc   string
		field string
	}{
		{"missing name", `{"email":"asha@example.com"}`, "fullName"},
		{"blank name", `{"fullName":"   ","email":"asha@example.com"}`, "fullName"},
		{"missing email", `{"fullName":"Asha"}`, "email"},
		{"bad email", `{"fullName":"Asha","email":"not-an-email"}`, "email"},
		{"negative guests", `{"fullName":"Asha","email":"asha@example.com","guestCount":-3}`, "guestCount"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(KindBooking, []byte(tt.doc))
			verr, ok := AsValidationError(err)
			if !ok {
				t.Fatalf("Validate() error = %v, want *ValidationError", err)
			}
			if !verr.Has(tt.field) {
				t.Errorf("violations %+v do not mention %s", verr.Violations, tt.field)
			}
		})
	}
}

func TestValidateCollectsAllViolations(t *testing.T) {
	v, _ := NewValidator()
	err := v.Validate(KindBooking, []byte(`{}`))
	verr, ok := AsValidationError(err)
	if !ok || !verr.Has("fullName") || !verr.Has("email") {
		t.Errorf("Validate({}) = %v, want both required fields reported", err)
	}
}

func TestValidateOtherKinds(t *testing.T) {
	v, _ := NewValidator()
	tests := []struct {
		kind  Kind
		doc   string
		valid bool
	}{
		{KindNewsletter, `{"email":"guest@example.com"}`, true},
		{KindNewsletter, `{"email":""}`, false},
		{KindContact, `{"name":"Ravi","email":"ravi@example.com","message":"Planning a gala in May"}`, true},
		{KindContact, `{"name":"Ravi","email":"ravi@example.com","message":"hi"}`, false},
		{KindTestimonial, `{"name":"Meera","message":"Wonderful team","rating":5}`, true},
		{KindTestimonial, `{"name":"Meera","message":"Wonderful team","rating":9}`, false},
	}
	for _, tt := range tests {
		err := v.Validate(tt.kind, []byte(tt.doc))
		if (err == nil) != tt.valid {
			t.Errorf("Validate(%s, %s) error = %v, want valid=%v", tt.kind, tt.doc, err, tt.valid)
		}
	}
}

func TestValidateRejectsGarbage(t *testing.T) {
	v, _ := NewValidator()
	if err := v.Validate(KindContact, []byte(`{not json`)); err == nil {
		t.Error("Validate(garbage) succeeded")
	}
	if _, ok := AsValidationError(v.Validate(KindContact, []byte(`{not json`))); ok {
		t.Error("non-JSON input reported as a schema violation")
	}
	if err := v.Validate("unknown", []byte(`{}`)); err == nil {
		t.Error("Validate(unknown kind) succeeded")
	}
}
