// internal/schema/validator.go
// Package schema validates public form submissions against JSON schemas
// before they are stored or forwarded to the backend.
package schema

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Kind names a submission type.
type Kind string

// Supported submission kinds.
const (
	KindBooking     Kind = "booking"
	KindContact     Kind = "contact"
	KindNewsletter  Kind = "newsletter"
	KindTestimonial Kind = "testimonial"
)

// nonBlank matches strings with at least one non-space character.
const nonBlank = `"pattern":"\\S"`

var schemas = map[Kind]string{
	// Booking form; only the name and email are mandatory
	KindBooking: `{"type":"object","required":["fullName","email"],"properties":{` +
		`"fullName":{"type":"string",` + nonBlank + `,"maxLength":200},` +
		`"email":{"type":"string","format":"email","maxLength":320},` +
		`"phone":{"type":"string","maxLength":40},` +
		`"preferredContact":{"type":"string","maxLength":40},` +
		`"eventType":{"type":"string","maxLength":100},` +
		`"guestCount":{"type":["integer","null"],"minimum":0},` +
		`"eventDate":{"type":"string","maxLength":40},` +
		`"budget":{"type":"string","maxLength":100},` +
		`"venue":{"type":"string","maxLength":200},` +
		`"notes":{"type":"string","maxLength":5000}}}`,

	// Contact form
	KindContact: `{"type":"object","required":["name","email","message"],"properties":{` +
		`"name":{"type":"string",` + nonBlank + `,"maxLength":200},` +
		`"email":{"type":"string","format":"email","maxLength":320},` +
		`"phone":{"type":"string","maxLength":40},` +
		`"subject":{"type":"string","maxLength":200},` +
		`"eventType":{"type":"string","maxLength":100},` +
		`"message":{"type":"string","minLength":10,"maxLength":5000}}}`,

	// Newsletter signup
	KindNewsletter: `{"type":"object","required":["email"],"properties":{` +
		`"email":{"type":"string","format":"email","maxLength":320}}}`,

	// Visitor review awaiting moderation
	KindTestimonial: `{"type":"object","required":["name","message"],"properties":{` +
		`"name":{"type":"string",` + nonBlank + `,"maxLength":200},` +
		`"role":{"type":"string","maxLength":200},` +
		`"message":{"type":"string",` + nonBlank + `,"maxLength":2000},` +
		`"rating":{"type":"integer","minimum":1,"maximum":5}}}`,
}

// Violation is a single schema failure.
type Violation struct {
	Field       string // JSON field, or "(root)" for document-level failures
	Description string
}

// ValidationError lists every violation found in a document.
type ValidationError struct {
	Kind       Kind
	Violations []Violation
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = v.Field + ": " + v.Description
	}
	return fmt.Sprintf("invalid %s submission: %s", e.Kind, strings.Join(parts, "; "))
}

// Has reports whether field failed validation.
func (e *ValidationError) Has(field string) bool {
	for _, v := range e.Violations {
		if v.Field == field {
			return true
		}
	}
	return false
}

// Validator validates submissions against compiled schemas.
type Validator struct {
	schemas map[Kind]*gojsonschema.Schema
}

// NewValidator compiles every submission schema.
func NewValidator() (*Validator, error) {
	v := &Validator{schemas: make(map[Kind]*gojsonschema.Schema, len(schemas))}
	for kind, doc := range schemas {
		s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(doc))
		if err != nil {
			return nil, fmt.Errorf("invalid schema for %s: %w", kind, err)
		}
		v.schemas[kind] = s
	}
	return v, nil
}

// Validate checks doc (raw JSON) against the schema for kind. It returns a
// *ValidationError listing all violations, or another error when doc is not JSON or
// kind is unknown.
func (v *Validator) Validate(kind Kind, doc []byte) error {
	s, ok := v.schemas[kind]
	if !ok {
		return fmt.Errorf("unsupported submission kind: %s", kind)
	}

	result, err := s.Validate(gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return fmt.Errorf("validation error: %w", err)
	}
	if result.Valid() {
		return nil
	}

	verr := &ValidationError{Kind: kind}
	for _, desc := range result.Errors() {
		field := desc.Field()
		// Missing required properties are reported against the parent object.
		if desc.Type() == "required" {
			if p, ok := desc.Details()["property"].(string); ok {
				field = p
			}
		}
		verr.Violations = append(verr.Violations, Violation{Field: field, Description: desc.Description()})
	}
	return verr
}

// AsValidationError unwraps err into a *ValidationError.
func AsValidationError(err error) (*ValidationError, bool) {
	var verr *ValidationError
	ok := errors.As(err, &verr)
	return verr, ok
}
