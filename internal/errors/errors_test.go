package errors

import (
	"net/http"
	"testing"
)

func TestHTTPStatusMapping(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want int
	}{
		{SITE_VALIDATION, http.StatusBadRequest},
		{SITE_METHOD_NOT_ALLOWED, http.StatusMethodNotAllowed},
		{SITE_AUTHN, http.StatusUnauthorized},
		{SITE_AUTHZ, http.StatusForbidden},
		{SITE_NOT_FOUND, http.StatusNotFound},
		{SITE_UPSTREAM, http.StatusBadGateway},
		{SITE_UNAVAILABLE, http.StatusServiceUnavailable},
		{SITE_INTERNAL, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := New(tt.code, "x", "").HTTPStatus; got != tt.want {
			t.Errorf("New(%s).HTTPStatus = %d, want %d", tt.code, got, tt.want)
		}
	}
}

func TestErrorString(t *testing.T) {
	e := NewWithDetails(SITE_VALIDATION, "bad payload", "abc", "email is required")
	want := "SITE_VALIDATION: bad payload (details: email is required)"
	if e.Error() != want {
		t.Errorf("Error() = %q, want %q", e.Error(), want)
	}
}
