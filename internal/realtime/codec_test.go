package realtime

import (
	"errors"
	"testing"
)

func TestDecodeEvent(t *testing.T) {
	tests := []struct {
		packet  string
		event   string
		payload string
	}{
		{`2["new_booking",{"fullName":"Asha"}]`, "new_booking", `{"fullName":"Asha"}`},
		{`2/admin,["new_contact",{"name":"Ravi"}]`, "new_contact", `{"name":"Ravi"}`},
		{`217["new_testimonial",{"name":"Meera"}]`, "new_testimonial", `{"name":"Meera"}`},
		{`2/admin,5["tick",1,2]`, "tick", `1`},
		{`2["bare"]`, "bare", ``},
	}
	for _, tt := range tests {
		msg, err := DecodeEvent(tt.packet)
		if err != nil {
			t.Errorf("DecodeEvent(%q) error = %v", tt.packet, err)
			continue
		}
		if msg.Event != tt.event || string(msg.Payload) != tt.payload {
			t.Errorf("DecodeEvent(%q) = %q %s, want %q %s", tt.packet, msg.Event, msg.Payload, tt.event, tt.payload)
		}
	}
}

func TestDecodeEventMalformed(t *testing.T) {
	for _, packet := range []string{``, `3["ack"]`, `2{}`, `2[]`, `2[1,2]`, `2["unterminated`} {
		if _, err := DecodeEvent(packet); !errors.Is(err, ErrMalformedPacket) {
			t.Errorf("DecodeEvent(%q) error = %v, want ErrMalformedPacket", packet, err)
		}
	}
}

func TestEncodeEvent(t *testing.T) {
	got, err := EncodeEvent("/", "new_contact", map[string]string{"name": "Ravi"})
	if err != nil {
		t.Fatal(err)
	}
	if want := `42["new_contact",{"name":"Ravi"}]`; got != want {
		t.Errorf("EncodeEvent() = %s, want %s", got, want)
	}

	got, _ = EncodeEvent("/admin", "ping", nil)
	if want := `42/admin,["ping"]`; got != want {
		t.Errorf("EncodeEvent() = %s, want %s", got, want)
	}

	// The frame round-trips once the Engine.IO type byte is stripped.
	msg, err := DecodeEvent(got[1:])
	if err != nil || msg.Event != "ping" {
		t.Errorf("DecodeEvent(EncodeEvent()) = %+v, %v", msg, err)
	}
}

func TestEndpoint(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"http://localhost:5000", "ws://localhost:5000/socket.io/?EIO=4&transport=websocket"},
		{"https://api.example.com/", "wss://api.example.com/socket.io/?EIO=4&transport=websocket"},
		{"wss://api.example.com/rt", "wss://api.example.com/rt/socket.io/?EIO=4&transport=websocket"},
	}
	for _, tt := range tests {
		got, err := Endpoint(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("Endpoint(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
		}
	}
	for _, bad := range []string{"ftp://host", "http://", "::"} {
		if _, err := Endpoint(bad); err == nil {
			t.Errorf("Endpoint(%q) succeeded, want error", bad)
		}
	}
}
