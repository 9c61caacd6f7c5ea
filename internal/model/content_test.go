package model

import (
	"encoding/json"
	"testing"
)

func TestCountUnmarshal(t *testing.T) {
	tests := []struct {
		in   string
		want Count
	}{
		{`120`, 120},
		{`"120"`, 120},
		{`" 1,200 "`, 1200},
		{`85.9`, 85},
		{`null`, 0},
		{`""`, 0},
		{`"about a hundred"`, 0},
		{`-4`, 0},
		{`{"guests":120}`, 0},
	}
	for _, tt := range tests {
		var c Count
		if err := json.Unmarshal([]byte(tt.in), &c); err != nil {
			t.Errorf("Unmarshal(%s) error = %v", tt.in, err)
			continue
		}
		if c != tt.want {
			t.Errorf("Unmarshal(%s) = %d, want %d", tt.in, c, tt.want)
		}
	}
}

// TestEventListToleratesOddAttendees checks that one badly typed counter does not fail
// the whole list.
func TestEventListToleratesOddAttendees(t *testing.T) {
	body := `[{"id":1,"title":"Gala","attendees":"120"},{"id":"2","title":"Summit","attendees":300},{"id":3,"title":"Launch","attendees":"TBD"}]`
	var events []Event
	if err := json.Unmarshal([]byte(body), &events); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	want := []Count{120, 300, 0}
	for i, ev := range events {
		if ev.Attendees != want[i] {
			t.Errorf("events[%d].Attendees = %d, want %d", i, ev.Attendees, want[i])
		}
	}

	out, err := json.Marshal(events[0])
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	var back map[string]any
	json.Unmarshal(out, &back)
	if back["attendees"] != float64(120) {
		t.Errorf("attendees encoded as %v, want the number 120", back["attendees"])
	}
}
