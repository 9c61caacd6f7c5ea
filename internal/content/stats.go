package content

import (
	"context"
	"strings"
	"time"

	"github.com/abhinandan-events/site-bff-go/internal/model"
)

// EventLister supplies the event list statistics are derived from. *Client implements it.
type EventLister interface {
	RecentEvents(ctx context.Context) Result[[]model.Event]
}

// Layouts accepted for event dates. Zoned layouts keep their offset; ISO dates are UTC;
// everything else is read in local time.
var (
	zonedLayouts = []string{time.RFC3339Nano}
	utcLayouts   = []string{"2006-01-02"}
	localLayouts = []string{
		"2006-01-02T15:04:05.999999999",
		"2006-01-02T15:04",
		"2006-01-02 15:04:05",
		"January 2, 2006",
		"Jan 2, 2006",
		"2 January 2006",
		"02 Jan 2006",
		"2006/01/02",
		"01/02/2006",
	}
)

// ParseEventDate parses an event date in any accepted layout.
func ParseEventDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	for _, layout := range utcLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, true
		}
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ComputeStats derives counters from events as of now.
// Events whose date cannot be parsed count toward neither date counter. Cities are
// distinct non-empty location strings compared exactly.
func ComputeStats(events []model.Event, now time.Time) model.EventStats {
	var stats model.EventStats
	cities := make(map[string]struct{})
	for _, ev := range events {
		if ev.Location != "" {
			cities[ev.Location] = struct{}{}
		}
		t, ok := ParseEventDate(ev.Date)
		if !ok {
			continue
		}
		if t.In(now.Location()).Year() == now.Year() {
			stats.EventsThisYear++
		}
		if t.After(now) {
			stats.UpcomingEvents++
		}
	}
	stats.CitiesCovered = len(cities)
	return stats
}

// StatsFrom computes statistics from whatever lister returns and keeps its source. When
// no list is available the counters are zero with SourceUnavailable.
func StatsFrom(ctx context.Context, lister EventLister, now time.Time) Result[model.EventStats] {
	events := lister.RecentEvents(ctx)
	if events.Source == SourceUnavailable {
		return Result[model.EventStats]{Source: SourceUnavailable, Err: events.Err}
	}
	return Result[model.EventStats]{
		Data:   ComputeStats(events.Data, now),
		Source: events.Source,
		Err:    events.Err,
	}
}
