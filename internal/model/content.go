// internal/model/content.go
// Package model defines the data structures shared by the site service.
// Content types mirror what the marketing site renders; wire names follow the backend API.
package model

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// ID is an identifier the backend may encode as either a JSON number or a JSON string.
// It is always exposed as a string.
type ID string

// UnmarshalJSON accepts numbers, strings and null.
func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

// IntID formats a sequential identifier.
func IntID(n int) ID {
	return ID(strconv.Itoa(n))
}

// Count is a display counter the backend may send as a number or a numeric string.
// Values that are neither decode as zero rather than failing the enclosing record.
type Count int

// UnmarshalJSON accepts numbers, numeric strings ("120", "1,200") and null.
func (c *Count) UnmarshalJSON(b []byte) error {
	*c = 0
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return nil
		}
		b = []byte(strings.ReplaceAll(strings.TrimSpace(s), ",", ""))
	}
	if n, err := strconv.ParseFloat(string(b), 64); err == nil && n > 0 {
		*c = Count(n)
	}
	return nil
}

// Event is a showcased event. It is created by the admin back-office and read-only here.
type Event struct {
	ID          ID       `json:"id" yaml:"id"`                             // Stable identifier
	Title       string   `json:"title" yaml:"title"`                       // Display title
	Image       string   `json:"image" yaml:"image"`                       // Cover image (resolved to an absolute URL)
	Images      []string `json:"images,omitempty" yaml:"images,omitempty"` // Gallery images for the detail page
	Date        string   `json:"date" yaml:"date"`                         // ISO-like date, not guaranteed parseable
	Attendees   Count    `json:"attendees" yaml:"attendees"`               // Attendee count
	Client      string   `json:"client" yaml:"client"`                     // Client name
	Location    string   `json:"location" yaml:"location"`                 // Free-text location
	Description string   `json:"description" yaml:"description"`           // Free-text description
}

// EventStats are counters derived from the current event list. They are never stored.
type EventStats struct {
	EventsThisYear int `json:"eventsThisYear"`
	UpcomingEvents int `json:"upcomingEvents"`
	CitiesCovered  int `json:"citiesCovered"`
}

// Photo is a flattened gallery photo. IDs are assigned at flatten time.
type Photo struct {
	ID       ID     `json:"id"`
	Category string `json:"category"`
	Title    string `json:"title"`
	Image    string `json:"image"`
}

// PhotoGroup is the nested category→items layout the photo fixtures are kept in.
type PhotoGroup struct {
	Category string      `yaml:"category"`
	Items    []PhotoItem `yaml:"items"`
}

// PhotoItem is a single entry inside a PhotoGroup.
type PhotoItem struct {
	Title string `yaml:"title"`
	Image string `yaml:"image"`
}

// Video platforms.
const (
	PlatformYouTube   = "youtube"
	PlatformInstagram = "instagram"
)

// Video is a gallery video hosted on YouTube or Instagram.
type Video struct {
	ID        ID     `json:"id" yaml:"id"`
	Category  string `json:"category" yaml:"category"`
	Title     string `json:"title" yaml:"title"`
	Platform  string `json:"platform" yaml:"platform"`
	URL       string `json:"url" yaml:"url"`
	Thumbnail string `json:"thumbnail,omitempty" yaml:"thumbnail,omitempty"`
	Duration  string `json:"duration,omitempty" yaml:"duration,omitempty"`
}

// GalleryStats summarises the gallery for the landing page.
type GalleryStats struct {
	TotalPhotos int      `json:"totalPhotos" yaml:"totalPhotos"`
	TotalVideos int      `json:"totalVideos" yaml:"totalVideos"`
	Categories  []string `json:"categories" yaml:"categories"`
}

// Service is an offered service line.
type Service struct {
	Title       string   `json:"title" yaml:"title"`
	Icon        string   `json:"icon" yaml:"icon"`
	Description string   `json:"description" yaml:"description"`
	Count       string   `json:"count" yaml:"count"`
	Features    []string `json:"features" yaml:"features"`
	Gradient    string   `json:"gradient,omitempty" yaml:"gradient,omitempty"`
}

// ServiceFeature is a short selling point shown under the services grid.
type ServiceFeature struct {
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
}

// GalleryItem is an admin-managed gallery entry.
type GalleryItem struct {
	ID       ID     `json:"id"`
	Type     string `json:"type"`     // image or video
	MediaURL string `json:"mediaUrl"` // URL or raw base64 data URL
}
