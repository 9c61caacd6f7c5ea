// internal/storage/memory.go
// Package storage persists booking inquiries submitted through the public booking form.
// Both an in-memory and a PostgreSQL backend implement Store.
package storage

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/abhinandan-events/site-bff-go/internal/model"
)

// Standard errors returned by the storage layer
var (
	ErrNotFound = errors.New("not found") // Returned when a booking is not found
	ErrConflict = errors.New("conflict")  // Returned when a booking ID already exists
)

// Default limits for list operations
const (
	DefaultListLimit = 25
	MaxListLimit     = 100
)

// Store defines the booking persistence operations.
type Store interface {
	CreateBooking(ctx context.Context, b model.BookingInquiry) error
	GetBooking(ctx context.Context, id string) (*model.BookingInquiry, error)
	// ListBookings returns the newest bookings first. limit is clamped to 1..MaxListLimit.
	ListBookings(ctx context.Context, limit int) ([]model.BookingInquiry, error)
	// Ping reports whether the backend can serve requests.
	Ping(ctx context.Context) error
	Close()
}

// memory implements Store in process memory.
// It's intended for development and testing purposes.
type memory struct {
	mu       sync.RWMutex
	bookings map[string]model.BookingInquiry
}

// NewMemory creates a new in-memory store.
func NewMemory() Store {
	return &memory{bookings: make(map[string]model.BookingInquiry)}
}

func (m *memory) CreateBooking(ctx context.Context, b model.BookingInquiry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.bookings[b.ID]; exists {
		return ErrConflict
	}
	m.bookings[b.ID] = b
	return nil
}

func (m *memory) GetBooking(ctx context.Context, id string) (*model.BookingInquiry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	b, ok := m.bookings[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &b, nil
}

func (m *memory) ListBookings(ctx context.Context, limit int) ([]model.BookingInquiry, error) {
	m.mu.RLock()
	out := make([]model.BookingInquiry, 0, len(m.bookings))
	for _, b := range m.bookings {
		out = append(out, b)
	}
	m.mu.RUnlock()

	// Newest first; IDs are ULIDs so they break ties in creation order.
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})

	if limit = clampLimit(limit); len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memory) Ping(ctx context.Context) error { return ctx.Err() }

func (m *memory) Close() {}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultListLimit
	case limit > MaxListLimit:
		return MaxListLimit
	default:
		return limit
	}
}
