// internal/storage/postgres.go
// PostgreSQL implementation of the Store interface, intended for production use.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/abhinandan-events/site-bff-go/internal/model"
)

// postgres provides persistent storage for booking inquiries.
type postgres struct {
	db *pgxpool.Pool // Connection pool to PostgreSQL database
}

// NewPostgres creates a PostgreSQL store.
// It establishes a connection pool to the database and initializes the schema.
func NewPostgres(dsn string) (Store, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("invalid database DSN: %w", err)
	}

	// Booking intake is low volume; keep the pool small
	config.MaxConns = 10
	config.MinConns = 1
	config.MaxConnLifetime = time.Hour
	config.MaxConnIdleTime = 30 * time.Minute
	config.HealthCheckPeriod = time.Minute

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := initSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &postgres{db: pool}, nil
}

// initSchema creates the bookings table and its index if they don't already exist.
func initSchema(ctx context.Context, db *pgxpool.Pool) error {
	schema := `
		CREATE TABLE IF NOT EXISTS booking_inquiries (
		    id TEXT PRIMARY KEY,                      -- ULID
		    full_name TEXT NOT NULL,
		    email TEXT NOT NULL,
		    phone TEXT NOT NULL DEFAULT '',
		    preferred_contact TEXT NOT NULL DEFAULT '',
		    event_type TEXT NOT NULL DEFAULT '',
		    guest_count INTEGER NOT NULL DEFAULT 0,
		    event_date TEXT NOT NULL DEFAULT '',      -- as typed by the visitor
		    budget TEXT NOT NULL DEFAULT '',
		    venue TEXT NOT NULL DEFAULT '',
		    notes TEXT NOT NULL DEFAULT '',
		    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_booking_inquiries_created_at ON booking_inquiries(created_at DESC);
	`
	_, err := db.Exec(ctx, schema)
	return err
}

const bookingColumns = `id, full_name, email, phone, preferred_contact, event_type, guest_count,
	event_date, budget, venue, notes, created_at`

// Close closes the database connection pool
func (p *postgres) Close() {
	p.db.Close()
}

// Ping checks database connectivity
func (p *postgres) Ping(ctx context.Context) error {
	return p.db.Ping(ctx)
}

// CreateBooking inserts a booking inquiry
func (p *postgres) CreateBooking(ctx context.Context, b model.BookingInquiry) error {
	query := `INSERT INTO booking_inquiries (` + bookingColumns + `)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := p.db.Exec(ctx, query,
		b.ID,
		b.FullName,
		b.Email,
		b.Phone,
		b.PreferredContact,
		b.EventType,
		b.GuestCount,
		b.EventDate,
		b.Budget,
		b.Venue,
		b.Notes,
		b.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrConflict
		}
		return fmt.Errorf("failed to create booking: %w", err)
	}
	return nil
}

// GetBooking retrieves a booking inquiry by ID
func (p *postgres) GetBooking(ctx context.Context, id string) (*model.BookingInquiry, error) {
	query := `SELECT ` + bookingColumns + ` FROM booking_inquiries WHERE id = $1`
	b, err := scanBooking(p.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return &b, nil
}

// ListBookings returns the most recent booking inquiries
func (p *postgres) ListBookings(ctx context.Context, limit int) ([]model.BookingInquiry, error) {
	query := `SELECT ` + bookingColumns + ` FROM booking_inquiries
	          ORDER BY created_at DESC, id DESC LIMIT $1`

	rows, err := p.db.Query(ctx, query, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer rows.Close()

	out := []model.BookingInquiry{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	return out, nil
}

func scanBooking(row pgx.Row) (model.BookingInquiry, error) {
	var b model.BookingInquiry
	err := row.Scan(
		&b.ID,
		&b.FullName,
		&b.Email,
		&b.Phone,
		&b.PreferredContact,
		&b.EventType,
		&b.GuestCount,
		&b.EventDate,
		&b.Budget,
		&b.Venue,
		&b.Notes,
		&b.CreatedAt)
	return b, err
}
