package bookings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const bookingColumns = `id, customer_name, customer_phone, customer_email, service_id, service_name,
	service_category, price_kes, duration_label, duration_minutes, stylist_id, stylist_name,
	booking_date::text, booking_time, location, notes, status, booking_method, created_at`

// PostgresRepository stores bookings in the salon_bookings table.
type PostgresRepository struct {
	db db
}

// NewPostgresRepository creates a repository backed by a pgx pool (or any compatible querier).
func NewPostgresRepository(pool db) *PostgresRepository {
	if pool == nil {
		panic("bookings: pgx pool required")
	}
	return &PostgresRepository{db: pool}
}

func (r *PostgresRepository) Insert(ctx context.Context, b *Booking) error {
	id, err := uuid.Parse(b.ID)
	if err != nil {
		return fmt.Errorf("bookings: booking id must be a UUID: %w", err)
	}
	query := `
		INSERT INTO salon_bookings (
			id, customer_name, customer_phone, customer_email, service_id, service_name,
			service_category, price_kes, duration_label, duration_minutes, stylist_id, stylist_name,
			booking_date, booking_time, location, notes, status, booking_method
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		RETURNING created_at
	`
	if err := r.db.QueryRow(ctx, query,
		id,
		b.CustomerName,
		b.CustomerPhone,
		b.CustomerEmail,
		b.ServiceID,
		b.Service,
		b.ServiceCategory,
		b.Price,
		b.Duration,
		b.DurationMinutes,
		b.StylistID,
		b.StylistName,
		b.Date,
		b.Time,
		b.Location,
		b.Notes,
		b.Status,
		b.BookingMethod,
	).Scan(&b.CreatedAt); err != nil {
		return fmt.Errorf("bookings: insert failed: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*Booking, error) {
	row := r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM salon_bookings WHERE id = $1`, id)
	b, err := scanBooking(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("bookings: select failed: %w", err)
	}
	return b, nil
}

func (r *PostgresRepository) ListByDate(ctx context.Context, date string) ([]Booking, error) {
	rows, err := r.db.Query(ctx, `SELECT `+bookingColumns+` FROM salon_bookings WHERE booking_date = $1 ORDER BY created_at`, date)
	if err != nil {
		return nil, fmt.Errorf("bookings: list failed: %w", err)
	}
	defer rows.Close()

	out := []Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("bookings: scan failed: %w", err)
		}
		out = append(out, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("bookings: list failed: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) BookedTimes(ctx context.Context, staffID string, date time.Time) ([]string, error) {
	rows, err := r.db.Query(ctx, `
		SELECT booking_time
		FROM salon_bookings
		WHERE stylist_id = $1 AND booking_date = $2 AND status = $3
	`, staffID, date.Format(time.DateOnly), StatusConfirmed)
	if err != nil {
		return nil, fmt.Errorf("bookings: booked times: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("bookings: scan booked time: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("bookings: booked times: %w", err)
	}
	return out, nil
}

func scanBooking(row pgx.Row) (*Booking, error) {
	var (
		b  Booking
		id uuid.UUID
	)
	if err := row.Scan(
		&id,
		&b.CustomerName,
		&b.CustomerPhone,
		&b.CustomerEmail,
		&b.ServiceID,
		&b.Service,
		&b.ServiceCategory,
		&b.Price,
		&b.Duration,
		&b.DurationMinutes,
		&b.StylistID,
		&b.StylistName,
		&b.Date,
		&b.Time,
		&b.Location,
		&b.Notes,
		&b.Status,
		&b.BookingMethod,
		&b.CreatedAt,
	); err != nil {
		return nil, err
	}
	b.ID = id.String()
	return &b, nil
}
