package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/wolfman30/geecurly-receptionist/pkg/logging"
)

// Postgres reads services and staff from the salon_services and salon_staff tables.
type Postgres struct {
	db     *sql.DB
	hours  OpeningHours
	booked BookedLookup
	logger *logging.Logger
}

// NewPostgres creates a catalog backed by database/sql.
func NewPostgres(db *sql.DB, booked BookedLookup, logger *logging.Logger) *Postgres {
	if db == nil {
		panic("catalog: sql db required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Postgres{db: db, hours: DefaultHours(), booked: booked, logger: logger}
}

func (p *Postgres) Services(ctx context.Context) ([]Service, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, name, category, price_min, price_max, duration_label, duration_minutes
		FROM salon_services
		WHERE active
		ORDER BY position, name`)
	if err != nil {
		return nil, fmt.Errorf("catalog: list services: %w", err)
	}
	defer rows.Close()

	var out []Service
	for rows.Next() {
		var s Service
		if err := rows.Scan(&s.ID, &s.Name, &s.Category, &s.Price.Min, &s.Price.Max, &s.Duration, &s.DurationMinutes); err != nil {
			return nil, fmt.Errorf("catalog: scan service: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("catalog: list services: %w", err)
	}
	return out, nil
}

func (p *Postgres) Staff(ctx context.Context) ([]Staff, error) {
	return p.queryStaff(ctx, `
		SELECT id, name, role, specialties, location
		FROM salon_staff
		WHERE active
		ORDER BY position, name`)
}

func (p *Postgres) StaffBySpecialty(ctx context.Context, category string) ([]Staff, error) {
	return p.queryStaff(ctx, `
		SELECT id, name, role, specialties, location
		FROM salon_staff
		WHERE active AND $1 ILIKE ANY(specialties)
		ORDER BY position, name`, category)
}

func (p *Postgres) AvailableSlots(ctx context.Context, date time.Time, staffID string, durationMinutes int) ([]string, error) {
	var exists bool
	err := p.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM salon_staff WHERE id = $1 AND active)`, staffID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("catalog: lookup staff: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrUnknownStaff, staffID)
	}
	return availableSlots(ctx, p.hours, p.booked, p.logger, date, staffID, durationMinutes)
}

func (p *Postgres) queryStaff(ctx context.Context, query string, args ...any) ([]Staff, error) {
	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("catalog: list staff: %w", err)
	}
	defer rows.Close()

	var out []Staff
	for rows.Next() {
		var s Staff
		if err := rows.Scan(&s.ID, &s.Name, &s.Role, pq.Array(&s.Specialties), &s.Location); err != nil {
			return nil, fmt.Errorf("catalog: scan staff: %w", err)
		}
		if s.Specialties == nil {
			s.Specialties = []string{}
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("catalog: list staff: %w", err)
	}
	return out, nil
}
