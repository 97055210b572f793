package catalog

import (
	"context"
	"errors"
	"strings"
	"time"
)

// ErrUnknownStaff is returned when a slot query names a stylist the catalog does not carry.
var ErrUnknownStaff = errors.New("catalog: unknown staff member")

// PriceRange is a price band in Kenyan shillings.
type PriceRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Service is a bookable salon service.
type Service struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	Category        string     `json:"category"`
	Price           PriceRange `json:"price"`
	Duration        string     `json:"duration"`
	DurationMinutes int        `json:"duration_minutes"`
}

// Staff is a stylist or technician working at one of the salons.
type Staff struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Role        string   `json:"role"`
	Specialties []string `json:"specialties"`
	Location    string   `json:"location"`
}

// HasSpecialty reports whether the staff member covers the service category.
func (s Staff) HasSpecialty(category string) bool {
	for _, sp := range s.Specialties {
		if strings.EqualFold(sp, category) {
			return true
		}
	}
	return false
}

// Catalog is the read-only view of services, staff and availability.
type Catalog interface {
	Services(ctx context.Context) ([]Service, error)
	Staff(ctx context.Context) ([]Staff, error)
	StaffBySpecialty(ctx context.Context, category string) ([]Staff, error)
	AvailableSlots(ctx context.Context, date time.Time, staffID string, durationMinutes int) ([]string, error)
}

// BookedLookup reports start times already taken for a stylist on a day.
// Times use the catalog slot layout ("3:04 PM").
type BookedLookup interface {
	BookedTimes(ctx context.Context, staffID string, date time.Time) ([]string, error)
}

// BookedLookupFunc adapts a function to BookedLookup.
type BookedLookupFunc func(ctx context.Context, staffID string, date time.Time) ([]string, error)

func (f BookedLookupFunc) BookedTimes(ctx context.Context, staffID string, date time.Time) ([]string, error) {
	return f(ctx, staffID, date)
}
