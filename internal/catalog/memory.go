package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/wolfman30/geecurly-receptionist/pkg/logging"
)

// DefaultServices is the GeeCurly service menu in display order.
func DefaultServices() []Service {
	return []Service{
		{ID: "svc-haircut-styling", Name: "Haircut & Styling", Category: "Hair Styling", Price: PriceRange{Min: 1500, Max: 3500}, Duration: "1.5 hours", DurationMinutes: 90},
		{ID: "svc-blow-dry", Name: "Professional Blow Dry", Category: "Hair Styling", Price: PriceRange{Min: 1200, Max: 2000}, Duration: "1 hour", DurationMinutes: 60},
		{ID: "svc-box-braids", Name: "Box Braids", Category: "Hair Braiding", Price: PriceRange{Min: 3000, Max: 6000}, Duration: "5 hours", DurationMinutes: 300},
		{ID: "svc-cornrows", Name: "Cornrows", Category: "Hair Braiding", Price: PriceRange{Min: 2000, Max: 4000}, Duration: "2.5 hours", DurationMinutes: 150},
		{ID: "svc-deep-conditioning", Name: "Deep Conditioning", Category: "Hair Treatment", Price: PriceRange{Min: 1500, Max: 2500}, Duration: "1 hour", DurationMinutes: 60},
		{ID: "svc-protein-treatment", Name: "Protein Treatment", Category: "Hair Treatment", Price: PriceRange{Min: 2000, Max: 3000}, Duration: "1.5 hours", DurationMinutes: 90},
		{ID: "svc-gel-manicure", Name: "Gel Manicure", Category: "Nail Services", Price: PriceRange{Min: 1200, Max: 1800}, Duration: "45 minutes", DurationMinutes: 45},
		{ID: "svc-spa-pedicure", Name: "Spa Pedicure", Category: "Nail Services", Price: PriceRange{Min: 1500, Max: 2000}, Duration: "1 hour", DurationMinutes: 60},
	}
}

// DefaultStaff is the GeeCurly team across both locations.
func DefaultStaff() []Staff {
	return []Staff{
		{ID: "stf-grace", Name: "Grace Wanjiru", Role: "Senior Stylist", Specialties: []string{"Hair Styling", "Hair Treatment"}, Location: "kiambu"},
		{ID: "stf-amina", Name: "Amina Otieno", Role: "Braiding Specialist", Specialties: []string{"Hair Braiding"}, Location: "kiambu"},
		{ID: "stf-faith", Name: "Faith Njeri", Role: "Nail Technician", Specialties: []string{"Nail Services"}, Location: "kiambu"},
		{ID: "stf-mercy", Name: "Mercy Achieng", Role: "Senior Stylist", Specialties: []string{"Hair Styling", "Hair Braiding"}, Location: "roysambu"},
		{ID: "stf-joy", Name: "Joy Kamau", Role: "Hair Treatment Specialist", Specialties: []string{"Hair Treatment"}, Location: "roysambu"},
		{ID: "stf-lucy", Name: "Lucy Mwangi", Role: "Nail Technician", Specialties: []string{"Nail Services"}, Location: "roysambu"},
	}
}

// InMemory serves a fixed catalog and derives availability from opening hours.
type InMemory struct {
	services []Service
	staff    []Staff
	hours    OpeningHours
	booked   BookedLookup
	logger   *logging.Logger
}

// Option customises an InMemory catalog.
type Option func(*InMemory)

// WithHours overrides the opening hours used for slot generation.
func WithHours(h OpeningHours) Option {
	return func(c *InMemory) { c.hours = h }
}

// WithBooked subtracts already-booked start times from generated slots.
func WithBooked(b BookedLookup) Option {
	return func(c *InMemory) { c.booked = b }
}

// NewInMemory builds a catalog over the given entities. Nil slices fall back to the GeeCurly defaults.
func NewInMemory(services []Service, staff []Staff, logger *logging.Logger, opts ...Option) *InMemory {
	if services == nil {
		services = DefaultServices()
	}
	if staff == nil {
		staff = DefaultStaff()
	}
	if logger == nil {
		logger = logging.Default()
	}
	c := &InMemory{
		services: services,
		staff:    staff,
		hours:    DefaultHours(),
		logger:   logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *InMemory) Services(ctx context.Context) ([]Service, error) {
	out := make([]Service, len(c.services))
	copy(out, c.services)
	return out, nil
}

func (c *InMemory) Staff(ctx context.Context) ([]Staff, error) {
	out := make([]Staff, len(c.staff))
	copy(out, c.staff)
	return out, nil
}

func (c *InMemory) StaffBySpecialty(ctx context.Context, category string) ([]Staff, error) {
	var out []Staff
	for _, s := range c.staff {
		if s.HasSpecialty(category) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (c *InMemory) AvailableSlots(ctx context.Context, date time.Time, staffID string, durationMinutes int) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !c.hasStaff(staffID) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownStaff, staffID)
	}
	return availableSlots(ctx, c.hours, c.booked, c.logger, date, staffID, durationMinutes)
}

func (c *InMemory) hasStaff(id string) bool {
	for _, s := range c.staff {
		if s.ID == id {
			return true
		}
	}
	return false
}

func availableSlots(ctx context.Context, hours OpeningHours, booked BookedLookup, logger *logging.Logger, date time.Time, staffID string, durationMinutes int) ([]string, error) {
	var taken []string
	if booked != nil {
		var err error
		taken, err = booked.BookedTimes(ctx, staffID, date)
		if err != nil {
			return nil, fmt.Errorf("catalog: booked times: %w", err)
		}
	}
	slots := hours.Slots(date, durationMinutes, taken)
	logger.Debug("slots computed", "staff_id", staffID, "date", date.Format(time.DateOnly), "count", len(slots))
	return slots, nil
}
