package bookings

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/wolfman30/geecurly-receptionist/internal/catalog"
)

// Repository persists bookings.
type Repository interface {
	Insert(ctx context.Context, b *Booking) error
	Get(ctx context.Context, id string) (*Booking, error)
	ListByDate(ctx context.Context, date string) ([]Booking, error)
	BookedTimes(ctx context.Context, staffID string, date time.Time) ([]string, error)
}

var _ catalog.BookedLookup = (Repository)(nil)

// MemoryRepository keeps bookings in process memory.
type MemoryRepository struct {
	mu       sync.RWMutex
	bookings map[string]Booking
}

// NewMemoryRepository creates an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{bookings: make(map[string]Booking)}
}

func (r *MemoryRepository) Insert(ctx context.Context, b *Booking) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	r.bookings[b.ID] = *b
	return nil
}

func (r *MemoryRepository) Get(ctx context.Context, id string) (*Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &b, nil
}

func (r *MemoryRepository) ListByDate(ctx context.Context, date string) ([]Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []Booking{}
	for _, b := range r.bookings {
		if b.Date == date {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *MemoryRepository) BookedTimes(ctx context.Context, staffID string, date time.Time) ([]string, error) {
	day := date.Format(time.DateOnly)
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []string
	for _, b := range r.bookings {
		if b.StylistID == staffID && b.Date == day && b.Status == StatusConfirmed {
			out = append(out, b.Time)
		}
	}
	return out, nil
}
