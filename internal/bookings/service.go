package bookings

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/geecurly-receptionist/pkg/logging"
)

var bookingsTracer = otel.Tracer("geecurly.internal.bookings")

// Notifier is told about confirmed bookings. Failures never undo the booking.
type Notifier interface {
	BookingConfirmed(ctx context.Context, b *Booking) error
}

// Service is the booking ledger used by the chat flow and the admin API.
type Service struct {
	repo     Repository
	notifier Notifier
	logger   *logging.Logger
	now      func() time.Time
}

// NewService constructs a bookings service.
func NewService(repo Repository, notifier Notifier, logger *logging.Logger) *Service {
	if repo == nil {
		panic("bookings: repository required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{repo: repo, notifier: notifier, logger: logger, now: time.Now}
}

// Create validates the request and stores a confirmed booking.
func (s *Service) Create(ctx context.Context, req Request) (*Booking, error) {
	ctx, span := bookingsTracer.Start(ctx, "bookings.create")
	defer span.End()
	span.SetAttributes(
		attribute.String("geecurly.location", req.Location),
		attribute.String("geecurly.stylist_id", req.StylistID),
		attribute.String("geecurly.date", req.Date),
	)

	if req.BookingMethod == "" {
		req.BookingMethod = MethodAIChat
	}
	if err := req.Validate(); err != nil {
		span.RecordError(err)
		return nil, err
	}

	b := &Booking{
		ID:        uuid.NewString(),
		Request:   req,
		Status:    StatusConfirmed,
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.Insert(ctx, b); err != nil {
		span.RecordError(err)
		s.logger.Error("booking insert failed", "stylist_id", req.StylistID, "date", req.Date, "error", err)
		return nil, fmt.Errorf("bookings: create: %w", err)
	}
	span.SetAttributes(attribute.String("geecurly.booking_id", b.ID))
	s.logger.Info("booking confirmed", "booking_id", b.ID, "service", req.Service, "stylist_id", req.StylistID, "date", req.Date, "time", req.Time, "location", req.Location)

	if s.notifier != nil {
		if err := s.notifier.BookingConfirmed(ctx, b); err != nil {
			s.logger.Warn("booking notification failed", "booking_id", b.ID, "error", err)
		}
	}
	return b, nil
}

// Get loads a single booking.
func (s *Service) Get(ctx context.Context, id string) (*Booking, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	return s.repo.Get(ctx, id)
}

// ListByDate returns bookings scheduled on date (YYYY-MM-DD).
func (s *Service) ListByDate(ctx context.Context, date string) ([]Booking, error) {
	ctx, span := bookingsTracer.Start(ctx, "bookings.list")
	defer span.End()

	if _, err := time.Parse(time.DateOnly, date); err != nil {
		return nil, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidRequest)
	}
	out, err := s.repo.ListByDate(ctx, date)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return out, nil
}

// BookedTimes exposes taken start times so the catalog can subtract them from availability.
func (s *Service) BookedTimes(ctx context.Context, staffID string, date time.Time) ([]string, error) {
	return s.repo.BookedTimes(ctx, staffID, date)
}
