package bookings

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var (
	// ErrNotFound is returned when a booking id is unknown.
	ErrNotFound = errors.New("bookings: not found")
	// ErrInvalidRequest wraps validation failures on a booking request.
	ErrInvalidRequest = errors.New("bookings: invalid request")
)

const (
	StatusConfirmed = "confirmed"
	MethodAIChat    = "ai_chat"
)

var validate = validator.New()

// Request carries everything collected by the chat flow for a new appointment.
type Request struct {
	CustomerName    string `json:"customer_name" validate:"required"`
	CustomerPhone   string `json:"customer_phone" validate:"required,min=9,max=13"`
	CustomerEmail   string `json:"customer_email,omitempty" validate:"omitempty,email"`
	ServiceID       string `json:"service_id,omitempty"`
	Service         string `json:"service" validate:"required"`
	ServiceCategory string `json:"service_category"`
	Price           int    `json:"price" validate:"gte=0"`
	Duration        string `json:"duration"`
	DurationMinutes int    `json:"duration_minutes" validate:"gte=0"`
	StylistID       string `json:"stylist_id" validate:"required"`
	StylistName     string `json:"stylist_name"`
	Date            string `json:"date" validate:"required,datetime=2006-01-02"`
	Time            string `json:"time" validate:"required"`
	Location        string `json:"location" validate:"required,oneof=kiambu roysambu"`
	Notes           string `json:"notes,omitempty"`
	BookingMethod   string `json:"booking_method"`
}

// Validate checks required fields and formats.
func (r *Request) Validate() error {
	if r == nil {
		return fmt.Errorf("%w: request is nil", ErrInvalidRequest)
	}
	if err := validate.Struct(r); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s(%s)", fe.Field(), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", ErrInvalidRequest, strings.Join(fields, ", "))
		}
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return nil
}

// Booking is a stored appointment.
type Booking struct {
	ID string `json:"id"`
	Request
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// ShortID is the customer-facing reference: the last eight characters, upper-cased.
func (b *Booking) ShortID() string {
	id := b.ID
	if len(id) > 8 {
		id = id[len(id)-8:]
	}
	return strings.ToUpper(id)
}
