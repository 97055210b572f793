package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/geecurly-receptionist/internal/bookings"
	"github.com/wolfman30/geecurly-receptionist/internal/http/middleware"
	"github.com/wolfman30/geecurly-receptionist/pkg/logging"
)

// BookingReader is the read side of the bookings service.
type BookingReader interface {
	Get(ctx context.Context, id string) (*bookings.Booking, error)
	ListByDate(ctx context.Context, date string) ([]bookings.Booking, error)
}

// AdminBookingsHandler lets salon staff see what the receptionist booked.
type AdminBookingsHandler struct {
	bookings BookingReader
	loc      *time.Location
	logger   *logging.Logger
	now      func() time.Time
}

func NewAdminBookingsHandler(reader BookingReader, loc *time.Location, logger *logging.Logger) *AdminBookingsHandler {
	if logger == nil {
		logger = logging.Default()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &AdminBookingsHandler{bookings: reader, loc: loc, logger: logger, now: time.Now}
}

// BookingListResponse is one day of bookings.
type BookingListResponse struct {
	Date     string             `json:"date"`
	Location string             `json:"location,omitempty"`
	Bookings []bookings.Booking `json:"bookings"`
	Total    int                `json:"total"`
}

// ListBookings returns the bookings for ?date= (salon today by default).
// Tokens bound to a branch only see that branch; others may filter with ?location=.
// GET /admin/bookings
func (h *AdminBookingsHandler) ListBookings(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date = h.now().In(h.loc).Format(time.DateOnly)
	}
	location := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("location")))
	if claims, ok := middleware.AdminClaimsFromContext(r.Context()); ok && claims.Location != "" {
		location = claims.Location
	}

	list, err := h.bookings.ListByDate(r.Context(), date)
	if err != nil {
		if errors.Is(err, bookings.ErrInvalidRequest) {
			JSONError(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		h.logger.Error("failed to list bookings", "error", err, "date", date)
		JSONError(w, "internal error", http.StatusInternalServerError)
		return
	}

	out := make([]bookings.Booking, 0, len(list))
	for _, b := range list {
		if location == "" || b.Location == location {
			out = append(out, b)
		}
	}
	WriteJSON(w, http.StatusOK, BookingListResponse{Date: date, Location: location, Bookings: out, Total: len(out)})
}

// GetBooking returns a single booking.
// GET /admin/bookings/{bookingID}
func (h *AdminBookingsHandler) GetBooking(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "bookingID")
	b, err := h.bookings.Get(r.Context(), id)
	if errors.Is(err, bookings.ErrNotFound) {
		JSONError(w, "booking not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error("failed to get booking", "error", err, "booking_id", id)
		JSONError(w, "internal error", http.StatusInternalServerError)
		return
	}
	if claims, ok := middleware.AdminClaimsFromContext(r.Context()); ok && claims.Location != "" && claims.Location != b.Location {
		JSONError(w, "booking not found", http.StatusNotFound)
		return
	}
	WriteJSON(w, http.StatusOK, b)
}
