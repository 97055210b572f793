package notify

import (
	"context"
	"fmt"
	"html"
	"strconv"
	"strings"
	"time"

	"github.com/wolfman30/geecurly-receptionist/internal/bookings"
	"github.com/wolfman30/geecurly-receptionist/pkg/logging"
)

// Branch is the address block quoted in confirmation e-mails.
type Branch struct {
	Name    string
	Address string
	Phone   string
}

// BookingConfig describes the salon for confirmation e-mails.
type BookingConfig struct {
	SalonName string
	Branches  map[string]Branch
	// Recipients are salon inboxes copied on every booking.
	Recipients []string
}

// Service sends booking confirmations to the customer and the salon.
type Service struct {
	email  EmailSender
	cfg    BookingConfig
	logger *logging.Logger
}

func NewService(email EmailSender, cfg BookingConfig, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.SalonName == "" {
		cfg.SalonName = defaultFromName
	}
	return &Service{email: email, cfg: cfg, logger: logger}
}

// BookingConfirmed e-mails the customer (when an address was given) and every salon recipient.
// All sends are attempted; the error reports how many failed.
func (s *Service) BookingConfirmed(ctx context.Context, b *bookings.Booking) error {
	if s == nil || s.email == nil || b == nil {
		return nil
	}

	var failed int
	if b.CustomerEmail != "" {
		msg := s.customerMessage(b)
		if err := s.email.Send(ctx, msg); err != nil {
			s.logger.Error("notify: failed to send customer confirmation", "error", err, "booking_id", b.ID)
			failed++
		} else {
			s.logger.Info("notify: customer confirmation sent", "booking_id", b.ID)
		}
	}

	for _, recipient := range s.cfg.Recipients {
		msg := s.salonMessage(b, recipient)
		if err := s.email.Send(ctx, msg); err != nil {
			s.logger.Error("notify: failed to send salon notification", "error", err, "to", recipient, "booking_id", b.ID)
			failed++
		} else {
			s.logger.Info("notify: salon notification sent", "to", recipient, "booking_id", b.ID)
		}
	}

	if failed > 0 {
		return fmt.Errorf("notify: %d notification(s) failed", failed)
	}
	return nil
}

func (s *Service) customerMessage(b *bookings.Booking) EmailMessage {
	branch := s.branch(b.Location)
	when := appointmentTime(b)
	subject := fmt.Sprintf("Your %s booking is confirmed (%s)", s.cfg.SalonName, b.ShortID())
	body := fmt.Sprintf(`Hi %s,

Your appointment is booked!

Booking ID: %s
Service: %s
Stylist: %s
When: %s
Price from: KES %s

%s
%s
Need to make changes? Call %s.

See you soon!
%s`, b.CustomerName, b.ShortID(), b.Service, b.StylistName, when, groupThousands(b.Price),
		branch.Name, branch.Address, branch.Phone, s.cfg.SalonName)

	htmlBody := fmt.Sprintf(`<div style="font-family: sans-serif; max-width: 600px;">
<h2 style="color: #b45309;">Booking confirmed</h2>
<p>Hi <strong>%s</strong>, your appointment is booked.</p>
<table style="border-collapse: collapse; margin: 20px 0;">
%s%s%s%s%s
</table>
<p><strong>%s</strong><br>%s<br>Need to make changes? Call <a href="tel:%s">%s</a>.</p>
<p style="color: #6b7280; font-size: 12px; margin-top: 20px;">%s</p>
</div>`,
		esc(b.CustomerName),
		row("Booking ID", b.ShortID()), row("Service", b.Service), row("Stylist", b.StylistName),
		row("When", when), row("Price from", "KES "+groupThousands(b.Price)),
		esc(branch.Name), esc(branch.Address), esc(branch.Phone), esc(branch.Phone), esc(s.cfg.SalonName))

	return EmailMessage{To: b.CustomerEmail, ToName: b.CustomerName, Subject: subject, Body: body, HTML: htmlBody}
}

func (s *Service) salonMessage(b *bookings.Booking, to string) EmailMessage {
	branch := s.branch(b.Location)
	when := appointmentTime(b)
	subject := fmt.Sprintf("New booking: %s with %s, %s", b.Service, b.StylistName, when)
	body := fmt.Sprintf(`New %s booking via %s.

Customer: %s
Phone: %s
Email: %s
Service: %s (%s)
Stylist: %s
When: %s
Branch: %s
Booking ID: %s`, s.cfg.SalonName, b.BookingMethod, b.CustomerName, b.CustomerPhone, orDash(b.CustomerEmail),
		b.Service, b.Duration, b.StylistName, when, branch.Name, b.ID)
	if b.Notes != "" {
		body += "\nNotes: " + b.Notes
	}
	return EmailMessage{To: to, Subject: subject, Body: body}
}

func (s *Service) branch(key string) Branch {
	if br, ok := s.cfg.Branches[key]; ok {
		return br
	}
	return Branch{Name: s.cfg.SalonName}
}

func appointmentTime(b *bookings.Booking) string {
	d, err := time.Parse(time.DateOnly, b.Date)
	if err != nil {
		return strings.TrimSpace(b.Date + " " + b.Time)
	}
	return d.Format("Monday, January 2") + " at " + b.Time
}

func row(label, value string) string {
	return fmt.Sprintf(`  <tr><td style="padding: 8px; border-bottom: 1px solid #e5e7eb;"><strong>%s:</strong></td><td style="padding: 8px; border-bottom: 1px solid #e5e7eb;">%s</td></tr>
`, esc(label), esc(value))
}

func esc(s string) string { return html.EscapeString(s) }

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func groupThousands(n int) string {
	s := strconv.Itoa(n)
	for i := len(s) - 3; i > 0; i -= 3 {
		s = s[:i] + "," + s[i:]
	}
	return s
}

var _ bookings.Notifier = (*Service)(nil)
