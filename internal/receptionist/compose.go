package receptionist

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/wolfman30/geecurly-receptionist/internal/bookings"
	"github.com/wolfman30/geecurly-receptionist/internal/catalog"
)

// ResponseType tags how a reply should be presented.
type ResponseType string

const (
	TypeWelcome      ResponseType = "welcome"
	TypeBooking      ResponseType = "booking"
	TypeInfo         ResponseType = "info"
	TypeConfirmation ResponseType = "confirmation"
	TypeEscalation   ResponseType = "escalation"
	TypeError        ResponseType = "error"
)

// Response is one bot reply. Confidence is a fixed value per reply kind and is only presentational.
type Response struct {
	Text         string            `json:"text"`
	Type         ResponseType      `json:"type"`
	QuickActions []string          `json:"quick_actions,omitempty"`
	Confidence   float64           `json:"confidence"`
	Booking      *bookings.Request `json:"booking,omitempty"`
}

const anyStylist = "Any available stylist"

func composeGreeting(salon SalonInfo) Response {
	return Response{
		Text: fmt.Sprintf("Hello! 👋 Welcome to %s!\n\n*%s* 🌟\n\nI'm your AI beauty assistant, here to help you:\n"+
			"• Book appointments 📅\n• Learn about our services 💇‍♀️\n• Meet our expert team 👩‍💼\n• Get pricing information 💰\n• Find our locations 📍\n\n"+
			"How can I make you look and feel amazing today?", salon.Name, salon.SocialProof),
		Type:         TypeWelcome,
		QuickActions: []string{"Book appointment", "View services", "Check prices", "Location info", "Meet the team", "Special offers"},
		Confidence:   1.0,
	}
}

func composeReset(salon SalonInfo) Response {
	return Response{
		Text: fmt.Sprintf("🔄 Perfect! Let's start fresh.\n\nWelcome to %s! I'm here to help you with:\n\n"+
			"• Booking appointments 📅\n• Service information 💇‍♀️\n• Pricing details 💰\n• Location & directions 📍\n\n*%s*\n\nHow can I help you today? ✨",
			salon.Name, salon.SocialProof),
		Type:         TypeWelcome,
		QuickActions: []string{"Book appointment", "View services", "Check prices", "Location info"},
		Confidence:   1.0,
	}
}

func composeServicesInfo(salon SalonInfo, services []catalog.Service) Response {
	var b strings.Builder
	fmt.Fprintf(&b, "💇‍♀️ **%s Expert Services:**\n", salon.Name)
	var actions []string
	for _, category := range categories(services) {
		fmt.Fprintf(&b, "\n**%s**\n", category)
		for _, s := range services {
			if s.Category == category {
				fmt.Fprintf(&b, "• %s - %s\n", s.Name, formatPrice(s.Price))
			}
		}
		actions = append(actions, "Book "+category)
	}
	b.WriteString("\nWhich service interests you most? ✨")
	return Response{
		Text:         b.String(),
		Type:         TypeInfo,
		QuickActions: append(actions, "View all services", "Get pricing"),
		Confidence:   0.9,
	}
}

func composePricing(salon SalonInfo, services []catalog.Service) Response {
	var b strings.Builder
	fmt.Fprintf(&b, "💰 **%s Pricing:**\n\n", salon.Name)
	for _, category := range categories(services) {
		fmt.Fprintf(&b, "• **%s:** %s\n", category, formatPrice(categoryRange(services, category)))
	}
	b.WriteString("\n*Prices vary based on hair length and service complexity.*\n\n" +
		"🎉 **Special Offers:**\n• First-time clients: 20% off\n• Student discount: 15% off\n\nReady to book your appointment? 📅")
	return Response{
		Text:         b.String(),
		Type:         TypeInfo,
		QuickActions: []string{"Book appointment", "Ask about offers", "View services", "Contact salon"},
		Confidence:   0.9,
	}
}

func composeStaffInfo(salon SalonInfo, staff []catalog.Staff) Response {
	var b strings.Builder
	fmt.Fprintf(&b, "👩‍💼 **Meet Our Expert %s Team:**\n", strings.TrimSuffix(salon.Name, " Salon"))
	for _, key := range salon.LocationOrder {
		loc := salon.Location(key)
		fmt.Fprintf(&b, "\n🏢 **%s**\n", loc.Name)
		for _, s := range staff {
			if s.Location == key {
				fmt.Fprintf(&b, "• **%s** - %s\n", s.Name, s.Role)
			}
		}
	}
	b.WriteString("\nWho would you like to book with? 🌟")
	return Response{
		Text:         b.String(),
		Type:         TypeInfo,
		QuickActions: []string{"Book with any stylist", "Hair specialist", "Nail technician", "Senior stylist"},
		Confidence:   0.9,
	}
}

func composeLocationInfo(salon SalonInfo, current string) Response {
	var b strings.Builder
	fmt.Fprintf(&b, "📍 **Visit %s:**\n\n**Currently Selected:** %s\n", salon.Name, salon.Location(current).Name)
	actions := make([]string, 0, len(salon.LocationOrder)+2)
	for _, key := range salon.LocationOrder {
		loc := salon.Location(key)
		fmt.Fprintf(&b, "\n🏢 **%s**\n%s\n📱 %s\n", loc.Name, loc.Address, loc.Phone)
		actions = append(actions, "Book at "+loc.Label)
	}
	fmt.Fprintf(&b, "\n⏰ **Hours:**\n• Mon-Sat: %s\n• Sunday: %s", salon.WeekdayHours, salon.SundayHours)
	return Response{
		Text:         b.String(),
		Type:         TypeInfo,
		QuickActions: append(actions, "Call salon", "Get directions"),
		Confidence:   0.9,
	}
}

func composeHours(salon SalonInfo) Response {
	return Response{
		Text: fmt.Sprintf("⏰ **%s Hours:**\n\n📅 **Monday - Saturday:** %s\n📅 **Sunday:** %s\n\n"+
			"**Both locations follow the same schedule!**\n\n💡 We recommend booking in advance for the best availability!\n\nReady to schedule your visit? 📱",
			salon.Name, salon.WeekdayHours, salon.SundayHours),
		Type:         TypeInfo,
		QuickActions: []string{"Book appointment", "Check availability", "Ask questions", "Call salon"},
		Confidence:   0.9,
	}
}

func composeGeneral(salon SalonInfo) Response {
	return Response{
		Text: fmt.Sprintf("I'm here to help you with %s! ✨\n\n*%s*\n\n**I can assist with:**\n"+
			"• 📅 Booking appointments\n• 💇‍♀️ Service information\n• 👩‍💼 Meeting our stylists\n• 💰 Pricing details\n• 📍 Location & directions\n\nWhat would you like to know? 🌟",
			salon.Name, salon.SocialProof),
		Type:         TypeInfo,
		QuickActions: []string{"Book appointment", "View services", "Meet team", "Check prices", "Get location", "Ask questions"},
		Confidence:   0.7,
	}
}

func composeLocationPrompt(salon SalonInfo, current string) Response {
	var b strings.Builder
	fmt.Fprintf(&b, "Perfect! I'd love to help you book at %s! 🌟\n\n**Choose Your Location:**\n", salon.Name)
	actions := make([]string, 0, len(salon.LocationOrder)+1)
	for _, key := range salon.LocationOrder {
		loc := salon.Location(key)
		fmt.Fprintf(&b, "\n🏢 **%s** - %s\n📱 Phone: %s\n", loc.Name, loc.Address, loc.Phone)
		actions = append(actions, loc.Area)
	}
	b.WriteString("\nWhich location works best for you? 📍")
	return Response{
		Text:         b.String(),
		Type:         TypeBooking,
		QuickActions: append(actions, "Current location: "+salon.Location(current).Label),
		Confidence:   1.0,
	}
}

func composeServiceMenu(salon SalonInfo, location string, services []catalog.Service) Response {
	var b strings.Builder
	fmt.Fprintf(&b, "Excellent! You've chosen our **%s** location! ✨\n\n**Our Popular Services:**\n\n", salon.Location(location).Name)
	for _, category := range categories(services) {
		fmt.Fprintf(&b, "• **%s** - %s\n", category, formatPrice(categoryRange(services, category)))
	}
	b.WriteString("\nWhich service would you like to book? 🌟")
	return Response{
		Text:         b.String(),
		Type:         TypeBooking,
		QuickActions: categories(services),
		Confidence:   1.0,
	}
}

func composeServicePrompt(salon SalonInfo, services []catalog.Service) Response {
	var b strings.Builder
	fmt.Fprintf(&b, "I'd love to help you find the perfect service! Which service interests you?\n\n**Available at %s:**\n", salon.Name)
	for _, category := range categories(services) {
		fmt.Fprintf(&b, "• %s\n", category)
	}
	b.WriteString("\nJust click one above or tell me what you're looking for! 💇‍♀️")
	return Response{
		Text:         b.String(),
		Type:         TypeBooking,
		QuickActions: categories(services),
		Confidence:   0.7,
	}
}

func composeServiceChosen(salon SalonInfo, location string, svc catalog.Service, staff []catalog.Staff) Response {
	var b strings.Builder
	fmt.Fprintf(&b, "Perfect choice! **%s** 💫\n\n**Service Details:**\n• Duration: %s\n• Price: %s\n• Location: %s\n\n**Available Stylists:**\n",
		svc.Name, svc.Duration, formatPrice(svc.Price), salon.Location(location).Name)
	for _, s := range staff {
		fmt.Fprintf(&b, "• **%s** - %s\n", s.Name, s.Role)
	}
	b.WriteString("\nWho would you prefer? 👩‍💼")
	return Response{
		Text:         b.String(),
		Type:         TypeBooking,
		QuickActions: append(staffNames(staff), anyStylist),
		Confidence:   0.9,
	}
}

func composeStylistPrompt(staff []catalog.Staff) Response {
	var b strings.Builder
	b.WriteString("Please choose your preferred stylist:\n\n")
	for _, s := range staff {
		fmt.Fprintf(&b, "👩‍💼 **%s** - %s\n", s.Name, s.Role)
	}
	b.WriteString("\nWho would you like to book with? ✨")
	return Response{
		Text:         b.String(),
		Type:         TypeBooking,
		QuickActions: staffNames(staff),
		Confidence:   0.8,
	}
}

func composeNoStaff(salon SalonInfo, location string, svc catalog.Service) Response {
	loc := salon.Location(location)
	return Response{
		Text: fmt.Sprintf("Our **%s** specialists aren't taking online bookings right now. Please reach the team directly:\n\n"+
			"📞 **Call:** %s\n💬 **WhatsApp:** +%s\n\nOr pick another service below. 🌟", svc.Category, loc.Phone, loc.WhatsApp),
		Type:         TypeEscalation,
		QuickActions: []string{"Call salon", "WhatsApp", "View services"},
		Confidence:   0.8,
	}
}

func composeFullyBooked(salon SalonInfo, location string, stylist catalog.Staff) Response {
	loc := salon.Location(location)
	return Response{
		Text: fmt.Sprintf("%s is currently fully booked. Let me help you with alternatives:\n\n📞 **Call:** %s\n💬 **WhatsApp:** +%s\n\n"+
			"Or would you like to try a different stylist? 🌟", stylist.Name, loc.Phone, loc.WhatsApp),
		Type:         TypeEscalation,
		QuickActions: []string{"Try different stylist", "Call salon", "WhatsApp"},
		Confidence:   0.8,
	}
}

func composeAvailabilityUnavailable(salon SalonInfo, location string) Response {
	loc := salon.Location(location)
	return Response{
		Text: fmt.Sprintf("Let me connect you with our team for real-time availability:\n\n📱 **Call:** %s\n💬 **WhatsApp:** +%s\n\n"+
			"They'll find the perfect time for you! 🚀", loc.Phone, loc.WhatsApp),
		Type:         TypeEscalation,
		QuickActions: []string{"Call now", "WhatsApp", "Try again"},
		Confidence:   0.7,
	}
}

func composeSlots(salon SalonInfo, location string, stylist catalog.Staff, days []OfferedDay) Response {
	var b strings.Builder
	fmt.Fprintf(&b, "Perfect! **%s** is available at our %s location! 🌟\n\n**Next Available Times:**\n\n", stylist.Name, salon.Location(location).Name)
	var actions []string
	for i, day := range days {
		fmt.Fprintf(&b, "**%s:**\n", day.Display)
		for _, slot := range day.Slots {
			fmt.Fprintf(&b, "• %s\n", slot)
		}
		if i < len(days)-1 {
			b.WriteString("\n")
		}
		n := len(day.Slots)
		if n > 2 {
			n = 2
		}
		actions = append(actions, day.Slots[:n]...)
	}
	b.WriteString("\nWhich time works best for you? 🕐")
	return Response{
		Text:         b.String(),
		Type:         TypeBooking,
		QuickActions: actions,
		Confidence:   0.9,
	}
}

func composeSlotPrompt() Response {
	return Response{
		Text: "What time works best for you? You can say:\n\n• \"10am tomorrow\"\n• \"2pm\"\n• \"First available\"\n• \"Morning time\"\n\n" +
			"Just let me know your preference! 🕐",
		Type:         TypeBooking,
		QuickActions: []string{"10:00 AM", "2:00 PM", "First available", "Morning"},
		Confidence:   0.8,
	}
}

func composeSlotReserved(salon SalonInfo, slot Slot, pick slotPick) Response {
	var note string
	switch pick {
	case pickEarliest:
		note = "I picked the earliest opening for you. "
	case pickDefaulted:
		note = "That wasn't one of the openings I listed, so I chose a slot for you. "
	}
	return Response{
		Text: note + fmt.Sprintf("Great! I've reserved **%s** at **%s** for you! 🎉\n\n📝 **Just need your details:**\n\n"+
			"• Your full name\n• Phone number\n• Email (optional)\n\nPlease share them with me to complete your %s booking! 😊",
			longDate(slot.Date), slot.Time, salon.Name),
		Type:       TypeBooking,
		Confidence: 0.9,
	}
}

func composeContactPrompt(salon SalonInfo) Response {
	return Response{
		Text: fmt.Sprintf("I need your contact details to complete the %s booking:\n\n📝 **Please provide:**\n• Your full name\n• Phone number\n\n"+
			"**Example:** \"My name is Sarah Wanjiku and my phone is 0712345678\"\n\nThis helps us send confirmations and reminders! 📱", salon.Name),
		Type:       TypeBooking,
		Confidence: 0.8,
	}
}

func composeSummary(salon SalonInfo, st State, req bookings.Request) Response {
	var b strings.Builder
	fmt.Fprintf(&b, "Perfect! Let me confirm your %s booking: ✨\n\n📋 **BOOKING SUMMARY**\n\n", salon.Name)
	fmt.Fprintf(&b, "👤 **Customer:** %s\n📱 **Phone:** %s\n", st.Contact.Name, st.Contact.Phone)
	if st.Contact.Email != "" {
		fmt.Fprintf(&b, "📧 **Email:** %s\n", st.Contact.Email)
	}
	fmt.Fprintf(&b, "💇‍♀️ **Service:** %s\n👩‍💼 **Stylist:** %s\n📅 **Date & Time:** %s at %s\n📍 **Location:** %s\n💰 **Price:** %s\n\n✅ **Confirm this booking?**",
		st.Service.Name, st.Stylist.Name, longDate(st.Slot.Date), st.Slot.Time, salon.Location(st.Location).Name, formatPrice(st.Service.Price))
	return Response{
		Text:         b.String(),
		Type:         TypeBooking,
		QuickActions: []string{"Yes, confirm booking", "Make changes", "Cancel"},
		Confidence:   1.0,
		Booking:      &req,
	}
}

func composeBooked(salon SalonInfo, location, customer string, booking *bookings.Booking) Response {
	loc := salon.Location(location)
	return Response{
		Text: fmt.Sprintf("🎉 **BOOKING CONFIRMED!** 🎉\n\n✅ Congratulations %s! Your %s appointment is booked!\n\n🆔 **Booking ID:** %s\n"+
			"📱 **Confirmation sent via SMS**\n⏰ **Reminder set for 24 hours before**\n\n**📍 Location:**\n%s\n%s\n%s\n\n"+
			"**📞 Need to make changes?**\nCall: %s\n\n**We can't wait to make you look stunning!** ✨👑\n\n*%s* 💫",
			customer, salon.Name, booking.ShortID(), loc.Name, loc.Address, loc.Area, loc.Phone, salon.SocialProof),
		Type:         TypeConfirmation,
		QuickActions: []string{"Book another appointment", "Get directions", "Call salon"},
		Confidence:   1.0,
	}
}

func composeBookingFailed(salon SalonInfo, location string) Response {
	loc := salon.Location(location)
	return Response{
		Text: fmt.Sprintf("There was an issue creating your booking. Please contact us directly:\n\n📱 **Call:** %s\n💬 **WhatsApp:** +%s\n\n"+
			"Our team will complete your booking immediately! 🤝", loc.Phone, loc.WhatsApp),
		Type:         TypeError,
		QuickActions: []string{"Call now", "WhatsApp", "Try again"},
		Confidence:   0.7,
	}
}

func composeMissingDetails(missing []string) Response {
	return Response{
		Text: fmt.Sprintf("I can't confirm yet. I'm still missing your %s.\n\nLet's fix that before we book. 🔄", strings.Join(missing, ", ")),
		Type:         TypeError,
		QuickActions: []string{"Make changes", "Start over"},
		Confidence:   0.7,
	}
}

func composeChangePrompt() Response {
	return Response{
		Text:         "No problem! Let's make some changes to your booking.\n\nWhich part would you like to modify? 🔄",
		Type:         TypeBooking,
		QuickActions: []string{"Change service", "Change stylist", "Change time", "Start over"},
		Confidence:   0.9,
	}
}

func composeCancelled() Response {
	return Response{
		Text:         "Booking cancelled. No worries! I'm here whenever you're ready to book.\n\nHow else can I help you today? 😊",
		Type:         TypeWelcome,
		QuickActions: []string{"Book appointment", "View services", "Ask questions"},
		Confidence:   1.0,
	}
}

func composeTechnicalIssue(salon SalonInfo, location string) Response {
	loc := salon.Location(location)
	return Response{
		Text: fmt.Sprintf("I apologize for the technical issue! Please contact our team:\n\n📱 **Call:** %s\n💬 **WhatsApp:** +%s\n\n"+
			"They'll provide immediate assistance! 🤝", loc.Phone, loc.WhatsApp),
		Type:         TypeError,
		QuickActions: []string{"Call now", "WhatsApp", "Try again"},
		Confidence:   0.7,
	}
}

func categoryRange(services []catalog.Service, category string) catalog.PriceRange {
	var r catalog.PriceRange
	first := true
	for _, s := range services {
		if s.Category != category {
			continue
		}
		if first || s.Price.Min < r.Min {
			r.Min = s.Price.Min
		}
		if first || s.Price.Max > r.Max {
			r.Max = s.Price.Max
		}
		first = false
	}
	return r
}

func formatPrice(p catalog.PriceRange) string {
	return fmt.Sprintf("KES %s - %s", formatKES(p.Min), formatKES(p.Max))
}

// formatKES groups thousands: 12500 -> "12,500".
func formatKES(n int) string {
	s := strconv.Itoa(n)
	if n < 0 {
		return "-" + formatKES(-n)
	}
	for i := len(s) - 3; i > 0; i -= 3 {
		s = s[:i] + "," + s[i:]
	}
	return s
}

func longDate(date string) string {
	d, err := time.Parse(time.DateOnly, date)
	if err != nil {
		return date
	}
	return d.Format("Monday, January 2")
}
