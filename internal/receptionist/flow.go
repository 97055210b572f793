package receptionist

import (
	"context"
	"strings"
	"time"

	"github.com/wolfman30/geecurly-receptionist/internal/bookings"
	"github.com/wolfman30/geecurly-receptionist/internal/catalog"
	"github.com/wolfman30/geecurly-receptionist/internal/observability/metrics"
	"github.com/wolfman30/geecurly-receptionist/pkg/logging"
)

// BookingLedger creates appointments.
type BookingLedger interface {
	Create(ctx context.Context, req bookings.Request) (*bookings.Booking, error)
}

// Outcome is the result of one turn.
type Outcome struct {
	State    State
	Response Response
	Memory   CustomerMemory
	Intent   Intent
	// MemoryChanged asks the caller to write Memory; ClearMemory asks it to remove the snapshot instead.
	MemoryChanged bool
	ClearMemory   bool
}

// Flow drives the booking dialogue. It holds no per-session data and is safe for concurrent use.
type Flow struct {
	catalog          catalog.Catalog
	ledger           BookingLedger
	extractor        ContactExtractor
	salon            SalonInfo
	logger           *logging.Logger
	metrics          *metrics.ChatMetrics
	now              func() time.Time
	loc              *time.Location
	searchDays       int
	maxDaysWithSlots int
}

// FlowOption customises a Flow.
type FlowOption func(*Flow)

func WithContactExtractor(e ContactExtractor) FlowOption {
	return func(f *Flow) { f.extractor = e }
}

func WithSalonInfo(s SalonInfo) FlowOption {
	return func(f *Flow) { f.salon = s }
}

func WithMetrics(m *metrics.ChatMetrics) FlowOption {
	return func(f *Flow) { f.metrics = m }
}

func WithClock(now func() time.Time) FlowOption {
	return func(f *Flow) { f.now = now }
}

// WithTimezone sets the salon clock used for slot dates.
func WithTimezone(loc *time.Location) FlowOption {
	return func(f *Flow) {
		if loc != nil {
			f.loc = loc
		}
	}
}

// WithSlotSearch bounds the availability scan: at most days days, stopping after maxDaysWithSlots hits.
func WithSlotSearch(days, maxDaysWithSlots int) FlowOption {
	return func(f *Flow) {
		if days > 0 {
			f.searchDays = days
		}
		if maxDaysWithSlots > 0 {
			f.maxDaysWithSlots = maxDaysWithSlots
		}
	}
}

// NewFlow builds the booking flow.
func NewFlow(cat catalog.Catalog, ledger BookingLedger, logger *logging.Logger, opts ...FlowOption) *Flow {
	if cat == nil {
		panic("receptionist: catalog required")
	}
	if ledger == nil {
		panic("receptionist: booking ledger required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	f := &Flow{
		catalog:          cat,
		ledger:           ledger,
		extractor:        RegexContactExtractor{},
		salon:            DefaultSalonInfo(),
		logger:           logger,
		now:              time.Now,
		loc:              time.UTC,
		searchDays:       defaultSearchDays,
		maxDaysWithSlots: defaultMaxDaysWithSlots,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Salon returns the business profile used in replies.
func (f *Flow) Salon() SalonInfo {
	return f.salon
}

// NewMemory starts a customer memory stamped with the flow clock.
func (f *Flow) NewMemory(location string) CustomerMemory {
	return NewCustomerMemory(f.now(), location)
}

// Welcome answers the opening "hello" without recording it in the conversation history.
func (f *Flow) Welcome(ctx context.Context, st State, mem CustomerMemory) Outcome {
	return f.respond(ctx, st, mem, "hello")
}

// Transition applies one user input to st and returns the next state and reply.
func (f *Flow) Transition(ctx context.Context, st State, mem CustomerMemory, input string) Outcome {
	out := f.respond(ctx, st, mem.withHistory(input), input)
	if !out.ClearMemory {
		out.MemoryChanged = true
	}
	return out
}

// Reset returns the initial state for st's branch and a fresh memory.
func (f *Flow) Reset(st State) Outcome {
	return Outcome{
		State:       NewState(st.Home),
		Response:    composeReset(f.salon),
		Memory:      f.NewMemory(st.Home),
		Intent:      IntentReset,
		ClearMemory: true,
	}
}

// Back moves one step back and repeats that step's prompt. Greeting and completed have nowhere to go back to.
func (f *Flow) Back(ctx context.Context, st State, mem CustomerMemory) Outcome {
	idx := st.Step.index()
	if st.Step == StepGreeting || st.Step == StepCompleted || idx <= 0 {
		return Outcome{State: st, Response: composeGreeting(f.salon), Memory: mem, Intent: IntentBack}
	}
	prev := st.withStep(stepOrder[idx-1])
	return Outcome{State: prev, Response: f.prompt(ctx, prev), Memory: mem, Intent: IntentBack}
}

func (f *Flow) respond(ctx context.Context, st State, mem CustomerMemory, input string) Outcome {
	intent := ClassifyIntent(input)
	logger := f.log(ctx)
	logger.Debug("turn classified", "step", st.Step, "intent", intent)

	if intent == IntentReset {
		return f.Reset(st)
	}

	services, err := f.catalog.Services(ctx)
	if err != nil {
		return f.technicalIssue(ctx, st, mem, intent, err)
	}
	staff, err := f.catalog.Staff(ctx)
	if err != nil {
		return f.technicalIssue(ctx, st, mem, intent, err)
	}
	if svc, ok := FindService(services, input); ok {
		mem = mem.withService(svc.Name)
	}
	if stylist, ok := FindStaff(staff, input); ok {
		mem = mem.withStylist(stylist.Name)
	}

	out := Outcome{State: st, Memory: mem, Intent: intent}
	switch st.Step {
	case StepGreeting, StepCompleted:
		if intent == IntentBooking {
			out.State = State{Step: StepLocationSelection, Home: st.Home, Location: st.Location}
			out.Response = composeLocationPrompt(f.salon, st.Location)
			return out
		}
		out.Response = f.info(intent, st, services, staff)
		return out

	case StepLocationSelection:
		key, ok := f.salon.MatchLocation(input)
		if !ok {
			out.Response = composeLocationPrompt(f.salon, st.Location)
			return out
		}
		next := st.withStep(StepServiceSelection)
		next.Location = key
		out.State = next
		out.Memory.PreferredLocation = key
		out.Response = composeServiceMenu(f.salon, key, services)
		return out

	case StepServiceSelection:
		return f.selectService(ctx, out, services, input)

	case StepStylistSelection:
		return f.selectStylist(ctx, out, input)

	case StepSlotSelection:
		slot, pick, ok := f.chooseSlot(st, input)
		if !ok {
			out.Response = composeSlotPrompt()
			return out
		}
		if pick == pickDefaulted {
			logger.Warn("slot defaulted", "slot_defaulted", true, "date", slot.Date, "time", slot.Time, "input", input)
			f.metrics.ObserveSlotDefaulted()
		}
		next := st.withStep(StepCustomerInfo)
		next.Slot = &slot
		out.State = next
		out.Response = composeSlotReserved(f.salon, slot, pick)
		return out

	case StepCustomerInfo:
		contact := f.extractor.Extract(input)
		if contact.Name == "" || contact.Phone == "" {
			out.Response = composeContactPrompt(f.salon)
			return out
		}
		out.Memory = out.Memory.withContact(contact)
		next := st.withStep(StepConfirmation)
		next.Contact = &contact
		if missing := next.missing(); len(missing) > 0 {
			out.Response = composeMissingDetails(missing)
			return out
		}
		out.State = next
		out.Response = composeSummary(f.salon, next, bookingRequest(next))
		return out

	case StepConfirmation:
		return f.confirm(ctx, out, input)
	}

	logger.Warn("unknown step, restarting", "step", st.Step)
	out.State = NewState(st.Home)
	out.Response = composeGreeting(f.salon)
	return out
}

func (f *Flow) selectService(ctx context.Context, out Outcome, services []catalog.Service, input string) Outcome {
	st := out.State
	svc, ok := FindService(services, input)
	if !ok {
		out.Response = composeServicePrompt(f.salon, services)
		return out
	}
	staff, err := f.catalog.StaffBySpecialty(ctx, svc.Category)
	if err != nil {
		return f.technicalIssue(ctx, st, out.Memory, out.Intent, err)
	}
	staff = staffAt(staff, st.Location)
	if len(staff) == 0 {
		out.Response = composeNoStaff(f.salon, st.Location, svc)
		return out
	}
	next := st.withStep(StepStylistSelection)
	next.Service = &svc
	next.Stylist = nil
	next.OfferedDays = nil
	out.State = next
	out.Response = composeServiceChosen(f.salon, st.Location, svc, staff)
	return out
}

func (f *Flow) selectStylist(ctx context.Context, out Outcome, input string) Outcome {
	st := out.State
	staff, err := f.stylistsFor(ctx, st)
	if err != nil {
		return f.technicalIssue(ctx, st, out.Memory, out.Intent, err)
	}
	stylist, ok := FindStaff(staff, input)
	if !ok && strings.Contains(strings.ToLower(input), "any") && len(staff) > 0 {
		stylist, ok = staff[0], true
	}
	if !ok {
		out.Response = composeStylistPrompt(staff)
		return out
	}

	days, err := f.scanSlots(ctx, stylist, st.Service.DurationMinutes)
	if err != nil {
		f.log(ctx).Warn("slot scan aborted", "stylist_id", stylist.ID, "error", err)
		out.Response = composeAvailabilityUnavailable(f.salon, st.Location)
		return out
	}
	if len(days) == 0 {
		f.log(ctx).Info("stylist fully booked", "stylist_id", stylist.ID, "search_days", f.searchDays)
		out.Response = composeFullyBooked(f.salon, st.Location, stylist)
		return out
	}

	next := st.withStep(StepSlotSelection)
	next.Stylist = &stylist
	next.OfferedDays = days
	out.State = next
	out.Response = composeSlots(f.salon, st.Location, stylist, days)
	return out
}

func (f *Flow) confirm(ctx context.Context, out Outcome, input string) Outcome {
	st := out.State
	lower := strings.ToLower(input)
	switch {
	case out.Intent == IntentConfirmation || strings.Contains(lower, "yes") || strings.Contains(lower, "confirm"):
		if missing := st.missing(); len(missing) > 0 {
			out.Response = composeMissingDetails(missing)
			return out
		}
		booking, err := f.ledger.Create(ctx, bookingRequest(st))
		if err != nil {
			f.log(ctx).Error("booking creation failed", "stylist_id", st.Stylist.ID, "date", st.Slot.Date, "error", err)
			f.metrics.ObserveBooking("failed")
			out.Response = composeBookingFailed(f.salon, st.Location)
			return out
		}
		f.log(ctx).Info("booking created", "booking_id", booking.ID, "stylist_id", st.Stylist.ID, "date", st.Slot.Date, "time", st.Slot.Time)
		f.metrics.ObserveBooking("created")
		if visit, err := time.ParseInLocation(time.DateOnly, st.Slot.Date, f.loc); err == nil {
			out.Memory.LastVisit = &visit
		}
		out.State = State{Step: StepCompleted, Home: st.Home, Location: st.Location}
		out.Response = composeBooked(f.salon, st.Location, st.Contact.Name, booking)
		return out

	case strings.Contains(lower, "change") || strings.Contains(lower, "back"):
		out.State = st.withStep(StepServiceSelection)
		out.Response = composeChangePrompt()
		return out

	default:
		out.State = NewState(st.Home)
		out.Response = composeCancelled()
		return out
	}
}

// prompt repeats the question asked on arrival at st.Step.
func (f *Flow) prompt(ctx context.Context, st State) Response {
	switch st.Step {
	case StepLocationSelection:
		return composeLocationPrompt(f.salon, st.Location)
	case StepServiceSelection, StepStylistSelection:
		services, err := f.catalog.Services(ctx)
		if err != nil {
			return composeTechnicalIssue(f.salon, st.Location)
		}
		if st.Step == StepServiceSelection || st.Service == nil {
			return composeServiceMenu(f.salon, st.Location, services)
		}
		staff, err := f.stylistsFor(ctx, st)
		if err != nil {
			return composeTechnicalIssue(f.salon, st.Location)
		}
		return composeServiceChosen(f.salon, st.Location, *st.Service, staff)
	case StepSlotSelection:
		if st.Stylist != nil && len(st.OfferedDays) > 0 {
			return composeSlots(f.salon, st.Location, *st.Stylist, st.OfferedDays)
		}
		return composeSlotPrompt()
	case StepCustomerInfo:
		return composeContactPrompt(f.salon)
	case StepConfirmation:
		if missing := st.missing(); len(missing) > 0 {
			return composeMissingDetails(missing)
		}
		return composeSummary(f.salon, st, bookingRequest(st))
	}
	return composeGreeting(f.salon)
}

func (f *Flow) info(intent Intent, st State, services []catalog.Service, staff []catalog.Staff) Response {
	switch intent {
	case IntentGreeting:
		return composeGreeting(f.salon)
	case IntentServices:
		return composeServicesInfo(f.salon, services)
	case IntentPricing:
		return composePricing(f.salon, services)
	case IntentStaff:
		return composeStaffInfo(f.salon, staff)
	case IntentLocation:
		return composeLocationInfo(f.salon, st.Location)
	case IntentHours:
		return composeHours(f.salon)
	default:
		return composeGeneral(f.salon)
	}
}

func (f *Flow) stylistsFor(ctx context.Context, st State) ([]catalog.Staff, error) {
	if st.Service == nil {
		return nil, nil
	}
	staff, err := f.catalog.StaffBySpecialty(ctx, st.Service.Category)
	if err != nil {
		return nil, err
	}
	return staffAt(staff, st.Location), nil
}

func (f *Flow) technicalIssue(ctx context.Context, st State, mem CustomerMemory, intent Intent, err error) Outcome {
	f.log(ctx).Error("catalog unavailable", "step", st.Step, "error", err)
	return Outcome{State: st, Memory: mem, Intent: intent, Response: composeTechnicalIssue(f.salon, st.Location)}
}

func bookingRequest(st State) bookings.Request {
	req := bookings.Request{
		Location:      st.Location,
		Notes:         st.Notes,
		BookingMethod: bookings.MethodAIChat,
	}
	if st.Contact != nil {
		req.CustomerName = st.Contact.Name
		req.CustomerPhone = st.Contact.Phone
		req.CustomerEmail = st.Contact.Email
	}
	if st.Service != nil {
		req.ServiceID = st.Service.ID
		req.Service = st.Service.Name
		req.ServiceCategory = st.Service.Category
		req.Price = st.Service.Price.Min
		req.Duration = st.Service.Duration
		req.DurationMinutes = st.Service.DurationMinutes
	}
	if st.Stylist != nil {
		req.StylistID = st.Stylist.ID
		req.StylistName = st.Stylist.Name
	}
	if st.Slot != nil {
		req.Date = st.Slot.Date
		req.Time = st.Slot.Time
	}
	return req
}

type sessionIDKey struct{}

// WithSessionID tags ctx so flow logs carry the session id.
func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionIDKey{}, id)
}

func (f *Flow) log(ctx context.Context) *logging.Logger {
	if id, ok := ctx.Value(sessionIDKey{}).(string); ok && id != "" {
		return f.logger.WithSession(id)
	}
	return f.logger
}
