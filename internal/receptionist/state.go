package receptionist

import (
	"github.com/wolfman30/geecurly-receptionist/internal/catalog"
)

// Step is a position in the booking dialogue.
type Step string

const (
	StepGreeting          Step = "greeting"
	StepLocationSelection Step = "location_selection"
	StepServiceSelection  Step = "service_selection"
	StepStylistSelection  Step = "stylist_selection"
	StepSlotSelection     Step = "slot_selection"
	StepCustomerInfo      Step = "customer_info"
	StepConfirmation      Step = "confirmation"
	StepCompleted         Step = "completed"
)

var stepOrder = []Step{
	StepGreeting,
	StepLocationSelection,
	StepServiceSelection,
	StepStylistSelection,
	StepSlotSelection,
	StepCustomerInfo,
	StepConfirmation,
	StepCompleted,
}

func (s Step) index() int {
	for i, step := range stepOrder {
		if step == s {
			return i
		}
	}
	return -1
}

// Slot is a concrete appointment time. Date is YYYY-MM-DD in salon time, Time uses catalog.SlotLayout.
type Slot struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

// Contact is what the customer told us about themselves.
type Contact struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email,omitempty"`
}

// OfferedDay is one day of availability shown at the stylist step.
type OfferedDay struct {
	Date    string   `json:"date"`
	Display string   `json:"display"`
	Slots   []string `json:"slots"`
}

// State is the conversation state of one chat session. It is treated as a value:
// transitions return a new State and never modify the pointees of an existing one.
type State struct {
	Step        Step             `json:"step"`
	Home        string           `json:"home"`
	Location    string           `json:"location"`
	Service     *catalog.Service `json:"service,omitempty"`
	Stylist     *catalog.Staff   `json:"stylist,omitempty"`
	Slot        *Slot            `json:"slot,omitempty"`
	Contact     *Contact         `json:"contact,omitempty"`
	Notes       string           `json:"notes,omitempty"`
	OfferedDays []OfferedDay     `json:"offered_days,omitempty"`
}

// NewState is the initial state for a widget opened on the given branch.
func NewState(home string) State {
	return State{Step: StepGreeting, Home: home, Location: home}
}

// missing lists the selections a booking still needs.
func (s State) missing() []string {
	var out []string
	if s.Service == nil {
		out = append(out, "service")
	}
	if s.Stylist == nil {
		out = append(out, "stylist")
	}
	if s.Slot == nil {
		out = append(out, "time")
	}
	if s.Contact == nil || s.Contact.Name == "" || s.Contact.Phone == "" {
		out = append(out, "contact details")
	}
	return out
}

func (s State) withStep(step Step) State {
	s.Step = step
	return s
}
