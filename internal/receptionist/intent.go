package receptionist

import "strings"

// Intent is a coarse classification of free text.
type Intent string

const (
	IntentBooking      Intent = "booking"
	IntentServices     Intent = "services"
	IntentPricing      Intent = "pricing"
	IntentStaff        Intent = "staff"
	IntentLocation     Intent = "location"
	IntentHours        Intent = "hours"
	IntentGreeting     Intent = "greeting"
	IntentConfirmation Intent = "confirmation"
	IntentBack         Intent = "back"
	IntentReset        Intent = "reset"
	IntentGeneral      Intent = "general"
)

// intentKeywords is evaluated top to bottom; the first intent with a matching keyword wins.
var intentKeywords = []struct {
	intent   Intent
	keywords []string
}{
	{IntentBooking, []string{"book", "appointment", "schedule", "reserve", "available"}},
	{IntentServices, []string{"service", "treatment", "hair", "nails", "what do you offer"}},
	{IntentPricing, []string{"price", "cost", "how much", "rate", "fee", "charge"}},
	{IntentStaff, []string{"staff", "stylist", "who", "team"}},
	{IntentLocation, []string{"where", "location", "address", "direction", "kiambu", "roysambu"}},
	{IntentHours, []string{"hour", "time", "open", "close", "when"}},
	{IntentGreeting, []string{"hello", "hi", "hey", "good morning"}},
	{IntentConfirmation, []string{"yes", "confirm", "proceed", "book it"}},
	{IntentBack, []string{"back", "previous", "go back"}},
	{IntentReset, []string{"start over", "reset", "new conversation"}},
}

// ClassifyIntent maps text to an intent by case-insensitive substring match.
func ClassifyIntent(text string) Intent {
	lower := strings.ToLower(text)
	for _, entry := range intentKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(lower, kw) {
				return entry.intent
			}
		}
	}
	return IntentGeneral
}
