package catalog

import (
	"fmt"
	"time"
)

// SlotLayout is the display format of a slot start time.
const SlotLayout = "3:04 PM"

const defaultDurationMinutes = 60

// DayHours is the open window of one weekday, in whole hours of the salon clock.
type DayHours struct {
	Open  int
	Close int
}

// OpeningHours maps each weekday to its open window. Missing weekdays are closed.
type OpeningHours map[time.Weekday]DayHours

// DefaultHours is Mon-Sat 08:00-20:00 and Sunday 09:00-18:00.
func DefaultHours() OpeningHours {
	hours := OpeningHours{time.Sunday: {Open: 9, Close: 18}}
	for d := time.Monday; d <= time.Saturday; d++ {
		hours[d] = DayHours{Open: 8, Close: 20}
	}
	return hours
}

// Slots lists hourly start times on date for a service of durationMinutes,
// skipping times that would run past closing and times present in booked.
func (h OpeningHours) Slots(date time.Time, durationMinutes int, booked []string) []string {
	window, ok := h[date.Weekday()]
	if !ok || window.Close <= window.Open {
		return nil
	}
	if durationMinutes <= 0 {
		durationMinutes = defaultDurationMinutes
	}

	taken := make(map[string]struct{}, len(booked))
	for _, b := range booked {
		taken[b] = struct{}{}
	}

	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	closing := day.Add(time.Duration(window.Close) * time.Hour)
	duration := time.Duration(durationMinutes) * time.Minute

	var out []string
	for hour := window.Open; hour < window.Close; hour++ {
		start := day.Add(time.Duration(hour) * time.Hour)
		if start.Add(duration).After(closing) {
			break
		}
		label := start.Format(SlotLayout)
		if _, ok := taken[label]; ok {
			continue
		}
		out = append(out, label)
	}
	return out
}

// Describe renders the window for display, e.g. "8:00 AM - 8:00 PM".
func (d DayHours) Describe() string {
	open := time.Date(2000, 1, 1, d.Open, 0, 0, 0, time.UTC)
	closing := time.Date(2000, 1, 1, d.Close, 0, 0, 0, time.UTC)
	return fmt.Sprintf("%s - %s", open.Format(SlotLayout), closing.Format(SlotLayout))
}
