package receptionist

import (
	"context"
	"strings"
	"time"

	"github.com/wolfman30/geecurly-receptionist/internal/catalog"
)

const (
	defaultSearchDays       = 7
	defaultMaxDaysWithSlots = 3
	slotsShownPerDay        = 3
	defaultSlotTime         = "10:00 AM"
	offeredDayLayout        = "Monday, Jan 2"
)

// scanSlots walks forward one day at a time from tomorrow and collects days with availability.
// A failed day is logged and skipped; only context cancellation aborts the scan.
func (f *Flow) scanSlots(ctx context.Context, stylist catalog.Staff, durationMinutes int) ([]OfferedDay, error) {
	today := f.now().In(f.loc)
	logger := f.log(ctx)

	var days []OfferedDay
	for i := 1; i <= f.searchDays && len(days) < f.maxDaysWithSlots; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		date := time.Date(today.Year(), today.Month(), today.Day()+i, 0, 0, 0, 0, f.loc)
		slots, err := f.catalog.AvailableSlots(ctx, date, stylist.ID, durationMinutes)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			logger.Warn("slot query failed", "stylist_id", stylist.ID, "date", date.Format(time.DateOnly), "error", err)
			f.metrics.ObserveSlotQueryFailure()
			continue
		}
		if len(slots) == 0 {
			continue
		}
		n := len(slots)
		if n > slotsShownPerDay {
			n = slotsShownPerDay
		}
		shown := make([]string, n)
		copy(shown, slots[:n])
		days = append(days, OfferedDay{
			Date:    date.Format(time.DateOnly),
			Display: date.Format(offeredDayLayout),
			Slots:   shown,
		})
	}
	return days, nil
}

// slotPick records how a slot was settled: an offered time the visitor named, the earliest
// offered slot for "first available", or a tomorrow default when nothing offered matched.
type slotPick int

const (
	pickOffered slotPick = iota
	pickEarliest
	pickDefaulted
)

// chooseSlot turns slot-step input into a concrete slot. ok is false when the input names no time.
func (f *Flow) chooseSlot(st State, input string) (slot Slot, pick slotPick, ok bool) {
	tomorrow := f.now().In(f.loc).AddDate(0, 0, 1).Format(time.DateOnly)

	if t, parsed := ParseTime(input); parsed {
		for _, day := range st.OfferedDays {
			for _, offered := range day.Slots {
				if offered == t {
					return Slot{Date: day.Date, Time: t}, pickOffered, true
				}
			}
		}
		return Slot{Date: tomorrow, Time: t}, pickDefaulted, true
	}

	lower := strings.ToLower(input)
	if strings.Contains(lower, "first") || strings.Contains(lower, "available") {
		for _, day := range st.OfferedDays {
			if len(day.Slots) > 0 {
				return Slot{Date: day.Date, Time: day.Slots[0]}, pickEarliest, true
			}
		}
		return Slot{Date: tomorrow, Time: defaultSlotTime}, pickDefaulted, true
	}
	return Slot{}, pickOffered, false
}
