package calendar

import (
	"context"
	"fmt"
	"time"

	"github.com/hadrianfebri/CustomerRelationshipManager-sub000/internal/domain"
	"github.com/hadrianfebri/CustomerRelationshipManager-sub000/internal/pkg/clock"
)

// Urgency tiers for auto-proposed follow-up slots.
type Urgency string

const (
	UrgencyHigh   Urgency = "high"
	UrgencyMedium Urgency = "medium"
	UrgencyLow    Urgency = "low"
)

// WorkingHours bounds slot generation to the business day.
type WorkingHours struct {
	StartHour     int `yaml:"start_hour" json:"start_hour"`
	EndHour       int `yaml:"end_hour" json:"end_hour"`
	BufferMinutes int `yaml:"buffer_minutes" json:"buffer_minutes"`
}

// DefaultWorkingHours is 09:00-17:00 with 15-minute buffers.
func DefaultWorkingHours() WorkingHours {
	return WorkingHours{StartHour: 9, EndHour: 17, BufferMinutes: 15}
}

// Engine computes availability against the event store. Slot math is
// pure given the event list; all wall-clock reads go through the
// injected clock.
type Engine struct {
	store EventStore
	hours WorkingHours
	clk   clock.Clock
}

func NewEngine(store EventStore, hours WorkingHours, clk clock.Clock) *Engine {
	if clk == nil {
		clk = clock.Real{}
	}
	if hours.EndHour <= hours.StartHour {
		hours = DefaultWorkingHours()
	}
	return &Engine{store: store, hours: hours, clk: clk}
}

// GetAvailableSlots generates candidate slots of the given duration for
// every working day in [start, end], packed back-to-back from the start
// of working hours with the configured buffer between them. Slots that
// overlap a non-cancelled event are marked unavailable rather than
// omitted so callers can render a full grid.
func (e *Engine) GetAvailableSlots(ctx context.Context, calendarID string, start, end time.Time, duration time.Duration) ([]domain.TimeSlot, error) {
	// A non-positive duration would pack zero-width slots forever.
	if duration <= 0 {
		return nil, fmt.Errorf("slot duration must be positive, got %s", duration)
	}

	events, err := e.blockingEvents(ctx, calendarID, start, end.Add(24*time.Hour))
	if err != nil {
		return nil, err
	}

	var slots []domain.TimeSlot
	buffer := time.Duration(e.hours.BufferMinutes) * time.Minute

	for day := dateOnly(start); !day.After(dateOnly(end)); day = day.AddDate(0, 0, 1) {
		if !isWorkingDay(day) {
			continue
		}
		slotStart := day.Add(time.Duration(e.hours.StartHour) * time.Hour)
		dayEnd := day.Add(time.Duration(e.hours.EndHour) * time.Hour)

		for {
			slotEnd := slotStart.Add(duration)
			if slotEnd.After(dayEnd) {
				break
			}
			slots = append(slots, domain.TimeSlot{
				Start:     slotStart,
				End:       slotEnd,
				Available: !anyOverlap(events, slotStart, slotEnd),
			})
			slotStart = slotEnd.Add(buffer)
		}
	}
	return slots, nil
}

// FindFirstAvailable scans caller-supplied candidate start times in order
// and returns the first whose interval is conflict-free. A nil result is
// the reported no-availability condition, not an error.
func (e *Engine) FindFirstAvailable(ctx context.Context, calendarID string, proposed []time.Time, duration time.Duration) (*domain.TimeSlot, error) {
	if len(proposed) == 0 {
		return nil, nil
	}

	earliest, latest := proposed[0], proposed[0]
	for _, p := range proposed[1:] {
		if p.Before(earliest) {
			earliest = p
		}
		if p.After(latest) {
			latest = p
		}
	}
	events, err := e.blockingEvents(ctx, calendarID, earliest, latest.Add(duration))
	if err != nil {
		return nil, err
	}

	for _, start := range proposed {
		end := start.Add(duration)
		if !anyOverlap(events, start, end) {
			return &domain.TimeSlot{Start: start, End: end, Available: true}, nil
		}
	}
	return nil, nil
}

// AutoProposeCandidates generates candidate start instants by urgency:
// high proposes two slots per day over the next 3 working days, medium
// one slot per day in working days 7-10, low one per day in working days
// 14-21. Candidates feed FindFirstAvailable.
func (e *Engine) AutoProposeCandidates(urgency Urgency) []time.Time {
	var candidates []time.Time
	morning := time.Duration(e.hours.StartHour+1) * time.Hour
	afternoon := time.Duration(e.hours.EndHour-3) * time.Hour

	switch urgency {
	case UrgencyHigh:
		for _, day := range e.workingDays(1, 3) {
			candidates = append(candidates, day.Add(morning), day.Add(afternoon))
		}
	case UrgencyMedium:
		for _, day := range e.workingDays(7, 10) {
			candidates = append(candidates, day.Add(morning))
		}
	default:
		for _, day := range e.workingDays(14, 21) {
			candidates = append(candidates, day.Add(morning))
		}
	}
	return candidates
}

// workingDays returns the working days between the from-th and to-th
// working day after today, inclusive, counting from 1.
func (e *Engine) workingDays(from, to int) []time.Time {
	var days []time.Time
	day := dateOnly(e.clk.Now())
	count := 0
	for count < to {
		day = day.AddDate(0, 0, 1)
		if !isWorkingDay(day) {
			continue
		}
		count++
		if count >= from {
			days = append(days, day)
		}
	}
	return days
}

func (e *Engine) blockingEvents(ctx context.Context, calendarID string, start, end time.Time) ([]domain.CalendarEvent, error) {
	events, err := e.store.ListBetween(ctx, calendarID, start, end)
	if err != nil {
		return nil, err
	}
	blocking := events[:0]
	for _, ev := range events {
		if ev.Blocks() {
			blocking = append(blocking, ev)
		}
	}
	return blocking, nil
}

func anyOverlap(events []domain.CalendarEvent, start, end time.Time) bool {
	for _, ev := range events {
		if ev.Overlaps(start, end) {
			return true
		}
	}
	return false
}

func isWorkingDay(day time.Time) bool {
	if day.Weekday() == time.Saturday || day.Weekday() == time.Sunday {
		return false
	}
	holiday, _ := isHoliday(day)
	return !holiday
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
