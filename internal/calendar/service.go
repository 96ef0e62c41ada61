package calendar

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/hadrianfebri/CustomerRelationshipManager-sub000/internal/domain"
	"github.com/hadrianfebri/CustomerRelationshipManager-sub000/internal/pkg/clock"
	"github.com/hadrianfebri/CustomerRelationshipManager-sub000/internal/pkg/distlock"
)

// Notifier delivers meeting invitations and reminders. Retry and backoff
// live behind this boundary, not in the booking path.
type Notifier interface {
	SendInvitation(ctx context.Context, event domain.CalendarEvent) error
	SendReminder(ctx context.Context, event domain.CalendarEvent) error
}

// BookingResult is the discriminated outcome of a booking attempt.
// No-availability is a reported condition, not an error.
type BookingResult struct {
	Success bool                  `json:"success"`
	Message string                `json:"message,omitempty"`
	Event   *domain.CalendarEvent `json:"event,omitempty"`
}

// meetingDurations maps meeting types to their default lengths.
var meetingDurations = map[domain.MeetingType]time.Duration{
	domain.MeetingIntroCall: 30 * time.Minute,
	domain.MeetingDemo:      60 * time.Minute,
	domain.MeetingFollowUp:  30 * time.Minute,
	domain.MeetingClosing:   45 * time.Minute,
}

const maxBookingAttempts = 3

// Service books follow-up meetings. A per-calendar distributed lock plus
// the store's conflict-checked insert keep concurrent bookings from
// double-assigning an interval; the losing writer retries against
// refreshed availability.
type Service struct {
	engine       *Engine
	store        EventStore
	locks        distlock.Factory
	notifier     Notifier
	clk          clock.Clock
	reminderLead time.Duration
	cancel       context.CancelFunc
}

func NewService(engine *Engine, store EventStore, locks distlock.Factory, notifier Notifier, clk clock.Clock) *Service {
	if clk == nil {
		clk = clock.Real{}
	}
	return &Service{
		engine:       engine,
		store:        store,
		locks:        locks,
		notifier:     notifier,
		clk:          clk,
		reminderLead: 24 * time.Hour,
	}
}

// SetReminderLead adjusts how far ahead of a meeting reminders fire.
func (s *Service) SetReminderLead(d time.Duration) {
	if d > 0 {
		s.reminderLead = d
	}
}

// ScheduleFollowUp books the first conflict-free proposed time for the
// contact. All proposed times colliding returns a failed result with no
// event created.
func (s *Service) ScheduleFollowUp(ctx context.Context, calendarID string, contact domain.Contact, proposed []time.Time, meetingType domain.MeetingType) (*BookingResult, error) {
	duration := meetingDurations[meetingType]
	if duration == 0 {
		duration = 30 * time.Minute
	}

	lock := s.locks(calendarID)
	acquired, err := lock.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire calendar lock: %w", err)
	}
	if acquired {
		defer lock.Release(ctx)
	}
	// Proceed even without the lock: the store's guarded insert is still
	// atomic, the lock only reduces wasted retries.

	for attempt := 0; attempt < maxBookingAttempts; attempt++ {
		slot, err := s.engine.FindFirstAvailable(ctx, calendarID, proposed, duration)
		if err != nil {
			return nil, err
		}
		if slot == nil {
			return &BookingResult{Success: false, Message: "no available time slots"}, nil
		}

		event := &domain.CalendarEvent{
			CalendarID:  calendarID,
			Title:       fmt.Sprintf("%s with %s", meetingTitle(meetingType), contact.FullName()),
			StartTime:   slot.Start,
			EndTime:     slot.End,
			ContactID:   &contact.ID,
			MeetingType: meetingType,
			Status:      domain.EventScheduled,
			Attendees:   []string{contact.Email},
		}

		created, err := s.store.CreateIfFree(ctx, event)
		if err != nil {
			return nil, err
		}
		if !created {
			// Lost the race for this slot; refresh availability and retry.
			log.Printf("[Calendar] booking conflict calendar=%s attempt=%d, retrying", calendarID, attempt+1)
			continue
		}

		if s.notifier != nil {
			if err := s.notifier.SendInvitation(ctx, *event); err != nil {
				log.Printf("[Calendar] invitation dispatch failed event=%s: %v", event.ID, err)
			}
		}
		return &BookingResult{Success: true, Event: event}, nil
	}

	return &BookingResult{Success: false, Message: "no available time slots"}, nil
}

// AutoScheduleFollowUp proposes candidate times by urgency and books the
// first free one.
func (s *Service) AutoScheduleFollowUp(ctx context.Context, calendarID string, contact domain.Contact, urgency Urgency, meetingType domain.MeetingType) (*BookingResult, error) {
	candidates := s.engine.AutoProposeCandidates(urgency)
	if len(candidates) == 0 {
		return &BookingResult{Success: false, Message: "no available time slots"}, nil
	}
	return s.ScheduleFollowUp(ctx, calendarID, contact, candidates, meetingType)
}

// GetAvailableSlots passes through to the availability engine.
func (s *Service) GetAvailableSlots(ctx context.Context, calendarID string, start, end time.Time, duration time.Duration) ([]domain.TimeSlot, error) {
	return s.engine.GetAvailableSlots(ctx, calendarID, start, end, duration)
}

// UpdateEventStatus applies an explicit status transition. Cancellation
// frees the interval; the event row stays.
func (s *Service) UpdateEventStatus(ctx context.Context, eventID string, status domain.EventStatus) error {
	return s.store.UpdateStatus(ctx, eventID, status)
}

// StartReminders runs the reminder pass on a ticker until StopReminders.
func (s *Service) StartReminders(interval time.Duration) {
	var ctx context.Context
	ctx, s.cancel = context.WithCancel(context.Background())
	go func() {
		log.Println("[Calendar] Starting reminder loop")
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				log.Println("[Calendar] Reminder loop stopped")
				return
			case <-ticker.C:
				s.SendDueReminders(ctx)
			}
		}
	}()
}

func (s *Service) StopReminders() {
	if s.cancel != nil {
		s.cancel()
	}
}

// SendDueReminders notifies attendees of meetings starting within the
// reminder lead window, at most once per event.
func (s *Service) SendDueReminders(ctx context.Context) {
	now := s.clk.Now()
	events, err := s.store.ListDueReminders(ctx, now, now.Add(s.reminderLead))
	if err != nil {
		log.Printf("[Calendar] list reminders error: %v", err)
		return
	}
	for _, event := range events {
		if s.notifier != nil {
			if err := s.notifier.SendReminder(ctx, event); err != nil {
				log.Printf("[Calendar] reminder dispatch failed event=%s: %v", event.ID, err)
				continue
			}
		}
		if err := s.store.MarkReminderSent(ctx, event.ID); err != nil {
			log.Printf("[Calendar] mark reminder error event=%s: %v", event.ID, err)
		}
	}
}

func meetingTitle(t domain.MeetingType) string {
	switch t {
	case domain.MeetingIntroCall:
		return "Intro call"
	case domain.MeetingDemo:
		return "Product demo"
	case domain.MeetingClosing:
		return "Closing call"
	default:
		return "Follow-up"
	}
}
