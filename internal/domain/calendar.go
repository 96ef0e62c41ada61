package domain

import "time"

// EventStatus enumerates calendar event states. Events are never physically
// deleted; cancellation is a status transition.
type EventStatus string

const (
	EventScheduled EventStatus = "scheduled"
	EventConfirmed EventStatus = "confirmed"
	EventCompleted EventStatus = "completed"
	EventCancelled EventStatus = "cancelled"
	EventNoShow    EventStatus = "no-show"
)

// MeetingType enumerates the kinds of scheduled meetings.
type MeetingType string

const (
	MeetingIntroCall MeetingType = "intro_call"
	MeetingDemo      MeetingType = "demo"
	MeetingFollowUp  MeetingType = "follow_up"
	MeetingClosing   MeetingType = "closing"
)

// CalendarEvent is a booked meeting. Invariant: no two non-cancelled events
// on the same calendar may have overlapping [StartTime, EndTime) intervals.
type CalendarEvent struct {
	ID           string      `json:"id" db:"id"`
	CalendarID   string      `json:"calendar_id" db:"calendar_id"`
	Title        string      `json:"title" db:"title"`
	StartTime    time.Time   `json:"start_time" db:"start_time"`
	EndTime      time.Time   `json:"end_time" db:"end_time"`
	ContactID    *string     `json:"contact_id,omitempty" db:"contact_id"`
	MeetingType  MeetingType `json:"meeting_type" db:"meeting_type"`
	Status       EventStatus `json:"status" db:"status"`
	Attendees    []string    `json:"attendees" db:"attendees"`
	ReminderSent bool        `json:"reminder_sent" db:"reminder_sent"`
	CreatedAt    time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at" db:"updated_at"`
}

// Blocks reports whether this event still occupies its interval.
func (e CalendarEvent) Blocks() bool { return e.Status != EventCancelled }

// Overlaps reports whether [start, end) conflicts with this event's
// interval: s1 < e2 AND s2 < e1.
func (e CalendarEvent) Overlaps(start, end time.Time) bool {
	return e.StartTime.Before(end) && start.Before(e.EndTime)
}

// TimeSlot is a derived candidate interval; never persisted.
type TimeSlot struct {
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Available bool      `json:"available"`
}
