package calendar

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/hadrianfebri/CustomerRelationshipManager-sub000/internal/domain"
)

// EventStore persists calendar events. CreateIfFree is the atomicity
// boundary: the overlap check and the insert happen in one store
// operation, so two racing bookings cannot both land on the same
// interval even without the advisory lock.
type EventStore interface {
	CreateIfFree(ctx context.Context, event *domain.CalendarEvent) (bool, error)
	GetEvent(ctx context.Context, id string) (*domain.CalendarEvent, error)
	ListBetween(ctx context.Context, calendarID string, start, end time.Time) ([]domain.CalendarEvent, error)
	UpdateStatus(ctx context.Context, id string, status domain.EventStatus) error
	ListDueReminders(ctx context.Context, windowStart, windowEnd time.Time) ([]domain.CalendarEvent, error)
	MarkReminderSent(ctx context.Context, id string) error
}

// PostgresStore implements EventStore on the calendar_events table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const eventColumns = `id, calendar_id, title, start_time, end_time, contact_id, meeting_type, status, attendees, reminder_sent, created_at, updated_at`

// CreateIfFree inserts the event only when no non-cancelled event on the
// same calendar overlaps its interval. The guarded INSERT ... SELECT is a
// single statement, so the check and the write cannot interleave with a
// concurrent booking.
func (s *PostgresStore) CreateIfFree(ctx context.Context, event *domain.CalendarEvent) (bool, error) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO calendar_events (id, calendar_id, title, start_time, end_time, contact_id, meeting_type, status, attendees)
		SELECT $1, $2, $3, $4, $5, $6, $7, $8, $9
		WHERE NOT EXISTS (
			SELECT 1 FROM calendar_events
			WHERE calendar_id = $2 AND status != 'cancelled'
			AND start_time < $5 AND $4 < end_time
		)`,
		event.ID, event.CalendarID, event.Title, event.StartTime, event.EndTime,
		event.ContactID, event.MeetingType, event.Status, pq.Array(event.Attendees))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *PostgresStore) GetEvent(ctx context.Context, id string) (*domain.CalendarEvent, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+eventColumns+` FROM calendar_events WHERE id = $1`, id)
	e, err := scanEvent(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (s *PostgresStore) ListBetween(ctx context.Context, calendarID string, start, end time.Time) ([]domain.CalendarEvent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+eventColumns+` FROM calendar_events
		WHERE calendar_id = $1 AND start_time < $3 AND end_time > $2
		ORDER BY start_time`,
		calendarID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []domain.CalendarEvent
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			continue
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

func (s *PostgresStore) UpdateStatus(ctx context.Context, id string, status domain.EventStatus) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE calendar_events SET status = $1, updated_at = NOW() WHERE id = $2`,
		status, id)
	return err
}

func (s *PostgresStore) ListDueReminders(ctx context.Context, windowStart, windowEnd time.Time) ([]domain.CalendarEvent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+eventColumns+` FROM calendar_events
		WHERE reminder_sent = FALSE AND status IN ('scheduled', 'confirmed')
		AND start_time >= $1 AND start_time < $2`,
		windowStart, windowEnd)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []domain.CalendarEvent
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			continue
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

func (s *PostgresStore) MarkReminderSent(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE calendar_events SET reminder_sent = TRUE, updated_at = NOW() WHERE id = $1`, id)
	return err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEvent(row rowScanner) (*domain.CalendarEvent, error) {
	var e domain.CalendarEvent
	var attendees pq.StringArray
	err := row.Scan(&e.ID, &e.CalendarID, &e.Title, &e.StartTime, &e.EndTime,
		&e.ContactID, &e.MeetingType, &e.Status, &attendees, &e.ReminderSent,
		&e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	e.Attendees = attendees
	return &e, nil
}

// MemoryStore is an in-process EventStore for tests and local development.
// A single mutex makes CreateIfFree's check-then-insert atomic.
type MemoryStore struct {
	mu     sync.Mutex
	events map[string]domain.CalendarEvent
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{events: make(map[string]domain.CalendarEvent)}
}

func (s *MemoryStore) CreateIfFree(ctx context.Context, event *domain.CalendarEvent) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.events {
		if existing.CalendarID == event.CalendarID && existing.Blocks() && existing.Overlaps(event.StartTime, event.EndTime) {
			return false, nil
		}
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	event.CreatedAt = time.Now()
	event.UpdatedAt = event.CreatedAt
	s.events[event.ID] = *event
	return true, nil
}

func (s *MemoryStore) GetEvent(ctx context.Context, id string) (*domain.CalendarEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[id]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (s *MemoryStore) ListBetween(ctx context.Context, calendarID string, start, end time.Time) ([]domain.CalendarEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var events []domain.CalendarEvent
	for _, e := range s.events {
		if e.CalendarID == calendarID && e.StartTime.Before(end) && e.EndTime.After(start) {
			events = append(events, e)
		}
	}
	return events, nil
}

func (s *MemoryStore) UpdateStatus(ctx context.Context, id string, status domain.EventStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[id]
	if !ok {
		return sql.ErrNoRows
	}
	e.Status = status
	e.UpdatedAt = time.Now()
	s.events[id] = e
	return nil
}

func (s *MemoryStore) ListDueReminders(ctx context.Context, windowStart, windowEnd time.Time) ([]domain.CalendarEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var events []domain.CalendarEvent
	for _, e := range s.events {
		if e.ReminderSent {
			continue
		}
		if e.Status != domain.EventScheduled && e.Status != domain.EventConfirmed {
			continue
		}
		if !e.StartTime.Before(windowStart) && e.StartTime.Before(windowEnd) {
			events = append(events, e)
		}
	}
	return events, nil
}

func (s *MemoryStore) MarkReminderSent(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[id]
	if !ok {
		return sql.ErrNoRows
	}
	e.ReminderSent = true
	s.events[id] = e
	return nil
}
