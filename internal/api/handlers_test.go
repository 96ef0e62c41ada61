package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hadrianfebri/CustomerRelationshipManager-sub000/internal/calendar"
	"github.com/hadrianfebri/CustomerRelationshipManager-sub000/internal/campaign"
	"github.com/hadrianfebri/CustomerRelationshipManager-sub000/internal/dispatch"
	"github.com/hadrianfebri/CustomerRelationshipManager-sub000/internal/domain"
	"github.com/hadrianfebri/CustomerRelationshipManager-sub000/internal/lifecycle"
)

type fakeLeadService struct {
	result  *domain.LeadScoringResult
	summary *lifecycle.Summary
	err     error
}

func (f *fakeLeadService) ScoreContact(ctx context.Context, contactID string) (*domain.LeadScoringResult, error) {
	return f.result, f.err
}

func (f *fakeLeadService) ScoreAllContacts(ctx context.Context) (*lifecycle.Summary, error) {
	return f.summary, f.err
}

func (f *fakeLeadService) ApplyLifecycleRules(ctx context.Context) (*lifecycle.Summary, error) {
	return f.summary, f.err
}

type fakeContactReader struct {
	contacts map[string]*domain.Contact
}

func (f *fakeContactReader) GetContact(ctx context.Context, id string) (*domain.Contact, error) {
	if c, ok := f.contacts[id]; ok {
		return c, nil
	}
	return nil, lifecycle.ErrContactNotFound
}

type fakeRunner struct {
	entered   []string
	triggered []string
	err       error
}

func (f *fakeRunner) Enter(ctx context.Context, sequenceID, contactID string) (*domain.Enrollment, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.entered = append(f.entered, sequenceID+":"+contactID)
	return &domain.Enrollment{ID: "enr-1", SequenceID: sequenceID, ContactID: contactID, Status: domain.EnrollmentActive}, nil
}

func (f *fakeRunner) Trigger(ctx context.Context, sequenceID, contactID string) (*domain.Enrollment, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.triggered = append(f.triggered, sequenceID+":"+contactID)
	return &domain.Enrollment{ID: "enr-1", SequenceID: sequenceID, ContactID: contactID, Status: domain.EnrollmentActive}, nil
}

func (f *fakeRunner) IsHealthy() bool      { return true }
func (f *fakeRunner) LastRunAt() time.Time { return time.Date(2025, 6, 16, 12, 0, 0, 0, time.UTC) }

type fakeSequenceReader struct {
	sequences []domain.CampaignSequence
	metrics   *campaign.SequenceMetrics
}

func (f *fakeSequenceReader) ListSequences(ctx context.Context) ([]domain.CampaignSequence, error) {
	return f.sequences, nil
}

func (f *fakeSequenceReader) GetSequence(ctx context.Context, id string) (*domain.CampaignSequence, error) {
	for i := range f.sequences {
		if f.sequences[i].ID == id {
			return &f.sequences[i], nil
		}
	}
	return nil, nil
}

func (f *fakeSequenceReader) GetSequenceMetrics(ctx context.Context, id string) (*campaign.SequenceMetrics, error) {
	return f.metrics, nil
}

type fakeScheduler struct {
	result        *calendar.BookingResult
	slots         []domain.TimeSlot
	statusUpdates []string
}

func (f *fakeScheduler) GetAvailableSlots(ctx context.Context, calendarID string, start, end time.Time, duration time.Duration) ([]domain.TimeSlot, error) {
	return f.slots, nil
}

func (f *fakeScheduler) ScheduleFollowUp(ctx context.Context, calendarID string, contact domain.Contact, proposed []time.Time, meetingType domain.MeetingType) (*calendar.BookingResult, error) {
	return f.result, nil
}

func (f *fakeScheduler) AutoScheduleFollowUp(ctx context.Context, calendarID string, contact domain.Contact, urgency calendar.Urgency, meetingType domain.MeetingType) (*calendar.BookingResult, error) {
	return f.result, nil
}

func (f *fakeScheduler) UpdateEventStatus(ctx context.Context, eventID string, status domain.EventStatus) error {
	f.statusUpdates = append(f.statusUpdates, eventID+":"+string(status))
	return nil
}

type fakeSnapshots struct{}

func (fakeSnapshots) Snapshot(ctx context.Context, contactID string) (campaign.Snapshot, error) {
	if contactID != "c-1" {
		return campaign.Snapshot{}, lifecycle.ErrContactNotFound
	}
	return campaign.Snapshot{
		Contact: domain.Contact{
			ID:        contactID,
			FirstName: "Ava",
			LastName:  "Stone",
			Email:     "ava@acme.io",
			Company:   "Acme Corp",
		},
		LeadScore: 82,
	}, nil
}

type apiFixture struct {
	leads     *fakeLeadService
	contacts  *fakeContactReader
	runner    *fakeRunner
	sequences *fakeSequenceReader
	scheduler *fakeScheduler
	handler   http.Handler
}

func setupAPITest(t *testing.T) *apiFixture {
	t.Helper()
	f := &apiFixture{
		leads: &fakeLeadService{
			result:  &domain.LeadScoringResult{Score: 85, Reasoning: "Lead Score: 85/100"},
			summary: &lifecycle.Summary{Processed: 3},
		},
		contacts: &fakeContactReader{contacts: map[string]*domain.Contact{
			"c-1": {ID: "c-1", FirstName: "Ava", LastName: "Stone", Email: "ava@acme.io"},
		}},
		runner: &fakeRunner{},
		sequences: &fakeSequenceReader{
			sequences: []domain.CampaignSequence{{ID: "seq-1", Name: "Welcome", Status: domain.SequenceActive}},
			metrics:   &campaign.SequenceMetrics{SequenceID: "seq-1", ActiveCount: 2, CompletedCount: 5},
		},
		scheduler: &fakeScheduler{
			result: &calendar.BookingResult{
				Success: true,
				Event:   &domain.CalendarEvent{ID: "evt-1", Title: "Follow-up"},
			},
		},
	}
	h := NewHandlers(f.leads, f.contacts, f.runner, f.sequences, f.scheduler, fakeSnapshots{}, campaign.NewTemplateService(), dispatch.NewMetrics(), "primary")
	f.handler = SetupRoutes(h)
	return f
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthCheck(t *testing.T) {
	f := setupAPITest(t)

	rec := doJSON(t, f.handler, http.MethodGet, "/health", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, true, body["sequencer_healthy"])
}

func TestScoreContact(t *testing.T) {
	f := setupAPITest(t)

	rec := doJSON(t, f.handler, http.MethodPost, "/api/leads/c-1/score", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Success bool                     `json:"success"`
		Data    domain.LeadScoringResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, 85, body.Data.Score)
}

func TestScoreContactNotFound(t *testing.T) {
	f := setupAPITest(t)
	f.leads.err = lifecycle.ErrContactNotFound

	rec := doJSON(t, f.handler, http.MethodPost, "/api/leads/nope/score", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestScoreAllContacts(t *testing.T) {
	f := setupAPITest(t)

	rec := doJSON(t, f.handler, http.MethodPost, "/api/leads/score-all", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Success bool              `json:"success"`
		Data    lifecycle.Summary `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, 3, body.Data.Processed)
}

func TestEnterSequence(t *testing.T) {
	f := setupAPITest(t)

	rec := doJSON(t, f.handler, http.MethodPost, "/api/sequences/seq-1/enter", map[string]string{"contact_id": "c-1"})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"seq-1:c-1"}, f.runner.entered)
}

func TestEnterSequenceRequiresContactID(t *testing.T) {
	f := setupAPITest(t)

	rec := doJSON(t, f.handler, http.MethodPost, "/api/sequences/seq-1/enter", map[string]string{})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, f.runner.entered)
}

func TestEnterSequenceDuplicateIsReportedFailure(t *testing.T) {
	f := setupAPITest(t)
	f.runner.err = campaign.ErrAlreadyEnrolled

	rec := doJSON(t, f.handler, http.MethodPost, "/api/sequences/seq-1/enter", map[string]string{"contact_id": "c-1"})

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Contains(t, body.Message, "already enrolled")
}

func TestTriggerSequenceUsesImmediateEntry(t *testing.T) {
	f := setupAPITest(t)

	rec := doJSON(t, f.handler, http.MethodPost, "/api/sequences/seq-1/trigger", map[string]string{"contact_id": "c-1"})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"seq-1:c-1"}, f.runner.triggered)
	assert.Empty(t, f.runner.entered)
}

func TestGetSequenceNotFound(t *testing.T) {
	f := setupAPITest(t)

	rec := doJSON(t, f.handler, http.MethodGet, "/api/sequences/missing", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetSequenceMetricsMergesDispatchCounts(t *testing.T) {
	f := setupAPITest(t)

	rec := doJSON(t, f.handler, http.MethodGet, "/api/sequences/seq-1/metrics", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "seq-1", body["sequence_id"])
	assert.Contains(t, body, "dispatch_sent")
	assert.Contains(t, body, "dispatch_failed")
}

func TestGetAvailableSlots(t *testing.T) {
	f := setupAPITest(t)
	f.scheduler.slots = []domain.TimeSlot{
		{Start: time.Date(2025, 6, 17, 9, 0, 0, 0, time.UTC), End: time.Date(2025, 6, 17, 9, 30, 0, 0, time.UTC), Available: true},
	}

	rec := doJSON(t, f.handler, http.MethodGet,
		"/api/calendar/slots?start=2025-06-17T00:00:00Z&end=2025-06-18T00:00:00Z&duration_minutes=30", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var slots []domain.TimeSlot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &slots))
	require.Len(t, slots, 1)
	assert.True(t, slots[0].Available)
}

func TestGetAvailableSlotsRejectsBadRange(t *testing.T) {
	f := setupAPITest(t)

	rec := doJSON(t, f.handler, http.MethodGet, "/api/calendar/slots?start=not-a-time&end=2025-06-18T00:00:00Z", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestScheduleFollowUpReportsBooking(t *testing.T) {
	f := setupAPITest(t)

	rec := doJSON(t, f.handler, http.MethodPost, "/api/leads/c-1/follow-up", map[string]any{
		"proposed_times": []string{"2025-06-17T10:00:00Z"},
		"meeting_type":   "demo",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Success bool                 `json:"success"`
		Data    domain.CalendarEvent `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, "evt-1", body.Data.ID)
}

func TestScheduleFollowUpNoAvailability(t *testing.T) {
	f := setupAPITest(t)
	f.scheduler.result = &calendar.BookingResult{Success: false, Message: "no available time slots"}

	rec := doJSON(t, f.handler, http.MethodPost, "/api/leads/c-1/follow-up", map[string]any{
		"proposed_times": []string{"2025-06-17T10:00:00Z"},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, "no available time slots", body.Message)
}

func TestAutoScheduleRejectsUnknownUrgency(t *testing.T) {
	f := setupAPITest(t)

	rec := doJSON(t, f.handler, http.MethodPost, "/api/leads/c-1/auto-schedule", map[string]string{"urgency": "asap"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAutoScheduleUnknownContact(t *testing.T) {
	f := setupAPITest(t)

	rec := doJSON(t, f.handler, http.MethodPost, "/api/leads/ghost/auto-schedule", map[string]string{"urgency": "high"})

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateEventStatus(t *testing.T) {
	f := setupAPITest(t)

	rec := doJSON(t, f.handler, http.MethodPut, "/api/calendar/events/evt-1/status", map[string]string{"status": "cancelled"})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"evt-1:cancelled"}, f.scheduler.statusUpdates)
}

func TestUpdateEventStatusRejectsInvalid(t *testing.T) {
	f := setupAPITest(t)

	rec := doJSON(t, f.handler, http.MethodPut, "/api/calendar/events/evt-1/status", map[string]string{"status": "deleted"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, f.scheduler.statusUpdates)
}

func TestPreviewTemplateRendersSnapshot(t *testing.T) {
	f := setupAPITest(t)

	rec := doJSON(t, f.handler, http.MethodPost, "/api/sequences/preview", map[string]string{
		"template":   "Hello {{ first_name }} from {{ company }}",
		"contact_id": "c-1",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Hello Ava from Acme Corp", body["rendered"])
}

func TestPreviewTemplateBadSyntax(t *testing.T) {
	f := setupAPITest(t)

	rec := doJSON(t, f.handler, http.MethodPost, "/api/sequences/preview", map[string]string{
		"template": "{% if %}broken",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
