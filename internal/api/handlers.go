package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hadrianfebri/CustomerRelationshipManager-sub000/internal/calendar"
	"github.com/hadrianfebri/CustomerRelationshipManager-sub000/internal/campaign"
	"github.com/hadrianfebri/CustomerRelationshipManager-sub000/internal/dispatch"
	"github.com/hadrianfebri/CustomerRelationshipManager-sub000/internal/domain"
	"github.com/hadrianfebri/CustomerRelationshipManager-sub000/internal/lifecycle"
	"github.com/hadrianfebri/CustomerRelationshipManager-sub000/internal/pkg/httputil"
)

// LeadService scores contacts and applies lifecycle rules.
type LeadService interface {
	ScoreContact(ctx context.Context, contactID string) (*domain.LeadScoringResult, error)
	ScoreAllContacts(ctx context.Context) (*lifecycle.Summary, error)
	ApplyLifecycleRules(ctx context.Context) (*lifecycle.Summary, error)
}

// ContactReader loads contacts for the scheduling endpoints.
type ContactReader interface {
	GetContact(ctx context.Context, id string) (*domain.Contact, error)
}

// SequenceRunner is the enrollment surface of the campaign sequencer.
type SequenceRunner interface {
	Enter(ctx context.Context, sequenceID, contactID string) (*domain.Enrollment, error)
	Trigger(ctx context.Context, sequenceID, contactID string) (*domain.Enrollment, error)
	IsHealthy() bool
	LastRunAt() time.Time
}

// SequenceReader reads sequence definitions and their delivery metrics.
type SequenceReader interface {
	ListSequences(ctx context.Context) ([]domain.CampaignSequence, error)
	GetSequence(ctx context.Context, id string) (*domain.CampaignSequence, error)
	GetSequenceMetrics(ctx context.Context, id string) (*campaign.SequenceMetrics, error)
}

// Scheduler books meetings and reports availability.
type Scheduler interface {
	GetAvailableSlots(ctx context.Context, calendarID string, start, end time.Time, duration time.Duration) ([]domain.TimeSlot, error)
	ScheduleFollowUp(ctx context.Context, calendarID string, contact domain.Contact, proposed []time.Time, meetingType domain.MeetingType) (*calendar.BookingResult, error)
	AutoScheduleFollowUp(ctx context.Context, calendarID string, contact domain.Contact, urgency calendar.Urgency, meetingType domain.MeetingType) (*calendar.BookingResult, error)
	UpdateEventStatus(ctx context.Context, eventID string, status domain.EventStatus) error
}

// Handlers holds the engine services behind the HTTP surface.
type Handlers struct {
	leads      LeadService
	contacts   ContactReader
	runner     SequenceRunner
	sequences  SequenceReader
	scheduler  Scheduler
	snapshots  campaign.SnapshotSource
	templates  *campaign.TemplateService
	metrics    *dispatch.Metrics
	calendarID string
}

// NewHandlers creates the handler set. calendarID selects the calendar the
// lead endpoints book against.
func NewHandlers(
	leads LeadService,
	contacts ContactReader,
	runner SequenceRunner,
	sequences SequenceReader,
	scheduler Scheduler,
	snapshots campaign.SnapshotSource,
	templates *campaign.TemplateService,
	metrics *dispatch.Metrics,
	calendarID string,
) *Handlers {
	if calendarID == "" {
		calendarID = "primary"
	}
	return &Handlers{
		leads:      leads,
		contacts:   contacts,
		runner:     runner,
		sequences:  sequences,
		scheduler:  scheduler,
		snapshots:  snapshots,
		templates:  templates,
		metrics:    metrics,
		calendarID: calendarID,
	}
}

// HealthCheck reports server and sequencer liveness.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{
		"status":            "ok",
		"sequencer_healthy": h.runner.IsHealthy(),
	}
	if last := h.runner.LastRunAt(); !last.IsZero() {
		status["sequencer_last_run"] = last.UTC().Format(time.RFC3339)
	}
	httputil.OK(w, status)
}

// ScoreContact recomputes one contact's composite score.
func (h *Handlers) ScoreContact(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	result, err := h.leads.ScoreContact(r.Context(), id)
	if err != nil {
		if errors.Is(err, lifecycle.ErrContactNotFound) {
			httputil.NotFound(w, "contact not found")
			return
		}
		httputil.InternalError(w, err)
		return
	}
	httputil.Succeeded(w, result)
}

// ScoreAllContacts rescans every contact.
func (h *Handlers) ScoreAllContacts(w http.ResponseWriter, r *http.Request) {
	summary, err := h.leads.ScoreAllContacts(r.Context())
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.Succeeded(w, summary)
}

// ApplyLifecycleRules runs the full score→trigger→dispatch pass.
func (h *Handlers) ApplyLifecycleRules(w http.ResponseWriter, r *http.Request) {
	summary, err := h.leads.ApplyLifecycleRules(r.Context())
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.Succeeded(w, summary)
}

type enrollRequest struct {
	ContactID string `json:"contact_id"`
}

// EnterSequence enrolls a contact into a sequence, honoring the first
// step's delay.
func (h *Handlers) EnterSequence(w http.ResponseWriter, r *http.Request) {
	h.enroll(w, r, h.runner.Enter)
}

// TriggerSequence enrolls a contact and makes the first step due
// immediately.
func (h *Handlers) TriggerSequence(w http.ResponseWriter, r *http.Request) {
	h.enroll(w, r, h.runner.Trigger)
}

func (h *Handlers) enroll(w http.ResponseWriter, r *http.Request, enter func(context.Context, string, string) (*domain.Enrollment, error)) {
	sequenceID := chi.URLParam(r, "id")
	var req enrollRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	if req.ContactID == "" {
		httputil.BadRequest(w, "contact_id is required")
		return
	}

	enrollment, err := enter(r.Context(), sequenceID, req.ContactID)
	if err != nil {
		switch {
		case errors.Is(err, campaign.ErrSequenceNotFound):
			httputil.NotFound(w, "sequence not found")
		case errors.Is(err, campaign.ErrSequenceInactive):
			httputil.Failed(w, "sequence is not active")
		case errors.Is(err, campaign.ErrAlreadyEnrolled):
			httputil.Failed(w, "contact already enrolled in sequence")
		default:
			httputil.InternalError(w, err)
		}
		return
	}
	httputil.Succeeded(w, enrollment)
}

// ListSequences returns all sequence definitions.
func (h *Handlers) ListSequences(w http.ResponseWriter, r *http.Request) {
	seqs, err := h.sequences.ListSequences(r.Context())
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, seqs)
}

// GetSequence returns one sequence definition.
func (h *Handlers) GetSequence(w http.ResponseWriter, r *http.Request) {
	seq, err := h.sequences.GetSequence(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	if seq == nil {
		httputil.NotFound(w, "sequence not found")
		return
	}
	httputil.OK(w, seq)
}

// GetSequenceMetrics returns enrollment and per-step delivery counts for
// one sequence, merged with the in-process dispatch counters.
func (h *Handlers) GetSequenceMetrics(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	metrics, err := h.sequences.GetSequenceMetrics(r.Context(), id)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	counts := h.metrics.Sequence(id)
	httputil.OK(w, map[string]any{
		"sequence_id":     id,
		"enrollments":     metrics,
		"dispatch_sent":   counts.Sent,
		"dispatch_failed": counts.Failed,
	})
}

type previewRequest struct {
	Template  string `json:"template"`
	ContactID string `json:"contact_id"`
}

// PreviewTemplate renders a Liquid template against a contact's live
// snapshot without dispatching anything.
func (h *Handlers) PreviewTemplate(w http.ResponseWriter, r *http.Request) {
	var req previewRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	if req.Template == "" {
		httputil.BadRequest(w, "template is required")
		return
	}

	bindings := map[string]interface{}{}
	if req.ContactID != "" {
		snap, err := h.snapshots.Snapshot(r.Context(), req.ContactID)
		if err != nil {
			if errors.Is(err, lifecycle.ErrContactNotFound) {
				httputil.NotFound(w, "contact not found")
				return
			}
			httputil.InternalError(w, err)
			return
		}
		bindings = campaign.PreviewBindings(snap)
	}

	rendered, err := h.templates.Render(req.Template, bindings)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	httputil.OK(w, map[string]string{"rendered": rendered})
}

// GetAvailableSlots returns the slot grid for a time range.
// Query: calendar_id, start, end (RFC3339), duration_minutes.
func (h *Handlers) GetAvailableSlots(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	calendarID := q.Get("calendar_id")
	if calendarID == "" {
		calendarID = h.calendarID
	}
	start, err := time.Parse(time.RFC3339, q.Get("start"))
	if err != nil {
		httputil.BadRequest(w, "start must be RFC3339")
		return
	}
	end, err := time.Parse(time.RFC3339, q.Get("end"))
	if err != nil {
		httputil.BadRequest(w, "end must be RFC3339")
		return
	}
	duration := 30 * time.Minute
	if v := q.Get("duration_minutes"); v != "" {
		d, err := time.ParseDuration(v + "m")
		if err != nil || d <= 0 {
			httputil.BadRequest(w, "duration_minutes must be a positive integer")
			return
		}
		duration = d
	}

	slots, err := h.scheduler.GetAvailableSlots(r.Context(), calendarID, start, end, duration)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, slots)
}

type followUpRequest struct {
	ProposedTimes []time.Time `json:"proposed_times"`
	MeetingType   string      `json:"meeting_type"`
}

// ScheduleFollowUp books the first free slot among the caller's proposed
// times. Infeasibility comes back as a reported failure, not an error.
func (h *Handlers) ScheduleFollowUp(w http.ResponseWriter, r *http.Request) {
	contact, ok := h.loadContact(w, r)
	if !ok {
		return
	}
	var req followUpRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	if len(req.ProposedTimes) == 0 {
		httputil.BadRequest(w, "proposed_times is required")
		return
	}

	result, err := h.scheduler.ScheduleFollowUp(r.Context(), h.calendarID, *contact, req.ProposedTimes, meetingType(req.MeetingType))
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	h.writeBooking(w, result)
}

type autoScheduleRequest struct {
	Urgency     string `json:"urgency"`
	MeetingType string `json:"meeting_type"`
}

// AutoScheduleFollowUp books against engine-proposed candidate times.
func (h *Handlers) AutoScheduleFollowUp(w http.ResponseWriter, r *http.Request) {
	contact, ok := h.loadContact(w, r)
	if !ok {
		return
	}
	var req autoScheduleRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	urgency := calendar.Urgency(req.Urgency)
	switch urgency {
	case calendar.UrgencyHigh, calendar.UrgencyMedium, calendar.UrgencyLow:
	case "":
		urgency = calendar.UrgencyMedium
	default:
		httputil.BadRequest(w, "urgency must be high, medium, or low")
		return
	}

	result, err := h.scheduler.AutoScheduleFollowUp(r.Context(), h.calendarID, *contact, urgency, meetingType(req.MeetingType))
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	h.writeBooking(w, result)
}

type eventStatusRequest struct {
	Status string `json:"status"`
}

// UpdateEventStatus transitions a calendar event.
func (h *Handlers) UpdateEventStatus(w http.ResponseWriter, r *http.Request) {
	var req eventStatusRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	status := domain.EventStatus(req.Status)
	switch status {
	case domain.EventScheduled, domain.EventConfirmed, domain.EventCompleted, domain.EventCancelled, domain.EventNoShow:
	default:
		httputil.BadRequest(w, "invalid event status")
		return
	}
	if err := h.scheduler.UpdateEventStatus(r.Context(), chi.URLParam(r, "id"), status); err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.Succeeded(w, nil)
}

// GetDispatchMetrics returns the per-sequence sent/failed counters.
func (h *Handlers) GetDispatchMetrics(w http.ResponseWriter, r *http.Request) {
	httputil.OK(w, h.metrics.Snapshot())
}

func (h *Handlers) loadContact(w http.ResponseWriter, r *http.Request) (*domain.Contact, bool) {
	contact, err := h.contacts.GetContact(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, lifecycle.ErrContactNotFound) {
			httputil.NotFound(w, "contact not found")
			return nil, false
		}
		httputil.InternalError(w, err)
		return nil, false
	}
	return contact, true
}

func (h *Handlers) writeBooking(w http.ResponseWriter, result *calendar.BookingResult) {
	if !result.Success {
		httputil.Failed(w, result.Message)
		return
	}
	httputil.Succeeded(w, result.Event)
}

func meetingType(s string) domain.MeetingType {
	switch domain.MeetingType(s) {
	case domain.MeetingIntroCall, domain.MeetingDemo, domain.MeetingFollowUp, domain.MeetingClosing:
		return domain.MeetingType(s)
	default:
		return domain.MeetingFollowUp
	}
}
