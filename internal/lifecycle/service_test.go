package lifecycle

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hadrianfebri/CustomerRelationshipManager-sub000/internal/calendar"
	"github.com/hadrianfebri/CustomerRelationshipManager-sub000/internal/dispatch"
	"github.com/hadrianfebri/CustomerRelationshipManager-sub000/internal/domain"
	"github.com/hadrianfebri/CustomerRelationshipManager-sub000/internal/pkg/clock"
	"github.com/hadrianfebri/CustomerRelationshipManager-sub000/internal/scoring"
)

var lifecycleTestNow = time.Date(2025, 6, 16, 12, 0, 0, 0, time.UTC)

type fakeRepo struct {
	mu         sync.Mutex
	contacts   map[string]domain.Contact
	activities map[string][]domain.Activity
	deals      map[string][]domain.Deal
	updates    map[string]domain.LeadStatus
	scores     map[string]int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		contacts:   make(map[string]domain.Contact),
		activities: make(map[string][]domain.Activity),
		deals:      make(map[string][]domain.Deal),
		updates:    make(map[string]domain.LeadStatus),
		scores:     make(map[string]int),
	}
}

func (r *fakeRepo) GetContact(ctx context.Context, id string) (*domain.Contact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.contacts[id]
	if !ok {
		return nil, ErrContactNotFound
	}
	return &c, nil
}

func (r *fakeRepo) ListContactIDs(ctx context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []string
	for id := range r.contacts {
		ids = append(ids, id)
	}
	return ids, nil
}

func (r *fakeRepo) GetActivities(ctx context.Context, contactID string) ([]domain.Activity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.activities[contactID], nil
}

func (r *fakeRepo) GetDeals(ctx context.Context, contactID string) ([]domain.Deal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.deals[contactID], nil
}

func (r *fakeRepo) UpdateContactScore(ctx context.Context, id string, score int, status domain.LeadStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scores[id] = score
	r.updates[id] = status
	return nil
}

type fakeEnroller struct {
	mu     sync.Mutex
	events []string
}

func (f *fakeEnroller) HandleEvent(ctx context.Context, event domain.CampaignTriggerType, contactID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, contactID+":"+string(event))
	return nil
}

type fakeMessageSender struct {
	mu       sync.Mutex
	messages []dispatch.Message
}

func (f *fakeMessageSender) Send(ctx context.Context, msg dispatch.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, msg)
	return nil
}

type fakeScheduler struct {
	mu    sync.Mutex
	calls []string
}

func (f *fakeScheduler) AutoScheduleFollowUp(ctx context.Context, calendarID string, contact domain.Contact, urgency calendar.Urgency, meetingType domain.MeetingType) (*calendar.BookingResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, contact.ID+":"+string(urgency))
	return &calendar.BookingResult{Success: true, Event: &domain.CalendarEvent{ID: "ev-1"}}, nil
}

func hotContact() domain.Contact {
	return domain.Contact{
		ID:         "hot-1",
		FirstName:  "Ava",
		LastName:   "Stone",
		Email:      "ava@acme.io",
		Phone:      "+15550100",
		Company:    "Acme Corporation",
		Position:   "CEO",
		Source:     "referral",
		LeadStatus: domain.LeadQualified,
	}
}

func hotFixtures(repo *fakeRepo) {
	repo.contacts["hot-1"] = hotContact()
	repo.activities["hot-1"] = []domain.Activity{
		{ID: "a1", ContactID: "hot-1", Type: domain.ActivityMeeting, CreatedAt: lifecycleTestNow.Add(-48 * time.Hour)},
		{ID: "a2", ContactID: "hot-1", Type: domain.ActivityMeeting, CreatedAt: lifecycleTestNow.Add(-96 * time.Hour)},
	}
	repo.deals["hot-1"] = []domain.Deal{
		{ID: "d1", ContactID: "hot-1", Value: 120000, Stage: domain.StageClosedWon, Probability: 100, UpdatedAt: lifecycleTestNow},
	}
}

func setupLifecycleTest() (*Service, *fakeRepo, *fakeEnroller, *fakeMessageSender, *fakeScheduler) {
	repo := newFakeRepo()
	enroller := &fakeEnroller{}
	sender := &fakeMessageSender{}
	scheduler := &fakeScheduler{}
	scorer := scoring.NewEngine(scoring.DefaultConfig(), clock.Fixed{T: lifecycleTestNow})
	svc := NewService(repo, scorer, enroller, sender, scheduler, clock.Fixed{T: lifecycleTestNow})
	return svc, repo, enroller, sender, scheduler
}

func TestScoreContactPersistsScoreAndStatus(t *testing.T) {
	svc, repo, enroller, _, _ := setupLifecycleTest()
	hotFixtures(repo)

	result, err := svc.ScoreContact(context.Background(), "hot-1")
	require.NoError(t, err)

	assert.GreaterOrEqual(t, result.Score, 85)
	assert.Equal(t, result.Score, repo.scores["hot-1"])
	assert.Equal(t, domain.LeadHot, repo.updates["hot-1"])
	assert.Contains(t, enroller.events, "hot-1:lead_score_change")
}

func TestScoreContactUnknownID(t *testing.T) {
	svc, _, _, _, _ := setupLifecycleTest()

	_, err := svc.ScoreContact(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrContactNotFound)
}

func TestScoreAllContactsCountsFailures(t *testing.T) {
	svc, repo, _, _, _ := setupLifecycleTest()
	hotFixtures(repo)
	repo.contacts["empty-1"] = domain.Contact{ID: "empty-1", Email: "x@y.z", LeadStatus: domain.LeadNew}

	sum, err := svc.ScoreAllContacts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Processed)
	assert.Equal(t, 0, sum.Failed)
	assert.Contains(t, repo.scores, "empty-1")
	assert.Contains(t, repo.scores, "hot-1")
}

func TestApplyLifecycleRulesHotLead(t *testing.T) {
	svc, repo, _, sender, scheduler := setupLifecycleTest()
	hotFixtures(repo)

	sum, err := svc.ApplyLifecycleRules(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, sum.Processed)
	assert.Equal(t, 1, sum.MeetingsBooked)
	// Hot band: alert + task + email.
	assert.GreaterOrEqual(t, sum.TriggersDispatched, 3)
	assert.Equal(t, []string{"hot-1:high"}, scheduler.calls)

	channels := map[domain.Channel]bool{}
	for _, m := range sender.messages {
		channels[m.Channel] = true
	}
	assert.True(t, channels[domain.ChannelAlert])
	assert.True(t, channels[domain.ChannelTask])
	assert.True(t, channels[domain.ChannelEmail])
}

func TestApplyLifecycleRulesColdLeadBooksNothing(t *testing.T) {
	svc, repo, _, sender, scheduler := setupLifecycleTest()
	repo.contacts["empty-1"] = domain.Contact{ID: "empty-1", Email: "x@y.z", LeadStatus: domain.LeadNew}

	sum, err := svc.ApplyLifecycleRules(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, sum.Processed)
	assert.Equal(t, 0, sum.MeetingsBooked)
	assert.Empty(t, scheduler.calls)
	// Re-engagement email still fires for a contact with no activities.
	require.Len(t, sender.messages, 1)
	assert.Equal(t, domain.ChannelEmail, sender.messages[0].Channel)
}

func TestTriggerMessageRouting(t *testing.T) {
	svc, _, _, _, _ := setupLifecycleTest()
	contact := hotContact()
	now := lifecycleTestNow

	sms := svc.triggerMessage(contact, domain.AutomationTrigger{Type: domain.TriggerSMS, DelayMinutes: 30}, now)
	assert.Equal(t, domain.ChannelSMS, sms.Channel)
	assert.Equal(t, contact.Phone, sms.To)
	assert.Equal(t, now.Add(30*time.Minute), sms.SendAt)

	task := svc.triggerMessage(contact, domain.AutomationTrigger{Type: domain.TriggerTask, AssignedTo: "rep-7"}, now)
	assert.Equal(t, domain.ChannelTask, task.Channel)
	assert.Equal(t, "rep-7", task.To)

	email := svc.triggerMessage(contact, domain.AutomationTrigger{Type: domain.TriggerEmail}, now)
	assert.Equal(t, contact.Email, email.To)
}

func TestTriggerMessageUnassignedTaskFallsBackToOwner(t *testing.T) {
	svc, _, _, _, _ := setupLifecycleTest()
	contact := hotContact()

	task := svc.triggerMessage(contact, domain.AutomationTrigger{Type: domain.TriggerTask}, lifecycleTestNow)
	assert.Equal(t, contact.Email, task.To, "no assignee and no owner configured")

	svc.SetOwnerEmail("owner@crm.local")
	task = svc.triggerMessage(contact, domain.AutomationTrigger{Type: domain.TriggerTask}, lifecycleTestNow)
	assert.Equal(t, "owner@crm.local", task.To)

	alert := svc.triggerMessage(contact, domain.AutomationTrigger{Type: domain.TriggerAlert, AssignedTo: "rep-3"}, lifecycleTestNow)
	assert.Equal(t, "rep-3", alert.To, "explicit assignee wins over the owner")
}

func TestStatusForScoreBands(t *testing.T) {
	tests := []struct {
		score   int
		current domain.LeadStatus
		want    domain.LeadStatus
	}{
		{90, domain.LeadNew, domain.LeadHot},
		{75, domain.LeadNew, domain.LeadWarm},
		{50, domain.LeadNew, domain.LeadQualified},
		{25, domain.LeadNew, domain.LeadContacted},
		{10, domain.LeadNew, domain.LeadCold},
		{10, domain.LeadWarm, domain.LeadWarm}, // no downgrade below the bands
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusForScore(tt.score, tt.current), "score=%d", tt.score)
	}
}

func TestSnapshotDerivesEngagementFields(t *testing.T) {
	svc, repo, _, _, _ := setupLifecycleTest()
	hotFixtures(repo)
	c := repo.contacts["hot-1"]
	c.LeadScore = 88
	repo.contacts["hot-1"] = c

	snap, err := svc.Snapshot(context.Background(), "hot-1")
	require.NoError(t, err)

	assert.Equal(t, 88, snap.LeadScore)
	assert.Equal(t, "meeting", snap.LastActivityType)
	assert.Equal(t, 2, snap.DaysSinceLastActivity)
	assert.Equal(t, "closed-won", snap.DealStage)
	assert.False(t, snap.EmailOpened, "no open recorded yet")
}

func TestSnapshotReflectsEmailOpens(t *testing.T) {
	svc, repo, _, _, _ := setupLifecycleTest()
	hotFixtures(repo)
	repo.activities["hot-1"] = append(repo.activities["hot-1"], domain.Activity{
		ID:        "a3",
		ContactID: "hot-1",
		Type:      domain.ActivityEmailOpen,
		CreatedAt: lifecycleTestNow.Add(-120 * time.Hour),
	})

	snap, err := svc.Snapshot(context.Background(), "hot-1")
	require.NoError(t, err)

	assert.True(t, snap.EmailOpened)
	// The open is older than the meetings, so recency fields are untouched.
	assert.Equal(t, "meeting", snap.LastActivityType)
	assert.Equal(t, 2, snap.DaysSinceLastActivity)
}

func TestSnapshotNoActivitiesIsMaximallyStale(t *testing.T) {
	svc, repo, _, _, _ := setupLifecycleTest()
	repo.contacts["empty-1"] = domain.Contact{ID: "empty-1", Email: "x@y.z"}

	snap, err := svc.Snapshot(context.Background(), "empty-1")
	require.NoError(t, err)
	assert.Greater(t, snap.DaysSinceLastActivity, 9000)
}
