package lifecycle

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/hadrianfebri/CustomerRelationshipManager-sub000/internal/calendar"
	"github.com/hadrianfebri/CustomerRelationshipManager-sub000/internal/campaign"
	"github.com/hadrianfebri/CustomerRelationshipManager-sub000/internal/dispatch"
	"github.com/hadrianfebri/CustomerRelationshipManager-sub000/internal/domain"
	"github.com/hadrianfebri/CustomerRelationshipManager-sub000/internal/pkg/clock"
	"github.com/hadrianfebri/CustomerRelationshipManager-sub000/internal/scoring"
)

// Enroller is the campaign-entry hook fired after a score change.
type Enroller interface {
	HandleEvent(ctx context.Context, event domain.CampaignTriggerType, contactID string) error
}

// MessageSender delivers trigger-derived channel messages.
type MessageSender interface {
	Send(ctx context.Context, msg dispatch.Message) error
}

// FollowUpScheduler books meetings for hot leads.
type FollowUpScheduler interface {
	AutoScheduleFollowUp(ctx context.Context, calendarID string, contact domain.Contact, urgency calendar.Urgency, meetingType domain.MeetingType) (*calendar.BookingResult, error)
}

// Summary reports the outcome of a bulk lifecycle run.
type Summary struct {
	Processed          int `json:"processed"`
	Failed             int `json:"failed"`
	TriggersDispatched int `json:"triggers_dispatched"`
	MeetingsBooked     int `json:"meetings_booked"`
}

// hotLeadThreshold is the score at which lifecycle rules book a meeting.
const hotLeadThreshold = 80

// Service runs scoring and lifecycle rules over the contact base. Scoring
// itself is pure; this service owns the read-score-persist-react cycle
// around it. Bulk runs fan out across contacts with a bounded worker
// pool; per-contact work is independent.
type Service struct {
	repo       Repository
	scorer     *scoring.Engine
	enroller   Enroller
	sender     MessageSender
	scheduler  FollowUpScheduler
	clk        clock.Clock
	calendarID string
	ownerEmail string
	workers    int
}

func NewService(repo Repository, scorer *scoring.Engine, enroller Enroller, sender MessageSender, scheduler FollowUpScheduler, clk clock.Clock) *Service {
	if clk == nil {
		clk = clock.Real{}
	}
	return &Service{
		repo:       repo,
		scorer:     scorer,
		enroller:   enroller,
		sender:     sender,
		scheduler:  scheduler,
		clk:        clk,
		calendarID: "primary",
		workers:    8,
	}
}

// SetCalendarID overrides the calendar used for auto-booked follow-ups.
func (s *Service) SetCalendarID(id string) {
	if id != "" {
		s.calendarID = id
	}
}

// SetOwnerEmail sets the default recipient for task and alert triggers
// that name no assignee.
func (s *Service) SetOwnerEmail(email string) {
	s.ownerEmail = email
}

// ScoreContact recomputes a contact's score, persists the composite and
// the derived status, and fires the score-change campaign event.
func (s *Service) ScoreContact(ctx context.Context, contactID string) (*domain.LeadScoringResult, error) {
	contact, activities, deals, err := s.load(ctx, contactID)
	if err != nil {
		return nil, err
	}

	result := s.scorer.Score(*contact, activities, deals)
	status := statusForScore(result.Score, contact.LeadStatus)

	if err := s.repo.UpdateContactScore(ctx, contactID, result.Score, status); err != nil {
		return nil, err
	}

	if s.enroller != nil {
		if err := s.enroller.HandleEvent(ctx, domain.TriggerScoreChange, contactID); err != nil {
			log.Printf("[Lifecycle] score-change enrollment error contact=%s: %v", contactID, err)
		}
	}
	return &result, nil
}

// ScoreAllContacts recomputes every contact in parallel. Per-contact
// failures are counted, not fatal.
func (s *Service) ScoreAllContacts(ctx context.Context) (*Summary, error) {
	return s.fanOut(ctx, func(ctx context.Context, id string, sum *Summary, mu *sync.Mutex) {
		_, err := s.ScoreContact(ctx, id)
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			sum.Failed++
			return
		}
		sum.Processed++
	})
}

// ApplyLifecycleRules scores every contact and acts on the result:
// generated triggers are dispatched over their channels, and hot leads
// get a high-urgency follow-up meeting booked.
func (s *Service) ApplyLifecycleRules(ctx context.Context) (*Summary, error) {
	return s.fanOut(ctx, func(ctx context.Context, id string, sum *Summary, mu *sync.Mutex) {
		dispatched, booked, err := s.applyToContact(ctx, id)
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			sum.Failed++
			return
		}
		sum.Processed++
		sum.TriggersDispatched += dispatched
		if booked {
			sum.MeetingsBooked++
		}
	})
}

func (s *Service) applyToContact(ctx context.Context, contactID string) (dispatched int, booked bool, err error) {
	contact, activities, deals, err := s.load(ctx, contactID)
	if err != nil {
		return 0, false, err
	}

	result := s.scorer.Score(*contact, activities, deals)
	status := statusForScore(result.Score, contact.LeadStatus)
	if err := s.repo.UpdateContactScore(ctx, contactID, result.Score, status); err != nil {
		return 0, false, err
	}

	if s.enroller != nil {
		if err := s.enroller.HandleEvent(ctx, domain.TriggerScoreChange, contactID); err != nil {
			log.Printf("[Lifecycle] score-change enrollment error contact=%s: %v", contactID, err)
		}
	}

	for _, trigger := range result.Triggers {
		if s.sender == nil {
			break
		}
		msg := s.triggerMessage(*contact, trigger, s.clk.Now())
		if err := s.sender.Send(ctx, msg); err != nil {
			log.Printf("[Lifecycle] trigger dispatch failed contact=%s channel=%s: %v", contactID, msg.Channel, err)
			continue
		}
		dispatched++
	}

	if result.Score >= hotLeadThreshold && s.scheduler != nil {
		res, err := s.scheduler.AutoScheduleFollowUp(ctx, s.calendarID, *contact, calendar.UrgencyHigh, domain.MeetingFollowUp)
		if err != nil {
			log.Printf("[Lifecycle] auto-schedule error contact=%s: %v", contactID, err)
		} else if res.Success {
			booked = true
		}
	}

	return dispatched, booked, nil
}

func (s *Service) fanOut(ctx context.Context, work func(ctx context.Context, id string, sum *Summary, mu *sync.Mutex)) (*Summary, error) {
	ids, err := s.repo.ListContactIDs(ctx)
	if err != nil {
		return nil, err
	}

	var (
		sum Summary
		mu  sync.Mutex
		wg  sync.WaitGroup
	)
	jobs := make(chan string)

	workers := s.workers
	if workers < 1 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range jobs {
				if ctx.Err() != nil {
					return
				}
				work(ctx, id, &sum, &mu)
			}
		}()
	}

	for _, id := range ids {
		select {
		case jobs <- id:
		case <-ctx.Done():
		}
		if ctx.Err() != nil {
			break
		}
	}
	close(jobs)
	wg.Wait()

	return &sum, ctx.Err()
}

// Snapshot builds the live contact view the sequencer evaluates
// conditions and merge tags against.
func (s *Service) Snapshot(ctx context.Context, contactID string) (campaign.Snapshot, error) {
	contact, activities, deals, err := s.load(ctx, contactID)
	if err != nil {
		return campaign.Snapshot{}, err
	}

	snap := campaign.Snapshot{
		Contact:   *contact,
		LeadScore: contact.LeadScore,
	}

	if len(activities) > 0 {
		latest := activities[0]
		for _, a := range activities {
			if a.CreatedAt.After(latest.CreatedAt) {
				latest = a
			}
			if a.Type == domain.ActivityEmailOpen {
				snap.EmailOpened = true
			}
		}
		snap.LastActivityType = string(latest.Type)
		snap.DaysSinceLastActivity = int(s.clk.Now().Sub(latest.CreatedAt).Hours() / 24)
	} else {
		// No activity ever: treat as maximally stale so time-based
		// re-engagement conditions match.
		snap.DaysSinceLastActivity = 10000
	}

	if len(deals) > 0 {
		latest := deals[0]
		for _, d := range deals[1:] {
			if d.UpdatedAt.After(latest.UpdatedAt) {
				latest = d
			}
		}
		snap.DealStage = string(latest.Stage)
	}

	return snap, nil
}

func (s *Service) load(ctx context.Context, contactID string) (*domain.Contact, []domain.Activity, []domain.Deal, error) {
	contact, err := s.repo.GetContact(ctx, contactID)
	if err != nil {
		return nil, nil, nil, err
	}
	if contact == nil {
		return nil, nil, nil, ErrContactNotFound
	}
	activities, err := s.repo.GetActivities(ctx, contactID)
	if err != nil {
		return nil, nil, nil, err
	}
	deals, err := s.repo.GetDeals(ctx, contactID)
	if err != nil {
		return nil, nil, nil, err
	}
	return contact, activities, deals, nil
}

// statusForScore derives the lifecycle status from the composite score.
// Scores below the contacted band never downgrade an existing status.
func statusForScore(score int, current domain.LeadStatus) domain.LeadStatus {
	switch {
	case score >= 80:
		return domain.LeadHot
	case score >= 60:
		return domain.LeadWarm
	case score >= 40:
		return domain.LeadQualified
	case score >= 20:
		return domain.LeadContacted
	default:
		if current == domain.LeadNew {
			return domain.LeadCold
		}
		return current
	}
}

func (s *Service) triggerMessage(contact domain.Contact, trigger domain.AutomationTrigger, now time.Time) dispatch.Message {
	msg := dispatch.Message{
		Channel:   channelForTrigger(trigger.Type),
		To:        contact.Email,
		Body:      trigger.Content,
		SendAt:    now.Add(time.Duration(trigger.DelayMinutes) * time.Minute),
		ContactID: contact.ID,
	}
	if trigger.Type == domain.TriggerSMS || trigger.Type == domain.TriggerWhatsApp {
		msg.To = contact.Phone
	}
	if trigger.Type == domain.TriggerTask || trigger.Type == domain.TriggerAlert {
		// Unassigned tasks and alerts go to the team owner; contacts never
		// receive their own internal notifications unless nothing else is
		// configured.
		switch {
		case trigger.AssignedTo != "":
			msg.To = trigger.AssignedTo
		case s.ownerEmail != "":
			msg.To = s.ownerEmail
		}
	}
	return msg
}

func channelForTrigger(t domain.TriggerType) domain.Channel {
	switch t {
	case domain.TriggerSMS:
		return domain.ChannelSMS
	case domain.TriggerWhatsApp:
		return domain.ChannelWhatsApp
	case domain.TriggerTask:
		return domain.ChannelTask
	case domain.TriggerAlert:
		return domain.ChannelAlert
	default:
		return domain.ChannelEmail
	}
}
