package campaign

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/hadrianfebri/CustomerRelationshipManager-sub000/internal/domain"
	"github.com/hadrianfebri/CustomerRelationshipManager-sub000/internal/pkg/clock"
)

// Delivery is a fully-resolved step handed to the dispatcher: variant
// chosen, merge tags substituted, send time already decided.
type Delivery struct {
	SequenceID   string
	EnrollmentID string
	ContactID    string
	StepIndex    int
	Channel      domain.Channel
	To           string
	Subject      string
	Body         string
	VariantID    string
	SendAt       time.Time
}

// Dispatcher sends resolved deliveries over their channel.
type Dispatcher interface {
	Dispatch(ctx context.Context, d Delivery) error
}

// SnapshotSource provides the live contact picture that conditions and
// merge tags are evaluated against.
type SnapshotSource interface {
	Snapshot(ctx context.Context, contactID string) (Snapshot, error)
}

// Sequencer walks contacts through campaign sequences. A single poll loop
// owns all enrollment advancement; claim rows in the step log keep a step
// from being dispatched twice even if a second instance polls the same
// enrollment.
type Sequencer struct {
	store        *Store
	snapshots    SnapshotSource
	dispatcher   Dispatcher
	personalizer *Personalizer
	sendTime     *SendTimeOptimizer
	clk          clock.Clock
	interval     time.Duration
	batchSize    int
	ctx          context.Context
	cancel       context.CancelFunc

	// mu guards lastRunAt and healthy; the poll loop writes them while
	// health checks read them from request goroutines.
	mu        sync.Mutex
	lastRunAt time.Time
	healthy   bool
}

func NewSequencer(store *Store, snapshots SnapshotSource, dispatcher Dispatcher, clk clock.Clock) *Sequencer {
	if clk == nil {
		clk = clock.Real{}
	}
	return &Sequencer{
		store:        store,
		snapshots:    snapshots,
		dispatcher:   dispatcher,
		personalizer: NewPersonalizer(),
		sendTime:     NewSendTimeOptimizer(clk),
		clk:          clk,
		interval:     30 * time.Second,
		batchSize:    100,
		healthy:      true,
	}
}

// Personalizer exposes the resolver registry so callers can register
// custom dynamic tags before Start.
func (sq *Sequencer) Personalizer() *Personalizer { return sq.personalizer }

func (sq *Sequencer) SetInterval(d time.Duration) {
	if d > 0 {
		sq.interval = d
	}
}

func (sq *Sequencer) SetBatchSize(n int) {
	if n > 0 {
		sq.batchSize = n
	}
}

func (sq *Sequencer) Start() {
	sq.ctx, sq.cancel = context.WithCancel(context.Background())
	go func() {
		log.Println("[Sequencer] Starting campaign sequencer")
		ticker := time.NewTicker(sq.interval)
		defer ticker.Stop()
		for {
			select {
			case <-sq.ctx.Done():
				log.Println("[Sequencer] Stopped")
				return
			case <-ticker.C:
				sq.ProcessDue(sq.ctx)
			}
		}
	}()
}

func (sq *Sequencer) Stop() {
	if sq.cancel != nil {
		sq.cancel()
	}
}

func (sq *Sequencer) IsHealthy() bool {
	sq.mu.Lock()
	defer sq.mu.Unlock()
	return sq.healthy
}

func (sq *Sequencer) LastRunAt() time.Time {
	sq.mu.Lock()
	defer sq.mu.Unlock()
	return sq.lastRunAt
}

func (sq *Sequencer) markRun(now time.Time) {
	sq.mu.Lock()
	sq.lastRunAt = now
	sq.healthy = true
	sq.mu.Unlock()
}

func (sq *Sequencer) markUnhealthy() {
	sq.mu.Lock()
	sq.healthy = false
	sq.mu.Unlock()
}

// Enter enrolls a contact into a sequence. A contact can only hold one
// active or completed enrollment per sequence; re-entry is allowed after
// an exit.
func (sq *Sequencer) Enter(ctx context.Context, sequenceID, contactID string) (*domain.Enrollment, error) {
	seq, err := sq.store.GetSequence(ctx, sequenceID)
	if err != nil {
		return nil, err
	}
	if seq == nil {
		return nil, ErrSequenceNotFound
	}
	if !seq.IsActive() {
		return nil, ErrSequenceInactive
	}
	exists, err := sq.store.ExistsEnrollment(ctx, contactID, sequenceID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrAlreadyEnrolled
	}

	now := sq.clk.Now()
	next := now
	if len(seq.Steps) > 0 && seq.Steps[0].DelayMinutes > 0 {
		next = now.Add(time.Duration(seq.Steps[0].DelayMinutes) * time.Minute)
	}
	enrollment := &domain.Enrollment{
		SequenceID:  sequenceID,
		ContactID:   contactID,
		CurrentStep: 0,
		Status:      domain.EnrollmentActive,
		NextRunAt:   &next,
		EnteredAt:   now,
	}
	if err := sq.store.CreateEnrollment(ctx, enrollment); err != nil {
		return nil, err
	}
	log.Printf("[Sequencer] enrolled contact=%s sequence=%s", contactID, sequenceID)
	return enrollment, nil
}

// Trigger enrolls a contact and makes the first step due immediately,
// overriding the first step's entry delay. Used for manual campaign
// kicks from the API.
func (sq *Sequencer) Trigger(ctx context.Context, sequenceID, contactID string) (*domain.Enrollment, error) {
	e, err := sq.Enter(ctx, sequenceID, contactID)
	if err != nil {
		return nil, err
	}
	now := sq.clk.Now()
	e.NextRunAt = &now
	if err := sq.store.UpdateEnrollment(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// HandleEvent enrolls a contact into every active sequence that has a
// trigger of the event's type whose conditions pass against the contact's
// current snapshot. Duplicate enrollments are skipped silently.
func (sq *Sequencer) HandleEvent(ctx context.Context, event domain.CampaignTriggerType, contactID string) error {
	seqs, err := sq.store.ListActiveByTrigger(ctx, event)
	if err != nil {
		return err
	}
	if len(seqs) == 0 {
		return nil
	}

	snap, err := sq.snapshots.Snapshot(ctx, contactID)
	if err != nil {
		return err
	}

	for _, seq := range seqs {
		if !triggerMatches(seq.Triggers, event, snap) {
			continue
		}
		if _, err := sq.Enter(ctx, seq.ID, contactID); err != nil {
			if err == ErrAlreadyEnrolled {
				continue
			}
			log.Printf("[Sequencer] enter error sequence=%s contact=%s: %v", seq.ID, contactID, err)
		}
	}
	return nil
}

func triggerMatches(triggers []domain.CampaignTrigger, event domain.CampaignTriggerType, snap Snapshot) bool {
	for _, t := range triggers {
		if t.Type == event && evalAll(snap, t.Conditions) {
			return true
		}
	}
	return false
}

// ProcessDue advances every enrollment whose next_run_at has passed.
func (sq *Sequencer) ProcessDue(ctx context.Context) {
	sq.markRun(sq.clk.Now())

	due, err := sq.store.ListDueEnrollments(ctx, sq.clk.Now(), sq.batchSize)
	if err != nil {
		log.Printf("[Sequencer] list due error: %v", err)
		sq.markUnhealthy()
		return
	}

	for _, e := range due {
		if ctx.Err() != nil {
			return
		}
		seq, err := sq.store.GetSequence(ctx, e.SequenceID)
		if err != nil || seq == nil {
			now := sq.clk.Now()
			e.Status = domain.EnrollmentExited
			e.CompletedAt = &now
			sq.store.UpdateEnrollment(ctx, &e)
			continue
		}
		// Paused sequences freeze in place: nothing advances, nothing is
		// re-evaluated, and the enrollment becomes due again once the
		// sequence is reactivated.
		if seq.Status == domain.SequencePaused {
			continue
		}
		sq.advance(ctx, &e, seq)
	}
}

func (sq *Sequencer) advance(ctx context.Context, e *domain.Enrollment, seq *domain.CampaignSequence) {
	if e.CurrentStep >= len(seq.Steps) {
		sq.complete(ctx, e)
		return
	}

	step := seq.Steps[e.CurrentStep]

	snap, err := sq.snapshots.Snapshot(ctx, e.ContactID)
	if err != nil {
		log.Printf("[Sequencer] snapshot error enrollment=%s: %v", e.ID, err)
		sq.markUnhealthy()
		return
	}

	// Step conditions gate the step, not the sequence: an unmet condition
	// skips forward without dispatching.
	if !evalAll(snap, step.Conditions) {
		e.CurrentStep++
		sq.scheduleNext(e, seq)
		sq.store.UpdateEnrollment(ctx, e)
		return
	}

	// Send-time optimization is decided at dispatch time. When the window
	// pushes the send into the future the enrollment is parked instead of
	// holding the delivery in memory.
	sendAt := sq.clk.Now()
	if step.SendTimeOptimization {
		sendAt = sq.sendTime.Next(seq.Personalization.SendTime)
	}
	if sendAt.After(sq.clk.Now()) {
		e.NextRunAt = &sendAt
		sq.store.UpdateEnrollment(ctx, e)
		return
	}

	claimed, err := sq.store.ClaimStep(ctx, e.ID, e.CurrentStep)
	if err != nil {
		log.Printf("[Sequencer] claim error enrollment=%s step=%d: %v", e.ID, e.CurrentStep, err)
		sq.markUnhealthy()
		return
	}
	if claimed {
		sq.dispatchStep(ctx, e, seq, step, snap, sendAt)
	}

	e.CurrentStep++
	sq.scheduleNext(e, seq)
	sq.store.UpdateEnrollment(ctx, e)
}

func (sq *Sequencer) dispatchStep(ctx context.Context, e *domain.Enrollment, seq *domain.CampaignSequence, step domain.CampaignStep, snap Snapshot, sendAt time.Time) {
	content := step.Content
	variantID := ""
	if variant := SelectVariant(e.ContactID, step.ID, step.Content.Variants); variant != nil {
		variantID = variant.ID
		if variant.Subject != "" {
			content.Subject = variant.Subject
		}
		if variant.Body != "" {
			content.Body = variant.Body
		}
	}
	content = sq.personalizer.Personalize(content, snap, seq.Personalization)

	d := Delivery{
		SequenceID:   seq.ID,
		EnrollmentID: e.ID,
		ContactID:    e.ContactID,
		StepIndex:    e.CurrentStep,
		Channel:      step.Channel,
		To:           recipientFor(step.Channel, snap.Contact),
		Subject:      content.Subject,
		Body:         content.Body,
		VariantID:    variantID,
		SendAt:       sendAt,
	}

	outcome := "sent"
	if err := sq.dispatcher.Dispatch(ctx, d); err != nil {
		log.Printf("[Sequencer] dispatch error enrollment=%s step=%d: %v", e.ID, e.CurrentStep, err)
		outcome = "failed"
	}
	if err := sq.store.MarkStep(ctx, e.ID, e.CurrentStep, variantID, outcome); err != nil {
		log.Printf("[Sequencer] mark step error enrollment=%s step=%d: %v", e.ID, e.CurrentStep, err)
	}
}

// recipientFor picks the address a delivery goes to: phone-based channels
// target the contact's phone number, everything else the email address.
func recipientFor(ch domain.Channel, c domain.Contact) string {
	switch ch {
	case domain.ChannelSMS, domain.ChannelWhatsApp:
		return c.Phone
	default:
		return c.Email
	}
}

func (sq *Sequencer) scheduleNext(e *domain.Enrollment, seq *domain.CampaignSequence) {
	if e.CurrentStep >= len(seq.Steps) {
		now := sq.clk.Now()
		e.Status = domain.EnrollmentCompleted
		e.CompletedAt = &now
		e.NextRunAt = nil
		return
	}
	next := sq.clk.Now().Add(time.Duration(seq.Steps[e.CurrentStep].DelayMinutes) * time.Minute)
	e.NextRunAt = &next
}

func (sq *Sequencer) complete(ctx context.Context, e *domain.Enrollment) {
	now := sq.clk.Now()
	e.Status = domain.EnrollmentCompleted
	e.CompletedAt = &now
	e.NextRunAt = nil
	sq.store.UpdateEnrollment(ctx, e)
}

// Exit removes a contact from a sequence ahead of completion, freeing
// the slot for a later re-entry.
func (sq *Sequencer) Exit(ctx context.Context, enrollmentID string) error {
	e, err := sq.store.GetEnrollment(ctx, enrollmentID)
	if err != nil {
		return err
	}
	if e == nil || e.Status != domain.EnrollmentActive {
		return nil
	}
	now := sq.clk.Now()
	e.Status = domain.EnrollmentExited
	e.CompletedAt = &now
	e.NextRunAt = nil
	return sq.store.UpdateEnrollment(ctx, e)
}
