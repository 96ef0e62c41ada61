package campaign

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/hadrianfebri/CustomerRelationshipManager-sub000/internal/domain"
)

// Store handles CRUD for campaign_sequences, sequence_enrollments and
// sequence_step_log tables.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) GetSequence(ctx context.Context, id string) (*domain.CampaignSequence, error) {
	var seq domain.CampaignSequence
	var channelsJSON, triggersJSON, stepsJSON, rulesJSON []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, channels, triggers, steps, personalization, status, created_at, updated_at
		FROM campaign_sequences WHERE id = $1`, id,
	).Scan(&seq.ID, &seq.Name, &channelsJSON, &triggersJSON, &stepsJSON, &rulesJSON, &seq.Status, &seq.CreatedAt, &seq.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	json.Unmarshal(channelsJSON, &seq.Channels)
	json.Unmarshal(triggersJSON, &seq.Triggers)
	json.Unmarshal(stepsJSON, &seq.Steps)
	json.Unmarshal(rulesJSON, &seq.Personalization)
	return &seq, nil
}

func (s *Store) ListSequences(ctx context.Context) ([]domain.CampaignSequence, error) {
	return s.listSequences(ctx,
		`SELECT id, name, channels, triggers, steps, personalization, status, created_at, updated_at
		FROM campaign_sequences ORDER BY created_at DESC`)
}

// ListActiveByTrigger returns active sequences carrying a trigger of the
// given type. Trigger conditions are evaluated by the caller against a
// live snapshot.
func (s *Store) ListActiveByTrigger(ctx context.Context, triggerType domain.CampaignTriggerType) ([]domain.CampaignSequence, error) {
	match, _ := json.Marshal([]map[string]string{{"type": string(triggerType)}})
	return s.listSequences(ctx,
		`SELECT id, name, channels, triggers, steps, personalization, status, created_at, updated_at
		FROM campaign_sequences WHERE status = 'active' AND triggers @> $1::jsonb`, match)
}

func (s *Store) listSequences(ctx context.Context, query string, args ...interface{}) ([]domain.CampaignSequence, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var seqs []domain.CampaignSequence
	for rows.Next() {
		var seq domain.CampaignSequence
		var channelsJSON, triggersJSON, stepsJSON, rulesJSON []byte
		if err := rows.Scan(&seq.ID, &seq.Name, &channelsJSON, &triggersJSON, &stepsJSON, &rulesJSON, &seq.Status, &seq.CreatedAt, &seq.UpdatedAt); err != nil {
			continue
		}
		json.Unmarshal(channelsJSON, &seq.Channels)
		json.Unmarshal(triggersJSON, &seq.Triggers)
		json.Unmarshal(stepsJSON, &seq.Steps)
		json.Unmarshal(rulesJSON, &seq.Personalization)
		seqs = append(seqs, seq)
	}
	return seqs, rows.Err()
}

func (s *Store) CreateSequence(ctx context.Context, seq *domain.CampaignSequence) error {
	if seq.ID == "" {
		seq.ID = uuid.NewString()
	}
	channelsJSON, _ := json.Marshal(seq.Channels)
	triggersJSON, _ := json.Marshal(seq.Triggers)
	stepsJSON, _ := json.Marshal(seq.Steps)
	rulesJSON, _ := json.Marshal(seq.Personalization)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO campaign_sequences (id, name, channels, triggers, steps, personalization, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		seq.ID, seq.Name, channelsJSON, triggersJSON, stepsJSON, rulesJSON, seq.Status)
	return err
}

func (s *Store) UpdateSequenceStatus(ctx context.Context, id string, status domain.SequenceStatus) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE campaign_sequences SET status=$1, updated_at=NOW() WHERE id = $2`,
		status, id)
	return err
}

func (s *Store) CreateEnrollment(ctx context.Context, e *domain.Enrollment) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sequence_enrollments (id, sequence_id, contact_id, current_step, status, next_run_at, entered_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		e.ID, e.SequenceID, e.ContactID, e.CurrentStep, e.Status, e.NextRunAt, e.EnteredAt)
	return err
}

func (s *Store) GetEnrollment(ctx context.Context, id string) (*domain.Enrollment, error) {
	var e domain.Enrollment
	err := s.db.QueryRowContext(ctx,
		`SELECT id, sequence_id, contact_id, current_step, status, next_run_at, entered_at, completed_at, updated_at
		FROM sequence_enrollments WHERE id = $1`, id,
	).Scan(&e.ID, &e.SequenceID, &e.ContactID, &e.CurrentStep, &e.Status, &e.NextRunAt, &e.EnteredAt, &e.CompletedAt, &e.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *Store) UpdateEnrollment(ctx context.Context, e *domain.Enrollment) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE sequence_enrollments SET current_step=$1, status=$2, next_run_at=$3, completed_at=$4, updated_at=NOW()
		WHERE id = $5`,
		e.CurrentStep, e.Status, e.NextRunAt, e.CompletedAt, e.ID)
	return err
}

// ExistsEnrollment checks whether a contact is already in (or has finished)
// a sequence. Re-entry is only allowed after an exited enrollment.
func (s *Store) ExistsEnrollment(ctx context.Context, contactID, sequenceID string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sequence_enrollments
		WHERE contact_id = $1 AND sequence_id = $2 AND status IN ('active', 'completed')`,
		contactID, sequenceID).Scan(&count)
	return count > 0, err
}

func (s *Store) ListDueEnrollments(ctx context.Context, before time.Time, limit int) ([]domain.Enrollment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, sequence_id, contact_id, current_step, status, next_run_at, entered_at, completed_at, updated_at
		FROM sequence_enrollments WHERE status = 'active' AND next_run_at <= $1 LIMIT $2`,
		before, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var enrollments []domain.Enrollment
	for rows.Next() {
		var e domain.Enrollment
		if err := rows.Scan(&e.ID, &e.SequenceID, &e.ContactID, &e.CurrentStep, &e.Status, &e.NextRunAt, &e.EnteredAt, &e.CompletedAt, &e.UpdatedAt); err != nil {
			continue
		}
		enrollments = append(enrollments, e)
	}
	return enrollments, rows.Err()
}

// ClaimStep inserts a claim row for (enrollment, step). The primary key on
// the pair makes the insert a no-op when the step was already dispatched,
// so a step sends at most once even when two pollers race.
func (s *Store) ClaimStep(ctx context.Context, enrollmentID string, stepIndex int) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO sequence_step_log (enrollment_id, step_index, claimed_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (enrollment_id, step_index) DO NOTHING`,
		enrollmentID, stepIndex)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// MarkStep records the dispatch outcome on an already-claimed step row.
func (s *Store) MarkStep(ctx context.Context, enrollmentID string, stepIndex int, variantID, outcome string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE sequence_step_log SET variant_id=$1, outcome=$2, dispatched_at=NOW()
		WHERE enrollment_id = $3 AND step_index = $4`,
		variantID, outcome, enrollmentID, stepIndex)
	return err
}

// SequenceMetrics aggregates enrollment and dispatch counts for a sequence.
type SequenceMetrics struct {
	SequenceID     string `json:"sequenceId"`
	ActiveCount    int    `json:"activeCount"`
	CompletedCount int    `json:"completedCount"`
	ExitedCount    int    `json:"exitedCount"`
	StepsSent      int    `json:"stepsSent"`
	StepsFailed    int    `json:"stepsFailed"`
}

func (s *Store) GetSequenceMetrics(ctx context.Context, sequenceID string) (*SequenceMetrics, error) {
	m := SequenceMetrics{SequenceID: sequenceID}
	err := s.db.QueryRowContext(ctx,
		`SELECT
			COUNT(*) FILTER (WHERE status = 'active'),
			COUNT(*) FILTER (WHERE status = 'completed'),
			COUNT(*) FILTER (WHERE status = 'exited')
		FROM sequence_enrollments WHERE sequence_id = $1`, sequenceID,
	).Scan(&m.ActiveCount, &m.CompletedCount, &m.ExitedCount)
	if err != nil {
		return nil, err
	}
	err = s.db.QueryRowContext(ctx,
		`SELECT
			COUNT(*) FILTER (WHERE l.outcome = 'sent'),
			COUNT(*) FILTER (WHERE l.outcome = 'failed')
		FROM sequence_step_log l
		JOIN sequence_enrollments e ON e.id = l.enrollment_id
		WHERE e.sequence_id = $1`, sequenceID,
	).Scan(&m.StepsSent, &m.StepsFailed)
	if err != nil {
		return nil, err
	}
	return &m, nil
}
