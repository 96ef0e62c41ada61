package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hadrianfebri/CustomerRelationshipManager-sub000/internal/domain"
	"github.com/hadrianfebri/CustomerRelationshipManager-sub000/internal/lifecycle"
)

// CRMRepo implements lifecycle.Repository against PostgreSQL.
type CRMRepo struct{ db *sql.DB }

// NewCRMRepo creates a Postgres-backed CRM record repository.
func NewCRMRepo(db *sql.DB) *CRMRepo { return &CRMRepo{db: db} }

func (r *CRMRepo) GetContact(ctx context.Context, id string) (*domain.Contact, error) {
	c := &domain.Contact{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, COALESCE(first_name,''), COALESCE(last_name,''), email,
		       COALESCE(phone,''), COALESCE(company,''), COALESCE(position,''),
		       COALESCE(source,''), lead_status, lead_score, COALESCE(timezone,''),
		       created_at, updated_at
		FROM contacts
		WHERE id = $1
	`, id).Scan(
		&c.ID, &c.FirstName, &c.LastName, &c.Email,
		&c.Phone, &c.Company, &c.Position,
		&c.Source, &c.LeadStatus, &c.LeadScore, &c.Timezone,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, lifecycle.ErrContactNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get contact: %w", err)
	}
	return c, nil
}

func (r *CRMRepo) ListContactIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM contacts ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list contact ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *CRMRepo) GetActivities(ctx context.Context, contactID string) ([]domain.Activity, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, contact_id, type, COALESCE(subject,''), created_at
		FROM activities
		WHERE contact_id = $1
		ORDER BY created_at DESC
	`, contactID)
	if err != nil {
		return nil, fmt.Errorf("get activities: %w", err)
	}
	defer rows.Close()

	var activities []domain.Activity
	for rows.Next() {
		var a domain.Activity
		if err := rows.Scan(&a.ID, &a.ContactID, &a.Type, &a.Subject, &a.CreatedAt); err != nil {
			continue
		}
		activities = append(activities, a)
	}
	return activities, rows.Err()
}

func (r *CRMRepo) GetDeals(ctx context.Context, contactID string) ([]domain.Deal, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, contact_id, COALESCE(title,''), value, stage, probability, created_at, updated_at
		FROM deals
		WHERE contact_id = $1
		ORDER BY updated_at DESC
	`, contactID)
	if err != nil {
		return nil, fmt.Errorf("get deals: %w", err)
	}
	defer rows.Close()

	var deals []domain.Deal
	for rows.Next() {
		var d domain.Deal
		if err := rows.Scan(&d.ID, &d.ContactID, &d.Title, &d.Value, &d.Stage, &d.Probability, &d.CreatedAt, &d.UpdatedAt); err != nil {
			continue
		}
		deals = append(deals, d)
	}
	return deals, rows.Err()
}

func (r *CRMRepo) UpdateContactScore(ctx context.Context, id string, score int, status domain.LeadStatus) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE contacts SET lead_score = $1, lead_status = $2, updated_at = NOW()
		WHERE id = $3
	`, score, status, id)
	if err != nil {
		return fmt.Errorf("update contact score: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return lifecycle.ErrContactNotFound
	}
	return nil
}
