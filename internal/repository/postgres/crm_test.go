package postgres

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hadrianfebri/CustomerRelationshipManager-sub000/internal/domain"
	"github.com/hadrianfebri/CustomerRelationshipManager-sub000/internal/lifecycle"
)

func setupRepoTest(t *testing.T) (*CRMRepo, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	return NewCRMRepo(db), mock, func() { db.Close() }
}

func TestGetContact(t *testing.T) {
	repo, mock, cleanup := setupRepoTest(t)
	defer cleanup()

	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"id", "first_name", "last_name", "email", "phone", "company", "position",
		"source", "lead_status", "lead_score", "timezone", "created_at", "updated_at",
	}).AddRow("c-1", "Ava", "Stone", "ava@acme.io", "+15550100", "Acme Corp", "CEO",
		"referral", "qualified", 72, "America/New_York", now, now)

	mock.ExpectQuery(regexp.QuoteMeta("FROM contacts")).
		WithArgs("c-1").
		WillReturnRows(rows)

	c, err := repo.GetContact(context.Background(), "c-1")
	require.NoError(t, err)
	assert.Equal(t, "Ava Stone", c.FullName())
	assert.Equal(t, domain.LeadQualified, c.LeadStatus)
	assert.Equal(t, 72, c.LeadScore)
}

func TestGetContactNotFound(t *testing.T) {
	repo, mock, cleanup := setupRepoTest(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta("FROM contacts")).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetContact(context.Background(), "missing")
	assert.ErrorIs(t, err, lifecycle.ErrContactNotFound)
}

func TestGetActivitiesNewestFirst(t *testing.T) {
	repo, mock, cleanup := setupRepoTest(t)
	defer cleanup()

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "contact_id", "type", "subject", "created_at"}).
		AddRow("a-2", "c-1", "meeting", "demo recap", now).
		AddRow("a-1", "c-1", "email", "intro", now.Add(-48*time.Hour))

	mock.ExpectQuery(regexp.QuoteMeta("FROM activities")).
		WithArgs("c-1").
		WillReturnRows(rows)

	activities, err := repo.GetActivities(context.Background(), "c-1")
	require.NoError(t, err)
	require.Len(t, activities, 2)
	assert.Equal(t, domain.ActivityMeeting, activities[0].Type)
}

func TestUpdateContactScore(t *testing.T) {
	repo, mock, cleanup := setupRepoTest(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE contacts SET lead_score")).
		WithArgs(85, string(domain.LeadHot), "c-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateContactScore(context.Background(), "c-1", 85, domain.LeadHot)
	assert.NoError(t, err)
}

func TestUpdateContactScoreUnknownContact(t *testing.T) {
	repo, mock, cleanup := setupRepoTest(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE contacts SET lead_score")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateContactScore(context.Background(), "missing", 10, domain.LeadCold)
	assert.ErrorIs(t, err, lifecycle.ErrContactNotFound)
}
