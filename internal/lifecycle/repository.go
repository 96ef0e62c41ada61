package lifecycle

import (
	"context"

	"github.com/hadrianfebri/CustomerRelationshipManager-sub000/internal/domain"
)

// Repository is the record-store contract the lifecycle service reads
// contacts through and writes scores back through. Implementations must
// be safe for concurrent use; reads must not mutate.
type Repository interface {
	// GetContact returns a single contact. Returns ErrContactNotFound if
	// it doesn't exist.
	GetContact(ctx context.Context, id string) (*domain.Contact, error)

	// ListContactIDs returns the ids of all contacts, for bulk operations.
	ListContactIDs(ctx context.Context) ([]string, error)

	// GetActivities returns a contact's activities, newest first.
	GetActivities(ctx context.Context, contactID string) ([]domain.Activity, error)

	// GetDeals returns a contact's deals.
	GetDeals(ctx context.Context, contactID string) ([]domain.Deal, error)

	// UpdateContactScore persists the composite score and derived status.
	UpdateContactScore(ctx context.Context, id string, score int, status domain.LeadStatus) error
}
