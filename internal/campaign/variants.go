package campaign

import (
	"crypto/sha256"
	"encoding/binary"

	"github.com/hadrianfebri/CustomerRelationshipManager-sub000/internal/domain"
)

// SelectVariant deterministically assigns a contact to one of a step's
// weighted A/B variants. SHA-256(contactID + stepID) buckets the contact
// into 0..99; walking the cumulative weights gives a stable per-contact
// assignment whose population split matches the configured weights.
// Returns nil when the step has no variants.
func SelectVariant(contactID, stepID string, variants []domain.ContentVariant) *domain.ContentVariant {
	if len(variants) == 0 {
		return nil
	}

	hash := sha256.Sum256([]byte(contactID + stepID))
	bucket := int(binary.BigEndian.Uint64(hash[:8]) % 100)

	cumulative := 0
	for i := range variants {
		cumulative += variants[i].Weight
		if bucket < cumulative {
			return &variants[i]
		}
	}

	// Weights under 100 leave a tail; assign it to the last variant.
	return &variants[len(variants)-1]
}

// ValidateVariants checks that a step's variant weights sum to 100.
func ValidateVariants(variants []domain.ContentVariant) error {
	if len(variants) == 0 {
		return nil
	}
	sum := 0
	for _, v := range variants {
		sum += v.Weight
	}
	if sum != 100 {
		return ErrInvalidWeights
	}
	return nil
}
