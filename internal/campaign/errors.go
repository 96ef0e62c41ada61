package campaign

import "errors"

// Sentinel errors for the campaign sequencing layer.
var (
	ErrSequenceNotFound = errors.New("sequence not found")
	ErrSequenceInactive = errors.New("sequence is not active")
	ErrAlreadyEnrolled  = errors.New("contact is already enrolled in sequence")
	ErrInvalidWeights   = errors.New("variant weights must sum to 100")
)
