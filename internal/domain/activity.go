package domain

import "time"

// ActivityType enumerates the kinds of recorded contact interactions.
type ActivityType string

const (
	ActivityCall     ActivityType = "call"
	ActivityEmail    ActivityType = "email"
	ActivityMeeting  ActivityType = "meeting"
	ActivityDemo     ActivityType = "demo"
	ActivityProposal ActivityType = "proposal"
	ActivityContract ActivityType = "contract"
	ActivityNote     ActivityType = "note"
	ActivityOther    ActivityType = "other"

	// ActivityEmailOpen is recorded by the tracking pixel when a contact
	// opens a campaign email.
	ActivityEmailOpen ActivityType = "email_open"
)

// Activity is an append-only interaction record. Immutable once created;
// the engine reads a time-ordered set per contact.
type Activity struct {
	ID        string       `json:"id" db:"id"`
	ContactID string       `json:"contact_id" db:"contact_id"`
	Type      ActivityType `json:"type" db:"type"`
	Subject   string       `json:"subject" db:"subject"`
	CreatedAt time.Time    `json:"created_at" db:"created_at"`
}
