package domain

import "time"

// DealStage enumerates the pipeline stages of a deal.
type DealStage string

const (
	StageProspecting   DealStage = "prospecting"
	StageQualification DealStage = "qualification"
	StageProposal      DealStage = "proposal"
	StageNegotiation   DealStage = "negotiation"
	StageClosedWon     DealStage = "closed-won"
	StageClosedLost    DealStage = "closed-lost"
)

// Deal is a pipeline opportunity attached to a contact. Mutated by
// sales-stage transitions; the engine reads a snapshot.
type Deal struct {
	ID          string    `json:"id" db:"id"`
	ContactID   string    `json:"contact_id" db:"contact_id"`
	Title       string    `json:"title" db:"title"`
	Value       float64   `json:"value" db:"value"`
	Stage       DealStage `json:"stage" db:"stage"`
	Probability int       `json:"probability" db:"probability"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// IsOpen returns true if the deal has not reached a terminal stage.
func (d Deal) IsOpen() bool {
	return d.Stage != StageClosedWon && d.Stage != StageClosedLost
}
