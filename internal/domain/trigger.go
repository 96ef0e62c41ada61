package domain

// TriggerType enumerates the action channels a trigger can request.
type TriggerType string

const (
	TriggerEmail    TriggerType = "email"
	TriggerSMS      TriggerType = "sms"
	TriggerWhatsApp TriggerType = "whatsapp"
	TriggerTask     TriggerType = "task"
	TriggerAlert    TriggerType = "alert"
)

// TriggerPriority orders triggers for downstream consumers.
type TriggerPriority string

const (
	PriorityHigh   TriggerPriority = "high"
	PriorityMedium TriggerPriority = "medium"
	PriorityLow    TriggerPriority = "low"
)

// AutomationTrigger is a unit of intended action emitted by the trigger
// generator. Consumed by a dispatcher or by the campaign sequencer as a
// sequence-entry condition.
type AutomationTrigger struct {
	Type         TriggerType     `json:"type"`
	Priority     TriggerPriority `json:"priority"`
	DelayMinutes int             `json:"delay_minutes"`
	Content      string          `json:"content"`
	AssignedTo   string          `json:"assigned_to,omitempty"`
}

// LeadScoringResult is the ephemeral output of a scoring run. Only the
// composite score is persisted (on the contact record).
type LeadScoringResult struct {
	Score           int                 `json:"score"`
	Reasoning       string              `json:"reasoning"`
	Recommendations []string            `json:"recommendations"`
	Triggers        []AutomationTrigger `json:"triggers"`
}
