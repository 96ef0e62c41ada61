package domain

import "time"

// Channel enumerates the delivery channels a campaign step can use.
type Channel string

const (
	ChannelEmail    Channel = "email"
	ChannelSMS      Channel = "sms"
	ChannelWhatsApp Channel = "whatsapp"
	ChannelPush     Channel = "push"
	ChannelTask     Channel = "task"
	ChannelAlert    Channel = "alert"
)

// SequenceStatus enumerates the lifecycle states of a campaign sequence.
type SequenceStatus string

const (
	SequenceActive SequenceStatus = "active"
	SequencePaused SequenceStatus = "paused"
	SequenceDraft  SequenceStatus = "draft"
)

// CampaignTriggerType enumerates the events that can enroll a contact.
type CampaignTriggerType string

const (
	TriggerScoreChange       CampaignTriggerType = "lead_score_change"
	TriggerActivityCompleted CampaignTriggerType = "activity_completed"
	TriggerStageChange       CampaignTriggerType = "stage_change"
	TriggerTimeBased         CampaignTriggerType = "time_based"
)

// ConditionOperator enumerates field-comparison operators.
type ConditionOperator string

const (
	OpEquals      ConditionOperator = "equals"
	OpNotEquals   ConditionOperator = "not_equals"
	OpGreaterThan ConditionOperator = "greater_than"
	OpLessThan    ConditionOperator = "less_than"
	OpContains    ConditionOperator = "contains"
)

// FieldCondition is a single field comparison. Conditions on a trigger or
// step are evaluated as a conjunction.
type FieldCondition struct {
	Field    string            `json:"field"`
	Operator ConditionOperator `json:"operator"`
	Value    string            `json:"value"`
}

// CampaignTrigger describes when a contact enters a sequence.
type CampaignTrigger struct {
	Type       CampaignTriggerType `json:"type"`
	Conditions []FieldCondition    `json:"conditions,omitempty"`
}

// ContentVariant is one weighted A/B variant of a step's content.
// Weights across a step's variants must sum to 100.
type ContentVariant struct {
	ID      string `json:"id"`
	Subject string `json:"subject,omitempty"`
	Body    string `json:"body"`
	Weight  int    `json:"weight"`
}

// CampaignContent is a step's template content with optional A/B variants.
// Subject and Body may contain {{tag}} merge placeholders.
type CampaignContent struct {
	Subject  string           `json:"subject,omitempty"`
	Body     string           `json:"body"`
	Variants []ContentVariant `json:"variants,omitempty"`
}

// CampaignStep is one timed stage of a sequence. Immutable once the
// sequence is active.
type CampaignStep struct {
	ID                   string           `json:"id"`
	Sequence             int              `json:"sequence"`
	Channel              Channel          `json:"channel"`
	DelayMinutes         int              `json:"delay_minutes"`
	Content              CampaignContent  `json:"content"`
	SendTimeOptimization bool             `json:"send_time_optimization"`
	Conditions           []FieldCondition `json:"conditions,omitempty"`
}

// MergeTagSourceType enumerates how a merge tag resolves.
type MergeTagSourceType string

const (
	MergeTagLiteral MergeTagSourceType = "literal"
	MergeTagField   MergeTagSourceType = "field"
	MergeTagDynamic MergeTagSourceType = "dynamic"
)

// MergeTagSource maps a merge-tag name to its resolution source.
type MergeTagSource struct {
	Type  MergeTagSourceType `json:"type"`
	Value string             `json:"value"`
}

// DynamicContentRule substitutes conditional content for the
// {{dynamicContent}} placeholder.
type DynamicContentRule struct {
	Condition FieldCondition `json:"condition"`
	Content   string         `json:"content"`
	Fallback  string         `json:"fallback"`
}

// SendTimeConfig controls send-time optimization for a contact.
type SendTimeConfig struct {
	Enabled            bool           `json:"enabled"`
	Timezone           string         `json:"timezone"`
	PreferredStartHour int            `json:"preferred_start_hour"`
	PreferredEndHour   int            `json:"preferred_end_hour"`
	ExcludeDays        []time.Weekday `json:"exclude_days,omitempty"`
}

// PersonalizationRules is a sequence's merge-tag mapping, dynamic-content
// rules, and send-time config.
type PersonalizationRules struct {
	MergeTags      map[string]MergeTagSource `json:"merge_tags,omitempty"`
	DynamicContent []DynamicContentRule      `json:"dynamic_content,omitempty"`
	SendTime       SendTimeConfig            `json:"send_time"`
}

// CampaignSequence is an ordered, multi-channel campaign definition.
// The engine only reads active sequences and advances per-contact cursors.
type CampaignSequence struct {
	ID              string               `json:"id"`
	Name            string               `json:"name"`
	Channels        []Channel            `json:"channels"`
	Triggers        []CampaignTrigger    `json:"triggers"`
	Steps           []CampaignStep       `json:"steps"`
	Personalization PersonalizationRules `json:"personalization"`
	Status          SequenceStatus       `json:"status"`
	CreatedAt       time.Time            `json:"created_at"`
	UpdatedAt       time.Time            `json:"updated_at"`
}

// IsActive reports whether steps may dispatch right now.
func (s CampaignSequence) IsActive() bool { return s.Status == SequenceActive }

// EnrollmentStatus enumerates the per-(contact,sequence) cursor states.
type EnrollmentStatus string

const (
	EnrollmentActive    EnrollmentStatus = "active"
	EnrollmentCompleted EnrollmentStatus = "completed"
	EnrollmentExited    EnrollmentStatus = "exited"
)

// Enrollment is a contact's cursor through a sequence.
type Enrollment struct {
	ID          string           `json:"id"`
	SequenceID  string           `json:"sequence_id"`
	ContactID   string           `json:"contact_id"`
	CurrentStep int              `json:"current_step"`
	Status      EnrollmentStatus `json:"status"`
	NextRunAt   *time.Time       `json:"next_run_at"`
	EnteredAt   time.Time        `json:"entered_at"`
	CompletedAt *time.Time       `json:"completed_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}
