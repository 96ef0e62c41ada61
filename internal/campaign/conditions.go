package campaign

import (
	"strconv"
	"strings"

	"github.com/hadrianfebri/CustomerRelationshipManager-sub000/internal/domain"
)

// Snapshot is the live contact/engagement view conditions are evaluated
// against at a step's scheduled time.
type Snapshot struct {
	Contact               domain.Contact `json:"contact"`
	LeadScore             int            `json:"lead_score"`
	DaysSinceLastActivity int            `json:"days_since_last_activity"`
	LastActivityType      string         `json:"last_activity_type"`
	DealStage             string         `json:"deal_stage"`
	EmailOpened           bool           `json:"email_opened"`
}

// Field resolves a condition/merge field name against the snapshot.
// Contact fields take precedence; engagement fields extend them.
func (s Snapshot) Field(name string) (string, bool) {
	if v, ok := s.Contact.Field(name); ok {
		return v, true
	}
	switch strings.ToLower(name) {
	case "lead_score", "score":
		return strconv.Itoa(s.LeadScore), true
	case "days_since_last_activity":
		return strconv.Itoa(s.DaysSinceLastActivity), true
	case "last_activity_type":
		return s.LastActivityType, true
	case "deal_stage", "stage":
		return s.DealStage, true
	case "email_opened":
		return strconv.FormatBool(s.EmailOpened), true
	default:
		return "", false
	}
}

// evalCondition applies one field comparison. Unknown fields fail the
// comparison rather than erroring; a step that references a field the
// snapshot can't provide simply doesn't dispatch.
func evalCondition(s Snapshot, c domain.FieldCondition) bool {
	actual, ok := s.Field(c.Field)
	if !ok {
		return false
	}

	switch c.Operator {
	case domain.OpEquals:
		return strings.EqualFold(actual, c.Value)
	case domain.OpNotEquals:
		return !strings.EqualFold(actual, c.Value)
	case domain.OpContains:
		return strings.Contains(strings.ToLower(actual), strings.ToLower(c.Value))
	case domain.OpGreaterThan, domain.OpLessThan:
		a, err1 := strconv.ParseFloat(actual, 64)
		b, err2 := strconv.ParseFloat(c.Value, 64)
		if err1 != nil || err2 != nil {
			return false
		}
		if c.Operator == domain.OpGreaterThan {
			return a > b
		}
		return a < b
	default:
		return false
	}
}

// evalAll applies conditions as a conjunction. An empty list holds.
func evalAll(s Snapshot, conditions []domain.FieldCondition) bool {
	for _, c := range conditions {
		if !evalCondition(s, c) {
			return false
		}
	}
	return true
}
