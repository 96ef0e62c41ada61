package scoring

import (
	"strconv"
	"time"

	"github.com/hadrianfebri/CustomerRelationshipManager-sub000/internal/domain"
)

// reEngagementAfter is how long a contact may go quiet before a
// re-engagement email trigger is appended regardless of score band.
const reEngagementAfter = 7 * 24 * time.Hour

// GenerateTriggers derives the ordered follow-up actions for a score band.
// Triggers are additive and never deduplicated here; downstream consumers
// coalesce duplicate channel/priority pairs if they want to.
func (e *Engine) GenerateTriggers(score int, contact domain.Contact, activities []domain.Activity) []domain.AutomationTrigger {
	var triggers []domain.AutomationTrigger

	name := contact.FullName()
	if name == "" {
		name = contact.Email
	}

	switch {
	case score >= 80:
		triggers = append(triggers,
			domain.AutomationTrigger{
				Type:         domain.TriggerAlert,
				Priority:     domain.PriorityHigh,
				DelayMinutes: 0,
				Content:      "Hot lead " + name + " scored " + strconv.Itoa(score) + " — immediate attention required",
			},
			domain.AutomationTrigger{
				Type:         domain.TriggerTask,
				Priority:     domain.PriorityHigh,
				DelayMinutes: 5,
				Content:      "Call " + name + " while the lead is hot",
			},
			domain.AutomationTrigger{
				Type:         domain.TriggerEmail,
				Priority:     domain.PriorityHigh,
				DelayMinutes: 15,
				Content:      "Send the executive briefing pack to " + name,
			},
		)
	case score >= 60:
		triggers = append(triggers,
			domain.AutomationTrigger{
				Type:         domain.TriggerTask,
				Priority:     domain.PriorityMedium,
				DelayMinutes: 30,
				Content:      "Qualify " + name + " with a discovery call",
			},
			domain.AutomationTrigger{
				Type:         domain.TriggerEmail,
				Priority:     domain.PriorityMedium,
				DelayMinutes: 60,
				Content:      "Send demo invitation to " + name,
			},
		)
	case score >= 40:
		triggers = append(triggers,
			domain.AutomationTrigger{
				Type:         domain.TriggerEmail,
				Priority:     domain.PriorityMedium,
				DelayMinutes: 120,
				Content:      "Send nurture content to " + name,
			},
			domain.AutomationTrigger{
				Type:         domain.TriggerTask,
				Priority:     domain.PriorityLow,
				DelayMinutes: 1440,
				Content:      "Review " + name + " for nurture-sequence fit",
			},
		)
	case score >= 20:
		triggers = append(triggers,
			domain.AutomationTrigger{
				Type:         domain.TriggerEmail,
				Priority:     domain.PriorityLow,
				DelayMinutes: 240,
				Content:      "Send introductory content to " + name,
			},
		)
	}

	// Independent of the score band: quiet contacts get a re-engagement
	// nudge.
	if len(activities) == 0 || e.clk.Now().Sub(mostRecent(activities)) > reEngagementAfter {
		triggers = append(triggers, domain.AutomationTrigger{
			Type:         domain.TriggerEmail,
			Priority:     domain.PriorityMedium,
			DelayMinutes: 60,
			Content:      "Re-engage " + name + " — no activity in over a week",
		})
	}

	return triggers
}
