package campaign

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/hadrianfebri/CustomerRelationshipManager-sub000/internal/domain"
)

// DynamicResolver computes a merge-tag value from the contact snapshot.
type DynamicResolver func(s Snapshot) string

// Personalizer resolves {{tag}} merge placeholders and conditional content
// blocks against a contact snapshot. Dynamic tags resolve through a named
// registry so new computed values can be added without touching the
// substitution loop.
type Personalizer struct {
	resolvers map[string]DynamicResolver
}

var tagPattern = regexp.MustCompile(`\{\{\s*([a-zA-Z0-9_.]+)\s*\}\}`)

// dynamicContentTag is the placeholder dynamic-content rules substitute into.
const dynamicContentTag = "dynamicContent"

// NewPersonalizer creates a personalizer with the built-in dynamic
// resolvers registered.
func NewPersonalizer() *Personalizer {
	p := &Personalizer{resolvers: make(map[string]DynamicResolver)}

	p.Register("first_name_or_friend", func(s Snapshot) string {
		if s.Contact.FirstName != "" {
			return s.Contact.FirstName
		}
		return "there"
	})
	p.Register("roi_estimate", func(s Snapshot) string {
		// Rough annualized savings pitch scaled by lead quality.
		base := 5000 + s.LeadScore*450
		return fmt.Sprintf("$%d", base)
	})
	p.Register("engagement_level", func(s Snapshot) string {
		switch {
		case s.LeadScore >= 80:
			return "highly engaged"
		case s.LeadScore >= 50:
			return "engaged"
		default:
			return "getting started"
		}
	})

	return p
}

// Register adds or replaces a named dynamic resolver.
func (p *Personalizer) Register(name string, r DynamicResolver) {
	p.resolvers[name] = r
}

// Personalize resolves every merge tag in the content's subject and body.
// Resolution never fails: unknown tags render as a visibly bracketed
// [[tag]] placeholder and unknown dynamic names pass through symbolically,
// so malformed content is detectable but non-fatal.
func (p *Personalizer) Personalize(content domain.CampaignContent, s Snapshot, rules domain.PersonalizationRules) domain.CampaignContent {
	out := content
	out.Subject = p.resolve(content.Subject, s, rules)
	out.Body = p.resolve(content.Body, s, rules)
	return out
}

func (p *Personalizer) resolve(text string, s Snapshot, rules domain.PersonalizationRules) string {
	if text == "" {
		return ""
	}

	return tagPattern.ReplaceAllStringFunc(text, func(match string) string {
		tag := strings.TrimSpace(match[2 : len(match)-2])

		if tag == dynamicContentTag {
			return p.dynamicContent(s, rules.DynamicContent)
		}

		if src, ok := rules.MergeTags[tag]; ok {
			switch src.Type {
			case domain.MergeTagLiteral:
				return src.Value
			case domain.MergeTagField:
				v, _ := s.Field(src.Value)
				return v
			case domain.MergeTagDynamic:
				if r, ok := p.resolvers[src.Value]; ok {
					return r(s)
				}
				return src.Value
			}
		}

		// Bare contact/engagement field names work without an explicit rule.
		if v, ok := s.Field(tag); ok {
			return v
		}

		return "[[" + tag + "]]"
	})
}

// dynamicContent picks the first rule whose condition holds; if none hold,
// the first rule's fallback is used.
func (p *Personalizer) dynamicContent(s Snapshot, rules []domain.DynamicContentRule) string {
	if len(rules) == 0 {
		return ""
	}
	for _, r := range rules {
		if evalCondition(s, r.Condition) {
			return r.Content
		}
	}
	return rules[0].Fallback
}
