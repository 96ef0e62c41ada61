package campaign

import (
	"crypto/md5"
	"fmt"
	"strings"
	"sync"

	"github.com/osteele/liquid"
)

// TemplateService renders rich content previews with the Liquid template
// language. Merge-tag substitution (personalizer.go) stays regex-based so
// its failure mode is the visible placeholder; Liquid is for the editor
// preview surface and layout filters on top of already-personalized text.
type TemplateService struct {
	engine *liquid.Engine
	cache  sync.Map // md5(source) -> *liquid.Template
}

// NewTemplateService creates a template service with the CRM filters
// registered.
func NewTemplateService() *TemplateService {
	ts := &TemplateService{engine: liquid.NewEngine()}
	ts.registerFilters()
	return ts
}

func (ts *TemplateService) registerFilters() {
	// {{ first_name | default: "there" }}
	ts.engine.RegisterFilter("default", func(value interface{}, defaultVal string) interface{} {
		if value == nil {
			return defaultVal
		}
		s := fmt.Sprintf("%v", value)
		if s == "" || s == "<nil>" {
			return defaultVal
		}
		return value
	})

	// {{ name | capitalize }}
	ts.engine.RegisterFilter("capitalize", func(s string) string {
		if len(s) == 0 {
			return s
		}
		return strings.ToUpper(string(s[0])) + strings.ToLower(s[1:])
	})

	// {{ company | titlecase }}
	ts.engine.RegisterFilter("titlecase", func(s string) string {
		return strings.Title(strings.ToLower(s))
	})

	// {{ pitch | truncate: 120 }}
	ts.engine.RegisterFilter("truncate", func(s string, length int) string {
		if len(s) <= length {
			return s
		}
		if length <= 3 {
			return s[:length]
		}
		return s[:length-3] + "..."
	})

	// {{ deal_value | currency }}
	ts.engine.RegisterFilter("currency", func(v float64) string {
		return fmt.Sprintf("$%.2f", v)
	})
}

// Render parses (with caching) and renders a Liquid template against the
// given bindings.
func (ts *TemplateService) Render(source string, bindings map[string]interface{}) (string, error) {
	key := fmt.Sprintf("%x", md5.Sum([]byte(source)))

	var tmpl *liquid.Template
	if cached, ok := ts.cache.Load(key); ok {
		tmpl = cached.(*liquid.Template)
	} else {
		parsed, err := ts.engine.ParseString(source)
		if err != nil {
			return "", fmt.Errorf("parse template: %w", err)
		}
		ts.cache.Store(key, parsed)
		tmpl = parsed
	}

	out, err := tmpl.RenderString(bindings)
	if err != nil {
		return "", fmt.Errorf("render template: %w", err)
	}
	return out, nil
}

// PreviewBindings flattens a snapshot into the variables the preview
// templates see.
func PreviewBindings(s Snapshot) map[string]interface{} {
	return map[string]interface{}{
		"first_name":  s.Contact.FirstName,
		"last_name":   s.Contact.LastName,
		"name":        s.Contact.FullName(),
		"email":       s.Contact.Email,
		"company":     s.Contact.Company,
		"position":    s.Contact.Position,
		"lead_score":  s.LeadScore,
		"lead_status": string(s.Contact.LeadStatus),
		"deal_stage":  s.DealStage,
	}
}
