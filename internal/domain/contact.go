package domain

import (
	"strings"
	"time"
)

// LeadStatus enumerates the lifecycle states of a sales contact.
type LeadStatus string

const (
	LeadNew       LeadStatus = "new"
	LeadContacted LeadStatus = "contacted"
	LeadQualified LeadStatus = "qualified"
	LeadWarm      LeadStatus = "warm"
	LeadHot       LeadStatus = "hot"
	LeadCold      LeadStatus = "cold"
)

// Contact represents a CRM contact record. The engine only writes LeadScore
// and LeadStatus; everything else is owned by the record store.
type Contact struct {
	ID         string     `json:"id" db:"id"`
	FirstName  string     `json:"first_name" db:"first_name"`
	LastName   string     `json:"last_name" db:"last_name"`
	Email      string     `json:"email" db:"email"`
	Phone      string     `json:"phone" db:"phone"`
	Company    string     `json:"company" db:"company"`
	Position   string     `json:"position" db:"position"`
	Source     string     `json:"source" db:"source"`
	LeadStatus LeadStatus `json:"lead_status" db:"lead_status"`
	LeadScore  int        `json:"lead_score" db:"lead_score"`
	Timezone   string     `json:"timezone" db:"timezone"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at" db:"updated_at"`
}

// FullName returns the contact's display name.
func (c Contact) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// Field resolves a contact field by its merge-tag / condition name.
// Returns ok=false for names this type does not expose.
func (c Contact) Field(name string) (string, bool) {
	switch strings.ToLower(name) {
	case "first_name", "firstname":
		return c.FirstName, true
	case "last_name", "lastname":
		return c.LastName, true
	case "name", "full_name":
		return c.FullName(), true
	case "email":
		return c.Email, true
	case "phone":
		return c.Phone, true
	case "company":
		return c.Company, true
	case "position":
		return c.Position, true
	case "source":
		return c.Source, true
	case "lead_status", "status":
		return string(c.LeadStatus), true
	default:
		return "", false
	}
}
