// Package scoring computes a deterministic composite lead score from
// profile fit, behavioral engagement, and pipeline signals, and derives
// prioritized follow-up triggers from it.
//
// Everything here is a pure function of its inputs plus the injected clock:
// no I/O, no side effects. Missing optional fields (company, position,
// source) degrade to their lowest band, never to an error.
package scoring

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/hadrianfebri/CustomerRelationshipManager-sub000/internal/domain"
	"github.com/hadrianfebri/CustomerRelationshipManager-sub000/internal/pkg/clock"
)

// Engine scores contacts. Safe for concurrent use; it holds no mutable state.
type Engine struct {
	cfg Config
	clk clock.Clock
}

// NewEngine creates a scoring engine with the given tuning and clock.
func NewEngine(cfg Config, clk clock.Clock) *Engine {
	if clk == nil {
		clk = clock.Real{}
	}
	return &Engine{cfg: cfg, clk: clk}
}

// Score computes the composite lead score plus reasoning, recommendations,
// and automation triggers for a contact.
func (e *Engine) Score(contact domain.Contact, activities []domain.Activity, deals []domain.Deal) domain.LeadScoringResult {
	fit := e.fitScore(contact)
	engagement := e.engagementScore(activities)
	dealPotential := e.dealPotentialScore(deals)

	w := e.cfg.Weights
	composite := int(math.Round(float64(fit)*w.Fit + float64(engagement)*w.Engagement + float64(dealPotential)*w.DealPotential))
	composite = clamp(composite, 0, 100)

	reasoning := fmt.Sprintf(
		"Lead score %d/100 — fit %d (weight %.0f%%), engagement %d (weight %.0f%%), deal potential %d (weight %.0f%%)",
		composite, fit, w.Fit*100, engagement, w.Engagement*100, dealPotential, w.DealPotential*100)

	return domain.LeadScoringResult{
		Score:           composite,
		Reasoning:       reasoning,
		Recommendations: e.recommendations(composite, contact, activities),
		Triggers:        e.GenerateTriggers(composite, contact, activities),
	}
}

// fitScore is the static-profile component: company, role, source, status.
// Each heuristic is independently capped; the sum is clamped to 100.
func (e *Engine) fitScore(c domain.Contact) int {
	f := e.cfg.Fit
	score := 0

	company := strings.ToLower(c.Company)
	switch {
	case company == "":
		score += f.CompanyMissing
	case containsAny(company, f.EnterpriseKeywords):
		score += f.CompanyEnterprise
	case containsAny(company, f.StartupKeywords):
		score += f.CompanyStartup
	case containsAny(company, f.SmallBizKeywords):
		score += f.CompanySmallBiz
	default:
		score += f.CompanyOther
	}

	position := strings.ToLower(c.Position)
	switch {
	case position == "":
		score += f.PositionMissing
	case containsAny(position, []string{"ceo", "cto", "cfo", "coo", "cmo", "chief", "founder", "president", "owner"}):
		score += f.PositionCLevel
	case containsAny(position, []string{"vp", "vice president", "director"}):
		score += f.PositionVP
	case containsAny(position, []string{"manager", "head", "lead"}):
		score += f.PositionManager
	default:
		score += f.PositionIC
	}

	source := strings.ToLower(c.Source)
	switch {
	case source == "":
		// no source signal at all
	case strings.Contains(source, "referral"):
		score += f.SourceReferral
	case strings.Contains(source, "organic") || strings.Contains(source, "website"):
		score += f.SourceOrganic
	case strings.Contains(source, "content") || strings.Contains(source, "webinar"):
		score += f.SourceContent
	case strings.Contains(source, "social"):
		score += f.SourceSocial
	default:
		score += f.SourcePaid
	}

	score += f.StatusBonus[string(c.LeadStatus)]

	return clamp(score, 0, 100)
}

// engagementScore is the behavioral component: frequency, type quality,
// recency, and consistency of activities.
func (e *Engine) engagementScore(activities []domain.Activity) int {
	eg := e.cfg.Engagement
	if len(activities) == 0 {
		return eg.NoActivityBaseline
	}

	now := e.clk.Now()

	var in7, in30, in90 int
	for _, a := range activities {
		age := now.Sub(a.CreatedAt)
		if age <= 7*24*time.Hour {
			in7++
		}
		if age <= 30*24*time.Hour {
			in30++
		}
		if age <= 90*24*time.Hour {
			in90++
		}
	}

	// First matching band from the tightest window outward.
	score := 0
	switch {
	case in7 >= eg.FreqHighBar:
		score = eg.Freq7High
	case in7 >= 1:
		score = eg.Freq7Any
	case in30 >= eg.FreqHighBar:
		score = eg.Freq30High
	case in30 >= 1:
		score = eg.Freq30Any
	case in90 >= eg.FreqHighBar:
		score = eg.Freq90High
	case in90 >= 1:
		score = eg.Freq90Any
	}

	typeQuality := 0
	for _, a := range activities {
		typeQuality += eg.TypeWeights[string(a.Type)]
	}
	if typeQuality > eg.TypeCap {
		typeQuality = eg.TypeCap
	}
	score += typeQuality

	last := mostRecent(activities)
	daysSince := now.Sub(last).Hours() / 24
	switch {
	case daysSince <= 1:
		score += eg.Recency1
	case daysSince <= 3:
		score += eg.Recency3
	case daysSince <= 7:
		score += eg.Recency7
	case daysSince <= 14:
		score += eg.Recency14
	case daysSince <= 30:
		score += eg.Recency30
	}

	if len(activities) >= 3 {
		score += e.consistencyBonus(activities)
	}

	return clamp(score, 0, 100)
}

// consistencyBonus rewards a steady cadence: the mean gap between
// consecutive activity timestamps, with ≥3 activities.
func (e *Engine) consistencyBonus(activities []domain.Activity) int {
	eg := e.cfg.Engagement

	times := make([]time.Time, len(activities))
	for i, a := range activities {
		times[i] = a.CreatedAt
	}
	sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })

	var total time.Duration
	for i := 1; i < len(times); i++ {
		total += times[i].Sub(times[i-1])
	}
	meanGapDays := total.Hours() / 24 / float64(len(times)-1)

	switch {
	case meanGapDays <= 3:
		return eg.ConsistencyTight
	case meanGapDays <= 7:
		return eg.ConsistencySteady
	case meanGapDays <= 14:
		return eg.ConsistencyLoose
	}
	return 0
}

// dealPotentialScore is the pipeline component: per-deal value tier, stage
// progress, and probability-weighted contribution, averaged across deals
// with a multi-deal bonus.
func (e *Engine) dealPotentialScore(deals []domain.Deal) int {
	d := e.cfg.Deals
	if len(deals) == 0 {
		return d.NoDealBaseline
	}

	total := 0.0
	for _, deal := range deals {
		per := 0.0
		for _, tier := range d.ValueTiers {
			if deal.Value >= tier.MinValue {
				per += float64(tier.Score)
				break
			}
		}
		per += float64(d.StageScore[string(deal.Stage)])
		per += float64(deal.Probability) / 100 * d.ProbabilityWeight
		total += per
	}

	avg := total / float64(len(deals))
	bonus := (len(deals) - 1) * d.MultiDealBonus
	if bonus > d.MultiDealCap {
		bonus = d.MultiDealCap
	}

	return clamp(int(math.Round(avg))+bonus, 0, 100)
}

// recommendations returns up to MaxRecommendations next-step suggestions
// ordered by priority: the score band first, then conditional additions.
func (e *Engine) recommendations(score int, contact domain.Contact, activities []domain.Activity) []string {
	var recs []string

	switch {
	case score >= 85:
		recs = append(recs,
			"Hot lead: call within the hour and involve an account executive",
			"Prepare a tailored proposal before the first call")
	case score >= 70:
		recs = append(recs,
			"Schedule a product demo this week",
			"Send pricing and case studies relevant to their industry")
	case score >= 55:
		recs = append(recs,
			"Book a discovery call to qualify budget and timeline")
	case score >= 40:
		recs = append(recs,
			"Enroll in the nurture sequence and monitor engagement")
	case score >= 25:
		recs = append(recs,
			"Send educational content to build awareness")
	default:
		recs = append(recs,
			"Cold lead: keep on the low-touch drip and re-score next month")
	}

	now := e.clk.Now()
	if len(activities) == 0 || now.Sub(mostRecent(activities)) > time.Duration(e.cfg.StaleActivityDays)*24*time.Hour {
		recs = append(recs, "No recent activity: send a re-engagement email")
	}
	if contact.Company == "" {
		recs = append(recs, "Profile gap: company is missing, enrich before outreach")
	}
	if contact.Position == "" {
		recs = append(recs, "Profile gap: position is missing, confirm the buying role")
	}
	if contact.Phone == "" {
		recs = append(recs, "Profile gap: no phone number on record")
	}

	if len(recs) > e.cfg.MaxRecommendations {
		recs = recs[:e.cfg.MaxRecommendations]
	}
	return recs
}

func mostRecent(activities []domain.Activity) time.Time {
	var latest time.Time
	for _, a := range activities {
		if a.CreatedAt.After(latest) {
			latest = a.CreatedAt
		}
	}
	return latest
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
