package scoring

// The band thresholds and point values below are empirically tuned business
// constants, not architecture. They live in Config (overridable from
// config.yaml) instead of literals so sales ops can retune them without a
// code change.

// Weights are the composite blend across the three sub-scores.
type Weights struct {
	Fit           float64 `yaml:"fit" json:"fit"`
	Engagement    float64 `yaml:"engagement" json:"engagement"`
	DealPotential float64 `yaml:"deal_potential" json:"deal_potential"`
}

// FitConfig holds the static-profile heuristic bands.
type FitConfig struct {
	EnterpriseKeywords []string `yaml:"enterprise_keywords" json:"enterprise_keywords"`
	StartupKeywords    []string `yaml:"startup_keywords" json:"startup_keywords"`
	SmallBizKeywords   []string `yaml:"smallbiz_keywords" json:"smallbiz_keywords"`

	CompanyEnterprise int `yaml:"company_enterprise" json:"company_enterprise"`
	CompanyStartup    int `yaml:"company_startup" json:"company_startup"`
	CompanySmallBiz   int `yaml:"company_smallbiz" json:"company_smallbiz"`
	CompanyOther      int `yaml:"company_other" json:"company_other"`
	CompanyMissing    int `yaml:"company_missing" json:"company_missing"`

	PositionCLevel  int `yaml:"position_c_level" json:"position_c_level"`
	PositionVP      int `yaml:"position_vp" json:"position_vp"`
	PositionManager int `yaml:"position_manager" json:"position_manager"`
	PositionIC      int `yaml:"position_ic" json:"position_ic"`
	PositionMissing int `yaml:"position_missing" json:"position_missing"`

	SourceReferral int `yaml:"source_referral" json:"source_referral"`
	SourceOrganic  int `yaml:"source_organic" json:"source_organic"`
	SourceContent  int `yaml:"source_content" json:"source_content"`
	SourceSocial   int `yaml:"source_social" json:"source_social"`
	SourcePaid     int `yaml:"source_paid" json:"source_paid"`

	StatusBonus map[string]int `yaml:"status_bonus" json:"status_bonus"`
}

// EngagementConfig holds the behavioral heuristic bands.
type EngagementConfig struct {
	// Frequency bands, evaluated from the tightest window outward;
	// the first matching band wins.
	Freq7High    int `yaml:"freq_7_high" json:"freq_7_high"`   // ≥5 in 7 days
	Freq7Any     int `yaml:"freq_7_any" json:"freq_7_any"`     // ≥1 in 7 days
	Freq30High   int `yaml:"freq_30_high" json:"freq_30_high"` // ≥5 in 30 days
	Freq30Any    int `yaml:"freq_30_any" json:"freq_30_any"`   // ≥1 in 30 days
	Freq90High   int `yaml:"freq_90_high" json:"freq_90_high"` // ≥5 in 90 days
	Freq90Any    int `yaml:"freq_90_any" json:"freq_90_any"`   // ≥1 in 90 days
	FreqHighBar  int `yaml:"freq_high_bar" json:"freq_high_bar"`

	TypeWeights map[string]int `yaml:"type_weights" json:"type_weights"`
	TypeCap     int            `yaml:"type_cap" json:"type_cap"`

	// Recency bonus tiers keyed by days since the last activity.
	Recency1  int `yaml:"recency_1" json:"recency_1"`
	Recency3  int `yaml:"recency_3" json:"recency_3"`
	Recency7  int `yaml:"recency_7" json:"recency_7"`
	Recency14 int `yaml:"recency_14" json:"recency_14"`
	Recency30 int `yaml:"recency_30" json:"recency_30"`

	// Consistency bonus tiers keyed by the mean gap (days) between
	// consecutive activities; needs ≥3 activities.
	ConsistencyTight  int `yaml:"consistency_tight" json:"consistency_tight"`   // mean gap ≤3d
	ConsistencySteady int `yaml:"consistency_steady" json:"consistency_steady"` // ≤7d
	ConsistencyLoose  int `yaml:"consistency_loose" json:"consistency_loose"`   // ≤14d

	NoActivityBaseline int `yaml:"no_activity_baseline" json:"no_activity_baseline"`
}

// DealConfig holds the pipeline heuristic bands.
type DealConfig struct {
	ValueTiers []ValueTier    `yaml:"value_tiers" json:"value_tiers"`
	StageScore map[string]int `yaml:"stage_score" json:"stage_score"`

	ProbabilityWeight float64 `yaml:"probability_weight" json:"probability_weight"`
	MultiDealBonus    int     `yaml:"multi_deal_bonus" json:"multi_deal_bonus"`
	MultiDealCap      int     `yaml:"multi_deal_cap" json:"multi_deal_cap"`
	NoDealBaseline    int     `yaml:"no_deal_baseline" json:"no_deal_baseline"`
}

// ValueTier maps a minimum deal value to a tier score.
type ValueTier struct {
	MinValue float64 `yaml:"min_value" json:"min_value"`
	Score    int     `yaml:"score" json:"score"`
}

// Config holds every tunable constant of the scoring engine.
type Config struct {
	Weights    Weights          `yaml:"weights" json:"weights"`
	Fit        FitConfig        `yaml:"fit" json:"fit"`
	Engagement EngagementConfig `yaml:"engagement" json:"engagement"`
	Deals      DealConfig       `yaml:"deals" json:"deals"`

	StaleActivityDays  int `yaml:"stale_activity_days" json:"stale_activity_days"`
	MaxRecommendations int `yaml:"max_recommendations" json:"max_recommendations"`
}

// DefaultConfig returns the reference tuning.
func DefaultConfig() Config {
	return Config{
		Weights: Weights{Fit: 0.4, Engagement: 0.4, DealPotential: 0.2},
		Fit: FitConfig{
			EnterpriseKeywords: []string{"corp", "corporation", "inc", "enterprise", "group", "global", "holdings", "international"},
			StartupKeywords:    []string{"startup", "labs", "tech", "digital", "ventures", "io"},
			SmallBizKeywords:   []string{"llc", "ltd", "gmbh", "bv", "co"},

			CompanyEnterprise: 30,
			CompanyStartup:    18,
			CompanySmallBiz:   12,
			CompanyOther:      8,
			CompanyMissing:    5,

			PositionCLevel:  35,
			PositionVP:      25,
			PositionManager: 15,
			PositionIC:      8,
			PositionMissing: 5,

			SourceReferral: 25,
			SourceOrganic:  18,
			SourceContent:  14,
			SourceSocial:   10,
			SourcePaid:     8,

			StatusBonus: map[string]int{
				"new":       3,
				"contacted": 5,
				"qualified": 10,
				"warm":      7,
				"hot":       10,
				"cold":      3,
			},
		},
		Engagement: EngagementConfig{
			Freq7High:   40,
			Freq7Any:    30,
			Freq30High:  25,
			Freq30Any:   20,
			Freq90High:  15,
			Freq90Any:   10,
			FreqHighBar: 5,

			TypeWeights: map[string]int{
				"meeting":  15,
				"contract": 15,
				"demo":     12,
				"proposal": 10,
				"call":     8,
				"email":    6,
				"note":     2,
				"other":    1,
			},
			TypeCap: 30,

			Recency1:  20,
			Recency3:  15,
			Recency7:  10,
			Recency14: 5,
			Recency30: 2,

			ConsistencyTight:  10,
			ConsistencySteady: 7,
			ConsistencyLoose:  4,

			NoActivityBaseline: 10,
		},
		Deals: DealConfig{
			ValueTiers: []ValueTier{
				{MinValue: 100000, Score: 40},
				{MinValue: 50000, Score: 30},
				{MinValue: 25000, Score: 22},
				{MinValue: 10000, Score: 15},
				{MinValue: 1000, Score: 8},
				{MinValue: 0, Score: 5},
			},
			StageScore: map[string]int{
				"closed-won":    35,
				"negotiation":   30,
				"proposal":      25,
				"qualification": 18,
				"prospecting":   10,
				"closed-lost":   10,
			},
			ProbabilityWeight: 25,
			MultiDealBonus:    5,
			MultiDealCap:      20,
			NoDealBaseline:    30,
		},
		StaleActivityDays:  14,
		MaxRecommendations: 6,
	}
}
