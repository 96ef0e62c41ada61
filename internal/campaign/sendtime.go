package campaign

import (
	"time"

	"github.com/hadrianfebri/CustomerRelationshipManager-sub000/internal/domain"
	"github.com/hadrianfebri/CustomerRelationshipManager-sub000/internal/pkg/clock"
	"github.com/hadrianfebri/CustomerRelationshipManager-sub000/internal/pkg/logger"
)

// SendTimeOptimizer computes the next valid dispatch instant inside a
// contact's preferred local-time window, skipping excluded weekdays.
type SendTimeOptimizer struct {
	clk clock.Clock
}

// NewSendTimeOptimizer creates an optimizer on the given clock.
func NewSendTimeOptimizer(clk clock.Clock) *SendTimeOptimizer {
	if clk == nil {
		clk = clock.Real{}
	}
	return &SendTimeOptimizer{clk: clk}
}

// Next returns the dispatch instant for the given config. Disabled
// optimization returns now. Otherwise: before the preferred window,
// today at window start; at or past window end, window start the next
// day; then whole days are skipped while the weekday is excluded.
func (o *SendTimeOptimizer) Next(cfg domain.SendTimeConfig) time.Time {
	now := o.clk.Now()
	if !cfg.Enabled {
		return now
	}

	loc := time.UTC
	if cfg.Timezone != "" {
		l, err := time.LoadLocation(cfg.Timezone)
		if err != nil {
			logger.Warn("invalid send-time timezone, falling back to UTC", "timezone", cfg.Timezone)
		} else {
			loc = l
		}
	}

	local := now.In(loc)
	candidate := time.Date(local.Year(), local.Month(), local.Day(), cfg.PreferredStartHour, 0, 0, 0, loc)

	switch {
	case local.Hour() < cfg.PreferredStartHour:
		// window start today
	case local.Hour() >= cfg.PreferredEndHour:
		candidate = candidate.AddDate(0, 0, 1)
	default:
		// already inside the window
		if !excluded(local.Weekday(), cfg.ExcludeDays) {
			return now
		}
		candidate = candidate.AddDate(0, 0, 1)
	}

	for excluded(candidate.Weekday(), cfg.ExcludeDays) {
		candidate = candidate.AddDate(0, 0, 1)
	}

	return candidate
}

func excluded(day time.Weekday, days []time.Weekday) bool {
	for _, d := range days {
		if d == day {
			return true
		}
	}
	return false
}
