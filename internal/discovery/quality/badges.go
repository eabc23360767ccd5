package quality

import (
	"time"

	"marketplace-discovery/internal/models"
)

const (
	BadgeFastResponder  = "Fast responder"
	BadgeHighConversion = "High conversion"
	BadgeActive         = "Active"
)

// Badges returns the performance badges earned in the 30-day window, in a
// fixed order.
func (s *Scorer) Badges(agg *models.PerformanceAggregate, now time.Time) []string {
	badges := []string{}
	if agg == nil {
		return badges
	}
	sent, accepted := counts(agg)

	if agg.MedianResponseSeconds != nil && *agg.MedianResponseSeconds >= 0 &&
		*agg.MedianResponseSeconds <= s.cfg.FastResponderWithin.Seconds() &&
		sent >= s.cfg.FastResponderMinSent {
		badges = append(badges, BadgeFastResponder)
	}

	if sent >= s.cfg.HighConversionMinSent && sent > 0 &&
		float64(accepted)/float64(sent) >= s.cfg.HighConversionRate {
		badges = append(badges, BadgeHighConversion)
	}

	if agg.LastActiveAt != nil && !agg.LastActiveAt.IsZero() &&
		now.Sub(*agg.LastActiveAt) <= s.cfg.ActiveWithin {
		badges = append(badges, BadgeActive)
	}
	return badges
}
