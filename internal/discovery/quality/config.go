package quality

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
)

// Weights for the four sub-scores. The composite divides by their sum, so
// they need not add up to 1.
type Weights struct {
	Acceptance float64
	Response   float64
	Activity   float64
	Volume     float64
}

// Sum returns the total of all weights.
func (w Weights) Sum() float64 {
	return w.Acceptance + w.Response + w.Activity + w.Volume
}

type Config struct {
	PriorStrength    float64
	InstantResponse  time.Duration
	ResponseCeiling  time.Duration
	ActivityHalfLife time.Duration
	VolumeSaturation float64
	Weights          Weights

	FastResponderWithin   time.Duration
	FastResponderMinSent  int
	HighConversionRate    float64
	HighConversionMinSent int
	ActiveWithin          time.Duration
}

// DefaultConfig returns the tunable defaults: prior strength 5, 14-day
// activity half-life, 48h response ceiling and weights 0.4/0.2/0.2/0.2.
func DefaultConfig() Config {
	return Config{
		PriorStrength:    5,
		InstantResponse:  15 * time.Minute,
		ResponseCeiling:  48 * time.Hour,
		ActivityHalfLife: 14 * 24 * time.Hour,
		VolumeSaturation: 20,
		Weights:          Weights{Acceptance: 0.4, Response: 0.2, Activity: 0.2, Volume: 0.2},

		FastResponderWithin:   6 * time.Hour,
		FastResponderMinSent:  3,
		HighConversionRate:    0.35,
		HighConversionMinSent: 5,
		ActiveWithin:          7 * 24 * time.Hour,
	}
}

// ValidateConfig checks that a Config is internally consistent.
func ValidateConfig(c Config) error {
	var errs []string

	weights := map[string]float64{
		"acceptance_weight": c.Weights.Acceptance,
		"response_weight":   c.Weights.Response,
		"activity_weight":   c.Weights.Activity,
		"volume_weight":     c.Weights.Volume,
	}
	for name, w := range weights {
		if w < 0 || math.IsNaN(w) {
			errs = append(errs, fmt.Sprintf("%s must be >= 0", name))
		}
	}
	if c.Weights.Sum() <= 0 {
		errs = append(errs, "weights must sum to a positive number")
	}
	if c.PriorStrength <= 0 {
		errs = append(errs, "prior_strength must be > 0")
	}
	if c.ResponseCeiling <= c.InstantResponse {
		errs = append(errs, "response ceiling must exceed the instant response window")
	}
	if c.ActivityHalfLife <= 0 {
		errs = append(errs, "activity half-life must be > 0")
	}
	if c.VolumeSaturation <= 0 {
		errs = append(errs, "volume_saturation must be > 0")
	}

	if len(errs) > 0 {
		// map iteration order is random; keep messages stable
		sort.Strings(errs)
		return fmt.Errorf("invalid quality config: %s", strings.Join(errs, "; "))
	}
	return nil
}
