// Package quality turns a supplier's 30-day performance counters into four
// normalised sub-scores and a composite base quality in [0,1].
package quality

import (
	"math"
	"time"

	"marketplace-discovery/internal/models"
)

// Source records which path produced a supplier's features.
type Source string

const (
	SourcePrecomputed Source = "precomputed"
	SourceComputed    Source = "computed"
)

type Scorer struct {
	cfg Config
}

func NewScorer(cfg Config) (*Scorer, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return &Scorer{cfg: cfg}, nil
}

// BaseQuality is the single composite formula shared by the live and the
// precomputed paths.
func (s *Scorer) BaseQuality(acceptance, response, activity, volume float64) float64 {
	w := s.cfg.Weights
	sum := w.Acceptance*acceptance + w.Response*response + w.Activity*activity + w.Volume*volume
	return clamp01(sum / w.Sum())
}

// Compute derives features from a raw aggregate. A nil aggregate is a
// supplier with no history: acceptance falls back to the baseline and every
// other sub-score is 0.
func (s *Scorer) Compute(agg *models.PerformanceAggregate, baseline float64, now time.Time) models.RankFeatures {
	var f models.RankFeatures
	var sent, accepted int
	var median *float64
	var lastActive *time.Time

	if agg != nil {
		f.SupplierID = agg.SupplierID
		sent, accepted = counts(agg)
		median = agg.MedianResponseSeconds
		lastActive = agg.LastActiveAt
	}

	f.SmoothedAcceptance = s.SmoothedAcceptance(accepted, sent, baseline)
	f.ResponseScore = s.ResponseScore(median)
	f.ActivityScore = s.ActivityScore(lastActive, now)
	f.VolumeScore = s.VolumeScore(sent)
	f.BaseQuality = s.BaseQuality(f.SmoothedAcceptance, f.ResponseScore, f.ActivityScore, f.VolumeScore)
	return f
}

// Resolve prefers a numerically valid precomputed row and otherwise computes
// from the aggregate.
func (s *Scorer) Resolve(pre *models.RankFeatures, agg *models.PerformanceAggregate, baseline float64, now time.Time) (models.RankFeatures, Source) {
	if Valid(pre) {
		return *pre, SourcePrecomputed
	}
	f := s.Compute(agg, baseline, now)
	if pre != nil && f.SupplierID == "" {
		f.SupplierID = pre.SupplierID
	}
	return f, SourceComputed
}

// Valid reports whether every value of a precomputed row is finite and in [0,1].
func Valid(f *models.RankFeatures) bool {
	if f == nil {
		return false
	}
	for _, v := range []float64{f.SmoothedAcceptance, f.ResponseScore, f.ActivityScore, f.VolumeScore, f.BaseQuality} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 || v > 1 {
			return false
		}
	}
	return true
}

// SmoothedAcceptance shrinks the raw acceptance rate toward baseline:
// (accepted + k*baseline) / (sent + k).
func (s *Scorer) SmoothedAcceptance(accepted, sent int, baseline float64) float64 {
	k := s.cfg.PriorStrength
	b := clamp01(baseline)
	return clamp01((float64(accepted) + k*b) / (float64(sent) + k))
}

// ResponseScore is 1 up to the instant window, then falls linearly to 0 at
// the ceiling. Unknown or invalid medians score 0.
func (s *Scorer) ResponseScore(medianSeconds *float64) float64 {
	if medianSeconds == nil || math.IsNaN(*medianSeconds) || *medianSeconds < 0 {
		return 0
	}
	m := *medianSeconds
	instant := s.cfg.InstantResponse.Seconds()
	ceiling := s.cfg.ResponseCeiling.Seconds()
	switch {
	case m <= instant:
		return 1
	case m >= ceiling:
		return 0
	}
	return clamp01(1 - (m-instant)/(ceiling-instant))
}

// ActivityScore halves every ActivityHalfLife, counted in whole days so that
// anything active today scores exactly 1.
func (s *Scorer) ActivityScore(lastActive *time.Time, now time.Time) float64 {
	if lastActive == nil || lastActive.IsZero() {
		return 0
	}
	age := now.Sub(*lastActive)
	if age < 0 {
		age = 0
	}
	days := math.Floor(age.Hours() / 24)
	halfLifeDays := s.cfg.ActivityHalfLife.Hours() / 24
	return clamp01(math.Pow(0.5, days/halfLifeDays))
}

// VolumeScore is min(1, ln(1+sent)/ln(1+saturation)).
func (s *Scorer) VolumeScore(sent int) float64 {
	if sent <= 0 {
		return 0
	}
	return math.Min(1, math.Log1p(float64(sent))/math.Log1p(s.cfg.VolumeSaturation))
}

func counts(agg *models.PerformanceAggregate) (sent, accepted int) {
	sent = agg.QuotesSent
	if sent < 0 {
		sent = 0
	}
	accepted = agg.QuotesAccepted
	if accepted < 0 {
		accepted = 0
	}
	if accepted > sent {
		accepted = sent
	}
	return sent, accepted
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
