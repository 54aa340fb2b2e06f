package filters

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/avolette/chordsift/notes"
)

// ConsistencyParams contains parameters for the consistency (ghost note)
// filter.
type ConsistencyParams struct {
	// Notes at least this long are kept unconditionally (seconds)
	MinDuration float64 `json:"min_duration"`

	// Window around a note's onset searched for supporting notes (seconds)
	SupportWindow float64 `json:"support_window"`

	// Minimum number of supporting notes for a short note to survive
	MinSupportCount int `json:"min_support_count"`

	// Count support by pitch class (pitch mod 12) instead of exact pitch
	PitchClassMatch bool `json:"pitch_class_match"`

	// Adaptive rescue: a short unsupported note still survives when its
	// pitch's total sounding time is at least this fraction of the busiest
	// pitch's total. 0 disables the rescue.
	MinTotalDurRatio float64 `json:"min_total_dur_ratio"`
}

// DefaultConsistencyParams returns sensible defaults for piano material.
func DefaultConsistencyParams() ConsistencyParams {
	return ConsistencyParams{
		MinDuration:      0.08,
		SupportWindow:    1.0,
		MinSupportCount:  1,
		PitchClassMatch:  false,
		MinTotalDurRatio: 0.0,
	}
}

// Validate checks parameter ranges before any processing runs.
func (p ConsistencyParams) Validate() error {
	if p.MinDuration < 0 {
		return fmt.Errorf("consistency: min_duration must be >= 0, got %v", p.MinDuration)
	}
	if p.SupportWindow < 0 {
		return fmt.Errorf("consistency: support_window must be >= 0, got %v", p.SupportWindow)
	}
	if p.MinSupportCount < 1 {
		return fmt.Errorf("consistency: min_support_count must be >= 1, got %d", p.MinSupportCount)
	}
	if p.MinTotalDurRatio < 0 || p.MinTotalDurRatio > 1 {
		return fmt.Errorf("consistency: min_total_dur_ratio must be in [0,1], got %v", p.MinTotalDurRatio)
	}
	return nil
}

// ConsistencyFilter drops one-off ghost notes: short detections with no
// corroborating same-pitch activity nearby. Legitimate short ornaments
// survive through the support count.
type ConsistencyFilter struct {
	params ConsistencyParams
}

// NewConsistencyFilter creates a consistency filter with default parameters.
func NewConsistencyFilter() *ConsistencyFilter {
	return NewConsistencyFilterWithParams(DefaultConsistencyParams())
}

// NewConsistencyFilterWithParams creates a consistency filter with custom
// parameters.
func NewConsistencyFilterWithParams(params ConsistencyParams) *ConsistencyFilter {
	return &ConsistencyFilter{params: params}
}

// Params returns the filter's parameters.
func (f *ConsistencyFilter) Params() ConsistencyParams {
	return f.params
}

// Apply returns the subsequence of events that pass the filter. Support is
// always counted against the original input, not the partially filtered
// list, so a note's fate never depends on decisions for earlier notes.
// The input slice is not modified.
func (f *ConsistencyFilter) Apply(events []notes.Note) []notes.Note {
	if len(events) == 0 {
		return []notes.Note{}
	}

	sorted := notes.SortByOnset(events)

	key := func(n notes.Note) int {
		if f.params.PitchClassMatch {
			return n.PitchClass()
		}
		return n.Pitch
	}

	// Total sounding time per pitch key, for the adaptive rescue.
	var durThreshold float64
	totals := make(map[int]float64)
	if f.params.MinTotalDurRatio > 0 {
		for _, ev := range sorted {
			totals[key(ev)] += ev.Duration()
		}
		vals := make([]float64, 0, len(totals))
		for _, d := range totals {
			vals = append(vals, d)
		}
		if len(vals) > 0 {
			durThreshold = f.params.MinTotalDurRatio * floats.Max(vals)
		}
	}

	kept := make([]notes.Note, 0, len(sorted))
	for i, ev := range sorted {
		if ev.Duration() >= f.params.MinDuration {
			kept = append(kept, ev)
			continue
		}
		if f.supportCount(sorted, i, key) >= f.params.MinSupportCount {
			kept = append(kept, ev)
			continue
		}
		if durThreshold > 0 && totals[key(ev)] >= durThreshold {
			kept = append(kept, ev)
		}
	}
	return kept
}

// supportCount counts other notes with the same pitch key whose onset falls
// within the support window of events[i]. Windows truncated by the start or
// end of the audio just count whatever exists; there is no padding.
func (f *ConsistencyFilter) supportCount(events []notes.Note, i int, key func(notes.Note) int) int {
	target := events[i]
	count := 0
	for j, other := range events {
		if j == i {
			continue
		}
		if key(other) != key(target) {
			continue
		}
		if math.Abs(other.Onset-target.Onset) <= f.params.SupportWindow {
			count++
		}
	}
	return count
}
