package filters

import (
	"fmt"

	"github.com/avolette/chordsift/notes"
)

// HarmonicParams contains parameters for the harmonic (overtone) filter.
type HarmonicParams struct {
	// Semitone intervals above a fundamental treated as overtone
	// positions. 12=octave, 19=octave+fifth, 24=two octaves,
	// 28=two octaves+major third, 31=two octaves+fifth.
	Intervals []int `json:"intervals"`

	// Minimum velocity advantage the fundamental must have over the
	// candidate overtone
	VelocityMargin int `json:"velocity_margin"`

	// Minimum temporal overlap with the fundamental, as a fraction of the
	// candidate's duration
	OverlapFraction float64 `json:"overlap_fraction"`
}

// DefaultHarmonicParams returns sensible defaults for piano material.
func DefaultHarmonicParams() HarmonicParams {
	return HarmonicParams{
		Intervals:       []int{12, 19, 24, 28, 31},
		VelocityMargin:  10,
		OverlapFraction: 0.5,
	}
}

// Validate checks parameter ranges before any processing runs.
func (p HarmonicParams) Validate() error {
	if len(p.Intervals) == 0 {
		return fmt.Errorf("harmonic: at least one interval is required")
	}
	for _, iv := range p.Intervals {
		if iv <= 0 {
			return fmt.Errorf("harmonic: intervals must be positive semitone counts, got %d", iv)
		}
	}
	if p.VelocityMargin < 0 {
		return fmt.Errorf("harmonic: velocity_margin must be >= 0, got %d", p.VelocityMargin)
	}
	if p.OverlapFraction < 0 || p.OverlapFraction > 1 {
		return fmt.Errorf("harmonic: overlap_fraction must be in [0,1], got %v", p.OverlapFraction)
	}
	return nil
}

// HarmonicFilter removes notes that are acoustically explainable as
// overtones of a concurrently sounding, sufficiently stronger fundamental.
// A note that itself qualifies as a fundamental for some other note is
// never removed.
type HarmonicFilter struct {
	params    HarmonicParams
	intervals map[int]bool
}

// NewHarmonicFilter creates a harmonic filter with default parameters.
func NewHarmonicFilter() *HarmonicFilter {
	return NewHarmonicFilterWithParams(DefaultHarmonicParams())
}

// NewHarmonicFilterWithParams creates a harmonic filter with custom
// parameters.
func NewHarmonicFilterWithParams(params HarmonicParams) *HarmonicFilter {
	intervals := make(map[int]bool, len(params.Intervals))
	for _, iv := range params.Intervals {
		intervals[iv] = true
	}
	return &HarmonicFilter{params: params, intervals: intervals}
}

// Params returns the filter's parameters.
func (f *HarmonicFilter) Params() HarmonicParams {
	return f.params
}

// Apply returns the note list with harmonic artifacts removed, in onset
// order. Marking is computed against the full input in one pass, so the
// outcome does not depend on processing order. The input slice is not
// modified.
func (f *HarmonicFilter) Apply(events []notes.Note) []notes.Note {
	if len(events) == 0 {
		return []notes.Note{}
	}

	sorted := notes.SortByOnset(events)

	marked := make([]bool, len(sorted))
	fundamental := make([]bool, len(sorted))

	for i, n := range sorted {
		for j, fund := range sorted {
			if j == i || fund.Pitch >= n.Pitch {
				continue
			}
			if !f.intervals[n.Pitch-fund.Pitch] {
				continue
			}
			if fund.Velocity-n.Velocity < f.params.VelocityMargin {
				continue
			}
			minOverlap := f.params.OverlapFraction * n.Duration()
			if n.Overlap(fund) < minOverlap {
				continue
			}
			// One qualifying fundamental is enough to mark n.
			marked[i] = true
			fundamental[j] = true
			break
		}
	}

	kept := make([]notes.Note, 0, len(sorted))
	for i, n := range sorted {
		if marked[i] && !fundamental[i] {
			continue
		}
		kept = append(kept, n)
	}
	return kept
}
