package frames

import (
	"fmt"
	"math"

	"github.com/avolette/chordsift/notes"
)

// Frame is a fixed-length time window with the set of notes active in it.
// Active maps pitch to the loudest velocity of that pitch in the window.
// A frame below the sampler's minimum polyphony reports an empty set.
type Frame struct {
	Index  int         `json:"index"`
	Start  float64     `json:"start"`
	End    float64     `json:"end"`
	Active map[int]int `json:"active"`
}

// Silent reports whether the frame has no active notes.
func (f Frame) Silent() bool {
	return len(f.Active) == 0
}

// Pitches returns the active pitch set as a plain set.
func (f Frame) Pitches() map[int]bool {
	set := make(map[int]bool, len(f.Active))
	for p := range f.Active {
		set[p] = true
	}
	return set
}

// SamplerParams contains parameters for frame sampling.
type SamplerParams struct {
	// Frame size / hop in seconds. 0.05 evaluates every 50ms.
	Hop float64 `json:"hop"`

	// Notes below this velocity are ignored
	MinVelocity int `json:"min_velocity"`

	// Frames with fewer simultaneously active notes are treated as
	// silence
	MinActive int `json:"min_active"`
}

// DefaultSamplerParams returns sensible defaults for chord extraction.
func DefaultSamplerParams() SamplerParams {
	return SamplerParams{
		Hop:         0.05,
		MinVelocity: 0,
		MinActive:   2,
	}
}

// Validate checks parameter ranges before any processing runs.
func (p SamplerParams) Validate() error {
	if p.Hop <= 0 {
		return fmt.Errorf("sampler: hop must be > 0, got %v", p.Hop)
	}
	if p.MinVelocity < 0 {
		return fmt.Errorf("sampler: min_velocity must be >= 0, got %d", p.MinVelocity)
	}
	if p.MinActive < 0 {
		return fmt.Errorf("sampler: min_active must be >= 0, got %d", p.MinActive)
	}
	return nil
}

// Sampler slices the timeline into uniform hops and computes each window's
// active-note set. Each frame depends only on notes overlapping its
// window, so frames can be emitted as soon as the note stream has advanced
// past the window's end.
type Sampler struct {
	params SamplerParams
}

// NewSampler creates a sampler with default parameters.
func NewSampler() *Sampler {
	return NewSamplerWithParams(DefaultSamplerParams())
}

// NewSamplerWithParams creates a sampler with custom parameters.
func NewSamplerWithParams(params SamplerParams) *Sampler {
	return &Sampler{params: params}
}

// Params returns the sampler's parameters.
func (s *Sampler) Params() SamplerParams {
	return s.params
}

// NumFrames returns how many frames cover [0, duration].
func (s *Sampler) NumFrames(duration float64) int {
	if duration <= 0 {
		return 0
	}
	return int(math.Ceil(duration / s.params.Hop))
}

// FrameAt computes the frame at window index i over the given events. The
// last frame of an audio file may be shorter than one hop; membership
// still uses interval overlap against the true window bounds.
func (s *Sampler) FrameAt(events []notes.Note, duration float64, i int) Frame {
	start := float64(i) * s.params.Hop
	end := start + s.params.Hop
	if end > duration {
		end = duration
	}

	active := make(map[int]int)
	for _, ev := range events {
		if ev.Velocity < s.params.MinVelocity {
			continue
		}
		if ev.Onset < end && ev.Offset > start {
			if v, ok := active[ev.Pitch]; !ok || ev.Velocity > v {
				active[ev.Pitch] = ev.Velocity
			}
		}
	}

	if len(active) < s.params.MinActive {
		active = map[int]int{}
	}

	return Frame{Index: i, Start: start, End: end, Active: active}
}

// Sample computes the full ordered frame sequence covering [0, duration].
func (s *Sampler) Sample(events []notes.Note, duration float64) []Frame {
	n := s.NumFrames(duration)
	out := make([]Frame, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, s.FrameAt(events, duration, i))
	}
	return out
}
