package frames

import (
	"fmt"
	"sort"
	"strings"

	"github.com/avolette/chordsift/notes"
)

// ChordSegment is a maximal run of similar frames collapsed into one
// sustained chord. Pitches holds the notes present throughout the whole
// span, sorted ascending. Segments come out in time order and never
// overlap.
type ChordSegment struct {
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Pitches []int   `json:"pitches"`
}

// Duration returns the segment length in seconds.
func (c ChordSegment) Duration() float64 {
	return c.End - c.Start
}

// Name renders the segment's pitches as note names, e.g. "C4-E4-G4".
func (c ChordSegment) Name() string {
	names := make([]string, len(c.Pitches))
	for i, p := range c.Pitches {
		names[i] = notes.MidiName(p)
	}
	return strings.Join(names, "-")
}

// MergerParams contains parameters for chord segment merging.
type MergerParams struct {
	// Minimum Jaccard similarity between the open segment's anchor set
	// and an incoming frame for the frame to extend the segment
	MergeMinJaccard float64 `json:"merge_min_jaccard"`

	// Finalized segments shorter than this are discarded (seconds,
	// boundary inclusive: a segment exactly this long is kept)
	MergeMinDur float64 `json:"merge_min_dur"`
}

// DefaultMergerParams returns sensible defaults for chord extraction.
func DefaultMergerParams() MergerParams {
	return MergerParams{
		MergeMinJaccard: 0.85,
		MergeMinDur:     0.10,
	}
}

// Validate checks parameter ranges before any processing runs.
func (p MergerParams) Validate() error {
	if p.MergeMinJaccard < 0 || p.MergeMinJaccard > 1 {
		return fmt.Errorf("merger: merge_min_jaccard must be in [0,1], got %v", p.MergeMinJaccard)
	}
	if p.MergeMinDur < 0 {
		return fmt.Errorf("merger: merge_min_dur must be >= 0, got %v", p.MergeMinDur)
	}
	return nil
}

type mergerState int

const (
	stateEmpty mergerState = iota
	stateOpen
)

// Merger is a streaming state machine that collapses consecutive similar
// frames into chord segments. It consumes one frame at a time with O(1)
// extra state: the anchor set and the open segment's bounds. Feed frames
// in index order via Push and finish with Flush.
type Merger struct {
	params MergerParams

	state  mergerState
	anchor map[int]bool
	start  float64
	end    float64
}

// NewMerger creates a merger with default parameters.
func NewMerger() *Merger {
	return NewMergerWithParams(DefaultMergerParams())
}

// NewMergerWithParams creates a merger with custom parameters.
func NewMergerWithParams(params MergerParams) *Merger {
	return &Merger{params: params, state: stateEmpty}
}

// Params returns the merger's parameters.
func (m *Merger) Params() MergerParams {
	return m.params
}

// Push consumes the next frame and returns a finalized segment if this
// frame closed one, nil otherwise. Segments shorter than MergeMinDur are
// dropped, not merged into a neighbor.
func (m *Merger) Push(f Frame) *ChordSegment {
	if m.state == stateEmpty {
		m.openIfChord(f)
		return nil
	}

	current := f.Pitches()
	if Jaccard(m.anchor, current) >= m.params.MergeMinJaccard {
		m.end = f.End
		m.anchor = intersect(m.anchor, current)
		return nil
	}

	closed := m.close()
	m.openIfChord(f)
	return closed
}

// Flush closes any open segment at end of input and resets the merger for
// reuse.
func (m *Merger) Flush() *ChordSegment {
	if m.state != stateOpen {
		return nil
	}
	return m.close()
}

// openIfChord opens a new segment anchored on f when f is non-silent.
func (m *Merger) openIfChord(f Frame) {
	if f.Silent() {
		m.state = stateEmpty
		m.anchor = nil
		return
	}
	m.state = stateOpen
	m.anchor = f.Pitches()
	m.start = f.Start
	m.end = f.End
}

// close finalizes the open segment, applying the minimum duration rule.
func (m *Merger) close() *ChordSegment {
	seg := &ChordSegment{
		Start:   m.start,
		End:     m.end,
		Pitches: sortedPitches(m.anchor),
	}
	m.state = stateEmpty
	m.anchor = nil

	if seg.End-seg.Start < m.params.MergeMinDur || len(seg.Pitches) == 0 {
		return nil
	}
	return seg
}

// MergeFrames runs the state machine over a full frame sequence. The
// batch and streaming paths share the same transitions.
func (m *Merger) MergeFrames(fs []Frame) []ChordSegment {
	segs := make([]ChordSegment, 0)
	for _, f := range fs {
		if seg := m.Push(f); seg != nil {
			segs = append(segs, *seg)
		}
	}
	if seg := m.Flush(); seg != nil {
		segs = append(segs, *seg)
	}
	return segs
}

func intersect(a, b map[int]bool) map[int]bool {
	out := make(map[int]bool)
	for p := range a {
		if b[p] {
			out[p] = true
		}
	}
	return out
}

func sortedPitches(set map[int]bool) []int {
	out := make([]int, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	sort.Ints(out)
	return out
}
