package notes

import (
	"fmt"
	"sort"
)

// Note represents a single detected note event from the upstream
// transcription model. Pitch is a MIDI note number, velocity doubles as a
// loudness/confidence proxy when Confidence is absent.
type Note struct {
	Pitch      int      `json:"pitch"`
	Velocity   int      `json:"velocity"`
	Onset      float64  `json:"onset_time"`
	Offset     float64  `json:"offset_time"`
	Confidence *float64 `json:"confidence,omitempty"`
}

// Duration returns the note length in seconds (never negative).
func (n Note) Duration() float64 {
	if n.Offset <= n.Onset {
		return 0.0
	}
	return n.Offset - n.Onset
}

// PitchClass returns the pitch modulo 12 (0=C, 1=C#, ..., 11=B).
func (n Note) PitchClass() int {
	return ((n.Pitch % 12) + 12) % 12
}

// Strength returns a 0-1 strength measure: the model confidence if
// supplied, otherwise velocity scaled to [0,1].
func (n Note) Strength() float64 {
	if n.Confidence != nil {
		return *n.Confidence
	}
	return float64(n.Velocity) / 127.0
}

// Overlap returns the length in seconds of the intersection of the two
// note intervals.
func (n Note) Overlap(other Note) float64 {
	start := n.Onset
	if other.Onset > start {
		start = other.Onset
	}
	end := n.Offset
	if other.Offset < end {
		end = other.Offset
	}
	if end <= start {
		return 0.0
	}
	return end - start
}

// Name returns the note name with octave, e.g. "C4" for MIDI 60.
func (n Note) Name() string {
	return MidiName(n.Pitch)
}

var noteNames = []string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// MidiName converts a MIDI note number to a human-readable name.
// Octave numbering follows the MIDI convention where 60 is C4.
func MidiName(midi int) string {
	pc := ((midi % 12) + 12) % 12
	octave := midi/12 - 1
	return fmt.Sprintf("%s%d", noteNames[pc], octave)
}

// SortByOnset returns a copy of the input sorted by onset ascending,
// pitch ascending on ties. The input slice is not modified.
func SortByOnset(events []Note) []Note {
	out := make([]Note, len(events))
	copy(out, events)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Onset != out[j].Onset {
			return out[i].Onset < out[j].Onset
		}
		return out[i].Pitch < out[j].Pitch
	})
	return out
}

// Clamp trims events to the audio duration: events starting at or past the
// end are dropped, offsets are capped at audioDur. The result is sorted by
// onset. The input slice is not modified.
func Clamp(events []Note, audioDur float64) []Note {
	clamped := make([]Note, 0, len(events))
	for _, ev := range events {
		if ev.Onset >= audioDur {
			continue
		}
		if ev.Offset > audioDur {
			ev.Offset = audioDur
		}
		clamped = append(clamped, ev)
	}
	return SortByOnset(clamped)
}

// LastOffset returns the latest offset among the events, or 0 for an
// empty list.
func LastOffset(events []Note) float64 {
	last := 0.0
	for _, ev := range events {
		if ev.Offset > last {
			last = ev.Offset
		}
	}
	return last
}
