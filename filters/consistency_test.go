package filters

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/avolette/chordsift/notes"
)

func TestConsistencyKeepsLongNotes(t *testing.T) {
	f := NewConsistencyFilterWithParams(ConsistencyParams{
		MinDuration:     0.1,
		SupportWindow:   0.5,
		MinSupportCount: 1,
	})
	in := []notes.Note{
		{Pitch: 60, Velocity: 80, Onset: 0.0, Offset: 0.5},
	}
	assert.Len(t, f.Apply(in), 1)
}

func TestConsistencyDropsUnsupportedGhost(t *testing.T) {
	f := NewConsistencyFilterWithParams(ConsistencyParams{
		MinDuration:     0.1,
		SupportWindow:   0.5,
		MinSupportCount: 1,
	})
	in := []notes.Note{
		{Pitch: 60, Velocity: 80, Onset: 0.0, Offset: 1.0},
		{Pitch: 72, Velocity: 20, Onset: 0.3, Offset: 0.35}, // lone short blip
	}
	out := f.Apply(in)

	assert := assert.New(t)
	assert.Len(out, 1)
	assert.Equal(60, out[0].Pitch)
}

func TestConsistencySupportExcludesTheNoteItself(t *testing.T) {
	f := NewConsistencyFilterWithParams(ConsistencyParams{
		MinDuration:     0.1,
		SupportWindow:   0.5,
		MinSupportCount: 1,
	})
	// A short note alone never supports itself.
	lone := []notes.Note{{Pitch: 60, Velocity: 80, Onset: 0.0, Offset: 0.05}}
	assert.Empty(t, f.Apply(lone))

	// A repeated figure supports both instances.
	figure := []notes.Note{
		{Pitch: 60, Velocity: 80, Onset: 0.0, Offset: 0.05},
		{Pitch: 60, Velocity: 78, Onset: 0.2, Offset: 0.25},
	}
	assert.Len(t, f.Apply(figure), 2)
}

func TestConsistencySupportWindowIsTruncatedAtEdges(t *testing.T) {
	f := NewConsistencyFilterWithParams(ConsistencyParams{
		MinDuration:     0.1,
		SupportWindow:   0.3,
		MinSupportCount: 1,
	})
	// Support sits outside the window: dropped even near t=0.
	in := []notes.Note{
		{Pitch: 60, Velocity: 80, Onset: 0.0, Offset: 0.05},
		{Pitch: 60, Velocity: 80, Onset: 0.5, Offset: 0.55},
	}
	assert.Empty(t, f.Apply(in))
}

func TestConsistencyPitchClassMatch(t *testing.T) {
	f := NewConsistencyFilterWithParams(ConsistencyParams{
		MinDuration:     0.1,
		SupportWindow:   0.5,
		MinSupportCount: 1,
		PitchClassMatch: true,
	})
	// 60 and 72 share a pitch class; they support each other.
	in := []notes.Note{
		{Pitch: 60, Velocity: 80, Onset: 0.0, Offset: 0.05},
		{Pitch: 72, Velocity: 80, Onset: 0.1, Offset: 0.15},
	}
	assert.Len(t, f.Apply(in), 2)
}

func TestConsistencyAdaptiveRescue(t *testing.T) {
	f := NewConsistencyFilterWithParams(ConsistencyParams{
		MinDuration:      0.5,
		SupportWindow:    0.1,
		MinSupportCount:  5,
		MinTotalDurRatio: 0.5,
	})
	// Pitch 60 dominates total duration across many short hits, so each
	// hit is rescued; the lone 72 blip is not.
	in := []notes.Note{
		{Pitch: 60, Velocity: 80, Onset: 0.0, Offset: 0.4},
		{Pitch: 60, Velocity: 80, Onset: 1.0, Offset: 1.4},
		{Pitch: 72, Velocity: 20, Onset: 2.0, Offset: 2.05},
	}
	out := f.Apply(in)

	assert := assert.New(t)
	assert.Len(out, 2)
	for _, n := range out {
		assert.Equal(60, n.Pitch)
	}
}

func TestConsistencyOutputIsSubsetInOnsetOrder(t *testing.T) {
	f := NewConsistencyFilter()
	in := []notes.Note{
		{Pitch: 64, Velocity: 70, Onset: 1.0, Offset: 1.5},
		{Pitch: 60, Velocity: 80, Onset: 0.0, Offset: 0.5},
		{Pitch: 72, Velocity: 20, Onset: 0.5, Offset: 0.52},
	}
	out := f.Apply(in)

	assert := assert.New(t)
	assert.LessOrEqual(len(out), len(in))
	for i := 1; i < len(out); i++ {
		assert.LessOrEqual(out[i-1].Onset, out[i].Onset)
	}
	// every output note exists in the input
	for _, o := range out {
		found := false
		for _, n := range in {
			if n == o {
				found = true
			}
		}
		assert.True(found)
	}
}

func TestConsistencyEmptyInput(t *testing.T) {
	assert.Empty(t, NewConsistencyFilter().Apply(nil))
}

func TestConsistencyParamsValidate(t *testing.T) {
	assert := assert.New(t)
	assert.NoError(DefaultConsistencyParams().Validate())
	assert.Error(ConsistencyParams{MinDuration: -1, MinSupportCount: 1}.Validate())
	assert.Error(ConsistencyParams{SupportWindow: -1, MinSupportCount: 1}.Validate())
	assert.Error(ConsistencyParams{MinSupportCount: 0}.Validate())
	assert.Error(ConsistencyParams{MinSupportCount: 1, MinTotalDurRatio: 1.5}.Validate())
}
