package stream

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avolette/chordsift/filters"
	"github.com/avolette/chordsift/frames"
	"github.com/avolette/chordsift/notes"
	"github.com/avolette/chordsift/pipeline"
)

func streamConfig() pipeline.Config {
	return pipeline.Config{
		Filters: filters.ChainParams{
			EnableHarmonic: true,
			Harmonic: filters.HarmonicParams{
				Intervals:       []int{12},
				VelocityMargin:  10,
				OverlapFraction: 0.5,
			},
		},
		WriteChords: true,
		Sampler:     frames.SamplerParams{Hop: 0.05, MinActive: 1},
		Merger:      frames.MergerParams{MergeMinJaccard: 0.85, MergeMinDur: 0.10},
	}
}

func TestStreamMatchesBatchPipeline(t *testing.T) {
	raw := []notes.Note{
		{Pitch: 60, Velocity: 80, Onset: 0.00, Offset: 0.40},
		{Pitch: 64, Velocity: 75, Onset: 0.01, Offset: 0.42},
		{Pitch: 72, Velocity: 40, Onset: 0.01, Offset: 0.20},
	}

	var gotNotes []notes.Note
	var gotSegs []frames.ChordSegment
	p, err := NewProcessor(streamConfig(), Handlers{
		Note:    func(n notes.Note) { gotNotes = append(gotNotes, n) },
		Segment: func(s frames.ChordSegment) { gotSegs = append(gotSegs, s) },
	})
	require.NoError(t, err)

	for _, n := range raw {
		require.NoError(t, p.Feed(n))
		require.NoError(t, p.Advance(n.Onset))
	}
	require.NoError(t, p.Close())

	assert := assert.New(t)
	require.Len(t, gotNotes, 2)
	assert.Equal(60, gotNotes[0].Pitch)
	assert.Equal(64, gotNotes[1].Pitch)

	require.Len(t, gotSegs, 1)
	assert.Equal(0.0, gotSegs[0].Start)
	assert.Equal([]int{60, 64}, gotSegs[0].Pitches)
}

func TestStreamEmitsNotesOnlyPastTheHorizon(t *testing.T) {
	config := streamConfig()
	config.Filters = filters.ChainParams{
		EnableConsistency: true,
		Consistency: filters.ConsistencyParams{
			MinDuration:     0.05,
			SupportWindow:   1.0,
			MinSupportCount: 1,
		},
	}
	config.WriteChords = false

	var got []notes.Note
	p, err := NewProcessor(config, Handlers{
		Note: func(n notes.Note) { got = append(got, n) },
	})
	require.NoError(t, err)
	assert.Equal(t, 1.0, p.Lag())

	require.NoError(t, p.Feed(notes.Note{Pitch: 60, Velocity: 80, Onset: 0.0, Offset: 0.5}))
	require.NoError(t, p.Advance(0.5))
	// the support window for the first note is still open
	assert.Empty(t, got)

	// at 1.5 the window has passed but a supporter admissible at the
	// admission boundary (onset 0.5 >= 1.5-lag) could still reach onset 0
	require.NoError(t, p.Advance(1.5))
	assert.Empty(t, got)

	require.NoError(t, p.Advance(2.5))
	assert.Len(t, got, 1)
}

func TestStreamLateSupporterEmitsEveryNoteOnce(t *testing.T) {
	config := streamConfig()
	config.Filters = filters.ChainParams{
		EnableConsistency: true,
		Consistency: filters.ConsistencyParams{
			MinDuration:     0.5,
			SupportWindow:   1.0,
			MinSupportCount: 1,
		},
	}
	config.WriteChords = false

	var got []notes.Note
	p, err := NewProcessor(config, Handlers{
		Note: func(n notes.Note) { got = append(got, n) },
	})
	require.NoError(t, err)

	// short note needing support, and a long note that always survives
	require.NoError(t, p.Feed(notes.Note{Pitch: 72, Velocity: 40, Onset: 0.95, Offset: 1.05}))
	require.NoError(t, p.Feed(notes.Note{Pitch: 60, Velocity: 80, Onset: 0.98, Offset: 1.60}))
	require.NoError(t, p.Advance(2.0))

	// a same-pitch supporter still inside the admission window flips the
	// short note's fate; nothing near it may have been finalized yet
	require.NoError(t, p.Feed(notes.Note{Pitch: 72, Velocity: 45, Onset: 1.00, Offset: 1.10}))
	require.NoError(t, p.Advance(3.5))
	require.NoError(t, p.Close())

	counts := make(map[[2]int]int)
	for _, n := range got {
		counts[[2]int{n.Pitch, int(math.Round(n.Onset * 100))}]++
	}
	assert := assert.New(t)
	assert.Len(got, 3)
	assert.Equal(1, counts[[2]int{72, 95}])
	assert.Equal(1, counts[[2]int{60, 98}])
	assert.Equal(1, counts[[2]int{72, 100}])
}

func TestStreamRejectsLateNote(t *testing.T) {
	p, err := NewProcessor(streamConfig(), Handlers{})
	require.NoError(t, err)

	require.NoError(t, p.Advance(5.0))
	err = p.Feed(notes.Note{Pitch: 60, Velocity: 80, Onset: 1.0, Offset: 2.0})
	assert.Error(t, err)
}

func TestStreamRejectsBackwardsClock(t *testing.T) {
	p, err := NewProcessor(streamConfig(), Handlers{})
	require.NoError(t, err)

	require.NoError(t, p.Advance(5.0))
	assert.Error(t, p.Advance(4.0))
}

func TestStreamUseAfterClose(t *testing.T) {
	p, err := NewProcessor(streamConfig(), Handlers{})
	require.NoError(t, err)
	require.NoError(t, p.Close())

	assert := assert.New(t)
	assert.Error(p.Feed(notes.Note{Pitch: 60, Velocity: 80, Onset: 0, Offset: 1}))
	assert.Error(p.Advance(1.0))
	assert.NoError(p.Close()) // idempotent
}

func TestStreamRejectsMalformedNote(t *testing.T) {
	p, err := NewProcessor(streamConfig(), Handlers{})
	require.NoError(t, err)

	err = p.Feed(notes.Note{Pitch: 60, Velocity: 80, Onset: 1.0, Offset: 0.5})
	var inv *notes.InvalidNoteError
	assert.ErrorAs(t, err, &inv)
}
