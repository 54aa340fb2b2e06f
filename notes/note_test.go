package notes

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMidiName(t *testing.T) {
	assert := assert.New(t)
	assert.Equal("C4", MidiName(60))
	assert.Equal("A4", MidiName(69))
	assert.Equal("C-1", MidiName(0))
	assert.Equal("G9", MidiName(127))
}

func TestSortByOnsetIsStableAndPure(t *testing.T) {
	in := []Note{
		{Pitch: 64, Velocity: 70, Onset: 1.0, Offset: 1.5},
		{Pitch: 60, Velocity: 80, Onset: 0.5, Offset: 1.0},
		{Pitch: 62, Velocity: 75, Onset: 0.5, Offset: 0.9},
	}
	sorted := SortByOnset(in)

	assert := assert.New(t)
	assert.Equal(60, sorted[0].Pitch)
	assert.Equal(62, sorted[1].Pitch)
	assert.Equal(64, sorted[2].Pitch)
	// input untouched
	assert.Equal(64, in[0].Pitch)
}

func TestClampDropsAndCaps(t *testing.T) {
	in := []Note{
		{Pitch: 60, Velocity: 80, Onset: 0.0, Offset: 5.0},
		{Pitch: 62, Velocity: 80, Onset: 3.5, Offset: 4.0},
	}
	out := Clamp(in, 3.0)

	assert := assert.New(t)
	assert.Len(out, 1)
	assert.Equal(60, out[0].Pitch)
	assert.Equal(3.0, out[0].Offset)
}

func TestOverlap(t *testing.T) {
	a := Note{Onset: 0.0, Offset: 1.0}
	b := Note{Onset: 0.5, Offset: 2.0}
	c := Note{Onset: 1.0, Offset: 2.0}

	assert := assert.New(t)
	assert.InDelta(0.5, a.Overlap(b), 1e-9)
	assert.InDelta(0.5, b.Overlap(a), 1e-9)
	assert.Equal(0.0, a.Overlap(c))
}

func TestStrengthPrefersConfidence(t *testing.T) {
	conf := 0.9
	withConf := Note{Velocity: 10, Confidence: &conf}
	withoutConf := Note{Velocity: 127}

	assert := assert.New(t)
	assert.Equal(0.9, withConf.Strength())
	assert.Equal(1.0, withoutConf.Strength())
}

func TestValidateRejectsMalformedRecords(t *testing.T) {
	cases := []struct {
		name string
		note Note
	}{
		{"pitch too high", Note{Pitch: 128, Velocity: 10, Onset: 0, Offset: 1}},
		{"negative pitch", Note{Pitch: -1, Velocity: 10, Onset: 0, Offset: 1}},
		{"negative velocity", Note{Pitch: 60, Velocity: -1, Onset: 0, Offset: 1}},
		{"zero duration", Note{Pitch: 60, Velocity: 10, Onset: 1, Offset: 1}},
		{"negative duration", Note{Pitch: 60, Velocity: 10, Onset: 1, Offset: 0.5}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate([]Note{{Pitch: 60, Velocity: 10, Onset: 0, Offset: 1}, tc.note})
			assert.Error(t, err)
			var inv *InvalidNoteError
			assert.ErrorAs(t, err, &inv)
			assert.Equal(t, 1, inv.Index)
		})
	}
}

func TestValidateAcceptsEmptyInput(t *testing.T) {
	assert.NoError(t, Validate(nil))
}
