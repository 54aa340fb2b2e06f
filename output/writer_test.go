package output

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/avolette/chordsift/frames"
	"github.com/avolette/chordsift/notes"
)

func TestNotesText(t *testing.T) {
	events := []notes.Note{
		{Pitch: 64, Velocity: 75, Onset: 0.01, Offset: 0.42},
		{Pitch: 60, Velocity: 80, Onset: 0.00, Offset: 0.40},
	}
	text := NotesText(events, "Filtered notes")
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")

	assert := assert.New(t)
	assert.Equal("Filtered notes", lines[0])
	assert.Equal("idx\tmidi\tname\tonset(s)\toffset(s)\tdur(s)\tvelocity", lines[2])
	assert.Equal("0\t60\tC4\t0.000\t0.400\t0.400\t80", lines[3])
	assert.Equal("1\t64\tE4\t0.010\t0.420\t0.410\t75", lines[4])
}

func TestChordsText(t *testing.T) {
	segs := []frames.ChordSegment{
		{Start: 0.0, End: 0.4, Pitches: []int{60, 64}},
	}
	text := ChordsText(segs, "Chord segments")
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")

	assert := assert.New(t)
	assert.Equal("Chord segments", lines[0])
	assert.Equal("0\t0.000\t0.400\t0.400\tC4-E4", lines[3])
}

func TestEmptyTables(t *testing.T) {
	assert := assert.New(t)
	assert.Contains(NotesText(nil, "t"), "idx\tmidi")
	assert.Contains(ChordsText(nil, "t"), "idx\tstart(s)")
}
