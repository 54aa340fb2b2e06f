// Package ingest reads raw note events from the formats the upstream
// transcription model and common tooling produce: a JSON event payload or
// a standard MIDI file.
package ingest

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/avolette/chordsift/notes"
)

// Payload is the JSON shape the upstream transcription model emits.
// AudioDur is optional; when absent the pipeline infers duration from the
// last offset.
type Payload struct {
	AudioDur   float64      `json:"audio_duration_s,omitempty"`
	NoteEvents []notes.Note `json:"note_events"`
}

// ReadJSON decodes a raw note payload. Both the wrapped payload shape and
// a bare event array are accepted.
func ReadJSON(r io.Reader) (*Payload, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading note payload: %w", err)
	}

	var payload Payload
	if err := json.Unmarshal(data, &payload); err == nil && payload.NoteEvents != nil {
		return &payload, nil
	}

	var events []notes.Note
	if err := json.Unmarshal(data, &events); err != nil {
		return nil, fmt.Errorf("parsing note payload: %w", err)
	}
	return &Payload{NoteEvents: events}, nil
}

// ReadJSONFile decodes a raw note payload from disk.
func ReadJSONFile(path string) (*Payload, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening note payload: %w", err)
	}
	defer f.Close()
	return ReadJSON(f)
}
