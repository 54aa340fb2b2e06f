package ingest

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"sort"

	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/avolette/chordsift/notes"
)

type noteEvent struct {
	atMicros int64
	isOff    bool
	key      uint8
	velocity uint8
}

// ReadMIDIFile parses a standard MIDI file and pairs note-on/note-off
// messages into note events with onsets and offsets in seconds. A note-on
// with velocity zero counts as a note-off, per the MIDI convention.
func ReadMIDIFile(path string) (p *Payload, e error) {
	// smf can panic on malformed files
	defer func() {
		if r, ok := recover().(string); ok {
			e = errors.New(r)
		}
	}()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading midi file: %w", err)
	}
	s, err := smf.ReadFrom(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parsing midi file: %w", err)
	}
	return fromSMF(s)
}

func fromSMF(s *smf.SMF) (*Payload, error) {
	var raw []noteEvent

	for _, track := range s.Tracks {
		var absTicks int64
		for _, event := range track {
			absTicks += int64(event.Delta)
			absTime := s.TimeAt(absTicks)
			var channel, key, velocity uint8
			switch {
			case event.Message.GetNoteStart(&channel, &key, &velocity):
				raw = append(raw, noteEvent{atMicros: absTime, key: key, velocity: velocity})
			case event.Message.GetNoteEnd(&channel, &key):
				raw = append(raw, noteEvent{atMicros: absTime, isOff: true, key: key})
			}
		}
	}

	// note-offs first on equal timestamps so re-struck notes pair cleanly
	sort.SliceStable(raw, func(i, j int) bool {
		if raw[i].atMicros != raw[j].atMicros {
			return raw[i].atMicros < raw[j].atMicros
		}
		return raw[i].isOff && !raw[j].isOff
	})

	var events []notes.Note
	open := make(map[uint8]notes.Note)
	for _, ev := range raw {
		secs := float64(ev.atMicros) / 1e6
		if ev.isOff {
			n, ok := open[ev.key]
			if !ok {
				continue // off without a matching on
			}
			delete(open, ev.key)
			n.Offset = secs
			if n.Offset > n.Onset {
				events = append(events, n)
			}
			continue
		}
		// a re-struck key implicitly ends the previous note
		if prev, ok := open[ev.key]; ok {
			prev.Offset = secs
			if prev.Offset > prev.Onset {
				events = append(events, prev)
			}
		}
		open[ev.key] = notes.Note{
			Pitch:    int(ev.key),
			Velocity: int(ev.velocity),
			Onset:    secs,
		}
	}
	// notes still sounding at end of file are dropped: without an off
	// their duration is unknown

	events = notes.SortByOnset(events)
	return &Payload{
		AudioDur:   notes.LastOffset(events),
		NoteEvents: events,
	}, nil
}
