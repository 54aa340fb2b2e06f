package notes

import "fmt"

// InvalidNoteError reports a malformed note record and its index in the
// input collection so the upstream model output can be diagnosed.
type InvalidNoteError struct {
	Index  int
	Note   Note
	Reason string
}

func (e *InvalidNoteError) Error() string {
	return fmt.Sprintf("invalid note at index %d (pitch=%d onset=%.3f offset=%.3f): %s",
		e.Index, e.Note.Pitch, e.Note.Onset, e.Note.Offset, e.Reason)
}

// Validate checks every record against the ingestion rules: pitch within
// 0-127, non-negative velocity, non-negative onset, offset strictly after
// onset, confidence within [0,1] when present. Malformed records are
// rejected, never coerced. Returns the first violation found.
func Validate(events []Note) error {
	for i, ev := range events {
		if ev.Pitch < 0 || ev.Pitch > 127 {
			return &InvalidNoteError{Index: i, Note: ev, Reason: "pitch outside 0-127"}
		}
		if ev.Velocity < 0 {
			return &InvalidNoteError{Index: i, Note: ev, Reason: "negative velocity"}
		}
		if ev.Onset < 0 {
			return &InvalidNoteError{Index: i, Note: ev, Reason: "negative onset"}
		}
		if ev.Offset <= ev.Onset {
			return &InvalidNoteError{Index: i, Note: ev, Reason: "offset not after onset"}
		}
		if ev.Confidence != nil && (*ev.Confidence < 0 || *ev.Confidence > 1) {
			return &InvalidNoteError{Index: i, Note: ev, Reason: "confidence outside [0,1]"}
		}
	}
	return nil
}
