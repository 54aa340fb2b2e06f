// Package output renders pipeline results for the downstream writers: a
// tabular notes listing, a tabular chord-segment listing, and the JSON
// result payload. Formatting only; no algorithmic content.
package output

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/avolette/chordsift/frames"
	"github.com/avolette/chordsift/notes"
	"github.com/avolette/chordsift/pipeline"
)

// NotesText renders a note list as a tab-separated table with a title
// line, in onset order.
func NotesText(events []notes.Note, title string) string {
	var b strings.Builder
	b.WriteString(title)
	b.WriteString("\n\nidx\tmidi\tname\tonset(s)\toffset(s)\tdur(s)\tvelocity\n")
	for i, n := range notes.SortByOnset(events) {
		fmt.Fprintf(&b, "%d\t%d\t%s\t%.3f\t%.3f\t%.3f\t%d\n",
			i, n.Pitch, n.Name(), n.Onset, n.Offset, n.Duration(), n.Velocity)
	}
	return b.String()
}

// ChordsText renders chord segments as a tab-separated table with a title
// line.
func ChordsText(segments []frames.ChordSegment, title string) string {
	var b strings.Builder
	b.WriteString(title)
	b.WriteString("\n\nidx\tstart(s)\tend(s)\tdur(s)\tnotes\n")
	for i, s := range segments {
		fmt.Fprintf(&b, "%d\t%.3f\t%.3f\t%.3f\t%s\n",
			i, s.Start, s.End, s.Duration(), s.Name())
	}
	return b.String()
}

// ResultJSON renders the full pipeline result as indented JSON.
func ResultJSON(result *pipeline.Result) ([]byte, error) {
	return json.MarshalIndent(result, "", "  ")
}

// SaveText writes text to path, creating or truncating the file.
func SaveText(path, text string) error {
	return os.WriteFile(path, []byte(text), 0o644)
}

// SaveResultJSON writes the JSON result payload to path.
func SaveResultJSON(path string, result *pipeline.Result) error {
	data, err := ResultJSON(result)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
