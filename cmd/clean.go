package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"

	"github.com/avolette/chordsift/ingest"
	"github.com/avolette/chordsift/logging"
	"github.com/avolette/chordsift/output"
	"github.com/avolette/chordsift/pipeline"
)

var (
	cleanOutDir  string
	cleanDumpRaw bool
	noChords     bool

	noConsistency  bool
	noOnsetCluster bool
	noHarmonic     bool

	minDuration       float64
	supportWindow     float64
	minSupportCount   int
	minTotalDurRatio  float64
	onsetTolerance    float64
	maxPerCluster     int
	dedupeWindow      float64
	harmonicIntervals []int
	velocityMargin    int
	overlapFraction   float64
	pitchClassMatch   bool

	hop             float64
	minVelocity     int
	minActive       int
	mergeMinJaccard float64
	mergeMinDur     float64
)

var cleanCmd = &cobra.Command{
	Use:   "clean <file>",
	Short: "Clean a transcription and extract chord segments",
	Long: `Reads note events from a JSON payload or a standard MIDI file,
runs the cleanup filters and chord extraction, and writes
<stem>_notes.txt, <stem>_chords.txt and <stem>_result.json
next to the input (or under --out).`,
	Args: cobra.ExactArgs(1),
	RunE: runClean,
}

func init() {
	f := cleanCmd.Flags()
	f.StringVarP(&cleanOutDir, "out", "o", "", "output directory (default: alongside the input)")
	f.BoolVar(&cleanDumpRaw, "dump-raw", false, "dump the parsed raw note events and exit")
	f.BoolVar(&noChords, "no-chords", false, "skip chord extraction, write notes only")

	f.BoolVar(&noConsistency, "no-consistency", false, "disable the consistency filter")
	f.BoolVar(&noOnsetCluster, "no-onset-cluster", false, "disable onset clustering")
	f.BoolVar(&noHarmonic, "no-harmonic", false, "disable harmonic suppression")

	defaults := pipeline.DefaultConfig()
	f.Float64Var(&minDuration, "min-duration", defaults.Filters.Consistency.MinDuration, "notes at least this long always survive (s)")
	f.Float64Var(&supportWindow, "support-window", defaults.Filters.Consistency.SupportWindow, "support search window around each onset (s)")
	f.IntVar(&minSupportCount, "min-support", defaults.Filters.Consistency.MinSupportCount, "supporting notes required for a short note to survive")
	f.Float64Var(&minTotalDurRatio, "min-total-dur-ratio", defaults.Filters.Consistency.MinTotalDurRatio, "adaptive rescue: keep a short note when its pitch's total duration reaches this fraction of the busiest pitch, 0 = off")
	f.Float64Var(&onsetTolerance, "onset-tolerance", defaults.Filters.OnsetCluster.OnsetTolerance, "onset clustering tolerance (s)")
	f.IntVar(&maxPerCluster, "max-per-cluster", defaults.Filters.OnsetCluster.MaxNotesPerCluster, "cap on notes per onset cluster, 0 = unlimited")
	f.Float64Var(&dedupeWindow, "dedupe-window", defaults.Filters.OnsetCluster.DedupeWindow, "collapse same-pitch notes within this window across clusters, 0 = off (s)")
	f.IntSliceVar(&harmonicIntervals, "harmonic-intervals", defaults.Filters.Harmonic.Intervals, "semitone intervals treated as overtone positions")
	f.IntVar(&velocityMargin, "velocity-margin", defaults.Filters.Harmonic.VelocityMargin, "velocity advantage a fundamental needs over an overtone")
	f.Float64Var(&overlapFraction, "overlap-fraction", defaults.Filters.Harmonic.OverlapFraction, "minimum overlap fraction for overtone suppression")
	f.BoolVar(&pitchClassMatch, "pitch-class", false, "match by pitch class (mod 12) in the consistency and cluster filters")

	f.Float64Var(&hop, "hop", defaults.Sampler.Hop, "chord frame hop (s)")
	f.IntVar(&minVelocity, "min-velocity", defaults.Sampler.MinVelocity, "ignore notes below this velocity when sampling frames")
	f.IntVar(&minActive, "min-active", defaults.Sampler.MinActive, "frames with fewer active notes count as silence")
	f.Float64Var(&mergeMinJaccard, "merge-min-jaccard", defaults.Merger.MergeMinJaccard, "Jaccard similarity needed to extend a chord segment")
	f.Float64Var(&mergeMinDur, "merge-min-dur", defaults.Merger.MergeMinDur, "discard chord segments shorter than this (s)")

	rootCmd.AddCommand(cleanCmd)
}

func cleanConfig() pipeline.Config {
	config := pipeline.DefaultConfig()
	config.Filters.EnableConsistency = !noConsistency
	config.Filters.EnableOnsetCluster = !noOnsetCluster
	config.Filters.EnableHarmonic = !noHarmonic
	config.Filters.Consistency.MinDuration = minDuration
	config.Filters.Consistency.SupportWindow = supportWindow
	config.Filters.Consistency.MinSupportCount = minSupportCount
	config.Filters.Consistency.MinTotalDurRatio = minTotalDurRatio
	config.Filters.Consistency.PitchClassMatch = pitchClassMatch
	config.Filters.OnsetCluster.OnsetTolerance = onsetTolerance
	config.Filters.OnsetCluster.PitchClassMatch = pitchClassMatch
	config.Filters.OnsetCluster.MaxNotesPerCluster = maxPerCluster
	config.Filters.OnsetCluster.DedupeWindow = dedupeWindow
	config.Filters.Harmonic.Intervals = harmonicIntervals
	config.Filters.Harmonic.VelocityMargin = velocityMargin
	config.Filters.Harmonic.OverlapFraction = overlapFraction
	config.WriteChords = !noChords
	config.Sampler.Hop = hop
	config.Sampler.MinVelocity = minVelocity
	config.Sampler.MinActive = minActive
	config.Merger.MergeMinJaccard = mergeMinJaccard
	config.Merger.MergeMinDur = mergeMinDur
	return config
}

func readInput(path string) (*ingest.Payload, error) {
	if strings.EqualFold(filepath.Ext(path), ".mid") || strings.EqualFold(filepath.Ext(path), ".midi") {
		return ingest.ReadMIDIFile(path)
	}
	return ingest.ReadJSONFile(path)
}

func runClean(cmd *cobra.Command, args []string) error {
	input := args[0]

	payload, err := readInput(input)
	if err != nil {
		return fmt.Errorf("reading %s: %w", input, err)
	}
	if cleanDumpRaw {
		spew.Dump(payload)
		return nil
	}

	p, err := pipeline.NewWithConfig(cleanConfig())
	if err != nil {
		return err
	}
	result, err := p.Process(context.Background(), payload.NoteEvents, payload.AudioDur)
	if err != nil {
		return err
	}

	stem := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	dir := cleanOutDir
	if dir == "" {
		dir = filepath.Dir(input)
	}
	out := func(suffix string) string {
		return filepath.Join(dir, stem+suffix)
	}

	notesPath := out("_notes.txt")
	if err := output.SaveText(notesPath, output.NotesText(result.CleanedNotes, "Cleaned note events")); err != nil {
		return err
	}
	written := []string{notesPath}

	if !noChords {
		chordsPath := out("_chords.txt")
		if err := output.SaveText(chordsPath, output.ChordsText(result.Segments, "Chord segments")); err != nil {
			return err
		}
		written = append(written, chordsPath)
	}

	resultPath := out("_result.json")
	if err := output.SaveResultJSON(resultPath, result); err != nil {
		return err
	}
	written = append(written, resultPath)

	logging.Info("clean complete", logging.Fields{
		"run_id":   result.RunID,
		"raw":      result.Stats.RawNotes,
		"cleaned":  result.Stats.CleanedNotes,
		"segments": result.Stats.Segments,
	})
	for _, path := range written {
		fmt.Fprintln(cmd.OutOrStdout(), path)
	}
	return nil
}
