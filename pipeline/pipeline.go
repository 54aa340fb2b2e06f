package pipeline

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat"

	"github.com/avolette/chordsift/filters"
	"github.com/avolette/chordsift/frames"
	"github.com/avolette/chordsift/logging"
	"github.com/avolette/chordsift/notes"
)

// Stats summarizes one pipeline run: how many notes each stage saw and
// basic velocity statistics of the cleaned output.
type Stats struct {
	RawNotes     int     `json:"raw_notes"`
	CleanedNotes int     `json:"cleaned_notes"`
	Removed      int     `json:"removed"`
	Frames       int     `json:"frames"`
	Segments     int     `json:"segments"`
	MeanVelocity float64 `json:"mean_velocity"`
	VelocityStd  float64 `json:"velocity_std"`
}

// Result holds the two pipeline outputs: the cleaned note list in onset
// order and the time-ordered, non-overlapping chord segments.
type Result struct {
	RunID        string                `json:"run_id"`
	AudioDur     float64               `json:"audio_duration_s"`
	CleanedNotes []notes.Note          `json:"note_events"`
	Segments     []frames.ChordSegment `json:"chord_segments"`
	Stats        Stats                 `json:"stats"`
}

// Pipeline runs raw transcription events through note cleanup and chord
// segmentation. A pipeline instance holds no per-run mutable state, so
// concurrent callers can share one instance or build one per audio file.
type Pipeline struct {
	config Config
	chain  *filters.Chain
	logger logging.Logger
}

// New creates a pipeline with the default configuration.
func New() (*Pipeline, error) {
	return NewWithConfig(DefaultConfig())
}

// NewWithConfig creates a pipeline after validating the configuration.
func NewWithConfig(config Config) (*Pipeline, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Pipeline{
		config: config,
		chain:  filters.NewChainWithParams(config.Filters),
		logger: logging.WithFields(logging.Fields{"component": "pipeline"}),
	}, nil
}

// Config returns the pipeline's configuration.
func (p *Pipeline) Config() Config {
	return p.config
}

// Process validates and cleans the raw events and, when chord extraction
// is enabled, derives chord segments. Out-of-order input is tolerated and
// sorted on onset; malformed records abort with the record's index. Empty
// input yields empty outputs.
func (p *Pipeline) Process(ctx context.Context, raw []notes.Note, audioDur float64) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if audioDur < 0 {
		return nil, fmt.Errorf("audio duration must be >= 0, got %v", audioDur)
	}
	if err := notes.Validate(raw); err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	log := p.logger.WithFields(logging.Fields{"run_id": runID})

	if audioDur == 0 {
		audioDur = notes.LastOffset(raw)
	}

	clamped := notes.Clamp(raw, audioDur)
	cleaned := p.chain.Apply(clamped)

	log.Debug("note cleanup finished", logging.Fields{
		"raw":     len(raw),
		"clamped": len(clamped),
		"cleaned": len(cleaned),
	})

	result := &Result{
		RunID:        runID,
		AudioDur:     audioDur,
		CleanedNotes: cleaned,
		Segments:     []frames.ChordSegment{},
	}

	if p.config.WriteChords {
		sampler := frames.NewSamplerWithParams(p.config.Sampler)
		fs := sampler.Sample(cleaned, audioDur)

		merger := frames.NewMergerWithParams(p.config.Merger)
		result.Segments = merger.MergeFrames(fs)
		result.Stats.Frames = len(fs)

		log.Debug("chord extraction finished", logging.Fields{
			"frames":   len(fs),
			"segments": len(result.Segments),
		})
	}

	result.Stats.RawNotes = len(raw)
	result.Stats.CleanedNotes = len(cleaned)
	result.Stats.Removed = len(clamped) - len(cleaned)
	result.Stats.Segments = len(result.Segments)
	if len(cleaned) > 0 {
		velocities := make([]float64, len(cleaned))
		for i, n := range cleaned {
			velocities[i] = float64(n.Velocity)
		}
		result.Stats.MeanVelocity = stat.Mean(velocities, nil)
		if len(velocities) > 1 {
			result.Stats.VelocityStd = stat.StdDev(velocities, nil)
		}
	}

	log.Info("pipeline run complete", logging.Fields{
		"notes":    result.Stats.CleanedNotes,
		"segments": result.Stats.Segments,
	})

	return result, nil
}
