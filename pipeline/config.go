package pipeline

import (
	"fmt"

	"github.com/avolette/chordsift/filters"
	"github.com/avolette/chordsift/frames"
)

// Config is the full tuning surface of the cleanup and chord-extraction
// pipeline. Zero stages may be enabled; a disabled stage passes its input
// through unchanged.
type Config struct {
	Filters filters.ChainParams `json:"filters"`

	// Chord extraction. When WriteChords is false the pipeline stops
	// after note cleanup.
	WriteChords bool                `json:"write_chords"`
	Sampler     frames.SamplerParams `json:"sampler"`
	Merger      frames.MergerParams  `json:"merger"`
}

// ConfigError reports an invalid configuration value found before any
// stage runs.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid config: %s: %s", e.Field, e.Reason)
}

// DefaultConfig returns the default pipeline configuration: all three
// cleanup filters enabled, chord extraction enabled.
func DefaultConfig() Config {
	return Config{
		Filters:     filters.DefaultChainParams(),
		WriteChords: true,
		Sampler:     frames.DefaultSamplerParams(),
		Merger:      frames.DefaultMergerParams(),
	}
}

// Validate fails fast on any out-of-range parameter. No partial pipeline
// execution happens on an invalid config.
func (c Config) Validate() error {
	if err := c.Filters.Validate(); err != nil {
		return &ConfigError{Field: "filters", Reason: err.Error()}
	}
	if c.WriteChords {
		if err := c.Sampler.Validate(); err != nil {
			return &ConfigError{Field: "sampler", Reason: err.Error()}
		}
		if err := c.Merger.Validate(); err != nil {
			return &ConfigError{Field: "merger", Reason: err.Error()}
		}
	}
	return nil
}

// LatencyBudget returns the bounded output delay a streaming deployment of
// this configuration must accept for in-order input: the consistency filter
// cannot finalize a short note before its support window has passed, onset
// clustering cannot finalize a decision before its tolerance and dedupe
// windows have passed, and a frame is only complete one hop after it
// starts. Streams that also admit out-of-order events pay the admission
// slack on top (see stream.Processor).
func (c Config) LatencyBudget() float64 {
	budget := c.FilterLookBehind()
	if c.WriteChords {
		budget += c.Sampler.Hop
	}
	return budget
}

// FilterLookBehind returns how far behind the newest event the enabled
// filters can still change a keep/drop decision.
func (c Config) FilterLookBehind() float64 {
	lag := 0.0
	if c.Filters.EnableConsistency && c.Filters.Consistency.SupportWindow > lag {
		lag = c.Filters.Consistency.SupportWindow
	}
	if c.Filters.EnableOnsetCluster {
		if c.Filters.OnsetCluster.OnsetTolerance > lag {
			lag = c.Filters.OnsetCluster.OnsetTolerance
		}
		if c.Filters.OnsetCluster.DedupeWindow > lag {
			lag = c.Filters.OnsetCluster.DedupeWindow
		}
	}
	return lag
}
