package filters

import (
	"github.com/avolette/chordsift/notes"
)

// ChainParams selects which cleanup stages run. The pipeline order is
// fixed: consistency, onset clustering, harmonic. A disabled stage passes
// its input through unchanged.
type ChainParams struct {
	EnableConsistency  bool `json:"enable_consistency"`
	EnableOnsetCluster bool `json:"enable_onset_cluster"`
	EnableHarmonic     bool `json:"enable_harmonic"`

	Consistency  ConsistencyParams  `json:"consistency"`
	OnsetCluster OnsetClusterParams `json:"onset_cluster"`
	Harmonic     HarmonicParams     `json:"harmonic"`
}

// DefaultChainParams returns a chain with all three stages enabled and
// default stage parameters.
func DefaultChainParams() ChainParams {
	return ChainParams{
		EnableConsistency:  true,
		EnableOnsetCluster: true,
		EnableHarmonic:     true,
		Consistency:        DefaultConsistencyParams(),
		OnsetCluster:       DefaultOnsetClusterParams(),
		Harmonic:           DefaultHarmonicParams(),
	}
}

// Validate checks every enabled stage's parameters.
func (p ChainParams) Validate() error {
	if p.EnableConsistency {
		if err := p.Consistency.Validate(); err != nil {
			return err
		}
	}
	if p.EnableOnsetCluster {
		if err := p.OnsetCluster.Validate(); err != nil {
			return err
		}
	}
	if p.EnableHarmonic {
		if err := p.Harmonic.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Chain runs the enabled cleanup filters in fixed order. Each stage
// consumes its input and produces a fresh list; stages never share
// mutable state.
type Chain struct {
	params       ChainParams
	consistency  *ConsistencyFilter
	onsetCluster *OnsetClusterFilter
	harmonic     *HarmonicFilter
}

// NewChain creates a filter chain with default parameters.
func NewChain() *Chain {
	return NewChainWithParams(DefaultChainParams())
}

// NewChainWithParams creates a filter chain with custom parameters.
func NewChainWithParams(params ChainParams) *Chain {
	return &Chain{
		params:       params,
		consistency:  NewConsistencyFilterWithParams(params.Consistency),
		onsetCluster: NewOnsetClusterFilterWithParams(params.OnsetCluster),
		harmonic:     NewHarmonicFilterWithParams(params.Harmonic),
	}
}

// Params returns the chain's parameters.
func (c *Chain) Params() ChainParams {
	return c.params
}

// Apply runs the enabled stages over the events. With every stage disabled
// this is the identity function on the note list. The input slice is not
// modified.
func (c *Chain) Apply(events []notes.Note) []notes.Note {
	out := make([]notes.Note, len(events))
	copy(out, events)

	if c.params.EnableConsistency {
		out = c.consistency.Apply(out)
	}
	if c.params.EnableOnsetCluster {
		out = c.onsetCluster.Apply(out)
	}
	if c.params.EnableHarmonic {
		out = c.harmonic.Apply(out)
	}
	return out
}
