// Package stream provides the incremental variant of the cleanup and
// chord-extraction pipeline for live transcription. The frame sampler and
// segment merger run truly one-frame-at-a-time; the note filters need
// look-ahead across a bounded window, so decisions are buffered and
// finalized once the stream clock passes that window. The resulting
// output delay is the configuration's LatencyBudget plus the admission
// slack granted to out-of-order arrivals.
package stream

import (
	"fmt"
	"math"

	"github.com/avolette/chordsift/filters"
	"github.com/avolette/chordsift/frames"
	"github.com/avolette/chordsift/logging"
	"github.com/avolette/chordsift/notes"
	"github.com/avolette/chordsift/pipeline"
)

// Handlers receives finalized stream output. Nil handlers are skipped.
type Handlers struct {
	// Note is called once per cleaned note, in onset order, as soon as
	// the filter decision for it is final.
	Note func(notes.Note)

	// Segment is called once per closed chord segment, in time order.
	Segment func(frames.ChordSegment)
}

// Processor consumes a live note stream and emits cleaned notes and chord
// segments with a bounded delay. Feed notes as they arrive, call Advance
// as the stream clock moves, and Close at end of stream.
type Processor struct {
	config   pipeline.Config
	chain    *filters.Chain
	sampler  *frames.Sampler
	merger   *frames.Merger
	handlers Handlers
	logger   logging.Logger

	// look-behind the filters require before a decision is final; also
	// the slack granted to out-of-order arrivals
	lag float64

	buf []notes.Note
	now float64

	// onsets below this are final: notes admissible in the future cannot
	// reach them through any filter window
	noteHorizon float64

	emitted    int
	nextFrame  int
	lastOffset float64
	closed     bool
}

// NewProcessor creates a streaming processor after validating the
// configuration.
func NewProcessor(config pipeline.Config, handlers Handlers) (*Processor, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &Processor{
		config:      config,
		chain:       filters.NewChainWithParams(config.Filters),
		sampler:     frames.NewSamplerWithParams(config.Sampler),
		merger:      frames.NewMergerWithParams(config.Merger),
		handlers:    handlers,
		logger:      logging.WithFields(logging.Fields{"component": "stream"}),
		lag:         config.FilterLookBehind(),
		noteHorizon: math.Inf(-1),
	}, nil
}

// Lag returns the filter look-behind in seconds. It is both the admission
// slack for out-of-order events and the distance a filter window can reach
// back, so output trails the clock by twice this value.
func (p *Processor) Lag() float64 {
	return p.lag
}

// Feed adds one raw note event. Events may arrive out of order within the
// admission window of one filter look-behind; older events are rejected so
// finalized decisions stay fixed.
func (p *Processor) Feed(n notes.Note) error {
	if p.closed {
		return fmt.Errorf("stream: feed after close")
	}
	if err := notes.Validate([]notes.Note{n}); err != nil {
		return err
	}
	if n.Onset < p.now-p.lag {
		return fmt.Errorf("stream: note at %.3fs arrived beyond the admission window (oldest admissible %.3fs)",
			n.Onset, p.now-p.lag)
	}

	p.buf = append(p.buf, n)
	if n.Offset > p.lastOffset {
		p.lastOffset = n.Offset
	}
	return nil
}

// Advance moves the stream clock to t and finalizes everything the new
// horizon allows: cleaned notes that no admissible future event can reach
// through a filter window, and frames likewise out of reach.
func (p *Processor) Advance(t float64) error {
	if p.closed {
		return fmt.Errorf("stream: advance after close")
	}
	if t < p.now {
		return fmt.Errorf("stream: clock moved backwards (%.3f < %.3f)", t, p.now)
	}
	p.now = t
	p.finalize(t, math.Inf(1))
	return nil
}

// Close ends the stream, finalizes all remaining decisions, flushes the
// merger, and releases the buffer.
func (p *Processor) Close() error {
	if p.closed {
		return nil
	}
	p.closed = true

	p.finalize(math.Inf(1), p.lastOffset)
	if seg := p.merger.Flush(); seg != nil && p.handlers.Segment != nil {
		p.handlers.Segment(*seg)
	}

	p.logger.Debug("stream closed", logging.Fields{
		"notes_emitted": p.emitted,
		"frames":        p.nextFrame,
	})
	p.buf = nil
	return nil
}

// finalize runs the filter chain over the buffered window and emits the
// newly final notes and frames. Feed admits events down to now-lag, and a
// filter window reaches back another lag from there, so only decisions for
// onsets below t-2*lag can no longer change. Emission walks the band
// between the previous horizon and the new one, so a note re-ranked within
// the open window is never emitted twice and never skipped.
func (p *Processor) finalize(t, duration float64) {
	horizon := t - 2*p.lag

	cleaned := p.chain.Apply(p.buf)

	for _, n := range cleaned {
		if n.Onset < p.noteHorizon || n.Onset >= horizon {
			continue
		}
		if p.handlers.Note != nil {
			p.handlers.Note(n)
		}
		p.emitted++
	}
	if horizon > p.noteHorizon {
		p.noteHorizon = horizon
	}

	if !p.config.WriteChords {
		return
	}

	hop := p.config.Sampler.Hop
	maxFrames := math.MaxInt
	if !math.IsInf(duration, 1) {
		maxFrames = p.sampler.NumFrames(duration)
	}
	for p.nextFrame < maxFrames {
		end := float64(p.nextFrame)*hop + hop
		if end+2*p.lag > t {
			break
		}
		f := p.sampler.FrameAt(cleaned, duration, p.nextFrame)
		if seg := p.merger.Push(f); seg != nil && p.handlers.Segment != nil {
			p.handlers.Segment(*seg)
		}
		p.nextFrame++
	}
}
