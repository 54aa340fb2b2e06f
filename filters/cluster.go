package filters

import (
	"fmt"
	"sort"

	"github.com/avolette/chordsift/notes"
)

// OnsetClusterParams contains parameters for the onset clustering filter.
type OnsetClusterParams struct {
	// Notes whose onset is within this distance of the cluster's first
	// note join the cluster (seconds)
	OnsetTolerance float64 `json:"onset_tolerance"`

	// Deduplicate by pitch class (pitch mod 12) instead of exact pitch
	PitchClassMatch bool `json:"pitch_class_match"`

	// Cap on surviving notes per cluster, strongest first. 0 means no cap.
	MaxNotesPerCluster int `json:"max_notes_per_cluster"`

	// After cluster pruning, same-pitch notes whose onsets lie within this
	// window of each other collapse to the strongest instance, even across
	// cluster boundaries. 0 disables the pass.
	DedupeWindow float64 `json:"dedupe_window"`
}

// DefaultOnsetClusterParams returns sensible defaults for piano material.
func DefaultOnsetClusterParams() OnsetClusterParams {
	return OnsetClusterParams{
		OnsetTolerance:     0.04,
		PitchClassMatch:    false,
		MaxNotesPerCluster: 0,
		DedupeWindow:       0.08,
	}
}

// Validate checks parameter ranges before any processing runs.
func (p OnsetClusterParams) Validate() error {
	if p.OnsetTolerance < 0 {
		return fmt.Errorf("onset cluster: onset_tolerance must be >= 0, got %v", p.OnsetTolerance)
	}
	if p.MaxNotesPerCluster < 0 {
		return fmt.Errorf("onset cluster: max_notes_per_cluster must be >= 0, got %d", p.MaxNotesPerCluster)
	}
	if p.DedupeWindow < 0 {
		return fmt.Errorf("onset cluster: dedupe_window must be >= 0, got %v", p.DedupeWindow)
	}
	return nil
}

// OnsetClusterFilter collapses near-duplicate detections of one chord
// attack into a single clean event per pitch, keeping the strongest
// instance. Clustering anchors on the first note of each cluster rather
// than chaining nearest neighbors, so slowly staggered onsets cannot drift
// one cluster across a long span.
type OnsetClusterFilter struct {
	params OnsetClusterParams
}

// NewOnsetClusterFilter creates an onset clustering filter with default
// parameters.
func NewOnsetClusterFilter() *OnsetClusterFilter {
	return NewOnsetClusterFilterWithParams(DefaultOnsetClusterParams())
}

// NewOnsetClusterFilterWithParams creates an onset clustering filter with
// custom parameters.
func NewOnsetClusterFilterWithParams(params OnsetClusterParams) *OnsetClusterFilter {
	return &OnsetClusterFilter{params: params}
}

// Params returns the filter's parameters.
func (f *OnsetClusterFilter) Params() OnsetClusterParams {
	return f.params
}

// Apply returns the deduplicated note list in onset order. The input slice
// is not modified.
func (f *OnsetClusterFilter) Apply(events []notes.Note) []notes.Note {
	if len(events) == 0 {
		return []notes.Note{}
	}

	sorted := notes.SortByOnset(events)

	out := make([]notes.Note, 0, len(sorted))
	for _, cluster := range f.clusters(sorted) {
		out = append(out, f.prune(cluster)...)
	}
	out = notes.SortByOnset(out)
	if f.params.DedupeWindow > 0 {
		out = f.dedupe(out)
	}
	return out
}

// clusters greedily groups the sorted events: a note joins the current
// cluster while its onset stays within OnsetTolerance of the cluster's
// first onset.
func (f *OnsetClusterFilter) clusters(sorted []notes.Note) [][]notes.Note {
	var groups [][]notes.Note
	var current []notes.Note
	anchor := 0.0

	for _, ev := range sorted {
		if len(current) == 0 {
			current = []notes.Note{ev}
			anchor = ev.Onset
			continue
		}
		if ev.Onset-anchor <= f.params.OnsetTolerance {
			current = append(current, ev)
		} else {
			groups = append(groups, current)
			current = []notes.Note{ev}
			anchor = ev.Onset
		}
	}
	if len(current) > 0 {
		groups = append(groups, current)
	}
	return groups
}

// prune keeps the strongest instance per pitch key within one cluster.
// Equal velocities break toward the earlier onset; the cluster arrives in
// onset order so the first seen instance wins ties.
func (f *OnsetClusterFilter) prune(cluster []notes.Note) []notes.Note {
	if len(cluster) == 1 {
		return cluster
	}

	key := func(n notes.Note) int {
		if f.params.PitchClassMatch {
			return n.PitchClass()
		}
		return n.Pitch
	}

	best := make(map[int]notes.Note)
	order := make([]int, 0, len(cluster))
	for _, ev := range cluster {
		k := key(ev)
		cur, seen := best[k]
		if !seen {
			best[k] = ev
			order = append(order, k)
			continue
		}
		if ev.Velocity > cur.Velocity {
			best[k] = ev
		}
	}

	kept := make([]notes.Note, 0, len(order))
	for _, k := range order {
		kept = append(kept, best[k])
	}

	if f.params.MaxNotesPerCluster > 0 && len(kept) > f.params.MaxNotesPerCluster {
		ranked := make([]notes.Note, len(kept))
		copy(ranked, kept)
		sort.SliceStable(ranked, func(i, j int) bool {
			if ranked[i].Velocity != ranked[j].Velocity {
				return ranked[i].Velocity > ranked[j].Velocity
			}
			return ranked[i].Duration() > ranked[j].Duration()
		})
		kept = ranked[:f.params.MaxNotesPerCluster]
	}

	return notes.SortByOnset(kept)
}

// dedupe collapses chains of same-pitch notes even when cluster boundaries
// split them: a note within DedupeWindow of the survivor for its pitch
// challenges it on velocity then duration, ties keeping the earlier note.
// The survivor keeps its own onset, so a chain only extends while each link
// stays within the window of the current survivor.
func (f *OnsetClusterFilter) dedupe(sorted []notes.Note) []notes.Note {
	last := make(map[int]notes.Note)
	kept := make([]notes.Note, 0, len(sorted))

	for _, ev := range sorted {
		prev, seen := last[ev.Pitch]
		if !seen {
			last[ev.Pitch] = ev
			continue
		}
		if ev.Onset-prev.Onset <= f.params.DedupeWindow {
			last[ev.Pitch] = strongerNote(prev, ev)
		} else {
			kept = append(kept, prev)
			last[ev.Pitch] = ev
		}
	}
	for _, ev := range last {
		kept = append(kept, ev)
	}
	return notes.SortByOnset(kept)
}

func strongerNote(a, b notes.Note) notes.Note {
	if b.Velocity != a.Velocity {
		if b.Velocity > a.Velocity {
			return b
		}
		return a
	}
	if b.Duration() > a.Duration() {
		return b
	}
	return a
}
