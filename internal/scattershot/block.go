package scattershot

import "github.com/jgcodes2020/sm64-tas-scripting/internal/inputs"

// Block is one discovered, deduplicated state. Only the fittest block ever
// seen for a given TState value is kept.
type Block[TState comparable] struct {
	State       TState
	Fitness     float64
	TailSegment *Segment
}

// Segment is one link in a reference-counted chain of input diffs running
// from the search root to a discovered block. Parent is nil for a segment
// grown directly from the root. NReferences is recomputed from scratch by
// SegmentGarbageCollection rather than maintained incrementally (incremental
// cross-thread tracking was tried and abandoned for races).
type Segment struct {
	Parent      *Segment
	Diff        *inputs.Diff
	Frame       int64
	NReferences int
}

// Chain returns the segments from the root down to (and including) tail,
// in replay order. A nil tail yields an empty chain.
func Chain(tail *Segment) []*Segment {
	var reversed []*Segment
	for seg := tail; seg != nil; seg = seg.Parent {
		reversed = append(reversed, seg)
	}
	chain := make([]*Segment, len(reversed))
	for i, seg := range reversed {
		chain[len(reversed)-1-i] = seg
	}
	return chain
}
