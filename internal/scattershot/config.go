// Package scattershot implements the parallel scattershot explorer: many
// goroutines grow independent chains of input segments from a shared pool
// of discovered states, periodically merging their local discoveries into
// a shared pool and garbage-collecting segments nothing references anymore.
package scattershot

import (
	"errors"
	"fmt"
)

// Configuration controls one explorer run. It is loaded from plain JSON: a
// struct with a Validate method, no hidden defaults applied by the decoder
// itself.
type Configuration struct {
	// Seed seeds every worker's deterministic RNG stream (internal/randutil).
	Seed int64 `json:"seed"`

	// StartFrame is the frame the search root begins at.
	StartFrame int64 `json:"start_frame"`
	// SegmentLength is the number of frames a single mutation grows.
	SegmentLength int `json:"segment_length"`
	// MaxSegments bounds the length of any one segment chain before a
	// worker is forced back to sampling a new parent.
	MaxSegments int `json:"max_segments"`

	// MaxBlocks is the per-thread local block pool capacity.
	MaxBlocks int `json:"max_blocks"`
	// MaxHashes is the per-thread local hash table size.
	MaxHashes int `json:"max_hashes"`
	// MaxSharedBlocks is the shared block pool capacity.
	MaxSharedBlocks int `json:"max_shared_blocks"`
	// MaxSharedHashes is the shared hash table size.
	MaxSharedHashes int `json:"max_shared_hashes"`

	// MaxSharedSegments is the shared segment pool capacity.
	MaxSharedSegments int `json:"max_shared_segments"`
	// MaxLocalSegments is the per-thread local segment pool capacity.
	MaxLocalSegments int `json:"max_local_segments"`
	// MaxLightningLength bounds how many segments a single worker chains
	// onto one sampled parent before forcing a fresh sample.
	MaxLightningLength int `json:"max_lightning_length"`

	// TotalThreads is the number of worker goroutines.
	TotalThreads int `json:"total_threads"`
	// MaxShots is the total number of shots across all threads before
	// the run stops.
	MaxShots int64 `json:"max_shots"`
	// SegmentsPerShot is the number of segments grown per shot.
	SegmentsPerShot int `json:"segments_per_shot"`
	// ShotsPerMerge is how many shots (summed across threads) happen
	// between merge barriers.
	ShotsPerMerge int64 `json:"shots_per_merge"`
	// MergesPerSegmentGC is how many merges happen between segment
	// garbage collection passes.
	MergesPerSegmentGC int `json:"merges_per_segment_gc"`
	// StartFromRootEveryNShots gives each shot a 1-in-N chance of starting
	// from the root instead of a block sampled from the shared pool,
	// keeping the root's neighborhood from starving.
	StartFromRootEveryNShots int64 `json:"start_from_root_every_n_shots"`

	// M64Path names the base input track file. Explorer.Run does not read
	// it: every worker's script starts with no base track, so frames
	// outside a diff resolve to the zero input.
	M64Path string `json:"m64_path"`
	// ResourcePaths lists simulator binaries/assets workers may load from,
	// round-robined across threads.
	ResourcePaths []string `json:"resource_paths"`

	// LongLoadCaching controls whether Script.LongLoad populates the
	// inputs cache while replaying; see internal/script.
	LongLoadCaching bool `json:"long_load_caching"`
}

// Validate reports the first structural problem found.
func (c Configuration) Validate() error {
	if c.SegmentLength <= 0 {
		return errors.New("scattershot: segment length must be > 0")
	}
	if c.MaxSegments <= 0 {
		return errors.New("scattershot: max segments must be > 0")
	}
	if c.MaxBlocks <= 0 {
		return errors.New("scattershot: max blocks must be > 0")
	}
	if c.MaxHashes <= 0 {
		return errors.New("scattershot: max hashes must be > 0")
	}
	if c.MaxHashes < 10*c.MaxBlocks {
		return errors.New("scattershot: max hashes must be at least 10x max blocks")
	}
	if c.MaxSharedBlocks <= 0 {
		return errors.New("scattershot: max shared blocks must be > 0")
	}
	if c.MaxSharedHashes <= 0 {
		return errors.New("scattershot: max shared hashes must be > 0")
	}
	if c.MaxSharedHashes < 10*c.MaxSharedBlocks {
		return errors.New("scattershot: max shared hashes must be at least 10x max shared blocks")
	}
	if c.MaxSharedSegments <= 0 {
		return errors.New("scattershot: max shared segments must be > 0")
	}
	if c.MaxLocalSegments <= 0 {
		return errors.New("scattershot: max local segments must be > 0")
	}
	if c.TotalThreads <= 0 {
		return errors.New("scattershot: total threads must be > 0")
	}
	if c.MaxShots <= 0 {
		return errors.New("scattershot: max shots must be > 0")
	}
	if c.SegmentsPerShot <= 0 {
		return errors.New("scattershot: segments per shot must be > 0")
	}
	if c.ShotsPerMerge <= 0 {
		return errors.New("scattershot: shots per merge must be > 0")
	}
	if c.MergesPerSegmentGC <= 0 {
		return errors.New("scattershot: merges per segment GC must be > 0")
	}
	if len(c.ResourcePaths) == 0 {
		return fmt.Errorf("scattershot: at least one resource path is required")
	}
	return nil
}
