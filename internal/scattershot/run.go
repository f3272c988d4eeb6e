package scattershot

import (
	"context"
	"math/rand/v2"

	"golang.org/x/sync/errgroup"

	"github.com/jgcodes2020/sm64-tas-scripting/internal/randutil"
	"github.com/jgcodes2020/sm64-tas-scripting/internal/script"
)

// worker owns one thread's persistent Script and RNG stream for the
// lifetime of a Run call.
type worker struct {
	id  int
	s   *script.Script
	rng *rand.Rand
}

// Run drives the explorer to completion: each of config.TotalThreads
// workers grows segment chains independently for a round of
// ShotsPerMerge/TotalThreads shots, then all workers barrier while the
// shared pool absorbs the round's discoveries (mergeBlocks, mergeSegments,
// and periodically segmentGarbageCollection).
func (e *Explorer[TState]) Run(ctx context.Context) error {
	workers := make([]*worker, e.config.TotalThreads)
	for t := 0; t < e.config.TotalThreads; t++ {
		path, err := e.resourcePathFor(t)
		if err != nil {
			return err
		}
		res, err := e.newResource(path)
		if err != nil {
			return err
		}
		s, err := script.NewTopLevel(res, nil, e.logger.With().Int("thread", t).Logger())
		if err != nil {
			return err
		}
		s.SetLongLoadCaching(e.config.LongLoadCaching)
		workers[t] = &worker{id: t, s: s, rng: randutil.New(e.config.Seed, int64(t))}
	}

	var totalShots int64
	var merges int

	for totalShots < e.config.MaxShots {
		if err := ctx.Err(); err != nil {
			return err
		}

		roundShots := e.config.ShotsPerMerge
		if remaining := e.config.MaxShots - totalShots; remaining < roundShots {
			roundShots = remaining
		}
		perWorker := roundShots / int64(e.config.TotalThreads)
		if perWorker == 0 {
			perWorker = 1
		}

		group, groupCtx := errgroup.WithContext(ctx)
		for _, w := range workers {
			w := w
			group.Go(func() error {
				return e.runWorkerShots(groupCtx, w, perWorker)
			})
		}
		if err := group.Wait(); err != nil {
			return err
		}
		totalShots += perWorker * int64(e.config.TotalThreads)

		e.mergeBlocks()
		e.mergeSegments()
		merges++
		if merges%e.config.MergesPerSegmentGC == 0 {
			e.segmentGarbageCollection()
		}

		best, ok := e.BestBlock()
		if ok {
			// seed+shots is enough to reproduce this window of the search: a
			// rerun with the same Configuration.Seed replays byte-identical
			// worker RNG streams up through totalShots.
			e.logger.Info().
				Int64("seed", e.config.Seed).
				Int64("shots", totalShots).
				Int("blocks", e.SharedBlockCount()).
				Float64("best_fitness", best.Fitness).
				Msg("merge round complete")
		}
	}
	return nil
}

// runWorkerShots grows n shots' worth of segments on w, sampling a parent
// (root or shared block) at the start of every shot. A shot grows at most
// SegmentsPerShot and at most MaxLightningLength segments, and stops once
// the chain from the root reaches MaxSegments segments.
func (e *Explorer[TState]) runWorkerShots(ctx context.Context, w *worker, n int64) error {
	for i := int64(0); i < n; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		var parent *Segment
		if e.config.StartFromRootEveryNShots > 0 && w.rng.Float64() < 1.0/float64(e.config.StartFromRootEveryNShots) {
			parent = nil
		} else if sampled, ok := e.sampleParent(w.rng); ok {
			parent = sampled
		}

		if err := e.replayTo(w.s, parent); err != nil {
			return err
		}

		tail := parent
		depth := len(Chain(parent))
		grown := 0
		for seg := 0; seg < e.config.SegmentsPerShot && grown < e.config.MaxLightningLength && depth+grown < e.config.MaxSegments; seg++ {
			next, ok := e.growSegment(w, tail)
			if !ok {
				break
			}
			tail = next
			grown++
		}
	}
	return nil
}

// sampleParent picks a uniformly random block from the shared pool and
// returns its tail segment, or false if the shared pool is still empty
// (every worker must then start from root).
func (e *Explorer[TState]) sampleParent(rng *rand.Rand) (*Segment, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.nSharedBlocks == 0 {
		return nil, false
	}
	idx := rng.IntN(e.nSharedBlocks)
	return e.sharedBlocks[idx].TailSegment, true
}

// replayTo resets s to the search root (its own construction-time save at
// config.StartFrame) and re-applies every segment diff from root to
// parent in order. A nil parent leaves s sitting at the root.
func (e *Explorer[TState]) replayTo(s *script.Script, parent *Segment) error {
	if err := s.Restore(e.config.StartFrame); err != nil {
		return err
	}
	for _, seg := range Chain(parent) {
		s.Apply(seg.Diff)
	}
	return nil
}

// growSegment runs one mutation on s starting from wherever replayTo (or a
// prior growSegment call) left it, records the resulting frames as a new
// Segment hung off parent, and folds the projected/scored state into the
// worker's local block pool. It returns the new segment and true, or
// (nil, false) if the mutation could not produce a viable segment.
func (e *Explorer[TState]) growSegment(w *worker, parent *Segment) (*Segment, bool) {
	start := w.s.CurrentFrame()
	if !e.mutation.Mutate(w.s, w.rng) {
		return nil, false
	}
	end := w.s.CurrentFrame() - 1
	if end < start {
		return nil, false
	}

	seg := &Segment{Parent: parent, Diff: w.s.InputsRange(start, end), Frame: end + 1}
	if !e.insertSegment(w.id, seg) {
		return nil, false
	}

	state := e.projection.Project(w.s)
	fit := e.fitness.Score(state)
	e.insertOrUpdateBlock(w.id, state, fit, seg)

	return seg, true
}
