package scattershot

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/jgcodes2020/sm64-tas-scripting/internal/policy"
	"github.com/jgcodes2020/sm64-tas-scripting/internal/resource"
)

// HashFunc computes a state's hash for the explorer's open-addressed block
// tables. Go gives no safe, portable way to hash an arbitrary struct's raw
// bytes (struct layout is not guaranteed), so the caller supplies this
// instead — usually by encoding TState to bytes and calling HashBytes.
type HashFunc[TState comparable] func(state TState) uint64

// ResourceFactory builds one Resource instance per worker goroutine. Each
// Resource is owned by exactly one goroutine for the lifetime of the run.
type ResourceFactory func(resourcePath string) (resource.Resource, error)

// Explorer runs the scattershot search: TotalThreads goroutines grow
// segment chains independently, merging into a shared block/segment pool
// at each barrier.
type Explorer[TState comparable] struct {
	config      Configuration
	hash        HashFunc[TState]
	projection  policy.Projection[TState]
	fitness     policy.Fitness[TState]
	mutation    policy.Mutation[TState]
	newResource ResourceFactory
	logger      zerolog.Logger

	mu sync.Mutex // guards the shared pool only; thread-local pools are unshared

	threadBlocks     [][]Block[TState]
	threadHashTables [][]int32
	threadNBlocks    []int

	sharedBlocks     []Block[TState]
	sharedHashTable  []int32
	nSharedBlocks    int

	threadSegments  [][]*Segment
	threadNSegments []int

	sharedSegments  []*Segment
	nSharedSegments int

	root *Segment
}

// New builds an Explorer, validating config and allocating its fixed
// arenas (per-thread and shared block/hash/segment pools), mirroring the
// original's Scattershot constructor's calloc/malloc of AllBlocks/
// AllHashTables/AllSegments sized off Configuration fields.
func New[TState comparable](
	config Configuration,
	hash HashFunc[TState],
	projection policy.Projection[TState],
	fitness policy.Fitness[TState],
	mutation policy.Mutation[TState],
	newResource ResourceFactory,
	logger zerolog.Logger,
) (*Explorer[TState], error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	e := &Explorer[TState]{
		config:      config,
		hash:        hash,
		projection:  projection,
		fitness:     fitness,
		mutation:    mutation,
		newResource: newResource,
		logger:      logger,
		root:        &Segment{Frame: config.StartFrame},
	}

	e.threadBlocks = make([][]Block[TState], config.TotalThreads)
	e.threadHashTables = make([][]int32, config.TotalThreads)
	e.threadNBlocks = make([]int, config.TotalThreads)
	e.threadSegments = make([][]*Segment, config.TotalThreads)
	e.threadNSegments = make([]int, config.TotalThreads)

	for t := 0; t < config.TotalThreads; t++ {
		e.threadBlocks[t] = make([]Block[TState], config.MaxBlocks)
		e.threadHashTables[t] = newFilledTable(config.MaxHashes)
		e.threadSegments[t] = make([]*Segment, config.MaxLocalSegments)
	}

	e.sharedBlocks = make([]Block[TState], config.MaxSharedBlocks)
	e.sharedHashTable = newFilledTable(config.MaxSharedHashes)
	e.sharedSegments = make([]*Segment, config.MaxSharedSegments)

	return e, nil
}

func newFilledTable(n int) []int32 {
	t := make([]int32, n)
	for i := range t {
		t[i] = notFound
	}
	return t
}

// insertOrUpdateBlock inserts state into threadID's local pool, or updates
// the existing entry's fitness/tail segment if it is already present and
// the new fitness is better. Mirrors StateBin::GetBlockIndex +
// Scattershot's insertion logic.
func (e *Explorer[TState]) insertOrUpdateBlock(threadID int, state TState, fit float64, tail *Segment) {
	blocks := e.threadBlocks[threadID]
	table := e.threadHashTables[threadID]
	n := e.threadNBlocks[threadID]

	h := e.hash(state)
	idx := getBlockIndex(h, table, blocks, state, 0, n)
	switch {
	case idx == notFound:
		e.logger.Warn().Int("thread", threadID).Msg("local hash table full, dropping candidate block")
	case idx < n:
		if fit > blocks[idx].Fitness {
			blocks[idx] = Block[TState]{State: state, Fitness: fit, TailSegment: tail}
		}
	default: // idx == n: not present
		if n >= len(blocks) {
			e.logger.Warn().Int("thread", threadID).Msg("local block pool full, dropping candidate block")
			return
		}
		newIdx := findNewHashIndex(h, table)
		if newIdx == notFound {
			e.logger.Warn().Int("thread", threadID).Msg("local hash table full, dropping candidate block")
			return
		}
		table[newIdx] = int32(n)
		blocks[n] = Block[TState]{State: state, Fitness: fit, TailSegment: tail}
		e.threadNBlocks[threadID] = n + 1
	}
}

// insertSegment appends seg to threadID's local segment pool, dropping it
// with a log if the pool is already full (the caller will simply not be
// able to reference it further this round).
func (e *Explorer[TState]) insertSegment(threadID int, seg *Segment) bool {
	n := e.threadNSegments[threadID]
	if n >= len(e.threadSegments[threadID]) {
		e.logger.Warn().Int("thread", threadID).Msg("local segment pool full, dropping segment")
		return false
	}
	e.threadSegments[threadID][n] = seg
	e.threadNSegments[threadID] = n + 1
	return true
}

// mergeBlocks folds every thread-local block pool into the shared pool,
// keeping the fitter of any two blocks with the same state, then clears
// the thread-local pools. Mirrors Scattershot::MergeBlocks.
func (e *Explorer[TState]) mergeBlocks() {
	e.mu.Lock()
	defer e.mu.Unlock()

	for t := 0; t < e.config.TotalThreads; t++ {
		for n := 0; n < e.threadNBlocks[t]; n++ {
			block := e.threadBlocks[t][n]
			h := e.hash(block.State)
			idx := getBlockIndex(h, e.sharedHashTable, e.sharedBlocks, block.State, 0, e.nSharedBlocks)
			switch {
			case idx == notFound:
				e.logger.Warn().Msg("shared hash table full, dropping merged block")
			case idx < e.nSharedBlocks:
				if block.Fitness > e.sharedBlocks[idx].Fitness {
					e.sharedBlocks[idx] = block
				}
			default:
				if e.nSharedBlocks >= len(e.sharedBlocks) {
					e.logger.Warn().Msg("shared block pool full, dropping merged block")
					continue
				}
				newIdx := findNewHashIndex(h, e.sharedHashTable)
				if newIdx == notFound {
					e.logger.Warn().Msg("shared hash table full, dropping merged block")
					continue
				}
				e.sharedHashTable[newIdx] = int32(e.nSharedBlocks)
				e.sharedBlocks[e.nSharedBlocks] = block
				e.nSharedBlocks++
			}
		}
		for i := range e.threadHashTables[t] {
			e.threadHashTables[t][i] = notFound
		}
		e.threadNBlocks[t] = 0
	}
}

// mergeSegments moves every thread-local segment into the shared pool and
// clears the thread-local pools. Mirrors Scattershot::MergeSegments.
func (e *Explorer[TState]) mergeSegments() {
	e.mu.Lock()
	defer e.mu.Unlock()

	for t := 0; t < e.config.TotalThreads; t++ {
		for n := 0; n < e.threadNSegments[t]; n++ {
			if e.nSharedSegments >= len(e.sharedSegments) {
				e.logger.Warn().Msg("shared segment pool full, dropping merged segment")
				continue
			}
			e.sharedSegments[e.nSharedSegments] = e.threadSegments[t][n]
			e.nSharedSegments++
		}
		e.threadNSegments[t] = 0
	}
}

// segmentGarbageCollection recomputes reference counts for every shared
// segment from scratch (parent pointers plus each shared block's tail) and
// drops any segment nothing references. Mirrors
// Scattershot::SegmentGarbageCollection, including its single sweep: a
// dropped segment decrements its parent's count, so a parent left
// unreferenced is dropped in the same sweep only if the sweep has not
// already passed its position.
func (e *Explorer[TState]) segmentGarbageCollection() {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i := 0; i < e.nSharedSegments; i++ {
		e.sharedSegments[i].NReferences = 0
	}
	for i := 0; i < e.nSharedSegments; i++ {
		if p := e.sharedSegments[i].Parent; p != nil {
			p.NReferences++
		}
	}
	for i := 0; i < e.nSharedBlocks; i++ {
		if tail := e.sharedBlocks[i].TailSegment; tail != nil {
			tail.NReferences++
		}
	}

	for i := 0; i < e.nSharedSegments; {
		seg := e.sharedSegments[i]
		if seg.NReferences == 0 {
			if seg.Parent != nil {
				seg.Parent.NReferences--
			}
			e.nSharedSegments--
			e.sharedSegments[i] = e.sharedSegments[e.nSharedSegments]
			e.sharedSegments[e.nSharedSegments] = nil
			continue
		}
		i++
	}
}

// SharedBlockCount reports how many distinct states the shared pool
// currently holds.
func (e *Explorer[TState]) SharedBlockCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.nSharedBlocks
}

// BestBlock returns the highest-fitness block discovered so far, or false
// if none have been merged yet.
func (e *Explorer[TState]) BestBlock() (Block[TState], bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.nSharedBlocks == 0 {
		return Block[TState]{}, false
	}
	best := e.sharedBlocks[0]
	for i := 1; i < e.nSharedBlocks; i++ {
		if e.sharedBlocks[i].Fitness > best.Fitness {
			best = e.sharedBlocks[i]
		}
	}
	return best, true
}

func (e *Explorer[TState]) resourcePathFor(threadID int) (string, error) {
	if len(e.config.ResourcePaths) == 0 {
		return "", fmt.Errorf("scattershot: no resource paths configured")
	}
	return e.config.ResourcePaths[threadID%len(e.config.ResourcePaths)], nil
}
