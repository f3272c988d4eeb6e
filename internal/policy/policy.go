// Package policy declares the capabilities a caller injects into the
// explorer: how to project simulator state down to a coarse, comparable
// representation, how to score it, and how to propose new input segments
// to try.
package policy

import (
	"math/rand/v2"

	"github.com/jgcodes2020/sm64-tas-scripting/internal/script"
)

// Projection reduces a script's rich simulator state to the coarse,
// comparable TState the explorer hashes and deduplicates blocks on.
type Projection[TState comparable] interface {
	Project(s *script.Script) TState
}

// Fitness scores a projected state so the explorer can prefer one block
// over another when only one can occupy a hash slot.
type Fitness[TState comparable] interface {
	Score(state TState) float64
}

// Mutation advances s by one segment of new, possibly randomized inputs,
// the source of new search directions layered onto a sampled parent.
// It returns false if it could not produce a viable segment (e.g. the
// simulator reached a terminal condition).
type Mutation[TState comparable] interface {
	Mutate(s *script.Script, rng *rand.Rand) bool
}

// ProjectionFunc adapts a plain function to Projection.
type ProjectionFunc[TState comparable] func(s *script.Script) TState

func (f ProjectionFunc[TState]) Project(s *script.Script) TState { return f(s) }

// FitnessFunc adapts a plain function to Fitness.
type FitnessFunc[TState comparable] func(state TState) float64

func (f FitnessFunc[TState]) Score(state TState) float64 { return f(state) }

// MutationFunc adapts a plain function to Mutation.
type MutationFunc[TState comparable] func(s *script.Script, rng *rand.Rand) bool

func (f MutationFunc[TState]) Mutate(s *script.Script, rng *rand.Rand) bool { return f(s, rng) }
