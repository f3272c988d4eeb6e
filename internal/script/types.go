// Package script implements the hierarchical scripting/state engine: a
// recursive, composable controller that drives a resource.Resource
// frame-by-frame, maintains an input diff against a base input track, and
// maintains a hierarchy of savestates alongside nested ad-hoc sub-scripts.
package script

import (
	"github.com/jgcodes2020/sm64-tas-scripting/internal/inputs"
)

// Frame is a non-negative, monotonic (outside of load/rollback) frame index.
type Frame = int64

// Source tags where a resolved input came from, for InputsMetadata.
type Source int

const (
	// SourceDiff means the input was found in a diff entry (this script's or
	// an ad-hoc level's).
	SourceDiff Source = iota
	// SourceCached means the input was found in an inputsCache entry.
	SourceCached
	// SourceOriginal means the input came from the top-level script's base
	// input track.
	SourceOriginal
	// SourceDefault means no diff, cache, or track entry existed; the
	// resolved input is the zero record.
	SourceDefault
)

func (s Source) String() string {
	switch s {
	case SourceDiff:
		return "diff"
	case SourceCached:
		return "cached"
	case SourceOriginal:
		return "original"
	case SourceDefault:
		return "default"
	default:
		return "unknown"
	}
}

// InputsMetadata is a resolved input for a frame plus provenance: the owning
// script, the ad-hoc level that produced it, and a source tag. Provenance
// identifies whose frame-counter and whose future-save creation the lookup
// must attribute to (the "state owner").
type InputsMetadata struct {
	Inputs          inputs.Inputs
	Frame           Frame
	StateOwner      *Script
	StateOwnerLevel int
	Source          Source
}

// SaveMetadata is a lazily-resolved reference to a save: which script and
// ad-hoc level own the save bank entry, and at which frame. IsStartSave
// marks the distinguished pre-script save, which is always valid.
type SaveMetadata struct {
	Script      *Script
	Frame       Frame
	AdhocLevel  int
	IsStartSave bool
}

// Valid reports whether the save still refers to a live slot, lazily
// erasing the save-bank entry if the backing slot was reaped.
func (s SaveMetadata) Valid() bool {
	if s.Script == nil {
		return false
	}
	if s.IsStartSave {
		return true
	}
	if s.AdhocLevel >= len(s.Script.levels) {
		return false
	}
	lvl := s.Script.levels[s.AdhocLevel]
	h, ok := lvl.saveBank.Get(s.Frame)
	if !ok {
		return false
	}
	if h.IsValid() {
		return true
	}
	lvl.saveBank.Delete(s.Frame)
	return false
}

// Status records the running counters and outcome of one script or ad-hoc
// scope, per §3's "status[L]".
type Status struct {
	Diff       *inputs.Diff
	Validated  bool
	Executed   bool
	Asserted   bool
	NSaves     int64
	NLoads     int64
	NAdvances  int64
	ValidateMS int64
	ExecuteMS  int64
	AssertMS   int64
}

func newStatus() *Status {
	return &Status{Diff: inputs.NewDiff()}
}

// AdhocResult is the outcome of ExecuteAdhocWith/ModifyAdhocWith/TestAdhocWith:
// the base status plus a caller-defined custom status value, generalizing
// the original's template overloads taking a custom status type.
type AdhocResult[T any] struct {
	Status Status
	Custom T
}
