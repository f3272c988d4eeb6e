package script

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/jgcodes2020/sm64-tas-scripting/internal/inputs"
	"github.com/jgcodes2020/sm64-tas-scripting/internal/resource"
)

// Body is user code run as a script: the validate/execute/assert triple
// §4.4.4 describes. Each phase returns whether it succeeded; a false
// validate short-circuits execute/assert.
type Body interface {
	Validate(s *Script) bool
	Execute(s *Script) bool
	Assert(s *Script) bool
}

// AdhocFunc is a closure run at a fresh ad-hoc level via ExecuteAdhoc,
// ModifyAdhoc, or TestAdhoc. It returns whether the sub-script succeeded.
type AdhocFunc func(s *Script) bool

// Script is one stack frame of the recursive controller: either the
// top-level script driving a resource.Resource directly (parent == nil), or
// a child script spawned from another via Spawn (parent != nil). Each
// Script additionally maintains its own ad-hoc level stack (§4.4.3).
//
// A Script is single-threaded: it owns its Resource and must never be used
// from more than one goroutine concurrently.
type Script struct {
	resource     resource.Resource
	slots        *resource.SlotManager
	parent       *Script
	track        *inputs.Track // non-nil only for the top-level script
	startHandle  *resource.Handle
	initialFrame Frame
	adhocLevel   int
	levels       []*level
	logger       zerolog.Logger

	longLoadCaching bool
}

// SetLongLoadCaching controls whether LongLoad populates the inputs cache
// while replaying. The original behavior (and this package's
// default) is false: a long load is assumed to be a one-shot jump whose
// intermediate frames are not worth memoizing.
func (s *Script) SetLongLoadCaching(v bool) { s.longLoadCaching = v }

// NewTopLevel constructs the root script driving resource directly. track
// may be nil, meaning every frame absent from every diff resolves to the
// zero input. Construction captures a savestate at the resource's current
// frame, so the script can always be restored back to its starting point.
func NewTopLevel(res resource.Resource, track *inputs.Track, logger zerolog.Logger) (*Script, error) {
	s := &Script{
		resource:    res,
		slots:       resource.NewSlotManager(res),
		track:       track,
		startHandle: resource.StartHandle(),
		logger:      logger,
	}
	s.levels = []*level{newLevel()}
	s.initialFrame = res.CurrentFrame()
	handle, err := s.slots.Allocate()
	if err != nil {
		return nil, fmt.Errorf("script: capture initial save: %w", err)
	}
	s.levels[0].saveBank.Set(s.initialFrame, handle)
	return s, nil
}

// Spawn constructs a child script sharing parent's resource and slot
// manager, positioned at the parent's current frame. Frames the child has no
// diff or cache entry for resolve through the parent, matching the
// original's _parentScript-recursive GetInputsMetadata chain (§4.3). This
// package has no operation that folds a child script's diff back into its
// parent.
func Spawn(parent *Script) (*Script, error) {
	s := &Script{
		resource:    parent.resource,
		slots:       parent.slots,
		parent:      parent,
		startHandle: resource.StartHandle(),
		logger:      parent.logger,
	}
	s.levels = []*level{newLevel()}
	s.initialFrame = parent.CurrentFrame()
	handle, err := s.slots.Allocate()
	if err != nil {
		return nil, fmt.Errorf("script: capture initial save: %w", err)
	}
	s.levels[0].saveBank.Set(s.initialFrame, handle)
	return s, nil
}

// CurrentFrame returns the resource's next-frame-to-advance index.
func (s *Script) CurrentFrame() Frame {
	return s.resource.CurrentFrame()
}

// InitialFrame returns the frame this script (or ad-hoc scope's owning
// script) began at.
func (s *Script) InitialFrame() Frame {
	return s.initialFrame
}

// AdhocLevel returns the current ad-hoc nesting depth (0 = the script's own
// body).
func (s *Script) AdhocLevel() int { return s.adhocLevel }

// Resource exposes the underlying simulator, for capability objects
// (mutation/fitness/projection policies) that need direct memory reads.
func (s *Script) Resource() resource.Resource { return s.resource }

// Run executes the validate/execute/assert life cycle (§4.4.4), each phase
// in its own ad-hoc scope. A failing validate aborts execute and assert and
// returns false.
func (s *Script) Run(body Body) bool {
	// s.levels[level] is re-indexed (never cached as a pointer) because ExecuteAdhoc/
	// ModifyAdhoc push and pop s.levels, which can reallocate its backing
	// array.
	level := s.adhocLevel

	validated, vms := timed(func() bool {
		return s.ExecuteAdhoc(func(sub *Script) bool { return body.Validate(sub) })
	})
	s.levels[level].status.Validated = validated
	s.levels[level].status.ValidateMS = vms
	if !validated {
		return false
	}

	executed, ems := timed(func() bool {
		return s.ModifyAdhoc(func(sub *Script) bool { return body.Execute(sub) })
	})
	s.levels[level].status.Executed = executed
	s.levels[level].status.ExecuteMS = ems
	if !executed {
		return false
	}

	asserted, ams := timed(func() bool {
		return s.ExecuteAdhoc(func(sub *Script) bool { return body.Assert(sub) })
	})
	s.levels[level].status.Asserted = asserted
	s.levels[level].status.AssertMS = ams
	return asserted
}

func timed(fn func() bool) (bool, int64) {
	start := time.Now()
	result := fn()
	return result, time.Since(start).Milliseconds()
}

// Status returns a copy of this script's top-level (adhoc level 0) status
// counters, as of the most recent Run or ad-hoc completion.
func (s *Script) Status() Status {
	return s.levels[0].status
}

// IsDiffEmpty reports whether the base (level 0) diff is empty, matching
// the original's IsDiffEmpty (only ever checks the base diff).
func (s *Script) IsDiffEmpty() bool {
	return s.levels[0].status.Diff.Empty()
}

// GetDiff returns the diff at the current ad-hoc level.
func (s *Script) GetDiff() *inputs.Diff {
	return s.levels[s.adhocLevel].status.Diff
}

// GetBaseDiff returns the script's level-0 diff.
func (s *Script) GetBaseDiff() *inputs.Diff {
	return s.levels[0].status.Diff
}

func (s *Script) setInputs(in inputs.Inputs) {
	buf := s.resource.Addr("gControllerPads", 4)
	buf[0] = byte(in.Buttons)
	buf[1] = byte(in.Buttons >> 8)
	buf[2] = byte(in.StickX)
	buf[3] = byte(in.StickY)
}
