package script

import (
	"github.com/jgcodes2020/sm64-tas-scripting/internal/inputs"
	"github.com/jgcodes2020/sm64-tas-scripting/internal/resource"
)

// AdhocFuncWith is an AdhocFunc that additionally returns a caller-defined
// value alongside its success flag, for ExecuteAdhocWith/ModifyAdhocWith/
// TestAdhocWith.
type AdhocFuncWith[T any] func(s *Script) (bool, T)

func (s *Script) pushLevel() int {
	s.levels = append(s.levels, newLevel())
	s.adhocLevel++
	return s.adhocLevel
}

func (s *Script) popLevel() {
	s.levels = s.levels[:len(s.levels)-1]
	s.adhocLevel--
}

// executeAdhocBase runs fn at a fresh ad-hoc level, then commits the level's
// effects into its parent if commit(result) is true, or reverts the
// resource and bookkeeping back to the frame the level started at
// otherwise. A revert leaves the resource positioned at the frame it was at
// before the call; a commit leaves it wherever fn left it.
func (s *Script) executeAdhocBase(fn func(sub *Script) bool, commit func(ok bool) bool) (bool, Status) {
	startFrame := s.CurrentFrame()
	level := s.pushLevel()
	ok := fn(s)
	status := s.levels[level].status
	if commit(ok) {
		s.applyChildDiff(level)
	} else {
		// The rollback/migration boundary must be the diff's own first
		// frame, not the call's entry frame: if fn rolled back and wrote
		// at an earlier frame, saves between that frame and startFrame are
		// contaminated by the write we are about to discard and must not
		// be handed to the parent as clean.
		cutoff := startFrame
		if !status.Diff.Empty() {
			if first := status.Diff.FirstFrame(); first < cutoff {
				cutoff = first
			}
		}
		if err := s.Revert(cutoff, level, startFrame); err != nil {
			s.logger.Error().Err(err).Int64("frame", cutoff).Msg("ad-hoc revert failed")
		}
	}
	s.popLevel()
	return ok, status
}

// ExecuteAdhoc runs fn at a fresh ad-hoc level and always reverts its
// effects afterward, regardless of outcome. It is used for read-only
// checks (validation, assertions) that must never leave a trace.
func (s *Script) ExecuteAdhoc(fn AdhocFunc) bool {
	ok, _ := s.executeAdhocBase(fn, func(bool) bool { return false })
	return ok
}

// TestAdhoc is a synonym for ExecuteAdhoc, used where the caller's intent
// is purely diagnostic rather than part of the validate/execute/assert life
// cycle.
func (s *Script) TestAdhoc(fn AdhocFunc) bool {
	return s.ExecuteAdhoc(fn)
}

// ModifyAdhoc runs fn at a fresh ad-hoc level and commits its effects into
// the parent level if fn returns true, or reverts them if fn returns false.
func (s *Script) ModifyAdhoc(fn AdhocFunc) bool {
	ok, _ := s.executeAdhocBase(fn, func(ok bool) bool { return ok })
	return ok
}

// ExecuteAdhocWith runs fn at a fresh ad-hoc level, always reverting
// afterward, and returns its status plus the custom value fn produced.
func ExecuteAdhocWith[T any](s *Script, fn AdhocFuncWith[T]) AdhocResult[T] {
	var custom T
	_, status := s.executeAdhocBase(func(sub *Script) bool {
		var innerOK bool
		innerOK, custom = fn(sub)
		return innerOK
	}, func(bool) bool { return false })
	return AdhocResult[T]{Status: status, Custom: custom}
}

// ModifyAdhocWith runs fn at a fresh ad-hoc level, committing on success and
// reverting on failure, and returns its status plus the custom value fn
// produced.
func ModifyAdhocWith[T any](s *Script, fn AdhocFuncWith[T]) AdhocResult[T] {
	var custom T
	_, status := s.executeAdhocBase(func(sub *Script) bool {
		var innerOK bool
		innerOK, custom = fn(sub)
		return innerOK
	}, func(ok bool) bool { return ok })
	return AdhocResult[T]{Status: status, Custom: custom}
}

// TestAdhocWith is a synonym for ExecuteAdhocWith.
func TestAdhocWith[T any](s *Script, fn AdhocFuncWith[T]) AdhocResult[T] {
	return ExecuteAdhocWith(s, fn)
}

// applyChildDiff folds level's bookkeeping (diff, save bank, frame counter,
// and status counters) up into its parent level. The resource's actual
// frame advances already happened while the child ran; this only merges
// the records of them.
//
// A committed child diff is a retroactive input change exactly like a
// direct AdvanceFrameWrite, so it must invalidate the parent's existing
// inputsCache entries at and after the diff's first frame and its saveCache
// entries strictly after it, the same way AdvanceFrameWrite invalidates its
// own level's caches.
func (s *Script) applyChildDiff(level int) {
	if level == 0 {
		return
	}
	child := s.levels[level]
	parent := s.levels[level-1]

	if !child.status.Diff.Empty() {
		firstFrame := child.status.Diff.FirstFrame()
		parent.inputsCache.EraseFrom(firstFrame)
		parent.saveCache.EraseAfter(firstFrame)
	}

	child.status.Diff.Each(func(frame Frame, rec inputs.Inputs) {
		parent.status.Diff.Set(frame, rec)
	})
	child.saveBank.Each(func(frame int64, h *resource.Handle) {
		parent.saveBank.Set(frame, h)
	})
	child.frameCounter.Each(func(frame int64, count uint64) {
		parent.frameCounter.Set(frame, count)
	})
	parent.status.NSaves += child.status.NSaves
	parent.status.NLoads += child.status.NLoads
	parent.status.NAdvances += child.status.NAdvances
}
