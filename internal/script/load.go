package script

import (
	"fmt"

	"github.com/jgcodes2020/sm64-tas-scripting/internal/orderedmap"
	"github.com/jgcodes2020/sm64-tas-scripting/internal/resource"
)

// GetLatestSave resolves the most recent save at or before frame: every
// ad-hoc level's saveBank/saveCache (current down to 0) and the parent
// script's own result are all candidates, and the one with the largest
// frame wins — not whichever level happens to have any entry first. An
// outer, less-nested level can hold a strictly more recent save than an
// inner one, so this must never return on the first non-empty level.
func (s *Script) GetLatestSave(frame Frame) SaveMetadata {
	best := SaveMetadata{Script: s, Frame: s.initialFrame, AdhocLevel: 0, IsStartSave: true}
	if s.parent != nil {
		best = s.parent.GetLatestSave(frame)
	}

	for lvl := s.adhocLevel; lvl >= 0; lvl-- {
		l := s.levels[lvl]
		if key, h, ok := l.saveBank.LastAtOrBefore(frame); ok && h.IsValid() && (key > best.Frame || (key == best.Frame && best.IsStartSave)) {
			best = SaveMetadata{Script: s, Frame: key, AdhocLevel: lvl}
		}
		if meta, ok := l.saveCache.Get(frame); ok && meta.Valid() && meta.Frame > best.Frame {
			best = meta
		}
	}
	return best
}

// GetLatestSaveAndCache resolves frame via GetLatestSave and, unless the
// result already lives in the current level's own save bank, memoizes it
// into the current level's saveCache.
func (s *Script) GetLatestSaveAndCache(frame Frame) SaveMetadata {
	meta := s.GetLatestSave(frame)
	lvl := s.levels[s.adhocLevel]
	if meta.Script == s && meta.AdhocLevel == s.adhocLevel {
		return meta
	}
	lvl.saveCache.Set(frame, meta)
	return meta
}

func (s *Script) handleOf(save SaveMetadata) (*resource.Handle, error) {
	if save.IsStartSave {
		return save.Script.startHandle, nil
	}
	h, ok := save.Script.levels[save.AdhocLevel].saveBank.Get(save.Frame)
	if !ok {
		return nil, fmt.Errorf("script: save at frame %d, level %d no longer in bank", save.Frame, save.AdhocLevel)
	}
	return h, nil
}

// loadBase loads save's backing slot into the resource and records the load
// in the current ad-hoc level's load tracker. desync suppresses the NLoads
// counter, for internal rollbacks that aren't a script-visible load.
func (s *Script) loadBase(save SaveMetadata, desync bool) error {
	if save.IsStartSave {
		// The start save is a sentinel for "no physical slot was ever taken
		// beyond the one captured at construction and already loaded by the
		// caller"; level 0's saveBank always holds a real entry at
		// initialFrame, so this path is a defensive fallback only.
		return nil
	}
	h, err := s.handleOf(save)
	if err != nil {
		return err
	}
	if err := s.resource.Load(h.ID()); err != nil {
		return fmt.Errorf("script: load slot %d: %w", h.ID(), err)
	}
	lvl := s.levels[s.adhocLevel]
	lvl.loadTracker.Set(save.Frame, struct{}{})
	if !desync {
		lvl.status.NLoads++
	}
	return nil
}

// Restore loads the nearest save at or before frame, then replays forward
// to frame via AdvanceFrameRead. It is the primitive every other load
// operation in this file is built from.
func (s *Script) Restore(frame Frame) error {
	return s.restore(frame, false, true)
}

func (s *Script) restore(frame Frame, desync, cache bool) error {
	save := s.GetLatestSaveAndCache(frame)
	if err := s.loadBase(save, desync); err != nil {
		return err
	}
	for s.CurrentFrame() < frame {
		if cache {
			s.AdvanceFrameRead()
		} else {
			s.advanceFrameReadUncached()
		}
	}
	return nil
}

// Load restores the script to frame, the common entry point used by script
// bodies that need to rewind or jump ahead within their own diff.
func (s *Script) Load(frame Frame) error {
	return s.Restore(frame)
}

// LongLoad restores to frame, but only pays for an actual savestate load
// when the resource judges it cheaper than replaying forward from where it
// already sits (resource.ShouldLoad). Short forward jumps replay in place
// instead of reloading and re-simulating from an earlier save. Whether the
// replay populates the inputs cache is controlled by
// SetLongLoadCaching (default false); the save lookup itself is memoized in
// the save cache either way.
func (s *Script) LongLoad(frame Frame) error {
	current := s.CurrentFrame()
	if frame >= current && !s.resource.ShouldLoad(frame-current) {
		for s.CurrentFrame() < frame {
			if s.longLoadCaching {
				s.AdvanceFrameRead()
			} else {
				s.advanceFrameReadUncached()
			}
		}
		return nil
	}
	return s.restore(frame, false, s.longLoadCaching)
}

// Rollback moves the resource back to frame without counting as a
// script-visible load, for use inside ad-hoc reverts that must temporarily
// inspect or unwind state.
func (s *Script) Rollback(frame Frame) error {
	return s.restore(frame, true, true)
}

// RollForward replays forward from the current frame to frame, the
// counterpart to Rollback used to return to a position a Rollback
// displaced from.
func (s *Script) RollForward(frame Frame) {
	for s.CurrentFrame() < frame {
		s.AdvanceFrameRead()
	}
}

// Save allocates a savestate at the current frame in the current ad-hoc
// level's save bank.
func (s *Script) Save() (SaveMetadata, error) {
	lvl := s.levels[s.adhocLevel]
	frame := s.CurrentFrame()
	handle, err := s.slots.Allocate()
	if err != nil {
		return SaveMetadata{}, fmt.Errorf("script: save at frame %d: %w", frame, err)
	}
	lvl.saveBank.Set(frame, handle)
	lvl.saveCache.Delete(frame)
	lvl.status.NSaves++
	return SaveMetadata{Script: s, Frame: frame, AdhocLevel: s.adhocLevel}, nil
}

// OptionalSave saves only if the resource's cost model (ShouldSave)
// recommends it, given the estimated number of future advances before the
// next load. Otherwise it returns the nearest existing save unchanged.
func (s *Script) OptionalSave(estFutureAdvances int64) (SaveMetadata, bool, error) {
	if !s.resource.ShouldSave(estFutureAdvances) {
		return s.GetLatestSave(s.CurrentFrame()), false, nil
	}
	meta, err := s.Save()
	return meta, true, err
}

// DeleteSave closes and removes the save bank entry at frame on adhocLevel,
// if one exists.
func (s *Script) DeleteSave(frame Frame, adhocLevel int) {
	if adhocLevel >= len(s.levels) {
		return
	}
	lvl := s.levels[adhocLevel]
	if h, ok := lvl.saveBank.Get(frame); ok {
		h.Close()
	}
	lvl.saveBank.Delete(frame)
}

// Revert undoes an ad-hoc level's effects back to targetFrame: rolls the
// resource back, migrates any save-bank entries the child level captured
// before targetFrame up into the parent level (they remain valid savings
// even though the scope that created them is being discarded), closes the
// rest, and rolls forward to restore the caller's original position.
func (s *Script) Revert(targetFrame Frame, childLevel int, resumeFrame Frame) error {
	if err := s.Rollback(targetFrame); err != nil {
		return err
	}
	if childLevel > 0 {
		child := s.levels[childLevel]
		parent := s.levels[childLevel-1]
		kept := migrateSaves(&child.saveBank, &parent.saveBank, targetFrame)
		for _, frame := range kept {
			child.saveBank.Delete(frame)
		}
		child.saveBank.Each(func(frame int64, h *resource.Handle) { h.Close() })
	}
	s.RollForward(resumeFrame)
	return nil
}

// migrateSaves moves every entry of src with key < before into dst,
// returning the migrated keys.
func migrateSaves(src, dst *orderedmap.Map[*resource.Handle], before Frame) []Frame {
	var moved []Frame
	src.Each(func(frame int64, h *resource.Handle) {
		if frame < before {
			dst.Set(frame, h)
			moved = append(moved, frame)
		}
	})
	return moved
}
