package script

import "github.com/jgcodes2020/sm64-tas-scripting/internal/inputs"

// stateOwnerLevel returns the innermost ad-hoc level (current level down to
// 0) whose diff's first frame is at or before frame — the level that would,
// on cleanup, free any cache/save entry resolved at frame, regardless of
// which level's diff or cache actually supplies the resolved value. This is
// a separate question from value resolution: a level can own frame without
// having any entry at frame itself, if a sibling/ancestor level fills the
// gap.
func (s *Script) stateOwnerLevel(frame Frame) int {
	for lvl := s.adhocLevel; lvl >= 0; lvl-- {
		if d := s.levels[lvl].status.Diff; !d.Empty() && d.FirstFrame() <= frame {
			return lvl
		}
	}
	return 0
}

// GetInputsMetadata resolves frame's input per §4.3's lookup chain: walk this
// script's ad-hoc levels from the current one down to 0 checking each
// level's diff then inputsCache, then recurse into the parent script (if
// any), and finally fall back to the top-level track or the zero record.
// The returned StateOwner/StateOwnerLevel identify whose frame counter and
// save-bank entries a caller resolving this frame should credit, computed
// independently via stateOwnerLevel rather than tied to whichever level's
// diff/cache happened to supply the value.
func (s *Script) GetInputsMetadata(frame Frame) InputsMetadata {
	owner := s.stateOwnerLevel(frame)

	for lvl := s.adhocLevel; lvl >= 0; lvl-- {
		l := s.levels[lvl]
		if rec, ok := l.status.Diff.Get(frame); ok {
			return InputsMetadata{Inputs: rec, Frame: frame, StateOwner: s, StateOwnerLevel: owner, Source: SourceDiff}
		}
		if meta, ok := l.inputsCache.Get(frame); ok {
			meta.Source = SourceCached
			meta.StateOwner = s
			meta.StateOwnerLevel = owner
			return meta
		}
	}
	if s.parent != nil {
		return s.parent.GetInputsMetadata(frame)
	}
	if s.track != nil {
		if rec, ok := s.track.Get(frame); ok {
			return InputsMetadata{Inputs: rec, Frame: frame, StateOwner: s, StateOwnerLevel: owner, Source: SourceOriginal}
		}
	}
	return InputsMetadata{Inputs: inputs.Default, Frame: frame, StateOwner: s, StateOwnerLevel: owner, Source: SourceDefault}
}

// GetInputsMetadataAndCache resolves frame via GetInputsMetadata and, unless
// the current ad-hoc level of this script is itself the state owner of frame,
// memoizes the result into the current ad-hoc level's inputsCache.
func (s *Script) GetInputsMetadataAndCache(frame Frame) InputsMetadata {
	meta := s.GetInputsMetadata(frame)
	lvl := s.levels[s.adhocLevel]
	if meta.StateOwner == s && meta.StateOwnerLevel == s.adhocLevel {
		return meta
	}
	lvl.inputsCache.Set(frame, meta)
	return meta
}

// GetFrameCounter returns the number of times meta's owning level has
// observed frame advanced under meta's resolved inputs, without
// incrementing it.
func (s *Script) GetFrameCounter(meta InputsMetadata) uint64 {
	owner := meta.StateOwner
	if owner == nil {
		owner = s
	}
	lvl := owner.levels[meta.StateOwnerLevel]
	count, _ := lvl.frameCounter.Get(meta.Frame)
	return count
}

// IncrementFrameCounter increments and returns the frame counter entry meta
// attributes to, crediting the state owner rather than the caller (§3's
// frame-counter state-owner attribution rule).
func (s *Script) IncrementFrameCounter(meta InputsMetadata) uint64 {
	owner := meta.StateOwner
	if owner == nil {
		owner = s
	}
	lvl := owner.levels[meta.StateOwnerLevel]
	count, _ := lvl.frameCounter.Get(meta.Frame)
	count++
	lvl.frameCounter.Set(meta.Frame, count)
	return count
}
