package script

import (
	"io"

	"github.com/jgcodes2020/sm64-tas-scripting/internal/inputs"
)

// AdvanceFrameRead resolves the current frame's inputs via the lookup chain
// (§4.3), writes them into simulator memory, and steps one frame.
func (s *Script) AdvanceFrameRead() {
	meta := s.GetInputsMetadataAndCache(s.CurrentFrame())
	s.setInputs(meta.Inputs)
	s.resource.Advance()
	s.levels[s.adhocLevel].status.NAdvances++
}

// advanceFrameReadUncached behaves like AdvanceFrameRead but skips
// memoizing the resolution into the inputs cache, for replay passes (a
// LongLoad with caching disabled) that are not expected to be revisited.
func (s *Script) advanceFrameReadUncached() {
	meta := s.GetInputsMetadata(s.CurrentFrame())
	s.setInputs(meta.Inputs)
	s.resource.Advance()
	s.levels[s.adhocLevel].status.NAdvances++
}

// AdvanceFrameWrite records in at the current frame into this level's diff,
// invalidates everything it stales, then writes and advances (§4.4, the
// "Note the asymmetry" paragraph).
func (s *Script) AdvanceFrameWrite(in inputs.Inputs) {
	frame := s.CurrentFrame()
	lvl := s.levels[s.adhocLevel]
	lvl.status.Diff.Set(frame, in)

	// inputsCache: the just-written frame's own cached entry is now stale
	// too (lower_bound), unlike save bank/cache which are only stale
	// strictly after it (upper_bound).
	lvl.inputsCache.EraseFrom(frame)
	lvl.frameCounter.EraseAfter(frame)
	lvl.saveBank.EraseAfter(frame)
	lvl.saveCache.EraseAfter(frame)

	s.setInputs(in)
	s.resource.Advance()
	lvl.status.NAdvances++
}

// Apply loads to diff's first frame, then advances through its last frame,
// overriding inputs at each diff-covered frame and recording those
// overrides into the current level's diff. An empty diff is a no-op.
func (s *Script) Apply(diff *inputs.Diff) {
	if diff.Empty() {
		return
	}
	first, last := diff.FirstFrame(), diff.LastFrame()
	s.Load(first)

	lvl := s.levels[s.adhocLevel]
	frame := s.CurrentFrame()
	lvl.inputsCache.EraseFrom(frame)
	lvl.frameCounter.EraseAfter(frame)
	lvl.saveBank.EraseAfter(frame)
	lvl.saveCache.EraseAfter(frame)

	for frame <= last {
		in := s.GetInputs(frame)
		if rec, ok := diff.Get(frame); ok {
			in = rec
			lvl.status.Diff.Set(frame, rec)
		}
		s.setInputs(in)
		s.resource.Advance()
		lvl.status.NAdvances++
		frame = s.CurrentFrame()
	}
}

// GetInputs resolves the single input at frame without caching.
func (s *Script) GetInputs(frame Frame) inputs.Inputs {
	return s.GetInputsMetadata(frame).Inputs
}

// InputsRange resolves every frame in [first, last] into a diff, the
// original's `GetInputs(first, last)` overload (used by the scattershot
// explorer to capture a grown segment's inputs).
func (s *Script) InputsRange(first, last Frame) *inputs.Diff {
	d := inputs.NewDiff()
	for f := first; f <= last; f++ {
		d.Set(f, s.GetInputsMetadata(f).Inputs)
	}
	return d
}

// ExportTrack writes the resolved inputs for every frame in [0, maxFrame)
// to w in frame order.
func (s *Script) ExportTrack(w io.Writer, maxFrame Frame, encode func(io.Writer, Frame, inputs.Inputs) error) error {
	for f := Frame(0); f < maxFrame; f++ {
		in := s.GetInputsMetadata(f).Inputs
		if err := encode(w, f, in); err != nil {
			return err
		}
	}
	return nil
}
