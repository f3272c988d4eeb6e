package script_test

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/jgcodes2020/sm64-tas-scripting/internal/inputs"
	"github.com/jgcodes2020/sm64-tas-scripting/internal/resources/toy"
	"github.com/jgcodes2020/sm64-tas-scripting/internal/script"
)

func newTopLevel(t *testing.T) (*script.Script, *toy.Resource) {
	t.Helper()
	res := toy.New()
	s, err := script.NewTopLevel(res, nil, zerolog.Nop())
	require.NoError(t, err)
	return s, res
}

// S1: a trivial script that only writes inputs and advances should record
// every written frame in its base diff and leave the resource at the
// expected frame.
func TestTrivialScriptAdvancesAndRecordsDiff(t *testing.T) {
	s, _ := newTopLevel(t)

	for i := 0; i < 3; i++ {
		s.AdvanceFrameWrite(inputs.Inputs{Buttons: 1})
	}

	require.Equal(t, script.Frame(3), s.CurrentFrame())
	diff := s.GetBaseDiff()
	require.False(t, diff.Empty())
	require.Equal(t, script.Frame(0), diff.FirstFrame())
	require.Equal(t, script.Frame(2), diff.LastFrame())
}

// S2: an ad-hoc scope whose function returns false must leave no trace: the
// resource returns to its starting frame and the base diff stays empty.
func TestModifyAdhocRevertsOnFailure(t *testing.T) {
	s, _ := newTopLevel(t)

	ok := s.ModifyAdhoc(func(sub *script.Script) bool {
		sub.AdvanceFrameWrite(inputs.Inputs{Buttons: 1})
		sub.AdvanceFrameWrite(inputs.Inputs{Buttons: 1})
		return false
	})

	require.False(t, ok)
	require.Equal(t, script.Frame(0), s.CurrentFrame())
	require.True(t, s.GetBaseDiff().Empty())
}

// S3: an ad-hoc scope whose function returns true commits its diff into the
// parent level and leaves the resource advanced.
func TestModifyAdhocCommitsOnSuccess(t *testing.T) {
	s, _ := newTopLevel(t)

	ok := s.ModifyAdhoc(func(sub *script.Script) bool {
		sub.AdvanceFrameWrite(inputs.Inputs{Buttons: 1})
		sub.AdvanceFrameWrite(inputs.Inputs{Buttons: 2})
		return true
	})

	require.True(t, ok)
	require.Equal(t, script.Frame(2), s.CurrentFrame())
	diff := s.GetBaseDiff()
	require.False(t, diff.Empty())
	rec, ok := diff.Get(1)
	require.True(t, ok)
	require.Equal(t, uint16(2), rec.Buttons)
}

// ExecuteAdhoc never commits, even on success, matching its read-only
// contract (used for Validate/Assert).
func TestExecuteAdhocNeverCommits(t *testing.T) {
	s, _ := newTopLevel(t)

	ok := s.ExecuteAdhoc(func(sub *script.Script) bool {
		sub.AdvanceFrameWrite(inputs.Inputs{Buttons: 1})
		return true
	})

	require.True(t, ok)
	require.Equal(t, script.Frame(0), s.CurrentFrame())
	require.True(t, s.GetBaseDiff().Empty())
}

// S4: writing to an earlier frame invalidates everything cached or saved
// strictly after it, so a later Load resolves fresh state rather than a
// stale cached lookup.
func TestWriteInvalidatesLaterCachesAndSaves(t *testing.T) {
	s, _ := newTopLevel(t)

	for i := 0; i < 5; i++ {
		s.AdvanceFrameWrite(inputs.Inputs{Buttons: 1})
	}
	save, err := s.Save()
	require.NoError(t, err)
	require.Equal(t, script.Frame(5), save.Frame)

	require.NoError(t, s.Load(2))
	s.AdvanceFrameWrite(inputs.Inputs{Buttons: 9})

	require.False(t, save.Valid())

	latest := s.GetLatestSave(s.CurrentFrame())
	require.LessOrEqual(t, latest.Frame, script.Frame(3))
}

// Run executes validate/execute/assert in order and stops at the first
// failing phase.
func TestRunStopsAtFailingValidate(t *testing.T) {
	s, _ := newTopLevel(t)

	ok := s.Run(rejectingBody{})
	require.False(t, ok)
	require.False(t, s.Status().Validated)
}

type rejectingBody struct{}

func (rejectingBody) Validate(s *script.Script) bool { return false }
func (rejectingBody) Execute(s *script.Script) bool  { return true }
func (rejectingBody) Assert(s *script.Script) bool   { return true }

type acceptingBody struct{}

func (acceptingBody) Validate(s *script.Script) bool { return true }
func (acceptingBody) Execute(s *script.Script) bool {
	s.AdvanceFrameWrite(inputs.Inputs{Buttons: 5})
	return true
}
func (acceptingBody) Assert(s *script.Script) bool { return true }

func TestRunCommitsSuccessfulExecute(t *testing.T) {
	s, _ := newTopLevel(t)

	ok := s.Run(acceptingBody{})
	require.True(t, ok)
	require.Equal(t, script.Frame(1), s.CurrentFrame())
	require.True(t, s.Status().Executed)
	require.True(t, s.Status().Asserted)
}
