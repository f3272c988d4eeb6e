package scattershot_test

import (
	"context"
	"math/rand/v2"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/jgcodes2020/sm64-tas-scripting/internal/inputs"
	"github.com/jgcodes2020/sm64-tas-scripting/internal/policy"
	"github.com/jgcodes2020/sm64-tas-scripting/internal/resource"
	"github.com/jgcodes2020/sm64-tas-scripting/internal/resources/toy"
	"github.com/jgcodes2020/sm64-tas-scripting/internal/scattershot"
	"github.com/jgcodes2020/sm64-tas-scripting/internal/script"
)

func validConfig() scattershot.Configuration {
	return scattershot.Configuration{
		Seed:                     1,
		StartFrame:               0,
		SegmentLength:            4,
		MaxSegments:              100,
		MaxBlocks:                64,
		MaxHashes:                1024,
		MaxSharedBlocks:          64,
		MaxSharedHashes:          1024,
		MaxSharedSegments:        256,
		MaxLocalSegments:         64,
		MaxLightningLength:       4,
		TotalThreads:             2,
		MaxShots:                 20,
		SegmentsPerShot:          4,
		ShotsPerMerge:            10,
		MergesPerSegmentGC:       1,
		StartFromRootEveryNShots: 5,
		M64Path:                  "",
		ResourcePaths:            []string{"toy"},
		LongLoadCaching:          false,
	}
}

func TestConfigurationValidateRejectsZeroFields(t *testing.T) {
	cfg := validConfig()
	cfg.TotalThreads = 0
	require.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.ResourcePaths = nil
	require.Error(t, cfg.Validate())

	require.NoError(t, validConfig().Validate())
}

func TestChainReconstructsRootToTailOrder(t *testing.T) {
	root := &scattershot.Segment{Frame: 4}
	mid := &scattershot.Segment{Parent: root, Frame: 8}
	tail := &scattershot.Segment{Parent: mid, Frame: 12}

	chain := scattershot.Chain(tail)
	require.Equal(t, []*scattershot.Segment{root, mid, tail}, chain)

	require.Empty(t, scattershot.Chain(nil))
}

func TestHashBytesIsDeterministic(t *testing.T) {
	a := scattershot.HashBytes([]byte{1, 2, 3, 4})
	b := scattershot.HashBytes([]byte{1, 2, 3, 4})
	require.Equal(t, a, b)

	c := scattershot.HashBytes([]byte{1, 2, 3, 5})
	require.NotEqual(t, a, c)
}

// position is the coarse projected state the end-to-end test searches
// over: the toy resource's accumulated position, bucketed so distinct
// input sequences collide into the same block on purpose.
type position int64

type bucketProjection struct{}

func (bucketProjection) Project(s *script.Script) position {
	return position(s.Resource().(*toy.Resource).Position() / 8)
}

type bucketFitness struct{}

func (bucketFitness) Score(state position) float64 {
	return float64(state)
}

// randomWalkMutation advances a fixed-length segment of random inputs,
// standing in for a real game's input-generation policy.
type randomWalkMutation struct {
	segmentLength int
}

func (m randomWalkMutation) Mutate(s *script.Script, rng *rand.Rand) bool {
	for i := 0; i < m.segmentLength; i++ {
		s.AdvanceFrameWrite(inputs.Inputs{
			Buttons: uint16(rng.IntN(4)),
			StickX:  int8(rng.IntN(5) - 2),
			StickY:  int8(rng.IntN(5) - 2),
		})
	}
	return true
}

func newToyResourceFactory() scattershot.ResourceFactory {
	return func(string) (resource.Resource, error) {
		return toy.New(), nil
	}
}

func TestExplorerEndToEndMergesBlocksAcrossThreads(t *testing.T) {
	cfg := validConfig()

	e, err := scattershot.New[position](
		cfg,
		func(p position) uint64 { return scattershot.HashBytes([]byte{byte(p), byte(p >> 8)}) },
		bucketProjection{},
		bucketFitness{},
		randomWalkMutation{segmentLength: cfg.SegmentLength},
		newToyResourceFactory(),
		zerolog.Nop(),
	)
	require.NoError(t, err)

	require.NoError(t, e.Run(context.Background()))

	require.Positive(t, e.SharedBlockCount())
	best, ok := e.BestBlock()
	require.True(t, ok)
	require.NotNil(t, best.TailSegment)
}

func TestNewRejectsInvalidConfiguration(t *testing.T) {
	cfg := validConfig()
	cfg.MaxBlocks = 0

	_, err := scattershot.New[position](
		cfg,
		func(p position) uint64 { return uint64(p) },
		bucketProjection{},
		bucketFitness{},
		randomWalkMutation{segmentLength: 1},
		newToyResourceFactory(),
		zerolog.Nop(),
	)
	require.Error(t, err)
}

var _ policy.Mutation[position] = randomWalkMutation{}
