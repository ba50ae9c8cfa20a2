package moldata

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/KeyIP-MolData/internal/domain/molecule"
	"github.com/turtacn/KeyIP-MolData/internal/intelligence/vocab"
	"github.com/turtacn/KeyIP-MolData/pkg/errors"
)

func atomConfig(t *testing.T, strategy MaskStrategy, p float64, corpus ...string) PretrainConfig {
	t.Helper()
	spec := vocab.Spec{Strategy: vocab.StrategyAtom}
	v, err := vocab.Build(corpus, spec)
	require.NoError(t, err)
	return PretrainConfig{
		MaskStrategy:    strategy,
		MaskProbability: p,
		VocabStrategy:   vocab.StrategyAtom,
		Vocab:           v,
	}
}

func substructureConfig(t *testing.T, sizes []int, maxCount int, corpus ...string) PretrainConfig {
	t.Helper()
	spec := vocab.Spec{Strategy: vocab.StrategySubstructure, SubstructureSizes: sizes, SubstructureMaxCount: maxCount}
	v, err := vocab.Build(corpus, spec)
	require.NoError(t, err)
	return PretrainConfig{
		MaskStrategy:         MaskCluster,
		MaskProbability:      0.15,
		VocabStrategy:        vocab.StrategySubstructure,
		SubstructureSizes:    sizes,
		SubstructureMaxCount: maxCount,
		Vocab:                v,
	}
}

func pretrainPoint(t *testing.T, smiles string, cfg PretrainConfig) *Datapoint {
	t.Helper()
	b := newBuilder(t, Options{Mode: ModePretraining, Pretrain: cfg})
	d, err := b.Build(context.Background(), []string{smiles}, nil)
	require.NoError(t, err)
	return d
}

func TestPretrainInit_AtomMode(t *testing.T) {
	cfg := atomConfig(t, MaskRandom, 0.15, "CCO")
	d := pretrainPoint(t, "CCO", cfg)

	require.NoError(t, d.PretrainInit(cfg, rand.New(rand.NewSource(1))))
	assert.True(t, d.Initialized())
	assert.Equal(t, [][]int{{1}, {0, 2}, {1}}, d.Adjacency)
	require.Len(t, d.VocabTargets, 3)
	for _, id := range d.VocabTargets {
		assert.NotEqual(t, vocab.UnknownID, id)
	}
	assert.Len(t, d.Mask, 3)
	assert.Greater(t, countMasked(d.Mask), 0)
	assert.Nil(t, d.Substructures)
	assert.Nil(t, d.SubstructureIndex)
}

func TestPretrainInit_UnknownAtomsMapToUnknownID(t *testing.T) {
	cfg := atomConfig(t, MaskRandom, 0.15, "CC")
	d := pretrainPoint(t, "CN", cfg)
	require.NoError(t, d.PretrainInit(cfg, rand.New(rand.NewSource(1))))
	g, err := molecule.Parse("CN")
	require.NoError(t, err)
	assert.Equal(t, cfg.Vocab.W2I(g.AtomSignature(0)), d.VocabTargets[0])
	assert.NotEqual(t, vocab.UnknownID, d.VocabTargets[0])
	assert.Equal(t, vocab.UnknownID, d.VocabTargets[1])
}

func TestPretrainInit_RequiresPretrainingMode(t *testing.T) {
	cfg := atomConfig(t, MaskRandom, 0.15, "CC")
	b := newBuilder(t, Options{})
	d, err := b.Build(context.Background(), []string{"CC", "1"}, nil)
	require.NoError(t, err)

	err = d.PretrainInit(cfg, rand.New(rand.NewSource(1)))
	assert.True(t, errors.IsInvalidState(err))
	err = d.RecreateMask(rand.New(rand.NewSource(1)))
	assert.True(t, errors.IsInvalidState(err))
}

func TestPretrainInit_RequiresVocabulary(t *testing.T) {
	cfg := atomConfig(t, MaskRandom, 0.15, "CC")
	d := pretrainPoint(t, "CC", cfg)
	cfg.Vocab = nil
	err := d.PretrainInit(cfg, rand.New(rand.NewSource(1)))
	assert.True(t, errors.IsInvalidState(err))
}

func TestRecreateMask_BeforeInit(t *testing.T) {
	cfg := atomConfig(t, MaskRandom, 0.15, "CC")
	d := pretrainPoint(t, "CC", cfg)
	err := d.RecreateMask(rand.New(rand.NewSource(1)))
	assert.True(t, errors.IsInvalidState(err))
}

func TestPretrainInit_InvalidSMILES(t *testing.T) {
	cfg := atomConfig(t, MaskRandom, 0.15, "CC")
	d := pretrainPoint(t, "C1CC", cfg)
	err := d.PretrainInit(cfg, rand.New(rand.NewSource(1)))
	require.Error(t, err)
	assert.Equal(t, errors.CodeMoleculeInvalidSMILES, errors.GetCode(err))
	assert.False(t, d.Initialized())
}

func TestPretrainInit_FailureKeepsPreviousLayout(t *testing.T) {
	atoms := atomConfig(t, MaskRandom, 0.5, "CCO")
	d := pretrainPoint(t, "CCO", atoms)
	require.NoError(t, d.PretrainInit(atoms, rand.New(rand.NewSource(1))))
	before := d.Clone()

	bad := substructureConfig(t, []int{2}, 1, "CCO")
	bad.MaskProbability = 2
	require.Error(t, d.PretrainInit(bad, rand.New(rand.NewSource(2))))

	d.SMILES = "C1CC"
	require.Error(t, d.PretrainInit(substructureConfig(t, []int{2}, 1, "CCO"), rand.New(rand.NewSource(3))))
	d.SMILES = before.SMILES

	assert.True(t, d.Initialized())
	assert.Equal(t, before.Mask, d.Mask)
	assert.Equal(t, before.VocabTargets, d.VocabTargets)
	assert.Equal(t, before.Adjacency, d.Adjacency)
	assert.Nil(t, d.Substructures)
	assert.Nil(t, d.SubstructureIndex)
	assert.Equal(t, vocab.StrategyAtom, d.cfg.VocabStrategy)
}

func TestPretrainInit_ZeroAtoms(t *testing.T) {
	for _, cfg := range []PretrainConfig{
		atomConfig(t, MaskCluster, 0.5, "CC"),
		substructureConfig(t, []int{2}, 1, "CC"),
	} {
		d := pretrainPoint(t, "", cfg)
		require.NoError(t, d.PretrainInit(cfg, rand.New(rand.NewSource(1))))
		assert.NotNil(t, d.Mask)
		assert.Empty(t, d.Mask)
		assert.Empty(t, d.VocabTargets)
		require.NoError(t, d.RecreateMask(rand.New(rand.NewSource(2))))
		assert.Empty(t, d.Mask)
	}
}

func TestRecreateMask_AtomModeScenario(t *testing.T) {
	// 5 atoms, random strategy.
	rng := rand.New(rand.NewSource(4))

	cfg := atomConfig(t, MaskRandom, 1.0, "CCCCC")
	d := pretrainPoint(t, "CCCCC", cfg)
	require.NoError(t, d.PretrainInit(cfg, rng))
	for i := 0; i < 20; i++ {
		require.NoError(t, d.RecreateMask(rng))
		assert.Equal(t, []int{0, 0, 0, 0, 0}, d.Mask)
	}

	cfg = atomConfig(t, MaskRandom, 0.0, "CCCCC")
	d = pretrainPoint(t, "CCCCC", cfg)
	require.NoError(t, d.PretrainInit(cfg, rng))
	for i := 0; i < 20; i++ {
		require.NoError(t, d.RecreateMask(rng))
		assert.Len(t, d.Mask, 5)
		assert.Equal(t, 1, countMasked(d.Mask))
	}
}

func TestPretrainInit_SubstructureScenario(t *testing.T) {
	// Hexane, two disjoint 2-atom substructures: {0,1} and {2,3}.
	cfg := substructureConfig(t, []int{2}, 2, "CCCCCC")
	d := pretrainPoint(t, "CCCCCC", cfg)
	rng := rand.New(rand.NewSource(8))
	require.NoError(t, d.PretrainInit(cfg, rng))

	assert.Equal(t, [][]int{{0, 1}, {2, 3}}, d.Substructures)
	assert.Equal(t, []int{2, 2, 3, 3, 0, 1}, d.SubstructureIndex)
	assert.Equal(t, []int{1, 1, 0, 0}, d.Mask)

	g, err := molecule.Parse("CCCCCC")
	require.NoError(t, err)
	want := []int{0, 0,
		cfg.Vocab.W2I(g.SubstructureSignature([]int{0, 1})),
		cfg.Vocab.W2I(g.SubstructureSignature([]int{2, 3})),
	}
	assert.Equal(t, want, d.VocabTargets)
	assert.NotEqual(t, vocab.UnknownID, want[2])
	assert.NotEqual(t, vocab.UnknownID, want[3])

	for i := 0; i < 10; i++ {
		require.NoError(t, d.RecreateMask(rng))
		assert.Equal(t, []int{1, 1, 0, 0}, d.Mask)
	}
}

func TestPretrainInit_SubstructureSlotCount(t *testing.T) {
	// 8 atoms, two 2-atom groups: 4 remaining + 2 collapsed = 6 slots.
	cfg := substructureConfig(t, []int{2}, 2, "CCCCCCCC")
	d := pretrainPoint(t, "CCCCCCCC", cfg)
	require.NoError(t, d.PretrainInit(cfg, rand.New(rand.NewSource(1))))

	assert.Equal(t, 6, NumSlots(d.SubstructureIndex))
	assert.Equal(t, []int{1, 1, 1, 1, 0, 0}, d.Mask)
	assert.Len(t, d.VocabTargets, 6)
}

func TestPretrainInit_SubstructureMaxCountOne(t *testing.T) {
	cfg := substructureConfig(t, []int{2}, 1, "CCCCCC")
	d := pretrainPoint(t, "CCCCCC", cfg)
	require.NoError(t, d.PretrainInit(cfg, rand.New(rand.NewSource(1))))
	assert.Equal(t, [][]int{{0, 1}}, d.Substructures)
	assert.Equal(t, []int{1, 1, 1, 1, 0}, d.Mask)
}

func TestPretrainInit_NoSubstructureFound(t *testing.T) {
	cfg := substructureConfig(t, []int{3}, 1, "CC")
	d := pretrainPoint(t, "CC", cfg)
	rng := rand.New(rand.NewSource(3))
	require.NoError(t, d.PretrainInit(cfg, rng))

	assert.Empty(t, d.Substructures)
	assert.Equal(t, []int{0, 1}, d.SubstructureIndex)
	require.Len(t, d.Mask, 2)
	assert.Equal(t, 1, countMasked(d.Mask))

	g, err := molecule.Parse("CC")
	require.NoError(t, err)
	for i, m := range d.Mask {
		if m == Masked {
			assert.Equal(t, cfg.Vocab.W2I(g.AtomSignature(i)), d.VocabTargets[i])
		} else {
			assert.Equal(t, 0, d.VocabTargets[i])
		}
	}

	for i := 0; i < 10; i++ {
		require.NoError(t, d.RecreateMask(rng))
		assert.Equal(t, 1, countMasked(d.Mask))
	}
}

func TestDatapoint_CloneIsDeep(t *testing.T) {
	cfg := atomConfig(t, MaskRandom, 0.5, "CCO")
	d := pretrainPoint(t, "CCO", cfg)
	d.Features = []float64{1, 2}
	require.NoError(t, d.PretrainInit(cfg, rand.New(rand.NewSource(1))))

	c := d.Clone()
	c.Features[0] = 9
	c.Mask[0] = 7
	c.Adjacency[1][0] = 5
	c.VocabTargets[0] = -1

	assert.Equal(t, 1.0, d.Features[0])
	assert.NotEqual(t, 7, d.Mask[0])
	assert.Equal(t, 0, d.Adjacency[1][0])
	assert.NotEqual(t, -1, d.VocabTargets[0])
	assert.True(t, c.Initialized())
}

func TestDatapoint_SetTarget(t *testing.T) {
	b := newBuilder(t, Options{SparseLabels: true})
	d, err := b.Build(context.Background(), []string{"C", "1", ""}, nil)
	require.NoError(t, err)
	d.SetTarget(Some(3))
	assert.Nil(t, d.Sparse)
	assert.Equal(t, []Label{Some(3)}, d.Labels())
}

//Personal.AI order the ending
