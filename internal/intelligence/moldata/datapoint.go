package moldata

import (
	"math/rand"

	"github.com/turtacn/KeyIP-MolData/internal/domain/molecule"
	"github.com/turtacn/KeyIP-MolData/internal/intelligence/vocab"
	"github.com/turtacn/KeyIP-MolData/pkg/errors"
)

// Datapoint is one molecule record.
type Datapoint struct {
	SMILES string
	// Name is the compound name; meaningful only when HasName is set.
	Name    string
	HasName bool

	// Features is nil when neither precomputed features nor generators were
	// supplied.
	Features []float64

	// Exactly one of Targets and Sparse is used outside pretraining.  In
	// unsupervised and pretraining mode both start empty.
	Targets  []Label
	Sparse   *SparseLabelArray
	NumTasks int

	// Pretraining state, populated by PretrainInit.
	Adjacency         [][]int
	VocabTargets      []int
	Mask              []int
	Substructures     [][]int
	SubstructureIndex []int

	mode    Mode
	cfg     *PretrainConfig
	atomIDs []int
}

// Mode returns the regime the Datapoint was built for.
func (d *Datapoint) Mode() Mode { return d.mode }

// Pretraining reports whether the Datapoint was built for pretraining.
func (d *Datapoint) Pretraining() bool { return d.mode == ModePretraining }

// Initialized reports whether PretrainInit has completed.
func (d *Datapoint) Initialized() bool { return d.cfg != nil }

// Labels returns the targets in dense form, whichever representation holds
// them.
func (d *Datapoint) Labels() []Label {
	if d.Sparse != nil {
		return d.Sparse.Dense()
	}
	return d.Targets
}

// SetTarget replaces the targets with a single label.  It is meant for
// unsupervised and pretraining data, e.g. to attach cluster assignments.
func (d *Datapoint) SetTarget(l Label) {
	d.Targets = []Label{l}
	d.Sparse = nil
}

// Clone returns a deep copy.  The pretraining vocabulary stays shared.
func (d *Datapoint) Clone() *Datapoint {
	c := *d
	c.Features = cloneFloats(d.Features)
	c.Targets = append([]Label(nil), d.Targets...)
	if d.Sparse != nil {
		c.Sparse = NewSparseLabelArray(d.Sparse.Dense())
	}
	c.Adjacency = cloneGroups(d.Adjacency)
	c.VocabTargets = cloneInts(d.VocabTargets)
	c.Mask = cloneInts(d.Mask)
	c.Substructures = cloneGroups(d.Substructures)
	c.SubstructureIndex = cloneInts(d.SubstructureIndex)
	c.atomIDs = cloneInts(d.atomIDs)
	if d.cfg != nil {
		cfg := d.cfg.Clone()
		c.cfg = &cfg
	}
	return &c
}

// PretrainInit derives the adjacency, vocabulary targets and first mask of
// the molecule.
//
// With the atom vocabulary every atom is a unit, its target is the id of its
// atom signature and the mask comes from cfg.MaskStrategy.  With the
// substructure vocabulary, disjoint substructures are collapsed into the
// trailing slots of the unit space; those slots are always masked and carry
// the substructure signature ids while every other slot is kept with target 0.
// A molecule without atoms gets an empty mask and empty targets.
func (d *Datapoint) PretrainInit(cfg PretrainConfig, rng *rand.Rand) error {
	if !d.Pretraining() {
		return errors.InvalidState("pretraining initialization requires pretraining mode").WithDetail("smiles=" + d.SMILES)
	}
	if cfg.Vocab == nil {
		return errors.InvalidState("pretraining initialization requires a vocabulary")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	g, err := molecule.Parse(d.SMILES)
	if err != nil {
		return err
	}
	n := g.NumAtoms()
	atomIDs := make([]int, n)
	for i := range atomIDs {
		atomIDs[i] = cfg.Vocab.W2I(g.AtomSignature(i))
	}
	c := cfg.Clone()

	// Nothing on d changes until the layout is known to be valid.
	if c.VocabStrategy == vocab.StrategySubstructure {
		groups := SortSubstructures(g.Substructures(c.SubstructureSizes, c.SubstructureMaxCount))
		index, err := SubstructureIndexMap(n, groups)
		if err != nil {
			return err
		}
		ids := make([]int, len(groups))
		for i, grp := range groups {
			ids[i] = c.Vocab.W2I(g.SubstructureSignature(grp))
		}
		d.Adjacency, d.atomIDs, d.cfg = g.Adjacency(), atomIDs, &c
		d.Substructures, d.SubstructureIndex = groups, index
		d.substructureTargets(ids, rng)
		return nil
	}

	adj := g.Adjacency()
	mask, err := GenerateMask(n, adj, c.MaskStrategy, c.MaskProbability, rng)
	if err != nil {
		return err
	}
	d.Adjacency, d.atomIDs, d.cfg = adj, atomIDs, &c
	d.Substructures, d.SubstructureIndex = nil, nil
	d.VocabTargets = cloneInts(atomIDs)
	d.Mask = mask
	return nil
}

// RecreateMask draws a new mask with the parameters of the last PretrainInit.
func (d *Datapoint) RecreateMask(rng *rand.Rand) error {
	if !d.Pretraining() {
		return errors.InvalidState("cannot recreate a mask outside pretraining mode").WithDetail("smiles=" + d.SMILES)
	}
	if d.cfg == nil {
		return errors.InvalidState("mask recreated before pretraining initialization").WithDetail("smiles=" + d.SMILES)
	}
	if d.cfg.VocabStrategy == vocab.StrategySubstructure {
		if len(d.Substructures) == 0 && len(d.atomIDs) > 0 {
			d.substructureTargets(nil, rng)
		}
		return nil
	}
	return d.regenerateAtomMask(rng)
}

func (d *Datapoint) regenerateAtomMask(rng *rand.Rand) error {
	mask, err := GenerateMask(len(d.VocabTargets), d.Adjacency, d.cfg.MaskStrategy, d.cfg.MaskProbability, rng)
	if err != nil {
		return err
	}
	d.Mask = mask
	return nil
}

// substructureTargets lays out the collapsed unit space.  When no
// substructure was found in a non-empty molecule, one random atom slot is
// masked and carries its atom signature id, so a mask is never all kept.
// Masking every slot with target 0 instead would leave the molecule with no
// real label to predict.
func (d *Datapoint) substructureTargets(ids []int, rng *rand.Rand) {
	slots := NumSlots(d.SubstructureIndex)
	d.Mask = filled(slots)
	d.VocabTargets = make([]int, slots)

	if len(d.Substructures) == 0 {
		if slots == 0 {
			return
		}
		a := rng.Intn(slots)
		d.Mask[a] = Masked
		d.VocabTargets[a] = d.atomIDs[a]
		return
	}

	first := slots - len(d.Substructures)
	for i, id := range ids {
		d.Mask[first+i] = Masked
		d.VocabTargets[first+i] = id
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// copy helpers
// ─────────────────────────────────────────────────────────────────────────────

func cloneFloats(v []float64) []float64 {
	if v == nil {
		return nil
	}
	return append([]float64(nil), v...)
}

func cloneInts(v []int) []int {
	if v == nil {
		return nil
	}
	return append([]int(nil), v...)
}

func cloneGroups(v [][]int) [][]int {
	if v == nil {
		return nil
	}
	out := make([][]int, len(v))
	for i, g := range v {
		out[i] = cloneInts(g)
	}
	return out
}

//Personal.AI order the ending
