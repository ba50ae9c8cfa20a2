package molecule

import (
	"encoding/binary"
	"hash/fnv"
	"sort"
	"strings"

	"github.com/turtacn/KeyIP-MolData/pkg/errors"
)

// FeatureGenerator identifies a molecule-level feature vector.  The set is
// closed; names outside it are rejected by ParseFeatureGenerator.
type FeatureGenerator int

const (
	GeneratorMorgan FeatureGenerator = iota + 1
	GeneratorMorganCount
	GeneratorRDKit2D
)

const (
	// MorganBits is the length of both Morgan vectors.
	MorganBits = 2048
	// MorganRadius is the number of neighbourhood expansion rounds.
	MorganRadius = 2
	// RDKit2DSize is the length of the descriptor vector.
	RDKit2DSize = 20
)

type generatorSpec struct {
	name string
	size int
	fn   func(g *Graph) []float64
}

// generatorTable is the dispatch table for every FeatureGenerator.
var generatorTable = map[FeatureGenerator]generatorSpec{
	GeneratorMorgan:      {"morgan", MorganBits, func(g *Graph) []float64 { return morgan(g, false) }},
	GeneratorMorganCount: {"morgan_count", MorganBits, func(g *Graph) []float64 { return morgan(g, true) }},
	GeneratorRDKit2D:     {"rdkit_2d", RDKit2DSize, descriptors2D},
}

// ParseFeatureGenerator resolves a generator name.  Unknown names are a
// configuration error.
func ParseFeatureGenerator(name string) (FeatureGenerator, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for gen, spec := range generatorTable {
		if spec.name == n {
			return gen, nil
		}
	}
	return 0, errors.New(errors.ErrCodeConfiguration, "features generator type not supported").
		WithDetail("generator=" + name)
}

// ParseFeatureGenerators resolves an ordered list of generator names.
func ParseFeatureGenerators(names []string) ([]FeatureGenerator, error) {
	if len(names) == 0 {
		return nil, nil
	}
	out := make([]FeatureGenerator, 0, len(names))
	for _, n := range names {
		gen, err := ParseFeatureGenerator(n)
		if err != nil {
			return nil, err
		}
		out = append(out, gen)
	}
	return out, nil
}

func (f FeatureGenerator) String() string {
	if spec, ok := generatorTable[f]; ok {
		return spec.name
	}
	return "unknown"
}

// Size returns the vector length produced by the generator, or 0 if unknown.
func (f FeatureGenerator) Size() int {
	return generatorTable[f].size
}

// Generate computes the generator's vector for g.
func (f FeatureGenerator) Generate(g *Graph) ([]float64, error) {
	spec, ok := generatorTable[f]
	if !ok {
		return nil, errors.Newf(errors.ErrCodeConfiguration, "features generator %d not supported", int(f))
	}
	return spec.fn(g), nil
}

// GenerateFeatures parses smiles once and concatenates the outputs of gens in order.
func GenerateFeatures(smiles string, gens []FeatureGenerator) ([]float64, error) {
	g, err := Parse(smiles)
	if err != nil {
		return nil, err
	}
	size := 0
	for _, gen := range gens {
		size += gen.Size()
	}
	out := make([]float64, 0, size)
	for _, gen := range gens {
		v, err := gen.Generate(g)
		if err != nil {
			return nil, err
		}
		out = append(out, v...)
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Morgan (circular) fingerprint
// ---------------------------------------------------------------------------

func hashUint64s(vals ...uint64) uint64 {
	h := fnv.New64a()
	var buf [8]byte
	for _, v := range vals {
		binary.LittleEndian.PutUint64(buf[:], v)
		_, _ = h.Write(buf[:])
	}
	return h.Sum64()
}

func hashString(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return h.Sum64()
}

// morgan folds circular atom environments of radius 0..MorganRadius into a
// MorganBits vector, as bits or as occurrence counts.
func morgan(g *Graph, counts bool) []float64 {
	out := make([]float64, MorganBits)
	n := g.NumAtoms()
	ids := make([]uint64, n)
	for i := 0; i < n; i++ {
		ids[i] = hashString(g.AtomSignature(i))
	}

	set := func(id uint64) {
		idx := id % MorganBits
		if counts {
			out[idx]++
		} else {
			out[idx] = 1
		}
	}
	for _, id := range ids {
		set(id)
	}

	bondOrder := make(map[[2]int]BondType, len(g.Bonds))
	for _, b := range g.Bonds {
		bondOrder[[2]int{b.Src, b.Dst}] = b.Type
		bondOrder[[2]int{b.Dst, b.Src}] = b.Type
	}

	for r := 1; r <= MorganRadius; r++ {
		next := make([]uint64, n)
		for i := 0; i < n; i++ {
			env := make([]uint64, 0, 2*g.Degree(i))
			pairs := make([][2]uint64, 0, g.Degree(i))
			for _, j := range g.adjacency[i] {
				pairs = append(pairs, [2]uint64{uint64(bondOrder[[2]int{i, j}]), ids[j]})
			}
			sort.Slice(pairs, func(a, b int) bool {
				if pairs[a][0] != pairs[b][0] {
					return pairs[a][0] < pairs[b][0]
				}
				return pairs[a][1] < pairs[b][1]
			})
			for _, p := range pairs {
				env = append(env, p[0], p[1])
			}
			next[i] = hashUint64s(append([]uint64{uint64(r), ids[i]}, env...)...)
			set(next[i])
		}
		ids = next
	}
	return out
}

// ---------------------------------------------------------------------------
// 2D descriptors
// ---------------------------------------------------------------------------

// descriptors2D returns RDKit2DSize simple whole-molecule descriptors.
func descriptors2D(g *Graph) []float64 {
	n := g.NumAtoms()
	var (
		molWt, hetero, nN, nO, nS, halogen, aromatic, ringAtoms float64
		donors, acceptors, charge, carbons, sp3Carbons, hCount  float64
		rotatable, multiple                                     float64
	)
	unsaturated := make([]bool, n)
	for id, b := range g.Bonds {
		if b.Type != BondSingle {
			multiple++
			unsaturated[b.Src] = true
			unsaturated[b.Dst] = true
		}
		if b.Type == BondSingle && !g.ringBond[id] && g.Degree(b.Src) > 1 && g.Degree(b.Dst) > 1 {
			rotatable++
		}
	}

	for i, a := range g.Atoms {
		mass, ok := atomicMass[a.AtomicNum]
		if !ok {
			mass = atomicMass[6]
		}
		molWt += mass + float64(a.NumH)*atomicMass[1]
		hCount += float64(a.NumH)
		charge += float64(a.Charge)
		switch a.AtomicNum {
		case 6:
			carbons++
			if !unsaturated[i] && !a.Aromatic {
				sp3Carbons++
			}
		case 7:
			nN++
		case 8:
			nO++
		case 16:
			nS++
		case 9, 17, 35, 53:
			halogen++
		}
		if a.AtomicNum != 6 && a.AtomicNum != 1 {
			hetero++
		}
		if (a.AtomicNum == 7 || a.AtomicNum == 8) && a.NumH > 0 {
			donors++
		}
		if a.AtomicNum == 7 || a.AtomicNum == 8 {
			acceptors++
		}
		if a.Aromatic {
			aromatic++
		}
		if g.ringAtom[i] {
			ringAtoms++
		}
	}

	frac := func(num, den float64) float64 {
		if den == 0 {
			return 0
		}
		return num / den
	}
	bondDensity := 0.0
	if n > 1 {
		bondDensity = float64(len(g.Bonds)) / (float64(n) * float64(n-1) / 2)
	}

	return []float64{
		float64(n),
		float64(len(g.Bonds)),
		molWt,
		hetero,
		nN,
		nO,
		nS,
		halogen,
		aromatic,
		frac(aromatic, float64(n)),
		float64(g.NumRings()),
		ringAtoms,
		rotatable,
		donors,
		acceptors,
		charge,
		frac(sp3Carbons, carbons),
		hCount,
		multiple,
		bondDensity,
	}
}

//Personal.AI order the ending
