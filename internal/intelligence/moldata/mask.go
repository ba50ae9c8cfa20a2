package moldata

import (
	"math/rand"
	"strings"

	"github.com/turtacn/KeyIP-MolData/pkg/errors"
)

// MaskStrategy selects how pretraining masks are drawn.
type MaskStrategy int

const (
	MaskCluster MaskStrategy = iota + 1
	MaskCorrelation
	MaskRandom
)

// Mask values.  Masked units are the ones the model must predict.
const (
	Masked = 0
	Kept   = 1
)

type maskFunc func(m int, adj [][]int, p float64, rng *rand.Rand) []int

var maskStrategies = map[MaskStrategy]struct {
	name string
	fn   maskFunc
}{
	MaskCluster:     {"cluster", clusterMask},
	MaskCorrelation: {"correlation", correlationMask},
	MaskRandom:      {"random", randomMask},
}

// ParseMaskStrategy resolves a strategy name.
func ParseMaskStrategy(name string) (MaskStrategy, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for s, spec := range maskStrategies {
		if spec.name == n {
			return s, nil
		}
	}
	return 0, errors.New(errors.ErrCodeConfiguration, "mask strategy not supported").WithDetail("strategy=" + name)
}

func (s MaskStrategy) String() string {
	if spec, ok := maskStrategies[s]; ok {
		return spec.name
	}
	return "unknown"
}

// GenerateMask draws a length-m mask of Kept/Masked values.  adj, when not
// nil, lists the neighbours of every unit and must have length m.  For m > 0
// the result always holds at least one Masked unit; m == 0 yields an empty
// mask.
func GenerateMask(m int, adj [][]int, strategy MaskStrategy, p float64, rng *rand.Rand) ([]int, error) {
	spec, ok := maskStrategies[strategy]
	if !ok {
		return nil, errors.Newf(errors.ErrCodeConfiguration, "mask strategy %d not supported", int(strategy))
	}
	if m == 0 {
		return []int{}, nil
	}
	if adj != nil {
		if len(adj) != m {
			return nil, errors.Newf(errors.ErrCodeConfiguration, "adjacency covers %d units, mask has %d", len(adj), m)
		}
		for _, nbrs := range adj {
			for _, b := range nbrs {
				if b < 0 || b >= m {
					return nil, errors.OutOfRange(b, m).WithDetail("adjacency neighbour")
				}
			}
		}
	}
	return spec.fn(m, adj, p, rng), nil
}

func neighbors(adj [][]int, a int) []int {
	if adj == nil {
		return nil
	}
	return adj[a]
}

func allKept(mask []int) bool {
	for _, v := range mask {
		if v != Kept {
			return false
		}
	}
	return true
}

func filled(m int) []int {
	mask := make([]int, m)
	for i := range mask {
		mask[i] = Kept
	}
	return mask
}

func bernoulliKeep(m int, p float64, rng *rand.Rand) []int {
	mask := make([]int, m)
	for i := range mask {
		if rng.Float64() > p {
			mask[i] = Kept
		}
	}
	return mask
}

// clusterMask visits units in ascending order.  Each unit still in the
// working set masks itself and its neighbours with probability p/|cluster|;
// masked neighbours leave the working set.
func clusterMask(m int, adj [][]int, p float64, rng *rand.Rand) []int {
	mask := filled(m)
	inSet := make([]bool, m)
	for i := range inSet {
		inSet[i] = true
	}
	zeroCluster := func(a int) {
		mask[a] = Masked
		for _, b := range neighbors(adj, a) {
			mask[b] = Masked
		}
	}

	for a := 0; a < m; a++ {
		if !inSet[a] {
			continue
		}
		inSet[a] = false
		nbrs := neighbors(adj, a)
		if rng.Float64() < p/float64(1+len(nbrs)) {
			zeroCluster(a)
			for _, b := range nbrs {
				inSet[b] = false
			}
		}
	}

	if allKept(mask) {
		zeroCluster(rng.Intn(m))
	}
	return mask
}

// correlationMask draws independent keep bits and then runs m smoothing
// passes, each copying the bit of a random actual neighbour onto a random
// unit.
func correlationMask(m int, adj [][]int, p float64, rng *rand.Rand) []int {
	mask := bernoulliKeep(m, p, rng)
	for pass := 0; pass < m; pass++ {
		idx := rng.Intn(m)
		nbrs := neighbors(adj, idx)
		if len(nbrs) == 0 {
			continue
		}
		mask[idx] = mask[nbrs[rng.Intn(len(nbrs))]]
	}
	if allKept(mask) {
		mask[rng.Intn(m)] = Masked
	}
	return mask
}

func randomMask(m int, _ [][]int, p float64, rng *rand.Rand) []int {
	mask := bernoulliKeep(m, p, rng)
	if allKept(mask) {
		mask[rng.Intn(m)] = Masked
	}
	return mask
}

//Personal.AI order the ending
