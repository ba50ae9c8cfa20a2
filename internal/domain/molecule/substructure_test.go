package molecule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, smiles string) *Graph {
	t.Helper()
	g, err := Parse(smiles)
	require.NoError(t, err)
	return g
}

func TestAtomSignature(t *testing.T) {
	g := mustParse(t, "c1ccccc1C")
	assert.Equal(t, "c;D2;C+0;H1;R1", g.AtomSignature(1))
	assert.Equal(t, "c;D3;C+0;H0;R1", g.AtomSignature(5))
	assert.Equal(t, "C;D1;C+0;H3;R0", g.AtomSignature(6))
}

func TestSubstructures_MaxCountPerSize(t *testing.T) {
	g := mustParse(t, "CCCCCC")

	assert.Equal(t, [][]int{{0, 1}}, g.Substructures([]int{2}, 1))
	assert.Equal(t, [][]int{{0, 1}, {2, 3}}, g.Substructures([]int{2}, 2))
	assert.Equal(t, [][]int{{0, 1}}, g.Substructures([]int{2}, 0), "maxCount below 1 behaves as 1")
}

func TestSubstructures_SizesInOrderAreDisjoint(t *testing.T) {
	g := mustParse(t, "CCCCCC")
	groups := g.Substructures([]int{3, 2}, 1)
	assert.Equal(t, [][]int{{0, 1, 2}, {3, 4}}, groups)

	seen := map[int]bool{}
	for _, grp := range groups {
		for _, a := range grp {
			assert.False(t, seen[a], "atom %d reused", a)
			seen[a] = true
		}
	}
}

func TestSubstructures_BranchedGrowthIsConnected(t *testing.T) {
	g := mustParse(t, "CC(C)(C)CO")
	groups := g.Substructures([]int{4}, 1)
	require.Len(t, groups, 1)
	assert.Equal(t, []int{0, 1, 2, 3}, groups[0])
}

func TestSubstructures_NoneWhenTooSmall(t *testing.T) {
	g := mustParse(t, "CO")
	assert.Empty(t, g.Substructures([]int{3}, 1))
	assert.Empty(t, mustParse(t, "").Substructures([]int{1}, 1))
}

func TestSubstructureSignature(t *testing.T) {
	g := mustParse(t, "CCCCCC")
	sig := g.SubstructureSignature([]int{0, 1})
	assert.Equal(t, "S2[C;D1;C+0;H3;R0|C;D2;C+0;H2;R0]B1", sig)

	// member order does not matter
	assert.Equal(t, sig, g.SubstructureSignature([]int{1, 0}))
	// same shape at the other end of the chain
	assert.Equal(t, sig, g.SubstructureSignature([]int{4, 5}))
}

//Personal.AI order the ending
