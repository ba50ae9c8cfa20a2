package moldata

import (
	"fmt"
	"sort"

	"github.com/turtacn/KeyIP-MolData/pkg/errors"
)

// SortSubstructures returns copies of groups, each sorted ascending, ordered
// by their minimum atom index.  It is the canonical order that both the index
// map and the vocabulary targets use.
func SortSubstructures(groups [][]int) [][]int {
	out := make([][]int, 0, len(groups))
	for _, g := range groups {
		if len(g) == 0 {
			continue
		}
		c := append([]int(nil), g...)
		sort.Ints(c)
		out = append(out, c)
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a][0] < out[b][0] })
	return out
}

// SubstructureIndexMap maps every atom of an n-atom molecule to a slot in the
// collapsed space.  Atoms outside every group take slots 0..r-1 in ascending
// order; the groups, in SortSubstructures order, take slots r..r+len(groups)-1
// and all members of a group share its slot.  Overlapping groups or atom
// indices outside [0, n) are rejected.
func SubstructureIndexMap(n int, groups [][]int) ([]int, error) {
	sorted := SortSubstructures(groups)

	inGroup := make([]bool, n)
	for _, g := range sorted {
		for _, a := range g {
			if a < 0 || a >= n {
				return nil, errors.OutOfRange(a, n).WithDetail("substructure atom index")
			}
			if inGroup[a] {
				return nil, errors.New(errors.ErrCodeConfiguration, "substructures overlap").
					WithDetail(fmt.Sprintf("atom=%d", a))
			}
			inGroup[a] = true
		}
	}

	index := make([]int, n)
	remaining := 0
	for a := 0; a < n; a++ {
		if !inGroup[a] {
			index[a] = remaining
			remaining++
		}
	}
	for i, g := range sorted {
		for _, a := range g {
			index[a] = remaining + i
		}
	}
	return index, nil
}

// NumSlots returns the size of the collapsed space described by index.
func NumSlots(index []int) int {
	max := -1
	for _, s := range index {
		if s > max {
			max = s
		}
	}
	return max + 1
}

//Personal.AI order the ending
