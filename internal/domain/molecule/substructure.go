package molecule

import (
	"fmt"
	"sort"
	"strings"
)

// Substructures partitions atoms into disjoint connected groups.  Sizes are
// processed in the order given; for each size, seeds are tried in ascending
// atom order and a group grows by always adding the lowest-indexed unused
// neighbour of the group so far.  At most maxCount groups are kept per size
// (values below 1 are treated as 1).  Atoms already claimed by an earlier
// group are never reused, so the result is pairwise disjoint.  Each returned
// group is sorted ascending.
func (g *Graph) Substructures(sizes []int, maxCount int) [][]int {
	if maxCount < 1 {
		maxCount = 1
	}
	used := make([]bool, g.NumAtoms())
	var groups [][]int

	for _, size := range sizes {
		if size < 1 {
			continue
		}
		found := 0
		for seed := 0; seed < g.NumAtoms() && found < maxCount; seed++ {
			if used[seed] {
				continue
			}
			group := g.grow(seed, size, used)
			if len(group) != size {
				continue
			}
			for _, a := range group {
				used[a] = true
			}
			groups = append(groups, group)
			found++
		}
	}
	return groups
}

func (g *Graph) grow(seed, size int, used []bool) []int {
	inGroup := map[int]bool{seed: true}
	group := []int{seed}
	for len(group) < size {
		next := -1
		for _, a := range group {
			for _, b := range g.adjacency[a] {
				if used[b] || inGroup[b] {
					continue
				}
				if next == -1 || b < next {
					next = b
				}
			}
		}
		if next == -1 {
			break
		}
		inGroup[next] = true
		group = append(group, next)
	}
	sort.Ints(group)
	return group
}

// SubstructureSignature is the canonical feature signature of an atom group:
// its size, the sorted signatures of its members and the number of bonds
// internal to the group.  It is the substructure-level vocabulary key.
func (g *Graph) SubstructureSignature(group []int) string {
	members := make(map[int]bool, len(group))
	sigs := make([]string, 0, len(group))
	for _, a := range group {
		members[a] = true
		sigs = append(sigs, g.AtomSignature(a))
	}
	sort.Strings(sigs)

	internal := 0
	for _, b := range g.Bonds {
		if members[b.Src] && members[b.Dst] {
			internal++
		}
	}
	return fmt.Sprintf("S%d[%s]B%d", len(group), strings.Join(sigs, "|"), internal)
}

//Personal.AI order the ending
