// Package molecule is the in-repo chemistry collaborator of the dataset layer.
// It parses SMILES into an atom graph, derives per-atom and per-substructure
// signatures used as vocabulary keys, partitions atoms into disjoint
// substructures, and computes fixed-length feature vectors.
//
// The chemistry is deliberately simplified: valences, aromaticity and
// descriptors are approximations, and nothing here claims chemical
// correctness.  What the dataset layer relies on is that every function is
// deterministic for a given SMILES string.
package molecule

import (
	"fmt"
	"sort"
	"strings"
)

// BondType enumerates bond orders.
type BondType int

const (
	BondUnspecified BondType = iota
	BondSingle
	BondDouble
	BondTriple
	BondAromatic
)

func (b BondType) order() int {
	switch b {
	case BondDouble:
		return 2
	case BondTriple:
		return 3
	default:
		return 1
	}
}

// Atom is a parsed heavy atom (or explicit bracket hydrogen).
type Atom struct {
	Symbol    string
	AtomicNum int
	Aromatic  bool
	Charge    int
	NumH      int

	organic bool
}

// Bond connects two atom indices.
type Bond struct {
	Src  int
	Dst  int
	Type BondType
}

// Graph is an immutable molecular graph.
type Graph struct {
	SMILES string
	Atoms  []Atom
	Bonds  []Bond

	adjacency [][]int
	ringBond  []bool
	ringAtom  []bool
}

func newGraph(smiles string, atoms []Atom, bonds []Bond) *Graph {
	g := &Graph{
		SMILES:    smiles,
		Atoms:     atoms,
		Bonds:     bonds,
		adjacency: make([][]int, len(atoms)),
	}
	for _, b := range bonds {
		g.adjacency[b.Src] = append(g.adjacency[b.Src], b.Dst)
		g.adjacency[b.Dst] = append(g.adjacency[b.Dst], b.Src)
	}
	for i := range g.adjacency {
		sort.Ints(g.adjacency[i])
	}
	g.markRings()
	return g
}

// NumAtoms returns the atom count.
func (g *Graph) NumAtoms() int { return len(g.Atoms) }

// Degree returns the number of neighbours of atom i.
func (g *Graph) Degree(i int) int { return len(g.adjacency[i]) }

// Neighbors returns the sorted neighbour indices of atom i.  The slice is
// shared with the graph and must not be modified.
func (g *Graph) Neighbors(i int) []int { return g.adjacency[i] }

// Adjacency returns a copy of the per-atom neighbour lists.
func (g *Graph) Adjacency() [][]int {
	out := make([][]int, len(g.adjacency))
	for i, nbrs := range g.adjacency {
		out[i] = append([]int{}, nbrs...)
	}
	return out
}

// InRing reports whether atom i belongs to at least one ring.
func (g *Graph) InRing(i int) bool { return g.ringAtom[i] }

// NumRings returns the cyclomatic number (bonds - atoms + components).
func (g *Graph) NumRings() int {
	return len(g.Bonds) - len(g.Atoms) + g.NumComponents()
}

// NumComponents returns the number of disconnected fragments.
func (g *Graph) NumComponents() int {
	seen := make([]bool, len(g.Atoms))
	n := 0
	for i := range g.Atoms {
		if seen[i] {
			continue
		}
		n++
		stack := []int{i}
		seen[i] = true
		for len(stack) > 0 {
			a := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			for _, b := range g.adjacency[a] {
				if !seen[b] {
					seen[b] = true
					stack = append(stack, b)
				}
			}
		}
	}
	return n
}

// AtomSignature is the canonical local feature signature of atom i: element
// (lowercase when aromatic), degree, formal charge, hydrogen count and ring
// membership.  Signatures are the atom-level vocabulary keys.
func (g *Graph) AtomSignature(i int) string {
	a := g.Atoms[i]
	sym := a.Symbol
	if a.Aromatic {
		sym = strings.ToLower(sym)
	}
	ring := 0
	if g.ringAtom[i] {
		ring = 1
	}
	return fmt.Sprintf("%s;D%d;C%+d;H%d;R%d", sym, g.Degree(i), a.Charge, a.NumH, ring)
}

// markRings flags ring bonds as the non-bridge edges of the graph.
func (g *Graph) markRings() {
	n := len(g.Atoms)
	g.ringAtom = make([]bool, n)
	g.ringBond = make([]bool, len(g.Bonds))
	if n == 0 {
		return
	}

	type edge struct{ to, id int }
	adj := make([][]edge, n)
	for id, b := range g.Bonds {
		adj[b.Src] = append(adj[b.Src], edge{b.Dst, id})
		adj[b.Dst] = append(adj[b.Dst], edge{b.Src, id})
	}

	disc := make([]int, n)
	low := make([]int, n)
	for i := range disc {
		disc[i] = -1
	}
	bridge := make([]bool, len(g.Bonds))
	timer := 0

	var dfs func(u, parentEdge int)
	dfs = func(u, parentEdge int) {
		disc[u] = timer
		low[u] = timer
		timer++
		for _, e := range adj[u] {
			if e.id == parentEdge {
				continue
			}
			if disc[e.to] == -1 {
				dfs(e.to, e.id)
				if low[e.to] < low[u] {
					low[u] = low[e.to]
				}
				if low[e.to] > disc[u] {
					bridge[e.id] = true
				}
			} else if disc[e.to] < low[u] {
				low[u] = disc[e.to]
			}
		}
	}
	for i := 0; i < n; i++ {
		if disc[i] == -1 {
			dfs(i, -1)
		}
	}

	for id, b := range g.Bonds {
		if !bridge[id] {
			g.ringBond[id] = true
			g.ringAtom[b.Src] = true
			g.ringAtom[b.Dst] = true
		}
	}
}
