package molecule

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/turtacn/KeyIP-MolData/pkg/errors"
)

// ---------------------------------------------------------------------------
// Atom property tables
// ---------------------------------------------------------------------------

// atomicNumberMap maps element symbols to atomic numbers.
var atomicNumberMap = map[string]int{
	"*": 0, "H": 1, "He": 2, "Li": 3, "Be": 4, "B": 5, "C": 6, "N": 7, "O": 8,
	"F": 9, "Ne": 10, "Na": 11, "Mg": 12, "Al": 13, "Si": 14, "P": 15,
	"S": 16, "Cl": 17, "Ar": 18, "K": 19, "Ca": 20, "Fe": 26, "Cu": 29,
	"Zn": 30, "Se": 34, "Br": 35, "Sn": 50, "I": 53, "Pt": 78,
}

// atomicMass maps atomic number to standard atomic weight.
var atomicMass = map[int]float64{
	1: 1.008, 5: 10.81, 6: 12.011, 7: 14.007, 8: 15.999, 9: 18.998,
	14: 28.085, 15: 30.974, 16: 32.06, 17: 35.45, 34: 78.971, 35: 79.904, 53: 126.90,
}

// defaultValence drives implicit hydrogen estimation for organic-subset atoms.
var defaultValence = map[int]int{
	5: 3, 6: 4, 7: 3, 8: 2, 9: 1, 15: 3, 16: 2, 17: 1, 35: 1, 53: 1,
}

// organicTwoLetter are the two-letter symbols allowed outside brackets.
var organicTwoLetter = map[string]bool{"Cl": true, "Br": true}

// ---------------------------------------------------------------------------
// Parser
// ---------------------------------------------------------------------------

type ringOpening struct {
	atom int
	bond BondType
}

type parser struct {
	runes    []rune
	atoms    []Atom
	bonds    []Bond
	branches []int
	rings    map[int]ringOpening
	prev     int
	pending  BondType // BondUnspecified until a bond symbol is read
}

// Parse converts a SMILES string into a molecular Graph.  The parser covers the
// organic subset, bracket atoms with isotope, chirality, hydrogen count and
// charge, branches, explicit bond symbols, ring closures (single digit and
// %nn) and dot-separated fragments.  Stereo bond markers are accepted and
// ignored.  An empty string yields a graph with zero atoms.
func Parse(smiles string) (*Graph, error) {
	smiles = strings.TrimSpace(smiles)
	p := &parser{
		runes: []rune(smiles),
		rings: make(map[int]ringOpening),
		prev:  -1,
	}
	if err := p.run(); err != nil {
		return nil, errors.New(errors.CodeMoleculeInvalidSMILES, err.Error()).WithDetail("smiles=" + smiles)
	}
	return newGraph(smiles, p.atoms, p.bonds), nil
}

func (p *parser) run() error {
	i := 0
	for i < len(p.runes) {
		ch := p.runes[i]
		switch {
		case ch == '(':
			if p.prev < 0 {
				return fmt.Errorf("branch opened without a preceding atom at position %d", i)
			}
			p.branches = append(p.branches, p.prev)
			i++
		case ch == ')':
			if len(p.branches) == 0 {
				return fmt.Errorf("unbalanced ')' at position %d", i)
			}
			p.prev = p.branches[len(p.branches)-1]
			p.branches = p.branches[:len(p.branches)-1]
			i++
		case ch == '-':
			p.pending = BondSingle
			i++
		case ch == '=':
			p.pending = BondDouble
			i++
		case ch == '#':
			p.pending = BondTriple
			i++
		case ch == ':':
			p.pending = BondAromatic
			i++
		case ch == '/' || ch == '\\':
			i++
		case ch == '.':
			p.prev = -1
			p.pending = BondUnspecified
			i++
		case ch == '[':
			j := i + 1
			for j < len(p.runes) && p.runes[j] != ']' {
				j++
			}
			if j >= len(p.runes) {
				return fmt.Errorf("unclosed bracket at position %d", i)
			}
			atom, err := parseBracketAtom(string(p.runes[i+1 : j]))
			if err != nil {
				return err
			}
			p.addAtom(atom)
			i = j + 1
		case ch == '%':
			if i+2 >= len(p.runes) || !unicode.IsDigit(p.runes[i+1]) || !unicode.IsDigit(p.runes[i+2]) {
				return fmt.Errorf("malformed %%nn ring closure at position %d", i)
			}
			n, _ := strconv.Atoi(string(p.runes[i+1 : i+3]))
			if err := p.ringClosure(n, i); err != nil {
				return err
			}
			i += 3
		case unicode.IsDigit(ch):
			if err := p.ringClosure(int(ch-'0'), i); err != nil {
				return err
			}
			i++
		case ch == '*' || unicode.IsLetter(ch):
			atom, advance, err := parseOrganicAtom(p.runes, i)
			if err != nil {
				return err
			}
			atom.organic = true
			p.addAtom(atom)
			i += advance
		default:
			return fmt.Errorf("unexpected character %q at position %d", ch, i)
		}
	}

	if len(p.branches) != 0 {
		return fmt.Errorf("%d unclosed branch(es)", len(p.branches))
	}
	if len(p.rings) != 0 {
		return fmt.Errorf("%d unclosed ring bond(s)", len(p.rings))
	}
	p.fillImplicitHydrogens()
	return nil
}

func (p *parser) addAtom(atom Atom) {
	idx := len(p.atoms)
	p.atoms = append(p.atoms, atom)
	if p.prev >= 0 {
		p.bond(p.prev, idx, p.pending)
	}
	p.pending = BondUnspecified
	p.prev = idx
}

func (p *parser) bond(a, b int, bt BondType) {
	if bt == BondUnspecified {
		bt = BondSingle
		if p.atoms[a].Aromatic && p.atoms[b].Aromatic {
			bt = BondAromatic
		}
	}
	p.bonds = append(p.bonds, Bond{Src: a, Dst: b, Type: bt})
}

func (p *parser) ringClosure(n, pos int) error {
	if p.prev < 0 {
		return fmt.Errorf("ring closure %d without a preceding atom at position %d", n, pos)
	}
	open, ok := p.rings[n]
	if !ok {
		p.rings[n] = ringOpening{atom: p.prev, bond: p.pending}
		p.pending = BondUnspecified
		return nil
	}
	delete(p.rings, n)
	if open.atom == p.prev {
		return fmt.Errorf("ring closure %d bonds an atom to itself at position %d", n, pos)
	}
	bt := p.pending
	if bt == BondUnspecified {
		bt = open.bond
	}
	p.bond(open.atom, p.prev, bt)
	p.pending = BondUnspecified
	return nil
}

// fillImplicitHydrogens applies a simple valence model to organic-subset atoms.
func (p *parser) fillImplicitHydrogens() {
	order := make([]int, len(p.atoms))
	for _, b := range p.bonds {
		o := b.Type.order()
		order[b.Src] += o
		order[b.Dst] += o
	}
	for i := range p.atoms {
		a := &p.atoms[i]
		if !a.organic {
			continue
		}
		v, ok := defaultValence[a.AtomicNum]
		if !ok {
			continue
		}
		used := order[i]
		if a.Aromatic {
			used++
		}
		if h := v - used; h > 0 {
			a.NumH = h
		}
	}
}

// parseOrganicAtom reads an organic-subset atom starting at position i.
// It returns the atom and the number of runes consumed.
func parseOrganicAtom(runes []rune, i int) (Atom, int, error) {
	ch := runes[i]
	if ch == '*' {
		return Atom{Symbol: "*"}, 1, nil
	}
	if unicode.IsUpper(ch) && i+1 < len(runes) {
		two := string([]rune{ch, runes[i+1]})
		if organicTwoLetter[two] {
			return Atom{Symbol: two, AtomicNum: atomicNumberMap[two]}, 2, nil
		}
	}

	aromatic := unicode.IsLower(ch)
	symbol := string(unicode.ToUpper(ch))
	if aromatic && !strings.ContainsRune("bcnops", ch) {
		return Atom{}, 0, fmt.Errorf("invalid aromatic atom %q", ch)
	}
	num, ok := atomicNumberMap[symbol]
	if !ok {
		return Atom{}, 0, fmt.Errorf("unknown element %q", symbol)
	}
	return Atom{Symbol: symbol, AtomicNum: num, Aromatic: aromatic}, 1, nil
}

// parseBracketAtom parses the content inside [...]:
// isotope? symbol chirality? hcount? charge? class?
func parseBracketAtom(content string) (Atom, error) {
	var atom Atom
	runes := []rune(content)
	idx := 0

	for idx < len(runes) && unicode.IsDigit(runes[idx]) {
		idx++
	}
	if idx >= len(runes) {
		return atom, fmt.Errorf("bracket atom %q has no element", content)
	}

	start := idx
	if runes[idx] == '*' {
		idx++
	} else {
		if !unicode.IsLetter(runes[idx]) {
			return atom, fmt.Errorf("bracket atom %q has no element", content)
		}
		atom.Aromatic = unicode.IsLower(runes[idx])
		idx++
		// Only take a second lowercase letter when it forms a known element.
		if idx < len(runes) && unicode.IsLower(runes[idx]) {
			two := strings.ToUpper(string(runes[start])) + string(runes[idx])
			if _, ok := atomicNumberMap[two]; ok {
				idx++
			}
		}
	}
	sym := string(runes[start:idx])
	sym = strings.ToUpper(sym[:1]) + sym[1:]
	num, ok := atomicNumberMap[sym]
	if !ok {
		return atom, fmt.Errorf("unknown element %q", sym)
	}
	atom.Symbol = sym
	atom.AtomicNum = num

	rest := string(runes[idx:])
	if c := strings.IndexByte(rest, ':'); c >= 0 {
		rest = rest[:c]
	}
	rest = strings.TrimLeft(rest, "@")

	if strings.HasPrefix(rest, "H") {
		rest = rest[1:]
		atom.NumH = 1
		if len(rest) > 0 && rest[0] >= '0' && rest[0] <= '9' {
			atom.NumH = int(rest[0] - '0')
			rest = rest[1:]
		}
	}

	switch {
	case rest == "":
	case strings.Trim(rest, "+") == "":
		atom.Charge = len(rest)
	case strings.Trim(rest, "-") == "":
		atom.Charge = -len(rest)
	case rest[0] == '+' || rest[0] == '-':
		n, err := strconv.Atoi(rest[1:])
		if err != nil {
			return atom, fmt.Errorf("bad charge %q in bracket atom %q", rest, content)
		}
		if rest[0] == '-' {
			n = -n
		}
		atom.Charge = n
	default:
		return atom, fmt.Errorf("unexpected %q in bracket atom %q", rest, content)
	}

	return atom, nil
}
