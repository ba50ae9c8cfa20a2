// Package vocab maps canonical atom and substructure signatures to integer
// ids used as pretraining prediction targets.
//
// A Vocabulary is immutable once built or loaded, so one instance may be read
// concurrently by every worker of a bulk initialization.
package vocab

import (
	"encoding/json"
	"io"
	"sort"
	"strings"

	"github.com/turtacn/KeyIP-MolData/internal/domain/molecule"
	"github.com/turtacn/KeyIP-MolData/pkg/errors"
)

// UnknownToken is reserved at id 0 for signatures never seen while building.
const (
	UnknownToken = "<unk>"
	UnknownID    = 0
)

// Strategy selects the unit a vocabulary id is assigned to.
type Strategy int

const (
	StrategyAtom Strategy = iota + 1
	StrategySubstructure
)

var strategyNames = map[Strategy]string{
	StrategyAtom:         "atom",
	StrategySubstructure: "substructure",
}

// ParseStrategy resolves a vocabulary strategy name.
func ParseStrategy(name string) (Strategy, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for s, sn := range strategyNames {
		if sn == n {
			return s, nil
		}
	}
	return 0, errors.New(errors.ErrCodeConfiguration, "vocabulary strategy not supported").WithDetail("strategy=" + name)
}

func (s Strategy) String() string {
	if n, ok := strategyNames[s]; ok {
		return n
	}
	return "unknown"
}

// Spec describes how signatures are extracted from a molecule.
type Spec struct {
	Strategy             Strategy
	SubstructureSizes    []int
	SubstructureMaxCount int
}

// Vocabulary is a signature ↔ id mapping.
type Vocabulary struct {
	spec Spec
	stoi map[string]int
	itos []string
}

// Build constructs a vocabulary from a corpus of SMILES.  Atom signatures are
// always included; in substructure mode the signatures of the substructures
// extracted under spec are added too.  Ids are assigned in sorted signature
// order after the unknown token, so the same corpus always yields the same ids.
func Build(corpus []string, spec Spec) (*Vocabulary, error) {
	if _, ok := strategyNames[spec.Strategy]; !ok {
		return nil, errors.Newf(errors.ErrCodeConfiguration, "vocabulary strategy %d not supported", int(spec.Strategy))
	}

	seen := make(map[string]struct{})
	for _, smiles := range corpus {
		g, err := molecule.Parse(smiles)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeVocabularyInvalid, "building vocabulary")
		}
		for _, sig := range Signatures(g, spec) {
			seen[sig] = struct{}{}
		}
	}

	words := make([]string, 0, len(seen))
	for w := range seen {
		words = append(words, w)
	}
	sort.Strings(words)
	return newVocabulary(spec, words), nil
}

// Signatures returns every vocabulary key contributed by g under spec.
func Signatures(g *molecule.Graph, spec Spec) []string {
	out := make([]string, 0, g.NumAtoms())
	for i := 0; i < g.NumAtoms(); i++ {
		out = append(out, g.AtomSignature(i))
	}
	if spec.Strategy == StrategySubstructure {
		for _, grp := range g.Substructures(spec.SubstructureSizes, spec.SubstructureMaxCount) {
			out = append(out, g.SubstructureSignature(grp))
		}
	}
	return out
}

func newVocabulary(spec Spec, words []string) *Vocabulary {
	v := &Vocabulary{
		spec: spec,
		stoi: make(map[string]int, len(words)+1),
		itos: make([]string, 0, len(words)+1),
	}
	v.add(UnknownToken)
	for _, w := range words {
		v.add(w)
	}
	return v
}

func (v *Vocabulary) add(w string) {
	if _, ok := v.stoi[w]; ok {
		return
	}
	v.stoi[w] = len(v.itos)
	v.itos = append(v.itos, w)
}

// W2I returns the id of a signature, or UnknownID.
func (v *Vocabulary) W2I(signature string) int {
	if id, ok := v.stoi[signature]; ok {
		return id
	}
	return UnknownID
}

// I2W returns the signature for id.
func (v *Vocabulary) I2W(id int) (string, bool) {
	if id < 0 || id >= len(v.itos) {
		return "", false
	}
	return v.itos[id], true
}

// OutputSize is the number of ids, including the unknown token.
func (v *Vocabulary) OutputSize() int { return len(v.itos) }

// Spec returns the extraction settings the vocabulary was built with.
func (v *Vocabulary) Spec() Spec { return v.spec }

// ─────────────────────────────────────────────────────────────────────────────
// Persistence
// ─────────────────────────────────────────────────────────────────────────────

type snapshot struct {
	Strategy             string   `json:"strategy"`
	SubstructureSizes    []int    `json:"substructure_sizes,omitempty"`
	SubstructureMaxCount int      `json:"substructure_max_count,omitempty"`
	Words                []string `json:"words"`
}

// MarshalJSON encodes the vocabulary with ids implied by word position.
func (v *Vocabulary) MarshalJSON() ([]byte, error) {
	return json.Marshal(snapshot{
		Strategy:             v.spec.Strategy.String(),
		SubstructureSizes:    v.spec.SubstructureSizes,
		SubstructureMaxCount: v.spec.SubstructureMaxCount,
		Words:                v.itos,
	})
}

// UnmarshalJSON restores a vocabulary written by MarshalJSON.
func (v *Vocabulary) UnmarshalJSON(data []byte) error {
	var s snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "decoding vocabulary")
	}
	strategy, err := ParseStrategy(s.Strategy)
	if err != nil {
		return err
	}
	if len(s.Words) == 0 || s.Words[0] != UnknownToken {
		return errors.New(errors.ErrCodeVocabularyInvalid, "vocabulary must start with the unknown token")
	}
	restored := newVocabulary(Spec{
		Strategy:             strategy,
		SubstructureSizes:    s.SubstructureSizes,
		SubstructureMaxCount: s.SubstructureMaxCount,
	}, s.Words[1:])
	if restored.OutputSize() != len(s.Words) {
		return errors.New(errors.ErrCodeVocabularyInvalid, "vocabulary contains duplicate words")
	}
	*v = *restored
	return nil
}

// Save writes the vocabulary as JSON.
func (v *Vocabulary) Save(w io.Writer) error {
	return json.NewEncoder(w).Encode(v)
}

// Load reads a vocabulary written by Save.
func Load(r io.Reader) (*Vocabulary, error) {
	v := &Vocabulary{}
	if err := json.NewDecoder(r).Decode(v); err != nil {
		return nil, err
	}
	return v, nil
}

//Personal.AI order the ending
