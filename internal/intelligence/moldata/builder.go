package moldata

import (
	"context"
	"strconv"
	"strings"

	lru "github.com/hashicorp/golang-lru"

	"github.com/turtacn/KeyIP-MolData/internal/domain/molecule"
	"github.com/turtacn/KeyIP-MolData/pkg/errors"
)

// FeatureSource computes the concatenated feature vector of smiles under gens.
type FeatureSource interface {
	Features(ctx context.Context, smiles string, gens []molecule.FeatureGenerator) ([]float64, error)
}

// FeatureKey is the memo key of a SMILES string under a generator list.
func FeatureKey(smiles string, gens []molecule.FeatureGenerator) string {
	names := make([]string, len(gens))
	for i, g := range gens {
		names[i] = g.String()
	}
	return strings.Join(names, "+") + ":" + smiles
}

// DefaultMemoSize bounds the in-process feature memo.
const DefaultMemoSize = 100000

// MemoFeatureSource generates features in process and remembers the most
// recently used vectors per SMILES and generator list.
type MemoFeatureSource struct {
	memo *lru.Cache
}

// NewMemoFeatureSource creates an empty memo holding at most size vectors.
// A size of zero or less uses DefaultMemoSize.
func NewMemoFeatureSource(size int) *MemoFeatureSource {
	if size <= 0 {
		size = DefaultMemoSize
	}
	// lru.New only fails for non-positive sizes.
	memo, _ := lru.New(size)
	return &MemoFeatureSource{memo: memo}
}

// Features implements FeatureSource.  Callers receive their own copy.
func (m *MemoFeatureSource) Features(_ context.Context, smiles string, gens []molecule.FeatureGenerator) ([]float64, error) {
	key := FeatureKey(smiles, gens)
	if v, ok := m.memo.Get(key); ok {
		return cloneFloats(v.([]float64)), nil
	}

	v, err := molecule.GenerateFeatures(smiles, gens)
	if err != nil {
		return nil, err
	}
	m.memo.Add(key, v)
	return cloneFloats(v), nil
}

// Len returns the number of memoized vectors.
func (m *MemoFeatureSource) Len() int { return m.memo.Len() }

// ─────────────────────────────────────────────────────────────────────────────
// Builder
// ─────────────────────────────────────────────────────────────────────────────

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithFeatureSource replaces the in-process feature memo.
func WithFeatureSource(s FeatureSource) BuilderOption {
	return func(b *Builder) {
		if s != nil {
			b.source = s
		}
	}
}

// WithBuilderObserver reports build outcomes to o.
func WithBuilderObserver(o Observer) BuilderOption {
	return func(b *Builder) {
		if o != nil {
			b.observer = o
		}
	}
}

// Builder constructs Datapoints from raw rows.
type Builder struct {
	opts     Options
	source   FeatureSource
	observer Observer
}

// NewBuilder validates opts and snapshots them.
func NewBuilder(opts Options, bopts ...BuilderOption) (*Builder, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	b := &Builder{
		opts:     opts.clone(),
		source:   NewMemoFeatureSource(0),
		observer: NopObserver(),
	}
	for _, o := range bopts {
		o(b)
	}
	return b, nil
}

// Options returns a copy of the snapshot.
func (b *Builder) Options() Options { return b.opts.clone() }

// Build turns row, laid out as [name?, smiles, target...], into a Datapoint.
// precomputed, when not nil, is used as the feature vector; it must not be
// combined with feature generators.
func (b *Builder) Build(ctx context.Context, row []string, precomputed []float64) (*Datapoint, error) {
	d, err := b.build(ctx, row, precomputed)
	b.observer.DatapointBuilt(err == nil)
	return d, err
}

func (b *Builder) build(ctx context.Context, row []string, precomputed []float64) (*Datapoint, error) {
	if precomputed != nil && len(b.opts.FeatureGenerators) > 0 {
		return nil, errors.New(errors.ErrCodeConfiguration, "cannot combine precomputed features with a features generator")
	}

	d := &Datapoint{mode: b.opts.Mode}
	if b.opts.UseCompoundNames {
		if len(row) == 0 {
			return nil, errors.InvalidParam("row has no compound name")
		}
		d.Name, d.HasName = row[0], true
		row = row[1:]
	}
	if len(row) == 0 {
		return nil, errors.InvalidParam("row has no SMILES field")
	}
	d.SMILES = strings.TrimSpace(row[0])

	switch {
	case precomputed != nil:
		d.Features = cloneFloats(precomputed)
	case len(b.opts.FeatureGenerators) > 0:
		f, err := b.source.Features(ctx, d.SMILES, b.opts.FeatureGenerators)
		if err != nil {
			return nil, err
		}
		d.Features = f
	}

	if b.opts.Mode != ModeSupervised {
		d.NumTasks = 1
		return d, nil
	}

	var targets []Label
	if b.opts.PredictFeatures {
		if d.Features == nil {
			return nil, errors.New(errors.ErrCodeConfiguration, "predicting features requires features")
		}
		targets = make([]Label, len(d.Features))
		for i, v := range d.Features {
			targets[i] = Some(v)
		}
	} else {
		targets = make([]Label, 0, len(row)-1)
		for _, field := range row[1:] {
			l, err := ParseLabel(field)
			if err != nil {
				return nil, err
			}
			targets = append(targets, l)
		}
	}

	d.NumTasks = len(targets)
	if b.opts.SparseLabels {
		d.Sparse = NewSparseLabelArray(targets)
	} else {
		d.Targets = targets
	}
	return d, nil
}

// BuildAll builds one Datapoint per row.  precomputed is either nil or holds
// one vector per row.
func (b *Builder) BuildAll(ctx context.Context, rows [][]string, precomputed [][]float64) ([]*Datapoint, error) {
	if precomputed != nil && len(precomputed) != len(rows) {
		return nil, errors.Newf(errors.ErrCodeConfiguration, "%d precomputed feature vectors for %d rows", len(precomputed), len(rows))
	}
	out := make([]*Datapoint, 0, len(rows))
	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var f []float64
		if precomputed != nil {
			f = precomputed[i]
		}
		d, err := b.Build(ctx, row, f)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeUnknown, "building row "+strconv.Itoa(i))
		}
		out = append(out, d)
	}
	return out, nil
}

//Personal.AI order the ending
