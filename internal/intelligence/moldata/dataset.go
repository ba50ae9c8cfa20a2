package moldata

import (
	"context"
	"math/rand"
	"strconv"
	"time"

	"github.com/turtacn/KeyIP-MolData/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-MolData/internal/intelligence/common"
	"github.com/turtacn/KeyIP-MolData/pkg/errors"
)

// DatasetOption configures a Dataset.
type DatasetOption func(*Dataset)

// WithRand sets the random source used by Shuffle, Chunk and bulk
// initialization.
func WithRand(rng *rand.Rand) DatasetOption {
	return func(ds *Dataset) {
		if rng != nil {
			ds.rng = rng
		}
	}
}

// WithSeed is WithRand with a freshly seeded source.
func WithSeed(seed int64) DatasetOption {
	return func(ds *Dataset) { ds.rng = rand.New(rand.NewSource(seed)) }
}

// WithLogger sets the dataset logger.
func WithLogger(l logging.Logger) DatasetOption {
	return func(ds *Dataset) {
		if l != nil {
			ds.logger = l
		}
	}
}

// WithObserver reports dataset events to o.
func WithObserver(o Observer) DatasetOption {
	return func(ds *Dataset) {
		if o != nil {
			ds.observer = o
		}
	}
}

// Dataset is an ordered collection of Datapoints.  It is not safe for
// concurrent use.  Datasets returned by Chunk share Datapoints with their
// parent.
type Dataset struct {
	data         []*Datapoint
	mode         Mode
	featuresSize int
	scaler       *StandardScaler

	rng      *rand.Rand
	logger   logging.Logger
	observer Observer
}

// NewDataset wraps points.  All points must share the mode and task count of
// the first one.
func NewDataset(points []*Datapoint, opts ...DatasetOption) (*Dataset, error) {
	for i, d := range points {
		if d == nil {
			return nil, errors.InvalidParam("nil datapoint").WithDetail("index=" + strconv.Itoa(i))
		}
		if d.mode != points[0].mode || d.NumTasks != points[0].NumTasks {
			return nil, errors.Newf(errors.ErrCodeConfiguration,
				"datapoint %d (%s, %d tasks) does not match datapoint 0 (%s, %d tasks)",
				i, d.mode, d.NumTasks, points[0].mode, points[0].NumTasks)
		}
	}
	ds := &Dataset{
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		logger:   logging.NewNopLogger(),
		observer: NopObserver(),
	}
	for _, o := range opts {
		o(ds)
	}
	ds.reset(points)
	return ds, nil
}

func (ds *Dataset) reset(points []*Datapoint) {
	ds.data = points
	ds.mode = ModeSupervised
	ds.featuresSize = 0
	if len(points) > 0 {
		ds.mode = points[0].mode
		ds.featuresSize = len(points[0].Features)
	}
}

// Reseed replaces the random source with one seeded by seed.
func (ds *Dataset) Reseed(seed int64) { ds.rng = rand.New(rand.NewSource(seed)) }

// Len returns the number of Datapoints.
func (ds *Dataset) Len() int { return len(ds.data) }

// At returns the i-th Datapoint.
func (ds *Dataset) At(i int) (*Datapoint, error) {
	if i < 0 || i >= len(ds.data) {
		return nil, errors.OutOfRange(i, len(ds.data))
	}
	return ds.data[i], nil
}

// Points returns the Datapoints in order.  The slice is a copy; the
// Datapoints are not.
func (ds *Dataset) Points() []*Datapoint { return append([]*Datapoint(nil), ds.data...) }

// Mode returns the regime of the Datapoints.
func (ds *Dataset) Mode() Mode { return ds.mode }

// Pretraining reports whether the Datapoints were built for pretraining.
func (ds *Dataset) Pretraining() bool { return ds.mode == ModePretraining }

// FeaturesSize is the feature width of the first Datapoint, 0 if it has none.
func (ds *Dataset) FeaturesSize() int { return ds.featuresSize }

// Scaler returns the cached scaler, if any.
func (ds *Dataset) Scaler() *StandardScaler { return ds.scaler }

// ─────────────────────────────────────────────────────────────────────────────
// Views
// ─────────────────────────────────────────────────────────────────────────────

// Names returns the compound names, or nil when the Datapoints carry none.
func (ds *Dataset) Names() []string {
	if len(ds.data) == 0 || !ds.data[0].HasName {
		return nil
	}
	out := make([]string, len(ds.data))
	for i, d := range ds.data {
		out[i] = d.Name
	}
	return out
}

// SMILES returns the identifiers in order.
func (ds *Dataset) SMILES() []string {
	out := make([]string, len(ds.data))
	for i, d := range ds.data {
		out[i] = d.SMILES
	}
	return out
}

// SubstructureView pairs an identifier with its collapsed index layout.
type SubstructureView struct {
	SMILES        string
	IndexMap      []int
	Substructures [][]int
}

// SubstructureViews returns the substructure layout of every Datapoint, or
// nil unless the dataset was initialized with the substructure vocabulary.
func (ds *Dataset) SubstructureViews() []SubstructureView {
	if len(ds.data) == 0 || ds.data[0].SubstructureIndex == nil {
		return nil
	}
	out := make([]SubstructureView, len(ds.data))
	for i, d := range ds.data {
		out[i] = SubstructureView{SMILES: d.SMILES, IndexMap: d.SubstructureIndex, Substructures: d.Substructures}
	}
	return out
}

// Features returns the feature matrix, or nil when the Datapoints carry none.
func (ds *Dataset) Features() [][]float64 {
	if len(ds.data) == 0 || ds.data[0].Features == nil {
		return nil
	}
	out := make([][]float64, len(ds.data))
	for i, d := range ds.data {
		out[i] = d.Features
	}
	return out
}

// NumTasks returns the task count, 0 for an empty dataset.
func (ds *Dataset) NumTasks() int {
	if len(ds.data) == 0 {
		return 0
	}
	return ds.data[0].NumTasks
}

// PretrainingTargets bundles the flattened vocabulary targets with the
// optional auxiliary feature targets.
type PretrainingTargets struct {
	Vocab    []int
	Features [][]float64
}

// TargetView holds exactly one representation of the dataset targets.
type TargetView struct {
	Dense       [][]Label
	Sparse      []*SparseLabelArray
	Pretraining *PretrainingTargets
}

// Targets returns the target view matching the dataset mode.
func (ds *Dataset) Targets() TargetView {
	if ds.Pretraining() {
		vocab := make([]int, 0, len(ds.data))
		for _, d := range ds.data {
			vocab = append(vocab, d.VocabTargets...)
		}
		return TargetView{Pretraining: &PretrainingTargets{Vocab: vocab, Features: ds.Features()}}
	}
	if len(ds.data) > 0 && ds.data[0].Sparse != nil {
		out := make([]*SparseLabelArray, len(ds.data))
		for i, d := range ds.data {
			out[i] = d.Sparse
		}
		return TargetView{Sparse: out}
	}
	out := make([][]Label, len(ds.data))
	for i, d := range ds.data {
		out[i] = d.Targets
	}
	return TargetView{Dense: out}
}

// Mask concatenates every Datapoint mask in order.
func (ds *Dataset) Mask() ([]int, error) {
	if !ds.Pretraining() {
		return nil, errors.InvalidState("mask is undefined outside pretraining mode")
	}
	out := make([]int, 0, len(ds.data))
	for _, d := range ds.data {
		out = append(out, d.Mask...)
	}
	return out, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Mutation
// ─────────────────────────────────────────────────────────────────────────────

// Shuffle permutes the Datapoints in place.  In pretraining mode every
// initialized Datapoint also draws a new mask.
func (ds *Dataset) Shuffle() error {
	ds.rng.Shuffle(len(ds.data), func(i, j int) { ds.data[i], ds.data[j] = ds.data[j], ds.data[i] })
	if !ds.Pretraining() {
		return nil
	}
	regenerated := 0
	strategy := ""
	for _, d := range ds.data {
		if !d.Initialized() {
			continue
		}
		if err := d.RecreateMask(ds.rng); err != nil {
			return err
		}
		regenerated++
		strategy = d.cfg.MaskStrategy.String()
	}
	if regenerated > 0 {
		ds.observer.MaskRegenerated(strategy, regenerated)
	}
	return nil
}

// Chunk shuffles and then splits the dataset into n contiguous datasets of
// ceil(Len()/n) Datapoints; trailing chunks may be shorter or empty.  Chunks
// share Datapoints with ds and draw their random sources from it.
func (ds *Dataset) Chunk(n int) ([]*Dataset, error) {
	if n < 1 {
		return nil, errors.Newf(errors.ErrCodeConfiguration, "chunk count must be at least 1, got %d", n)
	}
	if err := ds.Shuffle(); err != nil {
		return nil, err
	}
	size := (len(ds.data) + n - 1) / n
	out := make([]*Dataset, n)
	for i := 0; i < n; i++ {
		lo, hi := clamp(i*size, len(ds.data)), clamp((i+1)*size, len(ds.data))
		sub := &Dataset{
			rng:      rand.New(rand.NewSource(ds.rng.Int63())),
			logger:   ds.logger,
			observer: ds.observer,
		}
		sub.reset(append([]*Datapoint(nil), ds.data[lo:hi]...))
		if lo == hi {
			sub.mode = ds.mode
		}
		out[i] = sub
	}
	return out, nil
}

func clamp(v, hi int) int {
	if v > hi {
		return hi
	}
	return v
}

// NormalizeFeatures standardizes every feature vector in place and returns
// the scaler used.  A supplied scaler is adopted and cached; otherwise the
// cached scaler is reused, or a new one is fitted and cached.  Without
// features it does nothing and returns nil.
func (ds *Dataset) NormalizeFeatures(scaler *StandardScaler) (*StandardScaler, error) {
	if len(ds.data) == 0 || ds.data[0].Features == nil {
		return nil, nil
	}

	source := ScalerSupplied
	switch {
	case scaler != nil:
	case ds.scaler != nil:
		scaler, source = ds.scaler, ScalerCached
	default:
		scaler, source = NewStandardScaler(), ScalerFitted
		if err := scaler.Fit(ds.Features()); err != nil {
			return nil, err
		}
	}

	transformed := make([][]float64, len(ds.data))
	for i, d := range ds.data {
		t, err := scaler.Transform(d.Features)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeUnknown, "normalizing "+d.SMILES)
		}
		transformed[i] = t
	}
	for i, d := range ds.data {
		d.Features = transformed[i]
	}
	ds.scaler = scaler
	ds.observer.FeaturesNormalized(source)
	return scaler, nil
}

// SetTargets assigns one label per Datapoint, positionally.  It is meant for
// unsupervised and pretraining data.
func (ds *Dataset) SetTargets(targets []Label) error {
	if len(targets) != len(ds.data) {
		return errors.Newf(errors.ErrCodeConfiguration, "%d targets for %d datapoints", len(targets), len(ds.data))
	}
	for i, d := range ds.data {
		d.SetTarget(targets[i])
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Bulk pretraining initialization
// ─────────────────────────────────────────────────────────────────────────────

// BulkPretrainInit runs PretrainInit on every Datapoint through exec.  Each
// element gets its own seed, drawn in order before any work starts, and works
// on a private clone under a private copy of cfg, so the outcome does not
// depend on scheduling.  When exec reports resource exhaustion the whole
// batch is redone sequentially on the calling goroutine.  A nil exec or
// cfg.Sequential selects sequential execution directly.
func (ds *Dataset) BulkPretrainInit(ctx context.Context, cfg PretrainConfig, exec common.Executor) error {
	if !ds.Pretraining() {
		return errors.InvalidState("bulk pretraining initialization requires pretraining mode")
	}
	if cfg.Vocab == nil {
		return errors.InvalidState("bulk pretraining initialization requires a vocabulary")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	n := len(ds.data)
	seeds := make([]int64, n)
	for i := range seeds {
		seeds[i] = ds.rng.Int63()
	}
	results := make([]*Datapoint, n)
	work := func(_ context.Context, i int) error {
		c := ds.data[i].Clone()
		if err := c.PretrainInit(cfg.Clone(), rand.New(rand.NewSource(seeds[i]))); err != nil {
			return errors.Wrap(err, errors.CodeUnknown, "initializing "+c.SMILES)
		}
		results[i] = c
		return nil
	}

	start := time.Now()
	mode := InitParallel
	var err error
	if cfg.Sequential || exec == nil {
		mode = InitSequential
		err = common.Sequential{}.Run(ctx, n, work)
	} else {
		err = exec.Run(ctx, n, work)
		if err != nil && common.IsResourceExhaustion(err) {
			ds.logger.Warn("worker pool unavailable, initializing sequentially",
				logging.Int("datapoints", n), logging.Err(err))
			ds.observer.PoolFallback()
			mode = InitFallback
			for i := range results {
				results[i] = nil
			}
			err = common.Sequential{}.Run(ctx, n, work)
		}
	}
	if err != nil {
		return err
	}

	for i, d := range ds.data {
		*d = *results[i]
	}
	ds.observer.PretrainInitialized(mode, time.Since(start))
	ds.logger.Debug("finished initializing pretraining targets and masks",
		logging.Int("datapoints", n), logging.String("mode", mode))
	return nil
}

//Personal.AI order the ending
