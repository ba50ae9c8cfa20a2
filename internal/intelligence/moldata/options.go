// Package moldata turns raw molecule rows into training-ready examples.
//
// A Builder assembles Datapoints from CSV rows under an immutable Options
// snapshot: compound names, feature vectors (precomputed or generated),
// dense or sparse labels.  A Dataset orders Datapoints and exposes the
// aggregate views a training loop consumes, together with shuffling,
// chunking, cached feature normalization and the masked-unit pretraining
// setup.
//
// Datasets own their random source.  Seed it with WithSeed or Reseed
// when a run must be reproducible.
package moldata

import (
	"strings"

	"github.com/turtacn/KeyIP-MolData/internal/domain/molecule"
	"github.com/turtacn/KeyIP-MolData/internal/intelligence/vocab"
	"github.com/turtacn/KeyIP-MolData/pkg/errors"
)

// Mode is the training regime a Datapoint is built for.
type Mode int

const (
	ModeSupervised Mode = iota
	ModeUnsupervised
	ModePretraining
)

// ParseMode maps a dataset type name onto a Mode.  Regression and
// classification are both supervised.
func ParseMode(datasetType string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(datasetType)) {
	case "regression", "classification", "":
		return ModeSupervised, nil
	case "unsupervised":
		return ModeUnsupervised, nil
	case "pretraining", "bert_pretraining":
		return ModePretraining, nil
	default:
		return 0, errors.New(errors.ErrCodeConfiguration, "dataset type not supported").WithDetail("type=" + datasetType)
	}
}

func (m Mode) String() string {
	switch m {
	case ModeSupervised:
		return "supervised"
	case ModeUnsupervised:
		return "unsupervised"
	case ModePretraining:
		return "pretraining"
	default:
		return "unknown"
	}
}

// Vocabulary maps atom and substructure signatures to integer ids.
type Vocabulary interface {
	W2I(signature string) int
	OutputSize() int
}

// PretrainConfig carries what pretraining initialization needs.  Each worker
// of a bulk initialization receives its own Clone.
type PretrainConfig struct {
	MaskStrategy         MaskStrategy
	MaskProbability      float64
	VocabStrategy        vocab.Strategy
	SubstructureSizes    []int
	SubstructureMaxCount int
	Vocab                Vocabulary
	// FeaturesSize is the auxiliary feature width, 0 when there are none.
	FeaturesSize int
	// Sequential disables the worker pool for bulk initialization.
	Sequential bool
}

// Clone returns a copy that shares no slices with c.  The vocabulary is
// immutable and stays shared.
func (c PretrainConfig) Clone() PretrainConfig {
	out := c
	out.SubstructureSizes = append([]int(nil), c.SubstructureSizes...)
	return out
}

// VocabSpec returns the signature extraction settings of c.
func (c PretrainConfig) VocabSpec() vocab.Spec {
	return vocab.Spec{
		Strategy:             c.VocabStrategy,
		SubstructureSizes:    c.SubstructureSizes,
		SubstructureMaxCount: c.SubstructureMaxCount,
	}
}

// Validate checks the strategy selectors and the mask probability.
func (c PretrainConfig) Validate() error {
	if _, ok := maskStrategies[c.MaskStrategy]; !ok {
		return errors.Newf(errors.ErrCodeConfiguration, "mask strategy %d not supported", int(c.MaskStrategy))
	}
	if c.VocabStrategy != vocab.StrategyAtom && c.VocabStrategy != vocab.StrategySubstructure {
		return errors.Newf(errors.ErrCodeConfiguration, "vocabulary strategy %d not supported", int(c.VocabStrategy))
	}
	if c.MaskProbability < 0 || c.MaskProbability > 1 {
		return errors.Newf(errors.ErrCodeConfiguration, "mask probability %v outside [0, 1]", c.MaskProbability)
	}
	if c.VocabStrategy == vocab.StrategySubstructure && len(c.SubstructureSizes) == 0 {
		return errors.New(errors.ErrCodeConfiguration, "substructure vocabulary needs substructure sizes")
	}
	return nil
}

// Options is the construction-time snapshot shared by every Datapoint a
// Builder produces.  It is never mutated after NewBuilder.
type Options struct {
	Mode              Mode
	UseCompoundNames  bool
	FeatureGenerators []molecule.FeatureGenerator
	SparseLabels      bool
	PredictFeatures   bool
	Pretrain          PretrainConfig
}

// Pretraining reports whether Datapoints are built for pretraining.
func (o Options) Pretraining() bool { return o.Mode == ModePretraining }

// Validate rejects inconsistent option combinations.
func (o Options) Validate() error {
	switch o.Mode {
	case ModeSupervised, ModeUnsupervised, ModePretraining:
	default:
		return errors.Newf(errors.ErrCodeConfiguration, "mode %d not supported", int(o.Mode))
	}
	for _, g := range o.FeatureGenerators {
		if g.Size() == 0 {
			return errors.Newf(errors.ErrCodeConfiguration, "features generator %d not supported", int(g))
		}
	}
	if o.Pretraining() {
		return o.Pretrain.Validate()
	}
	return nil
}

func (o Options) clone() Options {
	out := o
	out.FeatureGenerators = append([]molecule.FeatureGenerator(nil), o.FeatureGenerators...)
	out.Pretrain = o.Pretrain.Clone()
	return out
}

//Personal.AI order the ending
