// Package pretraining orchestrates dataset preparation runs: reading rows,
// building datapoints with memoized features, resolving the vocabulary,
// initializing pretraining targets, normalizing, and exporting chunks that
// downstream trainers pick up from the artifact store.
package pretraining

import (
	"github.com/turtacn/KeyIP-MolData/internal/config"
	"github.com/turtacn/KeyIP-MolData/internal/domain/molecule"
	"github.com/turtacn/KeyIP-MolData/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-MolData/internal/intelligence/common"
	"github.com/turtacn/KeyIP-MolData/internal/intelligence/moldata"
	"github.com/turtacn/KeyIP-MolData/internal/intelligence/vocab"
)

// OptionsFromConfig converts the loaded configuration into the immutable
// builder snapshot.  The vocabulary is left unset; it is resolved per run.
func OptionsFromConfig(cfg *config.Config) (moldata.Options, error) {
	mode, err := moldata.ParseMode(cfg.Dataset.Type)
	if err != nil {
		return moldata.Options{}, err
	}
	gens, err := molecule.ParseFeatureGenerators(cfg.Dataset.FeatureGenerators)
	if err != nil {
		return moldata.Options{}, err
	}

	opts := moldata.Options{
		Mode:              mode,
		UseCompoundNames:  cfg.Dataset.UseCompoundNames,
		FeatureGenerators: gens,
		SparseLabels:      cfg.Dataset.SparseLabels,
		PredictFeatures:   cfg.Dataset.PredictFeatures,
	}
	if mode != moldata.ModePretraining {
		return opts, nil
	}

	pt, err := PretrainConfigFrom(cfg.Pretraining, cfg.Worker)
	if err != nil {
		return moldata.Options{}, err
	}
	opts.Pretrain = pt
	return opts, opts.Validate()
}

// PretrainConfigFrom maps the pretraining and worker sections.
func PretrainConfigFrom(pc config.PretrainingConfig, wc config.WorkerConfig) (moldata.PretrainConfig, error) {
	strategy, err := moldata.ParseMaskStrategy(pc.MaskStrategy)
	if err != nil {
		return moldata.PretrainConfig{}, err
	}
	vs, err := vocab.ParseStrategy(pc.VocabStrategy)
	if err != nil {
		return moldata.PretrainConfig{}, err
	}
	return moldata.PretrainConfig{
		MaskStrategy:         strategy,
		MaskProbability:      pc.MaskProbability,
		VocabStrategy:        vs,
		SubstructureSizes:    append([]int(nil), pc.SubstructureSizes...),
		SubstructureMaxCount: pc.SubstructureMaxCount,
		Sequential:           wc.Sequential,
	}, nil
}

// ExecutorFromConfig returns the bulk initialization pool, or nil when the
// worker section asks for sequential execution.
func ExecutorFromConfig(wc config.WorkerConfig, log logging.Logger) common.Executor {
	if wc.Sequential {
		return nil
	}
	return common.NewPool(
		common.WithMaxConcurrency(wc.Concurrency),
		common.WithGoroutineCeiling(wc.GoroutineCeiling),
		common.WithPoolLogger(log),
	)
}

//Personal.AI order the ending
