package pretraining

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"path"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/KeyIP-MolData/internal/config"
	"github.com/turtacn/KeyIP-MolData/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/KeyIP-MolData/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-MolData/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/KeyIP-MolData/internal/intelligence/common"
	"github.com/turtacn/KeyIP-MolData/internal/intelligence/moldata"
	"github.com/turtacn/KeyIP-MolData/internal/intelligence/vocab"
	"github.com/turtacn/KeyIP-MolData/pkg/errors"
)

// SourceService identifies this service in published events.
const SourceService = "moldata"

// Service defines the dataset preparation operations.
type Service interface {
	Inspect(ctx context.Context, input *InspectInput) (*Summary, error)
	BuildVocabulary(ctx context.Context, input *VocabInput) (*VocabResult, error)
	Prepare(ctx context.Context, input *PrepareInput) (*PrepareResult, error)
	HandleChunkReady(ctx context.Context, msg *kafka.Message) error
	VerifyManifest(ctx context.Context, manifest *ChunkManifest) error
	ListRuns(ctx context.Context, limit int) ([]RunSummary, error)
}

// EventPublisher publishes broker messages.  *kafka.Producer satisfies it.
type EventPublisher interface {
	Publish(ctx context.Context, msg *kafka.ProducerMessage) error
}

// TopicEnsurer creates topics on demand.  *kafka.TopicManager satisfies it.
type TopicEnsurer interface {
	EnsureTopic(ctx context.Context, cfg kafka.TopicConfig) error
}

// Deps are the collaborators of a Service.  Only Config and Store are
// required.
type Deps struct {
	Config    *config.Config
	Store     ArtifactStore
	Features  moldata.FeatureSource
	Executor  common.Executor
	Publisher EventPublisher
	Topics    TopicEnsurer
	Runs      RunRegistry
	Metrics   *prometheus.DatasetMetrics
	Logger    logging.Logger
}

// InspectInput contains input for summarizing a CSV.
type InspectInput struct {
	Data io.Reader
}

// Summary describes a loaded dataset.
type Summary struct {
	Mode         string `json:"mode"`
	Datapoints   int    `json:"datapoints"`
	NumTasks     int    `json:"num_tasks"`
	FeaturesSize int    `json:"features_size"`
	Named        bool   `json:"named"`
	SparseLabels bool   `json:"sparse_labels"`
	MissingLabel int    `json:"missing_labels"`
}

// VocabInput contains input for building a vocabulary.
type VocabInput struct {
	Data io.Reader
	// Key overrides pretraining.vocab_path.
	Key string
}

// VocabResult describes a persisted vocabulary.
type VocabResult struct {
	Key        string `json:"key"`
	Strategy   string `json:"strategy"`
	OutputSize int    `json:"output_size"`
}

// PrepareInput contains input for a preparation run.
type PrepareInput struct {
	Data io.Reader
	// Chunks is the number of exported chunks, at least 1.
	Chunks int
	// RunID is generated when empty.
	RunID string
}

// PrepareResult describes a finished run.
type PrepareResult struct {
	Manifest  *ChunkManifest `json:"manifest"`
	Published bool           `json:"published"`
	Elapsed   time.Duration  `json:"elapsed"`
}

// serviceImpl implements the Service interface.
type serviceImpl struct {
	cfg       *config.Config
	opts      moldata.Options
	store     ArtifactStore
	features  moldata.FeatureSource
	executor  common.Executor
	publisher EventPublisher
	topics    TopicEnsurer
	runs      RunRegistry
	metrics   *prometheus.DatasetMetrics
	observer  moldata.Observer
	logger    logging.Logger
}

// NewService creates a dataset preparation service.
func NewService(d Deps) (Service, error) {
	if d.Config == nil {
		return nil, errors.Configuration("pretraining service requires a config")
	}
	if d.Store == nil {
		return nil, errors.Configuration("pretraining service requires an artifact store")
	}
	opts, err := OptionsFromConfig(d.Config)
	if err != nil {
		return nil, err
	}
	s := &serviceImpl{
		cfg:       d.Config,
		opts:      opts,
		store:     d.Store,
		features:  d.Features,
		executor:  d.Executor,
		publisher: d.Publisher,
		topics:    d.Topics,
		runs:      d.Runs,
		metrics:   d.Metrics,
		observer:  moldata.NopObserver(),
		logger:    logging.OrDefault(d.Logger).Named("pretraining"),
	}
	if s.features == nil {
		s.features = moldata.NewMemoFeatureSource(0)
	}
	if d.Metrics != nil {
		s.observer = d.Metrics
	}
	return s, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Loading
// ─────────────────────────────────────────────────────────────────────────────

func (s *serviceImpl) load(ctx context.Context, data io.Reader) (*moldata.Dataset, error) {
	if data == nil {
		return nil, errors.InvalidParam("input data is required")
	}
	rows, err := moldata.ReadRows(data, s.cfg.Dataset.SkipHeader)
	if err != nil {
		return nil, err
	}

	var precomputed [][]float64
	if s.cfg.Dataset.FeaturesPath != "" {
		precomputed, err = LoadPrecomputedFeatures(ctx, s.store, s.cfg.Dataset.FeaturesPath)
		if err != nil {
			return nil, err
		}
	}

	builder, err := moldata.NewBuilder(s.opts,
		moldata.WithFeatureSource(s.features),
		moldata.WithBuilderObserver(s.observer),
	)
	if err != nil {
		return nil, err
	}
	points, err := builder.BuildAll(ctx, rows, precomputed)
	if err != nil {
		return nil, err
	}

	dsOpts := []moldata.DatasetOption{moldata.WithLogger(s.logger), moldata.WithObserver(s.observer)}
	if s.cfg.Dataset.Seed != 0 {
		dsOpts = append(dsOpts, moldata.WithSeed(s.cfg.Dataset.Seed))
	}
	return moldata.NewDataset(points, dsOpts...)
}

// datasetType is the configured dataset type, which is what summaries and
// manifests report.  Chunks carry the coarser training regime.
func (s *serviceImpl) datasetType(ds *moldata.Dataset) string {
	if t := s.cfg.Dataset.Type; t != "" {
		return t
	}
	return ds.Mode().String()
}

func (s *serviceImpl) Inspect(ctx context.Context, input *InspectInput) (*Summary, error) {
	ds, err := s.load(ctx, input.Data)
	if err != nil {
		return nil, err
	}
	sum := &Summary{
		Mode:         s.datasetType(ds),
		Datapoints:   ds.Len(),
		NumTasks:     ds.NumTasks(),
		FeaturesSize: ds.FeaturesSize(),
		Named:        s.opts.UseCompoundNames,
		SparseLabels: s.opts.SparseLabels,
	}
	for _, labels := range ds.Targets().Dense {
		for _, l := range labels {
			if !l.Valid {
				sum.MissingLabel++
			}
		}
	}
	for _, sp := range ds.Targets().Sparse {
		sum.MissingLabel += sp.Len() - sp.NumSet()
	}
	return sum, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Vocabulary
// ─────────────────────────────────────────────────────────────────────────────

func (s *serviceImpl) vocabKey(override string) string {
	if override != "" {
		return override
	}
	if s.cfg.Pretraining.VocabPath != "" {
		return s.cfg.Pretraining.VocabPath
	}
	return path.Join(s.cfg.Artifacts.Prefix, "vocab.json")
}

func (s *serviceImpl) BuildVocabulary(ctx context.Context, input *VocabInput) (*VocabResult, error) {
	if !s.opts.Pretraining() {
		return nil, errors.InvalidState("vocabulary requires the pretraining dataset type")
	}
	ds, err := s.load(ctx, input.Data)
	if err != nil {
		return nil, err
	}
	v, err := vocab.Build(ds.SMILES(), s.opts.Pretrain.VocabSpec())
	if err != nil {
		return nil, err
	}
	key := s.vocabKey(input.Key)
	if err := s.saveVocabulary(ctx, key, v); err != nil {
		return nil, err
	}
	s.logger.Info("Vocabulary built",
		logging.String("key", key),
		logging.String("strategy", v.Spec().Strategy.String()),
		logging.Int("output_size", v.OutputSize()),
	)
	return &VocabResult{Key: key, Strategy: v.Spec().Strategy.String(), OutputSize: v.OutputSize()}, nil
}

// resolveVocabulary loads the persisted vocabulary when pretraining.vocab_path
// names an existing artifact and builds one from corpus otherwise.
func (s *serviceImpl) resolveVocabulary(ctx context.Context, corpus []string) (*vocab.Vocabulary, error) {
	s.logger.Debug("determining vocabulary", logging.Int("corpus", len(corpus)))
	spec := s.opts.Pretrain.VocabSpec()

	if key := s.cfg.Pretraining.VocabPath; key != "" {
		ok, err := s.store.Exists(ctx, key)
		if err != nil {
			return nil, err
		}
		if ok {
			data, err := s.store.Get(ctx, key)
			if err != nil {
				return nil, err
			}
			v, err := vocab.Load(bytes.NewReader(data))
			if err != nil {
				return nil, err
			}
			if err := checkVocabSpec(v.Spec(), spec); err != nil {
				return nil, err
			}
			s.logger.Debug("vocabulary output size", logging.Int("size", v.OutputSize()), logging.String("source", key))
			return v, nil
		}
	}

	v, err := vocab.Build(corpus, spec)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("vocabulary output size", logging.Int("size", v.OutputSize()), logging.String("source", "corpus"))
	return v, nil
}

// checkVocabSpec rejects a persisted vocabulary whose extraction settings
// differ from the configured ones.  Sizes are compared in order.
func checkVocabSpec(persisted, want vocab.Spec) error {
	if persisted.Strategy != want.Strategy {
		return errors.Newf(errors.ErrCodeConfiguration,
			"persisted vocabulary uses the %s strategy, configuration asks for %s",
			persisted.Strategy, want.Strategy)
	}
	if want.Strategy != vocab.StrategySubstructure {
		return nil
	}
	if !slices.Equal(persisted.SubstructureSizes, want.SubstructureSizes) {
		return errors.Newf(errors.ErrCodeConfiguration,
			"persisted vocabulary uses substructure sizes %v, configuration asks for %v",
			persisted.SubstructureSizes, want.SubstructureSizes)
	}
	if persisted.SubstructureMaxCount != want.SubstructureMaxCount {
		return errors.Newf(errors.ErrCodeConfiguration,
			"persisted vocabulary uses substructure max count %d, configuration asks for %d",
			persisted.SubstructureMaxCount, want.SubstructureMaxCount)
	}
	return nil
}

func (s *serviceImpl) saveVocabulary(ctx context.Context, key string, v *vocab.Vocabulary) error {
	var buf bytes.Buffer
	if err := v.Save(&buf); err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "encoding vocabulary")
	}
	return s.store.Put(ctx, key, buf.Bytes(), contentTypeJSON)
}

// ─────────────────────────────────────────────────────────────────────────────
// Prepare
// ─────────────────────────────────────────────────────────────────────────────

func (s *serviceImpl) Prepare(ctx context.Context, input *PrepareInput) (*PrepareResult, error) {
	start := time.Now()
	if input.Chunks < 1 {
		return nil, errors.Newf(errors.ErrCodeConfiguration, "chunk count must be at least 1, got %d", input.Chunks)
	}
	runID := input.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	log := s.logger.With(logging.String("run_id", runID))

	ds, err := s.load(ctx, input.Data)
	if err != nil {
		return nil, err
	}
	log.Info("Dataset loaded", logging.Int("datapoints", ds.Len()), logging.String("mode", ds.Mode().String()))

	manifest := &ChunkManifest{
		RunID:        runID,
		Mode:         s.datasetType(ds),
		Datapoints:   ds.Len(),
		FeaturesSize: ds.FeaturesSize(),
		CreatedAt:    time.Now().UTC(),
	}
	prefix := RunPrefix(s.cfg.Artifacts.Prefix, runID)

	if ds.Pretraining() {
		v, err := s.resolveVocabulary(ctx, ds.SMILES())
		if err != nil {
			return nil, err
		}
		pt := s.opts.Pretrain.Clone()
		pt.Vocab = v
		if pt.FeaturesSize == 0 {
			pt.FeaturesSize = ds.FeaturesSize()
		}
		if err := ds.BulkPretrainInit(ctx, pt, s.executor); err != nil {
			return nil, err
		}
		manifest.OutputSize = v.OutputSize()
		manifest.VocabKey = path.Join(prefix, "vocab.json")
		if err := s.saveVocabulary(ctx, manifest.VocabKey, v); err != nil {
			return nil, err
		}
	}

	scaler, err := ds.NormalizeFeatures(nil)
	if err != nil {
		return nil, err
	}
	if scaler != nil {
		manifest.ScalerKey = path.Join(prefix, "scaler.json")
		data, err := json.Marshal(scaler)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeSerialization, "encoding scaler")
		}
		if err := s.store.Put(ctx, manifest.ScalerKey, data, contentTypeJSON); err != nil {
			return nil, err
		}
	}

	chunks, err := ds.Chunk(input.Chunks)
	if err != nil {
		return nil, err
	}
	for i, c := range chunks {
		if c.Len() == 0 {
			log.Debug("skipping empty chunk", logging.Int("index", i))
			continue
		}
		chunk := NewChunk(runID, i, c)
		key := ChunkKey(s.cfg.Artifacts.Prefix, runID, i)
		if err := WriteChunk(ctx, s.store, key, chunk); err != nil {
			return nil, err
		}
		manifest.Chunks = append(manifest.Chunks, ChunkRef{ChunkID: chunk.ChunkID, Index: i, Key: key, Size: c.Len()})
		if s.metrics != nil {
			prometheus.RecordChunkExported(s.metrics, s.cfg.Artifacts.Backend, c.Len())
		}
	}

	if s.runs != nil {
		if err := s.runs.RecordRun(ctx, manifest); err != nil {
			return nil, err
		}
	}

	published, err := s.publish(ctx, manifest)
	if err != nil {
		return nil, err
	}

	res := &PrepareResult{Manifest: manifest, Published: published, Elapsed: time.Since(start)}
	log.Info("Dataset run prepared",
		logging.Int("chunks", len(manifest.Chunks)),
		logging.Bool("published", published),
		logging.Duration("elapsed", res.Elapsed),
	)
	return res, nil
}

func (s *serviceImpl) publish(ctx context.Context, manifest *ChunkManifest) (bool, error) {
	if s.publisher == nil {
		return false, nil
	}
	topic := s.cfg.Kafka.Topic
	if s.topics != nil {
		if err := s.topics.EnsureTopic(ctx, kafka.ChunkTopic(topic)); err != nil {
			return false, err
		}
	}
	env, err := kafka.NewEventEnvelope(kafka.EventChunkReady, SourceService, manifest)
	if err != nil {
		return false, err
	}
	msg, err := env.ToMessage(topic, manifest.RunID)
	if err != nil {
		return false, err
	}
	err = s.publisher.Publish(ctx, msg)
	if s.metrics != nil {
		prometheus.RecordEventPublished(s.metrics, kafka.EventChunkReady, err)
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

//Personal.AI order the ending
