package config

import "time"

// Dataset types.
const (
	DatasetTypeRegression     = "regression"
	DatasetTypeClassification = "classification"
	DatasetTypeUnsupervised   = "unsupervised"
	DatasetTypePretraining    = "pretraining"
)

// ─────────────────────────────────────────────────────────────────────────────
// Default value constants
// ─────────────────────────────────────────────────────────────────────────────

const (
	DefaultDatasetType = DatasetTypeRegression

	DefaultMaskStrategy         = "cluster"
	DefaultMaskProbability      = 0.15
	DefaultVocabStrategy        = "atom"
	DefaultSubstructureMaxCount = 1

	DefaultWorkerConcurrency = 8

	DefaultRedisMode      = "standalone"
	DefaultRedisAddr      = "localhost:6379"
	DefaultRedisKeyPrefix = "moldata:"
	DefaultRedisTTL       = 24 * time.Hour

	DefaultPostgresHost     = "localhost"
	DefaultPostgresPort     = 5432
	DefaultPostgresDatabase = "moldata"
	DefaultPostgresSSLMode  = "disable"
	DefaultPostgresMaxConns = 10

	DefaultMinIOEndpoint = "localhost:9000"
	DefaultMinIOBucket   = "moldata"

	DefaultArtifactsBackend  = "local"
	DefaultArtifactsLocalDir = "./artifacts"
	DefaultArtifactsPrefix   = "runs"

	DefaultKafkaBroker = "localhost:9092"
	DefaultKafkaTopic  = "moldata.chunks"
	DefaultKafkaGroup  = "moldata-watch"

	DefaultMetricsNamespace = "moldata"
	DefaultMetricsAddr      = ":9091"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// ApplyDefaults fills every zero-value field in cfg with its default.  Fields
// already set by the caller are left unchanged.  It must run before Validate.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	// ── Dataset ───────────────────────────────────────────────────────────────
	if cfg.Dataset.Type == "" {
		cfg.Dataset.Type = DefaultDatasetType
	}

	// ── Pretraining ───────────────────────────────────────────────────────────
	if cfg.Pretraining.MaskStrategy == "" {
		cfg.Pretraining.MaskStrategy = DefaultMaskStrategy
	}
	// 0 is a meaningful probability, so only the pretraining type receives the default.
	if cfg.Pretraining.MaskProbability == 0 && cfg.PretrainingEnabled() {
		cfg.Pretraining.MaskProbability = DefaultMaskProbability
	}
	if cfg.Pretraining.VocabStrategy == "" {
		cfg.Pretraining.VocabStrategy = DefaultVocabStrategy
	}
	if cfg.Pretraining.SubstructureMaxCount == 0 {
		cfg.Pretraining.SubstructureMaxCount = DefaultSubstructureMaxCount
	}

	// ── Worker ────────────────────────────────────────────────────────────────
	if cfg.Worker.Concurrency == 0 {
		cfg.Worker.Concurrency = DefaultWorkerConcurrency
	}

	// ── Redis ─────────────────────────────────────────────────────────────────
	if cfg.Redis.Mode == "" {
		cfg.Redis.Mode = DefaultRedisMode
	}
	if cfg.Redis.Addr == "" && cfg.Redis.Mode == DefaultRedisMode {
		cfg.Redis.Addr = DefaultRedisAddr
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = DefaultRedisKeyPrefix
	}
	if cfg.Redis.DefaultTTL == 0 {
		cfg.Redis.DefaultTTL = DefaultRedisTTL
	}

	// ── Postgres ──────────────────────────────────────────────────────────────
	if cfg.Postgres.Host == "" {
		cfg.Postgres.Host = DefaultPostgresHost
	}
	if cfg.Postgres.Port == 0 {
		cfg.Postgres.Port = DefaultPostgresPort
	}
	if cfg.Postgres.Database == "" {
		cfg.Postgres.Database = DefaultPostgresDatabase
	}
	if cfg.Postgres.SSLMode == "" {
		cfg.Postgres.SSLMode = DefaultPostgresSSLMode
	}
	if cfg.Postgres.MaxConns == 0 {
		cfg.Postgres.MaxConns = DefaultPostgresMaxConns
	}

	// ── MinIO ─────────────────────────────────────────────────────────────────
	if cfg.MinIO.Endpoint == "" {
		cfg.MinIO.Endpoint = DefaultMinIOEndpoint
	}
	if cfg.MinIO.Bucket == "" {
		cfg.MinIO.Bucket = DefaultMinIOBucket
	}

	// ── Artifacts ─────────────────────────────────────────────────────────────
	if cfg.Artifacts.Backend == "" {
		cfg.Artifacts.Backend = DefaultArtifactsBackend
	}
	if cfg.Artifacts.LocalDir == "" {
		cfg.Artifacts.LocalDir = DefaultArtifactsLocalDir
	}
	if cfg.Artifacts.Prefix == "" {
		cfg.Artifacts.Prefix = DefaultArtifactsPrefix
	}

	// ── Kafka ─────────────────────────────────────────────────────────────────
	if len(cfg.Kafka.Brokers) == 0 {
		cfg.Kafka.Brokers = []string{DefaultKafkaBroker}
	}
	if cfg.Kafka.Topic == "" {
		cfg.Kafka.Topic = DefaultKafkaTopic
	}
	if cfg.Kafka.GroupID == "" {
		cfg.Kafka.GroupID = DefaultKafkaGroup
	}

	// ── Metrics ───────────────────────────────────────────────────────────────
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Metrics.Addr == "" {
		cfg.Metrics.Addr = DefaultMetricsAddr
	}

	// ── Log ───────────────────────────────────────────────────────────────────
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
}

//Personal.AI order the ending
