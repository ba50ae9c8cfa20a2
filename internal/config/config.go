// Package config defines all configuration structures for KeyIP-MolData.
// No I/O or parsing logic lives here, only plain data types and validation.
package config

import (
	"time"

	"github.com/turtacn/KeyIP-MolData/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-MolData/pkg/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// Sub-configuration structs
// ─────────────────────────────────────────────────────────────────────────────

// DatasetConfig controls how raw rows become Datapoints.
type DatasetConfig struct {
	// Type is one of regression | classification | unsupervised | pretraining.
	Type              string   `mapstructure:"type"`
	UseCompoundNames  bool     `mapstructure:"use_compound_names"`
	FeatureGenerators []string `mapstructure:"features_generators"`
	// FeaturesPath names precomputed features in the artifact store: a single
	// JSON file, or a prefix holding 0.json, 1.json, ...
	FeaturesPath    string `mapstructure:"features_path"`
	SparseLabels    bool   `mapstructure:"sparse_labels"`
	PredictFeatures bool   `mapstructure:"predict_features"`
	SkipHeader      bool   `mapstructure:"skip_header"`
	Seed            int64  `mapstructure:"seed"`
}

// PretrainingConfig holds masked-unit pretraining parameters.
type PretrainingConfig struct {
	MaskStrategy         string  `mapstructure:"mask_strategy"`  // cluster | correlation | random
	MaskProbability      float64 `mapstructure:"mask_probability"`
	VocabStrategy        string  `mapstructure:"vocab_strategy"` // atom | substructure
	SubstructureSizes    []int   `mapstructure:"substructure_sizes"`
	SubstructureMaxCount int     `mapstructure:"substructure_max_count"`
	// VocabPath, when set, loads a persisted vocabulary instead of building one.
	VocabPath string `mapstructure:"vocab_path"`
}

// WorkerConfig holds bulk-initialization pool parameters.
type WorkerConfig struct {
	Concurrency int  `mapstructure:"concurrency"`
	Sequential  bool `mapstructure:"sequential"`
	// GoroutineCeiling, when > 0, makes the pool report resource exhaustion
	// instead of starting while the process already runs that many goroutines.
	GoroutineCeiling int `mapstructure:"goroutine_ceiling"`
}

// RedisConfig holds Redis connection parameters for the feature memo.
type RedisConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Mode         string        `mapstructure:"mode"` // standalone | sentinel | cluster
	Addr         string        `mapstructure:"addr"`
	Addrs        []string      `mapstructure:"addrs"`
	MasterName   string        `mapstructure:"master_name"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	DefaultTTL   time.Duration `mapstructure:"default_ttl"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
}

// PostgresConfig holds the run registry connection.  The registry is optional.
type PostgresConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	Host             string        `mapstructure:"host"`
	Port             int           `mapstructure:"port"`
	Database         string        `mapstructure:"database"`
	Username         string        `mapstructure:"username"`
	Password         string        `mapstructure:"password"`
	SSLMode          string        `mapstructure:"ssl_mode"`
	MaxConns         int32         `mapstructure:"max_conns"`
	StatementTimeout time.Duration `mapstructure:"statement_timeout"`
	LockTimeout      time.Duration `mapstructure:"lock_timeout"`
	// AutoMigrate applies the embedded schema migrations on connect.
	AutoMigrate bool `mapstructure:"auto_migrate"`
}

// MinIOConfig holds MinIO / S3-compatible object-storage parameters.
type MinIOConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

// ArtifactsConfig selects where vocabularies, scalers and chunks are stored.
type ArtifactsConfig struct {
	Backend  string `mapstructure:"backend"` // local | minio
	LocalDir string `mapstructure:"local_dir"`
	Prefix   string `mapstructure:"prefix"`
}

// KafkaConfig holds chunk-manifest publishing parameters.
type KafkaConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Brokers         []string      `mapstructure:"brokers"`
	Topic           string        `mapstructure:"topic"`
	GroupID         string        `mapstructure:"group_id"` // consumer group of `moldata watch`
	DeadLetterTopic string        `mapstructure:"dead_letter_topic"`
	BatchSize       int           `mapstructure:"batch_size"`
	BatchTimeout    time.Duration `mapstructure:"batch_timeout"`
	MaxAttempts     int           `mapstructure:"max_attempts"`
	Compression     string        `mapstructure:"compression"` // none | gzip | snappy | lz4 | zstd
}

// MetricsConfig controls the Prometheus collector.
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
	Subsystem string `mapstructure:"subsystem"`
	Addr      string `mapstructure:"addr"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Root Config
// ─────────────────────────────────────────────────────────────────────────────

// Config is the root configuration structure.
type Config struct {
	Log         logging.LogConfig `mapstructure:"log"`
	Dataset     DatasetConfig     `mapstructure:"dataset"`
	Pretraining PretrainingConfig `mapstructure:"pretraining"`
	Worker      WorkerConfig      `mapstructure:"worker"`
	Redis       RedisConfig       `mapstructure:"redis"`
	Postgres    PostgresConfig    `mapstructure:"postgres"`
	MinIO       MinIOConfig       `mapstructure:"minio"`
	Artifacts   ArtifactsConfig   `mapstructure:"artifacts"`
	Kafka       KafkaConfig       `mapstructure:"kafka"`
	Metrics     MetricsConfig     `mapstructure:"metrics"`
}

// PretrainingEnabled reports whether the dataset type selects pretraining.
func (c *Config) PretrainingEnabled() bool {
	return c.Dataset.Type == DatasetTypePretraining
}

// ─────────────────────────────────────────────────────────────────────────────
// Validation
// ─────────────────────────────────────────────────────────────────────────────

func invalid(format string, args ...interface{}) error {
	return errors.Newf(errors.ErrCodeConfiguration, "config: "+format, args...)
}

// Validate performs semantic validation of the fully-populated Config.
// It returns the first error encountered as a configuration error.
func (c *Config) Validate() error {
	// Dataset
	switch c.Dataset.Type {
	case DatasetTypeRegression, DatasetTypeClassification, DatasetTypeUnsupervised, DatasetTypePretraining:
	default:
		return invalid("dataset.type %q is invalid; expected regression|classification|unsupervised|pretraining", c.Dataset.Type)
	}
	if len(c.Dataset.FeatureGenerators) > 0 && c.Dataset.FeaturesPath != "" {
		return invalid("dataset.features_generators and dataset.features_path are mutually exclusive")
	}
	if c.Dataset.PredictFeatures && len(c.Dataset.FeatureGenerators) == 0 && c.Dataset.FeaturesPath == "" {
		return invalid("dataset.predict_features requires features_generators or features_path")
	}

	// Pretraining
	if c.PretrainingEnabled() {
		switch c.Pretraining.MaskStrategy {
		case "cluster", "correlation", "random":
		default:
			return invalid("pretraining.mask_strategy %q is invalid; expected cluster|correlation|random", c.Pretraining.MaskStrategy)
		}
		switch c.Pretraining.VocabStrategy {
		case "atom", "substructure":
		default:
			return invalid("pretraining.vocab_strategy %q is invalid; expected atom|substructure", c.Pretraining.VocabStrategy)
		}
		if c.Pretraining.VocabStrategy == "substructure" && len(c.Pretraining.SubstructureSizes) == 0 {
			return invalid("pretraining.substructure_sizes is required for the substructure vocabulary")
		}
		for _, s := range c.Pretraining.SubstructureSizes {
			if s < 1 {
				return invalid("pretraining.substructure_sizes entries must be ≥ 1, got %d", s)
			}
		}
		if c.Pretraining.SubstructureMaxCount < 1 {
			return invalid("pretraining.substructure_max_count must be ≥ 1, got %d", c.Pretraining.SubstructureMaxCount)
		}
	}
	if c.Pretraining.MaskProbability < 0 || c.Pretraining.MaskProbability > 1 {
		return invalid("pretraining.mask_probability %v is out of range [0, 1]", c.Pretraining.MaskProbability)
	}

	// Worker
	if c.Worker.Concurrency < 1 {
		return invalid("worker.concurrency must be ≥ 1, got %d", c.Worker.Concurrency)
	}

	// Redis
	if c.Redis.Enabled {
		switch c.Redis.Mode {
		case "standalone":
			if c.Redis.Addr == "" {
				return invalid("redis.addr is required")
			}
		case "sentinel", "cluster":
			if len(c.Redis.Addrs) == 0 {
				return invalid("redis.addrs is required in %s mode", c.Redis.Mode)
			}
		default:
			return invalid("redis.mode %q is invalid; expected standalone|sentinel|cluster", c.Redis.Mode)
		}
		if c.Redis.DB < 0 {
			return invalid("redis.db must be ≥ 0, got %d", c.Redis.DB)
		}
	}

	// Postgres
	if c.Postgres.Enabled {
		if c.Postgres.Host == "" || c.Postgres.Database == "" {
			return invalid("postgres.host and postgres.database are required")
		}
		if c.Postgres.Port < 1 || c.Postgres.Port > 65535 {
			return invalid("postgres.port %d is out of range", c.Postgres.Port)
		}
	}

	// Artifacts
	switch c.Artifacts.Backend {
	case "local":
		if c.Artifacts.LocalDir == "" {
			return invalid("artifacts.local_dir is required for the local backend")
		}
	case "minio":
		if c.MinIO.Endpoint == "" || c.MinIO.Bucket == "" {
			return invalid("minio.endpoint and minio.bucket are required for the minio backend")
		}
	default:
		return invalid("artifacts.backend %q is invalid; expected local|minio", c.Artifacts.Backend)
	}

	// Kafka
	if c.Kafka.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			return invalid("kafka.brokers must contain at least one broker address")
		}
		if c.Kafka.Topic == "" {
			return invalid("kafka.topic is required")
		}
	}

	// Metrics
	if c.Metrics.Enabled && c.Metrics.Namespace == "" {
		return invalid("metrics.namespace is required when metrics are enabled")
	}

	// Log
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return invalid("log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return invalid("log.format %q is invalid; expected json|console", c.Log.Format)
	}

	return nil
}

//Personal.AI order the ending
