package config

import (
	"fmt"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// envPrefix is the environment variable prefix used by all settings.
const envPrefix = "MOLDATA"

// envKeys lists the keys that may be supplied purely through the environment.
// viper's AutomaticEnv only resolves keys it already knows about, so these are
// bound explicitly for LoadFromEnv.
var envKeys = []string{
	"log.level", "log.format",
	"dataset.type", "dataset.use_compound_names", "dataset.features_generators",
	"dataset.features_path", "dataset.sparse_labels", "dataset.predict_features",
	"dataset.skip_header", "dataset.seed",
	"pretraining.mask_strategy", "pretraining.mask_probability", "pretraining.vocab_strategy",
	"pretraining.substructure_sizes", "pretraining.substructure_max_count", "pretraining.vocab_path",
	"worker.concurrency", "worker.sequential", "worker.goroutine_ceiling",
	"redis.enabled", "redis.mode", "redis.addr", "redis.password", "redis.db", "redis.key_prefix",
	"postgres.enabled", "postgres.host", "postgres.port", "postgres.database", "postgres.username",
	"postgres.password", "postgres.ssl_mode", "postgres.auto_migrate",
	"minio.endpoint", "minio.access_key", "minio.secret_key", "minio.bucket", "minio.use_ssl",
	"artifacts.backend", "artifacts.local_dir", "artifacts.prefix",
	"kafka.enabled", "kafka.brokers", "kafka.topic", "kafka.group_id", "kafka.dead_letter_topic",
	"metrics.enabled", "metrics.namespace", "metrics.addr",
}

// newViper builds a Viper instance with YAML file type, MOLDATA_ env prefix,
// automatic env binding and a "." → "_" key replacer, so "redis.addr"
// resolves to MOLDATA_REDIS_ADDR.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, k := range envKeys {
		_ = v.BindEnv(k)
	}
	return v
}

// Load reads the YAML file at configPath, merges MOLDATA_* environment
// overrides, applies defaults and validates the result.
func Load(configPath string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: failed to read config file %q: %w", configPath, err)
	}

	return unmarshalAndFinalize(v)
}

// LoadFromEnv builds a Config entirely from MOLDATA_* environment variables
// and defaults.
//
//	MOLDATA_<SECTION>_<FIELD>   e.g.  MOLDATA_DATASET_TYPE, MOLDATA_WORKER_CONCURRENCY
func LoadFromEnv() (*Config, error) {
	return unmarshalAndFinalize(newViper())
}

func unmarshalAndFinalize(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal configuration: %w", err)
	}

	ApplyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}

	return cfg, nil
}

// Watch monitors configPath and invokes onChange with the re-parsed Config
// whenever the file changes.  Only the log level is safe to apply while a
// dataset is being prepared; callers decide what to honour.
//
// Invalid intermediate files are skipped and reported through onError, which
// may be nil.
func Watch(configPath string, onChange func(*Config), onError func(error)) {
	v := newViper()
	v.SetConfigFile(configPath)
	_ = v.ReadInConfig()

	v.OnConfigChange(func(_ fsnotify.Event) {
		cfg, err := unmarshalAndFinalize(v)
		if err != nil {
			if onError != nil {
				onError(err)
			}
			return
		}
		onChange(cfg)
	})
	v.WatchConfig()
}

// MustLoad is Load that panics on any error.  main() only.
func MustLoad(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		panic(fmt.Sprintf("config: MustLoad failed: %v", err))
	}
	return cfg
}

//Personal.AI order the ending
