package cli

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/turtacn/KeyIP-MolData/internal/application/pretraining"
	"github.com/turtacn/KeyIP-MolData/internal/config"
	"github.com/turtacn/KeyIP-MolData/internal/infrastructure/database/postgres"
	"github.com/turtacn/KeyIP-MolData/internal/infrastructure/database/redis"
	"github.com/turtacn/KeyIP-MolData/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/KeyIP-MolData/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-MolData/internal/infrastructure/monitoring/prometheus"
	httpops "github.com/turtacn/KeyIP-MolData/internal/interfaces/http"
	"github.com/turtacn/KeyIP-MolData/internal/interfaces/http/handlers"
)

type namedCloser struct {
	name string
	fn   func() error
}

// appRuntime is the wired service plus everything that must be released
// when a command ends.
type appRuntime struct {
	Service   pretraining.Service
	Collector prometheus.MetricsCollector
	Metrics   *prometheus.DatasetMetrics
	// Features is nil unless redis is enabled.
	Features *pretraining.CachedFeatureSource
	Checks   []handlers.HealthChecker

	closers []namedCloser
	logger  logging.Logger
}

// buildRuntime wires the service from configuration.  The event producer is
// only opened when publish is set; the watch command consumes instead.
func buildRuntime(cliCtx *CLIContext, publish bool) (rt *appRuntime, err error) {
	cfg := cliCtx.Config
	log := logging.OrDefault(cliCtx.Logger)
	rt = &appRuntime{logger: log}
	defer func() {
		if err != nil {
			_ = rt.Close()
			rt = nil
		}
	}()

	store, closeStore, err := pretraining.OpenArtifactStore(cfg, log)
	if err != nil {
		return rt, err
	}
	rt.closers = append(rt.closers, namedCloser{"artifacts", closeStore})
	probeKey := cfg.Artifacts.Prefix + "/.probe"
	rt.Checks = append(rt.Checks, handlers.NewCheck("artifacts", func(ctx context.Context) error {
		_, err := store.Exists(ctx, probeKey)
		return err
	}))

	if cfg.Metrics.Enabled {
		collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfigFrom(cfg.Metrics), log)
		if err != nil {
			return rt, err
		}
		rt.Collector = collector
		rt.Metrics = prometheus.NewDatasetMetrics(collector)
	}

	deps := pretraining.Deps{
		Config:   cfg,
		Store:    store,
		Executor: pretraining.ExecutorFromConfig(cfg.Worker, log),
		Metrics:  rt.Metrics,
		Logger:   log,
	}

	if cfg.Redis.Enabled {
		client, err := redis.NewClient(cfg.Redis, log)
		if err != nil {
			return rt, err
		}
		rt.closers = append(rt.closers, namedCloser{"redis", client.Close})
		rt.Checks = append(rt.Checks, handlers.NewCheck("redis", client.Ping))

		cache := redis.NewFeatureCache(client, log,
			redis.WithPrefix(cfg.Redis.KeyPrefix+"features:"),
			redis.WithDefaultTTL(cfg.Redis.DefaultTTL),
		)
		rt.Features = pretraining.NewCachedFeatureSource(cache, rt.Metrics)
		deps.Features = rt.Features
	}

	if cfg.Postgres.Enabled {
		conn, err := postgres.NewConnection(context.Background(), cfg.Postgres, log)
		if err != nil {
			return rt, err
		}
		rt.closers = append(rt.closers, namedCloser{"postgres", conn.Close})
		rt.Checks = append(rt.Checks, handlers.NewCheck("postgres", conn.HealthCheck))
		deps.Runs = pretraining.NewPostgresRunRegistry(postgres.NewRunRepository(conn.Pool(), log))
	}

	if cfg.Kafka.Enabled {
		topics, err := kafka.NewTopicManager(cfg.Kafka.Brokers, log)
		if err != nil {
			return rt, err
		}
		rt.closers = append(rt.closers, namedCloser{"kafka topics", topics.Close})
		topic := cfg.Kafka.Topic
		rt.Checks = append(rt.Checks, handlers.NewCheck("kafka", func(ctx context.Context) error {
			ok, err := topics.TopicExists(ctx, topic)
			if err == nil && !ok {
				err = fmt.Errorf("topic %s does not exist", topic)
			}
			return err
		}))

		if publish {
			producer, err := kafka.NewProducer(kafka.ProducerConfigFrom(cfg.Kafka), log)
			if err != nil {
				return rt, err
			}
			rt.closers = append(rt.closers, namedCloser{"kafka producer", producer.Close})
			deps.Publisher = producer
			deps.Topics = topics
		}
	}

	rt.Service, err = pretraining.NewService(deps)
	return rt, err
}

// Close releases resources in reverse order of acquisition.
func (rt *appRuntime) Close() error {
	var errs []error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		c := rt.closers[i]
		if err := c.fn(); err != nil {
			rt.logger.Warn("Failed to close dependency", logging.String("dependency", c.name), logging.Err(err))
			errs = append(errs, err)
		}
	}
	rt.closers = nil
	if rt.Features != nil {
		hits, misses := rt.Features.Stats()
		rt.logger.Debug("Feature cache usage", logging.Int64("hits", hits), logging.Int64("misses", misses))
	}
	return stderrors.Join(errs...)
}

// startOpsServer serves probes and metrics on addr until the returned stop
// function is called.  An empty addr serves nothing.
func startOpsServer(rt *appRuntime, addr string) func(context.Context) {
	if addr == "" {
		return func(context.Context) {}
	}

	router := httpops.NewRouter(httpops.RouterConfig{
		HealthHandler:    handlers.NewHealthHandler(Version, rt.Checks...),
		MetricsCollector: rt.Collector,
		Logger:           rt.logger,
	})
	srv := httpops.NewServer(addr, router, rt.logger)
	go func() {
		if err := srv.Start(); err != nil {
			rt.logger.Error("Ops server failed", logging.String("addr", addr), logging.Err(err))
		}
	}()
	return func(ctx context.Context) { _ = srv.Stop(ctx) }
}

// opsAddr resolves the ops listen address: the flag wins, then the metrics
// section when fallback is allowed.
func opsAddr(flag string, cfg *config.Config, fallback bool) string {
	if flag != "" {
		return flag
	}
	if fallback && cfg.Metrics.Enabled {
		return cfg.Metrics.Addr
	}
	return ""
}

//Personal.AI order the ending
