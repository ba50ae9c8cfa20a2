// Package prometheus exposes dataset preparation metrics on a private
// registry.
package prometheus

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/turtacn/KeyIP-MolData/internal/config"
	"github.com/turtacn/KeyIP-MolData/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-MolData/pkg/errors"
)

// MetricsCollector owns the registry behind /metrics.
type MetricsCollector interface {
	RegisterCounter(name, help string, labels ...string) CounterVec
	RegisterHistogram(name, help string, buckets []float64, labels ...string) HistogramVec
	Handler() http.Handler
}

// CounterVec is satisfied by *prometheus.CounterVec.
type CounterVec interface {
	WithLabelValues(lvs ...string) prometheus.Counter
}

// HistogramVec is satisfied by *prometheus.HistogramVec.
type HistogramVec interface {
	WithLabelValues(lvs ...string) prometheus.Observer
}

// CollectorConfig names the metrics and selects the runtime collectors.
type CollectorConfig struct {
	Namespace            string
	Subsystem            string
	EnableProcessMetrics bool
	EnableGoMetrics      bool
}

// CollectorConfigFrom maps the metrics section of the application config.
func CollectorConfigFrom(cfg config.MetricsConfig) CollectorConfig {
	return CollectorConfig{
		Namespace:            cfg.Namespace,
		Subsystem:            cfg.Subsystem,
		EnableProcessMetrics: true,
		EnableGoMetrics:      true,
	}
}

type prometheusCollector struct {
	registry *prometheus.Registry
	config   CollectorConfig
	logger   logging.Logger

	mu     sync.Mutex
	byName map[string]prometheus.Collector
}

// NewMetricsCollector creates a collector with its own registry.
func NewMetricsCollector(cfg CollectorConfig, logger logging.Logger) (MetricsCollector, error) {
	if cfg.Namespace == "" {
		return nil, errors.Configuration("metrics namespace is required")
	}

	registry := prometheus.NewRegistry()
	if cfg.EnableProcessMetrics {
		registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{Namespace: cfg.Namespace}))
	}
	if cfg.EnableGoMetrics {
		registry.MustRegister(prometheus.NewGoCollector())
	}

	return &prometheusCollector{
		registry: registry,
		config:   cfg,
		logger:   logging.OrDefault(logger),
		byName:   make(map[string]prometheus.Collector),
	}, nil
}

func (c *prometheusCollector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// register returns the collector already known under name, or registers fresh.
// A failed registration is logged and nil is returned.
func (c *prometheusCollector) register(name, kind string, fresh prometheus.Collector) prometheus.Collector {
	c.mu.Lock()
	defer c.mu.Unlock()

	fqName := prometheus.BuildFQName(c.config.Namespace, c.config.Subsystem, name)
	if existing, ok := c.byName[fqName]; ok {
		return existing
	}
	if err := c.registry.Register(fresh); err != nil {
		c.logger.Error("failed to register metric", logging.String("name", fqName), logging.String("type", kind), logging.Err(err))
		return nil
	}
	c.byName[fqName] = fresh
	return fresh
}

// RegisterCounter registers a counter vector.  Registering the same name
// twice shares one vector; a name taken by another metric type yields a
// detached vector whose samples are never exported.
func (c *prometheusCollector) RegisterCounter(name, help string, labels ...string) CounterVec {
	vec := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: c.config.Namespace,
		Subsystem: c.config.Subsystem,
		Name:      name,
		Help:      help,
	}, labels)

	if v, ok := c.register(name, "counter", vec).(*prometheus.CounterVec); ok {
		return v
	}
	c.logger.Warn("counter not exported", logging.String("name", name))
	return vec
}

// RegisterHistogram registers a histogram vector; nil buckets use the
// client defaults.
func (c *prometheusCollector) RegisterHistogram(name, help string, buckets []float64, labels ...string) HistogramVec {
	if buckets == nil {
		buckets = prometheus.DefBuckets
	}
	vec := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: c.config.Namespace,
		Subsystem: c.config.Subsystem,
		Name:      name,
		Help:      help,
		Buckets:   buckets,
	}, labels)

	if v, ok := c.register(name, "histogram", vec).(*prometheus.HistogramVec); ok {
		return v
	}
	c.logger.Warn("histogram not exported", logging.String("name", name))
	return vec
}

//Personal.AI order the ending
