package prometheus

import "time"

// DatasetMetrics holds the dataset preparation metrics. It satisfies the
// moldata Observer interface structurally.
type DatasetMetrics struct {
	// Construction
	DatapointsBuiltTotal CounterVec

	// Pretraining
	PretrainInitTotal       CounterVec
	PretrainInitDuration    HistogramVec
	PoolFallbacksTotal      CounterVec
	MaskRegenerationsTotal  CounterVec
	MasksRegeneratedPerCall HistogramVec

	// Features
	NormalizeTotal         CounterVec
	FeatureCacheRequests   CounterVec
	FeatureCacheLoadErrors CounterVec

	// Export
	ChunksExportedTotal  CounterVec
	ChunkSize            HistogramVec
	EventsPublishedTotal CounterVec
	EventsConsumedTotal  CounterVec
}

var (
	DefaultInitDurationBuckets = []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 300}
	DefaultCountBuckets        = []float64{1, 10, 100, 1000, 10000, 100000, 1000000}
)

// NewDatasetMetrics registers all dataset metrics on collector.
func NewDatasetMetrics(collector MetricsCollector) *DatasetMetrics {
	m := &DatasetMetrics{}

	m.DatapointsBuiltTotal = collector.RegisterCounter("datapoints_built_total", "Datapoints constructed from input rows", "status")

	m.PretrainInitTotal = collector.RegisterCounter("pretrain_init_total", "Bulk pretraining initializations", "mode")
	m.PretrainInitDuration = collector.RegisterHistogram("pretrain_init_duration_seconds", "Bulk pretraining initialization duration", DefaultInitDurationBuckets, "mode")
	m.PoolFallbacksTotal = collector.RegisterCounter("pool_fallbacks_total", "Worker pool failures that fell back to sequential initialization")
	m.MaskRegenerationsTotal = collector.RegisterCounter("mask_regenerations_total", "Mask regeneration passes", "strategy")
	m.MasksRegeneratedPerCall = collector.RegisterHistogram("masks_regenerated", "Masks regenerated per pass", DefaultCountBuckets, "strategy")

	m.NormalizeTotal = collector.RegisterCounter("normalize_total", "Feature normalizations by scaler source", "source")
	m.FeatureCacheRequests = collector.RegisterCounter("feature_cache_requests_total", "Feature cache lookups", "result")
	m.FeatureCacheLoadErrors = collector.RegisterCounter("feature_cache_load_errors_total", "Feature generation failures behind the cache")

	m.ChunksExportedTotal = collector.RegisterCounter("chunks_exported_total", "Dataset chunks written to the artifact store", "backend")
	m.ChunkSize = collector.RegisterHistogram("chunk_datapoints", "Datapoints per exported chunk", DefaultCountBuckets)
	m.EventsPublishedTotal = collector.RegisterCounter("events_published_total", "Events published to the broker", "event_type", "status")
	m.EventsConsumedTotal = collector.RegisterCounter("events_consumed_total", "Events consumed from the broker", "event_type", "status")

	return m
}

func (m *DatasetMetrics) DatapointBuilt(ok bool) {
	m.DatapointsBuiltTotal.WithLabelValues(status(ok)).Inc()
}

func (m *DatasetMetrics) PretrainInitialized(mode string, elapsed time.Duration) {
	m.PretrainInitTotal.WithLabelValues(mode).Inc()
	m.PretrainInitDuration.WithLabelValues(mode).Observe(elapsed.Seconds())
}

func (m *DatasetMetrics) PoolFallback() {
	m.PoolFallbacksTotal.WithLabelValues().Inc()
}

func (m *DatasetMetrics) MaskRegenerated(strategy string, count int) {
	m.MaskRegenerationsTotal.WithLabelValues(strategy).Inc()
	m.MasksRegeneratedPerCall.WithLabelValues(strategy).Observe(float64(count))
}

func (m *DatasetMetrics) FeaturesNormalized(source string) {
	m.NormalizeTotal.WithLabelValues(source).Inc()
}

// Helpers

func RecordFeatureCacheAccess(m *DatasetMetrics, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.FeatureCacheRequests.WithLabelValues(result).Inc()
}

func RecordFeatureLoadError(m *DatasetMetrics) {
	m.FeatureCacheLoadErrors.WithLabelValues().Inc()
}

func RecordChunkExported(m *DatasetMetrics, backend string, size int) {
	m.ChunksExportedTotal.WithLabelValues(backend).Inc()
	m.ChunkSize.WithLabelValues().Observe(float64(size))
}

func RecordEventPublished(m *DatasetMetrics, eventType string, err error) {
	m.EventsPublishedTotal.WithLabelValues(eventType, status(err == nil)).Inc()
}

func RecordEventConsumed(m *DatasetMetrics, eventType string, err error) {
	m.EventsConsumedTotal.WithLabelValues(eventType, status(err == nil)).Inc()
}

func status(ok bool) string {
	if ok {
		return "ok"
	}
	return "error"
}

//Personal.AI order the ending
