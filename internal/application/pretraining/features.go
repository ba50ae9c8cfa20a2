package pretraining

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/turtacn/KeyIP-MolData/internal/domain/molecule"
	"github.com/turtacn/KeyIP-MolData/internal/infrastructure/database/redis"
	"github.com/turtacn/KeyIP-MolData/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/KeyIP-MolData/internal/intelligence/moldata"
	"github.com/turtacn/KeyIP-MolData/pkg/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// Redis-backed feature memo
// ─────────────────────────────────────────────────────────────────────────────

// CachedFeatureSource memoizes generated feature vectors in Redis so that
// repeated runs over overlapping corpora skip generation.
type CachedFeatureSource struct {
	cache   redis.FeatureCache
	metrics *prometheus.DatasetMetrics

	hits   atomic.Int64
	misses atomic.Int64
}

var _ moldata.FeatureSource = (*CachedFeatureSource)(nil)

// NewCachedFeatureSource wraps cache.  metrics may be nil.
func NewCachedFeatureSource(cache redis.FeatureCache, metrics *prometheus.DatasetMetrics) *CachedFeatureSource {
	return &CachedFeatureSource{cache: cache, metrics: metrics}
}

func (s *CachedFeatureSource) Features(ctx context.Context, smiles string, gens []molecule.FeatureGenerator) ([]float64, error) {
	loaded := false
	vec, err := s.cache.GetOrLoad(ctx, moldata.FeatureKey(smiles, gens), func(context.Context) ([]float64, error) {
		loaded = true
		v, genErr := molecule.GenerateFeatures(smiles, gens)
		if genErr != nil && s.metrics != nil {
			prometheus.RecordFeatureLoadError(s.metrics)
		}
		return v, genErr
	})
	if loaded {
		s.misses.Add(1)
	} else if err == nil {
		s.hits.Add(1)
	}
	if s.metrics != nil && (loaded || err == nil) {
		prometheus.RecordFeatureCacheAccess(s.metrics, !loaded)
	}
	return vec, err
}

// Stats returns the hit and miss counts seen so far.
func (s *CachedFeatureSource) Stats() (hits, misses int64) {
	return s.hits.Load(), s.misses.Load()
}

// ─────────────────────────────────────────────────────────────────────────────
// Precomputed features
// ─────────────────────────────────────────────────────────────────────────────

// LoadPrecomputedFeatures reads feature rows from the artifact store.  key
// names either a single JSON file holding a list of rows, or a prefix under
// which numbered parts 0.json, 1.json, ... are concatenated in order.
func LoadPrecomputedFeatures(ctx context.Context, store ArtifactStore, key string) ([][]float64, error) {
	ok, err := store.Exists(ctx, key)
	if err != nil {
		return nil, err
	}
	if ok {
		return readFeatureFile(ctx, store, key)
	}

	prefix := strings.TrimSuffix(key, "/") + "/"
	var rows [][]float64
	for i := 0; ; i++ {
		part := prefix + strconv.Itoa(i) + ".json"
		ok, err := store.Exists(ctx, part)
		if err != nil {
			return nil, err
		}
		if !ok {
			if i == 0 {
				return nil, errors.New(errors.ErrCodeArtifactNotFound, "precomputed features not found").WithDetail(key)
			}
			return rows, nil
		}
		chunk, err := readFeatureFile(ctx, store, part)
		if err != nil {
			return nil, err
		}
		rows = append(rows, chunk...)
	}
}

func readFeatureFile(ctx context.Context, store ArtifactStore, key string) ([][]float64, error) {
	data, err := store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	var rows [][]float64
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "decoding features "+key)
	}
	return rows, nil
}

//Personal.AI order the ending
