package pretraining

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/KeyIP-MolData/internal/config"
	"github.com/turtacn/KeyIP-MolData/internal/domain/molecule"
	"github.com/turtacn/KeyIP-MolData/internal/infrastructure/database/redis"
	"github.com/turtacn/KeyIP-MolData/internal/intelligence/moldata"
	"github.com/turtacn/KeyIP-MolData/pkg/errors"
)

func newRedisFeatureSource(t *testing.T) (*CachedFeatureSource, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := redis.NewClient(config.RedisConfig{Addr: mr.Addr()}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return NewCachedFeatureSource(redis.NewFeatureCache(client, nil, redis.WithPrefix("f:")), nil), mr
}

func TestCachedFeatureSource_MemoizesInRedis(t *testing.T) {
	ctx := context.Background()
	src, mr := newRedisFeatureSource(t)
	gens := []molecule.FeatureGenerator{molecule.GeneratorRDKit2D}

	first, err := src.Features(ctx, "CCO", gens)
	require.NoError(t, err)
	want, err := molecule.GenerateFeatures("CCO", gens)
	require.NoError(t, err)
	assert.Equal(t, want, first)
	assert.True(t, mr.Exists("f:"+moldata.FeatureKey("CCO", gens)))

	second, err := src.Features(ctx, "CCO", gens)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	hits, misses := src.Stats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(1), misses)
}

func TestCachedFeatureSource_GenerationErrorNotCached(t *testing.T) {
	src, mr := newRedisFeatureSource(t)
	gens := []molecule.FeatureGenerator{molecule.GeneratorMorgan}

	_, err := src.Features(context.Background(), "C1CC", gens)
	require.Error(t, err)
	assert.False(t, mr.Exists("f:"+moldata.FeatureKey("C1CC", gens)))
}

func TestLoadPrecomputedFeatures_SingleFile(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	require.NoError(t, store.Put(ctx, "features.json", []byte(`[[1,2],[3,4]]`), contentTypeJSON))

	rows, err := LoadPrecomputedFeatures(ctx, store, "features.json")
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{1, 2}, {3, 4}}, rows)
}

func TestLoadPrecomputedFeatures_NumberedParts(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	require.NoError(t, store.Put(ctx, "feats/0.json", []byte(`[[1]]`), contentTypeJSON))
	require.NoError(t, store.Put(ctx, "feats/1.json", []byte(`[[2],[3]]`), contentTypeJSON))
	require.NoError(t, store.Put(ctx, "feats/3.json", []byte(`[[9]]`), contentTypeJSON))

	rows, err := LoadPrecomputedFeatures(ctx, store, "feats/")
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{1}, {2}, {3}}, rows, "numbering stops at the first gap")
}

func TestLoadPrecomputedFeatures_Errors(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()

	_, err := LoadPrecomputedFeatures(ctx, store, "missing")
	assert.True(t, errors.IsNotFound(err))

	require.NoError(t, store.Put(ctx, "bad.json", []byte(`{`), contentTypeJSON))
	_, err = LoadPrecomputedFeatures(ctx, store, "bad.json")
	assert.True(t, errors.IsCode(err, errors.ErrCodeSerialization))
}

//Personal.AI order the ending
