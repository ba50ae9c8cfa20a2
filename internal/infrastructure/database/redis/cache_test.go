package redis

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/turtacn/KeyIP-MolData/internal/config"
	"github.com/turtacn/KeyIP-MolData/internal/infrastructure/monitoring/logging"
	pkgerrors "github.com/turtacn/KeyIP-MolData/pkg/errors"
)

type CacheTestSuite struct {
	suite.Suite
	mock  redismock.ClientMock
	cache FeatureCache
}

func (s *CacheTestSuite) SetupTest() {
	db, mock := redismock.NewClientMock()
	s.mock = mock
	client := NewClientFromUniversal(db, logging.NewNopLogger())
	s.cache = NewFeatureCache(client, logging.NewNopLogger(),
		WithPrefix("test:"), WithDefaultTTL(time.Minute), WithJitter(false))
}

func (s *CacheTestSuite) TearDownTest() {
	assert.NoError(s.T(), s.mock.ExpectationsWereMet())
}

func (s *CacheTestSuite) TestGet_Hit() {
	s.mock.ExpectGet("test:morgan:CCO").SetVal("[0,1,0.5]")

	vec, err := s.cache.Get(context.Background(), "morgan:CCO")
	s.Require().NoError(err)
	s.Equal([]float64{0, 1, 0.5}, vec)
}

func (s *CacheTestSuite) TestGet_Miss() {
	s.mock.ExpectGet("test:k").RedisNil()

	_, err := s.cache.Get(context.Background(), "k")
	s.Equal(ErrCacheMiss, err)
	s.True(pkgerrors.IsNotFound(err))
}

func (s *CacheTestSuite) TestGet_Corrupt() {
	s.mock.ExpectGet("test:k").SetVal("not-json")

	_, err := s.cache.Get(context.Background(), "k")
	s.True(pkgerrors.IsCode(err, pkgerrors.ErrCodeSerialization))
}

func (s *CacheTestSuite) TestGet_BackendError() {
	s.mock.ExpectGet("test:k").SetErr(errors.New("connection reset"))

	_, err := s.cache.Get(context.Background(), "k")
	s.True(pkgerrors.IsCode(err, pkgerrors.ErrCodeCacheError))
}

func (s *CacheTestSuite) TestSet_DefaultTTL() {
	data, _ := json.Marshal([]float64{1, 2})
	s.mock.ExpectSet("test:k", data, time.Minute).SetVal("OK")

	s.NoError(s.cache.Set(context.Background(), "k", []float64{1, 2}, 0))
}

func (s *CacheTestSuite) TestDelete() {
	s.mock.ExpectDel("test:k1", "test:k2").SetVal(2)

	s.NoError(s.cache.Delete(context.Background(), "k1", "k2"))
	s.NoError(s.cache.Delete(context.Background()))
}

func (s *CacheTestSuite) TestPurge() {
	s.mock.ExpectScan(0, "test:*", 100).SetVal([]string{"test:a", "test:b"}, 7)
	s.mock.ExpectDel("test:a", "test:b").SetVal(2)
	s.mock.ExpectScan(7, "test:*", 100).SetVal([]string{"test:c"}, 0)
	s.mock.ExpectDel("test:c").SetVal(1)

	n, err := s.cache.Purge(context.Background())
	s.NoError(err)
	s.Equal(int64(3), n)
}

func (s *CacheTestSuite) TestGetOrLoad_HitSkipsLoader() {
	s.mock.ExpectGet("test:k").SetVal("[3]")

	vec, err := s.cache.GetOrLoad(context.Background(), "k", func(context.Context) ([]float64, error) {
		s.Fail("loader must not run on a hit")
		return nil, nil
	})
	s.NoError(err)
	s.Equal([]float64{3}, vec)
}

func TestCacheSuite(t *testing.T) {
	suite.Run(t, new(CacheTestSuite))
}

func newMiniCache(t *testing.T) (FeatureCache, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	c, err := NewClient(config.RedisConfig{Addr: mr.Addr()}, logging.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return NewFeatureCache(c, logging.NewNopLogger(), WithPrefix("t:")), mr
}

func TestGetOrLoad_MissLoadsAndStores(t *testing.T) {
	cache, mr := newMiniCache(t)
	ctx := context.Background()

	vec, err := cache.GetOrLoad(ctx, "k", func(context.Context) ([]float64, error) {
		return []float64{0.5, 1.5}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5, 1.5}, vec)
	assert.True(t, mr.Exists("t:k"))

	ttl := mr.TTL("t:k")
	assert.InDelta(t, float64(24*time.Hour), float64(ttl), float64(150*time.Minute))

	again, err := cache.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, vec, again)
}

func TestGetOrLoad_LoaderError(t *testing.T) {
	cache, mr := newMiniCache(t)
	boom := errors.New("boom")

	_, err := cache.GetOrLoad(context.Background(), "k", func(context.Context) ([]float64, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.False(t, mr.Exists("t:k"))
}

func TestGetOrLoad_ConcurrentCallersGetCopies(t *testing.T) {
	cache, _ := newMiniCache(t)
	var calls int32
	release := make(chan struct{})

	var wg sync.WaitGroup
	results := make([][]float64, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			vec, err := cache.GetOrLoad(context.Background(), "k", func(context.Context) ([]float64, error) {
				atomic.AddInt32(&calls, 1)
				<-release
				return []float64{1, 2, 3}, nil
			})
			assert.NoError(t, err)
			results[i] = vec
		}(i)
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.GreaterOrEqual(t, atomic.LoadInt32(&calls), int32(1))
	results[0][0] = -1
	for _, r := range results[1:] {
		assert.Equal(t, []float64{1, 2, 3}, r)
	}
}

//Personal.AI order the ending
