package pretraining

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/turtacn/KeyIP-MolData/internal/config"
	"github.com/turtacn/KeyIP-MolData/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/KeyIP-MolData/pkg/errors"
)

// memStore is an in-memory ArtifactStore.
type memStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemStore() *memStore {
	return &memStore{objects: make(map[string][]byte)}
}

func (m *memStore) Put(_ context.Context, key string, data []byte, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = append([]byte(nil), data...)
	return nil
}

func (m *memStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, errors.New(errors.ErrCodeArtifactNotFound, "artifact not found").WithDetail(key)
	}
	return append([]byte(nil), data...), nil
}

func (m *memStore) Exists(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[key]
	return ok, nil
}

func (m *memStore) List(_ context.Context, prefix string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var keys []string
	for k := range m.objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *memStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

// MockPublisher records published messages.
type MockPublisher struct {
	mock.Mock
	mu   sync.Mutex
	sent []*kafka.ProducerMessage
}

func (m *MockPublisher) Publish(ctx context.Context, msg *kafka.ProducerMessage) error {
	args := m.Called(ctx, msg)
	if args.Error(0) == nil {
		m.mu.Lock()
		m.sent = append(m.sent, msg)
		m.mu.Unlock()
	}
	return args.Error(0)
}

// MockTopics records ensured topics.
type MockTopics struct {
	mock.Mock
}

func (m *MockTopics) EnsureTopic(ctx context.Context, cfg kafka.TopicConfig) error {
	args := m.Called(ctx, cfg)
	return args.Error(0)
}

// memRuns is an in-memory RunRegistry.
type memRuns struct {
	mu   sync.Mutex
	runs map[string]RunSummary
	err  error
}

func newMemRuns() *memRuns {
	return &memRuns{runs: make(map[string]RunSummary)}
}

func (m *memRuns) RecordRun(_ context.Context, man *ChunkManifest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.runs[man.RunID] = RunSummary{
		RunID:      man.RunID,
		Mode:       man.Mode,
		Datapoints: man.Datapoints,
		Chunks:     len(man.Chunks),
		CreatedAt:  man.CreatedAt,
	}
	return nil
}

func (m *memRuns) MarkVerified(_ context.Context, runID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.runs[runID]
	if !ok {
		return errors.NotFound("run not found").WithDetail(runID)
	}
	r.VerifiedAt = &at
	m.runs[runID] = r
	return nil
}

func (m *memRuns) ListRuns(_ context.Context, limit int) ([]RunSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]RunSummary, 0, len(m.runs))
	for _, r := range m.runs {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RunID < out[j].RunID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func toConsumed(msg *kafka.ProducerMessage) *kafka.Message {
	return &kafka.Message{Topic: msg.Topic, Key: msg.Key, Value: msg.Value, Headers: msg.Headers}
}

func testConfig(datasetType string) *config.Config {
	cfg := &config.Config{}
	cfg.Dataset.Type = datasetType
	cfg.Dataset.SkipHeader = true
	cfg.Dataset.Seed = 7
	config.ApplyDefaults(cfg)
	return cfg
}

//Personal.AI order the ending
