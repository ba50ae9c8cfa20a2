package pretraining

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/KeyIP-MolData/internal/config"
	"github.com/turtacn/KeyIP-MolData/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/KeyIP-MolData/pkg/errors"
)

func newWatchService(t *testing.T, store ArtifactStore) Service {
	t.Helper()
	svc, err := NewService(Deps{Config: testConfig(config.DatasetTypePretraining), Store: store})
	require.NoError(t, err)
	return svc
}

func putChunk(t *testing.T, store ArtifactStore, key string, c *Chunk) {
	t.Helper()
	require.NoError(t, WriteChunk(context.Background(), store, key, c))
}

func manifestMessage(t *testing.T, eventType string, payload interface{}) *kafka.Message {
	t.Helper()
	env, err := kafka.NewEventEnvelope(eventType, SourceService, payload)
	require.NoError(t, err)
	msg, err := env.ToMessage("moldata.chunks", "r")
	require.NoError(t, err)
	return toConsumed(msg)
}

func TestVerifyManifest(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	putChunk(t, store, "runs/r/chunk-0.json", &Chunk{RunID: "r", Index: 0, Records: make([]ChunkRecord, 2)})
	putChunk(t, store, "runs/r/chunk-1.json", &Chunk{RunID: "r", Index: 1, Records: make([]ChunkRecord, 1)})
	svc := newWatchService(t, store)

	m := &ChunkManifest{RunID: "r", Datapoints: 3, Chunks: []ChunkRef{
		{Index: 0, Key: "runs/r/chunk-0.json", Size: 2},
		{Index: 1, Key: "runs/r/chunk-1.json", Size: 1},
	}}
	require.NoError(t, svc.VerifyManifest(ctx, m))

	tests := []struct {
		name   string
		mutate func(m ChunkManifest) *ChunkManifest
	}{
		{"wrong run", func(m ChunkManifest) *ChunkManifest { m.RunID = "other"; return &m }},
		{"wrong total", func(m ChunkManifest) *ChunkManifest { m.Datapoints = 4; return &m }},
		{"wrong size", func(m ChunkManifest) *ChunkManifest {
			m.Chunks = []ChunkRef{{Index: 0, Key: "runs/r/chunk-0.json", Size: 5}}
			return &m
		}},
		{"wrong index", func(m ChunkManifest) *ChunkManifest {
			m.Chunks = []ChunkRef{{Index: 3, Key: "runs/r/chunk-0.json", Size: 2}}
			return &m
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.VerifyManifest(ctx, tt.mutate(*m))
			assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))
		})
	}

	m.Chunks = append(m.Chunks, ChunkRef{Index: 2, Key: "runs/r/chunk-2.json", Size: 1})
	assert.True(t, errors.IsNotFound(svc.VerifyManifest(ctx, m)))
}

func TestHandleChunkReady(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	putChunk(t, store, "runs/r/chunk-0.json", &Chunk{RunID: "r", Records: make([]ChunkRecord, 1)})
	svc := newWatchService(t, store)

	ok := manifestMessage(t, kafka.EventChunkReady, ChunkManifest{RunID: "r", Datapoints: 1, Chunks: []ChunkRef{{Key: "runs/r/chunk-0.json", Size: 1}}})
	assert.NoError(t, svc.HandleChunkReady(ctx, ok))

	other := manifestMessage(t, kafka.EventRunCompleted, map[string]string{"run_id": "r"})
	assert.NoError(t, svc.HandleChunkReady(ctx, other), "other events are ignored")

	assert.Error(t, svc.HandleChunkReady(ctx, &kafka.Message{Value: []byte("not json")}))
	assert.Error(t, svc.HandleChunkReady(ctx, &kafka.Message{}))
}

//Personal.AI order the ending
