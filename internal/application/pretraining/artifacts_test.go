package pretraining

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/KeyIP-MolData/internal/config"
	"github.com/turtacn/KeyIP-MolData/pkg/errors"
)

func TestLocalStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalStore(filepath.Join(t.TempDir(), "artifacts"))
	require.NoError(t, err)

	require.NoError(t, store.Put(ctx, "runs/r1/chunk-0.json", []byte(`{"a":1}`), contentTypeJSON))
	require.NoError(t, store.Put(ctx, "runs/r1/vocab.json", []byte(`[]`), contentTypeJSON))
	require.NoError(t, store.Put(ctx, "other/x.json", []byte(`{}`), contentTypeJSON))

	data, err := store.Get(ctx, "runs/r1/chunk-0.json")
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(data))

	ok, err := store.Exists(ctx, "runs/r1/vocab.json")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Exists(ctx, "runs/r1")
	require.NoError(t, err)
	assert.False(t, ok, "directories are not artifacts")

	keys, err := store.List(ctx, "runs/")
	require.NoError(t, err)
	assert.Equal(t, []string{"runs/r1/chunk-0.json", "runs/r1/vocab.json"}, keys)

	require.NoError(t, store.Delete(ctx, "runs/r1/vocab.json"))
	require.NoError(t, store.Delete(ctx, "runs/r1/vocab.json"))
	_, err = store.Get(ctx, "runs/r1/vocab.json")
	assert.True(t, errors.IsNotFound(err))
}

func TestLocalStore_KeysStayInsideRoot(t *testing.T) {
	ctx := context.Background()
	parent := t.TempDir()
	root := filepath.Join(parent, "root")
	store, err := NewLocalStore(root)
	require.NoError(t, err)

	require.NoError(t, store.Put(ctx, "../escape.json", []byte("x"), ""))
	_, err = os.Stat(filepath.Join(parent, "escape.json"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(root, "escape.json"))
	assert.NoError(t, err)

	assert.Error(t, store.Put(ctx, "", []byte("x"), ""))
	assert.Error(t, store.Put(ctx, "/", []byte("x"), ""))
}

func TestNewLocalStore_RequiresDir(t *testing.T) {
	_, err := NewLocalStore("")
	assert.True(t, errors.IsConfiguration(err))
}

func TestOpenArtifactStore(t *testing.T) {
	cfg := testConfig(config.DatasetTypeRegression)
	cfg.Artifacts.LocalDir = t.TempDir()

	store, closeFn, err := OpenArtifactStore(cfg, nil)
	require.NoError(t, err)
	assert.IsType(t, &LocalStore{}, store)
	assert.NoError(t, closeFn())

	cfg.Artifacts.Backend = "gcs"
	_, _, err = OpenArtifactStore(cfg, nil)
	assert.True(t, errors.IsConfiguration(err))
}

//Personal.AI order the ending
