package pretraining

import (
	"context"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/turtacn/KeyIP-MolData/internal/config"
	"github.com/turtacn/KeyIP-MolData/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-MolData/internal/infrastructure/storage/minio"
	"github.com/turtacn/KeyIP-MolData/pkg/errors"
)

// Artifact backends.
const (
	BackendLocal = "local"
	BackendMinIO = "minio"
)

// ArtifactStore holds vocabularies, scalers, precomputed features and chunk
// exports under slash-separated keys.  minio.ObjectStore satisfies it.
type ArtifactStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	Exists(ctx context.Context, key string) (bool, error)
	List(ctx context.Context, prefix string) ([]string, error)
	Delete(ctx context.Context, key string) error
}

var _ ArtifactStore = (minio.ObjectStore)(nil)

// OpenArtifactStore opens the backend named by cfg.Artifacts.  The returned
// close function releases the backend and is never nil.
func OpenArtifactStore(cfg *config.Config, log logging.Logger) (ArtifactStore, func() error, error) {
	log = logging.OrDefault(log)
	switch cfg.Artifacts.Backend {
	case BackendMinIO:
		client, err := minio.NewMinIOClient(cfg.MinIO, log)
		if err != nil {
			return nil, nil, err
		}
		return minio.NewObjectStore(client, log), client.Close, nil
	case BackendLocal, "":
		store, err := NewLocalStore(cfg.Artifacts.LocalDir)
		if err != nil {
			return nil, nil, err
		}
		return store, func() error { return nil }, nil
	default:
		return nil, nil, errors.Configuration("artifact backend not supported").WithDetail("backend=" + cfg.Artifacts.Backend)
	}
}

// LocalStore keeps artifacts as files below a root directory.
type LocalStore struct {
	root string
}

// NewLocalStore creates root when missing.
func NewLocalStore(root string) (*LocalStore, error) {
	if root == "" {
		return nil, errors.Configuration("local artifact directory is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStorageError, "creating artifact directory")
	}
	return &LocalStore{root: root}, nil
}

func (s *LocalStore) path(key string) (string, error) {
	clean := path.Clean("/" + key)
	if key == "" || clean == "/" {
		return "", errors.InvalidParam("artifact key is required")
	}
	return filepath.Join(s.root, filepath.FromSlash(strings.TrimPrefix(clean, "/"))), nil
}

func (s *LocalStore) Put(_ context.Context, key string, data []byte, _ string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return errors.Wrap(err, errors.ErrCodeStorageError, "creating artifact directory")
	}
	// Write then rename so readers never observe a partial artifact.
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errors.Wrap(err, errors.ErrCodeStorageError, "writing "+key)
	}
	if err := os.Rename(tmp, p); err != nil {
		return errors.Wrap(err, errors.ErrCodeStorageError, "writing "+key)
	}
	return nil
}

func (s *LocalStore) Get(_ context.Context, key string) ([]byte, error) {
	p, err := s.path(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if os.IsNotExist(err) {
		return nil, errors.New(errors.ErrCodeArtifactNotFound, "artifact not found").WithDetail(key)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStorageError, "reading "+key)
	}
	return data, nil
}

func (s *LocalStore) Exists(_ context.Context, key string) (bool, error) {
	p, err := s.path(key)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(p)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrap(err, errors.ErrCodeStorageError, "stat "+key)
	}
	return !info.IsDir(), nil
}

// List returns the keys under prefix in lexical order.
func (s *LocalStore) List(_ context.Context, prefix string) ([]string, error) {
	var keys []string
	err := filepath.WalkDir(s.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.HasSuffix(p, ".tmp") {
			return nil
		}
		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStorageError, "listing "+prefix)
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *LocalStore) Delete(_ context.Context, key string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, errors.ErrCodeStorageError, "deleting "+key)
	}
	return nil
}

//Personal.AI order the ending
