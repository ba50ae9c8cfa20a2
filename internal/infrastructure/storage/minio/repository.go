package minio

import (
	"bytes"
	"context"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"

	"github.com/turtacn/KeyIP-MolData/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-MolData/pkg/errors"
)

var (
	ErrObjectNotFound = errors.New(errors.ErrCodeArtifactNotFound, "object not found")
	ErrInvalidRequest = errors.New(errors.ErrCodeValidation, "invalid request")
)

// ObjectStore is a flat key/value view over the artifact bucket.
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	Exists(ctx context.Context, key string) (bool, error)
	List(ctx context.Context, prefix string) ([]string, error)
	Delete(ctx context.Context, key string) error
}

type minioRepository struct {
	client *MinIOClient
	logger logging.Logger
}

func NewObjectStore(client *MinIOClient, log logging.Logger) ObjectStore {
	return &minioRepository{client: client, logger: logging.OrDefault(log)}
}

func isNoSuchKey(err error) bool {
	return minio.ToErrorResponse(err).Code == "NoSuchKey"
}

func (r *minioRepository) api() (MinIOAPI, error) {
	if r.client.isClosed() {
		return nil, ErrMinIOClientClosed
	}
	return r.client.GetClient(), nil
}

func (r *minioRepository) Put(ctx context.Context, key string, data []byte, contentType string) error {
	if key == "" {
		return ErrInvalidRequest.WithDetail("empty object key")
	}
	api, err := r.api()
	if err != nil {
		return err
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	info, err := api.PutObject(ctx, r.client.Bucket(), key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeStorageError, "upload failed: "+key)
	}
	r.logger.Debug("Uploaded object", logging.String("key", key), logging.Int64("size", info.Size))
	return nil
}

func (r *minioRepository) Get(ctx context.Context, key string) ([]byte, error) {
	api, err := r.api()
	if err != nil {
		return nil, err
	}
	if _, err := api.StatObject(ctx, r.client.Bucket(), key, minio.StatObjectOptions{}); err != nil {
		if isNoSuchKey(err) {
			return nil, ErrObjectNotFound.WithDetail(key)
		}
		return nil, errors.Wrap(err, errors.ErrCodeStorageError, "stat failed")
	}
	obj, err := api.GetObject(ctx, r.client.Bucket(), key, minio.GetObjectOptions{})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStorageError, "download failed")
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		if isNoSuchKey(err) {
			return nil, ErrObjectNotFound.WithDetail(key)
		}
		return nil, errors.Wrap(err, errors.ErrCodeStorageError, "download failed")
	}
	return data, nil
}

func (r *minioRepository) Exists(ctx context.Context, key string) (bool, error) {
	api, err := r.api()
	if err != nil {
		return false, err
	}
	_, err = api.StatObject(ctx, r.client.Bucket(), key, minio.StatObjectOptions{})
	if err != nil {
		if isNoSuchKey(err) {
			return false, nil
		}
		return false, errors.Wrap(err, errors.ErrCodeStorageError, "stat failed")
	}
	return true, nil
}

// List returns every key under prefix in lexical order.
func (r *minioRepository) List(ctx context.Context, prefix string) ([]string, error) {
	api, err := r.api()
	if err != nil {
		return nil, err
	}
	var keys []string
	for obj := range api.ListObjects(ctx, r.client.Bucket(), minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, errors.Wrap(obj.Err, errors.ErrCodeStorageError, "list failed")
		}
		if strings.HasSuffix(obj.Key, "/") {
			continue
		}
		keys = append(keys, obj.Key)
	}
	return keys, nil
}

func (r *minioRepository) Delete(ctx context.Context, key string) error {
	api, err := r.api()
	if err != nil {
		return err
	}
	if err := api.RemoveObject(ctx, r.client.Bucket(), key, minio.RemoveObjectOptions{}); err != nil {
		return errors.Wrap(err, errors.ErrCodeStorageError, "delete failed")
	}
	return nil
}

//Personal.AI order the ending
