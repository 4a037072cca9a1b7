package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"

	"interview-backend/internal/shared/storage/object"
)

// Store implements ObjectStore using Google Cloud Storage.
type Store struct {
	bucket *storage.BucketHandle
	name   string
	prefix string
}

// New creates a GCS-backed object store using application default credentials.
func New(ctx context.Context, bucket, prefix string) (object.ObjectStore, error) {
	bucket = strings.TrimSpace(bucket)
	if bucket == "" {
		return nil, fmt.Errorf("gcs bucket is required")
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create gcs client: %w", err)
	}
	return &Store{
		bucket: client.Bucket(bucket),
		name:   bucket,
		prefix: strings.Trim(strings.TrimSpace(prefix), "/"),
	}, nil
}

// Open downloads a stored object for reading.
func (s *Store) Open(ctx context.Context, storageKey string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	key, err := object.CleanKey(storageKey)
	if err != nil {
		return nil, err
	}
	name := objectName(s.prefix, key)

	r, err := s.bucket.Object(name).NewReader(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: %s", object.ErrNotFound, storageKey)
		}
		return nil, fmt.Errorf("gcs read bucket=%s object=%s: %w", s.name, name, err)
	}
	return r, nil
}

// SaveWithKey uploads data to a specific storage key, replacing any
// existing object.
func (s *Store) SaveWithKey(ctx context.Context, storageKey string, contentType string, r io.Reader) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	key, err := object.CleanKey(storageKey)
	if err != nil {
		return 0, err
	}
	name := objectName(s.prefix, key)

	writer := s.bucket.Object(name).NewWriter(ctx)
	if contentType != "" {
		writer.ContentType = contentType
	}
	written, err := io.Copy(writer, r)
	if err != nil {
		_ = writer.Close()
		return 0, fmt.Errorf("gcs write bucket=%s object=%s: %w", s.name, name, err)
	}
	if err := writer.Close(); err != nil {
		return 0, fmt.Errorf("gcs finalize bucket=%s object=%s: %w", s.name, name, err)
	}
	return written, nil
}

func isNotFound(err error) bool {
	if errors.Is(err, storage.ErrObjectNotExist) || errors.Is(err, storage.ErrBucketNotExist) {
		return true
	}
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == http.StatusNotFound
}

func objectName(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "/" + key
}

var _ object.ObjectStore = (*Store)(nil)
