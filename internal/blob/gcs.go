package blob

import (
	"context"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"github.com/docvaulthq/docvault/internal/domain"
)

// GCSStore keeps blobs as <tenant>/<key> objects in a single bucket.
type GCSStore struct {
	bucket *storage.BucketHandle
}

func NewGCSStore(ctx context.Context, bucketName string) (*GCSStore, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	return &GCSStore{bucket: client.Bucket(bucketName)}, nil
}

func (s *GCSStore) Save(ctx context.Context, tenantID domain.TenantID, key string, content io.Reader) error {
	name, err := objectName(tenantID, key)
	if err != nil {
		return err
	}

	w := s.bucket.Object(name).NewWriter(ctx)
	if _, err := io.Copy(w, content); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to write object %s: %w", name, err)
	}

	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to finalize object %s: %w", name, err)
	}

	return nil
}

func (s *GCSStore) Open(ctx context.Context, tenantID domain.TenantID, key string) (io.ReadCloser, error) {
	name, err := objectName(tenantID, key)
	if err != nil {
		return nil, err
	}

	r, err := s.bucket.Object(name).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to open object %s: %w", name, err)
	}

	return r, nil
}

func (s *GCSStore) Delete(ctx context.Context, tenantID domain.TenantID, key string) error {
	name, err := objectName(tenantID, key)
	if err != nil {
		return err
	}

	if err := s.bucket.Object(name).Delete(ctx); err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("failed to delete object %s: %w", name, err)
	}

	return nil
}

func objectName(tenantID domain.TenantID, key string) (string, error) {
	if tenantID.IsZero() {
		return "", domain.ErrTenantNotResolved
	}
	if key == "" {
		return "", fmt.Errorf("%w: empty blob key", domain.ErrInvalidArgument)
	}
	return tenantID.String() + "/" + key, nil
}
