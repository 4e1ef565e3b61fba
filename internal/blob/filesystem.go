package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/docvaulthq/docvault/internal/domain"
)

// FilesystemStore keeps blobs under root/<tenant>/<key>. Writes go through
// a temp file and rename so readers never observe partial content.
type FilesystemStore struct {
	root string
}

func NewFilesystemStore(root string) *FilesystemStore {
	return &FilesystemStore{root: root}
}

func (s *FilesystemStore) Save(ctx context.Context, tenantID domain.TenantID, key string, content io.Reader) (err error) {
	path, err := s.path(tenantID, key)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create blob directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".blob-*")
	if err != nil {
		return fmt.Errorf("failed to create temp blob: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = io.Copy(tmp, content); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write blob: %w", err)
	}

	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close blob: %w", err)
	}

	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to finalize blob: %w", err)
	}

	return nil
}

func (s *FilesystemStore) Open(ctx context.Context, tenantID domain.TenantID, key string) (io.ReadCloser, error) {
	path, err := s.path(tenantID, key)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to open blob: %w", err)
	}

	return f, nil
}

func (s *FilesystemStore) Delete(ctx context.Context, tenantID domain.TenantID, key string) error {
	path, err := s.path(tenantID, key)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete blob: %w", err)
	}

	return nil
}

func (s *FilesystemStore) path(tenantID domain.TenantID, key string) (string, error) {
	if tenantID.IsZero() {
		return "", domain.ErrTenantNotResolved
	}

	// Keys are opaque ids generated by this system, but reject traversal
	// just in case one ever comes from outside.
	if key == "" || strings.Contains(key, "..") || strings.ContainsRune(key, os.PathSeparator) {
		return "", fmt.Errorf("%w: bad blob key %q", domain.ErrInvalidArgument, key)
	}

	return filepath.Join(s.root, tenantID.String(), key), nil
}
