// Package blob provides tenant-scoped binary storage. Keys never cross
// tenant boundaries: every operation addresses objects under the caller's
// tenant prefix and nothing else.
package blob

import (
	"context"
	"io"

	"github.com/docvaulthq/docvault/internal/domain"
)

type Store interface {
	Save(ctx context.Context, tenantID domain.TenantID, key string, content io.Reader) error
	Open(ctx context.Context, tenantID domain.TenantID, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, tenantID domain.TenantID, key string) error
}
