package processing

import (
	"context"
	"io"
	"time"

	"github.com/docvaulthq/docvault/internal/domain"
)

type DocumentSaver interface {
	SaveDocuments(ctx context.Context, docs ...*domain.Document) error
}

type DocumentProvider interface {
	DocumentByID(ctx context.Context, tenantID domain.TenantID, id string) (*domain.Document, error)
	DocumentsByIDs(ctx context.Context, tenantID domain.TenantID, ids []string) ([]*domain.Document, error)
}

type DocumentUpdater interface {
	UpdateExtraction(ctx context.Context, tenantID domain.TenantID, id string, version int64, result *domain.ExtractionResult) error
	UpdateStatus(ctx context.Context, tenantID domain.TenantID, id string, version int64, status domain.DocumentStatus) error
}

type DocumentDeleter interface {
	DeleteDocument(ctx context.Context, tenantID domain.TenantID, id string) error
}

type WorkflowStore interface {
	CreateInstance(ctx context.Context, instance *domain.WorkflowInstance) error
	InstanceByID(ctx context.Context, tenantID domain.TenantID, id string) (*domain.WorkflowInstance, error)
	UpdateStatus(ctx context.Context, tenantID domain.TenantID, id string, version int64, status domain.WorkflowStatus) error
	CompleteIfActive(ctx context.Context, tenantID domain.TenantID, id string) (bool, error)
}

type SyncJobStore interface {
	CreateSyncJob(ctx context.Context, job *domain.RepositorySyncJob) error
	UpdateSyncProgress(ctx context.Context, tenantID domain.TenantID, id string, state domain.SyncState, percent int, message string) error
}

type NotificationStore interface {
	CreateNotification(ctx context.Context, n *domain.Notification) error
	MarkRead(ctx context.Context, tenantID domain.TenantID, ids []string) ([]string, error)
}

type Transactor interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type BlobStore interface {
	Save(ctx context.Context, tenantID domain.TenantID, key string, content io.Reader) error
	Delete(ctx context.Context, tenantID domain.TenantID, key string) error
}

// Publisher is the best-effort push channel. Emitting an event says nothing
// about durability; the store is committed separately.
type Publisher interface {
	Publish(ctx context.Context, tenantID domain.TenantID, name string, payload any)
}

// Enqueuer hands a unit of work to the durable queue. The tenant id is
// captured as an explicit argument because the unit executes on a different
// call chain with nothing inherited from this one.
type Enqueuer interface {
	Enqueue(ctx context.Context, tenantID domain.TenantID, kind string, args any) error
	EnqueueIn(ctx context.Context, delay time.Duration, tenantID domain.TenantID, kind string, args any) error
}

// Engine is the opaque extraction collaborator. The shipped implementation
// simulates it; the contract is all this system depends on.
type Engine interface {
	Extract(ctx context.Context, tenantID domain.TenantID, doc *domain.Document) (*domain.ExtractionResult, error)
}

type ReportGenerator interface {
	ExportSummary(jobID string, docs []*domain.Document) ([]byte, error)
}
