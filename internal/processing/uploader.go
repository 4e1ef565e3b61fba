package processing

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/docvaulthq/docvault/internal/domain"
	"github.com/docvaulthq/docvault/internal/push"
	"github.com/google/uuid"
)

// UploadCoordinator accepts a batch of files for one tenant and scheme,
// persists the records, enqueues extraction and emits batch progress. The
// caller gets the accepted/rejected split back synchronously; extraction has
// not necessarily started by then.
type UploadCoordinator struct {
	log        *slog.Logger
	blobs      BlobStore
	documents  DocumentSaver
	transactor Transactor
	queue      Enqueuer
	publisher  Publisher
	notifier   *Notifier
}

func NewUploadCoordinator(
	log *slog.Logger,
	blobs BlobStore,
	documents DocumentSaver,
	transactor Transactor,
	queue Enqueuer,
	publisher Publisher,
	notifier *Notifier,
) *UploadCoordinator {
	return &UploadCoordinator{
		log:        log,
		blobs:      blobs,
		documents:  documents,
		transactor: transactor,
		queue:      queue,
		publisher:  publisher,
		notifier:   notifier,
	}
}

func (c *UploadCoordinator) Upload(
	ctx context.Context,
	tenantID domain.TenantID,
	schemeID string,
	files []domain.UploadFile,
) (*domain.UploadResult, error) {
	if tenantID.IsZero() {
		return nil, domain.ErrTenantNotResolved
	}
	if schemeID == "" {
		return nil, fmt.Errorf("%w: schemeId is required", domain.ErrInvalidArgument)
	}

	result := &domain.UploadResult{
		BatchID:  uuid.NewString(),
		Rejected: []string{},
	}

	if len(files) == 0 {
		return result, nil
	}

	log := c.log.With(
		slog.String("batch_id", result.BatchID),
		slog.String("tenant_id", tenantID.String()),
		slog.Int("total", len(files)),
	)
	log.InfoContext(ctx, "upload batch started")

	// Files are processed strictly one at a time: progress is strictly
	// increasing and a bad file never aborts the batch.
	var created []*domain.Document
	for i, file := range files {
		doc, err := c.processFile(ctx, tenantID, schemeID, file)
		if err != nil {
			log.ErrorContext(ctx, "rejected file",
				slog.String("filename", file.Name),
				slog.String("err", err.Error()),
			)
			result.Rejected = append(result.Rejected, fmt.Sprintf("%s: %s", file.Name, err))
		} else {
			created = append(created, doc)
			result.Accepted++
		}

		c.publisher.Publish(ctx, tenantID, push.EventUploadProgress, push.UploadProgress{
			BatchID:   result.BatchID,
			Processed: i + 1,
			Total:     len(files),
		})
	}

	// All created rows land in one commit.
	if err := c.transactor.WithTransaction(ctx, func(ctx context.Context) error {
		return c.documents.SaveDocuments(ctx, created...)
	}); err != nil {
		return nil, fmt.Errorf("failed to persist upload batch: %w", err)
	}

	for _, doc := range created {
		err := c.queue.Enqueue(ctx, tenantID, JobKindExtract, ExtractArgs{DocumentID: doc.ID})
		if err != nil {
			// The row exists but extraction will not run; leave the
			// document in processing and surface the problem in logs.
			log.ErrorContext(ctx, "failed to enqueue extraction",
				slog.String("document_id", doc.ID),
				slog.String("err", err.Error()),
			)
		}
	}

	c.publisher.Publish(ctx, tenantID, push.EventUploadCompleted, push.UploadCompleted{
		BatchID:   result.BatchID,
		Succeeded: result.Accepted,
		Failed:    len(result.Rejected),
	})

	if c.notifier != nil {
		c.notifier.Notify(ctx, tenantID, "upload",
			"Upload finished",
			fmt.Sprintf("%d of %d file(s) accepted", result.Accepted, len(files)),
		)
	}

	log.InfoContext(ctx, "upload batch finished",
		slog.Int("accepted", result.Accepted),
		slog.Int("rejected", len(result.Rejected)),
	)

	return result, nil
}

func (c *UploadCoordinator) processFile(
	ctx context.Context,
	tenantID domain.TenantID,
	schemeID string,
	file domain.UploadFile,
) (*domain.Document, error) {
	if file.Name == "" {
		return nil, fmt.Errorf("%w: file name is empty", domain.ErrInvalidArgument)
	}

	blobKey := uuid.NewString()
	if err := c.blobs.Save(ctx, tenantID, blobKey, file.Content); err != nil {
		return nil, fmt.Errorf("failed to store file content: %w", err)
	}

	now := time.Now().UTC()

	return &domain.Document{
		ID:               uuid.NewString(),
		TenantID:         tenantID,
		Filename:         file.Name,
		MimeType:         file.ContentType,
		SizeBytes:        file.Size,
		SchemeID:         schemeID,
		Status:           domain.DocumentProcessing,
		BlobKey:          blobKey,
		Fields:           domain.FieldSet{},
		ExtractionErrors: []string{},
		Version:          1,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}
