package processing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/docvaulthq/docvault/internal/domain"
	"github.com/docvaulthq/docvault/internal/push"
	"github.com/jszwec/csvutil"
)

// ExportManifestKey is the blob key of a finished export's CSV manifest.
func ExportManifestKey(jobID string) string { return "export-" + jobID + ".csv" }

// ExportSummaryKey is the blob key of a finished export's PDF summary.
func ExportSummaryKey(jobID string) string { return "export-" + jobID + ".pdf" }

type manifestRow struct {
	DocumentID string  `csv:"document_id"`
	Filename   string  `csv:"filename"`
	MimeType   string  `csv:"mime_type"`
	SchemeID   string  `csv:"scheme_id"`
	SizeBytes  int64   `csv:"size_bytes"`
	Confidence float64 `csv:"confidence"`
}

// BulkOperationWorker applies one action across a tenant-scoped set of
// document ids. Ids that do not exist for the tenant are silently skipped.
//
// Progress events are emitted per item while every row mutation is committed
// in a single transaction after the loop. Listeners can therefore observe
// 100% before anything is durable, and a crash before the commit loses the
// whole batch even though progress was broadcast. That ordering is part of
// the system's contract: events are advisory, the store is the truth.
type BulkOperationWorker struct {
	log       *slog.Logger
	documents interface {
		DocumentProvider
		DocumentUpdater
		DocumentDeleter
	}
	blobs      BlobStore
	transactor Transactor
	publisher  Publisher
	reports    ReportGenerator
	notifier   *Notifier
}

func NewBulkOperationWorker(
	log *slog.Logger,
	documents interface {
		DocumentProvider
		DocumentUpdater
		DocumentDeleter
	},
	blobs BlobStore,
	transactor Transactor,
	publisher Publisher,
	reports ReportGenerator,
	notifier *Notifier,
) *BulkOperationWorker {
	return &BulkOperationWorker{
		log:        log,
		documents:  documents,
		blobs:      blobs,
		transactor: transactor,
		publisher:  publisher,
		reports:    reports,
		notifier:   notifier,
	}
}

func (w *BulkOperationWorker) Run(
	ctx context.Context,
	tenantID domain.TenantID,
	jobID string,
	action domain.BulkAction,
	ids []string,
) error {
	if tenantID.IsZero() {
		return domain.ErrTenantNotResolved
	}

	log := w.log.With(
		slog.String("tenant_id", tenantID.String()),
		slog.String("job_id", jobID),
		slog.String("action", string(action)),
	)

	docs, err := w.loadOrdered(ctx, tenantID, ids)
	if err != nil {
		return err
	}

	job := &domain.BulkJob{
		ID:       jobID,
		TenantID: tenantID,
		Action:   action,
		Total:    len(docs),
	}

	log.InfoContext(ctx, "bulk operation started", slog.Int("total", job.Total))

	if job.Total == 0 {
		w.publishProgress(ctx, job)
		return nil
	}

	for _, doc := range docs {
		if action == domain.BulkDelete {
			if err := w.blobs.Delete(ctx, tenantID, doc.BlobKey); err != nil {
				return fmt.Errorf("failed to delete blob for %s: %w", doc.ID, err)
			}
		}

		job.Processed++
		w.publishProgress(ctx, job)
	}

	// One commit for the entire batch, after all progress has gone out.
	err = w.transactor.WithTransaction(ctx, func(ctx context.Context) error {
		for _, doc := range docs {
			switch action {
			case domain.BulkDelete:
				if err := w.documents.DeleteDocument(ctx, tenantID, doc.ID); err != nil {
					return fmt.Errorf("failed to delete document %s: %w", doc.ID, err)
				}
			case domain.BulkExport:
				// Exporting is sticky: nothing ever transitions a
				// document back out of it.
				if err := w.documents.UpdateStatus(ctx, tenantID, doc.ID, doc.Version, domain.DocumentExporting); err != nil {
					return fmt.Errorf("failed to mark document %s exporting: %w", doc.ID, err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	if action == domain.BulkExport {
		if err := w.publishExport(ctx, tenantID, jobID, docs); err != nil {
			return err
		}
	}

	log.InfoContext(ctx, "bulk operation finished", slog.Int("processed", job.Processed))

	return nil
}

// RemoveDocument deletes one document the same way the bulk path does:
// blob first, then the row.
func (w *BulkOperationWorker) RemoveDocument(ctx context.Context, tenantID domain.TenantID, id string) error {
	if tenantID.IsZero() {
		return domain.ErrTenantNotResolved
	}

	doc, err := w.documents.DocumentByID(ctx, tenantID, id)
	if err != nil {
		return err
	}

	if err := w.blobs.Delete(ctx, tenantID, doc.BlobKey); err != nil {
		return fmt.Errorf("failed to delete blob for %s: %w", doc.ID, err)
	}

	return w.documents.DeleteDocument(ctx, tenantID, doc.ID)
}

func (w *BulkOperationWorker) publishExport(ctx context.Context, tenantID domain.TenantID, jobID string, docs []*domain.Document) error {
	rows := make([]manifestRow, 0, len(docs))
	for _, doc := range docs {
		rows = append(rows, manifestRow{
			DocumentID: doc.ID,
			Filename:   doc.Filename,
			MimeType:   doc.MimeType,
			SchemeID:   doc.SchemeID,
			SizeBytes:  doc.SizeBytes,
			Confidence: doc.Confidence,
		})
	}

	manifest, err := csvutil.Marshal(rows)
	if err != nil {
		return fmt.Errorf("failed to encode export manifest: %w", err)
	}

	if err := w.blobs.Save(ctx, tenantID, ExportManifestKey(jobID), bytes.NewReader(manifest)); err != nil {
		return fmt.Errorf("failed to store export manifest: %w", err)
	}

	summary, err := w.reports.ExportSummary(jobID, docs)
	if err != nil {
		return fmt.Errorf("failed to render export summary: %w", err)
	}

	if err := w.blobs.Save(ctx, tenantID, ExportSummaryKey(jobID), bytes.NewReader(summary)); err != nil {
		return fmt.Errorf("failed to store export summary: %w", err)
	}

	downloadURL := "/api/v1/exports/" + jobID

	w.publisher.Publish(ctx, tenantID, push.EventExportReady, push.ExportReady{
		JobID:       jobID,
		DownloadURL: downloadURL,
	})

	if w.notifier != nil {
		w.notifier.Notify(ctx, tenantID, "export",
			"Export ready",
			fmt.Sprintf("%d document(s) exported", len(docs)),
		)
	}

	return nil
}

// loadOrdered returns the tenant's matching documents in input order.
func (w *BulkOperationWorker) loadOrdered(ctx context.Context, tenantID domain.TenantID, ids []string) ([]*domain.Document, error) {
	found, err := w.documents.DocumentsByIDs(ctx, tenantID, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load documents: %w", err)
	}

	byID := make(map[string]*domain.Document, len(found))
	for _, doc := range found {
		byID[doc.ID] = doc
	}

	ordered := make([]*domain.Document, 0, len(found))
	for _, id := range ids {
		if doc, ok := byID[id]; ok {
			ordered = append(ordered, doc)
			delete(byID, id)
		}
	}

	return ordered, nil
}

func (w *BulkOperationWorker) publishProgress(ctx context.Context, job *domain.BulkJob) {
	w.publisher.Publish(ctx, job.TenantID, push.EventBulkJobProgress, push.BulkJobProgress{
		JobID:    job.ID,
		Progress: job.Percent(),
		State:    string(job.Action),
	})
}

// Handle is the queue handler for JobKindBulk.
func (w *BulkOperationWorker) Handle(ctx context.Context, tenantID domain.TenantID, raw json.RawMessage) error {
	var args BulkArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return fmt.Errorf("failed to unmarshal bulk args: %w", err)
	}

	action, err := domain.ParseBulkAction(args.Action)
	if err != nil {
		return fmt.Errorf("%w: unknown bulk action %q", err, args.Action)
	}

	return w.Run(ctx, tenantID, args.JobID, action, args.DocumentIDs)
}
