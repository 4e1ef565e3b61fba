package processing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"time"

	"github.com/docvaulthq/docvault/internal/domain"
	"github.com/docvaulthq/docvault/internal/push"
)

// ExtractionWorker runs field extraction for one document as a queue unit.
// It re-establishes tenant scope from the job arguments before touching
// anything.
type ExtractionWorker struct {
	log       *slog.Logger
	documents interface {
		DocumentProvider
		DocumentUpdater
	}
	engine    Engine
	publisher Publisher
	delay     time.Duration
}

func NewExtractionWorker(
	log *slog.Logger,
	documents interface {
		DocumentProvider
		DocumentUpdater
	},
	engine Engine,
	publisher Publisher,
	delay time.Duration,
) *ExtractionWorker {
	return &ExtractionWorker{
		log:       log,
		documents: documents,
		engine:    engine,
		publisher: publisher,
		delay:     delay,
	}
}

// Handle is the queue handler for JobKindExtract.
func (w *ExtractionWorker) Handle(ctx context.Context, tenantID domain.TenantID, raw json.RawMessage) error {
	if tenantID.IsZero() {
		return domain.ErrTenantNotResolved
	}

	var args ExtractArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return fmt.Errorf("failed to unmarshal extract args: %w", err)
	}

	log := w.log.With(
		slog.String("tenant_id", tenantID.String()),
		slog.String("document_id", args.DocumentID),
	)

	doc, err := w.documents.DocumentByID(ctx, tenantID, args.DocumentID)
	if err != nil {
		// Deletion between enqueue and execution is an expected race,
		// not a failure.
		if errors.Is(err, domain.ErrNotFound) {
			log.DebugContext(ctx, "document gone before extraction, skipping")
			return nil
		}
		return fmt.Errorf("failed to load document: %w", err)
	}

	// Terminal documents are never re-extracted. In particular a document a
	// bulk export marked exporting stays exporting; a queued extraction that
	// lost that race lands here on retry and gives up.
	if doc.Status.Terminal() {
		log.DebugContext(ctx, "document already terminal, skipping extraction",
			slog.String("status", string(doc.Status)),
		)
		return nil
	}

	select {
	case <-time.After(w.delay):
	case <-ctx.Done():
		return ctx.Err()
	}

	result, err := w.engine.Extract(ctx, tenantID, doc)
	if err != nil {
		return fmt.Errorf("extraction engine failed: %w", err)
	}

	if err := w.documents.UpdateExtraction(ctx, tenantID, doc.ID, doc.Version, result); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			log.DebugContext(ctx, "document deleted during extraction, skipping")
			return nil
		}
		// ErrConflict propagates: the queue retries and the next run
		// sees the new version.
		return fmt.Errorf("failed to persist extraction: %w", err)
	}

	status := domain.DocumentCompleted
	if len(result.Errors) > 0 {
		status = domain.DocumentFailed
	}

	w.publisher.Publish(ctx, tenantID, push.EventExtractionUpdated, push.ExtractionUpdated{
		DocumentID: doc.ID,
		Status:     string(status),
		Confidence: result.Confidence,
	})

	log.InfoContext(ctx, "extraction finished",
		slog.String("status", string(status)),
		slog.Float64("confidence", result.Confidence),
	)

	return nil
}

// SimulatedEngine stands in for the real OCR/AI collaborator. It produces a
// deterministic field set and a confidence derived from the document id, so
// repeated runs of the same document agree.
type SimulatedEngine struct{}

func NewSimulatedEngine() *SimulatedEngine {
	return &SimulatedEngine{}
}

func (e *SimulatedEngine) Extract(ctx context.Context, tenantID domain.TenantID, doc *domain.Document) (*domain.ExtractionResult, error) {
	h := fnv.New32a()
	h.Write([]byte(doc.ID))

	confidence := 0.80 + float64(h.Sum32()%20)/100

	return &domain.ExtractionResult{
		Fields: domain.FieldSet{
			"filename":  doc.Filename,
			"scheme_id": doc.SchemeID,
			"mime_type": doc.MimeType,
		},
		Confidence: confidence,
		Errors:     []string{},
	}, nil
}
