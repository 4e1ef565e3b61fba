package processing_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/docvaulthq/docvault/internal/domain"
	"github.com/docvaulthq/docvault/internal/processing"
	"github.com/docvaulthq/docvault/internal/push"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func extractArgs(t *testing.T, documentID string) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(processing.ExtractArgs{DocumentID: documentID})
	require.NoError(t, err)
	return raw
}

func processingDoc(id string, tenantID domain.TenantID) *domain.Document {
	return &domain.Document{
		ID:       id,
		TenantID: tenantID,
		Filename: "invoice.pdf",
		MimeType: "application/pdf",
		SchemeID: "scheme-1",
		Status:   domain.DocumentProcessing,
		Version:  1,
	}
}

func TestExtraction_CompletesDocument(t *testing.T) {
	t.Parallel()

	docs := newFakeDocumentStore(processingDoc("doc-1", "tenant-a"))
	publisher := &recordingPublisher{}

	worker := processing.NewExtractionWorker(
		slog.New(slog.DiscardHandler),
		docs,
		processing.NewSimulatedEngine(),
		publisher,
		time.Millisecond,
	)

	err := worker.Handle(context.Background(), "tenant-a", extractArgs(t, "doc-1"))
	require.NoError(t, err)

	doc, ok := docs.get("doc-1")
	require.True(t, ok)
	assert.Equal(t, domain.DocumentCompleted, doc.Status)
	assert.Greater(t, doc.Confidence, 0.0)
	assert.NotEmpty(t, doc.Fields)
	assert.Empty(t, doc.ExtractionErrors)
	assert.Equal(t, int64(2), doc.Version)

	events := publisher.Named(push.EventExtractionUpdated)
	require.Len(t, events, 1)
	payload := events[0].Payload.(push.ExtractionUpdated)
	assert.Equal(t, "doc-1", payload.DocumentID)
	assert.Equal(t, string(domain.DocumentCompleted), payload.Status)
	assert.Equal(t, doc.Confidence, payload.Confidence)
}

func TestExtraction_MissingDocumentIsNoop(t *testing.T) {
	t.Parallel()

	publisher := &recordingPublisher{}
	worker := processing.NewExtractionWorker(
		slog.New(slog.DiscardHandler),
		newFakeDocumentStore(),
		processing.NewSimulatedEngine(),
		publisher,
		time.Millisecond,
	)

	// Deleted between enqueue and execution: expected race, not an error.
	err := worker.Handle(context.Background(), "tenant-a", extractArgs(t, "gone"))
	require.NoError(t, err)
	assert.Empty(t, publisher.Events())
}

func TestExtraction_ForeignTenantDocumentIsInvisible(t *testing.T) {
	t.Parallel()

	docs := newFakeDocumentStore(processingDoc("doc-1", "tenant-b"))
	publisher := &recordingPublisher{}

	worker := processing.NewExtractionWorker(
		slog.New(slog.DiscardHandler),
		docs,
		processing.NewSimulatedEngine(),
		publisher,
		time.Millisecond,
	)

	err := worker.Handle(context.Background(), "tenant-a", extractArgs(t, "doc-1"))
	require.NoError(t, err)

	// The other tenant's row is untouched.
	doc, ok := docs.get("doc-1")
	require.True(t, ok)
	assert.Equal(t, domain.DocumentProcessing, doc.Status)
	assert.Empty(t, publisher.Events())
}

func TestExtraction_NeverTouchesExportingDocument(t *testing.T) {
	t.Parallel()

	// A bulk export committed before the queued extraction ran. Exporting is
	// sticky: the extraction gives up instead of completing the document.
	doc := processingDoc("doc-1", "tenant-a")
	doc.Status = domain.DocumentExporting
	doc.Version = 2

	docs := newFakeDocumentStore(doc)
	publisher := &recordingPublisher{}

	worker := processing.NewExtractionWorker(
		slog.New(slog.DiscardHandler),
		docs,
		processing.NewSimulatedEngine(),
		publisher,
		time.Millisecond,
	)

	err := worker.Handle(context.Background(), "tenant-a", extractArgs(t, "doc-1"))
	require.NoError(t, err)

	got, ok := docs.get("doc-1")
	require.True(t, ok)
	assert.Equal(t, domain.DocumentExporting, got.Status)
	assert.Equal(t, int64(2), got.Version)
	assert.Empty(t, publisher.Events())
}

func TestExtraction_RequiresTenant(t *testing.T) {
	t.Parallel()

	worker := processing.NewExtractionWorker(
		slog.New(slog.DiscardHandler),
		newFakeDocumentStore(),
		processing.NewSimulatedEngine(),
		&recordingPublisher{},
		time.Millisecond,
	)

	err := worker.Handle(context.Background(), "", extractArgs(t, "doc-1"))
	require.ErrorIs(t, err, domain.ErrTenantNotResolved)
}

func TestExtraction_IsDeterministicPerDocument(t *testing.T) {
	t.Parallel()

	engine := processing.NewSimulatedEngine()
	doc := processingDoc("doc-1", "tenant-a")

	first, err := engine.Extract(context.Background(), "tenant-a", doc)
	require.NoError(t, err)
	second, err := engine.Extract(context.Background(), "tenant-a", doc)
	require.NoError(t, err)

	assert.Equal(t, first.Confidence, second.Confidence)
	assert.Equal(t, first.Fields, second.Fields)
}
