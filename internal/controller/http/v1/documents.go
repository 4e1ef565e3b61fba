package v1

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/docvaulthq/docvault/internal/domain"
	"github.com/docvaulthq/docvault/internal/processing"
)

// 32 MiB of multipart form data held in memory; larger parts spill to disk.
const maxUploadMemory = 32 << 20

type Uploader interface {
	Upload(ctx context.Context, tenantID domain.TenantID, schemeID string, files []domain.UploadFile) (*domain.UploadResult, error)
}

type DocumentsRepository interface {
	Documents(ctx context.Context, tenantID domain.TenantID, limit, offset uint64) ([]*domain.Document, int, error)
}

// DocumentRemover deletes a single document together with its blob.
type DocumentRemover interface {
	RemoveDocument(ctx context.Context, tenantID domain.TenantID, id string) error
}

type Enqueuer interface {
	Enqueue(ctx context.Context, tenantID domain.TenantID, kind string, args any) error
}

type DocumentsHandler struct {
	uploader            Uploader
	documentsRepository DocumentsRepository
	remover             DocumentRemover
	queue               Enqueuer
}

func NewDocumentsHandler(uploader Uploader, documentsRepository DocumentsRepository, remover DocumentRemover, queue Enqueuer) *DocumentsHandler {
	return &DocumentsHandler{
		uploader:            uploader,
		documentsRepository: documentsRepository,
		remover:             remover,
		queue:               queue,
	}
}

type UploadResponse struct {
	BatchID  string   `json:"batchId"`
	Accepted int      `json:"accepted"`
	Rejected []string `json:"rejected"`
}

func (h *DocumentsHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	schemeID := r.FormValue("schemeId")

	var files []domain.UploadFile
	for _, header := range r.MultipartForm.File["files"] {
		content, err := header.Open()
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer content.Close()

		files = append(files, domain.UploadFile{
			Name:        header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Size:        header.Size,
			Content:     content,
		})
	}

	result, err := h.uploader.Upload(r.Context(), tenantFromRequest(r), schemeID, files)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, UploadResponse{
		BatchID:  result.BatchID,
		Accepted: result.Accepted,
		Rejected: result.Rejected,
	})
}

type ListDocumentsResponse struct {
	Documents  []*domain.Document `json:"documents"`
	Pagination Pagination         `json:"pagination"`
}

func (h *DocumentsHandler) List(w http.ResponseWriter, r *http.Request) {
	page, limit, err := parsePagination(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	offset := (page - 1) * limit

	documents, total, err := h.documentsRepository.Documents(r.Context(), tenantFromRequest(r), limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ListDocumentsResponse{
		Documents:  documents,
		Pagination: newPagination(page, limit, total),
	})
}

func (h *DocumentsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	documentID := chi.URLParam(r, "document_id")

	if err := h.remover.RemoveDocument(r.Context(), tenantFromRequest(r), documentID); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type BulkRequest struct {
	Action string   `json:"action"`
	IDs    []string `json:"ids"`
}

type BulkResponse struct {
	JobID string `json:"jobId"`
}

// Bulk validates the request, hands the batch to the durable queue and
// returns immediately. Progress arrives on the push channel.
func (h *DocumentsHandler) Bulk(w http.ResponseWriter, r *http.Request) {
	var req BulkRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	action, err := domain.ParseBulkAction(req.Action)
	if err != nil {
		http.Error(w, fmt.Sprintf("unknown bulk action %q", req.Action), http.StatusBadRequest)
		return
	}

	jobID := uuid.NewString()

	err = h.queue.Enqueue(r.Context(), tenantFromRequest(r), processing.JobKindBulk, processing.BulkArgs{
		JobID:       jobID,
		Action:      string(action),
		DocumentIDs: req.IDs,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, BulkResponse{JobID: jobID})
}
