package v1

import (
	"context"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/docvaulthq/docvault/internal/domain"
	"github.com/docvaulthq/docvault/internal/processing"
)

type BlobOpener interface {
	Open(ctx context.Context, tenantID domain.TenantID, key string) (io.ReadCloser, error)
}

type ExportsHandler struct {
	blobs BlobOpener
}

func NewExportsHandler(blobs BlobOpener) *ExportsHandler {
	return &ExportsHandler{
		blobs: blobs,
	}
}

// Download serves the CSV manifest of a finished export. Before the export
// job stores it the blob does not exist and the client sees 404.
func (h *ExportsHandler) Download(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "job_id")

	manifest, err := h.blobs.Open(r.Context(), tenantFromRequest(r), processing.ExportManifestKey(jobID))
	if err != nil {
		writeError(w, err)
		return
	}
	defer manifest.Close()

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="export-`+jobID+`.csv"`)
	io.Copy(w, manifest)
}
