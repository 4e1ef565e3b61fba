package v1

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/docvaulthq/docvault/internal/domain"
)

type SyncStarter interface {
	StartSync(ctx context.Context, tenantID domain.TenantID, connectorID string) (*domain.RepositorySyncJob, error)
}

type RepositoriesHandler struct {
	sync SyncStarter
}

func NewRepositoriesHandler(sync SyncStarter) *RepositoriesHandler {
	return &RepositoriesHandler{
		sync: sync,
	}
}

type SyncResponse struct {
	JobID string `json:"jobId"`
}

func (h *RepositoriesHandler) Sync(w http.ResponseWriter, r *http.Request) {
	connectorID := chi.URLParam(r, "connector_id")

	job, err := h.sync.StartSync(r.Context(), tenantFromRequest(r), connectorID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, SyncResponse{JobID: job.ID})
}
