package v1

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/docvaulthq/docvault/internal/domain"
)

type WorkflowService interface {
	Start(ctx context.Context, tenantID domain.TenantID, definitionID string, input json.RawMessage) (*domain.WorkflowInstance, error)
	HandleAction(ctx context.Context, tenantID domain.TenantID, instanceID string, action domain.WorkflowAction) error
}

type WorkflowsHandler struct {
	workflows WorkflowService
}

func NewWorkflowsHandler(workflows WorkflowService) *WorkflowsHandler {
	return &WorkflowsHandler{
		workflows: workflows,
	}
}

type CreateInstanceRequest struct {
	DefinitionID string          `json:"definitionId"`
	Input        json.RawMessage `json:"input"`
}

func (h *WorkflowsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateInstanceRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	instance, err := h.workflows.Start(r.Context(), tenantFromRequest(r), req.DefinitionID, req.Input)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, instance)
}

type ActionRequest struct {
	Action string `json:"action"`
}

// Action applies one action to an instance. The action name comes from the
// request body, or from the path when the client uses the
// `/workflow/instances/{id}:{action}` alias.
func (h *WorkflowsHandler) Action(w http.ResponseWriter, r *http.Request) {
	instanceID := chi.URLParam(r, "instance_id")

	var actionName string
	if id, alias, ok := strings.Cut(instanceID, ":"); ok {
		instanceID, actionName = id, alias
	} else {
		var req ActionRequest
		if err := decodeJSON(r, &req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		actionName = req.Action
	}

	action, err := domain.ParseWorkflowAction(actionName)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.workflows.HandleAction(r.Context(), tenantFromRequest(r), instanceID, action); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusAccepted)
}
