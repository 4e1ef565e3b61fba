package v1

import (
	"context"
	"net/http"

	"github.com/docvaulthq/docvault/internal/domain"
)

type NotificationsRepository interface {
	Notifications(ctx context.Context, tenantID domain.TenantID, limit, offset uint64) ([]*domain.Notification, int, error)
}

type NotificationReader interface {
	MarkRead(ctx context.Context, tenantID domain.TenantID, ids []string) ([]string, error)
}

type NotificationsHandler struct {
	notificationsRepository NotificationsRepository
	reader                  NotificationReader
}

func NewNotificationsHandler(notificationsRepository NotificationsRepository, reader NotificationReader) *NotificationsHandler {
	return &NotificationsHandler{
		notificationsRepository: notificationsRepository,
		reader:                  reader,
	}
}

type ListNotificationsResponse struct {
	Notifications []*domain.Notification `json:"notifications"`
	Pagination    Pagination             `json:"pagination"`
}

func (h *NotificationsHandler) List(w http.ResponseWriter, r *http.Request) {
	page, limit, err := parsePagination(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	offset := (page - 1) * limit

	notifications, total, err := h.notificationsRepository.Notifications(r.Context(), tenantFromRequest(r), limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ListNotificationsResponse{
		Notifications: notifications,
		Pagination:    newPagination(page, limit, total),
	})
}

type MarkReadRequest struct {
	IDs []string `json:"ids"`
}

type MarkReadResponse struct {
	Updated []string `json:"updated"`
}

func (h *NotificationsHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	var req MarkReadRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	updated, err := h.reader.MarkRead(r.Context(), tenantFromRequest(r), req.IDs)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, MarkReadResponse{Updated: updated})
}
