package processing

import (
	"context"
	"log/slog"
	"time"

	"github.com/docvaulthq/docvault/internal/domain"
	"github.com/docvaulthq/docvault/internal/push"
	"github.com/google/uuid"
)

// Notifier persists notifications and mirrors them on the push channel.
// Creation failures are logged, never propagated: a missing notification
// must not fail the operation that produced it.
type Notifier struct {
	log       *slog.Logger
	store     NotificationStore
	publisher Publisher
}

func NewNotifier(log *slog.Logger, store NotificationStore, publisher Publisher) *Notifier {
	return &Notifier{
		log:       log,
		store:     store,
		publisher: publisher,
	}
}

func (n *Notifier) Notify(ctx context.Context, tenantID domain.TenantID, notificationType, title, body string) {
	notification := &domain.Notification{
		ID:        uuid.NewString(),
		TenantID:  tenantID,
		Type:      notificationType,
		Title:     title,
		Body:      body,
		CreatedAt: time.Now().UTC(),
	}

	if err := n.store.CreateNotification(ctx, notification); err != nil {
		n.log.ErrorContext(ctx, "failed to create notification",
			slog.String("tenant_id", tenantID.String()),
			slog.String("type", notificationType),
			slog.String("err", err.Error()),
		)
		return
	}

	n.publisher.Publish(ctx, tenantID, push.EventNotificationNew, push.NotificationNew{
		ID:        notification.ID,
		Type:      notification.Type,
		Title:     notification.Title,
		Body:      notification.Body,
		CreatedAt: notification.CreatedAt,
	})
}

// MarkRead flips is_read for the tenant's notifications; ids outside the
// tenant are ignored. Returns the ids actually updated.
func (n *Notifier) MarkRead(ctx context.Context, tenantID domain.TenantID, ids []string) ([]string, error) {
	if tenantID.IsZero() {
		return nil, domain.ErrTenantNotResolved
	}

	updated, err := n.store.MarkRead(ctx, tenantID, ids)
	if err != nil {
		return nil, err
	}

	if len(updated) > 0 {
		n.publisher.Publish(ctx, tenantID, push.EventNotificationBulkUpdate, push.NotificationBulkUpdate{
			IDs:    updated,
			IsRead: true,
		})
	}

	return updated, nil
}
