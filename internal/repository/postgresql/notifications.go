package postgresql

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/docvaulthq/docvault/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const TableNotifications = "notifications"

type NotificationsRepository struct {
	pool *pgxpool.Pool
	qb   sq.StatementBuilderType
}

func NewNotificationsRepository(pool *pgxpool.Pool) *NotificationsRepository {
	return &NotificationsRepository{
		pool: pool,
		qb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *NotificationsRepository) CreateNotification(ctx context.Context, n *domain.Notification) error {
	db := extractDB(ctx, r.pool)

	sql, args, err := r.qb.
		Insert(TableNotifications).
		Columns("id", "tenant_id", "type", "title", "body", "is_read", "created_at").
		Values(n.ID, n.TenantID, n.Type, n.Title, n.Body, n.IsRead, n.CreatedAt).
		ToSql()
	if err != nil {
		return createQueryError(err)
	}

	if _, err := db.Exec(ctx, sql, args...); err != nil {
		return executeQueryError(err)
	}

	return nil
}

func (r *NotificationsRepository) Notifications(ctx context.Context, tenantID domain.TenantID, limit, offset uint64) ([]*domain.Notification, int, error) {
	db := extractDB(ctx, r.pool)

	sql, args, err := r.qb.
		Select("COUNT(*)").
		From(TableNotifications).
		Where(sq.Eq{"tenant_id": tenantID}).
		ToSql()
	if err != nil {
		return nil, -1, createQueryError(err)
	}

	var total int
	if err := db.QueryRow(ctx, sql, args...).Scan(&total); err != nil {
		return nil, -1, scanRowError(err)
	}

	sql, args, err = r.qb.
		Select("id", "tenant_id", "type", "title", "body", "is_read", "created_at").
		From(TableNotifications).
		Where(sq.Eq{"tenant_id": tenantID}).
		OrderBy("created_at DESC").
		Limit(limit).
		Offset(offset).
		ToSql()
	if err != nil {
		return nil, -1, createQueryError(err)
	}

	rows, err := db.Query(ctx, sql, args...)
	if err != nil {
		return nil, -1, executeQueryError(err)
	}

	notifications, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByNameLax[domain.Notification])
	if err != nil {
		return nil, -1, collectRowsError(err)
	}

	return notifications, total, nil
}

// MarkRead flips is_read for the tenant's notifications and returns the ids
// actually updated. Foreign or unknown ids are ignored.
func (r *NotificationsRepository) MarkRead(ctx context.Context, tenantID domain.TenantID, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	db := extractDB(ctx, r.pool)

	sql, args, err := r.qb.
		Update(TableNotifications).
		Set("is_read", true).
		Where(sq.Eq{"tenant_id": tenantID, "id": ids}).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return nil, createQueryError(err)
	}

	rows, err := db.Query(ctx, sql, args...)
	if err != nil {
		return nil, executeQueryError(err)
	}

	updated, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, collectRowsError(err)
	}

	return updated, nil
}
