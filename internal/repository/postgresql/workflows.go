package postgresql

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/docvaulthq/docvault/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const TableWorkflowInstances = "workflow_instances"

var workflowColumns = []string{
	"id",
	"tenant_id",
	"definition_id",
	"status",
	"variables",
	"version",
	"started_at",
	"updated_at",
}

type WorkflowsRepository struct {
	pool *pgxpool.Pool
	qb   sq.StatementBuilderType
}

func NewWorkflowsRepository(pool *pgxpool.Pool) *WorkflowsRepository {
	return &WorkflowsRepository{
		pool: pool,
		qb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *WorkflowsRepository) CreateInstance(ctx context.Context, instance *domain.WorkflowInstance) error {
	db := extractDB(ctx, r.pool)

	sql, args, err := r.qb.
		Insert(TableWorkflowInstances).
		Columns(workflowColumns...).
		Values(
			instance.ID,
			instance.TenantID,
			instance.DefinitionID,
			instance.Status,
			instance.Variables,
			instance.Version,
			instance.StartedAt,
			instance.UpdatedAt,
		).
		ToSql()
	if err != nil {
		return createQueryError(err)
	}

	if _, err := db.Exec(ctx, sql, args...); err != nil {
		return executeQueryError(err)
	}

	return nil
}

func (r *WorkflowsRepository) InstanceByID(ctx context.Context, tenantID domain.TenantID, id string) (*domain.WorkflowInstance, error) {
	db := extractDB(ctx, r.pool)

	sql, args, err := r.qb.
		Select(workflowColumns...).
		From(TableWorkflowInstances).
		Where(sq.Eq{"tenant_id": tenantID, "id": id}).
		ToSql()
	if err != nil {
		return nil, createQueryError(err)
	}

	rows, err := db.Query(ctx, sql, args...)
	if err != nil {
		return nil, executeQueryError(err)
	}

	instance, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByNameLax[domain.WorkflowInstance])
	if err != nil {
		return nil, scanRowError(err)
	}

	return instance, nil
}

// UpdateStatus applies a transition, version-checked. ErrConflict means a
// concurrent writer moved the instance first.
func (r *WorkflowsRepository) UpdateStatus(
	ctx context.Context,
	tenantID domain.TenantID,
	id string,
	version int64,
	status domain.WorkflowStatus,
) error {
	db := extractDB(ctx, r.pool)

	sql, args, err := r.qb.
		Update(TableWorkflowInstances).
		Set("status", status).
		Set("version", version+1).
		Set("updated_at", time.Now().UTC()).
		Where(sq.Eq{"tenant_id": tenantID, "id": id, "version": version}).
		ToSql()
	if err != nil {
		return createQueryError(err)
	}

	tag, err := db.Exec(ctx, sql, args...)
	if err != nil {
		return executeQueryError(err)
	}

	if tag.RowsAffected() == 0 {
		if _, err := r.InstanceByID(ctx, tenantID, id); err != nil {
			return err
		}
		return domain.ErrConflict
	}

	return nil
}

// CompleteIfActive moves the instance to completed only while it is still
// non-terminal. It reports whether the transition happened, so the scheduled
// auto-completion can skip cancelled or already-completed instances instead
// of overwriting them.
func (r *WorkflowsRepository) CompleteIfActive(ctx context.Context, tenantID domain.TenantID, id string) (bool, error) {
	db := extractDB(ctx, r.pool)

	sql, args, err := r.qb.
		Update(TableWorkflowInstances).
		Set("status", domain.WorkflowCompleted).
		Set("version", sq.Expr("version + 1")).
		Set("updated_at", time.Now().UTC()).
		Where(sq.Eq{"tenant_id": tenantID, "id": id}).
		Where(sq.NotEq{"status": []domain.WorkflowStatus{domain.WorkflowCancelled, domain.WorkflowCompleted}}).
		ToSql()
	if err != nil {
		return false, createQueryError(err)
	}

	tag, err := db.Exec(ctx, sql, args...)
	if err != nil {
		return false, executeQueryError(err)
	}

	return tag.RowsAffected() > 0, nil
}
