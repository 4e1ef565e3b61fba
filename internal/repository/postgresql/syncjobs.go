package postgresql

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/docvaulthq/docvault/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const TableRepositorySyncJobs = "repository_sync_jobs"

type SyncJobsRepository struct {
	pool *pgxpool.Pool
	qb   sq.StatementBuilderType
}

func NewSyncJobsRepository(pool *pgxpool.Pool) *SyncJobsRepository {
	return &SyncJobsRepository{
		pool: pool,
		qb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *SyncJobsRepository) CreateSyncJob(ctx context.Context, job *domain.RepositorySyncJob) error {
	db := extractDB(ctx, r.pool)

	sql, args, err := r.qb.
		Insert(TableRepositorySyncJobs).
		Columns("id", "tenant_id", "connector_id", "state", "percent", "message", "created_at", "updated_at").
		Values(job.ID, job.TenantID, job.ConnectorID, job.State, job.Percent, job.Message, job.CreatedAt, job.UpdatedAt).
		ToSql()
	if err != nil {
		return createQueryError(err)
	}

	if _, err := db.Exec(ctx, sql, args...); err != nil {
		return executeQueryError(err)
	}

	return nil
}

func (r *SyncJobsRepository) SyncJobByID(ctx context.Context, tenantID domain.TenantID, id string) (*domain.RepositorySyncJob, error) {
	db := extractDB(ctx, r.pool)

	sql, args, err := r.qb.
		Select("id", "tenant_id", "connector_id", "state", "percent", "message", "created_at", "updated_at").
		From(TableRepositorySyncJobs).
		Where(sq.Eq{"tenant_id": tenantID, "id": id}).
		ToSql()
	if err != nil {
		return nil, createQueryError(err)
	}

	rows, err := db.Query(ctx, sql, args...)
	if err != nil {
		return nil, executeQueryError(err)
	}

	job, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByNameLax[domain.RepositorySyncJob])
	if err != nil {
		return nil, scanRowError(err)
	}

	return job, nil
}

func (r *SyncJobsRepository) UpdateSyncProgress(
	ctx context.Context,
	tenantID domain.TenantID,
	id string,
	state domain.SyncState,
	percent int,
	message string,
) error {
	db := extractDB(ctx, r.pool)

	sql, args, err := r.qb.
		Update(TableRepositorySyncJobs).
		Set("state", state).
		Set("percent", percent).
		Set("message", message).
		Set("updated_at", time.Now().UTC()).
		Where(sq.Eq{"tenant_id": tenantID, "id": id}).
		ToSql()
	if err != nil {
		return createQueryError(err)
	}

	tag, err := db.Exec(ctx, sql, args...)
	if err != nil {
		return executeQueryError(err)
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}

	return nil
}
