package jobqueue

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const TableJobs = "jobs"

var jobColumns = []string{
	"id",
	"kind",
	"tenant_id",
	"args",
	"status",
	"attempts",
	"max_attempts",
	"run_at",
	"last_error",
	"created_at",
	"updated_at",
}

// Store persists queue state in Postgres.
type Store struct {
	pool *pgxpool.Pool
	qb   sq.StatementBuilderType
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{
		pool: pool,
		qb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (s *Store) InsertJob(ctx context.Context, job *Job) error {
	sql, args, err := s.qb.
		Insert(TableJobs).
		Columns(jobColumns...).
		Values(
			job.ID,
			job.Kind,
			job.TenantID,
			job.Args,
			job.Status,
			job.Attempts,
			job.MaxAttempts,
			job.RunAt,
			job.LastError,
			job.CreatedAt,
			job.UpdatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to create query: %w", err)
	}

	if _, err := s.pool.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("failed to insert job: %w", err)
	}

	return nil
}

// ClaimDue atomically flips up to limit due pending jobs to running and
// returns them. SKIP LOCKED keeps concurrent pollers from claiming the same
// rows.
func (s *Store) ClaimDue(ctx context.Context, limit int) ([]*Job, error) {
	now := time.Now().UTC()

	rows, err := s.pool.Query(ctx, `
		UPDATE jobs SET status = $1, updated_at = $2
		WHERE id IN (
			SELECT id FROM jobs
			WHERE status = $3 AND run_at <= $2
			ORDER BY run_at
			LIMIT $4
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id, kind, tenant_id, args, status, attempts, max_attempts, run_at, last_error, created_at, updated_at`,
		StatusRunning, now, StatusPending, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to claim jobs: %w", err)
	}

	jobs, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByNameLax[Job])
	if err != nil {
		return nil, fmt.Errorf("failed to collect jobs: %w", err)
	}

	return jobs, nil
}

func (s *Store) MarkCompleted(ctx context.Context, id string) error {
	sql, args, err := s.qb.
		Update(TableJobs).
		Set("status", StatusCompleted).
		Set("updated_at", time.Now().UTC()).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to create query: %w", err)
	}

	if _, err := s.pool.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("failed to mark job completed: %w", err)
	}

	return nil
}

// MarkFailed records a failed attempt. The job goes back to pending with a
// backoff delay until attempts are exhausted, then stays failed.
func (s *Store) MarkFailed(ctx context.Context, job *Job, jobErr error) error {
	attempts := job.Attempts + 1
	status := StatusPending
	runAt := time.Now().UTC().Add(retryDelay(attempts))

	if attempts >= job.MaxAttempts {
		status = StatusFailed
		runAt = time.Now().UTC()
	}

	sql, args, err := s.qb.
		Update(TableJobs).
		Set("status", status).
		Set("attempts", attempts).
		Set("run_at", runAt).
		Set("last_error", jobErr.Error()).
		Set("updated_at", time.Now().UTC()).
		Where(sq.Eq{"id": job.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to create query: %w", err)
	}

	if _, err := s.pool.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("failed to mark job failed: %w", err)
	}

	return nil
}

// ResetRunning returns jobs stranded in running back to pending. Called once
// on startup; running rows can only be left over from a previous process.
func (s *Store) ResetRunning(ctx context.Context) (int64, error) {
	sql, args, err := s.qb.
		Update(TableJobs).
		Set("status", StatusPending).
		Set("updated_at", time.Now().UTC()).
		Where(sq.Eq{"status": StatusRunning}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to create query: %w", err)
	}

	tag, err := s.pool.Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to reset running jobs: %w", err)
	}

	return tag.RowsAffected(), nil
}
