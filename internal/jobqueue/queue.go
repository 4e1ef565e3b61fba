package jobqueue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/docvaulthq/docvault/internal/domain"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// HandlerFunc executes one unit of work. The tenant id comes from the job
// row, captured at enqueue time; re-establishing it is the handler's first
// concern, never inherited state.
type HandlerFunc func(ctx context.Context, tenantID domain.TenantID, args json.RawMessage) error

type jobStore interface {
	InsertJob(ctx context.Context, job *Job) error
	ClaimDue(ctx context.Context, limit int) ([]*Job, error)
	MarkCompleted(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, job *Job, jobErr error) error
	ResetRunning(ctx context.Context) (int64, error)
}

type Queue struct {
	log          *slog.Logger
	store        jobStore
	handlers     map[string]HandlerFunc
	pollInterval time.Duration
	workers      int
}

func New(log *slog.Logger, store jobStore, pollInterval time.Duration, workers int) *Queue {
	return &Queue{
		log:          log,
		store:        store,
		handlers:     make(map[string]HandlerFunc),
		pollInterval: pollInterval,
		workers:      workers,
	}
}

// Register binds a job kind to its handler. Must happen before Run.
func (q *Queue) Register(kind string, handler HandlerFunc) {
	q.handlers[kind] = handler
}

// Enqueue schedules a unit of work for immediate execution.
func (q *Queue) Enqueue(ctx context.Context, tenantID domain.TenantID, kind string, args any) error {
	return q.EnqueueIn(ctx, 0, tenantID, kind, args)
}

// EnqueueIn schedules a unit of work to run no earlier than delay from now.
func (q *Queue) EnqueueIn(ctx context.Context, delay time.Duration, tenantID domain.TenantID, kind string, args any) error {
	if tenantID.IsZero() {
		return domain.ErrTenantNotResolved
	}

	if _, ok := q.handlers[kind]; !ok {
		return fmt.Errorf("%w: no handler registered for job kind %q", domain.ErrInvalidArgument, kind)
	}

	payload, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("failed to marshal job args: %w", err)
	}

	now := time.Now().UTC()
	job := &Job{
		ID:          uuid.NewString(),
		Kind:        kind,
		TenantID:    tenantID,
		Args:        payload,
		Status:      StatusPending,
		MaxAttempts: DefaultMaxAttempts,
		RunAt:       now.Add(delay),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := q.store.InsertJob(ctx, job); err != nil {
		return err
	}

	q.log.DebugContext(ctx, "job enqueued",
		slog.String("job_id", job.ID),
		slog.String("kind", kind),
		slog.String("tenant_id", tenantID.String()),
	)

	return nil
}

// Recover resets jobs stranded in running by a previous process.
func (q *Queue) Recover(ctx context.Context) error {
	reset, err := q.store.ResetRunning(ctx)
	if err != nil {
		return err
	}

	if reset > 0 {
		q.log.InfoContext(ctx, "reset orphaned running jobs", slog.Int64("count", reset))
	}

	return nil
}

// Run polls for due jobs and dispatches them over a bounded worker group
// until the context is cancelled. Job lifetimes are fully decoupled from
// request lifetimes; a request's 202 implies nothing about execution here.
func (q *Queue) Run(ctx context.Context) error {
	ticker := time.NewTicker(q.pollInterval)
	defer ticker.Stop()

	erg, ctx := errgroup.WithContext(ctx)
	erg.SetLimit(q.workers)

	for {
		select {
		case <-ticker.C:
			if err := q.dispatchDue(ctx, erg); err != nil {
				q.log.ErrorContext(ctx, "failed to dispatch jobs", slog.String("err", err.Error()))
			}

		case <-ctx.Done():
			if err := erg.Wait(); err != nil {
				return err
			}
			return ctx.Err()
		}
	}
}

func (q *Queue) dispatchDue(ctx context.Context, erg *errgroup.Group) error {
	jobs, err := q.store.ClaimDue(ctx, q.workers)
	if err != nil {
		return err
	}

	for _, job := range jobs {
		erg.Go(func() error {
			q.execute(ctx, job)
			return nil
		})
	}

	return nil
}

func (q *Queue) execute(ctx context.Context, job *Job) {
	log := q.log.With(
		slog.String("job_id", job.ID),
		slog.String("kind", job.Kind),
		slog.String("tenant_id", job.TenantID.String()),
		slog.Int("attempt", job.Attempts+1),
	)

	handler, ok := q.handlers[job.Kind]
	if !ok {
		log.ErrorContext(ctx, "no handler for claimed job")
		if err := q.store.MarkFailed(ctx, job, fmt.Errorf("no handler for kind %q", job.Kind)); err != nil {
			log.ErrorContext(ctx, "failed to record job failure", slog.String("err", err.Error()))
		}
		return
	}

	log.DebugContext(ctx, "executing job")

	if err := q.runHandler(ctx, handler, job); err != nil {
		log.ErrorContext(ctx, "job failed", slog.String("err", err.Error()))
		if err := q.store.MarkFailed(ctx, job, err); err != nil {
			log.ErrorContext(ctx, "failed to record job failure", slog.String("err", err.Error()))
		}
		return
	}

	if err := q.store.MarkCompleted(ctx, job.ID); err != nil {
		log.ErrorContext(ctx, "failed to record job completion", slog.String("err", err.Error()))
		return
	}

	log.DebugContext(ctx, "job completed")
}

func (q *Queue) runHandler(ctx context.Context, handler HandlerFunc, job *Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()

	return handler(ctx, job.TenantID, job.Args)
}
