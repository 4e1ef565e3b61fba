package processing

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/docvaulthq/docvault/internal/domain"
	"github.com/docvaulthq/docvault/internal/push"
	"github.com/google/uuid"
)

// SyncWorker simulates a repository connector test/sync: the job row tracks
// durable state while staged percent progress goes out on the push channel.
type SyncWorker struct {
	log       *slog.Logger
	store     SyncJobStore
	queue     Enqueuer
	publisher Publisher
	stepDelay time.Duration
}

func NewSyncWorker(
	log *slog.Logger,
	store SyncJobStore,
	queue Enqueuer,
	publisher Publisher,
	stepDelay time.Duration,
) *SyncWorker {
	return &SyncWorker{
		log:       log,
		store:     store,
		queue:     queue,
		publisher: publisher,
		stepDelay: stepDelay,
	}
}

// StartSync records a pending sync job and enqueues its execution.
func (w *SyncWorker) StartSync(ctx context.Context, tenantID domain.TenantID, connectorID string) (*domain.RepositorySyncJob, error) {
	if tenantID.IsZero() {
		return nil, domain.ErrTenantNotResolved
	}
	if connectorID == "" {
		return nil, fmt.Errorf("%w: connectorId is required", domain.ErrInvalidArgument)
	}

	now := time.Now().UTC()
	job := &domain.RepositorySyncJob{
		ID:          uuid.NewString(),
		TenantID:    tenantID,
		ConnectorID: connectorID,
		State:       domain.SyncPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := w.store.CreateSyncJob(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to create sync job: %w", err)
	}

	err := w.queue.Enqueue(ctx, tenantID, JobKindRepositorySync, RepositorySyncArgs{
		JobID:       job.ID,
		ConnectorID: connectorID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to enqueue sync: %w", err)
	}

	return job, nil
}

var syncStages = []struct {
	percent int
	message string
}{
	{10, "connecting to repository"},
	{40, "listing remote entries"},
	{70, "fetching metadata"},
	{100, "sync finished"},
}

// Handle is the queue handler for JobKindRepositorySync.
func (w *SyncWorker) Handle(ctx context.Context, tenantID domain.TenantID, raw json.RawMessage) error {
	if tenantID.IsZero() {
		return domain.ErrTenantNotResolved
	}

	var args RepositorySyncArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return fmt.Errorf("failed to unmarshal sync args: %w", err)
	}

	log := w.log.With(
		slog.String("tenant_id", tenantID.String()),
		slog.String("sync_job_id", args.JobID),
		slog.String("connector_id", args.ConnectorID),
	)
	log.InfoContext(ctx, "repository sync started")

	lastPercent := 0
	for _, stage := range syncStages {
		select {
		case <-time.After(w.stepDelay):
		case <-ctx.Done():
			return ctx.Err()
		}

		state := domain.SyncRunning
		if stage.percent == 100 {
			state = domain.SyncCompleted
		}

		if err := w.store.UpdateSyncProgress(ctx, tenantID, args.JobID, state, stage.percent, stage.message); err != nil {
			w.markFailed(ctx, tenantID, args, lastPercent, err)
			return fmt.Errorf("failed to update sync progress: %w", err)
		}
		lastPercent = stage.percent

		w.publisher.Publish(ctx, tenantID, push.EventSyncProgress, push.SyncProgress{
			ConnectorID: args.ConnectorID,
			Percent:     stage.percent,
			State:       string(state),
			Message:     stage.message,
		})
	}

	log.InfoContext(ctx, "repository sync finished")

	return nil
}

// markFailed records the failure on the job row so it does not sit in
// running forever. Best effort: the queue still retries the unit and a
// retry restarts the stages from the beginning.
func (w *SyncWorker) markFailed(ctx context.Context, tenantID domain.TenantID, args RepositorySyncArgs, percent int, cause error) {
	err := w.store.UpdateSyncProgress(ctx, tenantID, args.JobID, domain.SyncFailed, percent, cause.Error())
	if err != nil {
		w.log.ErrorContext(ctx, "failed to mark sync job failed",
			slog.String("tenant_id", tenantID.String()),
			slog.String("sync_job_id", args.JobID),
			slog.String("err", err.Error()),
		)
		return
	}

	w.publisher.Publish(ctx, tenantID, push.EventSyncProgress, push.SyncProgress{
		ConnectorID: args.ConnectorID,
		Percent:     percent,
		State:       string(domain.SyncFailed),
		Message:     cause.Error(),
	})
}
