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

// WorkflowManager owns workflow-instance lifecycle: creation, action-driven
// transitions over a strict state machine, and the scheduled auto-completion
// unit.
type WorkflowManager struct {
	log       *slog.Logger
	store     WorkflowStore
	queue     Enqueuer
	publisher Publisher
	autoDelay time.Duration
}

func NewWorkflowManager(
	log *slog.Logger,
	store WorkflowStore,
	queue Enqueuer,
	publisher Publisher,
	autoDelay time.Duration,
) *WorkflowManager {
	return &WorkflowManager{
		log:       log,
		store:     store,
		queue:     queue,
		publisher: publisher,
		autoDelay: autoDelay,
	}
}

// Start creates an instance already running and schedules its simulated
// auto-completion on the durable queue.
func (m *WorkflowManager) Start(
	ctx context.Context,
	tenantID domain.TenantID,
	definitionID string,
	input json.RawMessage,
) (*domain.WorkflowInstance, error) {
	if tenantID.IsZero() {
		return nil, domain.ErrTenantNotResolved
	}
	if definitionID == "" {
		return nil, fmt.Errorf("%w: definitionId is required", domain.ErrInvalidArgument)
	}

	if len(input) == 0 {
		input = json.RawMessage(`{}`)
	}

	now := time.Now().UTC()
	instance := &domain.WorkflowInstance{
		ID:           uuid.NewString(),
		TenantID:     tenantID,
		DefinitionID: definitionID,
		Status:       domain.WorkflowRunning,
		Variables:    input,
		Version:      1,
		StartedAt:    now,
		UpdatedAt:    now,
	}

	if err := m.store.CreateInstance(ctx, instance); err != nil {
		return nil, fmt.Errorf("failed to create workflow instance: %w", err)
	}

	m.publisher.Publish(ctx, tenantID, push.EventStatusChanged, push.StatusChanged{
		InstanceID: instance.ID,
		Status:     string(domain.WorkflowRunning),
		Step:       "Start",
		UpdatedAt:  now,
	})

	err := m.queue.EnqueueIn(ctx, m.autoDelay, tenantID, JobKindWorkflowComplete, WorkflowCompleteArgs{
		InstanceID: instance.ID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to schedule auto-completion: %w", err)
	}

	m.log.InfoContext(ctx, "workflow instance started",
		slog.String("tenant_id", tenantID.String()),
		slog.String("instance_id", instance.ID),
		slog.String("definition_id", definitionID),
	)

	return instance, nil
}

// HandleAction applies one action against the transition table. Pairs the
// table rejects, anything on a terminal instance included, return
// ErrInvalidTransition instead of being applied.
func (m *WorkflowManager) HandleAction(
	ctx context.Context,
	tenantID domain.TenantID,
	instanceID string,
	action domain.WorkflowAction,
) error {
	if tenantID.IsZero() {
		return domain.ErrTenantNotResolved
	}

	instance, err := m.store.InstanceByID(ctx, tenantID, instanceID)
	if err != nil {
		return err
	}

	next, err := domain.NextWorkflowStatus(instance.Status, action)
	if err != nil {
		return err
	}

	if err := m.store.UpdateStatus(ctx, tenantID, instanceID, instance.Version, next); err != nil {
		return err
	}

	m.publisher.Publish(ctx, tenantID, push.EventStatusChanged, push.StatusChanged{
		InstanceID: instanceID,
		Status:     string(next),
		Step:       string(action),
		UpdatedAt:  time.Now().UTC(),
	})

	m.log.InfoContext(ctx, "workflow action applied",
		slog.String("tenant_id", tenantID.String()),
		slog.String("instance_id", instanceID),
		slog.String("action", string(action)),
		slog.String("status", string(next)),
	)

	return nil
}

// HandleAutoComplete is the queue handler for JobKindWorkflowComplete. It
// completes the instance only while it is still non-terminal: an instance
// cancelled during the delay window stays cancelled and no event fires.
func (m *WorkflowManager) HandleAutoComplete(ctx context.Context, tenantID domain.TenantID, raw json.RawMessage) error {
	if tenantID.IsZero() {
		return domain.ErrTenantNotResolved
	}

	var args WorkflowCompleteArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return fmt.Errorf("failed to unmarshal auto-complete args: %w", err)
	}

	completed, err := m.store.CompleteIfActive(ctx, tenantID, args.InstanceID)
	if err != nil {
		return fmt.Errorf("failed to auto-complete instance: %w", err)
	}

	if !completed {
		m.log.DebugContext(ctx, "auto-completion skipped, instance no longer active",
			slog.String("tenant_id", tenantID.String()),
			slog.String("instance_id", args.InstanceID),
		)
		return nil
	}

	m.publisher.Publish(ctx, tenantID, push.EventStatusChanged, push.StatusChanged{
		InstanceID: args.InstanceID,
		Status:     string(domain.WorkflowCompleted),
		Step:       "AutoComplete",
		UpdatedAt:  time.Now().UTC(),
	})

	return nil
}
