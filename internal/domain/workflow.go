package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

type WorkflowStatus string

const (
	WorkflowPending   WorkflowStatus = "pending"
	WorkflowRunning   WorkflowStatus = "running"
	WorkflowPaused    WorkflowStatus = "paused"
	WorkflowCancelled WorkflowStatus = "cancelled"
	WorkflowCompleted WorkflowStatus = "completed"
)

func (s WorkflowStatus) Terminal() bool {
	return s == WorkflowCancelled || s == WorkflowCompleted
}

type WorkflowAction string

const (
	ActionPause    WorkflowAction = "pause"
	ActionResume   WorkflowAction = "resume"
	ActionCancel   WorkflowAction = "cancel"
	ActionReassign WorkflowAction = "reassign"
)

func ParseWorkflowAction(s string) (WorkflowAction, error) {
	switch WorkflowAction(s) {
	case ActionPause, ActionResume, ActionCancel, ActionReassign:
		return WorkflowAction(s), nil
	}
	return "", fmt.Errorf("%w: unknown action %q", ErrInvalidArgument, s)
}

type workflowTransition struct {
	from   WorkflowStatus
	action WorkflowAction
}

// The strict transition table. Terminal states accept no actions; reassign
// is metadata-only and keeps the instance running.
var workflowTransitions = map[workflowTransition]WorkflowStatus{
	{WorkflowRunning, ActionPause}:    WorkflowPaused,
	{WorkflowPaused, ActionResume}:    WorkflowRunning,
	{WorkflowRunning, ActionCancel}:   WorkflowCancelled,
	{WorkflowPaused, ActionCancel}:    WorkflowCancelled,
	{WorkflowRunning, ActionReassign}: WorkflowRunning,
	{WorkflowPaused, ActionReassign}:  WorkflowRunning,
}

// NextWorkflowStatus applies the transition table. Pairs outside the table,
// including any action on a cancelled or completed instance, are rejected.
func NextWorkflowStatus(current WorkflowStatus, action WorkflowAction) (WorkflowStatus, error) {
	next, ok := workflowTransitions[workflowTransition{current, action}]
	if !ok {
		return "", fmt.Errorf("%w: %s is not allowed in state %s", ErrInvalidTransition, action, current)
	}
	return next, nil
}

type WorkflowInstance struct {
	ID           string          `db:"id"            json:"id"`
	TenantID     TenantID        `db:"tenant_id"     json:"tenantId"`
	DefinitionID string          `db:"definition_id" json:"definitionId"`
	Status       WorkflowStatus  `db:"status"        json:"status"`
	Variables    json.RawMessage `db:"variables"     json:"variables"`
	Version      int64           `db:"version"       json:"version"`
	StartedAt    time.Time       `db:"started_at"    json:"startedAt"`
	UpdatedAt    time.Time       `db:"updated_at"    json:"updatedAt"`
}
