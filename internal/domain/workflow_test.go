package domain_test

import (
	"testing"

	"github.com/docvaulthq/docvault/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextWorkflowStatus_AllowedPairs(t *testing.T) {
	t.Parallel()

	cases := []struct {
		from   domain.WorkflowStatus
		action domain.WorkflowAction
		want   domain.WorkflowStatus
	}{
		{domain.WorkflowRunning, domain.ActionPause, domain.WorkflowPaused},
		{domain.WorkflowPaused, domain.ActionResume, domain.WorkflowRunning},
		{domain.WorkflowRunning, domain.ActionCancel, domain.WorkflowCancelled},
		{domain.WorkflowPaused, domain.ActionCancel, domain.WorkflowCancelled},
		{domain.WorkflowRunning, domain.ActionReassign, domain.WorkflowRunning},
		{domain.WorkflowPaused, domain.ActionReassign, domain.WorkflowRunning},
	}

	for _, tc := range cases {
		got, err := domain.NextWorkflowStatus(tc.from, tc.action)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got)
	}
}

func TestNextWorkflowStatus_TerminalStatesRejectEverything(t *testing.T) {
	t.Parallel()

	actions := []domain.WorkflowAction{
		domain.ActionPause,
		domain.ActionResume,
		domain.ActionCancel,
		domain.ActionReassign,
	}

	for _, status := range []domain.WorkflowStatus{domain.WorkflowCancelled, domain.WorkflowCompleted} {
		for _, action := range actions {
			_, err := domain.NextWorkflowStatus(status, action)
			require.ErrorIs(t, err, domain.ErrInvalidTransition, "%s on %s", action, status)
		}
	}
}

func TestNextWorkflowStatus_InvalidPairs(t *testing.T) {
	t.Parallel()

	_, err := domain.NextWorkflowStatus(domain.WorkflowRunning, domain.ActionResume)
	require.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = domain.NextWorkflowStatus(domain.WorkflowPaused, domain.ActionPause)
	require.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestParseWorkflowAction(t *testing.T) {
	t.Parallel()

	action, err := domain.ParseWorkflowAction("cancel")
	require.NoError(t, err)
	assert.Equal(t, domain.ActionCancel, action)

	_, err = domain.ParseWorkflowAction("explode")
	require.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestBulkJobPercent(t *testing.T) {
	t.Parallel()

	job := &domain.BulkJob{Total: 0}
	assert.Equal(t, 100, job.Percent())

	job = &domain.BulkJob{Total: 3, Processed: 1}
	assert.Equal(t, 33, job.Percent())

	job.Processed = 2
	assert.Equal(t, 67, job.Percent())

	job.Processed = 3
	assert.Equal(t, 100, job.Percent())
}
