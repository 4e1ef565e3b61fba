package jobqueue

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/docvaulthq/docvault/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	mu        sync.Mutex
	inserted  []*Job
	claimable []*Job
	completed []string
	failed    []string
	failErrs  []error
}

func (s *fakeStore) InsertJob(ctx context.Context, job *Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inserted = append(s.inserted, job)
	return nil
}

func (s *fakeStore) ClaimDue(ctx context.Context, limit int) ([]*Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	jobs := s.claimable
	s.claimable = nil
	return jobs, nil
}

func (s *fakeStore) MarkCompleted(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.completed = append(s.completed, id)
	return nil
}

func (s *fakeStore) MarkFailed(ctx context.Context, job *Job, jobErr error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failed = append(s.failed, job.ID)
	s.failErrs = append(s.failErrs, jobErr)
	return nil
}

func (s *fakeStore) ResetRunning(ctx context.Context) (int64, error) { return 0, nil }

func TestQueue_EnqueueCapturesTenantAndArgs(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	queue := New(slog.New(slog.DiscardHandler), store, time.Millisecond, 2)
	queue.Register("document.extract", func(ctx context.Context, tenantID domain.TenantID, args json.RawMessage) error {
		return nil
	})

	err := queue.Enqueue(context.Background(), "tenant-a", "document.extract", map[string]string{"document_id": "d1"})
	require.NoError(t, err)

	require.Len(t, store.inserted, 1)
	job := store.inserted[0]
	assert.Equal(t, domain.TenantID("tenant-a"), job.TenantID)
	assert.Equal(t, StatusPending, job.Status)
	assert.JSONEq(t, `{"document_id":"d1"}`, string(job.Args))
}

func TestQueue_EnqueueRejectsUnresolvedTenant(t *testing.T) {
	t.Parallel()

	queue := New(slog.New(slog.DiscardHandler), &fakeStore{}, time.Millisecond, 2)

	err := queue.Enqueue(context.Background(), "", "document.extract", nil)
	require.ErrorIs(t, err, domain.ErrTenantNotResolved)
}

func TestQueue_EnqueueRejectsUnknownKind(t *testing.T) {
	t.Parallel()

	queue := New(slog.New(slog.DiscardHandler), &fakeStore{}, time.Millisecond, 2)

	err := queue.Enqueue(context.Background(), "tenant-a", "no.such.kind", nil)
	require.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestQueue_RunExecutesAndCompletes(t *testing.T) {
	t.Parallel()

	job := &Job{ID: "j1", Kind: "ok", TenantID: "tenant-a", Args: json.RawMessage(`{}`), MaxAttempts: 3}
	store := &fakeStore{claimable: []*Job{job}}

	queue := New(slog.New(slog.DiscardHandler), store, time.Millisecond, 2)

	handled := make(chan domain.TenantID, 1)
	queue.Register("ok", func(ctx context.Context, tenantID domain.TenantID, args json.RawMessage) error {
		handled <- tenantID
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errChan := make(chan error, 1)
	go func() {
		errChan <- queue.Run(ctx)
	}()

	select {
	case tenantID := <-handled:
		assert.Equal(t, domain.TenantID("tenant-a"), tenantID)
	case <-time.After(time.Second):
		t.Fatal("timeout: job was not executed")
	}

	require.Eventually(t, func() bool {
		store.mu.Lock()
		defer store.mu.Unlock()
		return len(store.completed) == 1 && store.completed[0] == "j1"
	}, time.Second, time.Millisecond)

	cancel()

	select {
	case err := <-errChan:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("timeout: queue did not stop")
	}
}

func TestQueue_RunMarksFailuresAndRecoversPanics(t *testing.T) {
	t.Parallel()

	store := &fakeStore{claimable: []*Job{
		{ID: "j-err", Kind: "boom", TenantID: "tenant-a", MaxAttempts: 3},
		{ID: "j-panic", Kind: "panic", TenantID: "tenant-a", MaxAttempts: 3},
	}}

	queue := New(slog.New(slog.DiscardHandler), store, time.Millisecond, 2)
	queue.Register("boom", func(ctx context.Context, tenantID domain.TenantID, args json.RawMessage) error {
		return errors.New("boom")
	})
	queue.Register("panic", func(ctx context.Context, tenantID domain.TenantID, args json.RawMessage) error {
		panic("unexpected")
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() { _ = queue.Run(ctx) }()

	require.Eventually(t, func() bool {
		store.mu.Lock()
		defer store.mu.Unlock()
		return len(store.failed) == 2
	}, time.Second, time.Millisecond)

	store.mu.Lock()
	defer store.mu.Unlock()
	assert.ElementsMatch(t, []string{"j-err", "j-panic"}, store.failed)
}

func TestRetryDelay_GrowsAndCaps(t *testing.T) {
	t.Parallel()

	assert.Equal(t, retryBaseDelay, retryDelay(1))
	assert.Equal(t, 2*retryBaseDelay, retryDelay(2))
	assert.Equal(t, 4*retryBaseDelay, retryDelay(3))
	assert.Equal(t, retryMaxDelay, retryDelay(20))
}
