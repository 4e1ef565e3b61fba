package processing_test

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/docvaulthq/docvault/internal/domain"
	"github.com/docvaulthq/docvault/internal/push"
)

// recordingPublisher captures events in emission order.
type recordingPublisher struct {
	mu     sync.Mutex
	events []push.Event
}

func (p *recordingPublisher) Publish(ctx context.Context, tenantID domain.TenantID, name string, payload any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, push.Event{Name: name, Payload: payload})
}

func (p *recordingPublisher) Events() []push.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]push.Event(nil), p.events...)
}

func (p *recordingPublisher) Named(name string) []push.Event {
	var out []push.Event
	for _, event := range p.Events() {
		if event.Name == name {
			out = append(out, event)
		}
	}
	return out
}

// fakeBlobStore keeps blobs in memory; individual keys can be set to fail.
type fakeBlobStore struct {
	mu       sync.Mutex
	blobs    map[string][]byte
	failSave map[string]error
	deleted  []string
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{
		blobs:    make(map[string][]byte),
		failSave: make(map[string]error),
	}
}

func (s *fakeBlobStore) blobKey(tenantID domain.TenantID, key string) string {
	return tenantID.String() + "/" + key
}

func (s *fakeBlobStore) Save(ctx context.Context, tenantID domain.TenantID, key string, content io.Reader) error {
	data, err := io.ReadAll(content)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err, ok := s.failSave[string(data)]; ok {
		return err
	}
	s.blobs[s.blobKey(tenantID, key)] = data
	return nil
}

func (s *fakeBlobStore) Delete(ctx context.Context, tenantID domain.TenantID, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blobs, s.blobKey(tenantID, key))
	s.deleted = append(s.deleted, key)
	return nil
}

func (s *fakeBlobStore) get(tenantID domain.TenantID, key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.blobs[s.blobKey(tenantID, key)]
	return data, ok
}

// failOnContent makes Save fail for any file whose content equals data.
func (s *fakeBlobStore) failOnContent(data string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failSave[data] = err
}

// fakeDocumentStore is an in-memory tenant-scoped documents table.
type fakeDocumentStore struct {
	mu   sync.Mutex
	docs map[string]*domain.Document
}

func newFakeDocumentStore(docs ...*domain.Document) *fakeDocumentStore {
	s := &fakeDocumentStore{docs: make(map[string]*domain.Document)}
	for _, doc := range docs {
		copied := *doc
		s.docs[doc.ID] = &copied
	}
	return s
}

func (s *fakeDocumentStore) SaveDocuments(ctx context.Context, docs ...*domain.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, doc := range docs {
		copied := *doc
		s.docs[doc.ID] = &copied
	}
	return nil
}

func (s *fakeDocumentStore) DocumentByID(ctx context.Context, tenantID domain.TenantID, id string) (*domain.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[id]
	if !ok || doc.TenantID != tenantID {
		return nil, domain.ErrNotFound
	}
	copied := *doc
	return &copied, nil
}

func (s *fakeDocumentStore) DocumentsByIDs(ctx context.Context, tenantID domain.TenantID, ids []string) ([]*domain.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.Document
	for _, id := range ids {
		if doc, ok := s.docs[id]; ok && doc.TenantID == tenantID {
			copied := *doc
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (s *fakeDocumentStore) UpdateExtraction(ctx context.Context, tenantID domain.TenantID, id string, version int64, result *domain.ExtractionResult) error {
	status := domain.DocumentCompleted
	if len(result.Errors) > 0 {
		status = domain.DocumentFailed
	}

	return s.update(tenantID, id, version, func(doc *domain.Document) {
		doc.Status = status
		doc.Confidence = result.Confidence
		doc.Fields = result.Fields
		doc.ExtractionErrors = result.Errors
	})
}

func (s *fakeDocumentStore) UpdateStatus(ctx context.Context, tenantID domain.TenantID, id string, version int64, status domain.DocumentStatus) error {
	return s.update(tenantID, id, version, func(doc *domain.Document) {
		doc.Status = status
	})
}

func (s *fakeDocumentStore) update(tenantID domain.TenantID, id string, version int64, apply func(*domain.Document)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[id]
	if !ok || doc.TenantID != tenantID {
		return domain.ErrNotFound
	}
	if doc.Version != version {
		return domain.ErrConflict
	}
	apply(doc)
	doc.Version++
	doc.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *fakeDocumentStore) DeleteDocument(ctx context.Context, tenantID domain.TenantID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[id]
	if !ok || doc.TenantID != tenantID {
		return domain.ErrNotFound
	}
	delete(s.docs, id)
	return nil
}

func (s *fakeDocumentStore) get(id string) (*domain.Document, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[id]
	if !ok {
		return nil, false
	}
	copied := *doc
	return &copied, true
}

func (s *fakeDocumentStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.docs)
}

// fakeTransactor just runs the function; onCommit observes commit ordering.
type fakeTransactor struct {
	mu       sync.Mutex
	commits  int
	onCommit func()
}

func (t *fakeTransactor) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := fn(ctx); err != nil {
		return err
	}
	t.mu.Lock()
	t.commits++
	onCommit := t.onCommit
	t.mu.Unlock()
	if onCommit != nil {
		onCommit()
	}
	return nil
}

func (t *fakeTransactor) commitCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.commits
}

type enqueuedJob struct {
	tenantID domain.TenantID
	kind     string
	args     any
	delay    time.Duration
}

type fakeEnqueuer struct {
	mu   sync.Mutex
	jobs []enqueuedJob
	fail error
}

func (q *fakeEnqueuer) Enqueue(ctx context.Context, tenantID domain.TenantID, kind string, args any) error {
	return q.EnqueueIn(ctx, 0, tenantID, kind, args)
}

func (q *fakeEnqueuer) EnqueueIn(ctx context.Context, delay time.Duration, tenantID domain.TenantID, kind string, args any) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.fail != nil {
		return q.fail
	}
	q.jobs = append(q.jobs, enqueuedJob{tenantID: tenantID, kind: kind, args: args, delay: delay})
	return nil
}

func (q *fakeEnqueuer) enqueued() []enqueuedJob {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]enqueuedJob(nil), q.jobs...)
}

// fakeWorkflowStore is an in-memory workflow_instances table.
type fakeWorkflowStore struct {
	mu        sync.Mutex
	instances map[string]*domain.WorkflowInstance
}

func newFakeWorkflowStore() *fakeWorkflowStore {
	return &fakeWorkflowStore{instances: make(map[string]*domain.WorkflowInstance)}
}

func (s *fakeWorkflowStore) CreateInstance(ctx context.Context, instance *domain.WorkflowInstance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *instance
	s.instances[instance.ID] = &copied
	return nil
}

func (s *fakeWorkflowStore) InstanceByID(ctx context.Context, tenantID domain.TenantID, id string) (*domain.WorkflowInstance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	instance, ok := s.instances[id]
	if !ok || instance.TenantID != tenantID {
		return nil, domain.ErrNotFound
	}
	copied := *instance
	return &copied, nil
}

func (s *fakeWorkflowStore) UpdateStatus(ctx context.Context, tenantID domain.TenantID, id string, version int64, status domain.WorkflowStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	instance, ok := s.instances[id]
	if !ok || instance.TenantID != tenantID {
		return domain.ErrNotFound
	}
	if instance.Version != version {
		return domain.ErrConflict
	}
	instance.Status = status
	instance.Version++
	instance.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *fakeWorkflowStore) CompleteIfActive(ctx context.Context, tenantID domain.TenantID, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	instance, ok := s.instances[id]
	if !ok || instance.TenantID != tenantID {
		return false, nil
	}
	if instance.Status.Terminal() {
		return false, nil
	}
	instance.Status = domain.WorkflowCompleted
	instance.Version++
	instance.UpdatedAt = time.Now().UTC()
	return true, nil
}

func (s *fakeWorkflowStore) get(id string) (*domain.WorkflowInstance, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	instance, ok := s.instances[id]
	if !ok {
		return nil, false
	}
	copied := *instance
	return &copied, true
}

type fakeSyncJobStore struct {
	mu            sync.Mutex
	jobs          map[string]*domain.RepositorySyncJob
	failAtPercent int
	failErr       error
}

func newFakeSyncJobStore() *fakeSyncJobStore {
	return &fakeSyncJobStore{jobs: make(map[string]*domain.RepositorySyncJob)}
}

func (s *fakeSyncJobStore) CreateSyncJob(ctx context.Context, job *domain.RepositorySyncJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *job
	s.jobs[job.ID] = &copied
	return nil
}

func (s *fakeSyncJobStore) UpdateSyncProgress(ctx context.Context, tenantID domain.TenantID, id string, state domain.SyncState, percent int, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil && percent == s.failAtPercent && state != domain.SyncFailed {
		return s.failErr
	}
	job, ok := s.jobs[id]
	if !ok || job.TenantID != tenantID {
		return domain.ErrNotFound
	}
	job.State = state
	job.Percent = percent
	job.Message = message
	job.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *fakeSyncJobStore) get(id string) (*domain.RepositorySyncJob, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, false
	}
	copied := *job
	return &copied, true
}

type fakeNotificationStore struct {
	mu            sync.Mutex
	notifications map[string]*domain.Notification
	createErr     error
}

func newFakeNotificationStore() *fakeNotificationStore {
	return &fakeNotificationStore{notifications: make(map[string]*domain.Notification)}
}

func (s *fakeNotificationStore) CreateNotification(ctx context.Context, n *domain.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return s.createErr
	}
	copied := *n
	s.notifications[n.ID] = &copied
	return nil
}

func (s *fakeNotificationStore) MarkRead(ctx context.Context, tenantID domain.TenantID, ids []string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var updated []string
	for _, id := range ids {
		if n, ok := s.notifications[id]; ok && n.TenantID == tenantID {
			n.IsRead = true
			updated = append(updated, id)
		}
	}
	return updated, nil
}

type fakeReportGenerator struct{}

func (fakeReportGenerator) ExportSummary(jobID string, docs []*domain.Document) ([]byte, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "summary %s: %d docs", jobID, len(docs))
	return buf.Bytes(), nil
}
