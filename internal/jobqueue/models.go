// Package jobqueue is a durable, at-least-once execution queue backed by
// the jobs table. Units of work are enqueued fire-and-forget with their
// arguments captured as JSON, including the tenant id, since handlers run
// on worker goroutines with no request context to inherit from.
package jobqueue

import (
	"encoding/json"
	"time"

	"github.com/docvaulthq/docvault/internal/domain"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

const DefaultMaxAttempts = 5

type Job struct {
	ID          string          `db:"id"`
	Kind        string          `db:"kind"`
	TenantID    domain.TenantID `db:"tenant_id"`
	Args        json.RawMessage `db:"args"`
	Status      Status          `db:"status"`
	Attempts    int             `db:"attempts"`
	MaxAttempts int             `db:"max_attempts"`
	RunAt       time.Time       `db:"run_at"`
	LastError   string          `db:"last_error"`
	CreatedAt   time.Time       `db:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at"`
}

const (
	retryBaseDelay = 10 * time.Second
	retryMaxDelay  = 10 * time.Minute
)

// retryDelay grows exponentially with the attempt count, capped.
func retryDelay(attempts int) time.Duration {
	delay := retryBaseDelay
	for i := 1; i < attempts; i++ {
		delay *= 2
		if delay >= retryMaxDelay {
			return retryMaxDelay
		}
	}
	return delay
}
