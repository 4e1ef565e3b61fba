package domain

import "time"

type SyncState string

const (
	SyncPending   SyncState = "pending"
	SyncRunning   SyncState = "running"
	SyncCompleted SyncState = "completed"
	SyncFailed    SyncState = "failed"
)

// RepositorySyncJob tracks one connector test/sync run.
type RepositorySyncJob struct {
	ID          string    `db:"id"           json:"id"`
	TenantID    TenantID  `db:"tenant_id"    json:"tenantId"`
	ConnectorID string    `db:"connector_id" json:"connectorId"`
	State       SyncState `db:"state"        json:"state"`
	Percent     int       `db:"percent"      json:"percent"`
	Message     string    `db:"message"      json:"message"`
	CreatedAt   time.Time `db:"created_at"   json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at"   json:"updatedAt"`
}
