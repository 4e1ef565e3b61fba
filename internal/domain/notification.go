package domain

import "time"

type Notification struct {
	ID        string    `db:"id"         json:"id"`
	TenantID  TenantID  `db:"tenant_id"  json:"tenantId"`
	Type      string    `db:"type"       json:"type"`
	Title     string    `db:"title"      json:"title"`
	Body      string    `db:"body"       json:"body"`
	IsRead    bool      `db:"is_read"    json:"isRead"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}
