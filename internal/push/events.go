package push

import "time"

// Event names as they appear on the wire.
const (
	EventUploadProgress         = "uploadProgress"
	EventUploadCompleted        = "uploadCompleted"
	EventExtractionUpdated      = "extractionUpdated"
	EventBulkJobProgress        = "bulkJobProgress"
	EventStatusChanged          = "statusChanged"
	EventSyncProgress           = "syncProgress"
	EventNotificationNew        = "notificationNew"
	EventNotificationBulkUpdate = "notificationBulkUpdate"
	EventExportReady            = "exportReady"
)

type UploadProgress struct {
	BatchID   string `json:"batchId"`
	Processed int    `json:"processed"`
	Total     int    `json:"total"`
}

type UploadCompleted struct {
	BatchID   string `json:"batchId"`
	Succeeded int    `json:"succeeded"`
	Failed    int    `json:"failed"`
}

type ExtractionUpdated struct {
	DocumentID string  `json:"documentId"`
	Status     string  `json:"status"`
	Confidence float64 `json:"confidence"`
}

type BulkJobProgress struct {
	JobID    string `json:"jobId"`
	Progress int    `json:"progress"`
	State    string `json:"state"`
}

type StatusChanged struct {
	InstanceID string    `json:"instanceId"`
	Status     string    `json:"status"`
	Step       string    `json:"step"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

type SyncProgress struct {
	ConnectorID string `json:"connectorId"`
	Percent     int    `json:"percent"`
	State       string `json:"state"`
	Message     string `json:"message"`
}

type NotificationNew struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
}

type NotificationBulkUpdate struct {
	IDs    []string `json:"ids"`
	IsRead bool     `json:"isRead"`
}

type ExportReady struct {
	JobID       string `json:"jobId"`
	DownloadURL string `json:"downloadUrl"`
}
