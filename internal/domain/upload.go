package domain

import "io"

// UploadFile is one file of an upload batch, streamed from the request.
type UploadFile struct {
	Name        string
	ContentType string
	Size        int64
	Content     io.Reader
}

// UploadResult is returned to the caller as soon as all files have been
// accepted or rejected. Extraction has not necessarily started yet.
type UploadResult struct {
	BatchID  string   `json:"batchId"`
	Accepted int      `json:"accepted"`
	Rejected []string `json:"rejected"`
}

// BulkJob tracks one bulk operation in flight. It is never persisted; its
// identity lives only in the job arguments and the progress events.
type BulkJob struct {
	ID        string
	TenantID  TenantID
	Action    BulkAction
	Total     int
	Processed int
}

// Percent derives the progress percentage. An empty job is 100% done.
func (j *BulkJob) Percent() int {
	if j.Total == 0 {
		return 100
	}
	return int(float64(j.Processed)/float64(j.Total)*100 + 0.5)
}
