package domain

import (
	"time"
)

type DocumentStatus string

const (
	DocumentPending    DocumentStatus = "pending"
	DocumentProcessing DocumentStatus = "processing"
	DocumentCompleted  DocumentStatus = "completed"
	DocumentFailed     DocumentStatus = "failed"
	DocumentExporting  DocumentStatus = "exporting"
)

// Terminal reports whether a document may no longer return to
// pending/processing. Completed and failed documents keep their outcome;
// exporting marks that an export has been taken and is never cleared.
func (s DocumentStatus) Terminal() bool {
	switch s {
	case DocumentCompleted, DocumentFailed, DocumentExporting:
		return true
	}
	return false
}

type Document struct {
	ID               string         `db:"id"                json:"id"`
	TenantID         TenantID       `db:"tenant_id"         json:"tenantId"`
	Filename         string         `db:"filename"          json:"filename"`
	MimeType         string         `db:"mime_type"         json:"mimeType"`
	SizeBytes        int64          `db:"size_bytes"        json:"sizeBytes"`
	SchemeID         string         `db:"scheme_id"         json:"schemeId"`
	Status           DocumentStatus `db:"status"            json:"status"`
	Confidence       float64        `db:"confidence"        json:"confidence"`
	BlobKey          string         `db:"blob_key"          json:"-"`
	Fields           FieldSet       `db:"fields"            json:"fields"`
	ExtractionErrors []string       `db:"extraction_errors" json:"extractionErrors"`
	Version          int64          `db:"version"           json:"version"`
	CreatedAt        time.Time      `db:"created_at"        json:"createdAt"`
	UpdatedAt        time.Time      `db:"updated_at"        json:"updatedAt"`
}

// FieldSet is the extracted key/value payload of a document.
type FieldSet map[string]string

// ExtractionResult is what the extraction engine produces for one document.
// The real OCR/AI computation lives behind the Engine collaborator; this
// system only stores its output.
type ExtractionResult struct {
	Fields     FieldSet
	Confidence float64
	Errors     []string
}

type BulkAction string

const (
	BulkDelete BulkAction = "delete"
	BulkExport BulkAction = "export"
)

func ParseBulkAction(s string) (BulkAction, error) {
	switch BulkAction(s) {
	case BulkDelete, BulkExport:
		return BulkAction(s), nil
	}
	return "", ErrInvalidArgument
}
