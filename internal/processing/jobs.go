package processing

// Job kinds executed on the durable queue. Tenant identity travels on the
// job row itself; these args carry only the entity references.
const (
	JobKindExtract          = "document.extract"
	JobKindBulk             = "document.bulk"
	JobKindWorkflowComplete = "workflow.autocomplete"
	JobKindRepositorySync   = "repository.sync"
)

type BulkArgs struct {
	JobID       string   `json:"job_id"`
	Action      string   `json:"action"`
	DocumentIDs []string `json:"document_ids"`
}

type ExtractArgs struct {
	DocumentID string `json:"document_id"`
}

type WorkflowCompleteArgs struct {
	InstanceID string `json:"instance_id"`
}

type RepositorySyncArgs struct {
	JobID       string `json:"job_id"`
	ConnectorID string `json:"connector_id"`
}
