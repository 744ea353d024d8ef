package domain

import "time"

type DocumentStatus string

const (
	StatusIdle               DocumentStatus = "idle"
	StatusQueued             DocumentStatus = "queued"
	StatusGeneratingProse    DocumentStatus = "generating_prose"
	StatusExtractingEntities DocumentStatus = "extracting_entities"
	StatusCompleted          DocumentStatus = "completed"
	StatusError              DocumentStatus = "error"
)

// legal forward transitions; there is no retry edge, an errored document
// stays errored until the user deletes or re-uploads it.
var statusTransitions = map[DocumentStatus][]DocumentStatus{
	StatusIdle:               {StatusQueued},
	StatusQueued:             {StatusGeneratingProse},
	StatusGeneratingProse:    {StatusExtractingEntities, StatusError},
	StatusExtractingEntities: {StatusCompleted, StatusError},
}

func (s DocumentStatus) CanTransitionTo(next DocumentStatus) bool {
	for _, allowed := range statusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// InPipeline reports whether the document currently occupies one of the
// two concurrency-capped pipeline stages.
func (s DocumentStatus) InPipeline() bool {
	return s == StatusGeneratingProse || s == StatusExtractingEntities
}

func (s DocumentStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusError
}

// Document is one uploaded file and its processing state. Status on the
// document is the sole coordination signal between the scheduler, the
// pipeline and the aggregation view. Prose is the stage-1 output and is
// kept on stage-2 failure for diagnostic display. The binary lives in the
// binary store under StorageKey and may be absent; absence disables
// admission and the source viewer but is never an error by itself.
type Document struct {
	ID         string         `json:"id"`
	CaseID     string         `json:"case_id"`
	Filename   string         `json:"filename"`
	MimeType   string         `json:"mime_type"`
	SizeBytes  int64          `json:"size_bytes"`
	PageCount  int            `json:"page_count,omitempty"`
	StorageKey string         `json:"storage_key"`
	Status     DocumentStatus `json:"status"`
	Prose      string         `json:"prose,omitempty"`
	Entries    []DailyEntry   `json:"entries,omitempty"`
	Error      string         `json:"error,omitempty"`
	UploadedAt time.Time      `json:"uploaded_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}
