package ports

import (
	"context"
	"io"

	"github.com/chronomed/chronology-service/internal/core/domain"
)

// CaseManager is the inbound contract for case lifecycle operations.
type CaseManager interface {
	CreateCase(ctx context.Context, name string) (*domain.Case, error)
	GetCase(ctx context.Context, id string) (*domain.Case, error)
	ListCases(ctx context.Context) ([]domain.Case, error)
	DeleteCase(ctx context.Context, id string) error
}

// DocumentIngestor is the inbound contract for document upload and removal.
type DocumentIngestor interface {
	Upload(ctx context.Context, caseID, filename, mimeType string, body io.Reader) (*domain.Document, error)
	Delete(ctx context.Context, documentID string) error
}

// DocumentProcessor runs the two-stage pipeline for an admitted document.
type DocumentProcessor interface {
	ProcessAdmitted(ctx context.Context, documentID string) error
}

// TimelineService exposes the aggregated chronology projections.
type TimelineService interface {
	CaseTimeline(ctx context.Context, caseID string) ([]domain.TimelineEntry, error)
	DocumentTimeline(ctx context.Context, documentID string) ([]domain.TimelineEntry, error)
	ExportCase(ctx context.Context, caseID string) (string, []byte, error)
}

// SourceViewer streams a document's original binary for page preview.
type SourceViewer interface {
	OpenSource(ctx context.Context, documentID string) (*domain.Document, io.ReadCloser, error)
}
