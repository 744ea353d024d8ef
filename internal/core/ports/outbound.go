package ports

import (
	"context"
	"io"

	"github.com/chronomed/chronology-service/internal/core/domain"
)

// CaseRepository persists cases.
type CaseRepository interface {
	Create(ctx context.Context, c *domain.Case) error
	GetByID(ctx context.Context, id string) (*domain.Case, error)
	List(ctx context.Context) ([]domain.Case, error)
	Delete(ctx context.Context, id string) error
}

// DocumentRepository persists and reads document state. Stage-result
// writes are keyed by id and must report domain.ErrDocumentNotFound when
// the row no longer exists, so a completion for a deleted document stays
// a no-op.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	ListByCase(ctx context.Context, caseID string) ([]domain.Document, error)
	UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, errMessage string) error
	SaveProse(ctx context.Context, id, prose string) error
	SaveEntries(ctx context.Context, id string, entries []domain.DailyEntry) error
	Delete(ctx context.Context, id string) error
}

// BinaryStore holds source document binaries keyed independently of the
// case rows. A missing key is a degraded state, not a failure.
type BinaryStore interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Exists(ctx context.Context, key string) (bool, error)
	Remove(ctx context.Context, key string) error
}

// MessageQueue carries admission events from the scheduler to the worker.
type MessageQueue interface {
	PublishDocumentAdmitted(ctx context.Context, documentID string) error
	SubscribeDocumentAdmitted(ctx context.Context, handler func(context.Context, string) error) error
}

// ProseGenerator is the stage-1 model capability: read the raw document
// and narrate every clinical fact with inline [Page N] citations.
type ProseGenerator interface {
	GenerateProse(ctx context.Context, content []byte, mimeType string) (string, error)
}

// FactExtractor is the stage-2 model capability: mine the cited prose
// into date-grouped entries conforming to the DailyEntry schema.
type FactExtractor interface {
	ExtractEntries(ctx context.Context, prose string) ([]domain.DailyEntry, error)
}

// PageCounter reports the page count of an uploaded binary, best effort.
type PageCounter interface {
	Count(content []byte, mimeType string) (int, error)
}

// ChronologyExporter renders a flattened, date-sorted timeline into a
// downloadable artifact.
type ChronologyExporter interface {
	Export(ctx context.Context, title string, entries []domain.TimelineEntry) ([]byte, error)
}
