package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/chronomed/chronology-service/internal/core/domain"
)

type DocumentRepository struct {
	db *sql.DB
}

func NewDocumentRepository(db *sql.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

const documentColumns = `id, case_id, filename, mime_type, size_bytes, page_count, storage_key, status, prose, entries, error_message, uploaded_at, updated_at`

func (r *DocumentRepository) Create(ctx context.Context, doc *domain.Document) error {
	entriesJSON, err := marshalEntries(doc.Entries)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO documents (
	id, case_id, filename, mime_type, size_bytes, page_count, storage_key, status, prose, entries, error_message, uploaded_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
`,
		doc.ID, doc.CaseID, doc.Filename, doc.MimeType, doc.SizeBytes, doc.PageCount, doc.StorageKey,
		string(doc.Status), doc.Prose, entriesJSON, doc.Error, doc.UploadedAt, doc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+documentColumns+`
FROM documents
WHERE id = $1
`, id)

	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrDocumentNotFound, "get document", fmt.Errorf("id %s", id))
		}
		return nil, fmt.Errorf("scan document: %w", err)
	}
	return doc, nil
}

// ListByCase returns documents in upload order, which is the admission
// order the scheduler relies on.
func (r *DocumentRepository) ListByCase(ctx context.Context, caseID string) ([]domain.Document, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT `+documentColumns+`
FROM documents
WHERE case_id = $1
ORDER BY uploaded_at, id
`, caseID)
	if err != nil {
		return nil, fmt.Errorf("query case documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return docs, nil
}

func (r *DocumentRepository) UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, errMessage string) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE documents
SET status = $2, error_message = $3, updated_at = $4
WHERE id = $1
`, id, string(status), errMessage, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update document status: %w", err)
	}
	return notFoundWhenNoRows(result, id)
}

// SaveProse stores the stage-1 output and advances the document into the
// extraction stage in one write.
func (r *DocumentRepository) SaveProse(ctx context.Context, id, prose string) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE documents
SET status = $2, prose = $3, updated_at = $4
WHERE id = $1
`, id, string(domain.StatusExtractingEntities), prose, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save prose: %w", err)
	}
	return notFoundWhenNoRows(result, id)
}

// SaveEntries stores the stage-2 output and completes the document.
func (r *DocumentRepository) SaveEntries(ctx context.Context, id string, entries []domain.DailyEntry) error {
	entriesJSON, err := marshalEntries(entries)
	if err != nil {
		return err
	}
	result, err := r.db.ExecContext(ctx, `
UPDATE documents
SET status = $2, entries = $3, error_message = '', updated_at = $4
WHERE id = $1
`, id, string(domain.StatusCompleted), entriesJSON, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save entries: %w", err)
	}
	return notFoundWhenNoRows(result, id)
}

func (r *DocumentRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return notFoundWhenNoRows(result, id)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*domain.Document, error) {
	var doc domain.Document
	var status string
	var prose sql.NullString
	var errMessage sql.NullString
	var entriesRaw []byte

	err := row.Scan(
		&doc.ID, &doc.CaseID, &doc.Filename, &doc.MimeType, &doc.SizeBytes, &doc.PageCount,
		&doc.StorageKey, &status, &prose, &entriesRaw, &errMessage, &doc.UploadedAt, &doc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(entriesRaw) > 0 {
		if err := json.Unmarshal(entriesRaw, &doc.Entries); err != nil {
			return nil, fmt.Errorf("unmarshal entries: %w", err)
		}
	}
	doc.Status = domain.DocumentStatus(status)
	doc.Prose = prose.String
	doc.Error = errMessage.String
	return &doc, nil
}

func marshalEntries(entries []domain.DailyEntry) ([]byte, error) {
	if entries == nil {
		entries = []domain.DailyEntry{}
	}
	raw, err := json.Marshal(entries)
	if err != nil {
		return nil, fmt.Errorf("marshal entries: %w", err)
	}
	return raw, nil
}

func notFoundWhenNoRows(result sql.Result, id string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrDocumentNotFound, "update document", fmt.Errorf("id %s", id))
	}
	return nil
}
