package usecase

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/chronomed/chronology-service/internal/core/domain"
	"github.com/chronomed/chronology-service/internal/core/ports"
)

// IngestDocumentUseCase stores an uploaded binary, creates the queued
// document record and nudges the admission scheduler. Deletion also goes
// through here because it frees binaries and may open a pipeline slot.
type IngestDocumentUseCase struct {
	cases     ports.CaseRepository
	docs      ports.DocumentRepository
	binaries  ports.BinaryStore
	pages     ports.PageCounter
	scheduler *AdmissionScheduler
}

func NewIngestDocumentUseCase(
	cases ports.CaseRepository,
	docs ports.DocumentRepository,
	binaries ports.BinaryStore,
	pages ports.PageCounter,
	scheduler *AdmissionScheduler,
) *IngestDocumentUseCase {
	return &IngestDocumentUseCase{
		cases:     cases,
		docs:      docs,
		binaries:  binaries,
		pages:     pages,
		scheduler: scheduler,
	}
}

func (uc *IngestDocumentUseCase) Upload(
	ctx context.Context,
	caseID, filename, mimeType string,
	body io.Reader,
) (*domain.Document, error) {
	if _, err := uc.cases.GetByID(ctx, caseID); err != nil {
		return nil, fmt.Errorf("fetch case: %w", err)
	}

	content, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read upload body: %w", err)
	}
	if len(content) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "upload document", fmt.Errorf("empty file %q", filename))
	}

	id := uuid.NewString()
	storageKey := fmt.Sprintf("%s_%s", id, sanitizeFilename(filename))

	if err := uc.binaries.Save(ctx, storageKey, bytes.NewReader(content)); err != nil {
		return nil, fmt.Errorf("save source binary: %w", err)
	}

	// Page count is best effort and only informs the viewer; a counting
	// failure never blocks ingestion.
	pageCount, err := uc.pages.Count(content, mimeType)
	if err != nil {
		pageCount = 0
	}

	now := time.Now().UTC()
	doc := &domain.Document{
		ID:         id,
		CaseID:     caseID,
		Filename:   filename,
		MimeType:   mimeType,
		SizeBytes:  int64(len(content)),
		PageCount:  pageCount,
		StorageKey: storageKey,
		Status:     domain.StatusQueued,
		UploadedAt: now,
		UpdatedAt:  now,
	}
	if err := uc.docs.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("create document record: %w", err)
	}

	if _, err := uc.scheduler.Evaluate(ctx, caseID); err != nil {
		return nil, fmt.Errorf("evaluate admission: %w", err)
	}
	return doc, nil
}

func (uc *IngestDocumentUseCase) Delete(ctx context.Context, documentID string) error {
	doc, err := uc.docs.GetByID(ctx, documentID)
	if err != nil {
		return fmt.Errorf("fetch document by id: %w", err)
	}

	if err := uc.docs.Delete(ctx, documentID); err != nil {
		return fmt.Errorf("delete document record: %w", err)
	}
	// The binary may already be gone; removal is best effort.
	_ = uc.binaries.Remove(ctx, doc.StorageKey)

	// An in-flight stage for this document will see the missing row and
	// discard its result; meanwhile the freed slot can admit the next one.
	if _, err := uc.scheduler.Evaluate(ctx, doc.CaseID); err != nil {
		return fmt.Errorf("evaluate admission: %w", err)
	}
	return nil
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" {
		return "document.bin"
	}
	return base
}
