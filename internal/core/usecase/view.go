package usecase

import (
	"context"
	"fmt"
	"io"

	"github.com/chronomed/chronology-service/internal/core/domain"
	"github.com/chronomed/chronology-service/internal/core/ports"
)

// SourceViewUseCase streams the original binary for page preview. The
// binary handle is session-scoped and optional: when it is gone the
// viewer degrades to a typed unavailable error instead of failing hard.
type SourceViewUseCase struct {
	docs     ports.DocumentRepository
	binaries ports.BinaryStore
}

func NewSourceViewUseCase(docs ports.DocumentRepository, binaries ports.BinaryStore) *SourceViewUseCase {
	return &SourceViewUseCase{docs: docs, binaries: binaries}
}

func (uc *SourceViewUseCase) OpenSource(ctx context.Context, documentID string) (*domain.Document, io.ReadCloser, error) {
	doc, err := uc.docs.GetByID(ctx, documentID)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch document by id: %w", err)
	}

	available, err := uc.binaries.Exists(ctx, doc.StorageKey)
	if err != nil {
		return nil, nil, fmt.Errorf("check source binary: %w", err)
	}
	if !available {
		return nil, nil, domain.WrapError(domain.ErrBinaryUnavailable, "open source", fmt.Errorf("document %s", documentID))
	}

	reader, err := uc.binaries.Open(ctx, doc.StorageKey)
	if err != nil {
		return nil, nil, fmt.Errorf("open source binary: %w", err)
	}
	return doc, reader, nil
}
