package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/chronomed/chronology-service/internal/core/domain"
	"github.com/chronomed/chronology-service/internal/core/ports"
)

// CaseUseCase manages case lifecycle. A case owns its documents: case
// deletion removes every document row and its stored binary.
type CaseUseCase struct {
	cases    ports.CaseRepository
	docs     ports.DocumentRepository
	binaries ports.BinaryStore
}

func NewCaseUseCase(
	cases ports.CaseRepository,
	docs ports.DocumentRepository,
	binaries ports.BinaryStore,
) *CaseUseCase {
	return &CaseUseCase{
		cases:    cases,
		docs:     docs,
		binaries: binaries,
	}
}

func (uc *CaseUseCase) CreateCase(ctx context.Context, name string) (*domain.Case, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "create case", fmt.Errorf("case name is required"))
	}

	c := &domain.Case{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	if err := uc.cases.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create case: %w", err)
	}
	return c, nil
}

func (uc *CaseUseCase) GetCase(ctx context.Context, id string) (*domain.Case, error) {
	c, err := uc.cases.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetch case: %w", err)
	}
	docs, err := uc.docs.ListByCase(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list case documents: %w", err)
	}
	c.Documents = docs
	return c, nil
}

func (uc *CaseUseCase) ListCases(ctx context.Context) ([]domain.Case, error) {
	cases, err := uc.cases.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list cases: %w", err)
	}
	return cases, nil
}

func (uc *CaseUseCase) DeleteCase(ctx context.Context, id string) error {
	docs, err := uc.docs.ListByCase(ctx, id)
	if err != nil {
		return fmt.Errorf("list case documents: %w", err)
	}
	for _, doc := range docs {
		_ = uc.binaries.Remove(ctx, doc.StorageKey)
	}
	// Document rows cascade with the case row.
	if err := uc.cases.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete case: %w", err)
	}
	return nil
}
