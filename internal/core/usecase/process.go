package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/chronomed/chronology-service/internal/core/domain"
	"github.com/chronomed/chronology-service/internal/core/ports"
)

// ProcessDocumentUseCase runs the two strictly ordered pipeline stages
// for one admitted document: binary → cited prose, then prose → grouped
// daily entries. Stage failures are recorded on the document and never
// propagate to sibling documents. Every stage-result write is keyed by
// document id; if the document was deleted mid-stage the write is a
// no-op and the pipeline exits quietly.
type ProcessDocumentUseCase struct {
	docs      ports.DocumentRepository
	binaries  ports.BinaryStore
	prose     ports.ProseGenerator
	extractor ports.FactExtractor
	scheduler *AdmissionScheduler
}

func NewProcessDocumentUseCase(
	docs ports.DocumentRepository,
	binaries ports.BinaryStore,
	prose ports.ProseGenerator,
	extractor ports.FactExtractor,
	scheduler *AdmissionScheduler,
) *ProcessDocumentUseCase {
	return &ProcessDocumentUseCase{
		docs:      docs,
		binaries:  binaries,
		prose:     prose,
		extractor: extractor,
		scheduler: scheduler,
	}
}

func (uc *ProcessDocumentUseCase) ProcessAdmitted(ctx context.Context, documentID string) error {
	doc, err := uc.docs.GetByID(ctx, documentID)
	if err != nil {
		if domain.IsKind(err, domain.ErrDocumentNotFound) {
			return nil
		}
		return fmt.Errorf("fetch document by id: %w", err)
	}

	// Leaving the pipeline frees a slot either way; re-evaluate admission
	// so the next queued document gets in.
	defer func() {
		_, _ = uc.scheduler.Evaluate(context.WithoutCancel(ctx), doc.CaseID)
	}()

	switch doc.Status {
	case domain.StatusGeneratingProse:
	case domain.StatusQueued:
		// Direct dispatch without a prior scheduler transition.
		if err := uc.docs.UpdateStatus(ctx, doc.ID, domain.StatusGeneratingProse, ""); err != nil {
			if domain.IsKind(err, domain.ErrDocumentNotFound) {
				return nil
			}
			return fmt.Errorf("set status=generating_prose: %w", err)
		}
	default:
		// Stale or duplicate admission event.
		return nil
	}

	proseText, err := uc.generateProse(ctx, doc)
	if err != nil {
		return uc.markFailed(ctx, doc.ID, "prose generation", err)
	}

	// Entering extraction stores the stage-1 output.
	if err := uc.docs.SaveProse(ctx, doc.ID, proseText); err != nil {
		if domain.IsKind(err, domain.ErrDocumentNotFound) {
			return nil
		}
		return fmt.Errorf("save prose: %w", err)
	}

	entries, err := uc.extractEntries(ctx, proseText)
	if err != nil {
		// Prose stays on the document for diagnostic display.
		return uc.markFailed(ctx, doc.ID, "entity extraction", err)
	}

	if err := uc.docs.SaveEntries(ctx, doc.ID, entries); err != nil {
		if domain.IsKind(err, domain.ErrDocumentNotFound) {
			return nil
		}
		return fmt.Errorf("save entries: %w", err)
	}
	return nil
}

func (uc *ProcessDocumentUseCase) generateProse(ctx context.Context, doc *domain.Document) (string, error) {
	reader, err := uc.binaries.Open(ctx, doc.StorageKey)
	if err != nil {
		return "", domain.WrapError(domain.ErrBinaryUnavailable, "open source binary", err)
	}
	defer reader.Close()

	content, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("read source binary: %w", err)
	}

	proseText, err := uc.prose.GenerateProse(ctx, content, doc.MimeType)
	if err != nil {
		return "", fmt.Errorf("generate prose: %w", err)
	}
	if proseText == "" {
		return "", domain.WrapError(domain.ErrInvalidInput, "generate prose", errors.New("empty prose output"))
	}
	return proseText, nil
}

func (uc *ProcessDocumentUseCase) extractEntries(ctx context.Context, proseText string) ([]domain.DailyEntry, error) {
	entries, err := uc.extractor.ExtractEntries(ctx, proseText)
	if err != nil {
		return nil, fmt.Errorf("extract entries: %w", err)
	}

	// Strict parse boundary: drop malformed entries per item, never
	// trust the capability's output shape.
	sanitized := domain.SanitizeEntries(entries)
	if len(sanitized) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "extract entries", errors.New("no well-formed daily entries"))
	}
	return sanitized, nil
}

func (uc *ProcessDocumentUseCase) markFailed(ctx context.Context, documentID, stage string, stageErr error) error {
	message := fmt.Sprintf("%s: %v", stage, stageErr)
	if err := uc.docs.UpdateStatus(ctx, documentID, domain.StatusError, message); err != nil {
		if domain.IsKind(err, domain.ErrDocumentNotFound) {
			return nil
		}
		return fmt.Errorf("%w; mark error status: %v", stageErr, err)
	}
	return stageErr
}
