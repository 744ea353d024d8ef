package usecase

import (
	"context"
	"fmt"

	"github.com/chronomed/chronology-service/internal/core/domain"
	"github.com/chronomed/chronology-service/internal/core/ports"
)

// TimelineUseCase exposes the read-only chronology projection. The
// projection is recomputed from the current document set on every call;
// callers get best-effort chronological order via a plain string sort on
// the date field.
type TimelineUseCase struct {
	cases    ports.CaseRepository
	docs     ports.DocumentRepository
	exporter ports.ChronologyExporter
}

func NewTimelineUseCase(
	cases ports.CaseRepository,
	docs ports.DocumentRepository,
	exporter ports.ChronologyExporter,
) *TimelineUseCase {
	return &TimelineUseCase{
		cases:    cases,
		docs:     docs,
		exporter: exporter,
	}
}

func (uc *TimelineUseCase) CaseTimeline(ctx context.Context, caseID string) ([]domain.TimelineEntry, error) {
	if _, err := uc.cases.GetByID(ctx, caseID); err != nil {
		return nil, fmt.Errorf("fetch case: %w", err)
	}
	docs, err := uc.docs.ListByCase(ctx, caseID)
	if err != nil {
		return nil, fmt.Errorf("list case documents: %w", err)
	}
	timeline := domain.BuildTimeline(docs)
	domain.SortTimelineByDate(timeline)
	return timeline, nil
}

// DocumentTimeline is the same projection scoped to one document.
func (uc *TimelineUseCase) DocumentTimeline(ctx context.Context, documentID string) ([]domain.TimelineEntry, error) {
	doc, err := uc.docs.GetByID(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("fetch document by id: %w", err)
	}
	timeline := domain.BuildTimeline([]domain.Document{*doc})
	domain.SortTimelineByDate(timeline)
	return timeline, nil
}

func (uc *TimelineUseCase) ExportCase(ctx context.Context, caseID string) (string, []byte, error) {
	c, err := uc.cases.GetByID(ctx, caseID)
	if err != nil {
		return "", nil, fmt.Errorf("fetch case: %w", err)
	}
	timeline, err := uc.CaseTimeline(ctx, caseID)
	if err != nil {
		return "", nil, err
	}
	artifact, err := uc.exporter.Export(ctx, c.Name, timeline)
	if err != nil {
		return "", nil, fmt.Errorf("export chronology: %w", err)
	}
	return c.Name, artifact, nil
}
