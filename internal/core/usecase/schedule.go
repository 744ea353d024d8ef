package usecase

import (
	"context"
	"fmt"
	"sync"

	"github.com/chronomed/chronology-service/internal/core/domain"
	"github.com/chronomed/chronology-service/internal/core/ports"
)

// AdmissionScheduler enforces the per-case concurrency cap on pipeline
// work. It is level-triggered: Evaluate is called after every document
// mutation (upload, delete, stage transition) and admits at most one
// queued document per call, so there is no separate run loop to keep
// alive. Admission order is upload order; a document whose binary is
// missing stays queued without becoming an error.
type AdmissionScheduler struct {
	docs          ports.DocumentRepository
	binaries      ports.BinaryStore
	queue         ports.MessageQueue
	maxConcurrent int

	mu sync.Mutex
}

func NewAdmissionScheduler(
	docs ports.DocumentRepository,
	binaries ports.BinaryStore,
	queue ports.MessageQueue,
	maxConcurrent int,
) *AdmissionScheduler {
	if maxConcurrent <= 0 {
		maxConcurrent = 2
	}
	return &AdmissionScheduler{
		docs:          docs,
		binaries:      binaries,
		queue:         queue,
		maxConcurrent: maxConcurrent,
	}
}

// Evaluate recomputes admission for one case and admits the earliest
// eligible queued document if capacity allows. It returns the admitted
// document id, or "" when nothing was admitted.
func (s *AdmissionScheduler) Evaluate(ctx context.Context, caseID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	docs, err := s.docs.ListByCase(ctx, caseID)
	if err != nil {
		return "", fmt.Errorf("list case documents: %w", err)
	}

	inFlight := 0
	for _, doc := range docs {
		if doc.Status.InPipeline() {
			inFlight++
		}
	}
	if inFlight >= s.maxConcurrent {
		return "", nil
	}

	// ListByCase returns upload order, so the first eligible hit is the
	// earliest-queued document.
	for _, doc := range docs {
		if doc.Status != domain.StatusQueued {
			continue
		}
		available, err := s.binaries.Exists(ctx, doc.StorageKey)
		if err != nil || !available {
			continue
		}
		if err := s.admit(ctx, doc.ID); err != nil {
			if domain.IsKind(err, domain.ErrDocumentNotFound) {
				continue
			}
			return "", err
		}
		return doc.ID, nil
	}
	return "", nil
}

func (s *AdmissionScheduler) admit(ctx context.Context, documentID string) error {
	// Entering generating_prose clears any prior error message.
	if err := s.docs.UpdateStatus(ctx, documentID, domain.StatusGeneratingProse, ""); err != nil {
		return err
	}
	if err := s.queue.PublishDocumentAdmitted(ctx, documentID); err != nil {
		// Undo the transition so the document is picked up again on the
		// next evaluation instead of occupying a slot nobody works on.
		_ = s.docs.UpdateStatus(ctx, documentID, domain.StatusQueued, "")
		return fmt.Errorf("publish admission event: %w", err)
	}
	return nil
}
