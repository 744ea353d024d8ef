package usecase

import (
	"context"
	"strings"
	"testing"

	"github.com/chronomed/chronology-service/internal/core/domain"
)

func ingestFixture(t *testing.T, maxConcurrent int) (*IngestDocumentUseCase, *caseRepoFake, *docRepoFake, *binaryStoreFake, *queueFake) {
	t.Helper()
	cases := newCaseRepoFake()
	docs := newDocRepoFake()
	binaries := newBinaryStoreFake()
	queue := &queueFake{}
	scheduler := NewAdmissionScheduler(docs, binaries, queue, maxConcurrent)
	uc := NewIngestDocumentUseCase(cases, docs, binaries, &pageCounterFake{count: 5}, scheduler)

	if err := cases.Create(context.Background(), &domain.Case{ID: "case-1", Name: "Smith v. Mercy Hospital"}); err != nil {
		t.Fatalf("seed case: %v", err)
	}
	return uc, cases, docs, binaries, queue
}

func TestUploadCreatesQueuedDocumentAndAdmits(t *testing.T) {
	uc, _, docs, binaries, queue := ingestFixture(t, 2)

	doc, err := uc.Upload(context.Background(), "case-1", "ER Notes (final).pdf", "application/pdf", strings.NewReader("%PDF-1.4 content"))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	if doc.CaseID != "case-1" || doc.Filename != "ER Notes (final).pdf" {
		t.Errorf("document metadata: %+v", doc)
	}
	if doc.SizeBytes != int64(len("%PDF-1.4 content")) {
		t.Errorf("SizeBytes = %d", doc.SizeBytes)
	}
	if doc.PageCount != 5 {
		t.Errorf("PageCount = %d, want 5", doc.PageCount)
	}
	if !strings.HasPrefix(doc.StorageKey, doc.ID+"_") || strings.ContainsAny(doc.StorageKey, "() ") {
		t.Errorf("StorageKey = %q", doc.StorageKey)
	}

	exists, err := binaries.Exists(context.Background(), doc.StorageKey)
	if err != nil || !exists {
		t.Fatalf("binary not stored: exists=%v err=%v", exists, err)
	}

	// With a free slot the upload is admitted immediately.
	stored, _ := docs.get(doc.ID)
	if stored.Status != domain.StatusGeneratingProse {
		t.Fatalf("status = %s, want generating_prose", stored.Status)
	}
	if got := queue.publishedIDs(); len(got) != 1 || got[0] != doc.ID {
		t.Fatalf("published = %v", got)
	}
}

func TestUploadBeyondCapStaysQueued(t *testing.T) {
	uc, _, docs, _, _ := ingestFixture(t, 1)

	first, err := uc.Upload(context.Background(), "case-1", "a.pdf", "application/pdf", strings.NewReader("one"))
	if err != nil {
		t.Fatalf("Upload a: %v", err)
	}
	second, err := uc.Upload(context.Background(), "case-1", "b.pdf", "application/pdf", strings.NewReader("two"))
	if err != nil {
		t.Fatalf("Upload b: %v", err)
	}

	storedFirst, _ := docs.get(first.ID)
	storedSecond, _ := docs.get(second.ID)
	if storedFirst.Status != domain.StatusGeneratingProse {
		t.Errorf("first status = %s", storedFirst.Status)
	}
	if storedSecond.Status != domain.StatusQueued {
		t.Errorf("second status = %s, want queued", storedSecond.Status)
	}
}

func TestUploadUnknownCase(t *testing.T) {
	uc, _, _, _, _ := ingestFixture(t, 2)
	_, err := uc.Upload(context.Background(), "missing", "a.pdf", "application/pdf", strings.NewReader("x"))
	if !domain.IsKind(err, domain.ErrCaseNotFound) {
		t.Fatalf("expected ErrCaseNotFound, got %v", err)
	}
}

func TestUploadEmptyFile(t *testing.T) {
	uc, _, _, _, _ := ingestFixture(t, 2)
	_, err := uc.Upload(context.Background(), "case-1", "empty.pdf", "application/pdf", strings.NewReader(""))
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestUploadPageCountFailureIsNonFatal(t *testing.T) {
	cases := newCaseRepoFake()
	docs := newDocRepoFake()
	binaries := newBinaryStoreFake()
	scheduler := NewAdmissionScheduler(docs, binaries, &queueFake{}, 2)
	uc := NewIngestDocumentUseCase(cases, docs, binaries, &pageCounterFake{err: errAny}, scheduler)
	_ = cases.Create(context.Background(), &domain.Case{ID: "case-1", Name: "n"})

	doc, err := uc.Upload(context.Background(), "case-1", "a.pdf", "application/pdf", strings.NewReader("x"))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if doc.PageCount != 0 {
		t.Errorf("PageCount = %d, want 0", doc.PageCount)
	}
}

func TestDeleteFreesSlotForNextDocument(t *testing.T) {
	uc, _, docs, binaries, _ := ingestFixture(t, 1)

	first, err := uc.Upload(context.Background(), "case-1", "a.pdf", "application/pdf", strings.NewReader("one"))
	if err != nil {
		t.Fatalf("Upload a: %v", err)
	}
	second, err := uc.Upload(context.Background(), "case-1", "b.pdf", "application/pdf", strings.NewReader("two"))
	if err != nil {
		t.Fatalf("Upload b: %v", err)
	}

	if err := uc.Delete(context.Background(), first.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if _, ok := docs.get(first.ID); ok {
		t.Fatal("document row not deleted")
	}
	if exists, _ := binaries.Exists(context.Background(), first.StorageKey); exists {
		t.Fatal("binary not removed")
	}

	// The freed slot admits the queued document.
	stored, _ := docs.get(second.ID)
	if stored.Status != domain.StatusGeneratingProse {
		t.Fatalf("second status = %s, want generating_prose", stored.Status)
	}
}

func TestDeleteUnknownDocument(t *testing.T) {
	uc, _, _, _, _ := ingestFixture(t, 2)
	err := uc.Delete(context.Background(), "nope")
	if !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"ER Notes (final).pdf", "ER_Notes__final_.pdf"},
		{"../../etc/passwd", "passwd"},
		{"scan 001.PDF", "scan_001.PDF"},
		{"", "document.bin"},
	}
	for _, tt := range tests {
		if got := sanitizeFilename(tt.in); got != tt.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
