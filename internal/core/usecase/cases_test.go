package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/chronomed/chronology-service/internal/core/domain"
)

func caseFixture(t *testing.T) (*CaseUseCase, *caseRepoFake, *docRepoFake, *binaryStoreFake) {
	t.Helper()
	cases := newCaseRepoFake()
	docs := newDocRepoFake()
	binaries := newBinaryStoreFake()
	return NewCaseUseCase(cases, docs, binaries), cases, docs, binaries
}

func TestCreateCase(t *testing.T) {
	uc, cases, _, _ := caseFixture(t)

	c, err := uc.CreateCase(context.Background(), "  Jones v. Lakeside Clinic  ")
	if err != nil {
		t.Fatalf("CreateCase: %v", err)
	}
	if c.Name != "Jones v. Lakeside Clinic" {
		t.Errorf("name not trimmed: %q", c.Name)
	}
	if c.ID == "" || c.CreatedAt.IsZero() {
		t.Errorf("id or created_at not set: %+v", c)
	}
	if _, err := cases.GetByID(context.Background(), c.ID); err != nil {
		t.Errorf("case not persisted: %v", err)
	}
}

func TestCreateCaseEmptyName(t *testing.T) {
	uc, _, _, _ := caseFixture(t)
	_, err := uc.CreateCase(context.Background(), "   ")
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestGetCaseAttachesDocuments(t *testing.T) {
	uc, cases, docs, _ := caseFixture(t)
	_ = cases.Create(context.Background(), &domain.Case{ID: "case-1", Name: "n"})
	base := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	docs.put(queuedDoc("doc-1", "case-1", base))
	docs.put(queuedDoc("doc-2", "case-1", base.Add(time.Minute)))
	docs.put(queuedDoc("other", "case-2", base))

	c, err := uc.GetCase(context.Background(), "case-1")
	if err != nil {
		t.Fatalf("GetCase: %v", err)
	}
	if len(c.Documents) != 2 {
		t.Fatalf("got %d documents, want 2", len(c.Documents))
	}
	if c.Documents[0].ID != "doc-1" || c.Documents[1].ID != "doc-2" {
		t.Errorf("documents not in upload order: %+v", c.Documents)
	}
}

func TestDeleteCaseRemovesBinaries(t *testing.T) {
	uc, cases, docs, binaries := caseFixture(t)
	_ = cases.Create(context.Background(), &domain.Case{ID: "case-1", Name: "n"})
	doc := queuedDoc("doc-1", "case-1", time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC))
	docs.put(doc)
	_ = binaries.Save(context.Background(), doc.StorageKey, bytesReader("raw"))

	if err := uc.DeleteCase(context.Background(), "case-1"); err != nil {
		t.Fatalf("DeleteCase: %v", err)
	}
	if _, err := cases.GetByID(context.Background(), "case-1"); !domain.IsKind(err, domain.ErrCaseNotFound) {
		t.Errorf("case still present: %v", err)
	}
	if exists, _ := binaries.Exists(context.Background(), doc.StorageKey); exists {
		t.Error("binary not removed with its case")
	}
}

func TestDeleteCaseUnknown(t *testing.T) {
	uc, _, _, _ := caseFixture(t)
	if err := uc.DeleteCase(context.Background(), "missing"); !domain.IsKind(err, domain.ErrCaseNotFound) {
		t.Fatalf("expected ErrCaseNotFound, got %v", err)
	}
}
