package usecase

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/chronomed/chronology-service/internal/core/domain"
)

func TestOpenSource(t *testing.T) {
	docs := newDocRepoFake()
	binaries := newBinaryStoreFake()
	uc := NewSourceViewUseCase(docs, binaries)

	doc := queuedDoc("doc-1", "case-1", time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC))
	docs.put(doc)
	if err := binaries.Save(context.Background(), doc.StorageKey, bytesReader("%PDF-1.4 raw")); err != nil {
		t.Fatalf("seed binary: %v", err)
	}

	got, reader, err := uc.OpenSource(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("OpenSource: %v", err)
	}
	defer reader.Close()

	if got.ID != "doc-1" || got.MimeType != "application/pdf" {
		t.Errorf("document = %+v", got)
	}
	raw, err := io.ReadAll(reader)
	if err != nil || string(raw) != "%PDF-1.4 raw" {
		t.Errorf("read %q, err %v", raw, err)
	}
}

func TestOpenSourceMissingBinary(t *testing.T) {
	docs := newDocRepoFake()
	uc := NewSourceViewUseCase(docs, newBinaryStoreFake())
	docs.put(queuedDoc("doc-1", "case-1", time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)))

	_, _, err := uc.OpenSource(context.Background(), "doc-1")
	if !domain.IsKind(err, domain.ErrBinaryUnavailable) {
		t.Fatalf("expected ErrBinaryUnavailable, got %v", err)
	}
}

func TestOpenSourceUnknownDocument(t *testing.T) {
	uc := NewSourceViewUseCase(newDocRepoFake(), newBinaryStoreFake())
	_, _, err := uc.OpenSource(context.Background(), "missing")
	if !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
}
