package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/chronomed/chronology-service/internal/core/domain"
)

// docRepoFake is a small in-memory document repository. The scheduler
// tests need real state, so this is shared across the usecase tests
// instead of per-test stubs.
type docRepoFake struct {
	mu   sync.Mutex
	docs map[string]*domain.Document

	listErr   error
	updateErr error
}

func newDocRepoFake() *docRepoFake {
	return &docRepoFake{docs: make(map[string]*domain.Document)}
}

func (f *docRepoFake) put(doc domain.Document) {
	f.mu.Lock()
	defer f.mu.Unlock()
	copyDoc := doc
	f.docs[doc.ID] = &copyDoc
}

func (f *docRepoFake) get(id string) (domain.Document, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.docs[id]
	if !ok {
		return domain.Document{}, false
	}
	return *doc, true
}

func (f *docRepoFake) Create(_ context.Context, doc *domain.Document) error {
	f.put(*doc)
	return nil
}

func (f *docRepoFake) GetByID(_ context.Context, id string) (*domain.Document, error) {
	doc, ok := f.get(id)
	if !ok {
		return nil, domain.WrapError(domain.ErrDocumentNotFound, "get document", fmt.Errorf("id %s", id))
	}
	return &doc, nil
}

func (f *docRepoFake) ListByCase(_ context.Context, caseID string) ([]domain.Document, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var docs []domain.Document
	for _, doc := range f.docs {
		if doc.CaseID == caseID {
			docs = append(docs, *doc)
		}
	}
	sort.Slice(docs, func(i, j int) bool {
		if !docs[i].UploadedAt.Equal(docs[j].UploadedAt) {
			return docs[i].UploadedAt.Before(docs[j].UploadedAt)
		}
		return docs[i].ID < docs[j].ID
	})
	return docs, nil
}

func (f *docRepoFake) UpdateStatus(_ context.Context, id string, status domain.DocumentStatus, errMessage string) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.docs[id]
	if !ok {
		return domain.WrapError(domain.ErrDocumentNotFound, "update document", fmt.Errorf("id %s", id))
	}
	doc.Status = status
	doc.Error = errMessage
	return nil
}

func (f *docRepoFake) SaveProse(_ context.Context, id, prose string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.docs[id]
	if !ok {
		return domain.WrapError(domain.ErrDocumentNotFound, "update document", fmt.Errorf("id %s", id))
	}
	doc.Status = domain.StatusExtractingEntities
	doc.Prose = prose
	return nil
}

func (f *docRepoFake) SaveEntries(_ context.Context, id string, entries []domain.DailyEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.docs[id]
	if !ok {
		return domain.WrapError(domain.ErrDocumentNotFound, "update document", fmt.Errorf("id %s", id))
	}
	doc.Status = domain.StatusCompleted
	doc.Entries = entries
	doc.Error = ""
	return nil
}

func (f *docRepoFake) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.docs[id]; !ok {
		return domain.WrapError(domain.ErrDocumentNotFound, "delete document", fmt.Errorf("id %s", id))
	}
	delete(f.docs, id)
	return nil
}

type caseRepoFake struct {
	mu    sync.Mutex
	cases map[string]*domain.Case
}

func newCaseRepoFake() *caseRepoFake {
	return &caseRepoFake{cases: make(map[string]*domain.Case)}
}

func (f *caseRepoFake) Create(_ context.Context, c *domain.Case) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copyCase := *c
	f.cases[c.ID] = &copyCase
	return nil
}

func (f *caseRepoFake) GetByID(_ context.Context, id string) (*domain.Case, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.cases[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrCaseNotFound, "get case", fmt.Errorf("id %s", id))
	}
	copyCase := *c
	return &copyCase, nil
}

func (f *caseRepoFake) List(_ context.Context) ([]domain.Case, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var cases []domain.Case
	for _, c := range f.cases {
		cases = append(cases, *c)
	}
	return cases, nil
}

func (f *caseRepoFake) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.cases[id]; !ok {
		return domain.WrapError(domain.ErrCaseNotFound, "delete case", fmt.Errorf("id %s", id))
	}
	delete(f.cases, id)
	return nil
}

type binaryStoreFake struct {
	mu    sync.Mutex
	blobs map[string][]byte

	existsErr error
}

func newBinaryStoreFake() *binaryStoreFake {
	return &binaryStoreFake{blobs: make(map[string][]byte)}
}

func (f *binaryStoreFake) Save(_ context.Context, key string, data io.Reader) error {
	raw, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.blobs[key] = raw
	return nil
}

func (f *binaryStoreFake) Open(_ context.Context, key string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	raw, ok := f.blobs[key]
	if !ok {
		return nil, errors.New("blob not found")
	}
	return io.NopCloser(bytes.NewReader(raw)), nil
}

func (f *binaryStoreFake) Exists(_ context.Context, key string) (bool, error) {
	if f.existsErr != nil {
		return false, f.existsErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.blobs[key]
	return ok, nil
}

func (f *binaryStoreFake) Remove(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.blobs, key)
	return nil
}

type queueFake struct {
	mu        sync.Mutex
	published []string
	err       error
}

func (f *queueFake) PublishDocumentAdmitted(_ context.Context, documentID string) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, documentID)
	return nil
}

func (f *queueFake) SubscribeDocumentAdmitted(context.Context, func(context.Context, string) error) error {
	return errors.New("not implemented")
}

func (f *queueFake) publishedIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.published...)
}

type proseGenFake struct {
	prose string
	err   error

	gotContent  []byte
	gotMimeType string
}

func (f *proseGenFake) GenerateProse(_ context.Context, content []byte, mimeType string) (string, error) {
	f.gotContent = content
	f.gotMimeType = mimeType
	if f.err != nil {
		return "", f.err
	}
	return f.prose, nil
}

type extractorFake struct {
	entries []domain.DailyEntry
	err     error

	gotProse string
}

func (f *extractorFake) ExtractEntries(_ context.Context, prose string) ([]domain.DailyEntry, error) {
	f.gotProse = prose
	if f.err != nil {
		return nil, f.err
	}
	return f.entries, nil
}

type pageCounterFake struct {
	count int
	err   error
}

func (f *pageCounterFake) Count([]byte, string) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	return f.count, nil
}

type exporterFake struct {
	artifact []byte
	err      error

	gotTitle   string
	gotEntries []domain.TimelineEntry
}

func (f *exporterFake) Export(_ context.Context, title string, entries []domain.TimelineEntry) ([]byte, error) {
	f.gotTitle = title
	f.gotEntries = entries
	if f.err != nil {
		return nil, f.err
	}
	return f.artifact, nil
}

var errAny = errors.New("backend failure")

func bytesReader(content string) io.Reader {
	return strings.NewReader(content)
}

func queuedDoc(id, caseID string, uploadedAt time.Time) domain.Document {
	return domain.Document{
		ID:         id,
		CaseID:     caseID,
		Filename:   id + ".pdf",
		MimeType:   "application/pdf",
		StorageKey: id + "_blob",
		Status:     domain.StatusQueued,
		UploadedAt: uploadedAt,
		UpdatedAt:  uploadedAt,
	}
}
