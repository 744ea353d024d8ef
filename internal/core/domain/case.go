package domain

import (
	"sort"
	"time"
)

// Case is a named collection of documents. It owns its documents:
// deleting a case deletes the documents and their stored binaries.
type Case struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	CreatedAt time.Time  `json:"created_at"`
	Documents []Document `json:"documents,omitempty"`
}

// TimelineEntry is a DailyEntry stamped with its source document for
// traceability in the case-wide view.
type TimelineEntry struct {
	DailyEntry
	SourceDocumentID   string `json:"source_document_id"`
	SourceDocumentName string `json:"source_document_name"`
}

// BuildTimeline is the pure aggregation projection: completed documents
// with at least one entry, flattened in document order. The result is
// unsorted but stable; it is recomputed from scratch on every read, never
// patched incrementally.
func BuildTimeline(docs []Document) []TimelineEntry {
	var timeline []TimelineEntry
	for _, doc := range docs {
		if doc.Status != StatusCompleted || len(doc.Entries) == 0 {
			continue
		}
		for _, entry := range doc.Entries {
			timeline = append(timeline, TimelineEntry{
				DailyEntry:         entry,
				SourceDocumentID:   doc.ID,
				SourceDocumentName: doc.Filename,
			})
		}
	}
	return timeline
}

// SortTimelineByDate orders entries by plain lexicographic comparison of
// the date string. ISO dates sort chronologically; non-ISO dates sort
// best-effort only, which is documented behavior rather than a defect.
func SortTimelineByDate(entries []TimelineEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Date < entries[j].Date
	})
}
