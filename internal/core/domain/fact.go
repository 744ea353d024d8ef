package domain

import (
	"fmt"
	"strings"
)

// FactCategory is the closed set of clinical fact categories. Values
// outside the set are rejected at the extraction boundary, never coerced.
type FactCategory string

const (
	CategoryDiagnosis      FactCategory = "Diagnosis"
	CategoryTreatment      FactCategory = "Treatment"
	CategorySymptom        FactCategory = "Symptom"
	CategoryLabResult      FactCategory = "Lab Result"
	CategoryMedication     FactCategory = "Medication"
	CategoryAdministrative FactCategory = "Administrative"
	CategoryOther          FactCategory = "Other"
)

var factCategories = map[FactCategory]bool{
	CategoryDiagnosis:      true,
	CategoryTreatment:      true,
	CategorySymptom:        true,
	CategoryLabResult:      true,
	CategoryMedication:     true,
	CategoryAdministrative: true,
	CategoryOther:          true,
}

func ParseFactCategory(raw string) (FactCategory, error) {
	category := FactCategory(strings.TrimSpace(raw))
	if !factCategories[category] {
		return "", WrapError(ErrInvalidInput, "parse fact category", fmt.Errorf("unknown category %q", raw))
	}
	return category, nil
}

// Fact is one atomic clinical observation extracted from a document.
// PageNumber and Quote carry the provenance back to the source page;
// a quote is only meaningful together with a page number.
type Fact struct {
	TimeOfDay  string       `json:"time_of_day,omitempty"`
	Category   FactCategory `json:"category"`
	Detail     string       `json:"detail"`
	PageNumber int          `json:"page_number,omitempty"`
	Quote      string       `json:"quote,omitempty"`
}

// DailyEntry groups the facts of one unique date within one document.
// Fact order is extraction order and is never re-sorted.
type DailyEntry struct {
	Date    string   `json:"date"`
	Summary string   `json:"summary"`
	Facts   []Fact   `json:"facts"`
	Tags    []string `json:"tags,omitempty"`
}

// SanitizeFact validates one extracted fact. It returns the normalized
// fact and whether it is well-formed enough to keep.
func SanitizeFact(f Fact) (Fact, bool) {
	category, err := ParseFactCategory(string(f.Category))
	if err != nil {
		return Fact{}, false
	}
	f.Category = category

	f.Detail = strings.TrimSpace(f.Detail)
	if f.Detail == "" {
		return Fact{}, false
	}

	f.TimeOfDay = strings.TrimSpace(f.TimeOfDay)
	f.Quote = strings.TrimSpace(f.Quote)
	if f.PageNumber < 0 {
		f.PageNumber = 0
	}
	// A quote without a locatable page is useless provenance.
	if f.Quote != "" && f.PageNumber == 0 {
		f.Quote = ""
	}
	return f, true
}

// SanitizeEntries is the strict parse step at the stage-2 boundary.
// Malformed entries and facts are dropped per item rather than failing
// the whole result set; entry order and per-entry fact order are kept.
func SanitizeEntries(entries []DailyEntry) []DailyEntry {
	sanitized := make([]DailyEntry, 0, len(entries))
	for _, entry := range entries {
		entry.Date = strings.TrimSpace(entry.Date)
		entry.Summary = strings.TrimSpace(entry.Summary)
		if entry.Date == "" || entry.Summary == "" {
			continue
		}

		facts := make([]Fact, 0, len(entry.Facts))
		for _, fact := range entry.Facts {
			if clean, ok := SanitizeFact(fact); ok {
				facts = append(facts, clean)
			}
		}
		if len(facts) == 0 {
			continue
		}
		entry.Facts = facts

		tags := make([]string, 0, len(entry.Tags))
		for _, tag := range entry.Tags {
			if tag = strings.TrimSpace(tag); tag != "" {
				tags = append(tags, tag)
			}
		}
		entry.Tags = tags

		sanitized = append(sanitized, entry)
	}
	return sanitized
}
