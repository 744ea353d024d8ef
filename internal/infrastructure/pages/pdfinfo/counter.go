package pdfinfo

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Counter reports page counts for uploaded binaries. Only PDFs are
// countable locally; other formats report zero, meaning unknown.
type Counter struct{}

func New() *Counter {
	return &Counter{}
}

func (c *Counter) Count(content []byte, mimeType string) (int, error) {
	if !isPDF(mimeType) {
		return 0, nil
	}
	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return 0, fmt.Errorf("open pdf: %w", err)
	}
	return reader.NumPage(), nil
}

func isPDF(mimeType string) bool {
	return strings.EqualFold(strings.TrimSpace(mimeType), "application/pdf")
}
