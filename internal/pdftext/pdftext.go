// Package pdftext extracts the plain text of PDF documents.
package pdftext

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/chaz8081/scraper/internal/config"
)

// Extractor concatenates the text of every page in page order.
type Extractor struct {
	separator string
}

// New creates an Extractor that joins pages with cfg.PageSeparator.
func New(cfg config.PDFConfig) *Extractor {
	return &Extractor{separator: cfg.PageSeparator}
}

// Extract returns the text of the PDF at path, each page trimmed of
// surrounding whitespace. Null pages are skipped; a page whose text cannot
// be read fails the whole document.
func (e *Extractor) Extract(ctx context.Context, path string) (string, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("pdftext: open %s: %w", path, err)
	}
	defer f.Close()

	var sb strings.Builder
	numPages := reader.NumPage()
	written := 0
	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("pdftext: page %d: %w", i, err)
		}
		// Each text object starts on a new line; only breaks inside the
		// page are kept.
		text = strings.TrimSpace(text)
		if written > 0 {
			sb.WriteString(e.separator)
		}
		sb.WriteString(text)
		written++
	}

	slog.Debug("pdf text extracted", "path", path, "pages", numPages, "chars", sb.Len())
	return sb.String(), nil
}
