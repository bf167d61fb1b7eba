package loaders

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"docsearch/backend/go/internal/rag_service/rag/interfaces"
)

// PdfErrorPrefix starts the placeholder text stored for a PDF that could
// not be parsed.
const PdfErrorPrefix = "Error processing PDF: "

// PdfLoader implements the Loader interface for PDF uploads.
type PdfLoader struct{}

// NewPdfLoader creates a new PdfLoader.
func NewPdfLoader() *PdfLoader {
	return &PdfLoader{}
}

// Load extracts the plain text of every page and joins the pages with a
// newline. Pages without text are skipped. A document that cannot be
// parsed yields PdfErrorPrefix followed by the reason.
func (l *PdfLoader) Load(ctx context.Context, _ string, data []byte) string {
	text, err := extractPages(ctx, data)
	if err != nil {
		return PdfErrorPrefix + err.Error()
	}
	return text
}

// extractPages converts panics raised by the parser on malformed input
// into errors.
func extractPages(ctx context.Context, data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed document: %v", r)
		}
	}()

	if len(data) == 0 {
		return "", fmt.Errorf("empty file")
	}
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	var pages []string
	for i := 1; i <= r.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		content, err := p.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("page %d: %w", i, err)
		}
		if strings.TrimSpace(content) == "" {
			continue
		}
		pages = append(pages, content)
	}
	return strings.Join(pages, "\n"), nil
}

// compile-time check to ensure PdfLoader implements the Loader interface
var _ interfaces.Loader = (*PdfLoader)(nil)
