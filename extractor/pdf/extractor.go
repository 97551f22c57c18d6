package pdf

import (
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/w-h-a/medrecord/extractor"
)

type pdfExtractor struct {
	options extractor.Options
}

// Extract concatenates per-page text in page order. Page order is the
// authoritative reading order.
func (e *pdfExtractor) Extract(ctx context.Context, path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open pdf: %w", err)
	}
	defer f.Close()

	var b strings.Builder

	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("failed to read pdf page %d: %w", i, err)
		}

		b.WriteString(text)
	}

	return b.String(), nil
}

func NewExtractor(opts ...extractor.Option) extractor.Extractor {
	options := extractor.NewOptions(opts...)

	return &pdfExtractor{
		options: options,
	}
}
