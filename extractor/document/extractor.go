package document

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/w-h-a/medrecord/extractor"
)

// documentExtractor routes a file to the correct extraction strategy
// by its extension: pdf files to the pdf extractor, raster images to
// the ocr extractor.
type documentExtractor struct {
	pdf   extractor.Extractor
	image extractor.Extractor
}

var imageExtensions = map[string]struct{}{
	"jpg":  {},
	"jpeg": {},
	"png":  {},
	"bmp":  {},
	"tiff": {},
}

func (e *documentExtractor) Extract(ctx context.Context, path string) (string, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))

	if ext == "pdf" {
		return e.pdf.Extract(ctx, path)
	}

	if _, ok := imageExtensions[ext]; ok {
		return e.image.Extract(ctx, path)
	}

	return "", fmt.Errorf("%w: %s", extractor.ErrUnsupportedFormat, ext)
}

func NewExtractor(pdf extractor.Extractor, image extractor.Extractor) extractor.Extractor {
	return &documentExtractor{
		pdf:   pdf,
		image: image,
	}
}
