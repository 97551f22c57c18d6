package extractor

import (
	"context"
	"errors"
)

var (
	// ErrUnsupportedFormat means the file extension is outside the
	// supported set. Nothing is attempted for such files.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrNoTextFound means the provider ran but found no readable text.
	ErrNoTextFound = errors.New("no text found in document")
)

type Extractor interface {
	Extract(ctx context.Context, path string) (string, error)
}
