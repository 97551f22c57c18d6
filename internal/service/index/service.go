package index

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/w-h-a/medrecord/embedder"
	"github.com/w-h-a/medrecord/vectorstore"
)

const DefaultChunkSize = 500

// SplitText splits text into contiguous chunks of at most maxLength
// characters. Every chunk except possibly the last has exactly
// maxLength; concatenating the chunks reproduces the input. Chunks
// never split a multi-byte character.
func SplitText(text string, maxLength int) []string {
	if maxLength <= 0 {
		maxLength = DefaultChunkSize
	}

	runes := []rune(text)

	var chunks []string

	for i := 0; i < len(runes); i += maxLength {
		end := i + maxLength
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[i:end]))
	}

	return chunks
}

// Service chunks raw text, embeds the chunks in one batched call, and
// upserts them into a named collection.
type Service struct {
	embedder  embedder.Embedder
	store     vectorstore.Store
	chunkSize int
}

// Index returns the number of chunks written. Chunk ids embed a
// per-run identifier so repeated indexing of the same text never
// silently overwrites an earlier run.
func (s *Service) Index(ctx context.Context, collection string, text string) (int, error) {
	chunks := SplitText(text, s.chunkSize)
	if len(chunks) == 0 {
		return 0, nil
	}

	embeddings, err := s.embedder.Embed(ctx, chunks)
	if err != nil {
		return 0, fmt.Errorf("embed chunks: %w", err)
	}

	if err := s.store.GetCollection(ctx, collection); err != nil {
		if !errors.Is(err, vectorstore.ErrCollectionNotFound) {
			return 0, err
		}
		if err := s.store.CreateCollection(ctx, collection); err != nil {
			return 0, fmt.Errorf("create collection %s: %w", collection, err)
		}
	}

	runId := uuid.New().String()

	ids := make([]string, 0, len(chunks))
	for i := range chunks {
		ids = append(ids, fmt.Sprintf("%s-chunk-%d", runId, i))
	}

	if err := s.store.Upsert(ctx, collection, ids, embeddings, chunks, nil); err != nil {
		return 0, fmt.Errorf("upsert chunks: %w", err)
	}

	return len(chunks), nil
}

func New(embedder embedder.Embedder, store vectorstore.Store, chunkSize int) *Service {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	return &Service{
		embedder:  embedder,
		store:     store,
		chunkSize: chunkSize,
	}
}
