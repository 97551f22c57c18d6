package query

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/w-h-a/medrecord/embedder"
	"github.com/w-h-a/medrecord/generator"
	"github.com/w-h-a/medrecord/vectorstore"
)

const DefaultTopK = 3

const systemPromptTemplate = "You are a helpful medical assistant. Use only the context below to answer the query.\nContext:\n%s"

// Service answers a free-text query using only chunks retrieved by
// similarity from one collection.
type Service struct {
	embedder  embedder.Embedder
	store     vectorstore.Store
	generator generator.Generator
	topK      int
}

// Answer embeds the query, fetches the nearest chunks, and asks the
// model to answer strictly from that context. A missing collection is
// created empty rather than failing, which yields an ungrounded
// answer.
func (s *Service) Answer(ctx context.Context, userQuery string, collection string) (string, error) {
	vectors, err := s.embedder.Embed(ctx, []string{userQuery})
	if err != nil {
		return "", fmt.Errorf("embed query: %w", err)
	}

	if len(vectors) == 0 {
		return "", errors.New("no embedding for query")
	}

	docs, err := s.retrieve(ctx, collection, vectors[0])
	if err != nil {
		return "", err
	}

	contents := make([]string, 0, len(docs))
	for _, doc := range docs {
		contents = append(contents, doc.Content)
	}

	systemPrompt := fmt.Sprintf(systemPromptTemplate, strings.Join(contents, "\n"))

	answer, err := s.generator.Generate(
		ctx,
		[]generator.Message{
			{Role: generator.RoleSystem, Content: systemPrompt},
			{Role: generator.RoleUser, Content: userQuery},
		},
		generator.WithTemperature(0.3),
		generator.WithMaxTokens(500),
	)
	if err != nil {
		return "", fmt.Errorf("generate answer: %w", err)
	}

	return answer, nil
}

func (s *Service) retrieve(ctx context.Context, collection string, vector []float32) ([]vectorstore.Document, error) {
	if err := s.store.GetCollection(ctx, collection); err != nil {
		if !errors.Is(err, vectorstore.ErrCollectionNotFound) {
			return nil, err
		}
		if err := s.store.CreateCollection(ctx, collection); err != nil {
			return nil, fmt.Errorf("create collection %s: %w", collection, err)
		}
		return nil, nil
	}

	docs, err := s.store.Query(ctx, collection, vector, s.topK)
	if err != nil {
		return nil, fmt.Errorf("query collection %s: %w", collection, err)
	}

	return docs, nil
}

func New(embedder embedder.Embedder, store vectorstore.Store, generator generator.Generator, topK int) *Service {
	if topK <= 0 {
		topK = DefaultTopK
	}

	return &Service{
		embedder:  embedder,
		store:     store,
		generator: generator,
		topK:      topK,
	}
}
