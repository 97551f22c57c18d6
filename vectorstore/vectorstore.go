package vectorstore

import (
	"context"
	"errors"
)

// ErrCollectionNotFound is returned by GetCollection when the named
// collection does not exist. Callers that want lenient semantics
// handle it by creating the collection.
var ErrCollectionNotFound = errors.New("collection not found")

// Document is one ranked result of a similarity query.
type Document struct {
	Id       string
	Content  string
	Metadata map[string]any
	Score    float32
}

// Store is a namespace-per-collection vector store. Upsert and Query
// are always scoped to exactly one collection.
type Store interface {
	CreateCollection(ctx context.Context, name string) error
	GetCollection(ctx context.Context, name string) error
	Upsert(ctx context.Context, collection string, ids []string, embeddings [][]float32, documents []string, metadata map[string]any) error
	Query(ctx context.Context, collection string, embedding []float32, k int) ([]Document, error)
}
