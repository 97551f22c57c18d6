package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/w-h-a/medrecord/vectorstore"
)

type entry struct {
	id        string
	content   string
	metadata  map[string]any
	embedding []float32
}

type memoryStore struct {
	options     vectorstore.Options
	collections map[string][]entry
	mtx         sync.RWMutex
}

func (s *memoryStore) CreateCollection(ctx context.Context, name string) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.collections[name]; !ok {
		s.collections[name] = []entry{}
	}

	return nil
}

func (s *memoryStore) GetCollection(ctx context.Context, name string) error {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	if _, ok := s.collections[name]; !ok {
		return vectorstore.ErrCollectionNotFound
	}

	return nil
}

func (s *memoryStore) Upsert(ctx context.Context, collection string, ids []string, embeddings [][]float32, documents []string, metadata map[string]any) error {
	if len(ids) != len(embeddings) || len(ids) != len(documents) {
		return fmt.Errorf("ids, embeddings, and documents must align")
	}

	s.mtx.Lock()
	defer s.mtx.Unlock()

	entries, ok := s.collections[collection]
	if !ok {
		return vectorstore.ErrCollectionNotFound
	}

	for i := range ids {
		cpy := make([]float32, len(embeddings[i]))
		copy(cpy, embeddings[i])

		replaced := false
		for j := range entries {
			if entries[j].id == ids[i] {
				entries[j] = entry{id: ids[i], content: documents[i], metadata: metadata, embedding: cpy}
				replaced = true
				break
			}
		}

		if !replaced {
			entries = append(entries, entry{id: ids[i], content: documents[i], metadata: metadata, embedding: cpy})
		}
	}

	s.collections[collection] = entries

	return nil
}

func (s *memoryStore) Query(ctx context.Context, collection string, embedding []float32, k int) ([]vectorstore.Document, error) {
	if k < 1 {
		return nil, nil
	}

	s.mtx.RLock()
	defer s.mtx.RUnlock()

	entries, ok := s.collections[collection]
	if !ok {
		return nil, vectorstore.ErrCollectionNotFound
	}

	candidates := make([]vectorstore.Document, 0, len(entries))

	for _, e := range entries {
		candidates = append(candidates, vectorstore.Document{
			Id:       e.id,
			Content:  e.content,
			Metadata: e.metadata,
			Score:    float32(cosineSimilarity(embedding, e.embedding)),
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})

	if len(candidates) > k {
		candidates = candidates[:k]
	}

	return candidates, nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 || len(b) == 0 {
		return 0.0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0.0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}

func NewStore(opts ...vectorstore.Option) vectorstore.Store {
	options := vectorstore.NewOptions(opts...)

	return &memoryStore{
		options:     options,
		collections: map[string][]entry{},
		mtx:         sync.RWMutex{},
	}
}
