package index

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/w-h-a/medrecord/embedder"
	"github.com/w-h-a/medrecord/vectorstore"
	"github.com/w-h-a/medrecord/vectorstore/memory"
)

var _ embedder.Embedder = (*mockEmbedder)(nil)

type mockEmbedder struct {
	EmbedFunc func(ctx context.Context, texts []string) ([][]float32, error)
	calls     int
}

func (m *mockEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	m.calls++
	if m.EmbedFunc != nil {
		return m.EmbedFunc(ctx, texts)
	}
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = []float32{float32(len(texts[i])), 1}
	}
	return vectors, nil
}

func TestSplitTextProperties(t *testing.T) {
	testCases := []struct {
		name      string
		text      string
		maxLength int
	}{
		{name: "even split", text: strings.Repeat("a", 1000), maxLength: 500},
		{name: "uneven split", text: strings.Repeat("b", 1234), maxLength: 500},
		{name: "shorter than max", text: "short", maxLength: 500},
		{name: "exact multiple", text: strings.Repeat("c", 15), maxLength: 5},
		{name: "max of one", text: "abc", maxLength: 1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			chunks := SplitText(tc.text, tc.maxLength)

			// concatenation reproduces the input exactly
			assert.Equal(t, tc.text, strings.Join(chunks, ""))

			// every chunk except possibly the last has exactly max length
			for i, chunk := range chunks {
				if i < len(chunks)-1 {
					assert.Len(t, chunk, tc.maxLength)
				} else {
					assert.LessOrEqual(t, len(chunk), tc.maxLength)
				}
			}
		})
	}
}

func TestSplitTextNeverSplitsACharacter(t *testing.T) {
	text := "dosage 500µg twice daily for señor Muñoz"

	chunks := SplitText(text, 11)

	assert.Equal(t, text, strings.Join(chunks, ""))

	for i, chunk := range chunks {
		assert.True(t, utf8.ValidString(chunk), "chunk %d is not valid utf-8", i)
		if i < len(chunks)-1 {
			assert.Equal(t, 11, utf8.RuneCountInString(chunk))
		} else {
			assert.LessOrEqual(t, utf8.RuneCountInString(chunk), 11)
		}
	}
}

func TestSplitTextEmpty(t *testing.T) {
	assert.Empty(t, SplitText("", 500))
}

func TestIndexBatchesOneEmbeddingCall(t *testing.T) {
	ctx := context.Background()
	emb := &mockEmbedder{}
	store := memory.NewStore()

	service := New(emb, store, 10)

	chunks, err := service.Index(ctx, "medical_docs", strings.Repeat("x", 35))
	assert.NoError(t, err)
	assert.Equal(t, 4, chunks)
	assert.Equal(t, 1, emb.calls)
}

func TestIndexCreatesCollectionLazily(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	service := New(&mockEmbedder{}, store, 500)

	assert.ErrorIs(t, store.GetCollection(ctx, "medical_docs"), vectorstore.ErrCollectionNotFound)

	_, err := service.Index(ctx, "medical_docs", "some document text")
	assert.NoError(t, err)

	assert.NoError(t, store.GetCollection(ctx, "medical_docs"))
}

func TestIndexIdsAreUniqueAcrossRuns(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	service := New(&mockEmbedder{}, store, 5)

	text := strings.Repeat("y", 12)

	_, err := service.Index(ctx, "medical_docs", text)
	assert.NoError(t, err)

	_, err = service.Index(ctx, "medical_docs", text)
	assert.NoError(t, err)

	// re-indexing the same text creates new chunks rather than
	// overwriting the earlier run's
	docs, err := store.Query(ctx, "medical_docs", []float32{5, 1}, 100)
	assert.NoError(t, err)
	assert.Len(t, docs, 6)

	seen := map[string]struct{}{}
	for _, doc := range docs {
		_, dup := seen[doc.Id]
		assert.False(t, dup, "duplicate chunk id %s", doc.Id)
		seen[doc.Id] = struct{}{}
	}
}

func TestIndexEmptyTextIsNoop(t *testing.T) {
	emb := &mockEmbedder{}
	service := New(emb, memory.NewStore(), 500)

	chunks, err := service.Index(context.Background(), "medical_docs", "")
	assert.NoError(t, err)
	assert.Zero(t, chunks)
	assert.Zero(t, emb.calls)
}

func TestIndexEmbedFailurePropagates(t *testing.T) {
	emb := &mockEmbedder{
		EmbedFunc: func(ctx context.Context, texts []string) ([][]float32, error) {
			return nil, errors.New("embedding provider down")
		},
	}

	service := New(emb, memory.NewStore(), 500)

	_, err := service.Index(context.Background(), "medical_docs", "text")
	assert.Error(t, err)
}
