package google

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"github.com/w-h-a/medrecord/embedder"
	genaiopt "google.golang.org/api/option"
)

type googleEmbedder struct {
	options embedder.Options
	client  *genai.Client
}

func (e *googleEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	model := e.client.EmbeddingModel(e.options.Model)

	batch := model.NewBatch()
	for _, text := range texts {
		batch.AddContent(genai.Text(text))
	}

	rsp, err := model.BatchEmbedContents(ctx, batch)
	if err != nil {
		return nil, err
	}

	if rsp == nil {
		return nil, errors.New("no response from Google")
	}

	if len(rsp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings from Google, got %d", len(texts), len(rsp.Embeddings))
	}

	vectors := make([][]float32, 0, len(texts))
	for _, emb := range rsp.Embeddings {
		if emb == nil || len(emb.Values) == 0 {
			return nil, errors.New("malformed embedding response from Google")
		}
		vectors = append(vectors, emb.Values)
	}

	return vectors, nil
}

func NewEmbedder(opts ...embedder.Option) embedder.Embedder {
	options := embedder.NewOptions(opts...)

	e := &googleEmbedder{
		options: options,
	}

	client, err := genai.NewClient(
		context.Background(),
		genaiopt.WithAPIKey(options.ApiKey),
	)
	if err != nil {
		panic(err)
	}

	e.client = client

	return e
}
